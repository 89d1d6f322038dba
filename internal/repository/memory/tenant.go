package memory

import (
	"context"
	"sort"
	"strings"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type tenantRepo struct{ s *store }

func (r *tenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (r *tenantRepo) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.Slug == slug {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

func (r *tenantRepo) List(ctx context.Context, includeArchived bool) ([]model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		if !includeArchived && t.IsArchived {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *tenantRepo) Create(ctx context.Context, params model.CreateTenantParams) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.Slug == params.Slug {
			return nil, apperrors.AlreadyExists("Tenant")
		}
	}
	ts := now()
	t := &model.Tenant{
		ID:            newID("tenant"),
		Slug:          params.Slug,
		Name:          params.Name,
		ShortName:     params.ShortName,
		SenderName:    params.SenderName,
		SenderEmail:   strings.ToLower(params.SenderEmail),
		PortalBaseURL: params.PortalBaseURL,
		Branding:      params.Branding,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	r.s.tenants[t.ID] = t
	out := *t
	return &out, nil
}

func (r *tenantRepo) Update(ctx context.Context, id string, params model.UpdateTenantParams) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, nil
	}
	if params.Name != nil {
		t.Name = *params.Name
	}
	if params.ShortName != nil {
		t.ShortName = *params.ShortName
	}
	if params.SenderName != nil {
		t.SenderName = *params.SenderName
	}
	if params.SenderEmail != nil {
		t.SenderEmail = strings.ToLower(*params.SenderEmail)
	}
	if params.PortalBaseURL != nil {
		t.PortalBaseURL = *params.PortalBaseURL
	}
	if params.Branding != nil {
		t.Branding = *params.Branding
	}
	if params.IsArchived != nil {
		t.IsArchived = *params.IsArchived
		if *params.IsArchived {
			t.ArchivedAt = timePtr(now())
		} else {
			t.ArchivedAt = nil
		}
	}
	t.UpdatedAt = now()
	out := *t
	return &out, nil
}
