package memory

import (
	"context"
	"strings"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type clientRepo struct{ s *store }

func (r *clientRepo) FindByID(ctx context.Context, id string) (*model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *clientRepo) FindByTenantAndEmail(ctx context.Context, tenantID, email string) (*model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.findByTenantAndEmailLocked(tenantID, email)
	if c == nil {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *clientRepo) findByTenantAndEmailLocked(tenantID, email string) *model.Client {
	for _, c := range r.s.clients {
		if c.TenantID == tenantID && strings.EqualFold(c.Email, email) {
			return c
		}
	}
	return nil
}

func (r *clientRepo) Upsert(ctx context.Context, params model.UpsertClientParams) (*model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts := now()
	if existing := r.findByTenantAndEmailLocked(params.TenantID, params.Email); existing != nil {
		existing.BusinessName = params.BusinessName
		existing.ContactName = params.ContactName
		existing.Phone = params.Phone
		if params.AssignedOwner != "" {
			existing.AssignedOwner = params.AssignedOwner
		}
		existing.IsArchived = false
		existing.ArchivedAt = nil
		existing.UpdatedAt = ts
		out := *existing
		return &out, nil
	}
	c := &model.Client{
		ID:             newID("client"),
		TenantID:       params.TenantID,
		BusinessName:   params.BusinessName,
		ContactName:    params.ContactName,
		Email:          strings.ToLower(params.Email),
		Phone:          params.Phone,
		AssignedOwner:  params.AssignedOwner,
		LastActivityAt: timePtr(ts),
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	r.s.clients[c.ID] = c
	out := *c
	return &out, nil
}

func (r *clientRepo) SetPassword(ctx context.Context, id, salt, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil
	}
	c.PasswordSalt = &salt
	c.PasswordHash = &hash
	c.UpdatedAt = now()
	return nil
}

func (r *clientRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil
	}
	c.IsArchived = archived
	if archived {
		c.ArchivedAt = timePtr(now())
	} else {
		c.ArchivedAt = nil
	}
	c.UpdatedAt = now()
	return nil
}

func (r *clientRepo) TouchActivity(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil
	}
	ts := now()
	c.LastActivityAt = &ts
	c.UpdatedAt = ts
	return nil
}
