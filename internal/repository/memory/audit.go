package memory

import (
	"context"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type auditRepo struct{ s *store }

func (r *auditRepo) Append(ctx context.Context, entry model.AuditEntry) (*model.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = newID("audit")
	entry.CreatedAt = now()
	if entry.Details == nil {
		entry.Details = model.JSONMap{}
	}
	stored := entry
	r.s.audit = append(r.s.audit, &stored)
	out := stored
	return &out, nil
}

func (r *auditRepo) ListBySession(ctx context.Context, sessionID string) ([]model.AuditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.AuditEntry
	for _, entry := range r.s.audit {
		if entry.SessionID == sessionID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

type webhookRepo struct{ s *store }

func webhookKey(key, tenantID string) string {
	return tenantID + "|" + key
}

func (r *webhookRepo) Find(ctx context.Context, key, tenantID string) (*model.WebhookIdempotency, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.webhooks[webhookKey(key, tenantID)]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

func (r *webhookRepo) Create(ctx context.Context, key, tenantID, clientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := webhookKey(key, tenantID)
	if _, ok := r.s.webhooks[k]; ok {
		return nil
	}
	r.s.webhooks[k] = &model.WebhookIdempotency{
		Key:       key,
		TenantID:  tenantID,
		ClientID:  clientID,
		CreatedAt: now(),
	}
	return nil
}

type emailRepo struct{ s *store }

func (r *emailRepo) Create(ctx context.Context, params model.CreateOutboundEmailParams) (*model.OutboundEmail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := &model.OutboundEmail{
		ID:             newID("email"),
		TenantID:       params.TenantID,
		SessionID:      params.SessionID,
		To:             params.To,
		FromName:       params.FromName,
		FromEmail:      params.FromEmail,
		Subject:        params.Subject,
		HTML:           params.HTML,
		ProviderStatus: "queued",
		CreatedAt:      now(),
	}
	r.s.emails[email.ID] = email
	out := *email
	return &out, nil
}

func (r *emailRepo) UpdateDelivery(ctx context.Context, id, providerStatus string, providerMessageID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email, ok := r.s.emails[id]
	if !ok {
		return nil
	}
	email.ProviderStatus = providerStatus
	email.ProviderMessageID = providerMessageID
	return nil
}
