package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type auditRepo struct {
	db *sqlx.DB
}

func (r *auditRepo) Append(ctx context.Context, entry model.AuditEntry) (*model.AuditEntry, error) {
	var saved model.AuditEntry
	err := r.db.GetContext(ctx, &saved, `
		INSERT INTO audit_entries (session_id, tenant_id, client_id, actor, action, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, entry.SessionID, entry.TenantID, entry.ClientID, entry.Actor, entry.Action, entry.Details)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *auditRepo) ListBySession(ctx context.Context, sessionID string) ([]model.AuditEntry, error) {
	entries := []model.AuditEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM audit_entries WHERE session_id = $1 ORDER BY created_at
	`, sessionID)
	return entries, err
}

type webhookRepo struct {
	db *sqlx.DB
}

func (r *webhookRepo) Find(ctx context.Context, key, tenantID string) (*model.WebhookIdempotency, error) {
	var record model.WebhookIdempotency
	err := r.db.GetContext(ctx, &record, `
		SELECT * FROM webhook_idempotency WHERE key = $1 AND tenant_id = $2
	`, key, tenantID)
	return handleNotFound(&record, err)
}

func (r *webhookRepo) Create(ctx context.Context, key, tenantID, clientID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_idempotency (key, tenant_id, client_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (key, tenant_id) DO NOTHING
	`, key, tenantID, clientID)
	return err
}

type emailRepo struct {
	db *sqlx.DB
}

func (r *emailRepo) Create(ctx context.Context, params model.CreateOutboundEmailParams) (*model.OutboundEmail, error) {
	var email model.OutboundEmail
	err := r.db.GetContext(ctx, &email, `
		INSERT INTO outbound_emails (tenant_id, session_id, to_email, from_name, from_email, subject, html)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.TenantID, params.SessionID, params.To, params.FromName, params.FromEmail,
		params.Subject, params.HTML)
	if err != nil {
		return nil, err
	}
	return &email, nil
}

func (r *emailRepo) UpdateDelivery(ctx context.Context, id, providerStatus string, providerMessageID *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbound_emails SET provider_status = $2, provider_message_id = $3 WHERE id = $1
	`, id, providerStatus, providerMessageID)
	return err
}
