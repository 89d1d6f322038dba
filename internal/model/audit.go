package model

import (
	"time"
)

// AuditEntry is one row of the append-only audit log, the sole source of
// historical truth for the operator timeline.
type AuditEntry struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"sessionId"`
	TenantID  string    `db:"tenant_id" json:"tenantId"`
	ClientID  string    `db:"client_id" json:"clientId"`
	Actor     Actor     `db:"actor" json:"actor"`
	Action    string    `db:"action" json:"action"`
	Details   JSONMap   `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// WebhookIdempotency records a processed external idempotency key so that
// duplicate webhook deliveries short-circuit to the prior result.
type WebhookIdempotency struct {
	Key       string    `db:"key" json:"key"`
	TenantID  string    `db:"tenant_id" json:"tenantId"`
	ClientID  string    `db:"client_id" json:"clientId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// OutboundEmail is a rendered email handed to the delivery provider.
type OutboundEmail struct {
	ID                string    `db:"id" json:"id"`
	TenantID          string    `db:"tenant_id" json:"tenantId"`
	SessionID         string    `db:"session_id" json:"sessionId"`
	To                string    `db:"to_email" json:"to"`
	FromName          string    `db:"from_name" json:"fromName"`
	FromEmail         string    `db:"from_email" json:"fromEmail"`
	Subject           string    `db:"subject" json:"subject"`
	HTML              string    `db:"html" json:"html"`
	ProviderStatus    string    `db:"provider_status" json:"providerStatus"`
	ProviderMessageID *string   `db:"provider_message_id" json:"providerMessageId,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

type CreateOutboundEmailParams struct {
	TenantID  string
	SessionID string
	To        string
	FromName  string
	FromEmail string
	Subject   string
	HTML      string
}
