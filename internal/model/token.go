package model

import (
	"time"
)

// MagicLinkToken is a one-time portal login token. Only a keyed hash of
// the raw token is ever stored; UsedAt makes the link permanently inert.
type MagicLinkToken struct {
	ID        string     `db:"id" json:"id"`
	TokenHash string     `db:"token_hash" json:"-"`
	TenantID  string     `db:"tenant_id" json:"tenantId"`
	ClientID  string     `db:"client_id" json:"clientId"`
	SessionID string     `db:"session_id" json:"sessionId"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

func (t *MagicLinkToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type CreateMagicLinkParams struct {
	TokenHash string
	TenantID  string
	ClientID  string
	SessionID string
	ExpiresAt time.Time
}

// PortalAuthSession is the server-side record behind the signed portal
// cookie, scoped to exactly one (tenant, client, session) triple.
type PortalAuthSession struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenantId"`
	ClientID  string    `db:"client_id" json:"clientId"`
	SessionID string    `db:"session_id" json:"sessionId"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (s *PortalAuthSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type CreateAuthSessionParams struct {
	TenantID  string
	ClientID  string
	SessionID string
	ExpiresAt time.Time
}
