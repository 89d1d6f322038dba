package model

import (
	"time"
)

// Client is one business contact within a tenant. Uniqueness is enforced
// on (tenant, email), not globally. The password credential is optional
// and set lazily on first portal access.
type Client struct {
	ID             string     `db:"id" json:"id"`
	TenantID       string     `db:"tenant_id" json:"tenantId"`
	BusinessName   string     `db:"business_name" json:"businessName"`
	ContactName    string     `db:"contact_name" json:"contactName"`
	Email          string     `db:"email" json:"email"`
	Phone          string     `db:"phone" json:"phone,omitempty"`
	AssignedOwner  string     `db:"assigned_owner" json:"assignedOwner,omitempty"`
	PasswordSalt   *string    `db:"password_salt" json:"-"`
	PasswordHash   *string    `db:"password_hash" json:"-"`
	IsArchived     bool       `db:"is_archived" json:"isArchived"`
	ArchivedAt     *time.Time `db:"archived_at" json:"archivedAt,omitempty"`
	LastActivityAt *time.Time `db:"last_activity_at" json:"lastActivityAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasPassword reports whether the client has completed password setup.
func (c *Client) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != "" && c.PasswordSalt != nil && *c.PasswordSalt != ""
}

type UpsertClientParams struct {
	TenantID      string
	BusinessName  string
	ContactName   string
	Email         string
	Phone         string
	AssignedOwner string
}
