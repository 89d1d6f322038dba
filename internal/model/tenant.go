package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Branding is the white-label configuration for a tenant portal,
// stored as a single JSONB column.
type Branding struct {
	LogoURL        string `json:"logoUrl,omitempty"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	LegalFooter    string `json:"legalFooter"`
	ShowHostBrand  bool   `json:"showHostBrand"`
	PortalTone     string `json:"portalTone"`
}

func DefaultBranding() Branding {
	return Branding{
		PrimaryColor:   "#113968",
		SecondaryColor: "#d4932e",
		LegalFooter:    "Confidential and intended only for authorized clients.",
		PortalTone:     "premium_advisory",
	}
}

func (b Branding) Value() (driver.Value, error) {
	return json.Marshal(b)
}

func (b *Branding) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported Branding source type %T", src)
	}
}

// Tenant is a brokerage. The slug is the externally addressable routing
// key and never changes after creation. Archiving hides the tenant from
// default listings without invalidating existing sessions.
type Tenant struct {
	ID            string     `db:"id" json:"id"`
	Slug          string     `db:"slug" json:"slug"`
	Name          string     `db:"name" json:"name"`
	ShortName     string     `db:"short_name" json:"shortName,omitempty"`
	SenderName    string     `db:"sender_name" json:"senderName"`
	SenderEmail   string     `db:"sender_email" json:"senderEmail"`
	PortalBaseURL string     `db:"portal_base_url" json:"portalBaseUrl"`
	Branding      Branding   `db:"branding" json:"branding"`
	IsArchived    bool       `db:"is_archived" json:"isArchived"`
	ArchivedAt    *time.Time `db:"archived_at" json:"archivedAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateTenantParams struct {
	Slug          string
	Name          string
	ShortName     string
	SenderName    string
	SenderEmail   string
	PortalBaseURL string
	Branding      Branding
}

// UpdateTenantParams is a settings patch; nil fields are left unchanged.
type UpdateTenantParams struct {
	Name          *string
	ShortName     *string
	SenderName    *string
	SenderEmail   *string
	PortalBaseURL *string
	Branding      *Branding
	IsArchived    *bool
}
