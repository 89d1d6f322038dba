package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type tenantRepo struct {
	db *sqlx.DB
}

func (r *tenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, `SELECT * FROM tenants WHERE id = $1`, id)
	return handleNotFound(&tenant, err)
}

func (r *tenantRepo) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, `SELECT * FROM tenants WHERE slug = $1`, slug)
	return handleNotFound(&tenant, err)
}

func (r *tenantRepo) List(ctx context.Context, includeArchived bool) ([]model.Tenant, error) {
	tenants := []model.Tenant{}
	query := `SELECT * FROM tenants ORDER BY created_at`
	if !includeArchived {
		query = `SELECT * FROM tenants WHERE NOT is_archived ORDER BY created_at`
	}
	err := r.db.SelectContext(ctx, &tenants, query)
	return tenants, err
}

func (r *tenantRepo) Create(ctx context.Context, params model.CreateTenantParams) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, `
		INSERT INTO tenants (slug, name, short_name, sender_name, sender_email, portal_base_url, branding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.Slug, params.Name, params.ShortName, params.SenderName,
		strings.ToLower(params.SenderEmail), params.PortalBaseURL, params.Branding)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepo) Update(ctx context.Context, id string, params model.UpdateTenantParams) (*model.Tenant, error) {
	// A typed nil *Branding must become an untyped nil so COALESCE sees
	// SQL NULL instead of a panicking Valuer.
	var branding any
	if params.Branding != nil {
		branding = *params.Branding
	}

	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, `
		UPDATE tenants SET
			name = COALESCE($2, name),
			short_name = COALESCE($3, short_name),
			sender_name = COALESCE($4, sender_name),
			sender_email = COALESCE(LOWER($5), sender_email),
			portal_base_url = COALESCE($6, portal_base_url),
			branding = COALESCE($7, branding),
			is_archived = COALESCE($8, is_archived),
			archived_at = CASE
				WHEN $8 IS TRUE AND archived_at IS NULL THEN NOW()
				WHEN $8 IS FALSE THEN NULL
				ELSE archived_at
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.ShortName, params.SenderName, params.SenderEmail,
		params.PortalBaseURL, branding, params.IsArchived)
	return handleNotFound(&tenant, err)
}
