package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type clientRepo struct {
	db *sqlx.DB
}

func (r *clientRepo) FindByID(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `SELECT * FROM clients WHERE id = $1`, id)
	return handleNotFound(&client, err)
}

func (r *clientRepo) FindByTenantAndEmail(ctx context.Context, tenantID, email string) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT * FROM clients WHERE tenant_id = $1 AND email = LOWER($2)
	`, tenantID, email)
	return handleNotFound(&client, err)
}

func (r *clientRepo) Upsert(ctx context.Context, params model.UpsertClientParams) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		INSERT INTO clients (tenant_id, business_name, contact_name, email, phone, assigned_owner)
		VALUES ($1, $2, $3, LOWER($4), $5, $6)
		ON CONFLICT (tenant_id, email) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			contact_name = EXCLUDED.contact_name,
			phone = EXCLUDED.phone,
			assigned_owner = CASE
				WHEN EXCLUDED.assigned_owner <> '' THEN EXCLUDED.assigned_owner
				ELSE clients.assigned_owner
			END,
			is_archived = FALSE,
			archived_at = NULL,
			updated_at = NOW()
		RETURNING *
	`, params.TenantID, params.BusinessName, params.ContactName,
		strings.ToLower(params.Email), params.Phone, params.AssignedOwner)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) SetPassword(ctx context.Context, id, salt, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE clients SET password_salt = $2, password_hash = $3, updated_at = NOW() WHERE id = $1
	`, id, salt, hash)
	return err
}

func (r *clientRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE clients SET
			is_archived = $2,
			archived_at = CASE WHEN $2 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1
	`, id, archived)
	return err
}

func (r *clientRepo) TouchActivity(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE clients SET last_activity_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id)
	return err
}
