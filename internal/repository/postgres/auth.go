package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type magicLinkRepo struct {
	db *sqlx.DB
}

func (r *magicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkParams) (*model.MagicLinkToken, error) {
	var link model.MagicLinkToken
	err := r.db.GetContext(ctx, &link, `
		INSERT INTO magic_link_tokens (token_hash, tenant_id, client_id, session_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.TokenHash, params.TenantID, params.ClientID, params.SessionID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *magicLinkRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	var link model.MagicLinkToken
	err := r.db.GetContext(ctx, &link, `
		SELECT * FROM magic_link_tokens WHERE token_hash = $1
	`, tokenHash)
	return handleNotFound(&link, err)
}

func (r *magicLinkRepo) MarkUsed(ctx context.Context, id string) (bool, error) {
	// The used_at guard makes concurrent consumers race safely: exactly
	// one UPDATE reports an affected row.
	res, err := r.db.ExecContext(ctx, `
		UPDATE magic_link_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *magicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM magic_link_tokens WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type authSessionRepo struct {
	db *sqlx.DB
}

func (r *authSessionRepo) Create(ctx context.Context, params model.CreateAuthSessionParams) (*model.PortalAuthSession, error) {
	var session model.PortalAuthSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO portal_auth_sessions (tenant_id, client_id, session_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.TenantID, params.ClientID, params.SessionID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *authSessionRepo) FindByID(ctx context.Context, id string) (*model.PortalAuthSession, error) {
	var session model.PortalAuthSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM portal_auth_sessions WHERE id = $1
	`, id)
	return handleNotFound(&session, err)
}

func (r *authSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM portal_auth_sessions WHERE id = $1`, id)
	return err
}

func (r *authSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM portal_auth_sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
