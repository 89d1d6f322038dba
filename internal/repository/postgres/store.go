// Package postgres is the relational backing store, one repository per
// entity over sqlx.
package postgres

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
)

// NewStore returns a fully wired Postgres repository.Store.
func NewStore(db *sqlx.DB) *repository.Store {
	return &repository.Store{
		Tenants:       &tenantRepo{db: db},
		Clients:       &clientRepo{db: db},
		Sessions:      &sessionRepo{db: db},
		Steps:         &stepRepo{db: db},
		Assets:        &assetRepo{db: db},
		StatusHistory: &statusHistoryRepo{db: db},
		MagicLinks:    &magicLinkRepo{db: db},
		AuthSessions:  &authSessionRepo{db: db},
		Audit:         &auditRepo{db: db},
		Webhooks:      &webhookRepo{db: db},
		Emails:        &emailRepo{db: db},
		Jobs:          &jobRepo{db: db},
		Reports:       &reportRepo{db: db},
	}
}

// handleNotFound converts sql.ErrNoRows to a nil result without error.
// Find* operations treat a missing row as an ordinary outcome.
func handleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
