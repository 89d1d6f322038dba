// Package memory is the embedded backing store: mutex-guarded maps
// behind the same repository contract as the Postgres store. It backs
// tests and the zero-dependency dev mode.
package memory

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
)

type store struct {
	mu sync.Mutex

	tenants      map[string]*model.Tenant
	clients      map[string]*model.Client
	sessions     map[string]*model.IntakeSession
	steps        map[string]*model.IntakeStep
	assets       map[string]*model.IntakeAsset
	history      []*model.StatusRecord
	magicLinks   map[string]*model.MagicLinkToken
	authSessions map[string]*model.PortalAuthSession
	audit        []*model.AuditEntry
	webhooks     map[string]*model.WebhookIdempotency
	emails       map[string]*model.OutboundEmail
	jobs         map[string]*model.Job
	reports      map[string]*model.Report
}

// NewStore returns a fully wired in-memory repository.Store.
func NewStore() *repository.Store {
	s := &store{
		tenants:      map[string]*model.Tenant{},
		clients:      map[string]*model.Client{},
		sessions:     map[string]*model.IntakeSession{},
		steps:        map[string]*model.IntakeStep{},
		assets:       map[string]*model.IntakeAsset{},
		magicLinks:   map[string]*model.MagicLinkToken{},
		authSessions: map[string]*model.PortalAuthSession{},
		webhooks:     map[string]*model.WebhookIdempotency{},
		emails:       map[string]*model.OutboundEmail{},
		jobs:         map[string]*model.Job{},
		reports:      map[string]*model.Report{},
	}
	return &repository.Store{
		Tenants:       &tenantRepo{s},
		Clients:       &clientRepo{s},
		Sessions:      &sessionRepo{s},
		Steps:         &stepRepo{s},
		Assets:        &assetRepo{s},
		StatusHistory: &statusHistoryRepo{s},
		MagicLinks:    &magicLinkRepo{s},
		AuthSessions:  &authSessionRepo{s},
		Audit:         &auditRepo{s},
		Webhooks:      &webhookRepo{s},
		Emails:        &emailRepo{s},
		Jobs:          &jobRepo{s},
		Reports:       &reportRepo{s},
	}
}

func newID(prefix string) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return prefix + "_" + hex.EncodeToString(buf)
}

func now() time.Time {
	return time.Now().UTC()
}

func timePtr(t time.Time) *time.Time { return &t }
