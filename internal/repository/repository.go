// Package repository defines the persistence contract consumed by the
// core. Two interchangeable backing stores implement it: a Postgres
// store (postgres) and an embedded in-memory store (memory).
package repository

import (
	"context"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tenant, error)
	List(ctx context.Context, includeArchived bool) ([]model.Tenant, error)
	Create(ctx context.Context, params model.CreateTenantParams) (*model.Tenant, error)
	Update(ctx context.Context, id string, params model.UpdateTenantParams) (*model.Tenant, error)
}

type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*model.Client, error)
	FindByTenantAndEmail(ctx context.Context, tenantID, email string) (*model.Client, error)
	Upsert(ctx context.Context, params model.UpsertClientParams) (*model.Client, error)
	SetPassword(ctx context.Context, id, salt, hash string) error
	SetArchived(ctx context.Context, id string, archived bool) error
	TouchActivity(ctx context.Context, id string) error
}

type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.IntakeSession, error)
	FindActiveByClient(ctx context.Context, clientID string) (*model.IntakeSession, error)
	List(ctx context.Context) ([]model.IntakeSession, error)
	Create(ctx context.Context, tenantID, clientID string, totalSteps int) (*model.IntakeSession, error)
	UpdateStatus(ctx context.Context, id string, status model.LifecycleState) error
	// MarkPartialSubmitted and MarkFinalSubmitted set the timestamp only
	// if it is not already set.
	MarkPartialSubmitted(ctx context.Context, id string) error
	MarkFinalSubmitted(ctx context.Context, id string) error
	// SetCurrentStep clamps the value to [1, totalSteps].
	SetCurrentStep(ctx context.Context, id string, currentStep int) error
	SetMissingItems(ctx context.Context, id string, items []string) error
	SetCompletionPct(ctx context.Context, id string, pct int) error
	SetInviteSent(ctx context.Context, id string) error
	SetLastPortalAccess(ctx context.Context, id string) error
	SetDriveFolder(ctx context.Context, id, folderID, folderURL string) error
}

// StepSeed creates the empty step rows when a session is created.
type StepSeed struct {
	Key   string
	Title string
	Order int
}

type StepRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]model.IntakeStep, error)
	FindBySessionAndKey(ctx context.Context, sessionID, stepKey string) (*model.IntakeStep, error)
	Seed(ctx context.Context, sessionID string, seeds []StepSeed) error
	// MergeData shallow-merges data into the step's answer map; existing
	// fields survive unless overwritten. isComplete latches true.
	MergeData(ctx context.Context, sessionID, stepKey string, data schema.AnswerMap, markComplete bool) (*model.IntakeStep, error)
}

type AssetRepository interface {
	ListBySession(ctx context.Context, sessionID string) ([]model.IntakeAsset, error)
	// Create assigns revision = count of prior (session, category, fileName)
	// rows + 1.
	Create(ctx context.Context, params model.CreateAssetParams) (*model.IntakeAsset, error)
	SetDriveFile(ctx context.Context, id, fileID, fileURL string) error
}

type StatusHistoryRepository interface {
	Append(ctx context.Context, sessionID string, status model.LifecycleState, note string) (*model.StatusRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.StatusRecord, error)
}

type MagicLinkRepository interface {
	Create(ctx context.Context, params model.CreateMagicLinkParams) (*model.MagicLinkToken, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error)
	// MarkUsed is conditional on the link being unused; it reports whether
	// this call consumed the link.
	MarkUsed(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type AuthSessionRepository interface {
	Create(ctx context.Context, params model.CreateAuthSessionParams) (*model.PortalAuthSession, error)
	FindByID(ctx context.Context, id string) (*model.PortalAuthSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type AuditRepository interface {
	Append(ctx context.Context, entry model.AuditEntry) (*model.AuditEntry, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.AuditEntry, error)
}

type WebhookIdempotencyRepository interface {
	Find(ctx context.Context, key, tenantID string) (*model.WebhookIdempotency, error)
	Create(ctx context.Context, key, tenantID, clientID string) error
}

type OutboundEmailRepository interface {
	Create(ctx context.Context, params model.CreateOutboundEmailParams) (*model.OutboundEmail, error)
	UpdateDelivery(ctx context.Context, id, providerStatus string, providerMessageID *string) error
}

type JobRepository interface {
	Create(ctx context.Context, sessionID string, kind model.JobKind) (*model.Job, error)
	SetStatus(ctx context.Context, id string, status model.JobStatus) error
	SetOutput(ctx context.Context, id string, output model.JSONMap) error
	ListBySession(ctx context.Context, sessionID string) ([]model.Job, error)
}

type ReportRepository interface {
	Upsert(ctx context.Context, params model.UpsertReportParams) (*model.Report, error)
	FindBySession(ctx context.Context, sessionID string) (*model.Report, error)
}

// Store aggregates every repository so callers can be handed one value
// regardless of the backing implementation.
type Store struct {
	Tenants       TenantRepository
	Clients       ClientRepository
	Sessions      SessionRepository
	Steps         StepRepository
	Assets        AssetRepository
	StatusHistory StatusHistoryRepository
	MagicLinks    MagicLinkRepository
	AuthSessions  AuthSessionRepository
	Audit         AuditRepository
	Webhooks      WebhookIdempotencyRepository
	Emails        OutboundEmailRepository
	Jobs          JobRepository
	Reports       ReportRepository
}
