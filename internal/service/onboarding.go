package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shaneHighPeek/beesold-mission-control/internal/drive"
	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/notify"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

// OnboardingSource distinguishes operator-initiated onboarding from the
// external CRM webhook.
type OnboardingSource string

const (
	SourceOperator OnboardingSource = "OPERATOR"
	SourceWebhook  OnboardingSource = "WEBHOOK"
)

type OnboardClientParams struct {
	TenantSlug     string
	BusinessName   string
	ContactName    string
	Email          string
	Phone          string
	AssignedOwner  string
	TriggerInvite  bool
	Source         OnboardingSource
	IdempotencyKey string
}

type OnboardClientResult struct {
	ClientID     string `json:"clientId"`
	SessionID    string `json:"sessionId"`
	InviteSent   bool   `json:"inviteSent"`
	MagicLinkURL string `json:"magicLinkUrl,omitempty"`
}

// OnboardingService creates clients and their intake sessions, and
// sends the branded invite.
type OnboardingService struct {
	store  *repository.Store
	engine *schema.Engine
	auth   *AuthService
	mailer notify.Mailer
	router drive.FileRouter
}

func NewOnboardingService(store *repository.Store, engine *schema.Engine, auth *AuthService, mailer notify.Mailer, router drive.FileRouter) *OnboardingService {
	return &OnboardingService{
		store:  store,
		engine: engine,
		auth:   auth,
		mailer: mailer,
		router: router,
	}
}

// OnboardClient upserts the client, ensures an active session exists,
// and optionally sends the invite. A webhook replay with a known
// idempotency key short-circuits to the prior result without error.
func (s *OnboardingService) OnboardClient(ctx context.Context, params OnboardClientParams) (*OnboardClientResult, error) {
	tenant, err := s.store.Tenants.FindBySlug(ctx, params.TenantSlug)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if tenant == nil {
		return nil, apperrors.NotFound("Tenant")
	}

	if params.Source == SourceWebhook && params.IdempotencyKey != "" {
		existing, err := s.store.Webhooks.Find(ctx, params.IdempotencyKey, tenant.ID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if existing != nil {
			session, err := s.ensureSession(ctx, tenant.ID, existing.ClientID)
			if err != nil {
				return nil, err
			}
			return &OnboardClientResult{
				ClientID:  existing.ClientID,
				SessionID: session.ID,
			}, nil
		}
	}

	client, err := s.store.Clients.Upsert(ctx, model.UpsertClientParams{
		TenantID:      tenant.ID,
		BusinessName:  params.BusinessName,
		ContactName:   params.ContactName,
		Email:         params.Email,
		Phone:         params.Phone,
		AssignedOwner: params.AssignedOwner,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	session, err := s.ensureSession(ctx, tenant.ID, client.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  tenant.ID,
		ClientID:  client.ID,
		Actor:     model.ActorSystem,
		Action:    "CLIENT_ONBOARDED",
		Details: model.JSONMap{
			"source":       string(params.Source),
			"businessName": client.BusinessName,
			"contactName":  client.ContactName,
			"email":        client.Email,
		},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to append audit entry")
	}

	if params.Source == SourceWebhook && params.IdempotencyKey != "" {
		if err := s.store.Webhooks.Create(ctx, params.IdempotencyKey, tenant.ID, client.ID); err != nil {
			return nil, apperrors.Database(err)
		}
	}

	result := &OnboardClientResult{ClientID: client.ID, SessionID: session.ID}

	if params.TriggerInvite {
		link, err := s.SendInvite(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		result.InviteSent = true
		result.MagicLinkURL = link
	}

	return result, nil
}

// SendInvite provisions the client folder, issues a fresh magic link,
// and sends the branded welcome email.
func (s *OnboardingService) SendInvite(ctx context.Context, sessionID string) (string, error) {
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if session == nil {
		return "", apperrors.NotFound("Session")
	}
	client, err := s.store.Clients.FindByID(ctx, session.ClientID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	tenant, err := s.store.Tenants.FindByID(ctx, session.TenantID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if client == nil || tenant == nil {
		return "", apperrors.NotFound("Session")
	}

	if session.DriveFolderID == nil || *session.DriveFolderID == "" {
		if folder, err := s.router.EnsureClientFolder(ctx, tenant, client); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID).Msg("folder provisioning failed")
		} else if err := s.store.Sessions.SetDriveFolder(ctx, session.ID, folder.ID, folder.URL); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to record drive folder")
		}
	}

	link, err := s.auth.IssueMagicLink(ctx, tenant, session)
	if err != nil {
		return "", err
	}

	msg := notify.RenderWelcome(tenant, client, session, link)
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("welcome email delivery failed")
	} else if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  tenant.ID,
		ClientID:  client.ID,
		Actor:     model.ActorSystem,
		Action:    "WELCOME_EMAIL_SENT",
		Details:   model.JSONMap{"to": client.Email},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to append audit entry")
	}

	if err := s.store.Sessions.SetInviteSent(ctx, session.ID); err != nil {
		return "", apperrors.Database(err)
	}

	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  tenant.ID,
		ClientID:  client.ID,
		Actor:     model.ActorSystem,
		Action:    "CLIENT_INVITED",
		Details:   model.JSONMap{},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to append audit entry")
	}

	return link, nil
}

// RequestMagicLink is the client-initiated "email me a sign-in link"
// flow. It never reveals whether the address is known: any lookup miss
// succeeds with nothing sent, so the endpoint cannot be used to
// enumerate client emails.
func (s *OnboardingService) RequestMagicLink(ctx context.Context, tenantSlug, email string) error {
	tenant, err := s.store.Tenants.FindBySlug(ctx, tenantSlug)
	if err != nil {
		return apperrors.Database(err)
	}
	if tenant == nil {
		return nil
	}

	client, err := s.store.Clients.FindByTenantAndEmail(ctx, tenant.ID, email)
	if err != nil {
		return apperrors.Database(err)
	}
	if client == nil || client.IsArchived {
		log.Info().Str("tenant_id", tenant.ID).Msg("magic link requested for unknown or archived client")
		return nil
	}

	session, err := s.store.Sessions.FindActiveByClient(ctx, client.ID)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil {
		return nil
	}

	_, err = s.SendInvite(ctx, session.ID)
	return err
}

// SetClientArchiveState archives or restores the client behind a
// session. Archived clients cannot sign in and receive no links.
func (s *OnboardingService) SetClientArchiveState(ctx context.Context, sessionID string, archived bool, actorName string) error {
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil {
		return apperrors.NotFound("Session")
	}

	if err := s.store.Clients.SetArchived(ctx, session.ClientID, archived); err != nil {
		return apperrors.Database(err)
	}

	action := "CLIENT_ARCHIVED"
	if !archived {
		action = "CLIENT_RESTORED"
	}
	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		ClientID:  session.ClientID,
		Actor:     model.ActorOperator,
		Action:    action,
		Details:   model.JSONMap{"actorName": actorName},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to append audit entry")
	}
	return nil
}

// ensureSession returns the client's active session, creating and
// seeding one on first onboarding.
func (s *OnboardingService) ensureSession(ctx context.Context, tenantID, clientID string) (*model.IntakeSession, error) {
	existing, err := s.store.Sessions.FindActiveByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return existing, nil
	}

	session, err := s.store.Sessions.Create(ctx, tenantID, clientID, s.engine.TotalSteps())
	if err != nil {
		return nil, apperrors.Database(err)
	}

	seeds := make([]repository.StepSeed, 0, s.engine.TotalSteps())
	for i, step := range s.engine.Steps() {
		seeds = append(seeds, repository.StepSeed{Key: step.Key, Title: step.Title, Order: i + 1})
	}
	if err := s.store.Steps.Seed(ctx, session.ID, seeds); err != nil {
		return nil, apperrors.Database(err)
	}

	return session, nil
}
