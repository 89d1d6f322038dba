package service

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/shaneHighPeek/beesold-mission-control/internal/drive"
	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/lifecycle"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

// IntakeService is the portal-facing core: step saves, asset uploads,
// and the partial/final submission flow, all under a resolved scope.
type IntakeService struct {
	store   *repository.Store
	engine  *schema.Engine
	machine *lifecycle.Machine
	router  drive.FileRouter
}

func NewIntakeService(store *repository.Store, engine *schema.Engine, machine *lifecycle.Machine, router drive.FileRouter) *IntakeService {
	return &IntakeService{
		store:   store,
		engine:  engine,
		machine: machine,
		router:  router,
	}
}

// SessionView is everything the portal UI needs to render one intake.
type SessionView struct {
	Session     *model.IntakeSession    `json:"session"`
	Steps       []model.IntakeStep      `json:"steps"`
	Assets      []model.IntakeAsset     `json:"assets"`
	Definitions []schema.StepDefinition `json:"definitions"`
	Tenant      TenantView              `json:"tenant"`
	Client      ClientView              `json:"client"`
}

type TenantView struct {
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	Branding model.Branding `json:"branding"`
}

type ClientView struct {
	BusinessName string `json:"businessName"`
	ContactName  string `json:"contactName"`
	Email        string `json:"email"`
	HasPassword  bool   `json:"hasPassword"`
}

// SaveStepResult reports a save attempt. A failed complete-save carries
// the offending fields; nothing was persisted for it.
type SaveStepResult struct {
	OK     bool                  `json:"ok"`
	Errors []apperrors.FieldError `json:"errors"`
}

// View assembles the full portal view for a scope.
func (s *IntakeService) View(ctx context.Context, scope *Scope) (*SessionView, error) {
	session, err := s.store.Sessions.FindByID(ctx, scope.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	client, err := s.store.Clients.FindByID(ctx, scope.ClientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	tenant, err := s.store.Tenants.FindByID(ctx, scope.TenantID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil || tenant == nil {
		return nil, apperrors.NotFound("Session")
	}

	steps, err := s.store.Steps.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	assets, err := s.store.Assets.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &SessionView{
		Session:     session,
		Steps:       steps,
		Assets:      assets,
		Definitions: s.engine.Steps(),
		Tenant: TenantView{
			Slug:     tenant.Slug,
			Name:     tenant.Name,
			Branding: tenant.Branding,
		},
		Client: ClientView{
			BusinessName: client.BusinessName,
			ContactName:  client.ContactName,
			Email:        client.Email,
			HasPassword:  client.HasPassword(),
		},
	}, nil
}

// SaveStep persists a step's answers. A complete-save validates the
// merged picture of existing plus incoming answers; on any field error
// nothing is written. A work-in-progress save is never validated and
// always merged.
func (s *IntakeService) SaveStep(ctx context.Context, scope *Scope, stepKey string, data schema.AnswerMap, currentStep int, markComplete bool) (*SaveStepResult, error) {
	session, err := s.store.Sessions.FindByID(ctx, scope.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if _, ok := s.engine.Step(stepKey); !ok {
		return nil, apperrors.NotFound("Step")
	}

	if markComplete {
		existing, err := s.store.Steps.FindBySessionAndKey(ctx, session.ID, stepKey)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		var merged schema.AnswerMap
		if existing != nil {
			merged = existing.Data.Merge(data)
		} else {
			merged = data
		}
		if errs := s.engine.ValidateStep(stepKey, merged); len(errs) > 0 {
			return &SaveStepResult{OK: false, Errors: errs}, nil
		}
	}

	if _, err := s.store.Steps.MergeData(ctx, session.ID, stepKey, data, markComplete); err != nil {
		return nil, apperrors.Database(err)
	}
	if err := s.store.Sessions.SetCurrentStep(ctx, session.ID, currentStep); err != nil {
		return nil, apperrors.Database(err)
	}

	if session.Status == model.StateInvited {
		if err := s.machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, "intake started"); err != nil {
			return nil, err
		}
	}
	if session.Status == model.StateMissingItemsRequested {
		if err := s.machine.ForceSetStatus(ctx, session, model.StateInProgress, model.ActorClient, "client resumed after missing item request"); err != nil {
			return nil, err
		}
	}

	s.refreshCompletion(ctx, session.ID)
	s.touch(ctx, scope)
	s.auditEntry(ctx, scope, "INTAKE_STEP_SAVED", model.JSONMap{
		"stepKey":      stepKey,
		"markComplete": markComplete,
		"currentStep":  currentStep,
	})

	return &SaveStepResult{OK: true, Errors: []apperrors.FieldError{}}, nil
}

// SaveAndExit records where the client left off without touching answers.
func (s *IntakeService) SaveAndExit(ctx context.Context, scope *Scope, currentStep int) error {
	if err := s.store.Sessions.SetCurrentStep(ctx, scope.SessionID, currentStep); err != nil {
		return apperrors.Database(err)
	}
	s.auditEntry(ctx, scope, "SAVE_AND_EXIT", model.JSONMap{"currentStep": currentStep})
	s.touch(ctx, scope)
	return nil
}

// AddAsset records one uploaded file and best-effort routes it to the
// client's document folder. Routing failures are logged, never fatal:
// the asset row exists regardless.
func (s *IntakeService) AddAsset(ctx context.Context, scope *Scope, category model.AssetCategory, fileName, mimeType string, sizeBytes int64) (*model.IntakeAsset, error) {
	session, err := s.store.Sessions.FindByID(ctx, scope.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	folderID := s.ensureFolder(ctx, scope, session)

	asset, err := s.store.Assets.Create(ctx, model.CreateAssetParams{
		SessionID: session.ID,
		TenantID:  scope.TenantID,
		ClientID:  scope.ClientID,
		Category:  category,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: sizeBytes,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if folderID != "" {
		if file, err := s.router.RouteAsset(ctx, folderID, asset); err != nil {
			log.Warn().Err(err).Str("asset_id", asset.ID).Msg("asset routing failed")
		} else {
			if err := s.store.Assets.SetDriveFile(ctx, asset.ID, file.ID, file.URL); err != nil {
				log.Warn().Err(err).Str("asset_id", asset.ID).Msg("failed to record routed file")
			} else {
				asset.DriveFileID = &file.ID
				asset.DriveFileURL = &file.URL
				s.auditEntry(ctx, scope, "DRIVE_FILE_ROUTED", model.JSONMap{
					"assetId": asset.ID,
					"fileUrl": file.URL,
				})
			}
		}
	}

	s.auditEntry(ctx, scope, "ASSET_UPLOADED", model.JSONMap{
		"category": string(asset.Category),
		"fileName": asset.FileName,
		"revision": asset.Revision,
	})
	s.touch(ctx, scope)
	return asset, nil
}

// SubmitPartial marks the session partially submitted. Re-submitting
// from PARTIAL_SUBMITTED refreshes the record rather than failing.
func (s *IntakeService) SubmitPartial(ctx context.Context, scope *Scope, note string) (*model.IntakeSession, error) {
	session, err := s.store.Sessions.FindByID(ctx, scope.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	if session.Status == model.StateInvited {
		if err := s.machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, "intake started"); err != nil {
			return nil, err
		}
	}

	if session.Status == model.StatePartialSubmitted {
		if err := s.machine.ForceSetStatus(ctx, session, model.StatePartialSubmitted, model.ActorClient, "partial submission updated"); err != nil {
			return nil, err
		}
	} else {
		if err := s.machine.Transition(ctx, session, model.StatePartialSubmitted, model.ActorClient, "client submitted partial intake"); err != nil {
			return nil, err
		}
	}

	s.auditEntry(ctx, scope, "INTAKE_PARTIAL_SUBMIT", model.JSONMap{"note": note})
	s.touch(ctx, scope)
	return s.store.Sessions.FindByID(ctx, scope.SessionID)
}

// SubmitFinal moves the session to FINAL_SUBMITTED once the readiness
// checklist passes, and clears any outstanding missing-items request.
func (s *IntakeService) SubmitFinal(ctx context.Context, scope *Scope) (*model.IntakeSession, error) {
	session, err := s.store.Sessions.FindByID(ctx, scope.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	answers, err := s.MergedAnswers(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	assets, err := s.store.Assets.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if blockers := FinalSubmitReadiness(s.engine, answers, assets); len(blockers) > 0 {
		fieldErrs := make([]apperrors.FieldError, len(blockers))
		for i, blocker := range blockers {
			fieldErrs[i] = apperrors.FieldError{Field: "readiness", Message: blocker}
		}
		return nil, apperrors.ValidationFailed(fieldErrs)
	}

	if session.Status == model.StateInvited {
		if err := s.machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, "intake started"); err != nil {
			return nil, err
		}
	}

	switch session.Status {
	case model.StateInProgress, model.StatePartialSubmitted, model.StateMissingItemsRequested:
		if err := s.machine.Transition(ctx, session, model.StateFinalSubmitted, model.ActorClient, "client submitted final intake"); err != nil {
			return nil, err
		}
	default:
		if err := s.machine.ForceSetStatus(ctx, session, model.StateFinalSubmitted, model.ActorClient, "client forced final submission"); err != nil {
			return nil, err
		}
	}

	if err := s.store.Sessions.SetMissingItems(ctx, session.ID, []string{}); err != nil {
		return nil, apperrors.Database(err)
	}

	s.auditEntry(ctx, scope, "INTAKE_FINAL_SUBMIT", nil)
	s.touch(ctx, scope)
	return s.store.Sessions.FindByID(ctx, scope.SessionID)
}

// RequestMissingItems is the operator asking the client for follow-ups.
// Repeat requests replace the outstanding list in place.
func (s *IntakeService) RequestMissingItems(ctx context.Context, sessionID string, items []string, requestedBy string) (*model.IntakeSession, error) {
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}

	if err := s.store.Sessions.SetMissingItems(ctx, session.ID, items); err != nil {
		return nil, apperrors.Database(err)
	}

	if session.Status == model.StateMissingItemsRequested {
		if err := s.machine.ForceSetStatus(ctx, session, model.StateMissingItemsRequested, model.ActorOperator, "missing item request updated"); err != nil {
			return nil, err
		}
	} else {
		if err := s.machine.Transition(ctx, session, model.StateMissingItemsRequested, model.ActorOperator, "operator requested missing items"); err != nil {
			return nil, err
		}
	}

	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		ClientID:  session.ClientID,
		Actor:     model.ActorOperator,
		Action:    "MISSING_ITEMS_REQUESTED",
		Details: model.JSONMap{
			"items":       items,
			"requestedBy": requestedBy,
		},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to append audit entry")
	}

	return s.store.Sessions.FindByID(ctx, sessionID)
}

// MergedAnswers flattens every step's answer map into one view. Step
// answer keys are globally unique across the questionnaire.
func (s *IntakeService) MergedAnswers(ctx context.Context, sessionID string) (schema.AnswerMap, error) {
	steps, err := s.store.Steps.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	merged := schema.AnswerMap{}
	for _, step := range steps {
		merged = merged.Merge(step.Data)
	}
	return merged, nil
}

func (s *IntakeService) ensureFolder(ctx context.Context, scope *Scope, session *model.IntakeSession) string {
	if session.DriveFolderID != nil && *session.DriveFolderID != "" {
		return *session.DriveFolderID
	}

	tenant, err := s.store.Tenants.FindByID(ctx, scope.TenantID)
	if err != nil || tenant == nil {
		log.Warn().Err(err).Str("tenant_id", scope.TenantID).Msg("folder provisioning skipped: tenant lookup failed")
		return ""
	}
	client, err := s.store.Clients.FindByID(ctx, scope.ClientID)
	if err != nil || client == nil {
		log.Warn().Err(err).Str("client_id", scope.ClientID).Msg("folder provisioning skipped: client lookup failed")
		return ""
	}

	folder, err := s.router.EnsureClientFolder(ctx, tenant, client)
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("folder provisioning failed")
		return ""
	}
	if err := s.store.Sessions.SetDriveFolder(ctx, session.ID, folder.ID, folder.URL); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to record drive folder")
	}
	s.auditEntry(ctx, scope, "DRIVE_FOLDER_CREATED", model.JSONMap{"folderUrl": folder.URL})
	session.DriveFolderID = &folder.ID
	session.DriveFolderURL = &folder.URL
	return folder.ID
}

func (s *IntakeService) refreshCompletion(ctx context.Context, sessionID string) {
	steps, err := s.store.Steps.ListBySession(ctx, sessionID)
	if err != nil || len(steps) == 0 {
		return
	}
	complete := 0
	for _, step := range steps {
		if step.IsComplete {
			complete++
		}
	}
	pct := int(math.Round(float64(complete) / float64(len(steps)) * 100))
	if err := s.store.Sessions.SetCompletionPct(ctx, sessionID, pct); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to update completion percentage")
	}
}

func (s *IntakeService) touch(ctx context.Context, scope *Scope) {
	if err := s.store.Clients.TouchActivity(ctx, scope.ClientID); err != nil {
		log.Warn().Err(err).Str("client_id", scope.ClientID).Msg("failed to record client activity")
	}
}

func (s *IntakeService) auditEntry(ctx context.Context, scope *Scope, action string, details model.JSONMap) {
	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: scope.SessionID,
		TenantID:  scope.TenantID,
		ClientID:  scope.ClientID,
		Actor:     model.ActorClient,
		Action:    action,
		Details:   details,
	}); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}
