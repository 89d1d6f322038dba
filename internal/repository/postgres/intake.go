package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

type sessionRepo struct {
	db *sqlx.DB
}

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.IntakeSession, error) {
	var session model.IntakeSession
	err := r.db.GetContext(ctx, &session, `SELECT * FROM intake_sessions WHERE id = $1`, id)
	return handleNotFound(&session, err)
}

func (r *sessionRepo) FindActiveByClient(ctx context.Context, clientID string) (*model.IntakeSession, error) {
	var session model.IntakeSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM intake_sessions WHERE client_id = $1 ORDER BY created_at LIMIT 1
	`, clientID)
	return handleNotFound(&session, err)
}

func (r *sessionRepo) List(ctx context.Context) ([]model.IntakeSession, error) {
	sessions := []model.IntakeSession{}
	err := r.db.SelectContext(ctx, &sessions, `SELECT * FROM intake_sessions ORDER BY created_at`)
	return sessions, err
}

func (r *sessionRepo) Create(ctx context.Context, tenantID, clientID string, totalSteps int) (*model.IntakeSession, error) {
	var session model.IntakeSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO intake_sessions (tenant_id, client_id, total_steps)
		VALUES ($1, $2, $3)
		RETURNING *
	`, tenantID, clientID, totalSteps)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, id string, status model.LifecycleState) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	return err
}

func (r *sessionRepo) MarkPartialSubmitted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET
			partial_submitted_at = COALESCE(partial_submitted_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (r *sessionRepo) MarkFinalSubmitted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET
			final_submitted_at = COALESCE(final_submitted_at, NOW()),
			updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (r *sessionRepo) SetCurrentStep(ctx context.Context, id string, currentStep int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET
			current_step = GREATEST(1, LEAST($2, total_steps)),
			updated_at = NOW()
		WHERE id = $1
	`, id, currentStep)
	return err
}

func (r *sessionRepo) SetMissingItems(ctx context.Context, id string, items []string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET missing_items = $2, updated_at = NOW() WHERE id = $1
	`, id, pq.StringArray(items))
	return err
}

func (r *sessionRepo) SetCompletionPct(ctx context.Context, id string, pct int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET completion_pct = $2, updated_at = NOW() WHERE id = $1
	`, id, pct)
	return err
}

func (r *sessionRepo) SetInviteSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET invite_sent_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

func (r *sessionRepo) SetLastPortalAccess(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET last_portal_access_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

func (r *sessionRepo) SetDriveFolder(ctx context.Context, id, folderID, folderURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_sessions SET drive_folder_id = $2, drive_folder_url = $3, updated_at = NOW() WHERE id = $1
	`, id, folderID, folderURL)
	return err
}

type stepRepo struct {
	db *sqlx.DB
}

func (r *stepRepo) ListBySession(ctx context.Context, sessionID string) ([]model.IntakeStep, error) {
	steps := []model.IntakeStep{}
	err := r.db.SelectContext(ctx, &steps, `
		SELECT * FROM intake_steps WHERE session_id = $1 ORDER BY step_order
	`, sessionID)
	return steps, err
}

func (r *stepRepo) FindBySessionAndKey(ctx context.Context, sessionID, stepKey string) (*model.IntakeStep, error) {
	var step model.IntakeStep
	err := r.db.GetContext(ctx, &step, `
		SELECT * FROM intake_steps WHERE session_id = $1 AND step_key = $2
	`, sessionID, stepKey)
	return handleNotFound(&step, err)
}

func (r *stepRepo) Seed(ctx context.Context, sessionID string, seeds []repository.StepSeed) error {
	for _, seed := range seeds {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO intake_steps (session_id, step_key, title, step_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, step_key) DO NOTHING
		`, sessionID, seed.Key, seed.Title, seed.Order)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *stepRepo) MergeData(ctx context.Context, sessionID, stepKey string, data schema.AnswerMap, markComplete bool) (*model.IntakeStep, error) {
	var step model.IntakeStep
	// JSONB concatenation gives last-write-wins per field without
	// clobbering previously answered fields.
	err := r.db.GetContext(ctx, &step, `
		UPDATE intake_steps SET
			data = data || $3,
			is_complete = is_complete OR $4,
			updated_at = NOW()
		WHERE session_id = $1 AND step_key = $2
		RETURNING *
	`, sessionID, stepKey, data, markComplete)
	return handleNotFound(&step, err)
}

type assetRepo struct {
	db *sqlx.DB
}

func (r *assetRepo) ListBySession(ctx context.Context, sessionID string) ([]model.IntakeAsset, error) {
	assets := []model.IntakeAsset{}
	err := r.db.SelectContext(ctx, &assets, `
		SELECT * FROM intake_assets WHERE session_id = $1 ORDER BY uploaded_at
	`, sessionID)
	return assets, err
}

func (r *assetRepo) Create(ctx context.Context, params model.CreateAssetParams) (*model.IntakeAsset, error) {
	var asset model.IntakeAsset
	err := r.db.GetContext(ctx, &asset, `
		INSERT INTO intake_assets (session_id, tenant_id, client_id, category, file_name, mime_type, size_bytes, revision)
		SELECT $1, $2, $3, $4, $5, $6, $7,
			(SELECT COUNT(*) + 1 FROM intake_assets
			 WHERE session_id = $1 AND category = $4 AND file_name = $5)
		RETURNING *
	`, params.SessionID, params.TenantID, params.ClientID, params.Category,
		params.FileName, params.MimeType, params.SizeBytes)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepo) SetDriveFile(ctx context.Context, id, fileID, fileURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE intake_assets SET drive_file_id = $2, drive_file_url = $3 WHERE id = $1
	`, id, fileID, fileURL)
	return err
}

type statusHistoryRepo struct {
	db *sqlx.DB
}

func (r *statusHistoryRepo) Append(ctx context.Context, sessionID string, status model.LifecycleState, note string) (*model.StatusRecord, error) {
	var record model.StatusRecord
	err := r.db.GetContext(ctx, &record, `
		INSERT INTO intake_status_history (session_id, status, note)
		VALUES ($1, $2, $3)
		RETURNING *
	`, sessionID, status, note)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *statusHistoryRepo) ListBySession(ctx context.Context, sessionID string) ([]model.StatusRecord, error) {
	records := []model.StatusRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM intake_status_history WHERE session_id = $1 ORDER BY created_at
	`, sessionID)
	return records, err
}
