package memory

import (
	"context"
	"sort"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

type sessionRepo struct{ s *store }

func (r *sessionRepo) FindByID(ctx context.Context, id string) (*model.IntakeSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	out := *sess
	return &out, nil
}

func (r *sessionRepo) FindActiveByClient(ctx context.Context, clientID string) (*model.IntakeSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.sessions {
		if sess.ClientID == clientID {
			out := *sess
			return &out, nil
		}
	}
	return nil, nil
}

func (r *sessionRepo) List(ctx context.Context) ([]model.IntakeSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.IntakeSession, 0, len(r.s.sessions))
	for _, sess := range r.s.sessions {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *sessionRepo) Create(ctx context.Context, tenantID, clientID string, totalSteps int) (*model.IntakeSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts := now()
	sess := &model.IntakeSession{
		ID:           newID("session"),
		TenantID:     tenantID,
		ClientID:     clientID,
		Status:       model.StateInvited,
		CurrentStep:  1,
		TotalSteps:   totalSteps,
		MissingItems: []string{},
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	r.s.sessions[sess.ID] = sess
	out := *sess
	return &out, nil
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, id string, status model.LifecycleState) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		sess.Status = status
	})
}

func (r *sessionRepo) MarkPartialSubmitted(ctx context.Context, id string) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		if sess.PartialSubmittedAt == nil {
			sess.PartialSubmittedAt = timePtr(now())
		}
	})
}

func (r *sessionRepo) MarkFinalSubmitted(ctx context.Context, id string) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		if sess.FinalSubmittedAt == nil {
			sess.FinalSubmittedAt = timePtr(now())
		}
	})
}

func (r *sessionRepo) SetCurrentStep(ctx context.Context, id string, currentStep int) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		step := currentStep
		if step < 1 {
			step = 1
		}
		if step > sess.TotalSteps {
			step = sess.TotalSteps
		}
		sess.CurrentStep = step
	})
}

func (r *sessionRepo) SetMissingItems(ctx context.Context, id string, items []string) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		sess.MissingItems = append([]string{}, items...)
	})
}

func (r *sessionRepo) SetCompletionPct(ctx context.Context, id string, pct int) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		sess.CompletionPct = pct
	})
}

func (r *sessionRepo) SetInviteSent(ctx context.Context, id string) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		sess.InviteSentAt = timePtr(now())
	})
}

func (r *sessionRepo) SetLastPortalAccess(ctx context.Context, id string) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		sess.LastPortalAccessAt = timePtr(now())
	})
}

func (r *sessionRepo) SetDriveFolder(ctx context.Context, id, folderID, folderURL string) error {
	return r.mutate(id, func(sess *model.IntakeSession) {
		sess.DriveFolderID = &folderID
		sess.DriveFolderURL = &folderURL
	})
}

func (r *sessionRepo) mutate(id string, fn func(*model.IntakeSession)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil
	}
	fn(sess)
	sess.UpdatedAt = now()
	return nil
}

type stepRepo struct{ s *store }

func (r *stepRepo) ListBySession(ctx context.Context, sessionID string) ([]model.IntakeStep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.IntakeStep
	for _, step := range r.s.steps {
		if step.SessionID == sessionID {
			out = append(out, *step)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (r *stepRepo) FindBySessionAndKey(ctx context.Context, sessionID, stepKey string) (*model.IntakeStep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	step := r.findLocked(sessionID, stepKey)
	if step == nil {
		return nil, nil
	}
	out := *step
	out.Data = step.Data.Merge(nil)
	return &out, nil
}

func (r *stepRepo) findLocked(sessionID, stepKey string) *model.IntakeStep {
	for _, step := range r.s.steps {
		if step.SessionID == sessionID && step.StepKey == stepKey {
			return step
		}
	}
	return nil
}

func (r *stepRepo) Seed(ctx context.Context, sessionID string, seeds []repository.StepSeed) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts := now()
	for _, seed := range seeds {
		step := &model.IntakeStep{
			ID:        newID("step"),
			SessionID: sessionID,
			StepKey:   seed.Key,
			Title:     seed.Title,
			StepOrder: seed.Order,
			Data:      schema.AnswerMap{},
			UpdatedAt: ts,
		}
		r.s.steps[step.ID] = step
	}
	return nil
}

func (r *stepRepo) MergeData(ctx context.Context, sessionID, stepKey string, data schema.AnswerMap, markComplete bool) (*model.IntakeStep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	step := r.findLocked(sessionID, stepKey)
	if step == nil {
		return nil, nil
	}
	step.Data = step.Data.Merge(data)
	step.IsComplete = step.IsComplete || markComplete
	step.UpdatedAt = now()
	out := *step
	out.Data = step.Data.Merge(nil)
	return &out, nil
}

type assetRepo struct{ s *store }

func (r *assetRepo) ListBySession(ctx context.Context, sessionID string) ([]model.IntakeAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.IntakeAsset
	for _, asset := range r.s.assets {
		if asset.SessionID == sessionID {
			out = append(out, *asset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (r *assetRepo) Create(ctx context.Context, params model.CreateAssetParams) (*model.IntakeAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prior := 0
	for _, asset := range r.s.assets {
		if asset.SessionID == params.SessionID && asset.Category == params.Category && asset.FileName == params.FileName {
			prior++
		}
	}
	asset := &model.IntakeAsset{
		ID:         newID("asset"),
		SessionID:  params.SessionID,
		TenantID:   params.TenantID,
		ClientID:   params.ClientID,
		Category:   params.Category,
		FileName:   params.FileName,
		MimeType:   params.MimeType,
		SizeBytes:  params.SizeBytes,
		Revision:   prior + 1,
		UploadedAt: now(),
	}
	r.s.assets[asset.ID] = asset
	out := *asset
	return &out, nil
}

func (r *assetRepo) SetDriveFile(ctx context.Context, id, fileID, fileURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	asset, ok := r.s.assets[id]
	if !ok {
		return nil
	}
	asset.DriveFileID = &fileID
	asset.DriveFileURL = &fileURL
	return nil
}

type statusHistoryRepo struct{ s *store }

func (r *statusHistoryRepo) Append(ctx context.Context, sessionID string, status model.LifecycleState, note string) (*model.StatusRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec := &model.StatusRecord{
		ID:        newID("status"),
		SessionID: sessionID,
		Status:    status,
		Note:      note,
		CreatedAt: now(),
	}
	r.s.history = append(r.s.history, rec)
	out := *rec
	return &out, nil
}

func (r *statusHistoryRepo) ListBySession(ctx context.Context, sessionID string) ([]model.StatusRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.StatusRecord
	for _, rec := range r.s.history {
		if rec.SessionID == sessionID {
			out = append(out, *rec)
		}
	}
	return out, nil
}
