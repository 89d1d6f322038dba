package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type jobRepo struct {
	db *sqlx.DB
}

func (r *jobRepo) Create(ctx context.Context, sessionID string, kind model.JobKind) (*model.Job, error) {
	var job model.Job
	err := r.db.GetContext(ctx, &job, `
		INSERT INTO pipeline_jobs (session_id, kind)
		VALUES ($1, $2)
		RETURNING *
	`, sessionID, kind)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) SetStatus(ctx context.Context, id string, status model.JobStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pipeline_jobs SET
			status = $2,
			started_at = CASE WHEN $2 = 'RUNNING' THEN NOW() ELSE started_at END,
			completed_at = CASE WHEN $2 IN ('COMPLETED', 'FAILED') THEN NOW() ELSE completed_at END
		WHERE id = $1
	`, id, status)
	return err
}

func (r *jobRepo) SetOutput(ctx context.Context, id string, output model.JSONMap) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pipeline_jobs SET output = $2 WHERE id = $1
	`, id, output)
	return err
}

func (r *jobRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Job, error) {
	jobs := []model.Job{}
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM pipeline_jobs WHERE session_id = $1 ORDER BY created_at
	`, sessionID)
	return jobs, err
}

type reportRepo struct {
	db *sqlx.DB
}

func (r *reportRepo) Upsert(ctx context.Context, params model.UpsertReportParams) (*model.Report, error) {
	var report model.Report
	err := r.db.GetContext(ctx, &report, `
		INSERT INTO reports (session_id, title, summary, findings, recommendations, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			findings = EXCLUDED.findings,
			recommendations = EXCLUDED.recommendations,
			approved_at = EXCLUDED.approved_at,
			updated_at = NOW()
		RETURNING *
	`, params.SessionID, params.Title, params.Summary,
		pq.StringArray(params.Findings), pq.StringArray(params.Recommendations), params.ApprovedAt)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) FindBySession(ctx context.Context, sessionID string) (*model.Report, error) {
	var report model.Report
	err := r.db.GetContext(ctx, &report, `
		SELECT * FROM reports WHERE session_id = $1
	`, sessionID)
	return handleNotFound(&report, err)
}
