package memory

import (
	"context"
	"sort"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

type jobRepo struct{ s *store }

func (r *jobRepo) Create(ctx context.Context, sessionID string, kind model.JobKind) (*model.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job := &model.Job{
		ID:        newID("job"),
		SessionID: sessionID,
		Kind:      kind,
		Status:    model.JobQueued,
		CreatedAt: now(),
	}
	r.s.jobs[job.ID] = job
	out := *job
	return &out, nil
}

func (r *jobRepo) SetStatus(ctx context.Context, id string, status model.JobStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil
	}
	job.Status = status
	switch status {
	case model.JobRunning:
		job.StartedAt = timePtr(now())
	case model.JobCompleted, model.JobFailed:
		job.CompletedAt = timePtr(now())
	}
	return nil
}

func (r *jobRepo) SetOutput(ctx context.Context, id string, output model.JSONMap) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil
	}
	job.Output = output
	return nil
}

func (r *jobRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Job
	for _, job := range r.s.jobs {
		if job.SessionID == sessionID {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type reportRepo struct{ s *store }

func (r *reportRepo) Upsert(ctx context.Context, params model.UpsertReportParams) (*model.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ts := now()
	for _, report := range r.s.reports {
		if report.SessionID == params.SessionID {
			report.Title = params.Title
			report.Summary = params.Summary
			report.Findings = append([]string{}, params.Findings...)
			report.Recommendations = append([]string{}, params.Recommendations...)
			report.ApprovedAt = params.ApprovedAt
			report.UpdatedAt = ts
			out := *report
			return &out, nil
		}
	}
	report := &model.Report{
		ID:              newID("report"),
		SessionID:       params.SessionID,
		Title:           params.Title,
		Summary:         params.Summary,
		Findings:        append([]string{}, params.Findings...),
		Recommendations: append([]string{}, params.Recommendations...),
		ApprovedAt:      params.ApprovedAt,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	r.s.reports[report.ID] = report
	out := *report
	return &out, nil
}

func (r *reportRepo) FindBySession(ctx context.Context, sessionID string) (*model.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, report := range r.s.reports {
		if report.SessionID == sessionID {
			out := *report
			return &out, nil
		}
	}
	return nil, nil
}
