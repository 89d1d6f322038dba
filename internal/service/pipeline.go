package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/lifecycle"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
)

// PipelineService runs the post-submission analysis jobs and the
// operator approval gate. The pipeline is deterministic: every
// submitted session follows the same reviewable path.
type PipelineService struct {
	store   *repository.Store
	machine *lifecycle.Machine
}

func NewPipelineService(store *repository.Store, machine *lifecycle.Machine) *PipelineService {
	return &PipelineService{store: store, machine: machine}
}

// RunSynthesis starts the first pipeline stage against a finally
// submitted session.
func (s *PipelineService) RunSynthesis(ctx context.Context, sessionID string) (*model.Job, error) {
	session, err := s.requireStatus(ctx, sessionID, model.StateFinalSubmitted)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Transition(ctx, session, model.StateKlorSynthesis, model.ActorSystem, "synthesis job started"); err != nil {
		return nil, err
	}

	job, err := s.store.Jobs.Create(ctx, sessionID, model.JobKlorRun)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if err := s.store.Jobs.SetStatus(ctx, job.ID, model.JobRunning); err != nil {
		return nil, apperrors.Database(err)
	}

	steps, err := s.store.Steps.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	complete := 0
	for _, step := range steps {
		if step.IsComplete {
			complete++
		}
	}
	total := len(steps)
	if total == 0 {
		total = 1
	}

	output := model.JSONMap{
		"completeness":    float64(complete) / float64(total),
		"extractedThemes": []string{"Financial readiness", "Strategic timing", "Risk controls"},
	}
	if err := s.store.Jobs.SetOutput(ctx, job.ID, output); err != nil {
		return nil, apperrors.Database(err)
	}
	if err := s.store.Jobs.SetStatus(ctx, job.ID, model.JobCompleted); err != nil {
		return nil, apperrors.Database(err)
	}

	s.auditSystem(ctx, session, "SYNTHESIS_COMPLETED", output)
	return job, nil
}

// RunCouncil runs the second stage: report generation. It leaves the
// session in REPORT_READY awaiting the operator's decision.
func (s *PipelineService) RunCouncil(ctx context.Context, sessionID string) (*model.Job, error) {
	session, err := s.requireStatus(ctx, sessionID, model.StateKlorSynthesis)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Transition(ctx, session, model.StateCouncilRunning, model.ActorSystem, "council analysis started"); err != nil {
		return nil, err
	}

	job, err := s.store.Jobs.Create(ctx, sessionID, model.JobCouncilRun)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if err := s.store.Jobs.SetStatus(ctx, job.ID, model.JobRunning); err != nil {
		return nil, apperrors.Database(err)
	}

	report, err := s.store.Reports.Upsert(ctx, model.UpsertReportParams{
		SessionID: sessionID,
		Title:     "Strategic Intake Report",
		Summary:   "Council completed structured synthesis. Listing is ready for operator review and explicit approval.",
		Findings: []string{
			"Intake data quality is sufficient for downstream planning.",
			"Timeline pressure requires staged execution controls.",
			"Risk profile indicates review checkpoints should be retained.",
		},
		Recommendations: []string{
			"Approve with milestone-based execution gates.",
			"Validate legal and financial attachments before publishing any output.",
			"Assign owner for execution onboarding.",
		},
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.store.Jobs.SetOutput(ctx, job.ID, model.JSONMap{
		"reportId": report.ID,
		"summary":  report.Summary,
	}); err != nil {
		return nil, apperrors.Database(err)
	}
	if err := s.store.Jobs.SetStatus(ctx, job.ID, model.JobCompleted); err != nil {
		return nil, apperrors.Database(err)
	}

	if err := s.machine.Transition(ctx, session, model.StateReportReady, model.ActorSystem, "report generated, awaiting operator decision"); err != nil {
		return nil, err
	}

	s.auditSystem(ctx, session, "COUNCIL_COMPLETED", model.JSONMap{"reportId": report.ID})
	return job, nil
}

// RunFullPipeline runs both stages back to back.
func (s *PipelineService) RunFullPipeline(ctx context.Context, sessionID string) (*model.Report, error) {
	if _, err := s.RunSynthesis(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err := s.RunCouncil(ctx, sessionID); err != nil {
		return nil, err
	}
	report, err := s.store.Reports.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if report == nil {
		return nil, apperrors.Internal("report generation failed")
	}
	return report, nil
}

// ProcessApproval is the operator's decision on a ready report.
// Approval stamps the report; rejection sends the session back to the
// client with the operator's note on the status record.
func (s *PipelineService) ProcessApproval(ctx context.Context, sessionID string, approve bool, operatorName, note string) error {
	session, err := s.requireStatus(ctx, sessionID, model.StateReportReady)
	if err != nil {
		return err
	}

	if approve {
		if err := s.machine.Transition(ctx, session, model.StateApproved, model.ActorOperator,
			fmt.Sprintf("approved by operator %s", operatorName)); err != nil {
			return err
		}
		report, err := s.store.Reports.FindBySession(ctx, sessionID)
		if err != nil {
			return apperrors.Database(err)
		}
		if report != nil {
			now := time.Now()
			if _, err := s.store.Reports.Upsert(ctx, model.UpsertReportParams{
				SessionID:       report.SessionID,
				Title:           report.Title,
				Summary:         report.Summary,
				Findings:        report.Findings,
				Recommendations: report.Recommendations,
				ApprovedAt:      &now,
			}); err != nil {
				return apperrors.Database(err)
			}
		}
	} else {
		if note == "" {
			note = "Needs revisions"
		}
		if err := s.machine.Transition(ctx, session, model.StateInProgress, model.ActorOperator,
			fmt.Sprintf("rejected by operator %s: %s", operatorName, note)); err != nil {
			return err
		}
	}

	decision := "REJECT"
	if approve {
		decision = "APPROVE"
	}
	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		ClientID:  session.ClientID,
		Actor:     model.ActorOperator,
		Action:    "REPORT_DECISION",
		Details: model.JSONMap{
			"decision":     decision,
			"operatorName": operatorName,
			"note":         note,
		},
	}); err != nil {
		log.Warn().Err(err).Msg("failed to append audit entry")
	}

	return nil
}

func (s *PipelineService) requireStatus(ctx context.Context, sessionID string, want model.LifecycleState) (*model.IntakeSession, error) {
	session, err := s.store.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	if session.Status != want {
		return nil, apperrors.InvalidTransition(string(session.Status), string(want))
	}
	return session, nil
}

func (s *PipelineService) auditSystem(ctx context.Context, session *model.IntakeSession, action string, details model.JSONMap) {
	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		ClientID:  session.ClientID,
		Actor:     model.ActorSystem,
		Action:    action,
		Details:   details,
	}); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}
