// Package lifecycle owns the intake-session status graph. Every status
// change funnels through Machine so the transition rules, the status
// history, and the audit log can never drift apart.
package lifecycle

import (
	"context"

	"github.com/rs/zerolog"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
)

// transitions is the allowed-edge set of the status graph. APPROVED is
// terminal. REPORT_READY can fall back to the client-facing states when
// the operator rejects the report.
var transitions = map[model.LifecycleState][]model.LifecycleState{
	model.StateInvited: {
		model.StateInProgress,
	},
	model.StateInProgress: {
		model.StatePartialSubmitted,
		model.StateFinalSubmitted,
		model.StateMissingItemsRequested,
	},
	model.StatePartialSubmitted: {
		model.StateInProgress,
		model.StateFinalSubmitted,
		model.StateMissingItemsRequested,
	},
	model.StateMissingItemsRequested: {
		model.StateInProgress,
		model.StatePartialSubmitted,
		model.StateFinalSubmitted,
	},
	model.StateFinalSubmitted: {
		model.StateKlorSynthesis,
	},
	model.StateKlorSynthesis: {
		model.StateCouncilRunning,
	},
	model.StateCouncilRunning: {
		model.StateReportReady,
	},
	model.StateReportReady: {
		model.StateApproved,
		model.StateInProgress,
		model.StateMissingItemsRequested,
	},
	model.StateApproved: {},
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to model.LifecycleState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStates returns the allowed successors of a state.
func NextStates(from model.LifecycleState) []model.LifecycleState {
	return append([]model.LifecycleState{}, transitions[from]...)
}

// IsTerminal reports whether a state has no outgoing edges.
func IsTerminal(state model.LifecycleState) bool {
	return len(transitions[state]) == 0
}

// Machine applies status changes to a session, recording each change in
// the status history and the audit log.
type Machine struct {
	sessions repository.SessionRepository
	history  repository.StatusHistoryRepository
	audit    repository.AuditRepository
	logger   zerolog.Logger
}

func NewMachine(store *repository.Store, logger zerolog.Logger) *Machine {
	return &Machine{
		sessions: store.Sessions,
		history:  store.StatusHistory,
		audit:    store.Audit,
		logger:   logger.With().Str("component", "lifecycle").Logger(),
	}
}

// Transition moves a session along an allowed edge. A no-op transition
// (to == current status) succeeds without touching the record.
func (m *Machine) Transition(ctx context.Context, session *model.IntakeSession, to model.LifecycleState, actor model.Actor, note string) error {
	if session.Status == to {
		return nil
	}
	if !CanTransition(session.Status, to) {
		return apperrors.InvalidTransition(string(session.Status), string(to))
	}
	return m.apply(ctx, session, to, actor, note, "STATE_TRANSITION")
}

// ForceSetStatus sets a status outside the transition rules. Reserved
// for operator corrections and deliberate refreshes; the audit action
// records that the rules were bypassed. Unlike Transition, forcing the
// current status is not a no-op: it re-records history and audit so a
// repeated submission or request stays visible on the timeline.
func (m *Machine) ForceSetStatus(ctx context.Context, session *model.IntakeSession, to model.LifecycleState, actor model.Actor, note string) error {
	return m.apply(ctx, session, to, actor, note, "STATE_FORCE_SET")
}

func (m *Machine) apply(ctx context.Context, session *model.IntakeSession, to model.LifecycleState, actor model.Actor, note string, action string) error {
	from := session.Status
	if err := m.sessions.UpdateStatus(ctx, session.ID, to); err != nil {
		return apperrors.Database(err)
	}

	switch to {
	case model.StatePartialSubmitted:
		if err := m.sessions.MarkPartialSubmitted(ctx, session.ID); err != nil {
			return apperrors.Database(err)
		}
	case model.StateFinalSubmitted:
		if err := m.sessions.MarkFinalSubmitted(ctx, session.ID); err != nil {
			return apperrors.Database(err)
		}
	}

	if _, err := m.history.Append(ctx, session.ID, to, note); err != nil {
		return apperrors.Database(err)
	}

	if _, err := m.audit.Append(ctx, model.AuditEntry{
		SessionID: session.ID,
		TenantID:  session.TenantID,
		ClientID:  session.ClientID,
		Actor:     actor,
		Action:    action,
		Details: model.JSONMap{
			"from": string(from),
			"to":   string(to),
			"note": note,
		},
	}); err != nil {
		return apperrors.Database(err)
	}

	m.logger.Info().
		Str("session_id", session.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor", string(actor)).
		Str("action", action).
		Msg("session status changed")

	session.Status = to
	return nil
}
