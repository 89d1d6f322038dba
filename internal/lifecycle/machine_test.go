package lifecycle

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository/memory"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to model.LifecycleState
	}{
		{model.StateInvited, model.StateInProgress},
		{model.StateInProgress, model.StatePartialSubmitted},
		{model.StateInProgress, model.StateFinalSubmitted},
		{model.StateInProgress, model.StateMissingItemsRequested},
		{model.StatePartialSubmitted, model.StateInProgress},
		{model.StatePartialSubmitted, model.StateFinalSubmitted},
		{model.StateMissingItemsRequested, model.StateFinalSubmitted},
		{model.StateFinalSubmitted, model.StateKlorSynthesis},
		{model.StateKlorSynthesis, model.StateCouncilRunning},
		{model.StateCouncilRunning, model.StateReportReady},
		{model.StateReportReady, model.StateApproved},
		{model.StateReportReady, model.StateInProgress},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from, to model.LifecycleState
	}{
		{model.StateInvited, model.StateFinalSubmitted},
		{model.StateInvited, model.StateApproved},
		{model.StateInProgress, model.StateKlorSynthesis},
		{model.StateFinalSubmitted, model.StateInProgress},
		{model.StateApproved, model.StateInProgress},
		{model.StateApproved, model.StateApproved},
		{model.StateKlorSynthesis, model.StateReportReady},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(model.StateApproved))
	assert.False(t, IsTerminal(model.StateInvited))
	assert.False(t, IsTerminal(model.StateReportReady))
}

func machineFixture(t *testing.T) (*Machine, *repository.Store, *model.IntakeSession) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	tenant, err := store.Tenants.Create(ctx, model.CreateTenantParams{Slug: "acme", Name: "Acme Brokerage"})
	require.NoError(t, err)
	client, err := store.Clients.Upsert(ctx, model.UpsertClientParams{
		TenantID: tenant.ID, BusinessName: "Widgets Ltd", ContactName: "Pat", Email: "pat@widgets.test",
	})
	require.NoError(t, err)
	session, err := store.Sessions.Create(ctx, tenant.ID, client.ID, 7)
	require.NoError(t, err)

	return NewMachine(store, zerolog.Nop()), store, session
}

func TestTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed edge updates status, history, and audit", func(t *testing.T) {
		machine, store, session := machineFixture(t)

		err := machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, "intake started")
		require.NoError(t, err)
		assert.Equal(t, model.StateInProgress, session.Status)

		stored, err := store.Sessions.FindByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StateInProgress, stored.Status)

		history, err := store.StatusHistory.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, model.StateInProgress, history[0].Status)
		assert.Equal(t, "intake started", history[0].Note)

		entries, err := store.Audit.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "STATE_TRANSITION", entries[0].Action)
		assert.Equal(t, model.ActorClient, entries[0].Actor)
	})

	t.Run("disallowed edge fails without side effects", func(t *testing.T) {
		machine, store, session := machineFixture(t)

		err := machine.Transition(ctx, session, model.StateApproved, model.ActorOperator, "")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidTransition))

		stored, _ := store.Sessions.FindByID(ctx, session.ID)
		assert.Equal(t, model.StateInvited, stored.Status)

		history, _ := store.StatusHistory.ListBySession(ctx, session.ID)
		assert.Empty(t, history)
	})

	t.Run("no-op transition succeeds silently", func(t *testing.T) {
		machine, store, session := machineFixture(t)

		err := machine.Transition(ctx, session, model.StateInvited, model.ActorSystem, "")
		require.NoError(t, err)

		history, _ := store.StatusHistory.ListBySession(ctx, session.ID)
		assert.Empty(t, history)
	})

	t.Run("final submit stamps the timestamp once", func(t *testing.T) {
		machine, store, session := machineFixture(t)

		require.NoError(t, machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, ""))
		require.NoError(t, machine.Transition(ctx, session, model.StateFinalSubmitted, model.ActorClient, ""))

		stored, _ := store.Sessions.FindByID(ctx, session.ID)
		require.NotNil(t, stored.FinalSubmittedAt)
		first := *stored.FinalSubmittedAt

		// Bounce back via force and submit again: the timestamp holds.
		require.NoError(t, machine.ForceSetStatus(ctx, session, model.StateInProgress, model.ActorOperator, "correction"))
		require.NoError(t, machine.Transition(ctx, session, model.StateFinalSubmitted, model.ActorClient, ""))

		stored, _ = store.Sessions.FindByID(ctx, session.ID)
		require.NotNil(t, stored.FinalSubmittedAt)
		assert.Equal(t, first, *stored.FinalSubmittedAt)
	})
}

func TestForceSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("bypasses the transition table", func(t *testing.T) {
		machine, store, session := machineFixture(t)

		err := machine.ForceSetStatus(ctx, session, model.StateReportReady, model.ActorOperator, "operator correction")
		require.NoError(t, err)
		assert.Equal(t, model.StateReportReady, session.Status)

		entries, _ := store.Audit.ListBySession(ctx, session.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, "STATE_FORCE_SET", entries[0].Action)
	})

	t.Run("same-state force re-records history and audit", func(t *testing.T) {
		machine, store, session := machineFixture(t)

		require.NoError(t, machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, ""))
		require.NoError(t, machine.ForceSetStatus(ctx, session, model.StateInProgress, model.ActorOperator, "refreshed"))

		history, _ := store.StatusHistory.ListBySession(ctx, session.ID)
		require.Len(t, history, 2)
		assert.Equal(t, model.StateInProgress, history[1].Status)
		assert.Equal(t, "refreshed", history[1].Note)

		entries, _ := store.Audit.ListBySession(ctx, session.ID)
		require.Len(t, entries, 2)
		assert.Equal(t, "STATE_FORCE_SET", entries[1].Action)
	})

	t.Run("records a distinct audit action from strict transitions", func(t *testing.T) {
		machine, store, session := machineFixture(t)

		require.NoError(t, machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, ""))
		require.NoError(t, machine.ForceSetStatus(ctx, session, model.StateReportReady, model.ActorOperator, ""))

		entries, _ := store.Audit.ListBySession(ctx, session.ID)
		require.Len(t, entries, 2)
		assert.Equal(t, "STATE_TRANSITION", entries[0].Action)
		assert.Equal(t, "STATE_FORCE_SET", entries[1].Action)
	})
}
