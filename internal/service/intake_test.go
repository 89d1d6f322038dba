package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

func TestSaveStep(t *testing.T) {
	ctx := context.Background()

	t.Run("work in progress save merges without validation", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		// Far from complete: only one of the required fields.
		result, err := env.intake.SaveStep(ctx, scope, "business_profile", schema.AnswerMap{
			"businessName": schema.String("Widgets Ltd"),
		}, 1, false)
		require.NoError(t, err)
		assert.True(t, result.OK)

		step, err := env.store.Steps.FindBySessionAndKey(ctx, scope.SessionID, "business_profile")
		require.NoError(t, err)
		assert.Equal(t, "Widgets Ltd", step.Data["businessName"].Str())
		assert.False(t, step.IsComplete)
	})

	t.Run("complete save validates the merged answers", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		// Seed most of the step as WIP, then complete with only the rest.
		_, err := env.intake.SaveStep(ctx, scope, "business_profile", schema.AnswerMap{
			"businessName": schema.String("Widgets Ltd"),
			"contactName":  schema.String("Pat Doyle"),
			"email":        schema.String("pat@widgets.test"),
			"entityType":   schema.String("llc"),
		}, 1, false)
		require.NoError(t, err)

		result, err := env.intake.SaveStep(ctx, scope, "business_profile", schema.AnswerMap{
			"yearsInOperation": schema.Number(12),
		}, 1, true)
		require.NoError(t, err)
		assert.True(t, result.OK)

		step, _ := env.store.Steps.FindBySessionAndKey(ctx, scope.SessionID, "business_profile")
		assert.True(t, step.IsComplete)
	})

	t.Run("failed complete save persists nothing", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		result, err := env.intake.SaveStep(ctx, scope, "business_profile", schema.AnswerMap{
			"businessName": schema.String("Widgets Ltd"),
			"email":        schema.String("not-an-email"),
		}, 1, true)
		require.NoError(t, err)
		assert.False(t, result.OK)
		assert.NotEmpty(t, result.Errors)

		step, _ := env.store.Steps.FindBySessionAndKey(ctx, scope.SessionID, "business_profile")
		assert.Empty(t, step.Data)
		assert.False(t, step.IsComplete)
	})

	t.Run("completion latches across later partial saves", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		result, err := env.intake.SaveStep(ctx, scope, "business_profile", validAnswers()["business_profile"], 1, true)
		require.NoError(t, err)
		require.True(t, result.OK)

		_, err = env.intake.SaveStep(ctx, scope, "business_profile", schema.AnswerMap{
			"phone": schema.String("+1 555 0100"),
		}, 1, false)
		require.NoError(t, err)

		step, _ := env.store.Steps.FindBySessionAndKey(ctx, scope.SessionID, "business_profile")
		assert.True(t, step.IsComplete)
		assert.Equal(t, "+1 555 0100", step.Data["phone"].Str())
		assert.Equal(t, "Widgets Ltd", step.Data["businessName"].Str())
	})

	t.Run("first save starts the intake", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		_, err := env.intake.SaveStep(ctx, scope, "business_profile", schema.AnswerMap{
			"businessName": schema.String("Widgets Ltd"),
		}, 1, false)
		require.NoError(t, err)

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Equal(t, model.StateInProgress, session.Status)
	})

	t.Run("saving after a missing item request resumes progress", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		env.completeIntake(t, scope)

		_, err := env.intake.RequestMissingItems(ctx, scope.SessionID, []string{"Latest bank statement"}, "jordan")
		require.NoError(t, err)

		_, err = env.intake.SaveStep(ctx, scope, "documents", schema.AnswerMap{}, 6, false)
		require.NoError(t, err)

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Equal(t, model.StateInProgress, session.Status)
	})

	t.Run("unknown step key is not found", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		_, err := env.intake.SaveStep(ctx, scope, "no_such_step", schema.AnswerMap{}, 1, false)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("completion percentage tracks complete steps", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		_, err := env.intake.SaveStep(ctx, scope, "business_profile", validAnswers()["business_profile"], 1, true)
		require.NoError(t, err)

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		// 1 of 7 steps, rounded.
		assert.Equal(t, 14, session.CompletionPct)
	})
}

func TestSaveAndExit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := env.onboard(t, "pat@widgets.test")

	t.Run("records the resume point", func(t *testing.T) {
		require.NoError(t, env.intake.SaveAndExit(ctx, scope, 4))
		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Equal(t, 4, session.CurrentStep)
	})

	t.Run("step position is clamped to the questionnaire", func(t *testing.T) {
		require.NoError(t, env.intake.SaveAndExit(ctx, scope, 99))
		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Equal(t, session.TotalSteps, session.CurrentStep)

		require.NoError(t, env.intake.SaveAndExit(ctx, scope, 0))
		session, _ = env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Equal(t, 1, session.CurrentStep)
	})
}

func TestAddAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("revision increments per category and file name", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		first, err := env.intake.AddAsset(ctx, scope, model.AssetFinancials, "pnl.pdf", "application/pdf", 1024)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Revision)

		second, err := env.intake.AddAsset(ctx, scope, model.AssetFinancials, "pnl.pdf", "application/pdf", 2048)
		require.NoError(t, err)
		assert.Equal(t, 2, second.Revision)

		// Same file name in another category starts its own series.
		other, err := env.intake.AddAsset(ctx, scope, model.AssetLegal, "pnl.pdf", "application/pdf", 512)
		require.NoError(t, err)
		assert.Equal(t, 1, other.Revision)
	})

	t.Run("asset is routed to the client folder", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		asset, err := env.intake.AddAsset(ctx, scope, model.AssetFinancials, "pnl.pdf", "application/pdf", 1024)
		require.NoError(t, err)
		require.NotNil(t, asset.DriveFileURL)
		assert.NotEmpty(t, *asset.DriveFileURL)

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		require.NotNil(t, session.DriveFolderID)
		assert.NotEmpty(t, *session.DriveFolderID)
	})
}

func TestSubmitPartial(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the session partially submitted", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		session, err := env.intake.SubmitPartial(ctx, scope, "early look please")
		require.NoError(t, err)
		assert.Equal(t, model.StatePartialSubmitted, session.Status)
		assert.NotNil(t, session.PartialSubmittedAt)
	})

	t.Run("resubmitting refreshes instead of failing", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		first, err := env.intake.SubmitPartial(ctx, scope, "")
		require.NoError(t, err)

		second, err := env.intake.SubmitPartial(ctx, scope, "updated figures")
		require.NoError(t, err)
		assert.Equal(t, model.StatePartialSubmitted, second.Status)
		assert.Equal(t, first.PartialSubmittedAt, second.PartialSubmittedAt)

		// The refresh itself shows up on the operator timeline.
		assert.Equal(t, 1, countAuditAction(t, env, scope.SessionID, "STATE_FORCE_SET"))

		history, err := env.store.StatusHistory.ListBySession(ctx, scope.SessionID)
		require.NoError(t, err)
		partials := 0
		for _, record := range history {
			if record.Status == model.StatePartialSubmitted {
				partials++
			}
		}
		assert.Equal(t, 2, partials)
	})
}

func TestSubmitFinal(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked while the checklist has unresolved items", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		_, err := env.intake.SubmitFinal(ctx, scope)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	})

	t.Run("requires a financial document", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		step := 1
		for _, def := range env.engine.Steps() {
			result, err := env.intake.SaveStep(ctx, scope, def.Key, validAnswers()[def.Key], step, true)
			require.NoError(t, err)
			require.True(t, result.OK)
			step++
		}

		_, err := env.intake.SubmitFinal(ctx, scope)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	})

	t.Run("requires three property photos", func(t *testing.T) {
		env := newTestEnv(t)
		fresh := env.onboard(t, "pat@widgets.test")
		step := 1
		for _, def := range env.engine.Steps() {
			result, err := env.intake.SaveStep(ctx, fresh, def.Key, validAnswers()[def.Key], step, true)
			require.NoError(t, err)
			require.True(t, result.OK)
			step++
		}
		_, err := env.intake.AddAsset(ctx, fresh, model.AssetFinancials, "pnl.pdf", "application/pdf", 1024)
		require.NoError(t, err)

		// Two photos is one short.
		for _, name := range []string{"front.jpg", "back.jpg"} {
			_, err := env.intake.AddAsset(ctx, fresh, model.AssetProperty, name, "image/jpeg", 2048)
			require.NoError(t, err)
		}
		_, err = env.intake.SubmitFinal(ctx, fresh)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))

		_, err = env.intake.AddAsset(ctx, fresh, model.AssetProperty, "interior.jpg", "image/jpeg", 2048)
		require.NoError(t, err)

		session, err := env.intake.SubmitFinal(ctx, fresh)
		require.NoError(t, err)
		assert.Equal(t, model.StateFinalSubmitted, session.Status)
	})

	t.Run("leasehold premises require a lease upload", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		env.completeIntake(t, scope)

		result, err := env.intake.SaveStep(ctx, scope, "property_lease", schema.AnswerMap{
			"premisesTenure":   schema.String("leasehold"),
			"leaseExplanation": schema.String("Five year term with a renewal option"),
		}, 4, true)
		require.NoError(t, err)
		require.True(t, result.OK)

		_, err = env.intake.SubmitFinal(ctx, scope)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))

		_, err = env.intake.AddAsset(ctx, scope, model.AssetLegal, "lease.pdf", "application/pdf", 4096)
		require.NoError(t, err)

		session, err := env.intake.SubmitFinal(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, model.StateFinalSubmitted, session.Status)
	})

	t.Run("ready session submits and clears missing items", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		env.completeIntake(t, scope)

		_, err := env.intake.RequestMissingItems(ctx, scope.SessionID, []string{"Supplier contracts"}, "jordan")
		require.NoError(t, err)

		session, err := env.intake.SubmitFinal(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, model.StateFinalSubmitted, session.Status)
		assert.Empty(t, session.MissingItems)
		assert.NotNil(t, session.FinalSubmittedAt)
	})
}

func TestRequestMissingItems(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the session and records the list", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		_, err := env.intake.SubmitPartial(ctx, scope, "")
		require.NoError(t, err)

		session, err := env.intake.RequestMissingItems(ctx, scope.SessionID, []string{"Bank statements", "Lease"}, "jordan")
		require.NoError(t, err)
		assert.Equal(t, model.StateMissingItemsRequested, session.Status)
		assert.Equal(t, []string{"Bank statements", "Lease"}, []string(session.MissingItems))
	})

	t.Run("repeat requests replace the outstanding list", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		_, err := env.intake.SubmitPartial(ctx, scope, "")
		require.NoError(t, err)

		_, err = env.intake.RequestMissingItems(ctx, scope.SessionID, []string{"Bank statements"}, "jordan")
		require.NoError(t, err)

		session, err := env.intake.RequestMissingItems(ctx, scope.SessionID, []string{"Supplier contracts"}, "jordan")
		require.NoError(t, err)
		assert.Equal(t, model.StateMissingItemsRequested, session.Status)
		assert.Equal(t, []string{"Supplier contracts"}, []string(session.MissingItems))

		// The repeat request is audited, not swallowed.
		assert.Equal(t, 1, countAuditAction(t, env, scope.SessionID, "STATE_FORCE_SET"))
		assert.Equal(t, 2, countAuditAction(t, env, scope.SessionID, "MISSING_ITEMS_REQUESTED"))
	})
}

func TestView(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	scope := env.onboard(t, "pat@widgets.test")

	view, err := env.intake.View(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, scope.SessionID, view.Session.ID)
	assert.Len(t, view.Steps, env.engine.TotalSteps())
	assert.Len(t, view.Definitions, env.engine.TotalSteps())
	assert.Equal(t, "acme", view.Tenant.Slug)
	assert.Equal(t, "pat@widgets.test", view.Client.Email)
	assert.False(t, view.Client.HasPassword)
}
