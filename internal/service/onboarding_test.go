package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

func countAuditAction(t *testing.T, env *testEnv, sessionID, action string) int {
	t.Helper()
	entries, err := env.store.Audit.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	n := 0
	for _, entry := range entries {
		if entry.Action == action {
			n++
		}
	}
	return n
}

func TestOnboardClient(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the client with a seeded session", func(t *testing.T) {
		env := newTestEnv(t)

		result, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug:   "acme",
			BusinessName: "Widgets Ltd",
			ContactName:  "Pat Doyle",
			Email:        "pat@widgets.test",
			Source:       SourceOperator,
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.ClientID)
		require.NotEmpty(t, result.SessionID)
		assert.False(t, result.InviteSent)

		session, err := env.store.Sessions.FindByID(ctx, result.SessionID)
		require.NoError(t, err)
		assert.Equal(t, model.StateInvited, session.Status)
		assert.Equal(t, env.engine.TotalSteps(), session.TotalSteps)

		steps, err := env.store.Steps.ListBySession(ctx, result.SessionID)
		require.NoError(t, err)
		require.Len(t, steps, env.engine.TotalSteps())
		assert.Equal(t, "business_profile", steps[0].StepKey)
		assert.Equal(t, 1, steps[0].StepOrder)

		assert.Equal(t, 1, countAuditAction(t, env, result.SessionID, "CLIENT_ONBOARDED"))
	})

	t.Run("re-onboarding the same email reuses client and session", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug: "acme", BusinessName: "Widgets Ltd", ContactName: "Pat Doyle",
			Email: "pat@widgets.test", Source: SourceOperator,
		})
		require.NoError(t, err)

		second, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug: "acme", BusinessName: "Widgets Limited", ContactName: "Pat Doyle",
			Email: "pat@widgets.test", Source: SourceOperator,
		})
		require.NoError(t, err)
		assert.Equal(t, first.ClientID, second.ClientID)
		assert.Equal(t, first.SessionID, second.SessionID)
	})

	t.Run("unknown tenant is not found", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug: "nope", Email: "pat@widgets.test", Source: SourceOperator,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})

	t.Run("invite trigger sends the magic link", func(t *testing.T) {
		env := newTestEnv(t)

		result, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug: "acme", BusinessName: "Widgets Ltd", ContactName: "Pat Doyle",
			Email: "pat@widgets.test", Source: SourceOperator, TriggerInvite: true,
		})
		require.NoError(t, err)
		assert.True(t, result.InviteSent)
		assert.Contains(t, result.MagicLinkURL, "/portal/acme/magic?token=")

		session, _ := env.store.Sessions.FindByID(ctx, result.SessionID)
		assert.NotNil(t, session.InviteSentAt)
		assert.Equal(t, 1, countAuditAction(t, env, result.SessionID, "WELCOME_EMAIL_SENT"))
		assert.Equal(t, 1, countAuditAction(t, env, result.SessionID, "CLIENT_INVITED"))

		// The invite link is live.
		_, err = env.auth.ConsumeMagicLink(ctx, "acme", magicToken(t, result.MagicLinkURL))
		require.NoError(t, err)
	})
}

func TestWebhookIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("replay with the same key short circuits", func(t *testing.T) {
		env := newTestEnv(t)
		params := OnboardClientParams{
			TenantSlug: "acme", BusinessName: "Widgets Ltd", ContactName: "Pat Doyle",
			Email: "pat@widgets.test", Source: SourceWebhook, IdempotencyKey: "crm-evt-001",
		}

		first, err := env.onboarding.OnboardClient(ctx, params)
		require.NoError(t, err)

		second, err := env.onboarding.OnboardClient(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, first.ClientID, second.ClientID)
		assert.Equal(t, first.SessionID, second.SessionID)

		// The replay does not record a second onboarding.
		assert.Equal(t, 1, countAuditAction(t, env, first.SessionID, "CLIENT_ONBOARDED"))
	})

	t.Run("distinct keys are distinct events", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug: "acme", Email: "pat@widgets.test", BusinessName: "Widgets Ltd",
			Source: SourceWebhook, IdempotencyKey: "crm-evt-001",
		})
		require.NoError(t, err)

		// Same client, new event: upsert reuses the client row.
		second, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug: "acme", Email: "pat@widgets.test", BusinessName: "Widgets Ltd",
			Source: SourceWebhook, IdempotencyKey: "crm-evt-002",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ClientID, second.ClientID)
		assert.Equal(t, 2, countAuditAction(t, env, first.SessionID, "CLIENT_ONBOARDED"))
	})

	t.Run("operator onboarding ignores idempotency keys", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.onboarding.OnboardClient(ctx, OnboardClientParams{
			TenantSlug: "acme", Email: "pat@widgets.test", BusinessName: "Widgets Ltd",
			Source: SourceOperator, IdempotencyKey: "crm-evt-001",
		})
		require.NoError(t, err)

		key, err := env.store.Webhooks.Find(ctx, "crm-evt-001", env.tenant.ID)
		require.NoError(t, err)
		assert.Nil(t, key)
		require.NotEmpty(t, first.ClientID)
	})
}

func TestSendInvite(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions the folder and issues a fresh link", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		link, err := env.onboarding.SendInvite(ctx, scope.SessionID)
		require.NoError(t, err)
		assert.Contains(t, link, "/portal/acme/magic?token=")

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		require.NotNil(t, session.DriveFolderID)
		assert.NotEmpty(t, *session.DriveFolderID)
		assert.NotNil(t, session.InviteSentAt)
	})

	t.Run("re-invite keeps the existing folder", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		_, err := env.onboarding.SendInvite(ctx, scope.SessionID)
		require.NoError(t, err)
		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		folderID := *session.DriveFolderID

		_, err = env.onboarding.SendInvite(ctx, scope.SessionID)
		require.NoError(t, err)
		session, _ = env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Equal(t, folderID, *session.DriveFolderID)
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.onboarding.SendInvite(ctx, "missing-session")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}

func TestRequestMagicLink(t *testing.T) {
	ctx := context.Background()

	t.Run("known email gets a fresh invite", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		require.NoError(t, env.onboarding.RequestMagicLink(ctx, "acme", "pat@widgets.test"))

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.NotNil(t, session.InviteSentAt)
		assert.Equal(t, 1, countAuditAction(t, env, scope.SessionID, "WELCOME_EMAIL_SENT"))
	})

	t.Run("unknown email succeeds with nothing sent", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		require.NoError(t, env.onboarding.RequestMagicLink(ctx, "acme", "stranger@widgets.test"))

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Nil(t, session.InviteSentAt)
		assert.Equal(t, 0, countAuditAction(t, env, scope.SessionID, "WELCOME_EMAIL_SENT"))
	})

	t.Run("unknown tenant succeeds with nothing sent", func(t *testing.T) {
		env := newTestEnv(t)
		env.onboard(t, "pat@widgets.test")

		assert.NoError(t, env.onboarding.RequestMagicLink(ctx, "nope", "pat@widgets.test"))
	})

	t.Run("archived client gets nothing", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		require.NoError(t, env.store.Clients.SetArchived(ctx, scope.ClientID, true))

		require.NoError(t, env.onboarding.RequestMagicLink(ctx, "acme", "pat@widgets.test"))

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Nil(t, session.InviteSentAt)
	})
}

func TestSetClientArchiveState(t *testing.T) {
	ctx := context.Background()

	t.Run("archive marks the client and records the actor", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		require.NoError(t, env.onboarding.SetClientArchiveState(ctx, scope.SessionID, true, "Dana Ops"))

		client, _ := env.store.Clients.FindByID(ctx, scope.ClientID)
		assert.True(t, client.IsArchived)
		assert.NotNil(t, client.ArchivedAt)
		assert.Equal(t, 1, countAuditAction(t, env, scope.SessionID, "CLIENT_ARCHIVED"))
	})

	t.Run("restore clears the archive mark", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		require.NoError(t, env.onboarding.SetClientArchiveState(ctx, scope.SessionID, true, "Dana Ops"))

		require.NoError(t, env.onboarding.SetClientArchiveState(ctx, scope.SessionID, false, "Dana Ops"))

		client, _ := env.store.Clients.FindByID(ctx, scope.ClientID)
		assert.False(t, client.IsArchived)
		assert.Nil(t, client.ArchivedAt)
		assert.Equal(t, 1, countAuditAction(t, env, scope.SessionID, "CLIENT_RESTORED"))
	})

	t.Run("unknown session is not found", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.onboarding.SetClientArchiveState(ctx, "missing-session", true, "Dana Ops")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	})
}
