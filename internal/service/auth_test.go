package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

func TestConsumeMagicLink(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token establishes a scoped session", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)

		link, err := env.auth.IssueMagicLink(ctx, env.tenant, session)
		require.NoError(t, err)
		assert.Contains(t, link, "https://portal.acme.test/portal/acme/magic?token=")

		grant, err := env.auth.ConsumeMagicLink(ctx, "acme", magicToken(t, link))
		require.NoError(t, err)
		assert.Equal(t, scope.SessionID, grant.Scope.SessionID)
		assert.Equal(t, scope.ClientID, grant.Scope.ClientID)
		assert.NotEmpty(t, grant.Cookie)

		// No password on file yet: the portal steers into setup.
		assert.True(t, grant.RequiresPasswordSetup)

		// First portal entry starts the intake.
		stored, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.Equal(t, model.StateInProgress, stored.Status)
		assert.NotNil(t, stored.LastPortalAccessAt)
	})

	t.Run("client with a password skips setup", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		require.NoError(t, env.auth.SetPassword(ctx, scope, "correct-horse-battery"))

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		link, err := env.auth.IssueMagicLink(ctx, env.tenant, session)
		require.NoError(t, err)

		grant, err := env.auth.ConsumeMagicLink(ctx, "acme", magicToken(t, link))
		require.NoError(t, err)
		assert.False(t, grant.RequiresPasswordSetup)
	})

	t.Run("second consume fails as already used", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)

		link, err := env.auth.IssueMagicLink(ctx, env.tenant, session)
		require.NoError(t, err)
		raw := magicToken(t, link)

		_, err = env.auth.ConsumeMagicLink(ctx, "acme", raw)
		require.NoError(t, err)

		_, err = env.auth.ConsumeMagicLink(ctx, "acme", raw)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTokenAlreadyUsed))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		raw, err := env.codec.IssueOpaqueToken()
		require.NoError(t, err)
		_, err = env.store.MagicLinks.Create(ctx, model.CreateMagicLinkParams{
			TokenHash: env.codec.HashForStorage(raw),
			TenantID:  env.tenant.ID,
			ClientID:  scope.ClientID,
			SessionID: scope.SessionID,
			ExpiresAt: time.Now().Add(-time.Minute),
		})
		require.NoError(t, err)

		_, err = env.auth.ConsumeMagicLink(ctx, "acme", raw)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTokenExpired))
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.onboard(t, "pat@widgets.test")

		_, err := env.auth.ConsumeMagicLink(ctx, "acme", "not-a-real-token")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	})

	t.Run("token issued for another tenant is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)

		_, err := env.store.Tenants.Create(ctx, model.CreateTenantParams{Slug: "rival", Name: "Rival Brokers"})
		require.NoError(t, err)

		link, err := env.auth.IssueMagicLink(ctx, env.tenant, session)
		require.NoError(t, err)

		_, err = env.auth.ConsumeMagicLink(ctx, "rival", magicToken(t, link))
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidToken))
	})
}

func TestResolveScope(t *testing.T) {
	ctx := context.Background()

	enter := func(t *testing.T, env *testEnv) (*Scope, string) {
		t.Helper()
		scope := env.onboard(t, "pat@widgets.test")
		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		link, err := env.auth.IssueMagicLink(ctx, env.tenant, session)
		require.NoError(t, err)
		grant, err := env.auth.ConsumeMagicLink(ctx, "acme", magicToken(t, link))
		require.NoError(t, err)
		return grant.Scope, grant.Cookie
	}

	t.Run("valid cookie resolves to the auth session scope", func(t *testing.T) {
		env := newTestEnv(t)
		scope, cookie := enter(t, env)

		resolved, err := env.auth.ResolveScope(ctx, cookie, "acme")
		require.NoError(t, err)
		assert.Equal(t, scope.TenantID, resolved.TenantID)
		assert.Equal(t, scope.ClientID, resolved.ClientID)
		assert.Equal(t, scope.SessionID, resolved.SessionID)
	})

	t.Run("empty cookie requires auth", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.auth.ResolveScope(ctx, "", "acme")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthRequired))
	})

	t.Run("forged cookie fails the signature check", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.auth.ResolveScope(ctx, "some-id.forged-signature", "acme")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidSignature))
	})

	t.Run("cookie presented to another tenant is denied", func(t *testing.T) {
		env := newTestEnv(t)
		_, cookie := enter(t, env)

		_, err := env.store.Tenants.Create(ctx, model.CreateTenantParams{Slug: "rival", Name: "Rival Brokers"})
		require.NoError(t, err)

		_, err = env.auth.ResolveScope(ctx, cookie, "rival")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCrossTenantDenied))
	})

	t.Run("auth session pointing at another client's intake is invalid", func(t *testing.T) {
		env := newTestEnv(t)
		scopeA := env.onboard(t, "pat@widgets.test")
		scopeB := env.onboard(t, "sam@gears.test")

		// A stale or tampered auth row referencing someone else's
		// intake session must not resolve.
		forged, err := env.store.AuthSessions.Create(ctx, model.CreateAuthSessionParams{
			TenantID:  scopeA.TenantID,
			ClientID:  scopeA.ClientID,
			SessionID: scopeB.SessionID,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		_, err = env.auth.ResolveScope(ctx, env.codec.SignSessionID(forged.ID), "acme")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeScopeInvalid))
	})

	t.Run("resolution refreshes access telemetry", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		// Skip the magic-link flow so the only portal access on
		// record is the resolution itself.
		authSession, err := env.store.AuthSessions.Create(ctx, model.CreateAuthSessionParams{
			TenantID:  scope.TenantID,
			ClientID:  scope.ClientID,
			SessionID: scope.SessionID,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		_, err = env.auth.ResolveScope(ctx, env.codec.SignSessionID(authSession.ID), "acme")
		require.NoError(t, err)

		session, _ := env.store.Sessions.FindByID(ctx, scope.SessionID)
		assert.NotNil(t, session.LastPortalAccessAt)
	})

	t.Run("sign-out revokes the server side session", func(t *testing.T) {
		env := newTestEnv(t)
		_, cookie := enter(t, env)

		require.NoError(t, env.auth.SignOut(ctx, cookie))

		_, err := env.auth.ResolveScope(ctx, cookie, "acme")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthRequired))
	})
}

func TestPasswordAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("set password then sign in", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		require.NoError(t, env.auth.SetPassword(ctx, scope, "correct-horse-battery"))

		grant, err := env.auth.AuthenticateWithPassword(ctx, "acme", "pat@widgets.test", "correct-horse-battery")
		require.NoError(t, err)
		assert.Equal(t, scope.SessionID, grant.Scope.SessionID)
		assert.NotEmpty(t, grant.Cookie)
		assert.False(t, grant.RequiresPasswordSetup)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")

		err := env.auth.SetPassword(ctx, scope, "short")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	})

	t.Run("wrong password fails uniformly", func(t *testing.T) {
		env := newTestEnv(t)
		scope := env.onboard(t, "pat@widgets.test")
		require.NoError(t, env.auth.SetPassword(ctx, scope, "correct-horse-battery"))

		_, err := env.auth.AuthenticateWithPassword(ctx, "acme", "pat@widgets.test", "wrong-password-here")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))
	})

	t.Run("client without a password cannot sign in", func(t *testing.T) {
		env := newTestEnv(t)
		env.onboard(t, "pat@widgets.test")

		_, err := env.auth.AuthenticateWithPassword(ctx, "acme", "pat@widgets.test", "whatever-value")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))
	})

	t.Run("unknown email fails with the same error", func(t *testing.T) {
		env := newTestEnv(t)
		env.onboard(t, "pat@widgets.test")

		_, err := env.auth.AuthenticateWithPassword(ctx, "acme", "nobody@widgets.test", "whatever-value")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidCredentials))
	})
}
