package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/scrypt"

	"github.com/shaneHighPeek/beesold-mission-control/internal/audit"
	"github.com/shaneHighPeek/beesold-mission-control/internal/config"
	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/lifecycle"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/token"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltBytes    = 16
)

// Scope is the resolved identity of a portal request: exactly one
// tenant, client, and intake session.
type Scope struct {
	TenantID  string
	ClientID  string
	SessionID string
}

// SessionGrant is the outcome of a successful sign-in: the resolved
// scope, the signed cookie value, and whether the client still has to
// set a password. First-time magic-link entrants are steered into
// password setup off that flag.
type SessionGrant struct {
	Scope                 *Scope
	Cookie                string
	RequiresPasswordSetup bool
}

// AuthService owns portal authentication: magic-link issue/consume,
// password credentials, and the signed-cookie session scope.
type AuthService struct {
	store            *repository.Store
	codec            *token.Codec
	machine          *lifecycle.Machine
	magicLinkTTL     time.Duration
	portalSessionTTL time.Duration
}

func NewAuthService(store *repository.Store, codec *token.Codec, machine *lifecycle.Machine, magicLinkTTL, portalSessionTTL time.Duration) *AuthService {
	return &AuthService{
		store:            store,
		codec:            codec,
		machine:          machine,
		magicLinkTTL:     magicLinkTTL,
		portalSessionTTL: portalSessionTTL,
	}
}

// IssueMagicLink creates a single-use login token for a session and
// returns the full portal URL embedding the raw token. Only the keyed
// hash is persisted.
func (s *AuthService) IssueMagicLink(ctx context.Context, tenant *model.Tenant, session *model.IntakeSession) (string, error) {
	raw, err := s.codec.IssueOpaqueToken()
	if err != nil {
		return "", apperrors.Internal("token generation failed").WithCause(err)
	}

	_, err = s.store.MagicLinks.Create(ctx, model.CreateMagicLinkParams{
		TokenHash: s.codec.HashForStorage(raw),
		TenantID:  tenant.ID,
		ClientID:  session.ClientID,
		SessionID: session.ID,
		ExpiresAt: time.Now().Add(s.magicLinkTTL),
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventMagicLinkIssued,
		TenantID:  tenant.ID,
		ClientID:  session.ClientID,
		SessionID: session.ID,
	})

	base := strings.TrimSuffix(tenant.PortalBaseURL, "/")
	return fmt.Sprintf("%s/portal/%s/magic?token=%s", base, tenant.Slug, raw), nil
}

// ConsumeMagicLink validates and burns a one-time token, establishes a
// portal auth session, and moves a freshly invited session into
// progress. The checks run invalid, then used, then expired, so the
// caller can distinguish a stale link from a forged one in the audit
// trail while the client sees a uniform failure.
func (s *AuthService) ConsumeMagicLink(ctx context.Context, tenantSlug, rawToken string) (*SessionGrant, error) {
	tenant, err := s.store.Tenants.FindBySlug(ctx, tenantSlug)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if tenant == nil {
		return nil, apperrors.InvalidToken()
	}

	link, err := s.store.MagicLinks.FindByTokenHash(ctx, s.codec.HashForStorage(rawToken))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if link == nil || link.TenantID != tenant.ID {
		audit.Log(ctx, audit.Event{Type: audit.EventMagicLinkRejected, TenantID: tenant.ID, Details: map[string]interface{}{"reason": "invalid"}})
		return nil, apperrors.InvalidToken()
	}
	if link.UsedAt != nil {
		audit.Log(ctx, audit.Event{Type: audit.EventMagicLinkRejected, TenantID: tenant.ID, ClientID: link.ClientID, Details: map[string]interface{}{"reason": "already_used"}})
		return nil, apperrors.TokenAlreadyUsed()
	}
	if link.IsExpired(time.Now()) {
		audit.Log(ctx, audit.Event{Type: audit.EventMagicLinkRejected, TenantID: tenant.ID, ClientID: link.ClientID, Details: map[string]interface{}{"reason": "expired"}})
		return nil, apperrors.TokenExpired()
	}

	consumed, err := s.store.MagicLinks.MarkUsed(ctx, link.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !consumed {
		// Lost the race against a concurrent consume of the same link.
		return nil, apperrors.TokenAlreadyUsed()
	}

	session, err := s.store.Sessions.FindByID(ctx, link.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.InvalidToken()
	}

	if session.Status == model.StateInvited {
		if err := s.machine.Transition(ctx, session, model.StateInProgress, model.ActorClient, "magic link consumed"); err != nil {
			return nil, err
		}
	}

	grant, err := s.establish(ctx, link.TenantID, link.ClientID, link.SessionID)
	if err != nil {
		return nil, err
	}

	s.recordPortalEntry(ctx, grant.Scope, model.AuthSourceMagicLink)
	s.auditSessionEntry(ctx, grant.Scope, "MAGIC_LINK_CONSUMED", model.JSONMap{"linkId": link.ID})
	audit.Log(ctx, audit.Event{
		Type:      audit.EventMagicLinkConsumed,
		TenantID:  grant.Scope.TenantID,
		ClientID:  grant.Scope.ClientID,
		SessionID: grant.Scope.SessionID,
	})

	return grant, nil
}

// AuthenticateWithPassword signs a returning client in by email and
// password. Every failure path returns the same credentials error.
func (s *AuthService) AuthenticateWithPassword(ctx context.Context, tenantSlug, email, password string) (*SessionGrant, error) {
	tenant, err := s.store.Tenants.FindBySlug(ctx, tenantSlug)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if tenant == nil {
		return nil, apperrors.InvalidCredentials()
	}

	client, err := s.store.Clients.FindByTenantAndEmail(ctx, tenant.ID, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil || client.IsArchived || !client.HasPassword() {
		audit.Log(ctx, audit.Event{Type: audit.EventAuthFailure, TenantID: tenant.ID, Details: map[string]interface{}{"method": "password"}})
		return nil, apperrors.InvalidCredentials()
	}

	derived, err := deriveKey(password, *client.PasswordSalt)
	if err != nil {
		return nil, apperrors.Internal("password check failed").WithCause(err)
	}
	if !token.ConstantTimeEqual(derived, *client.PasswordHash) {
		audit.Log(ctx, audit.Event{Type: audit.EventAuthFailure, TenantID: tenant.ID, ClientID: client.ID, Details: map[string]interface{}{"method": "password"}})
		return nil, apperrors.InvalidCredentials()
	}

	session, err := s.store.Sessions.FindActiveByClient(ctx, client.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.InvalidCredentials()
	}

	grant, err := s.establish(ctx, tenant.ID, client.ID, session.ID)
	if err != nil {
		return nil, err
	}

	s.recordPortalEntry(ctx, grant.Scope, model.AuthSourcePassword)
	s.auditSessionEntry(ctx, grant.Scope, "PASSWORD_SIGN_IN", nil)
	audit.Log(ctx, audit.Event{
		Type:      audit.EventPasswordSignIn,
		TenantID:  grant.Scope.TenantID,
		ClientID:  grant.Scope.ClientID,
		SessionID: grant.Scope.SessionID,
	})

	return grant, nil
}

// SetPassword stores a scrypt credential for the authenticated client.
func (s *AuthService) SetPassword(ctx context.Context, scope *Scope, password string) error {
	if len(password) < config.MinPasswordLength {
		return apperrors.ValidationFailed([]apperrors.FieldError{{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters", config.MinPasswordLength),
		}})
	}

	salt, err := newSalt()
	if err != nil {
		return apperrors.Internal("salt generation failed").WithCause(err)
	}
	hash, err := deriveKey(password, salt)
	if err != nil {
		return apperrors.Internal("password hashing failed").WithCause(err)
	}

	if err := s.store.Clients.SetPassword(ctx, scope.ClientID, salt, hash); err != nil {
		return apperrors.Database(err)
	}

	s.auditSessionEntry(ctx, scope, "PASSWORD_SET", nil)
	audit.Log(ctx, audit.Event{
		Type:     audit.EventPasswordSet,
		TenantID: scope.TenantID,
		ClientID: scope.ClientID,
	})
	return nil
}

// ResolveScope validates a signed portal cookie against the route's
// tenant and returns the request scope. Signature, existence, expiry,
// tenant, and scope checks each fail with a distinct internal code;
// all of them surface to the client identically. A successful
// resolution refreshes the session and client access telemetry.
func (s *AuthService) ResolveScope(ctx context.Context, signedCookie, tenantSlug string) (*Scope, error) {
	if signedCookie == "" {
		return nil, apperrors.AuthRequired()
	}

	id, ok := s.codec.VerifySessionID(signedCookie)
	if !ok {
		return nil, apperrors.InvalidSignature()
	}

	authSession, err := s.store.AuthSessions.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if authSession == nil {
		return nil, apperrors.AuthRequired()
	}
	if authSession.IsExpired(time.Now()) {
		return nil, apperrors.SessionExpired()
	}

	tenant, err := s.store.Tenants.FindBySlug(ctx, tenantSlug)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if tenant == nil || tenant.ID != authSession.TenantID {
		audit.Log(ctx, audit.Event{
			Type:     audit.EventCrossTenantDenied,
			TenantID: authSession.TenantID,
			ClientID: authSession.ClientID,
			Details:  map[string]interface{}{"requested_tenant": tenantSlug},
		})
		return nil, apperrors.CrossTenantDenied()
	}

	// The intake session row must agree with the auth session on who
	// it belongs to. A mismatch means a stale or tampered record.
	session, err := s.store.Sessions.FindByID(ctx, authSession.SessionID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil || session.TenantID != authSession.TenantID || session.ClientID != authSession.ClientID {
		return nil, apperrors.ScopeInvalid()
	}

	if err := s.store.Sessions.SetLastPortalAccess(ctx, authSession.SessionID); err != nil {
		log.Warn().Err(err).Str("session_id", authSession.SessionID).Msg("failed to record portal access time")
	}
	if err := s.store.Clients.TouchActivity(ctx, authSession.ClientID); err != nil {
		log.Warn().Err(err).Str("client_id", authSession.ClientID).Msg("failed to record client activity")
	}

	return &Scope{
		TenantID:  authSession.TenantID,
		ClientID:  authSession.ClientID,
		SessionID: authSession.SessionID,
	}, nil
}

// SignOut deletes the server-side auth session so the cookie value is
// dead even if the browser retains it.
func (s *AuthService) SignOut(ctx context.Context, signedCookie string) error {
	id, ok := s.codec.VerifySessionID(signedCookie)
	if !ok {
		return nil
	}
	authSession, err := s.store.AuthSessions.FindByID(ctx, id)
	if err != nil || authSession == nil {
		return err
	}
	if err := s.store.AuthSessions.Delete(ctx, id); err != nil {
		return apperrors.Database(err)
	}
	audit.Log(ctx, audit.Event{
		Type:      audit.EventSessionRevoked,
		TenantID:  authSession.TenantID,
		ClientID:  authSession.ClientID,
		SessionID: authSession.SessionID,
	})
	return nil
}

func (s *AuthService) establish(ctx context.Context, tenantID, clientID, sessionID string) (*SessionGrant, error) {
	client, err := s.store.Clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	authSession, err := s.store.AuthSessions.Create(ctx, model.CreateAuthSessionParams{
		TenantID:  tenantID,
		ClientID:  clientID,
		SessionID: sessionID,
		ExpiresAt: time.Now().Add(s.portalSessionTTL),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:      audit.EventSessionEstablished,
		TenantID:  tenantID,
		ClientID:  clientID,
		SessionID: sessionID,
	})

	return &SessionGrant{
		Scope:                 &Scope{TenantID: tenantID, ClientID: clientID, SessionID: sessionID},
		Cookie:                s.codec.SignSessionID(authSession.ID),
		RequiresPasswordSetup: client == nil || !client.HasPassword(),
	}, nil
}

func (s *AuthService) recordPortalEntry(ctx context.Context, scope *Scope, source model.AuthSource) {
	if err := s.store.Sessions.SetLastPortalAccess(ctx, scope.SessionID); err != nil {
		log.Warn().Err(err).Str("session_id", scope.SessionID).Msg("failed to record portal access time")
	}
	if err := s.store.Clients.TouchActivity(ctx, scope.ClientID); err != nil {
		log.Warn().Err(err).Str("client_id", scope.ClientID).Msg("failed to record client activity")
	}
	s.auditSessionEntry(ctx, scope, "PORTAL_AUTHENTICATED", model.JSONMap{"source": string(source)})
}

func (s *AuthService) auditSessionEntry(ctx context.Context, scope *Scope, action string, details model.JSONMap) {
	if _, err := s.store.Audit.Append(ctx, model.AuditEntry{
		SessionID: scope.SessionID,
		TenantID:  scope.TenantID,
		ClientID:  scope.ClientID,
		Actor:     model.ActorClient,
		Action:    action,
		Details:   details,
	}); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}

func newSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func deriveKey(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
