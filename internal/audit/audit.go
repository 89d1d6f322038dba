// Package audit emits structured security events to the process log.
// These are operational signals; the durable per-session audit trail
// lives in the audit repository.
package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventMagicLinkIssued    EventType = "magic_link_issued"
	EventMagicLinkConsumed  EventType = "magic_link_consumed"
	EventMagicLinkRejected  EventType = "magic_link_rejected"
	EventPasswordSignIn     EventType = "password_sign_in"
	EventPasswordSet        EventType = "password_set"
	EventAuthFailure        EventType = "auth_failure"
	EventCrossTenantDenied  EventType = "cross_tenant_denied"
	EventSessionEstablished EventType = "session_established"
	EventSessionRevoked     EventType = "session_revoked"
	EventRateLimitExceed    EventType = "rate_limit_exceeded"
	EventOperatorAuthFail   EventType = "operator_auth_failure"
	EventWebhookRejected    EventType = "webhook_rejected"
)

type Event struct {
	Type      EventType
	TenantID  string
	ClientID  string
	SessionID string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.TenantID != "" {
		logger = logger.With().Str("tenant_id", event.TenantID).Logger()
	}
	if event.ClientID != "" {
		logger = logger.With().Str("client_id", event.ClientID).Logger()
	}
	if event.SessionID != "" {
		logger = logger.With().Str("session_id", event.SessionID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = getClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
