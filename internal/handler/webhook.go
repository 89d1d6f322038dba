package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/shaneHighPeek/beesold-mission-control/internal/audit"
	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/service"
	"github.com/shaneHighPeek/beesold-mission-control/internal/token"
)

// WebhookHandler receives client-onboarding events from the upstream
// CRM. Deliveries are verified against a shared HMAC secret and
// deduplicated by idempotency key.
type WebhookHandler struct {
	onboarding *service.OnboardingService
	secret     string
}

func NewWebhookHandler(onboarding *service.OnboardingService, secret string) *WebhookHandler {
	return &WebhookHandler{onboarding: onboarding, secret: secret}
}

func (h *WebhookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/onboarding", h.Onboarding)
	return r
}

func (h *WebhookHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "body", Message: "Unreadable request body"}}))
		return
	}

	if h.secret != "" {
		signature := r.Header.Get("X-Webhook-Signature")
		if !h.verifySignature(body, signature) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventWebhookRejected})
			log.Warn().Msg("webhook signature verification failed")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
	}

	var req struct {
		TenantSlug    string `json:"tenantSlug"`
		BusinessName  string `json:"businessName"`
		ContactName   string `json:"contactName"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		AssignedOwner string `json:"assignedOwner"`
		TriggerInvite bool   `json:"triggerInvite"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.TenantSlug == "" || req.Email == "" {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "email", Message: "Tenant slug and email are required"}}))
		return
	}

	result, err := h.onboarding.OnboardClient(r.Context(), service.OnboardClientParams{
		TenantSlug:     req.TenantSlug,
		BusinessName:   req.BusinessName,
		ContactName:    req.ContactName,
		Email:          req.Email,
		Phone:          req.Phone,
		AssignedOwner:  req.AssignedOwner,
		TriggerInvite:  req.TriggerInvite,
		Source:         service.SourceWebhook,
		IdempotencyKey: r.Header.Get("X-Idempotency-Key"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return signature != "" && token.ConstantTimeEqual(signature, expected)
}
