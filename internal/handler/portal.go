// Package handler adapts HTTP requests to the service layer: the
// client portal, the operator API, and the CRM webhook.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/shaneHighPeek/beesold-mission-control/internal/config"
	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/middleware"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
	"github.com/shaneHighPeek/beesold-mission-control/internal/service"
)

type PortalHandler struct {
	authService       *service.AuthService
	intakeService     *service.IntakeService
	onboardingService *service.OnboardingService
	isProduction      bool
	portalAuth        *middleware.PortalAuthMiddleware
	rateLimit         *middleware.PortalRateLimitMiddleware
	cfg               *config.Config
}

func NewPortalHandler(
	authService *service.AuthService,
	intakeService *service.IntakeService,
	onboardingService *service.OnboardingService,
	cfg *config.Config,
	isProduction bool,
	rateLimit *middleware.PortalRateLimitMiddleware,
) *PortalHandler {
	return &PortalHandler{
		authService:       authService,
		intakeService:     intakeService,
		onboardingService: onboardingService,
		isProduction:      isProduction,
		portalAuth:        middleware.NewPortalAuthMiddleware(authService),
		rateLimit:         rateLimit,
		cfg:               cfg,
	}
}

func (h *PortalHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{tenantSlug}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rateLimit.AuthAttemptHandler)

			r.Post("/auth/request-link", h.RequestMagicLink)
			r.Post("/auth/magic", h.ConsumeMagicLink)
			r.Post("/auth/password", h.PasswordSignIn)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.portalAuth.Handler)
			r.Use(h.rateLimit.Handler)

			r.Get("/session", h.SessionView)
			r.Post("/auth/sign-out", h.SignOut)
			r.Post("/auth/set-password", h.SetPassword)
			r.Post("/steps/{stepKey}", h.SaveStep)
			r.Post("/save-and-exit", h.SaveAndExit)
			r.Post("/assets", h.AddAsset)
			r.Post("/submit/partial", h.SubmitPartial)
			r.Post("/submit/final", h.SubmitFinal)
		})
	})

	return r
}

func (h *PortalHandler) ConsumeMagicLink(w http.ResponseWriter, r *http.Request) {
	tenantSlug := chi.URLParam(r, "tenantSlug")

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, apperrors.InvalidToken())
		return
	}

	grant, err := h.authService.ConsumeMagicLink(r.Context(), tenantSlug, req.Token)
	if err != nil {
		log.Warn().Err(err).Str("tenant_slug", tenantSlug).Msg("magic link rejected")
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, config.PortalSessionCookie, grant.Cookie, "/portal", h.cfg.PortalSessionTTL(), h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":             grant.Scope.SessionID,
		"requiresPasswordSetup": grant.RequiresPasswordSetup,
	})
}

// RequestMagicLink always answers accepted: whether an invite actually
// went out must not be observable from outside.
func (h *PortalHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	tenantSlug := chi.URLParam(r, "tenantSlug")

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "email", Message: "Email is required"}}))
		return
	}

	if err := h.onboardingService.RequestMagicLink(r.Context(), tenantSlug, req.Email); err != nil {
		log.Warn().Err(err).Str("tenant_slug", tenantSlug).Msg("magic link request failed")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (h *PortalHandler) PasswordSignIn(w http.ResponseWriter, r *http.Request) {
	tenantSlug := chi.URLParam(r, "tenantSlug")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidCredentials())
		return
	}

	grant, err := h.authService.AuthenticateWithPassword(r.Context(), tenantSlug, req.Email, req.Password)
	if err != nil {
		log.Warn().Err(err).Str("tenant_slug", tenantSlug).Msg("password sign-in rejected")
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, config.PortalSessionCookie, grant.Cookie, "/portal", h.cfg.PortalSessionTTL(), h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":             grant.Scope.SessionID,
		"requiresPasswordSetup": grant.RequiresPasswordSetup,
	})
}

func (h *PortalHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(config.PortalSessionCookie); err == nil && cookie.Value != "" {
		if err := h.authService.SignOut(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("sign-out cleanup failed")
		}
	}
	middleware.ClearSessionCookie(w, config.PortalSessionCookie, "/portal")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *PortalHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "password", Message: "Password is required"}}))
		return
	}

	if err := h.authService.SetPassword(r.Context(), scope, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *PortalHandler) SessionView(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	view, err := h.intakeService.View(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PortalHandler) SaveStep(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())
	stepKey := chi.URLParam(r, "stepKey")

	var req struct {
		Data         schema.AnswerMap `json:"data"`
		CurrentStep  int              `json:"currentStep"`
		MarkComplete bool             `json:"markComplete"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "data", Message: "Invalid request body"}}))
		return
	}

	result, err := h.intakeService.SaveStep(r.Context(), scope, stepKey, req.Data, req.CurrentStep, req.MarkComplete)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if !result.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (h *PortalHandler) SaveAndExit(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req struct {
		CurrentStep int `json:"currentStep"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "currentStep", Message: "Invalid request body"}}))
		return
	}

	if err := h.intakeService.SaveAndExit(r.Context(), scope, req.CurrentStep); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *PortalHandler) AddAsset(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req struct {
		Category  string `json:"category"`
		FileName  string `json:"fileName"`
		MimeType  string `json:"mimeType"`
		SizeBytes int64  `json:"sizeBytes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "fileName", Message: "File name is required"}}))
		return
	}

	category := model.AssetCategory(req.Category)
	switch category {
	case model.AssetFinancials, model.AssetLegal, model.AssetProperty, model.AssetOther:
	default:
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "category", Message: "Unknown asset category"}}))
		return
	}

	asset, err := h.intakeService.AddAsset(r.Context(), scope, category, req.FileName, req.MimeType, req.SizeBytes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *PortalHandler) SubmitPartial(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	var req struct {
		Note string `json:"note"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	session, err := h.intakeService.SubmitPartial(r.Context(), scope, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *PortalHandler) SubmitFinal(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r.Context())

	session, err := h.intakeService.SubmitFinal(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
