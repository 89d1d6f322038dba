package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
	"github.com/shaneHighPeek/beesold-mission-control/internal/lifecycle"
	"github.com/shaneHighPeek/beesold-mission-control/internal/middleware"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/service"
)

// OperatorHandler is the mission-control API: tenant management, the
// session board, timelines, invites, and pipeline decisions.
type OperatorHandler struct {
	store      *repository.Store
	machine    *lifecycle.Machine
	onboarding *service.OnboardingService
	intake     *service.IntakeService
	pipeline   *service.PipelineService
	auth       *middleware.OperatorAuthMiddleware
}

func NewOperatorHandler(
	store *repository.Store,
	machine *lifecycle.Machine,
	onboarding *service.OnboardingService,
	intake *service.IntakeService,
	pipeline *service.PipelineService,
	apiToken string,
) *OperatorHandler {
	return &OperatorHandler{
		store:      store,
		machine:    machine,
		onboarding: onboarding,
		intake:     intake,
		pipeline:   pipeline,
		auth:       middleware.NewOperatorAuthMiddleware(apiToken),
	}
}

func (h *OperatorHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.auth.Handler)

	r.Get("/tenants", h.ListTenants)
	r.Post("/tenants", h.CreateTenant)
	r.Patch("/tenants/{tenantID}", h.UpdateTenant)

	r.Post("/clients", h.OnboardClient)

	r.Get("/sessions", h.ListSessions)
	r.Get("/sessions/{sessionID}", h.SessionDetail)
	r.Get("/sessions/{sessionID}/timeline", h.Timeline)
	r.Post("/sessions/{sessionID}/invite", h.SendInvite)
	r.Post("/sessions/{sessionID}/archive", h.ArchiveClient)
	r.Post("/sessions/{sessionID}/missing-items", h.RequestMissingItems)
	r.Post("/sessions/{sessionID}/transition", h.Transition)
	r.Post("/sessions/{sessionID}/force-status", h.ForceStatus)
	r.Post("/sessions/{sessionID}/pipeline/run", h.RunPipeline)
	r.Post("/sessions/{sessionID}/approval", h.ProcessApproval)
	r.Get("/sessions/{sessionID}/report", h.Report)

	return r
}

func (h *OperatorHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	tenants, err := h.store.Tenants.List(r.Context(), includeArchived)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func (h *OperatorHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slug          string          `json:"slug"`
		Name          string          `json:"name"`
		ShortName     string          `json:"shortName"`
		SenderName    string          `json:"senderName"`
		SenderEmail   string          `json:"senderEmail"`
		PortalBaseURL string          `json:"portalBaseUrl"`
		Branding      *model.Branding `json:"branding"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Slug == "" || req.Name == "" {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "slug", Message: "Slug and name are required"}}))
		return
	}

	existing, err := h.store.Tenants.FindBySlug(r.Context(), req.Slug)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if existing != nil {
		writeError(w, apperrors.AlreadyExists("Tenant"))
		return
	}

	branding := model.DefaultBranding()
	if req.Branding != nil {
		branding = *req.Branding
	}

	tenant, err := h.store.Tenants.Create(r.Context(), model.CreateTenantParams{
		Slug:          req.Slug,
		Name:          req.Name,
		ShortName:     req.ShortName,
		SenderName:    req.SenderName,
		SenderEmail:   req.SenderEmail,
		PortalBaseURL: req.PortalBaseURL,
		Branding:      branding,
	})
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (h *OperatorHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req model.UpdateTenantParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "body", Message: "Invalid request body"}}))
		return
	}

	tenant, err := h.store.Tenants.Update(r.Context(), tenantID, req)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if tenant == nil {
		writeError(w, apperrors.NotFound("Tenant"))
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *OperatorHandler) OnboardClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TenantSlug    string `json:"tenantSlug"`
		BusinessName  string `json:"businessName"`
		ContactName   string `json:"contactName"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		AssignedOwner string `json:"assignedOwner"`
		TriggerInvite bool   `json:"triggerInvite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TenantSlug == "" || req.Email == "" {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "email", Message: "Tenant slug and email are required"}}))
		return
	}

	result, err := h.onboarding.OnboardClient(r.Context(), service.OnboardClientParams{
		TenantSlug:    req.TenantSlug,
		BusinessName:  req.BusinessName,
		ContactName:   req.ContactName,
		Email:         req.Email,
		Phone:         req.Phone,
		AssignedOwner: req.AssignedOwner,
		TriggerInvite: req.TriggerInvite,
		Source:        service.SourceOperator,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *OperatorHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions.List(r.Context())
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *OperatorHandler) SessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.store.Sessions.FindByID(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if session == nil {
		writeError(w, apperrors.NotFound("Session"))
		return
	}

	steps, err := h.store.Steps.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	assets, err := h.store.Assets.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	history, err := h.store.StatusHistory.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	jobs, err := h.store.Jobs.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session":       session,
		"steps":         steps,
		"assets":        assets,
		"statusHistory": history,
		"jobs":          jobs,
		"nextStates":    lifecycle.NextStates(session.Status),
	})
}

func (h *OperatorHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	entries, err := h.store.Audit.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline": entries})
}

func (h *OperatorHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	link, err := h.onboarding.SendInvite(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"magicLinkUrl": link})
}

func (h *OperatorHandler) ArchiveClient(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		IsArchived *bool  `json:"isArchived"`
		ActorName  string `json:"actorName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsArchived == nil {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "isArchived", Message: "isArchived must be a boolean"}}))
		return
	}

	if err := h.onboarding.SetClientArchiveState(r.Context(), sessionID, *req.IsArchived, req.ActorName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (h *OperatorHandler) RequestMissingItems(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		MissingItems []string `json:"missingItems"`
		RequestedBy  string   `json:"requestedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.MissingItems) == 0 {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "missingItems", Message: "At least one missing item is required"}}))
		return
	}

	session, err := h.intake.RequestMissingItems(r.Context(), sessionID, req.MissingItems, req.RequestedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *OperatorHandler) Transition(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, false)
}

func (h *OperatorHandler) ForceStatus(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, true)
}

func (h *OperatorHandler) changeStatus(w http.ResponseWriter, r *http.Request, force bool) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Status model.LifecycleState `json:"status"`
		Note   string               `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "status", Message: "Target status is required"}}))
		return
	}

	session, err := h.store.Sessions.FindByID(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if session == nil {
		writeError(w, apperrors.NotFound("Session"))
		return
	}

	if force {
		err = h.machine.ForceSetStatus(r.Context(), session, req.Status, model.ActorOperator, req.Note)
	} else {
		err = h.machine.Transition(r.Context(), session, req.Status, model.ActorOperator, req.Note)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *OperatorHandler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	report, err := h.pipeline.RunFullPipeline(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *OperatorHandler) ProcessApproval(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Decision     string `json:"decision"`
		OperatorName string `json:"operatorName"`
		Note         string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Decision != "APPROVE" && req.Decision != "REJECT") {
		writeError(w, apperrors.ValidationFailed([]apperrors.FieldError{{Field: "decision", Message: "Decision must be APPROVE or REJECT"}}))
		return
	}

	if err := h.pipeline.ProcessApproval(r.Context(), sessionID, req.Decision == "APPROVE", req.OperatorName, req.Note); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *OperatorHandler) Report(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	report, err := h.store.Reports.FindBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, apperrors.Database(err))
		return
	}
	if report == nil {
		writeError(w, apperrors.NotFound("Report"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
