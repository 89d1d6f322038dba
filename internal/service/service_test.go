package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shaneHighPeek/beesold-mission-control/internal/drive"
	"github.com/shaneHighPeek/beesold-mission-control/internal/lifecycle"
	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/notify"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository/memory"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
	"github.com/shaneHighPeek/beesold-mission-control/internal/token"
)

type testEnv struct {
	store      *repository.Store
	engine     *schema.Engine
	codec      *token.Codec
	machine    *lifecycle.Machine
	auth       *AuthService
	intake     *IntakeService
	onboarding *OnboardingService
	pipeline   *PipelineService
	tenant     *model.Tenant
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	engine := schema.NewEngine(schema.IntakeSteps())
	codec := token.NewCodec("magic-secret-for-tests-0123456789ab", "session-secret-for-tests-0123456789")
	machine := lifecycle.NewMachine(store, zerolog.Nop())
	router := drive.NewStubRouter(zerolog.Nop())
	mailer := notify.NewLogMailer(store.Emails, zerolog.Nop())

	auth := NewAuthService(store, codec, machine, 30*time.Minute, 24*time.Hour)
	intake := NewIntakeService(store, engine, machine, router)
	onboarding := NewOnboardingService(store, engine, auth, mailer, router)
	pipeline := NewPipelineService(store, machine)

	tenant, err := store.Tenants.Create(ctx, model.CreateTenantParams{
		Slug:          "acme",
		Name:          "Acme Business Brokers",
		SenderName:    "Acme Advisory",
		SenderEmail:   "advisory@acme.test",
		PortalBaseURL: "https://portal.acme.test",
		Branding:      model.DefaultBranding(),
	})
	require.NoError(t, err)

	return &testEnv{
		store:      store,
		engine:     engine,
		codec:      codec,
		machine:    machine,
		auth:       auth,
		intake:     intake,
		onboarding: onboarding,
		pipeline:   pipeline,
		tenant:     tenant,
	}
}

// onboard creates a client with an intake session and returns a scope
// pinned to it, without going through the magic-link flow.
func (e *testEnv) onboard(t *testing.T, email string) *Scope {
	t.Helper()
	result, err := e.onboarding.OnboardClient(context.Background(), OnboardClientParams{
		TenantSlug:   e.tenant.Slug,
		BusinessName: "Widgets Ltd",
		ContactName:  "Pat Doyle",
		Email:        email,
		Source:       SourceOperator,
	})
	require.NoError(t, err)
	return &Scope{TenantID: e.tenant.ID, ClientID: result.ClientID, SessionID: result.SessionID}
}

// validAnswers is a minimal questionnaire that passes every step's
// complete-save validation.
func validAnswers() map[string]schema.AnswerMap {
	return map[string]schema.AnswerMap{
		"business_profile": {
			"businessName":     schema.String("Widgets Ltd"),
			"contactName":      schema.String("Pat Doyle"),
			"email":            schema.String("pat@widgets.test"),
			"entityType":       schema.String("llc"),
			"yearsInOperation": schema.Number(12),
		},
		"financial_overview": {
			"annualRevenue": schema.String("$1,200,000"),
			"annualProfit":  schema.String("300000"),
		},
		"operations": {
			"employeeCount": schema.Number(8),
		},
		"property_lease": {
			"premisesTenure": schema.String("owned"),
		},
		"goals_constraints": {
			"primaryGoal": schema.String("Full sale within a year"),
			"timeline":    schema.String("6_to_12_months"),
		},
		"documents": {},
		"review": {
			"confirmAccuracy": schema.Bool(true),
		},
	}
}

// completeIntake saves every step as complete and uploads the financial
// document and property photos the submission checklist requires.
func (e *testEnv) completeIntake(t *testing.T, scope *Scope) {
	t.Helper()
	ctx := context.Background()
	step := 1
	for _, def := range e.engine.Steps() {
		result, err := e.intake.SaveStep(ctx, scope, def.Key, validAnswers()[def.Key], step, true)
		require.NoError(t, err)
		require.True(t, result.OK, "step %s should save complete: %v", def.Key, result.Errors)
		step++
	}
	_, err := e.intake.AddAsset(ctx, scope, model.AssetFinancials, "pnl-2025.pdf", "application/pdf", 2048)
	require.NoError(t, err)
	for _, name := range []string{"storefront.jpg", "workshop.jpg", "warehouse.jpg"} {
		_, err := e.intake.AddAsset(ctx, scope, model.AssetProperty, name, "image/jpeg", 4096)
		require.NoError(t, err)
	}
}

// magicToken extracts the raw token from a portal magic-link URL.
func magicToken(t *testing.T, link string) string {
	t.Helper()
	_, raw, ok := strings.Cut(link, "token=")
	require.True(t, ok, "magic link %q has no token parameter", link)
	return raw
}
