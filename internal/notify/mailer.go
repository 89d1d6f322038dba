// Package notify renders and records tenant-branded outbound email.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/repository"
)

// Message is a rendered email ready for the delivery provider.
type Message struct {
	TenantID  string
	SessionID string
	To        string
	FromName  string
	FromEmail string
	Subject   string
	HTML      string
}

// Mailer hands a rendered message to a delivery provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer records every message in the outbound_emails table and logs
// it instead of delivering. The default when no provider is configured.
type LogMailer struct {
	emails repository.OutboundEmailRepository
	logger zerolog.Logger
}

func NewLogMailer(emails repository.OutboundEmailRepository, logger zerolog.Logger) *LogMailer {
	return &LogMailer{
		emails: emails,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	email, err := m.emails.Create(ctx, model.CreateOutboundEmailParams{
		TenantID:  msg.TenantID,
		SessionID: msg.SessionID,
		To:        msg.To,
		FromName:  msg.FromName,
		FromEmail: msg.FromEmail,
		Subject:   msg.Subject,
		HTML:      msg.HTML,
	})
	if err != nil {
		return err
	}

	status := "logged"
	if err := m.emails.UpdateDelivery(ctx, email.ID, status, nil); err != nil {
		return err
	}

	m.logger.Info().
		Str("email_id", email.ID).
		Str("tenant_id", msg.TenantID).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("outbound email recorded")
	return nil
}

// RenderWelcome builds the magic-link invite email in the tenant's
// branding. The portal link embeds the raw one-time token.
func RenderWelcome(tenant *model.Tenant, client *model.Client, session *model.IntakeSession, portalLink string) Message {
	brand := tenant.Branding
	displayName := tenant.Name
	if tenant.ShortName != "" {
		displayName = tenant.ShortName
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1a1a1a;">
  <div style="max-width: 560px; margin: 0 auto; padding: 24px;">
    <h1 style="color: %s;">Welcome to your %s client portal</h1>
    <p>Hi %s,</p>
    <p>%s has set up a secure portal for %s. Use the button below to
    sign in and begin your intake. The link works once and expires shortly.</p>
    <p style="margin: 32px 0;">
      <a href="%s" style="background: %s; color: #ffffff; padding: 12px 24px;
        text-decoration: none; border-radius: 4px;">Open your portal</a>
    </p>
    <p>After your first sign-in you can set a password for future visits.</p>
    <p style="color: #777; font-size: 12px; margin-top: 40px;">%s</p>
  </div>
</body>
</html>`,
		html.EscapeString(brand.PrimaryColor),
		html.EscapeString(displayName),
		html.EscapeString(client.ContactName),
		html.EscapeString(tenant.Name),
		html.EscapeString(client.BusinessName),
		html.EscapeString(portalLink),
		html.EscapeString(brand.SecondaryColor),
		html.EscapeString(brand.LegalFooter),
	)

	return Message{
		TenantID:  tenant.ID,
		SessionID: session.ID,
		To:        client.Email,
		FromName:  tenant.SenderName,
		FromEmail: tenant.SenderEmail,
		Subject:   fmt.Sprintf("%s: your secure client portal is ready", displayName),
		HTML:      body,
	}
}
