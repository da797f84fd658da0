package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// mdRenderer renders markdown event descriptions for email bodies. Raw HTML
// in the input is escaped (WithUnsafe is NOT set), preventing injection.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts markdown to HTML, falling back to escaped text.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		slog.Warn("markdown_render_failed", "error", err)
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h1>Registration Confirmed</h1>
<p>Hi {{.Name}},</p>
<p>You're all set for <strong>{{.EventName}}</strong> on {{.StartDate}}.</p>
<div style="border: 2px dashed #667eea; padding: 16px; text-align: center;">
  <p>Your ticket</p>
  <p style="font-size: 24px; font-weight: bold;">{{.TicketID}}</p>
  {{if .TicketURL}}<p><a href="{{.TicketURL}}">View your ticket and QR code</a></p>{{end}}
</div>
{{.Description}}
<p style="color: #666; font-size: 12px;">Present your ticket at the venue for entry.</p>
</body></html>`))

// Confirmation holds the data for a registration-confirmed email.
type Confirmation struct {
	Name        string
	EventName   string
	StartDate   time.Time
	TicketID    string
	TicketURL   string
	Description string // markdown
}

// RegistrationConfirmed builds the subject and HTML body for a ticket
// confirmation.
func RegistrationConfirmed(c Confirmation) (subject, html string) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		Name, EventName, TicketID, TicketURL string
		StartDate                            string
		Description                          template.HTML
	}{
		Name:        c.Name,
		EventName:   c.EventName,
		TicketID:    c.TicketID,
		TicketURL:   c.TicketURL,
		StartDate:   c.StartDate.Format("Monday, January 2, 2006 15:04"),
		Description: renderMarkdown(c.Description),
	})
	if err != nil {
		slog.Warn("email_template_failed", "template", "confirmation", "error", err)
	}
	return fmt.Sprintf("Your ticket for %s", c.EventName), buf.String()
}

var rejectionTmpl = template.Must(template.New("rejection").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h1>Order Not Approved</h1>
<p>Hi {{.Name}},</p>
<p>Your merchandise order for <strong>{{.EventName}}</strong> was not approved.</p>
<p>Reason: {{.Reason}}</p>
<p>If you believe this is a mistake, reply to this email to reach the organizer.</p>
</body></html>`))

// OrderRejected builds the subject and HTML body for a rejection notice.
func OrderRejected(name, eventName, reason string) (subject, html string) {
	var buf bytes.Buffer
	err := rejectionTmpl.Execute(&buf, struct{ Name, EventName, Reason string }{name, eventName, reason})
	if err != nil {
		slog.Warn("email_template_failed", "template", "rejection", "error", err)
	}
	return fmt.Sprintf("Your order for %s", eventName), buf.String()
}

var inviteTmpl = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h1>Team Invitation</h1>
<p>{{.LeaderName}} has invited you to join team <strong>{{.TeamName}}</strong> for {{.EventName}}.</p>
<p><a href="{{.Link}}" style="background: #667eea; color: white; padding: 12px 30px; text-decoration: none;">Accept invite</a></p>
<p style="color: #666; font-size: 12px;">This invite link is single use.</p>
</body></html>`))

// TeamInvite builds the subject and HTML body for a team invite.
func TeamInvite(leaderName, teamName, eventName, link string) (subject, html string) {
	var buf bytes.Buffer
	err := inviteTmpl.Execute(&buf, struct{ LeaderName, TeamName, EventName, Link string }{leaderName, teamName, eventName, link})
	if err != nil {
		slog.Warn("email_template_failed", "template", "invite", "error", err)
	}
	return fmt.Sprintf("Invitation to join %s for %s", teamName, eventName), buf.String()
}
