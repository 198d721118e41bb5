// Package mailer delivers composed notification emails over SMTP. Each
// message carries three alternative bodies — plain text, HTML, and a
// text/calendar part flagged as a meeting request — so capable clients
// render an RSVP card while everything else falls back to text.
package mailer

import (
	"context"

	mail "github.com/wneessen/go-mail"

	"ipowatch/internal/config"
	"ipowatch/internal/types"
)

// calendarContentType marks the third alternative as a meeting request.
// The method parameter must match the METHOD property inside the document;
// go-mail appends the charset parameter itself.
const calendarContentType = mail.ContentType("text/calendar; method=REQUEST")

// Outlook-compatibility headers carried on every invite email.
const (
	headerContentClass  = "Content-Class"
	contentClassMeeting = "urn:content-classes:calendarmessage"
	headerForceInspect  = "X-MS-OLK-FORCEINSPECTOROPEN"
)

// Message is one fully composed notification ready for transmission.
type Message struct {
	Recipient string
	Subject   string
	TextBody  string
	HTMLBody  string
	Invite    string
}

// SMTPMailer sends messages through an authenticated STARTTLS relay.
type SMTPMailer struct {
	client *mail.Client
	sender config.SenderConfig
	logger types.Logger
}

// New creates an SMTPMailer from relay and sender configuration.
func New(cfg config.SMTPConfig, sender config.SenderConfig, logger types.Logger) (*SMTPMailer, error) {
	if logger == nil {
		logger = types.NopLogger{}
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password.Unmask()),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSMTP,
			"smtp client construction failed", err)
	}
	return &SMTPMailer{client: client, sender: sender, logger: logger}, nil
}

// Send transmits one message. A transport failure maps to
// upstream_smtp_unavailable; the orchestrator does not recover from it.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm, err := m.compose(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamSMTP,
			"mail transmission failed", err,
			map[string]any{"recipient": msg.Recipient})
	}
	return nil
}

// compose assembles the MIME message: headers, then the three alternative
// body parts in ascending preference order (text, html, calendar).
func (m *SMTPMailer) compose(msg Message) (*mail.Msg, error) {
	mm := mail.NewMsg()
	if err := mm.FromFormat(m.sender.Name, m.sender.Email); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamSMTP,
			"invalid sender address", err)
	}
	if err := mm.To(msg.Recipient); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamSMTP,
			"invalid recipient address", err,
			map[string]any{"recipient": msg.Recipient})
	}
	mm.Subject(msg.Subject)
	mm.SetGenHeader(headerContentClass, contentClassMeeting)
	mm.SetGenHeader(headerForceInspect, "TRUE")

	mm.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	mm.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	mm.AddAlternativeString(calendarContentType, msg.Invite)
	return mm, nil
}
