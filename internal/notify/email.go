package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

// ErrNoRecipients is returned when a message has no To addresses.
var ErrNoRecipients = errors.New("notify: no recipients")

// EmailSender delivers one email. Swap implementations without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a plain-text email to one or more recipients.
type EmailMessage struct {
	To      []string
	Subject string
	Body    string
}

// sendgridClient is the part of *sendgrid.Client SendGridSender calls.
type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error)
}

type sendgridResponse struct {
	StatusCode int
	Body       string
}

type sendgridAdapter struct {
	client *sendgrid.Client
}

func (a sendgridAdapter) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error) {
	resp, err := a.client.SendWithContext(ctx, email)
	if err != nil {
		return nil, err
	}
	return &sendgridResponse{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// SendGridSender sends emails through the SendGrid v3 API.
type SendGridSender struct {
	client    sendgridClient
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Event Broadcasts"
	}
	return &SendGridSender{
		client:    sendgridAdapter{client: sendgrid.NewSendClient(cfg.APIKey)},
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// buildMail puts every recipient on one personalization so a single API call
// covers the whole list.
func (s *SendGridSender) buildMail(msg EmailMessage) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	m.Subject = msg.Subject
	p := mail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(mail.NewEmail("", to))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", msg.Body))
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	response, err := s.client.SendWithContext(ctx, s.buildMail(msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "recipients", len(msg.To))
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "recipients", len(msg.To), "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// StubEmailSender logs instead of sending.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	return nil
}
