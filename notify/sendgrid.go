package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig holds the configuration for SendGrid.
type SendGridConfig struct {
	APIKey   string
	FromName string
}

// SendGridRelay delivers through the SendGrid v3 mail send API.
type SendGridRelay struct {
	from   string
	config SendGridConfig
}

// NewSendGridRelay validates cfg and returns a relay sending as from.
func NewSendGridRelay(from string, cfg SendGridConfig) (*SendGridRelay, error) {
	if cfg.APIKey == "" || from == "" {
		return nil, fmt.Errorf("sendgrid: %w", ErrMissingCredentials)
	}
	if cfg.FromName == "" {
		cfg.FromName = "TaskPilot"
	}
	return &SendGridRelay{from: from, config: cfg}, nil
}

func (r *SendGridRelay) Name() string { return "sendgrid" }

// Deliver posts m to SendGrid. Only 2xx responses count as accepted.
func (r *SendGridRelay) Deliver(ctx context.Context, m Message) error {
	email := mail.NewSingleEmail(
		mail.NewEmail(r.config.FromName, r.from),
		m.Subject,
		mail.NewEmail("", m.To),
		m.Text,
		m.HTML,
	)

	client := sendgrid.NewSendClient(r.config.APIKey)
	resp, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("sendgrid: %w: status %d: %s", ErrAuth, resp.StatusCode, resp.Body)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
