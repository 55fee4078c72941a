package notify

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

// MailgunConfig holds the configuration for Mailgun.
type MailgunConfig struct {
	Domain  string
	APIKey  string
	APIBase string // optional, e.g. mailgun.APIBaseEU
}

// MailgunRelay delivers through the Mailgun messages API.
type MailgunRelay struct {
	from string
	mg   *mailgun.MailgunImpl
}

// NewMailgunRelay validates cfg and returns a relay sending as from.
func NewMailgunRelay(from string, cfg MailgunConfig) (*MailgunRelay, error) {
	if cfg.Domain == "" || cfg.APIKey == "" || from == "" {
		return nil, fmt.Errorf("mailgun: %w", ErrMissingCredentials)
	}
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	return &MailgunRelay{from: from, mg: mg}, nil
}

func (r *MailgunRelay) Name() string { return "mailgun" }

// Deliver queues m with Mailgun.
func (r *MailgunRelay) Deliver(ctx context.Context, m Message) error {
	message := r.mg.NewMessage(r.from, m.Subject, m.Text)
	message.SetHtml(m.HTML)
	if err := message.AddRecipient(m.To); err != nil {
		return fmt.Errorf("mailgun: add recipient: %w", err)
	}
	if _, _, err := r.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun: send: %w", err)
	}
	return nil
}
