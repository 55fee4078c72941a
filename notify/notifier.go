// Package notify formats reminder emails and hands them to a mail relay.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoCodeAlone/taskpilot/internal/metrics"
)

var (
	// ErrMissingCredentials is returned by relay constructors when the
	// sender address or secret is absent.
	ErrMissingCredentials = errors.New("email credentials not configured")

	// ErrAuth marks a relay rejecting the sender credentials.
	ErrAuth = errors.New("mail relay authentication failed")
)

// Relay transmits a formatted message.
type Relay interface {
	// Name returns the relay identifier (e.g., "smtp", "sendgrid").
	Name() string

	// Deliver hands m to the relay. A nil error means the relay accepted it.
	Deliver(ctx context.Context, m Message) error
}

// Notifier sends reminder emails through a Relay. A Notifier with a nil
// relay is valid: every Send returns false without touching the network.
type Notifier struct {
	relay   Relay
	from    string
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Notifier. relay and m may be nil.
func New(relay Relay, from string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		relay:   relay,
		from:    from,
		timeout: timeout,
		logger:  logger.With("component", "notify"),
		metrics: m,
		now:     time.Now,
	}
}

// Configured reports whether a relay with credentials is available.
func (n *Notifier) Configured() bool { return n.relay != nil }

// Send emails body to recipient with a subject built from title.
// It returns true only when the relay accepted the message; every failure
// is logged and reported as false.
func (n *Notifier) Send(ctx context.Context, recipient, title, body string) bool {
	if n.relay == nil {
		n.logger.Warn("reminder not sent", "reason", ErrMissingCredentials)
		n.metrics.Reminder(metrics.OutcomeFailed)
		return false
	}
	if strings.TrimSpace(recipient) == "" {
		n.logger.Warn("reminder not sent", "reason", "empty recipient")
		n.metrics.Reminder(metrics.OutcomeFailed)
		return false
	}

	msg, err := BuildMessage(n.from, recipient, title, body)
	if err != nil {
		n.logger.Error("reminder not sent", "reason", err)
		n.metrics.Reminder(metrics.OutcomeFailed)
		return false
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	if err := n.relay.Deliver(ctx, msg); err != nil {
		if errors.Is(err, ErrAuth) {
			n.logger.Error("mail relay authentication error: check sender address and secret",
				"relay", n.relay.Name(), "error", err)
		} else {
			n.logger.Error("mail relay error", "relay", n.relay.Name(), "to", recipient, "error", err)
		}
		n.metrics.Reminder(metrics.OutcomeFailed)
		return false
	}

	n.logger.Info("email sent", "relay", n.relay.Name(), "to", recipient)
	n.metrics.Reminder(metrics.OutcomeOK)
	return true
}

// Config selects and configures a relay.
type Config struct {
	Provider string // "smtp" (default), "sendgrid", "mailgun"
	From     string
	SMTP     SMTPConfig
	SendGrid SendGridConfig
	Mailgun  MailgunConfig
	Logger   *slog.Logger // optional
}

// NewRelay builds the relay cfg describes. Missing credentials return an
// error wrapping ErrMissingCredentials so callers can run without mail.
func NewRelay(cfg Config) (Relay, error) {
	var (
		r   Relay
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "smtp":
		var sr *SMTPRelay
		if sr, err = NewSMTPRelay(cfg.From, cfg.SMTP); err == nil {
			if cfg.Logger != nil {
				sr.logger = cfg.Logger.With("component", "notify.smtp")
			}
			r = sr
		}
	case "sendgrid":
		r, err = NewSendGridRelay(cfg.From, cfg.SendGrid)
	case "mailgun":
		r, err = NewMailgunRelay(cfg.From, cfg.Mailgun)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
