package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"time"
)

const (
	defaultSMTPHost = "smtp.gmail.com"
	defaultSMTPPort = "587"
	implicitTLSPort = "465"
)

// SMTPConfig holds the configuration for an SMTP relay.
// Username defaults to the sender address.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// SMTPRelay delivers over SMTP with STARTTLS (or implicit TLS on port 465)
// and PLAIN authentication.
type SMTPRelay struct {
	from   string
	config SMTPConfig
	now    func() time.Time
	logger *slog.Logger
}

// smtpSession is the part of *smtp.Client used after authentication.
type smtpSession interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
}

// NewSMTPRelay validates cfg and returns a relay sending as from.
func NewSMTPRelay(from string, cfg SMTPConfig) (*SMTPRelay, error) {
	if cfg.Host == "" {
		cfg.Host = defaultSMTPHost
	}
	if cfg.Port == "" {
		cfg.Port = defaultSMTPPort
	}
	if cfg.Username == "" {
		cfg.Username = from
	}
	if from == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp: %w", ErrMissingCredentials)
	}
	return &SMTPRelay{
		from:   from,
		config: cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "notify.smtp"),
	}, nil
}

func (r *SMTPRelay) Name() string { return "smtp" }

// Deliver opens an encrypted, authenticated session and submits m.
func (r *SMTPRelay) Deliver(ctx context.Context, m Message) error {
	raw, err := m.MIME(r.now())
	if err != nil {
		return fmt.Errorf("smtp: build message: %w", err)
	}

	addr := net.JoinHostPort(r.config.Host, r.config.Port)
	tlsConfig := &tls.Config{ServerName: r.config.Host, MinVersion: tls.VersionTLS12}

	var conn net.Conn
	if r.config.Port == implicitTLSPort {
		d := &tls.Dialer{Config: tlsConfig}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, r.config.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp: handshake: %w", err)
	}
	defer c.Close()

	if r.config.Port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			return fmt.Errorf("smtp: %s does not support STARTTLS", r.config.Host)
		}
		if err := c.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("smtp: starttls: %w", err)
		}
	}
	if err := c.Auth(smtp.PlainAuth("", r.config.Username, r.config.Password, r.config.Host)); err != nil {
		return classifySMTPError("auth", err)
	}
	return r.submit(c, m.To, raw)
}

// submit sends one message on an authenticated session. The message is
// delivered once the server accepts DATA, so a failed QUIT is only logged.
func (r *SMTPRelay) submit(s smtpSession, to string, raw []byte) error {
	if err := s.Mail(r.from); err != nil {
		return classifySMTPError("mail from", err)
	}
	if err := s.Rcpt(to); err != nil {
		return classifySMTPError("rcpt to", err)
	}
	w, err := s.Data()
	if err != nil {
		return classifySMTPError("data", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return classifySMTPError("data", err)
	}
	if err := s.Quit(); err != nil {
		r.logger.Warn("smtp quit failed after message was accepted", "to", to, "error", err)
	}
	return nil
}

// classifySMTPError wraps reply codes 530/534/535 as ErrAuth.
func classifySMTPError(stage string, err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return fmt.Errorf("smtp: %s: %w: %v", stage, ErrAuth, err)
		}
	}
	return fmt.Errorf("smtp: %s: %w", stage, err)
}
