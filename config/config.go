// Package config defines the TaskPilot application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseFile is the SQLite file name inside DataDir.
const DatabaseFile = "todo_app.db"

// Config is the top-level TaskPilot configuration.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	DataDir   string          `json:"data_dir" yaml:"data_dir"`
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	Assistant AssistantConfig `json:"assistant" yaml:"assistant"`
	Mail      MailConfig      `json:"mail" yaml:"mail"`
	Reminders ReminderConfig  `json:"reminders" yaml:"reminders"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g., ":9090"
}

// AssistantConfig selects the text-generation backend.
type AssistantConfig struct {
	Provider  string        `json:"provider" yaml:"provider"` // "gemini", "anthropic", "openai"
	APIKey    string        `json:"-" yaml:"api_key"`
	Model     string        `json:"model,omitempty" yaml:"model"`
	BaseURL   string        `json:"base_url,omitempty" yaml:"base_url"`
	Signature string        `json:"signature" yaml:"signature"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
}

// MailConfig selects the mail relay.
type MailConfig struct {
	Provider string         `json:"provider" yaml:"provider"` // "smtp", "sendgrid", "mailgun"
	From     string         `json:"from" yaml:"from"`
	Timeout  time.Duration  `json:"timeout" yaml:"timeout"`
	SMTP     SMTPConfig     `json:"smtp" yaml:"smtp"`
	SendGrid SendGridConfig `json:"sendgrid" yaml:"sendgrid"`
	Mailgun  MailgunConfig  `json:"mailgun" yaml:"mailgun"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	Username string `json:"username,omitempty" yaml:"username"`
	Password string `json:"-" yaml:"password"`
}

// SendGridConfig holds SendGrid settings.
type SendGridConfig struct {
	APIKey string `json:"-" yaml:"api_key"`
}

// MailgunConfig holds Mailgun settings.
type MailgunConfig struct {
	Domain  string `json:"domain,omitempty" yaml:"domain"`
	APIKey  string `json:"-" yaml:"api_key"`
	APIBase string `json:"api_base,omitempty" yaml:"api_base"`
}

// ReminderConfig controls the scheduled reminder sweep.
type ReminderConfig struct {
	Schedule string `json:"schedule,omitempty" yaml:"schedule"` // cron expression; empty disables
	Days     int    `json:"days" yaml:"days"`                   // look-ahead window
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":9090",
		},
		DataDir:  "./data",
		LogLevel: "info",
		Assistant: AssistantConfig{
			Provider:  "gemini",
			Model:     "gemini-flash-lite-latest",
			Signature: "TaskPilot",
			Timeout:   60 * time.Second,
		},
		Mail: MailConfig{
			Provider: "smtp",
			Timeout:  30 * time.Second,
			SMTP: SMTPConfig{
				Host: "smtp.gmail.com",
				Port: "587",
			},
		},
		Reminders: ReminderConfig{
			Days: 1,
		},
	}
}

// Load reads a YAML config file and returns the parsed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
// Pass os.LookupEnv in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Server.Addr, "TASKPILOT_ADDR")
	set(&c.DataDir, "TASKPILOT_DATA_DIR")
	set(&c.LogLevel, "TASKPILOT_LOG_LEVEL")

	set(&c.Assistant.Provider, "TASKPILOT_AI_PROVIDER")
	set(&c.Assistant.Model, "TASKPILOT_AI_MODEL")
	switch strings.ToLower(c.Assistant.Provider) {
	case "anthropic":
		set(&c.Assistant.APIKey, "ANTHROPIC_API_KEY")
	case "openai":
		set(&c.Assistant.APIKey, "OPENAI_API_KEY")
	default:
		set(&c.Assistant.APIKey, "GEMINI_API_KEY")
	}

	set(&c.Mail.SMTP.Host, "SMTP_SERVER")
	set(&c.Mail.SMTP.Port, "SMTP_PORT")
	set(&c.Mail.From, "SENDER_EMAIL")
	set(&c.Mail.SMTP.Password, "SENDER_PASSWORD")
	set(&c.Mail.SendGrid.APIKey, "SENDGRID_API_KEY")
	set(&c.Mail.Mailgun.Domain, "MAILGUN_DOMAIN")
	set(&c.Mail.Mailgun.APIKey, "MAILGUN_API_KEY")

	set(&c.Reminders.Schedule, "TASKPILOT_REMINDER_SCHEDULE")
}
