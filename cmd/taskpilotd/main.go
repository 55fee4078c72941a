// Command taskpilotd is the TaskPilot server daemon. It builds the task
// store, text-generation provider, mail relay and event bus from the YAML
// config file, .env and environment, and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GoCodeAlone/taskpilot/assist"
	"github.com/GoCodeAlone/taskpilot/comms"
	"github.com/GoCodeAlone/taskpilot/config"
	"github.com/GoCodeAlone/taskpilot/internal/metrics"
	"github.com/GoCodeAlone/taskpilot/internal/version"
	"github.com/GoCodeAlone/taskpilot/notify"
	"github.com/GoCodeAlone/taskpilot/provider"
	"github.com/GoCodeAlone/taskpilot/scheduler"
	"github.com/GoCodeAlone/taskpilot/server"
	"github.com/GoCodeAlone/taskpilot/task"
	"github.com/GoCodeAlone/taskpilot/tracker"
)

var (
	configPath = flag.String("config", "", "path to YAML config file (optional)")
	envPath    = flag.String("env", ".env", "path to .env file (optional)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath, *envPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))

	logger.Info("starting taskpilotd",
		"version", version.Version,
		"commit", version.Commit,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir %s: %v", cfg.DataDir, err)
	}
	dbPath := filepath.Join(cfg.DataDir, config.DatabaseFile)
	store, err := task.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open task store: %v", err)
	}
	defer store.Close()
	logger.Info("task store opened", "path", dbPath)

	m := metrics.New()
	bus := comms.NewInMemoryBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// assist.New needs an untyped nil when no provider is configured.
	var gen provider.Provider
	p, err := provider.New(ctx, provider.Config{
		Kind:    cfg.Assistant.Provider,
		APIKey:  cfg.Assistant.APIKey,
		Model:   cfg.Assistant.Model,
		BaseURL: cfg.Assistant.BaseURL,
	})
	switch {
	case errors.Is(err, provider.ErrNotConfigured):
		logger.Warn("AI features disabled", "reason", err)
	case err != nil:
		log.Fatalf("Failed to create provider: %v", err)
	default:
		gen = p
		if c, ok := p.(io.Closer); ok {
			defer c.Close()
		}
		logger.Info("text generation enabled", "provider", p.Name(), "model", cfg.Assistant.Model)
	}

	relay, err := notify.NewRelay(notify.Config{
		Provider: cfg.Mail.Provider,
		From:     cfg.Mail.From,
		SMTP: notify.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
		},
		SendGrid: notify.SendGridConfig{APIKey: cfg.Mail.SendGrid.APIKey},
		Mailgun: notify.MailgunConfig{
			Domain:  cfg.Mail.Mailgun.Domain,
			APIKey:  cfg.Mail.Mailgun.APIKey,
			APIBase: cfg.Mail.Mailgun.APIBase,
		},
		Logger: logger,
	})
	var mailer notify.Relay
	switch {
	case errors.Is(err, notify.ErrMissingCredentials):
		logger.Warn("email reminders disabled", "reason", err)
	case err != nil:
		log.Fatalf("Failed to create mail relay: %v", err)
	default:
		mailer = relay
		logger.Info("email reminders enabled", "relay", relay.Name())
	}

	svc := tracker.New(tracker.Deps{
		Store: store,
		Generator: assist.New(gen, assist.Config{
			Signature: cfg.Assistant.Signature,
			Timeout:   cfg.Assistant.Timeout,
		}, logger, m),
		Notifier: notify.New(mailer, cfg.Mail.From, cfg.Mail.Timeout, logger, m),
		Bus:      bus,
		Metrics:  m,
		Logger:   logger,
	})

	srv := server.New(*cfg, version.Version, logger)
	srv.SetTracker(svc)
	srv.SetBus(bus)
	srv.SetMetrics(m)

	runCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("Shutting down...")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		return srv.Stop(shutdownCtx)
	})

	if cfg.Reminders.Schedule != "" {
		sched, err := scheduler.New(svc, scheduler.Config{
			Schedule: cfg.Reminders.Schedule,
			Days:     cfg.Reminders.Days,
		}, logger)
		if err != nil {
			log.Fatalf("Failed to create reminder scheduler: %v", err)
		}
		g.Go(func() error { return sched.Run(gctx) })
	}

	fmt.Printf("TaskPilot server running on %s\n", cfg.Server.Addr)
	fmt.Printf("Version: %s\n", version.String())

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
	}
	fmt.Println("Shutdown complete")
}

// loadConfig applies defaults, the optional YAML file, the optional .env
// file and the environment, in that order.
func loadConfig(path, envFile string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
