// Package scheduler runs the periodic reminder sweep: on a cron schedule it
// emails a reminder for every pending task due within the look-ahead window.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/GoCodeAlone/taskpilot/task"
	"github.com/GoCodeAlone/taskpilot/tracker"
)

// Reminders is the subset of *tracker.Service the sweep needs.
type Reminders interface {
	Upcoming(days int) ([]tracker.View, error)
	SendReminder(ctx context.Context, id int64) (tracker.ReminderResult, error)
}

// Config controls the sweep. An empty Schedule disables it.
type Config struct {
	Schedule string // standard 5-field cron expression, e.g. "0 8 * * *"
	Days     int    // look-ahead window
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron   *cron.Cron
	svc    Reminders
	days   int
	logger *slog.Logger

	mu   sync.Mutex
	sent map[int64]task.Date // task id -> deadline last reminded for
}

// New validates cfg and registers the sweep. It does not start the runner.
func New(svc Reminders, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		days:   cfg.Days,
		logger: logger.With("component", "scheduler"),
		sent:   make(map[int64]task.Date),
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Run starts the runner and blocks until ctx is done, then waits for a
// sweep in progress to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("reminder sweep scheduled", "days", s.days)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// Sweep sends one reminder per upcoming task and returns how many were
// delivered. A task is reminded again only when its deadline changes or it
// leaves and re-enters the window.
func (s *Scheduler) Sweep(ctx context.Context) int {
	views, err := s.svc.Upcoming(s.days)
	if err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	due := make(map[int64]task.Date, len(views))
	sent := 0
	for _, v := range views {
		due[v.ID] = v.Deadline
		if last, ok := s.sent[v.ID]; ok && last.Equal(v.Deadline) {
			continue
		}
		res, err := s.svc.SendReminder(ctx, v.ID)
		if err != nil {
			s.logger.Warn("reminder failed", "id", v.ID, "error", err)
			continue
		}
		if !res.Sent {
			continue
		}
		s.sent[v.ID] = v.Deadline
		sent++
	}
	for id := range s.sent {
		if _, ok := due[id]; !ok {
			delete(s.sent, id)
		}
	}
	s.logger.Info("reminder sweep complete", "upcoming", len(views), "sent", sent)
	return sent
}
