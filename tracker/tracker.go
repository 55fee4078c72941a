// Package tracker is the application service behind the HTTP API. It applies
// the creation rules, joins stored tasks with their urgency, drives content
// generation and reminder delivery, and publishes lifecycle events.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoCodeAlone/taskpilot/assist"
	"github.com/GoCodeAlone/taskpilot/comms"
	"github.com/GoCodeAlone/taskpilot/internal/metrics"
	"github.com/GoCodeAlone/taskpilot/notify"
	"github.com/GoCodeAlone/taskpilot/task"
)

// DefaultUpcomingDays is the look-ahead window used when none is given.
const DefaultUpcomingDays = 3

// Test reminder values used by SendTestReminder.
const (
	testReminderDescription = "This is a reminder email"
	testReminderLeadDays    = 2
)

// View is a task together with its urgency relative to today.
type View struct {
	task.Task
	Urgency task.Urgency `json:"urgency"`
}

// ReminderResult reports a reminder attempt. Body is the generated email
// text, which may be a placeholder when generation failed.
type ReminderResult struct {
	Sent bool   `json:"sent"`
	Body string `json:"body"`
}

// Capabilities reports which external collaborators are configured.
type Capabilities struct {
	Assistant bool `json:"assistant"`
	Mail      bool `json:"mail"`
}

// Service coordinates the store, generator, notifier and event bus.
type Service struct {
	store    task.Store
	gen      *assist.Generator
	notifier *notify.Notifier
	bus      comms.Bus
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// Now returns the current time; today is its local calendar date.
	Now func() time.Time
}

// Deps bundles the collaborators of a Service. Bus and Metrics may be nil.
type Deps struct {
	Store     task.Store
	Generator *assist.Generator
	Notifier  *notify.Notifier
	Bus       comms.Bus
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// New creates a Service from d.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gen := d.Generator
	if gen == nil {
		gen = assist.New(nil, assist.Config{}, logger, d.Metrics)
	}
	n := d.Notifier
	if n == nil {
		n = notify.New(nil, "", 0, logger, d.Metrics)
	}
	return &Service{
		store:    d.Store,
		gen:      gen,
		notifier: n,
		bus:      d.Bus,
		metrics:  d.Metrics,
		logger:   logger.With("component", "tracker"),
		Now:      time.Now,
	}
}

func (s *Service) today() task.Date { return task.DateOf(s.Now()) }

// Capabilities reports whether generation and mail are available.
func (s *Service) Capabilities() Capabilities {
	return Capabilities{Assistant: s.gen.Configured(), Mail: s.notifier.Configured()}
}

// AddTask validates nt, persists it and returns the stored task.
// Beyond the store's checks it requires a description and a deadline that
// is not in the past.
func (s *Service) AddTask(ctx context.Context, nt task.NewTask) (task.Task, error) {
	var errs task.ValidationErrors
	if err := nt.Validate(); err != nil {
		var ve task.ValidationErrors
		if !errors.As(err, &ve) {
			return task.Task{}, err
		}
		errs = append(errs, ve...)
	}
	if strings.TrimSpace(nt.Description) == "" {
		errs = append(errs, &task.ValidationError{Field: "description", Reason: "is required"})
	}
	if !nt.Deadline.IsZero() && nt.Deadline.Before(s.today()) {
		errs = append(errs, &task.ValidationError{Field: "deadline", Reason: "must not be in the past"})
	}
	if len(errs) > 0 {
		return task.Task{}, errs
	}

	id, err := s.store.Insert(nt)
	if err != nil {
		return task.Task{}, fmt.Errorf("add task: %w", err)
	}
	t, err := s.store.Get(id)
	if err != nil {
		return task.Task{}, fmt.Errorf("add task: %w", err)
	}
	s.logger.Info("task added", "id", t.ID, "priority", t.Priority, "deadline", t.Deadline)
	s.metrics.TaskCreated()
	s.publish(ctx, &comms.Event{Type: comms.TypeTaskCreated, TaskID: t.ID, Title: t.Title, Status: string(t.Status)})
	return t, nil
}

// ListTasks returns the filtered and sorted tasks with their urgency.
func (s *Service) ListTasks(filter task.StatusFilter, key task.SortKey) ([]View, error) {
	tasks, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return s.views(task.Query(tasks, filter, key)), nil
}

// GetTask returns a single task with its urgency.
func (s *Service) GetTask(id int64) (View, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return View{}, err
	}
	return s.view(t), nil
}

// SetStatus moves a task to status and returns it.
func (s *Service) SetStatus(ctx context.Context, id int64, status task.Status) (View, error) {
	if err := s.store.UpdateStatus(id, status); err != nil {
		return View{}, err
	}
	t, err := s.store.Get(id)
	if err != nil {
		return View{}, err
	}
	s.logger.Info("task status changed", "id", id, "status", status)
	s.metrics.StatusChanged(string(status))
	s.publish(ctx, &comms.Event{Type: comms.TypeStatusChanged, TaskID: id, Title: t.Title, Status: string(status)})
	return s.view(t), nil
}

// ToggleStatus flips a task between Pending and Completed.
func (s *Service) ToggleStatus(ctx context.Context, id int64) (View, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return View{}, err
	}
	next := task.StatusCompleted
	if t.Status == task.StatusCompleted {
		next = task.StatusPending
	}
	return s.SetStatus(ctx, id, next)
}

// DeleteTask permanently removes a task.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	t, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.Info("task deleted", "id", id)
	s.metrics.TaskDeleted()
	s.publish(ctx, &comms.Event{Type: comms.TypeTaskDeleted, TaskID: id, Title: t.Title})
	return nil
}

// Breakdown generates subtasks for a stored task.
func (s *Service) Breakdown(ctx context.Context, id int64) (string, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return "", err
	}
	return s.gen.Breakdown(ctx, t.Title, t.Description), nil
}

// BreakdownText generates subtasks for an ad-hoc title and description.
func (s *Service) BreakdownText(ctx context.Context, title, description string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", &task.ValidationError{Field: "title", Reason: "is required"}
	}
	return s.gen.Breakdown(ctx, title, description), nil
}

// SendReminder generates a reminder email for a stored task and sends it
// to the task's email address.
func (s *Service) SendReminder(ctx context.Context, id int64) (ReminderResult, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return ReminderResult{}, err
	}
	return s.remind(ctx, t.ID, t.Email, t.Title, t.Description, t.Deadline, t.Priority), nil
}

// SendTestReminder sends a reminder for an unsaved High priority task due
// in two days.
func (s *Service) SendTestReminder(ctx context.Context, email, title string) (ReminderResult, error) {
	var errs task.ValidationErrors
	if strings.TrimSpace(email) == "" {
		errs = append(errs, &task.ValidationError{Field: "email", Reason: "is required"})
	}
	if strings.TrimSpace(title) == "" {
		errs = append(errs, &task.ValidationError{Field: "title", Reason: "is required"})
	}
	if len(errs) > 0 {
		return ReminderResult{}, errs
	}
	deadline := s.today().AddDays(testReminderLeadDays)
	return s.remind(ctx, 0, email, title, testReminderDescription, deadline, task.PriorityHigh), nil
}

func (s *Service) remind(ctx context.Context, id int64, email, title, description string, deadline task.Date, priority task.Priority) ReminderResult {
	body := s.gen.ReminderEmail(ctx, title, description, deadline.String(), string(priority))
	if assist.IsDegraded(body) {
		s.logger.Warn("sending reminder with placeholder body", "id", id)
	}
	sent := s.notifier.Send(ctx, email, title, body)

	ev := &comms.Event{Type: comms.TypeReminderSent, TaskID: id, Title: title}
	if !sent {
		ev.Type = comms.TypeReminderFail
	}
	s.publish(ctx, ev)
	return ReminderResult{Sent: sent, Body: body}
}

// Suggestions proposes follow-up tasks from the titles of completed tasks.
// With no completed tasks it returns an empty list without generating.
func (s *Service) Suggestions(ctx context.Context) ([]string, error) {
	tasks, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	var titles []string
	for _, t := range task.Query(tasks, task.FilterCompleted, task.SortDateAdded) {
		titles = append(titles, t.Title)
	}
	if len(titles) == 0 {
		return []string{}, nil
	}
	return s.gen.Suggestions(ctx, titles), nil
}

// Upcoming returns pending tasks due within days of today, overdue included.
func (s *Service) Upcoming(days int) ([]View, error) {
	if days < 0 {
		return nil, &task.ValidationError{Field: "days", Reason: "must not be negative"}
	}
	tasks, err := s.store.Upcoming(s.today(), days)
	if err != nil {
		return nil, fmt.Errorf("upcoming: %w", err)
	}
	return s.views(tasks), nil
}

func (s *Service) view(t task.Task) View {
	return View{Task: t, Urgency: task.Classify(t.Deadline, s.today())}
}

func (s *Service) views(tasks []task.Task) []View {
	today := s.today()
	out := make([]View, len(tasks))
	for i, t := range tasks {
		out[i] = View{Task: t, Urgency: task.Classify(t.Deadline, today)}
	}
	return out
}

func (s *Service) publish(ctx context.Context, ev *comms.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("event publish failed", "type", ev.Type, "error", err)
	}
}
