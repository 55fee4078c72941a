// Package api defines the REST API handlers and interfaces for the TaskPilot server.
package api

import (
	"context"

	"github.com/GoCodeAlone/taskpilot/task"
	"github.com/GoCodeAlone/taskpilot/tracker"
)

// Tracker is the interface the API uses to manage tasks.
// Implemented by *tracker.Service.
type Tracker interface {
	Capabilities() tracker.Capabilities
	AddTask(ctx context.Context, nt task.NewTask) (task.Task, error)
	ListTasks(filter task.StatusFilter, key task.SortKey) ([]tracker.View, error)
	GetTask(id int64) (tracker.View, error)
	SetStatus(ctx context.Context, id int64, status task.Status) (tracker.View, error)
	ToggleStatus(ctx context.Context, id int64) (tracker.View, error)
	DeleteTask(ctx context.Context, id int64) error
	Breakdown(ctx context.Context, id int64) (string, error)
	BreakdownText(ctx context.Context, title, description string) (string, error)
	SendReminder(ctx context.Context, id int64) (tracker.ReminderResult, error)
	SendTestReminder(ctx context.Context, email, title string) (tracker.ReminderResult, error)
	Suggestions(ctx context.Context) ([]string, error)
	Upcoming(days int) ([]tracker.View, error)
}

var _ Tracker = (*tracker.Service)(nil)
