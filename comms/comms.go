// Package comms provides the in-process event bus for task lifecycle events.
package comms

import (
	"context"
	"time"
)

// EventType identifies what happened to a task.
type EventType string

const (
	TypeTaskCreated   EventType = "task.created"
	TypeStatusChanged EventType = "task.status_changed"
	TypeTaskDeleted   EventType = "task.deleted"
	TypeReminderSent  EventType = "reminder.sent"
	TypeReminderFail  EventType = "reminder.failed"
)

// Wildcard subscribes to every event type.
const Wildcard = "*"

// Event describes a single change to the task list.
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	TaskID    int64             `json:"task_id"`
	Title     string            `json:"title,omitempty"`
	Status    string            `json:"status,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Handler processes a published event.
type Handler func(ctx context.Context, ev *Event) error

// Bus fans task events out to subscribers.
type Bus interface {
	// Publish delivers ev to subscribers of ev.Type and of Wildcard.
	// ID and Timestamp are filled in when empty.
	Publish(ctx context.Context, ev *Event) error

	// Subscribe registers handler for topic (an EventType or Wildcard).
	// Returns an unsubscribe function.
	Subscribe(topic string, handler Handler) (unsubscribe func())

	// History returns up to limit recent events for taskID, oldest first.
	// A taskID of 0 matches every task.
	History(taskID int64, limit int) ([]*Event, error)
}
