package task

import (
	"fmt"
	"slices"
	"strings"
)

// StatusFilter selects which tasks a query keeps.
type StatusFilter int

const (
	FilterAll StatusFilter = iota
	FilterPending
	FilterCompleted
)

func (f StatusFilter) String() string {
	switch f {
	case FilterPending:
		return "Pending"
	case FilterCompleted:
		return "Completed"
	}
	return "All"
}

// ParseStatusFilter converts user input into a StatusFilter. Empty input means All.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch normalize(s) {
	case "", "All":
		return FilterAll, nil
	case "Pending":
		return FilterPending, nil
	case "Completed":
		return FilterCompleted, nil
	}
	return FilterAll, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown filter %q", s)}
}

func (f StatusFilter) keep(t Task) bool {
	switch f {
	case FilterPending:
		return t.Status == StatusPending
	case FilterCompleted:
		return t.Status == StatusCompleted
	}
	return true
}

// SortKey selects the ordering of a query.
type SortKey int

const (
	SortDeadline SortKey = iota
	SortPriority
	SortDateAdded
)

func (k SortKey) String() string {
	switch k {
	case SortPriority:
		return "Priority"
	case SortDateAdded:
		return "Date Added"
	}
	return "Deadline"
}

// ParseSortKey converts user input into a SortKey. Empty input means Deadline.
// "Date Added", "date_added" and "dateadded" all select SortDateAdded.
func ParseSortKey(s string) (SortKey, error) {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	switch key {
	case "", "deadline":
		return SortDeadline, nil
	case "priority":
		return SortPriority, nil
	case "dateadded", "created", "createdat":
		return SortDateAdded, nil
	}
	return SortDeadline, &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort key %q", s)}
}

func (k SortKey) compare(a, b Task) int {
	switch k {
	case SortPriority:
		return a.Priority.rank() - b.Priority.rank()
	case SortDateAdded:
		return b.CreatedAt.Compare(a.CreatedAt)
	}
	return a.Deadline.t.Compare(b.Deadline.t)
}

// Query filters tasks by status and returns them stably sorted by key.
// The input slice is left untouched.
func Query(tasks []Task, filter StatusFilter, key SortKey) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.keep(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, key.compare)
	return out
}
