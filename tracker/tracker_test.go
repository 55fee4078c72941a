package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GoCodeAlone/taskpilot/assist"
	"github.com/GoCodeAlone/taskpilot/comms"
	"github.com/GoCodeAlone/taskpilot/notify"
	"github.com/GoCodeAlone/taskpilot/provider/mock"
	"github.com/GoCodeAlone/taskpilot/task"
)

var today = time.Date(2025, time.January, 8, 10, 0, 0, 0, time.Local)

type fakeRelay struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeRelay) Name() string { return "fake" }

func (f *fakeRelay) Deliver(_ context.Context, m notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fixture struct {
	svc   *Service
	model *mock.MockProvider
	relay *fakeRelay
	bus   *comms.InMemoryBus
}

func newFixture(t *testing.T, responses ...string) *fixture {
	t.Helper()
	store, err := task.NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		model: mock.New(responses...),
		relay: &fakeRelay{},
		bus:   comms.NewInMemoryBus(),
	}
	f.svc = New(Deps{
		Store:     store,
		Generator: assist.New(f.model, assist.Config{}, nil, nil),
		Notifier:  notify.New(f.relay, "bot@example.com", time.Second, nil, nil),
		Bus:       f.bus,
	})
	f.svc.Now = func() time.Time { return today }
	return f
}

func writeReport() task.NewTask {
	return task.NewTask{
		Title:       "Write report",
		Description: "Quarterly summary",
		Deadline:    task.NewDate(2025, time.January, 10),
		Priority:    task.PriorityHigh,
		Email:       "a@b.com",
	}
}

func mustAdd(t *testing.T, svc *Service, nt task.NewTask) task.Task {
	t.Helper()
	added, err := svc.AddTask(context.Background(), nt)
	if err != nil {
		t.Fatalf("AddTask(%q): %v", nt.Title, err)
	}
	return added
}

func TestAddTask(t *testing.T) {
	f := newFixture(t)
	added := mustAdd(t, f.svc, writeReport())

	if added.ID == 0 || added.Status != task.StatusPending {
		t.Errorf("added = %+v", added)
	}
	hist, _ := f.bus.History(added.ID, 0)
	if len(hist) != 1 || hist[0].Type != comms.TypeTaskCreated {
		t.Errorf("events = %+v, want one task.created", hist)
	}
}

func TestAddTaskValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		edit  func(*task.NewTask)
		field string
	}{
		{"past deadline", func(nt *task.NewTask) { nt.Deadline = task.NewDate(2025, time.January, 7) }, "deadline"},
		{"empty description", func(nt *task.NewTask) { nt.Description = "  " }, "description"},
		{"empty title", func(nt *task.NewTask) { nt.Title = "" }, "title"},
		{"bad priority", func(nt *task.NewTask) { nt.Priority = "Urgent" }, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt := writeReport()
			tt.edit(&nt)
			_, err := f.svc.AddTask(context.Background(), nt)
			if !errors.Is(err, task.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("err = %q, want mention of %s", err, tt.field)
			}
		})
	}

	views, _ := f.svc.ListTasks(task.FilterAll, task.SortDeadline)
	if len(views) != 0 {
		t.Errorf("invalid tasks were stored: %d", len(views))
	}
}

func TestAddTaskDeadlineToday(t *testing.T) {
	f := newFixture(t)
	nt := writeReport()
	nt.Deadline = task.DateOf(today)
	if _, err := f.svc.AddTask(context.Background(), nt); err != nil {
		t.Fatalf("deadline today rejected: %v", err)
	}
}

func TestListTasksUrgency(t *testing.T) {
	f := newFixture(t)
	mustAdd(t, f.svc, writeReport())

	views, err := f.svc.ListTasks(task.FilterPending, task.SortDeadline)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("len = %d, want 1", len(views))
	}
	u := views[0].Urgency
	if u.Bucket != task.BucketDueSoon || u.DaysLeft != 2 || u.Label != "Due in 2 days" {
		t.Errorf("urgency = %+v", u)
	}

	done, _ := f.svc.ListTasks(task.FilterCompleted, task.SortDeadline)
	if len(done) != 0 {
		t.Errorf("completed filter returned %d tasks", len(done))
	}
}

func TestToggleStatus(t *testing.T) {
	f := newFixture(t)
	added := mustAdd(t, f.svc, writeReport())
	ctx := context.Background()

	v, err := f.svc.ToggleStatus(ctx, added.ID)
	if err != nil {
		t.Fatalf("ToggleStatus: %v", err)
	}
	if v.Status != task.StatusCompleted {
		t.Errorf("status = %s, want Completed", v.Status)
	}
	v, _ = f.svc.ToggleStatus(ctx, added.ID)
	if v.Status != task.StatusPending {
		t.Errorf("status = %s, want Pending", v.Status)
	}

	hist, _ := f.bus.History(added.ID, 0)
	if len(hist) != 3 || hist[1].Status != "Completed" || hist[2].Status != "Pending" {
		t.Errorf("events = %+v", hist)
	}

	if _, err := f.svc.ToggleStatus(ctx, 999); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("toggle missing: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	added := mustAdd(t, f.svc, writeReport())
	ctx := context.Background()

	if err := f.svc.DeleteTask(ctx, added.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := f.svc.GetTask(added.ID); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("GetTask after delete: err = %v", err)
	}
	if err := f.svc.DeleteTask(ctx, added.ID); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestBreakdown(t *testing.T) {
	f := newFixture(t, "1. Outline\n2. Draft")
	added := mustAdd(t, f.svc, writeReport())

	text, err := f.svc.Breakdown(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("Breakdown: %v", err)
	}
	if text != "1. Outline\n2. Draft" {
		t.Errorf("text = %q", text)
	}
	prompts := f.model.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "Task Title: Write report") {
		t.Errorf("prompts = %q", prompts)
	}

	if _, err := f.svc.Breakdown(context.Background(), 42); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("missing task: err = %v", err)
	}
	if _, err := f.svc.BreakdownText(context.Background(), " ", "x"); !errors.Is(err, task.ErrValidation) {
		t.Errorf("empty title: err = %v", err)
	}
}

func TestSendReminder(t *testing.T) {
	f := newFixture(t, "Hi! Please finish the report.\nTaskPilot")
	added := mustAdd(t, f.svc, writeReport())

	res, err := f.svc.SendReminder(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	if !res.Sent {
		t.Error("Sent = false")
	}
	if len(f.relay.sent) != 1 {
		t.Fatalf("relay got %d messages", len(f.relay.sent))
	}
	msg := f.relay.sent[0]
	if msg.To != "a@b.com" || msg.Subject != notify.SubjectPrefix+"Write report" || msg.Text != res.Body {
		t.Errorf("message = %+v", msg)
	}
	if p := f.model.Prompts()[0]; !strings.Contains(p, "Deadline: 2025-01-10") || !strings.Contains(p, "Priority: High") {
		t.Errorf("prompt = %q", p)
	}

	hist, _ := f.bus.History(added.ID, 1)
	if len(hist) != 1 || hist[0].Type != comms.TypeReminderSent {
		t.Errorf("last event = %+v", hist)
	}
}

func TestSendReminderRelayFailure(t *testing.T) {
	f := newFixture(t)
	f.relay.err = errors.New("connection refused")
	added := mustAdd(t, f.svc, writeReport())

	res, err := f.svc.SendReminder(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
	if res.Sent {
		t.Error("Sent = true on relay failure")
	}
	hist, _ := f.bus.History(added.ID, 1)
	if len(hist) != 1 || hist[0].Type != comms.TypeReminderFail {
		t.Errorf("last event = %+v", hist)
	}
}

func TestSendTestReminder(t *testing.T) {
	f := newFixture(t, "Reminder body")

	res, err := f.svc.SendTestReminder(context.Background(), "me@example.com", "Try it")
	if err != nil {
		t.Fatalf("SendTestReminder: %v", err)
	}
	if !res.Sent || res.Body != "Reminder body" {
		t.Errorf("res = %+v", res)
	}
	p := f.model.Prompts()[0]
	for _, want := range []string{"Task: Try it", "Description: This is a reminder email", "Deadline: 2025-01-10", "Priority: High"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if _, err := f.svc.SendTestReminder(context.Background(), "", ""); !errors.Is(err, task.ErrValidation) {
		t.Errorf("empty input: err = %v", err)
	}
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t, "- Plan next quarter\n- Review budget")
	ctx := context.Background()

	got, err := f.svc.Suggestions(ctx)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("suggestions without completed tasks = %q", got)
	}
	if n := len(f.model.Prompts()); n != 0 {
		t.Errorf("provider called %d times with no completed tasks", n)
	}

	added := mustAdd(t, f.svc, writeReport())
	if _, err := f.svc.SetStatus(ctx, added.ID, task.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err = f.svc.Suggestions(ctx)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(got) != 2 || got[0] != "Plan next quarter" {
		t.Errorf("suggestions = %q", got)
	}
	if p := f.model.Prompts()[0]; !strings.Contains(p, "- Write report") {
		t.Errorf("prompt = %q", p)
	}
}

func TestUpcoming(t *testing.T) {
	f := newFixture(t)
	mustAdd(t, f.svc, writeReport())
	later := writeReport()
	later.Title = "Later"
	later.Deadline = task.NewDate(2025, time.February, 1)
	mustAdd(t, f.svc, later)

	views, err := f.svc.Upcoming(DefaultUpcomingDays)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(views) != 1 || views[0].Title != "Write report" {
		t.Errorf("upcoming = %+v", views)
	}
	if _, err := f.svc.Upcoming(-1); !errors.Is(err, task.ErrValidation) {
		t.Errorf("negative days: err = %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	f := newFixture(t)
	if c := f.svc.Capabilities(); !c.Assistant || !c.Mail {
		t.Errorf("capabilities = %+v", c)
	}
	bare := New(Deps{Store: f.svc.store})
	if c := bare.Capabilities(); c.Assistant || c.Mail {
		t.Errorf("bare capabilities = %+v", c)
	}
}
