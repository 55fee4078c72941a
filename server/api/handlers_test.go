package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/GoCodeAlone/taskpilot/assist"
	"github.com/GoCodeAlone/taskpilot/comms"
	"github.com/GoCodeAlone/taskpilot/notify"
	"github.com/GoCodeAlone/taskpilot/provider/mock"
	"github.com/GoCodeAlone/taskpilot/server/api"
	"github.com/GoCodeAlone/taskpilot/task"
	"github.com/GoCodeAlone/taskpilot/tracker"
)

// --- Test doubles ---

type fakeRelay struct {
	sent []notify.Message
}

func (f *fakeRelay) Name() string { return "fake" }

func (f *fakeRelay) Deliver(_ context.Context, m notify.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

// --- Test helpers ---

func newHandlers(t *testing.T, responses ...string) (*fakeRelay, *http.ServeMux) {
	t.Helper()
	store, err := task.NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	relay := &fakeRelay{}
	bus := comms.NewInMemoryBus()
	svc := tracker.New(tracker.Deps{
		Store:     store,
		Generator: assist.New(mock.New(responses...), assist.Config{}, nil, nil),
		Notifier:  notify.New(relay, "bot@example.com", time.Second, nil, nil),
		Bus:       bus,
	})
	svc.Now = func() time.Time { return time.Date(2025, time.January, 8, 9, 0, 0, 0, time.Local) }

	mux := http.NewServeMux()
	h := &api.Handlers{
		Tracker: svc,
		Bus:     bus,
		Logger:  slog.Default(),
		Version: "test",
	}
	h.RegisterRoutes(mux)
	return relay, mux
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

const writeReport = `{"title":"Write report","description":"Quarterly summary","deadline":"2025-01-10","priority":"high","email":"a@b.com"}`

func createTask(t *testing.T, mux *http.ServeMux, body string) task.Task {
	t.Helper()
	rr := do(t, mux, http.MethodPost, "/api/tasks", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created task.Task
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return created
}

// --- Tests ---

func TestListTasks_Empty(t *testing.T) {
	_, mux := newHandlers(t)
	rr := do(t, mux, http.MethodGet, "/api/tasks", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rr.Body.String())
	}
}

func TestCreateAndListTasks(t *testing.T) {
	_, mux := newHandlers(t)

	created := createTask(t, mux, writeReport)
	if created.ID == 0 {
		t.Error("expected assigned task ID")
	}
	if created.Priority != task.PriorityHigh {
		t.Errorf("priority = %q, want normalised High", created.Priority)
	}

	rr := do(t, mux, http.MethodGet, "/api/tasks?status=pending&sort=Date%20Added", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var views []tracker.View
	if err := json.NewDecoder(rr.Body).Decode(&views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 task, got %d", len(views))
	}
	if views[0].Urgency.Bucket != task.BucketDueSoon || views[0].Urgency.Label != "Due in 2 days" {
		t.Errorf("urgency = %+v", views[0].Urgency)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	_, mux := newHandlers(t)
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"description":"d","deadline":"2025-01-10","priority":"Low","email":"a@b.com"}`},
		{"bad priority", `{"title":"t","description":"d","deadline":"2025-01-10","priority":"Urgent","email":"a@b.com"}`},
		{"bad date", `{"title":"t","description":"d","deadline":"10/01/2025","priority":"Low","email":"a@b.com"}`},
		{"past deadline", `{"title":"t","description":"d","deadline":"2024-12-31","priority":"Low","email":"a@b.com"}`},
		{"malformed", `{"title":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, mux, http.MethodPost, "/api/tasks", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	_, mux := newHandlers(t)
	created := createTask(t, mux, writeReport)
	path := "/api/tasks/" + itoa(created.ID)

	rr := do(t, mux, http.MethodPatch, path, `{"status":"Completed"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var v tracker.View
	json.NewDecoder(rr.Body).Decode(&v)
	if v.Status != task.StatusCompleted {
		t.Errorf("status = %s, want Completed", v.Status)
	}

	rr = do(t, mux, http.MethodPost, path+"/toggle", "")
	json.NewDecoder(rr.Body).Decode(&v)
	if rr.Code != http.StatusOK || v.Status != task.StatusPending {
		t.Errorf("toggle: code %d status %s", rr.Code, v.Status)
	}

	if rr := do(t, mux, http.MethodPatch, path, `{"status":"Done"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad status: expected 400, got %d", rr.Code)
	}

	if rr := do(t, mux, http.MethodDelete, path, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	if rr := do(t, mux, http.MethodGet, path, ""); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rr.Code)
	}
	if rr := do(t, mux, http.MethodDelete, path, ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rr.Code)
	}

	rr = do(t, mux, http.MethodGet, "/api/events?task_id="+itoa(created.ID), "")
	var events []comms.Event
	json.NewDecoder(rr.Body).Decode(&events)
	if len(events) != 4 {
		t.Errorf("events = %d, want 4", len(events))
	}
}

func TestGetTask_BadID(t *testing.T) {
	_, mux := newHandlers(t)
	for _, id := range []string{"abc", "0", "-3"} {
		if rr := do(t, mux, http.MethodGet, "/api/tasks/"+id, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected 400, got %d", id, rr.Code)
		}
	}
}

func TestBreakdownEndpoints(t *testing.T) {
	_, mux := newHandlers(t, "1. Outline\n2. Draft")
	created := createTask(t, mux, writeReport)

	rr := do(t, mux, http.MethodPost, "/api/tasks/"+itoa(created.ID)+"/breakdown", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Text     string `json:"text"`
		Degraded bool   `json:"degraded"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Text != "1. Outline\n2. Draft" || resp.Degraded {
		t.Errorf("resp = %+v", resp)
	}

	if rr := do(t, mux, http.MethodPost, "/api/breakdown", `{"title":"","description":"x"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("empty title: expected 400, got %d", rr.Code)
	}
	if rr := do(t, mux, http.MethodPost, "/api/breakdown", `{"title":"Plan trip","description":"x"}`); rr.Code != http.StatusOK {
		t.Errorf("ad-hoc breakdown: expected 200, got %d", rr.Code)
	}
}

func TestReminderEndpoints(t *testing.T) {
	relay, mux := newHandlers(t, "Hello from TaskPilot")
	created := createTask(t, mux, writeReport)

	rr := do(t, mux, http.MethodPost, "/api/tasks/"+itoa(created.ID)+"/reminder", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var res tracker.ReminderResult
	json.NewDecoder(rr.Body).Decode(&res)
	if !res.Sent || res.Body != "Hello from TaskPilot" {
		t.Errorf("res = %+v", res)
	}

	rr = do(t, mux, http.MethodPost, "/api/reminders/test", `{"email":"me@example.com","title":"Try it"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("test reminder: expected 200, got %d", rr.Code)
	}
	if len(relay.sent) != 2 || relay.sent[1].To != "me@example.com" {
		t.Errorf("relay sent = %+v", relay.sent)
	}

	if rr := do(t, mux, http.MethodPost, "/api/tasks/77/reminder", ""); rr.Code != http.StatusNotFound {
		t.Errorf("missing task: expected 404, got %d", rr.Code)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	_, mux := newHandlers(t, "- Plan next quarter")
	rr := do(t, mux, http.MethodGet, "/api/suggestions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string][]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if s, ok := resp["suggestions"]; !ok || len(s) != 0 {
		t.Errorf("resp = %v, want empty suggestions", resp)
	}
}

func TestUpcomingEndpoint(t *testing.T) {
	_, mux := newHandlers(t)
	createTask(t, mux, writeReport)

	rr := do(t, mux, http.MethodGet, "/api/upcoming?days=1", "")
	var views []tracker.View
	json.NewDecoder(rr.Body).Decode(&views)
	if rr.Code != http.StatusOK || len(views) != 0 {
		t.Errorf("days=1: code %d, %d tasks", rr.Code, len(views))
	}

	rr = do(t, mux, http.MethodGet, "/api/upcoming", "")
	json.NewDecoder(rr.Body).Decode(&views)
	if len(views) != 1 {
		t.Errorf("default window: %d tasks, want 1", len(views))
	}

	if rr := do(t, mux, http.MethodGet, "/api/upcoming?days=soon", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad days: expected 400, got %d", rr.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, mux := newHandlers(t)
	rr := do(t, mux, http.MethodGet, "/api/status", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", resp["status"])
	}
	if resp["assistant"] != true || resp["mail"] != true {
		t.Errorf("capabilities = %v", resp)
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
