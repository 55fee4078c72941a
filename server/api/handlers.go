package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/GoCodeAlone/taskpilot/assist"
	"github.com/GoCodeAlone/taskpilot/comms"
	"github.com/GoCodeAlone/taskpilot/task"
	"github.com/GoCodeAlone/taskpilot/tracker"
)

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Tracker Tracker
	Bus     comms.Bus
	Logger  *slog.Logger
	Version string
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", h.toggleTask)
	mux.HandleFunc("POST /api/tasks/{id}/breakdown", h.taskBreakdown)
	mux.HandleFunc("POST /api/tasks/{id}/reminder", h.taskReminder)

	mux.HandleFunc("POST /api/breakdown", h.breakdown)
	mux.HandleFunc("POST /api/reminders/test", h.testReminder)
	mux.HandleFunc("GET /api/suggestions", h.suggestions)
	mux.HandleFunc("GET /api/upcoming", h.upcoming)

	mux.HandleFunc("GET /api/events", h.listEvents)

	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/version", h.version)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a tracker error to its HTTP status.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, task.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	default:
		h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// pathID parses the {id} path segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid task id: "+r.PathValue("id"))
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// --- Task handlers ---

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := task.ParseStatusFilter(q.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := task.ParseSortKey(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.Tracker.ListTasks(filter, key)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []tracker.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var nt task.NewTask
	if !decode(w, r, &nt) {
		return
	}
	if nt.Priority != "" {
		p, err := task.ParsePriority(string(nt.Priority))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		nt.Priority = p
	}
	t, err := h.Tracker.AddTask(r.Context(), nt)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.Tracker.GetTask(id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	status, err := task.ParseStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := h.Tracker.SetStatus(r.Context(), id, status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.Tracker.ToggleStatus(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Tracker.DeleteTask(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Assistant handlers ---

type textResponse struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded"`
}

func (h *Handlers) taskBreakdown(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	text, err := h.Tracker.Breakdown(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTextResponse(text))
}

func (h *Handlers) breakdown(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decode(w, r, &body) {
		return
	}
	text, err := h.Tracker.BreakdownText(r.Context(), body.Title, body.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTextResponse(text))
}

func (h *Handlers) taskReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.Tracker.SendReminder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) testReminder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Title string `json:"title"`
	}
	if !decode(w, r, &body) {
		return
	}
	res, err := h.Tracker.SendTestReminder(r.Context(), body.Email, body.Title)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) suggestions(w http.ResponseWriter, r *http.Request) {
	items, err := h.Tracker.Suggestions(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": items})
}

func (h *Handlers) upcoming(w http.ResponseWriter, r *http.Request) {
	days := tracker.DefaultUpcomingDays
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid days: "+d)
			return
		}
		days = n
	}
	views, err := h.Tracker.Upcoming(days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []tracker.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

func newTextResponse(text string) textResponse {
	return textResponse{Text: text, Degraded: assist.IsDegraded(text)}
}

// --- Event handlers ---

func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	var taskID int64
	if s := r.URL.Query().Get("task_id"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid task_id: "+s)
			return
		}
		taskID = n
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}

	if h.Bus == nil {
		writeJSON(w, http.StatusOK, []*comms.Event{})
		return
	}
	events, err := h.Bus.History(taskID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []*comms.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// --- Status / version ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	caps := h.Tracker.Capabilities()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   h.Version,
		"assistant": caps.Assistant,
		"mail":      caps.Mail,
	})
}

func (h *Handlers) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": h.Version,
	})
}
