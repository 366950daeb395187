package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/focus"
	"github.com/balkashynov/tomate/internal/logger"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/timer"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)

	if err := db.Initialize(db.MemoryPath); err != nil {
		t.Fatalf("db.Initialize: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc, err := focus.New(timer.DefaultConfig(), focus.Options{
		Sink:       focus.DBSink{},
		TaskExists: focus.TaskExists,
	})
	if err != nil {
		t.Fatalf("focus.New: %v", err)
	}
	return NewServer(svc, prometheus.NewRegistry())
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestTimerEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/timer", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	view := decode[timerView](t, w)
	if view.Status != timer.StatusIdle || view.Kind != timer.KindWork || view.RemainingSeconds != 1500 {
		t.Errorf("initial timer = %+v", view)
	}

	view = decode[timerView](t, do(t, s, http.MethodPost, "/api/timer/start", nil))
	if view.Status != timer.StatusRunning || view.SessionStartedAt == nil {
		t.Errorf("after start = %+v", view)
	}

	view = decode[timerView](t, do(t, s, http.MethodPost, "/api/timer/pause", nil))
	if view.Status != timer.StatusPaused {
		t.Errorf("after pause = %+v", view)
	}

	view = decode[timerView](t, do(t, s, http.MethodPost, "/api/timer/skip", nil))
	if view.Kind != timer.KindShortBreak || view.CompletedCycles != 1 {
		t.Errorf("after skip = %+v", view)
	}

	view = decode[timerView](t, do(t, s, http.MethodPost, "/api/timer/reset", nil))
	if view.Status != timer.StatusIdle || view.Kind != timer.KindWork || view.RemainingSeconds != 1500 {
		t.Errorf("after reset = %+v", view)
	}

	sessions := decode[struct {
		Sessions []models.PomodoroSession `json:"sessions"`
	}](t, do(t, s, http.MethodGet, "/api/sessions", nil))
	if len(sessions.Sessions) != 1 || !sessions.Sessions[0].Skipped || sessions.Sessions[0].DurationSeconds != 1500 {
		t.Errorf("sessions = %+v", sessions.Sessions)
	}
}

func TestTimerTask(t *testing.T) {
	s := newTestServer(t)
	task, err := db.CreateTask(db.CreateTaskRequest{Title: "write"})
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, s, http.MethodPut, "/api/timer/task", map[string]any{"task_id": task.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if view := decode[timerView](t, w); view.TaskID == nil || *view.TaskID != task.ID {
		t.Errorf("task_id = %v", view.TaskID)
	}

	w = do(t, s, http.MethodPut, "/api/timer/task", map[string]any{"task_id": 404})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown task status = %d", w.Code)
	}

	w = do(t, s, http.MethodPut, "/api/timer/task", map[string]any{"task_id": nil})
	if view := decode[timerView](t, w); view.TaskID != nil {
		t.Errorf("task not detached: %v", *view.TaskID)
	}
}

func TestTimerConfig(t *testing.T) {
	s := newTestServer(t)

	cfg := decode[timerConfigView](t, do(t, s, http.MethodGet, "/api/timer/config", nil))
	if cfg.WorkDuration != "25m0s" || cfg.LongBreakAfter != 4 {
		t.Errorf("initial config = %+v", cfg)
	}

	w := do(t, s, http.MethodPut, "/api/timer/config", map[string]any{"work_duration": "50m", "long_break_after": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	got := decode[struct {
		Config timerConfigView `json:"config"`
		Timer  timerView       `json:"timer"`
	}](t, w)
	if got.Config.WorkDuration != "50m0s" || got.Config.ShortBreak != "5m0s" || got.Config.LongBreakAfter != 2 {
		t.Errorf("updated config = %+v", got.Config)
	}
	if got.Timer.RemainingSeconds != 3000 || got.Timer.TotalSeconds != 3000 {
		t.Errorf("idle timer not resized: %+v", got.Timer)
	}

	for _, body := range []map[string]any{
		{"work_duration": "soon"},
		{"short_break": "0s"},
		{"long_break_after": 0},
	} {
		if w := do(t, s, http.MethodPut, "/api/timer/config", body); w.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d", body, w.Code)
		}
	}
	if cfg := s.focus.Config(); cfg.WorkDuration != 50*time.Minute {
		t.Errorf("rejected update changed config: %+v", cfg)
	}
}

func TestTaskCRUD(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "Plan sprint #work +high ~45m",
		"smart":    true,
		"due":      "tomorrow",
		"subtasks": []string{"collect tickets", "estimate"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	task := decode[models.Task](t, w)
	if task.Title != "Plan sprint" || task.Priority != models.PriorityHigh || task.EstimatedMinutes != 45 {
		t.Errorf("created = %+v", task)
	}
	if task.Due == nil || len(task.SubTasks) != 2 || len(task.Tags) != 1 {
		t.Errorf("created relations = %+v", task)
	}

	path := "/api/tasks/" + itoa(task.ID)

	w = do(t, s, http.MethodPatch, path, map[string]any{"note": "bring coffee", "due": ""})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", w.Code, w.Body.String())
	}
	patched := decode[models.Task](t, w)
	if patched.Note != "bring coffee" || patched.Due != nil || patched.Title != "Plan sprint" || patched.Priority != models.PriorityHigh {
		t.Errorf("patched = %+v", patched)
	}

	w = do(t, s, http.MethodPatch, path+"/subtasks/1", map[string]any{"completed": true, "position": 0})
	if w.Code != http.StatusOK {
		t.Fatalf("subtask patch status = %d: %s", w.Code, w.Body.String())
	}
	withSubs := decode[models.Task](t, w)
	if withSubs.SubTasks[0].Title != "estimate" || !withSubs.SubTasks[0].Completed {
		t.Errorf("subtasks = %+v", withSubs.SubTasks)
	}

	w = do(t, s, http.MethodPost, path+"/subtasks", map[string]any{"title": "book room"})
	if w.Code != http.StatusCreated {
		t.Errorf("add subtask status = %d", w.Code)
	}

	if w := do(t, s, http.MethodDelete, path, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d", w.Code)
	}
	list := decode[struct {
		Count int `json:"count"`
	}](t, do(t, s, http.MethodGet, "/api/tasks", nil))
	if list.Count != 0 {
		t.Errorf("deleted task still listed")
	}

	if w := do(t, s, http.MethodPost, path+"/restore", nil); w.Code != http.StatusOK {
		t.Errorf("restore status = %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, path, nil); w.Code != http.StatusOK {
		t.Errorf("get restored status = %d", w.Code)
	}
}

func TestTaskErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty title", http.MethodPost, "/api/tasks", map[string]any{"title": " "}, http.StatusBadRequest},
		{"bad due", http.MethodPost, "/api/tasks", map[string]any{"title": "x", "due": "someday"}, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/tasks/abc", nil, http.StatusBadRequest},
		{"missing", http.MethodGet, "/api/tasks/42", nil, http.StatusNotFound},
		{"patch missing", http.MethodPatch, "/api/tasks/42", map[string]any{"note": "x"}, http.StatusNotFound},
		{"bad status filter", http.MethodGet, "/api/tasks?status=later", nil, http.StatusBadRequest},
		{"bad month", http.MethodGet, "/api/calendar?month=March", nil, http.StatusBadRequest},
		{"bad session limit", http.MethodGet, "/api/sessions?limit=0", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("body has no error field: %s", w.Body.String())
			}
		})
	}
}

func TestSearchAndFilter(t *testing.T) {
	s := newTestServer(t)
	for _, title := range []string{"api docs", "fix api", "groceries"} {
		if _, err := db.CreateTask(db.CreateTaskRequest{Title: title, Domain: "work"}); err != nil {
			t.Fatal(err)
		}
	}

	res := decode[struct {
		Tasks []models.Task `json:"tasks"`
	}](t, do(t, s, http.MethodGet, "/api/tasks?q=api", nil))
	if len(res.Tasks) != 2 || res.Tasks[0].Title != "api docs" {
		t.Errorf("search = %+v", res.Tasks)
	}

	res = decode[struct {
		Tasks []models.Task `json:"tasks"`
	}](t, do(t, s, http.MethodGet, "/api/tasks?domain=work&limit=1", nil))
	if len(res.Tasks) != 1 {
		t.Errorf("filtered = %d tasks", len(res.Tasks))
	}
}

func TestStatsAndCalendar(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()
	err := db.RecordSession(&models.PomodoroSession{
		Type:            models.SessionWork,
		DurationSeconds: 1500,
		Completed:       true,
		StartedAt:       now.Add(-25 * time.Minute),
		CompletedAt:     now,
	})
	if err != nil {
		t.Fatal(err)
	}
	due := now
	if _, err := db.CreateTask(db.CreateTaskRequest{Title: "due now", DueDate: &due}); err != nil {
		t.Fatal(err)
	}

	st := decode[models.Stats](t, do(t, s, http.MethodGet, "/api/stats", nil))
	if st.TotalFocusSeconds != 1500 || st.TotalTasks != 1 || st.CurrentStreak != 1 {
		t.Errorf("stats = %+v", st)
	}

	cal := decode[struct {
		Month string `json:"month"`
		Days  []struct {
			FocusSeconds int64         `json:"focus_seconds"`
			Due          []models.Task `json:"due"`
		} `json:"days"`
	}](t, do(t, s, http.MethodGet, "/api/calendar", nil))
	if cal.Month != now.Format("2006-01") {
		t.Errorf("month = %q", cal.Month)
	}
	today := cal.Days[now.Day()-1]
	if today.FocusSeconds != 1500 || len(today.Due) != 1 {
		t.Errorf("today = %+v", today)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/timer/skip", nil)
	do(t, s, http.MethodGet, "/api/timer", nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`tomate_sessions_completed_total{skipped="true",type="work"} 1`,
		`tomate_focus_seconds_total 1500`,
		`tomate_http_requests_total{method="POST",route="/api/timer/skip",status="200"} 1`,
		`tomate_timer_remaining_seconds 300`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
