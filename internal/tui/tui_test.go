package tui

import (
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/focus"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/timer"
)

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	space = tea.KeyMsg{Type: tea.KeySpace}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
)

func setupTestDB(t *testing.T) {
	t.Helper()
	if err := db.Initialize(db.MemoryPath); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{25 * time.Minute, "25:00"},
		{0, "00:00"},
		{-time.Second, "00:00"},
		{1500*time.Millisecond + 59*time.Second, "01:01"},
		{time.Millisecond, "00:01"},
		{90 * time.Minute, "1:30:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.in); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderBigClockHasFiveRows(t *testing.T) {
	out := renderBigClock(5*time.Minute, ColorAccentMain)
	if rows := strings.Count(out, "\n") + 1; rows != 5 {
		t.Fatalf("rows = %d, want 5", rows)
	}
}

func TestSweepWrapsAndPauses(t *testing.T) {
	s := &Sweep{band: 2, enabled: true}
	s.Reset()
	if s.pos != -2 {
		t.Fatalf("pos after reset = %d", s.pos)
	}
	for i := 0; i < 7; i++ {
		s.Advance(3)
	}
	if s.pos != 5 {
		t.Fatalf("pos = %d, want 5", s.pos)
	}
	s.Advance(3)
	if s.pos != -2 || s.pause != sweepPauseTicks {
		t.Fatalf("after wrap pos=%d pause=%d", s.pos, s.pause)
	}
	s.Advance(3)
	if s.pos != -2 {
		t.Fatal("band moved during pause")
	}
}

func TestSweepDisabled(t *testing.T) {
	t.Setenv("TOMATE_NO_ANIMATION", "1")
	s := NewSweep()
	if s.Enabled() {
		t.Fatal("sweep should be disabled")
	}
	s.Advance(10)
	if s.pos != 0 {
		t.Fatal("disabled sweep advanced")
	}
	if !strings.Contains(s.Render("title"), "title") {
		t.Fatal("render lost the text")
	}
}

func newFocusModel(t *testing.T) (FocusModel, *focus.Service) {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	svc, err := focus.New(timer.DefaultConfig(), focus.Options{Logger: logrus.NewEntry(l)})
	if err != nil {
		t.Fatalf("focus.New: %v", err)
	}
	m := NewFocusModel(svc)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(FocusModel), svc
}

func TestFocusModelKeys(t *testing.T) {
	m, svc := newFocusModel(t)

	next, _ := m.Update(space)
	m = next.(FocusModel)
	if m.snap.Status != timer.StatusRunning {
		t.Fatalf("status after space = %s", m.snap.Status)
	}

	next, _ = m.Update(space)
	m = next.(FocusModel)
	if m.snap.Status != timer.StatusPaused {
		t.Fatalf("status after second space = %s", m.snap.Status)
	}

	next, _ = m.Update(keys("s"))
	m = next.(FocusModel)
	if m.snap.Kind != timer.KindShortBreak {
		t.Fatalf("kind after skip = %s", m.snap.Kind)
	}
	if !strings.Contains(m.notice, "Pomodoro done") {
		t.Fatalf("notice = %q", m.notice)
	}
	if svc.Snapshot().CompletedCycles != 1 {
		t.Fatalf("cycles = %d", svc.Snapshot().CompletedCycles)
	}

	next, _ = m.Update(keys("r"))
	m = next.(FocusModel)
	if m.notice != "" {
		t.Fatalf("reset announced %q", m.notice)
	}
	if m.snap.Status != timer.StatusIdle {
		t.Fatalf("status after reset = %s", m.snap.Status)
	}

	if view := m.View(); !strings.Contains(view, "r reset") {
		t.Fatalf("unexpected view:\n%s", view)
	}

	_, cmd := m.Update(keys("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should return tea.Quit")
	}
}

func TestFocusModelShowsTask(t *testing.T) {
	setupTestDB(t)
	task, err := db.CreateTask(db.CreateTaskRequest{Title: "Write report", Priority: "high", SubTasks: []string{"outline"}})
	if err != nil {
		t.Fatal(err)
	}

	m, svc := newFocusModel(t)
	if err := svc.SetTask(&task.ID); err != nil {
		t.Fatal(err)
	}
	next, _ := m.Update(focusTickMsg(time.Now()))
	m = next.(FocusModel)
	if m.task == nil || m.task.ID != task.ID {
		t.Fatalf("task not loaded: %+v", m.task)
	}
	if !strings.Contains(m.View(), "Write report") {
		t.Fatal("view does not show the task title")
	}
}

func newListModel(t *testing.T) ListModel {
	t.Helper()
	tasks, err := db.GetTasks(db.TaskQueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	m := NewListModel(tasks, db.TaskQueryOptions{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(ListModel)
}

func TestListModelToggles(t *testing.T) {
	setupTestDB(t)
	for _, req := range []db.CreateTaskRequest{
		{Title: "first"},
		{Title: "second", SubTasks: []string{"a", "b"}},
	} {
		if _, err := db.CreateTask(req); err != nil {
			t.Fatal(err)
		}
	}

	m := newListModel(t)
	if len(m.tasks) != 2 {
		t.Fatalf("tasks = %d", len(m.tasks))
	}
	idx := 0
	for i, task := range m.tasks {
		if task.Title == "second" {
			idx = i
		}
	}
	m.selectedTask = idx

	next, _ := m.Update(space)
	m = next.(ListModel)
	sel, _ := m.selected()
	if done, total := sel.SubTaskProgress(); done != 1 || total != 2 || !sel.SubTasks[0].Completed {
		t.Fatalf("progress = %d/%d", done, total)
	}

	next, _ = m.Update(keys("d"))
	m = next.(ListModel)
	sel, _ = m.selected()
	if sel.Title != "second" || !sel.Completed {
		t.Fatalf("selected after done = %+v", sel)
	}

	next, _ = m.Update(keys("d"))
	m = next.(ListModel)
	if sel, _ = m.selected(); sel.Completed {
		t.Fatal("second d should reopen the task")
	}

	next, cmd := m.Update(keys("f"))
	m = next.(ListModel)
	if m.FocusTaskID != sel.ID || cmd == nil {
		t.Fatalf("focus id = %d", m.FocusTaskID)
	}
}

func TestListModelSearch(t *testing.T) {
	setupTestDB(t)
	for _, title := range []string{"buy milk", "write tests", "milkshake"} {
		if _, err := db.CreateTask(db.CreateTaskRequest{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	m := newListModel(t)
	next, _ := m.Update(keys("/"))
	m = next.(ListModel)
	if !m.searching {
		t.Fatal("/ should open the search prompt")
	}
	for _, r := range "milk" {
		next, _ = m.Update(keys(string(r)))
		m = next.(ListModel)
	}
	next, _ = m.Update(enter)
	m = next.(ListModel)

	if m.searching || m.query != "milk" {
		t.Fatalf("searching=%v query=%q", m.searching, m.query)
	}
	if len(m.tasks) != 2 {
		t.Fatalf("matches = %d, want 2", len(m.tasks))
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(ListModel)
	if m.query != "" || len(m.tasks) != 3 {
		t.Fatalf("esc should clear the search, got %q with %d tasks", m.query, len(m.tasks))
	}
}

func typeInto(m AddTaskModel, s string) AddTaskModel {
	next, _ := m.Update(keys(s))
	return next.(AddTaskModel)
}

func press(m AddTaskModel, msg tea.KeyMsg) AddTaskModel {
	next, _ := m.Update(msg)
	return next.(AddTaskModel)
}

func TestAddTaskWizard(t *testing.T) {
	setupTestDB(t)

	m := NewAddTaskModel(map[string]string{"tags": "Work, deep"})
	m = press(m, enter)
	if m.validationErr == "" || m.currentStep != StepTitle {
		t.Fatal("empty title should not advance")
	}

	m = typeInto(m, "Write report")
	m = press(m, enter) // title
	m = typeInto(m, "job/reports")
	m = press(m, enter) // domain
	m = typeInto(m, "urgent")
	m = press(m, enter) // adds tag
	m = press(m, enter) // tags done
	m = typeInto(m, "bogus")
	m = press(m, enter)
	if m.currentStep != StepPriority || m.validationErr == "" {
		t.Fatalf("invalid priority accepted, step %d", m.currentStep)
	}
	m.inputs[StepPriority].SetValue("high")
	m = press(m, enter)
	m = typeInto(m, "tomorrow")
	m = press(m, enter) // due
	m = typeInto(m, "1h30m")
	m = press(m, enter) // estimate
	m = typeInto(m, "outline")
	m = press(m, enter)
	m = typeInto(m, "draft")
	m = press(m, enter)
	m = press(m, enter) // checklist done
	m = press(m, enter) // notes
	if m.currentStep != StepSave {
		t.Fatalf("step = %d, want save", m.currentStep)
	}

	next, cmd := m.Update(enter)
	m = next.(AddTaskModel)
	if m.err != nil {
		t.Fatalf("save: %v", m.err)
	}
	if cmd == nil || m.Created() == nil {
		t.Fatal("task not created")
	}

	task, err := db.GetTaskByID(m.Created().ID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Priority != models.PriorityHigh || task.EstimatedMinutes != 90 || task.Due == nil {
		t.Fatalf("task = %+v", task)
	}
	if got := strings.Join(task.TagNames(), ","); !strings.Contains(got, "work") || !strings.Contains(got, "urgent") || !strings.Contains(got, "deep") {
		t.Fatalf("tags = %s", got)
	}
	if task.Domain.Path() != "job/reports" || len(task.SubTasks) != 2 {
		t.Fatalf("domain %q, %d sub-tasks", task.Domain.Path(), len(task.SubTasks))
	}
}

func TestAddTaskEnterOnSaveStep(t *testing.T) {
	setupTestDB(t)

	m := NewAddTaskModel(nil)
	m.inputs[StepTitle].Blur()
	m.currentStep = StepSave
	m = press(m, enter)
	if m.currentStep != StepTitle || m.validationErr == "" || m.Created() != nil {
		t.Fatalf("save without title: step %d, err %q", m.currentStep, m.validationErr)
	}

	m = NewAddTaskModel(map[string]string{"title": "Inbox zero"})
	m.inputs[StepTitle].Blur()
	m.currentStep = StepSave
	next, cmd := m.Update(enter)
	m = next.(AddTaskModel)
	if cmd == nil || m.Created() == nil || m.Created().Title != "Inbox zero" {
		t.Fatalf("save from last step failed: %v", m.err)
	}
}

func TestAddTaskEscape(t *testing.T) {
	m := NewAddTaskModel(nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(AddTaskModel)
	if !m.cancelled || cmd == nil {
		t.Fatal("esc without input should cancel")
	}

	m = NewAddTaskModel(map[string]string{"title": "draft"})
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.showSaveModal {
		t.Fatal("esc with input should ask to save")
	}
	m = press(m, keys("n"))
	if !m.cancelled || m.Created() != nil {
		t.Fatal("n should discard the task")
	}
}

func TestPomodorosFor(t *testing.T) {
	for minutes, want := range map[int]int{25: 1, 26: 2, 90: 4, 1: 1} {
		if got := pomodorosFor(minutes); got != want {
			t.Errorf("pomodorosFor(%d) = %d, want %d", minutes, got, want)
		}
	}
}
