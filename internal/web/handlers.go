package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/parser"
	"github.com/balkashynov/tomate/internal/stats"
	"github.com/balkashynov/tomate/internal/timer"
)

const (
	defaultSessionLimit = 50
	maxSessionLimit     = 1000
)

// Timer

type timerView struct {
	Status           timer.Status `json:"status"`
	Kind             timer.Kind   `json:"kind"`
	Label            string       `json:"label"`
	RemainingSeconds int          `json:"remaining_seconds"`
	TotalSeconds     int          `json:"total_seconds"`
	Progress         float64      `json:"progress"`
	CompletedCycles  int          `json:"completed_cycles"`
	TaskID           *uint        `json:"task_id"`
	SessionStartedAt *time.Time   `json:"session_started_at,omitempty"`
}

func newTimerView(s timer.Snapshot) timerView {
	return timerView{
		Status:           s.Status,
		Kind:             s.Kind,
		Label:            s.Kind.Label(),
		RemainingSeconds: int(s.Remaining.Round(time.Second) / time.Second),
		TotalSeconds:     int(s.Total / time.Second),
		Progress:         s.Progress(),
		CompletedCycles:  s.CompletedCycles,
		TaskID:           s.TaskID,
		SessionStartedAt: s.SessionStartedAt,
	}
}

func (s *Server) handleTimer(c *gin.Context) {
	s.focus.Tick()
	c.JSON(http.StatusOK, newTimerView(s.focus.Snapshot()))
}

func (s *Server) handleTimerAction(action func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		action()
		c.JSON(http.StatusOK, newTimerView(s.focus.Snapshot()))
	}
}

type timerTaskBody struct {
	TaskID *uint `json:"task_id"`
}

func (s *Server) handleTimerTask(c *gin.Context) {
	var body timerTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.focus.SetTask(body.TaskID); err != nil {
		respondError(c, statusFor(err, http.StatusBadRequest), err)
		return
	}
	c.JSON(http.StatusOK, newTimerView(s.focus.Snapshot()))
}

type timerConfigView struct {
	WorkDuration    string `json:"work_duration"`
	ShortBreak      string `json:"short_break"`
	LongBreak       string `json:"long_break"`
	LongBreakAfter  int    `json:"long_break_after"`
	AutoStartBreaks bool   `json:"auto_start_breaks"`
	AutoStartWork   bool   `json:"auto_start_work"`
}

func newTimerConfigView(c timer.Config) timerConfigView {
	return timerConfigView{
		WorkDuration:    c.WorkDuration.String(),
		ShortBreak:      c.ShortBreakDuration.String(),
		LongBreak:       c.LongBreakDuration.String(),
		LongBreakAfter:  c.CyclesBeforeLongBreak,
		AutoStartBreaks: c.AutoStartBreaks,
		AutoStartWork:   c.AutoStartWork,
	}
}

// timerConfigBody is a partial update; durations use Go syntax ("50m")
type timerConfigBody struct {
	WorkDuration    *string `json:"work_duration"`
	ShortBreak      *string `json:"short_break"`
	LongBreak       *string `json:"long_break"`
	LongBreakAfter  *int    `json:"long_break_after"`
	AutoStartBreaks *bool   `json:"auto_start_breaks"`
	AutoStartWork   *bool   `json:"auto_start_work"`
}

func (b timerConfigBody) apply(cfg timer.Config) (timer.Config, error) {
	durations := []struct {
		v   *string
		dst *time.Duration
	}{
		{b.WorkDuration, &cfg.WorkDuration},
		{b.ShortBreak, &cfg.ShortBreakDuration},
		{b.LongBreak, &cfg.LongBreakDuration},
	}
	for _, d := range durations {
		if d.v == nil {
			continue
		}
		v, err := time.ParseDuration(*d.v)
		if err != nil {
			return cfg, err
		}
		*d.dst = v
	}
	if b.LongBreakAfter != nil {
		cfg.CyclesBeforeLongBreak = *b.LongBreakAfter
	}
	if b.AutoStartBreaks != nil {
		cfg.AutoStartBreaks = *b.AutoStartBreaks
	}
	if b.AutoStartWork != nil {
		cfg.AutoStartWork = *b.AutoStartWork
	}
	return cfg, nil
}

func (s *Server) handleTimerConfig(c *gin.Context) {
	c.JSON(http.StatusOK, newTimerConfigView(s.focus.Config()))
}

// handleUpdateTimerConfig changes durations of the live timer only; the
// config file is left alone
func (s *Server) handleUpdateTimerConfig(c *gin.Context) {
	var body timerConfigBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	cfg, err := body.apply(s.focus.Config())
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.focus.UpdateConfig(cfg); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	s.log.WithField("work_duration", cfg.WorkDuration).Info("timer config updated")
	c.JSON(http.StatusOK, gin.H{
		"config": newTimerConfigView(s.focus.Config()),
		"timer":  newTimerView(s.focus.Snapshot()),
	})
}

// Tasks

type createTaskBody struct {
	Title            string   `json:"title"`
	Tags             []string `json:"tags"`
	Priority         string   `json:"priority"`
	Domain           string   `json:"domain"`
	Due              string   `json:"due"`
	StartDate        string   `json:"start_date"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	Note             string   `json:"note"`
	SubTasks         []string `json:"subtasks"`
	// Smart parses #tags, +priority, due: etc. out of the title
	Smart bool `json:"smart"`
}

func (s *Server) handleListTasks(c *gin.Context) {
	opts := db.TaskQueryOptions{
		Status:   c.Query("status"),
		Tags:     c.QueryArray("tag"),
		Domain:   c.Query("domain"),
		Priority: c.Query("priority"),
		OrderBy:  c.Query("order"),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		opts.Limit = n
	}

	var (
		tasks []models.Task
		err   error
	)
	if q := c.Query("q"); q != "" {
		tasks, err = db.SearchTasks(q, opts)
	} else {
		tasks, err = db.GetTasks(opts)
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var body createTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	req := db.CreateTaskRequest{
		Title:            body.Title,
		Tags:             body.Tags,
		Priority:         body.Priority,
		Domain:           body.Domain,
		StartTime:        body.StartTime,
		EndTime:          body.EndTime,
		EstimatedMinutes: body.EstimatedMinutes,
		Note:             body.Note,
		SubTasks:         body.SubTasks,
	}
	var err error
	if req.DueDate, err = parseDateField(body.Due, parser.ParseDueDate); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.StartDate, err = parseDateField(body.StartDate, parser.ParseStartDate); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Smart {
		if err := applySmartTitle(&req); err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	task, err := db.CreateTask(req)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// applySmartTitle merges metadata parsed from the title; explicit fields win
func applySmartTitle(req *db.CreateTaskRequest) error {
	parsed := parser.ParseTitle(req.Title)
	if len(parsed.Errors) > 0 {
		return errors.New(strings.Join(parsed.Errors, "; "))
	}
	req.Title = parsed.Title
	req.Tags = append(req.Tags, parsed.Tags...)
	if req.Priority == "" {
		req.Priority = parsed.Priority
	}
	if req.Domain == "" {
		req.Domain = parsed.Domain
	}
	if req.DueDate == nil {
		req.DueDate = parsed.DueDate
	}
	if req.StartDate == nil {
		req.StartDate = parsed.StartDate
	}
	if req.StartTime == "" && req.EndTime == "" {
		req.StartTime, req.EndTime = parsed.StartTime, parsed.EndTime
	}
	if req.EstimatedMinutes == 0 {
		req.EstimatedMinutes = parsed.EstimatedMinutes
	}
	return nil
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := db.GetTaskByID(id)
	if err != nil {
		respondError(c, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type patchTaskBody struct {
	Title            *string   `json:"title"`
	Priority         *string   `json:"priority"`
	Tags             *[]string `json:"tags"`
	Domain           *string   `json:"domain"`
	Due              *string   `json:"due"`        // "" clears
	StartDate        *string   `json:"start_date"` // "" clears
	StartTime        *string   `json:"start_time"`
	EndTime          *string   `json:"end_time"`
	EstimatedMinutes *int      `json:"estimated_minutes"`
	Note             *string   `json:"note"`
	Completed        *bool     `json:"completed"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var body patchTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	patch := db.TaskPatch{
		Title:            body.Title,
		Priority:         body.Priority,
		Tags:             body.Tags,
		Domain:           body.Domain,
		StartTime:        body.StartTime,
		EndTime:          body.EndTime,
		EstimatedMinutes: body.EstimatedMinutes,
		Note:             body.Note,
		Completed:        body.Completed,
	}
	if body.Due != nil {
		due, err := parseDateField(*body.Due, parser.ParseDueDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		patch.DueDate, patch.ClearDue = due, due == nil
	}
	if body.StartDate != nil {
		start, err := parseDateField(*body.StartDate, parser.ParseStartDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		patch.StartDate, patch.ClearStartDate = start, start == nil
	}

	task, err := db.UpdateTask(id, patch)
	if err != nil {
		respondError(c, statusFor(err, http.StatusBadRequest), err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := db.DeleteTask(id)
	if err != nil {
		respondError(c, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleRestoreTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := db.RestoreTask(id)
	if err != nil {
		respondError(c, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Sub-tasks

type subTaskBody struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
	Position  *int    `json:"position"`
}

func (s *Server) handleAddSubTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	var body subTaskBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Title == nil {
		respondError(c, http.StatusBadRequest, errors.New("title is required"))
		return
	}
	st, err := db.AddSubTask(id, *body.Title)
	if err != nil {
		respondError(c, statusFor(err, http.StatusBadRequest), err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (s *Server) handleUpdateSubTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	pos, ok := subTaskPos(c)
	if !ok {
		return
	}
	var body subTaskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := db.GetTaskByID(id)
	if err != nil {
		respondError(c, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	if pos >= len(task.SubTasks) {
		respondError(c, http.StatusNotFound, db.ErrSubTaskNotFound)
		return
	}

	if body.Title != nil {
		if _, err := db.RenameSubTask(id, pos, *body.Title); err != nil {
			respondError(c, statusFor(err, http.StatusBadRequest), err)
			return
		}
	}
	if body.Completed != nil && *body.Completed != task.SubTasks[pos].Completed {
		if _, err := db.ToggleSubTask(id, pos); err != nil {
			respondError(c, statusFor(err, http.StatusInternalServerError), err)
			return
		}
	}
	if body.Position != nil && *body.Position != pos {
		if err := db.MoveSubTask(id, pos, *body.Position); err != nil {
			respondError(c, statusFor(err, http.StatusBadRequest), err)
			return
		}
	}

	task, err = db.GetTaskByID(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteSubTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	pos, ok := subTaskPos(c)
	if !ok {
		return
	}
	if err := db.RemoveSubTask(id, pos); err != nil {
		respondError(c, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Sessions, stats and calendar

func (s *Server) handleSessions(c *gin.Context) {
	limit := defaultSessionLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSessionLimit {
			respondError(c, http.StatusBadRequest, errors.New("limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	sessions, err := db.GetSessions(limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

func (s *Server) handleStats(c *gin.Context) {
	st, err := db.RefreshStats(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type calendarDay struct {
	stats.Day
	Due []models.Task `json:"due"`
}

func (s *Server) handleCalendar(c *gin.Context) {
	now := time.Now()
	month := c.DefaultQuery("month", now.Format("2006-01"))
	first, last, err := stats.MonthBounds(month, now.Location())
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	sessions, err := db.GetSessionsInRange(first, last.AddDate(0, 0, 1))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	due, err := db.GetTasksDueBetween(first, last)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	daily := stats.DailyFocus(sessions, first, last)
	days := make([]calendarDay, len(daily))
	for i, d := range daily {
		days[i] = calendarDay{Day: d, Due: []models.Task{}}
	}
	for _, t := range due {
		i := t.Due.In(first.Location()).Day() - 1
		if i >= 0 && i < len(days) {
			days[i].Due = append(days[i].Due, t)
		}
	}

	c.JSON(http.StatusOK, gin.H{"month": month, "days": days})
}

// helpers

func taskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, errors.New("invalid task id"))
		return 0, false
	}
	return uint(id), true
}

func subTaskPos(c *gin.Context) (int, bool) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil || pos < 0 {
		respondError(c, http.StatusBadRequest, errors.New("invalid sub-task position"))
		return 0, false
	}
	return pos, true
}

// parseDateField accepts RFC 3339 or anything the title parser accepts
func parseDateField(v string, parse func(string) (*time.Time, error)) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	return parse(v)
}

func statusFor(err error, fallback int) int {
	if errors.Is(err, db.ErrTaskNotFound) || errors.Is(err, db.ErrSubTaskNotFound) {
		return http.StatusNotFound
	}
	return fallback
}

func respondError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
