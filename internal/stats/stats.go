// Package stats derives aggregate counters, streaks and per-day focus time
// from the recorded session history.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/balkashynov/tomate/internal/models"
)

const dayLayout = "2006-01-02"

// TaskCounts is the task side of the aggregate
type TaskCounts struct {
	Total     int
	Completed int
}

// Day is the focus summary of one calendar day
type Day struct {
	Date          time.Time `json:"date"`
	FocusSeconds  int64     `json:"focus_seconds"`
	WorkSessions  int       `json:"work_sessions"`
	BreakSessions int       `json:"break_sessions"`
}

// Compute recomputes the aggregate counters. Days are calendar days in the
// location of now.
func Compute(sessions []models.PomodoroSession, tasks TaskCounts, now time.Time) models.Stats {
	st := models.Stats{
		TotalTasks:     tasks.Total,
		CompletedTasks: tasks.Completed,
		TotalSessions:  len(sessions),
		ComputedAt:     now,
	}

	loc := now.Location()
	today := dayKey(now, loc)
	for _, s := range sessions {
		if !s.IsFocus() {
			continue
		}
		st.TotalFocusSeconds += int64(s.DurationSeconds)
		if dayKey(s.CompletedAt, loc) == today {
			st.TodayFocusSeconds += int64(s.DurationSeconds)
		}
	}

	days := ActiveDays(sessions, loc)
	st.CurrentStreak = Streak(days, now)
	st.LongestStreak = LongestStreak(days)
	return st
}

// ActiveDays returns the set of calendar days (YYYY-MM-DD in loc) with at
// least one completed work session
func ActiveDays(sessions []models.PomodoroSession, loc *time.Location) map[string]struct{} {
	days := make(map[string]struct{})
	for _, s := range sessions {
		if s.IsFocus() {
			days[dayKey(s.CompletedAt, loc)] = struct{}{}
		}
	}
	return days
}

// Streak counts consecutive active days ending today. A day without a
// session yet does not break the streak until it is over, so counting
// starts from yesterday when today is still empty.
func Streak(days map[string]struct{}, today time.Time) int {
	loc := today.Location()
	d := startOfDay(today)
	if _, ok := days[dayKey(d, loc)]; !ok {
		d = d.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := days[dayKey(d, loc)]; !ok {
			return streak
		}
		streak++
		d = d.AddDate(0, 0, -1)
	}
}

// LongestStreak returns the longest run of consecutive active days
func LongestStreak(days map[string]struct{}) int {
	if len(days) == 0 {
		return 0
	}

	dates := make([]time.Time, 0, len(days))
	for key := range days {
		d, err := time.Parse(dayLayout, key)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	longest, run := 0, 0
	for i, d := range dates {
		if i > 0 && dates[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// DailyFocus buckets sessions into the calendar days from..to inclusive.
// Every day in the range is present, empty ones with zero values.
func DailyFocus(sessions []models.PomodoroSession, from, to time.Time) []Day {
	loc := from.Location()
	start := startOfDay(from)
	end := startOfDay(to.In(loc))
	if end.Before(start) {
		return nil
	}

	var days []Day
	index := make(map[string]int)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		index[dayKey(d, loc)] = len(days)
		days = append(days, Day{Date: d})
	}

	for _, s := range sessions {
		i, ok := index[dayKey(s.CompletedAt, loc)]
		if !ok || !s.Completed {
			continue
		}
		if s.Type == models.SessionWork {
			days[i].WorkSessions++
			days[i].FocusSeconds += int64(s.DurationSeconds)
		} else {
			days[i].BreakSessions++
		}
	}
	return days
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthBounds returns the first and last day of month ("YYYY-MM") in loc
func MonthBounds(month string, loc *time.Location) (first, last time.Time, err error) {
	t, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, use YYYY-MM", month)
	}
	return t, t.AddDate(0, 1, -1), nil
}

// WeekBounds returns the Monday and Sunday of the week containing t
func WeekBounds(t time.Time) (monday, sunday time.Time) {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	monday = d.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}
