package stats

import (
	"testing"
	"time"

	"github.com/balkashynov/tomate/internal/models"
)

var now = time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)

func work(daysAgo int, seconds int) models.PomodoroSession {
	at := now.AddDate(0, 0, -daysAgo)
	return models.PomodoroSession{
		Type:            models.SessionWork,
		DurationSeconds: seconds,
		Completed:       true,
		StartedAt:       at.Add(-time.Duration(seconds) * time.Second),
		CompletedAt:     at,
	}
}

func rest(daysAgo int) models.PomodoroSession {
	at := now.AddDate(0, 0, -daysAgo)
	return models.PomodoroSession{
		Type:            models.SessionBreak,
		BreakKind:       models.BreakShort,
		DurationSeconds: 300,
		Completed:       true,
		StartedAt:       at.Add(-5 * time.Minute),
		CompletedAt:     at,
	}
}

func daysOf(sessions ...models.PomodoroSession) map[string]struct{} {
	return ActiveDays(sessions, time.UTC)
}

func TestStreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sessions []models.PomodoroSession
		want     int
	}{
		{"no sessions", nil, 0},
		{"today only", []models.PomodoroSession{work(0, 1500)}, 1},
		{"three days ending today", []models.PomodoroSession{work(0, 1500), work(1, 1500), work(2, 1500)}, 3},
		{"today empty keeps yesterday's run", []models.PomodoroSession{work(1, 1500), work(2, 1500)}, 2},
		{"gap breaks the run", []models.PomodoroSession{work(0, 1500), work(2, 1500), work(3, 1500)}, 1},
		{"two days ago is broken", []models.PomodoroSession{work(2, 1500), work(3, 1500)}, 0},
		{"breaks do not count", []models.PomodoroSession{work(0, 1500), rest(1), work(2, 1500)}, 1},
		{"several sessions same day", []models.PomodoroSession{work(0, 1500), work(0, 1500), work(1, 1500)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(daysOf(tt.sessions...), now); got != tt.want {
				t.Errorf("Expected streak %d, got %d", tt.want, got)
			}
		})
	}
}

func TestStreakIgnoresUncompleted(t *testing.T) {
	t.Parallel()

	s := work(0, 1500)
	s.Completed = false
	if got := Streak(daysOf(s), now); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}

func TestLongestStreak(t *testing.T) {
	t.Parallel()

	days := daysOf(work(0, 60), work(5, 60), work(6, 60), work(7, 60), work(8, 60), work(10, 60))
	if got := LongestStreak(days); got != 4 {
		t.Errorf("Expected 4, got %d", got)
	}
	if got := LongestStreak(nil); got != 0 {
		t.Errorf("Expected 0 for no days, got %d", got)
	}
}

func TestCompute(t *testing.T) {
	t.Parallel()

	sessions := []models.PomodoroSession{
		work(0, 1500),
		rest(0),
		work(0, 1500),
		work(1, 1200),
		rest(1),
	}
	st := Compute(sessions, TaskCounts{Total: 7, Completed: 3}, now)

	if st.TotalFocusSeconds != 4200 {
		t.Errorf("Expected 4200 focus seconds, got %d", st.TotalFocusSeconds)
	}
	if st.TodayFocusSeconds != 3000 {
		t.Errorf("Expected 3000 today, got %d", st.TodayFocusSeconds)
	}
	if st.TotalSessions != 5 {
		t.Errorf("Expected 5 sessions, got %d", st.TotalSessions)
	}
	if st.TotalTasks != 7 || st.CompletedTasks != 3 {
		t.Errorf("Expected 7/3 tasks, got %d/%d", st.TotalTasks, st.CompletedTasks)
	}
	if st.CurrentStreak != 2 || st.LongestStreak != 2 {
		t.Errorf("Expected streaks 2/2, got %d/%d", st.CurrentStreak, st.LongestStreak)
	}
	if !st.ComputedAt.Equal(now) {
		t.Errorf("Expected ComputedAt %v, got %v", now, st.ComputedAt)
	}
}

func TestDailyFocus(t *testing.T) {
	t.Parallel()

	sessions := []models.PomodoroSession{work(0, 1500), rest(0), work(2, 600), work(9, 1500)}
	days := DailyFocus(sessions, now.AddDate(0, 0, -3), now)

	if len(days) != 4 {
		t.Fatalf("Expected 4 days, got %d", len(days))
	}
	if days[0].FocusSeconds != 0 {
		t.Errorf("Expected empty first day, got %d", days[0].FocusSeconds)
	}
	if days[1].FocusSeconds != 600 || days[1].WorkSessions != 1 {
		t.Errorf("Expected 600s on day 2, got %+v", days[1])
	}
	if days[3].FocusSeconds != 1500 || days[3].BreakSessions != 1 {
		t.Errorf("Expected 1500s and a break today, got %+v", days[3])
	}
	if h, m, s := days[0].Date.Clock(); h+m+s != 0 {
		t.Error("Expected days to start at midnight")
	}

	if got := DailyFocus(sessions, now, now.AddDate(0, 0, -1)); got != nil {
		t.Errorf("Expected nil for reversed range, got %v", got)
	}
}

func TestMonthBounds(t *testing.T) {
	first, last, err := MonthBounds("2024-02", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if first != time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) || last != time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC) {
		t.Errorf("bounds = %v .. %v", first, last)
	}
	if _, _, err := MonthBounds("2024-13", time.UTC); err == nil {
		t.Error("expected error")
	}
}

func TestWeekBounds(t *testing.T) {
	// 2026-03-12 is a Thursday
	mon, sun := WeekBounds(now)
	if mon != time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) || sun != time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) {
		t.Errorf("week = %v .. %v", mon, sun)
	}
	sunday := time.Date(2026, 3, 15, 22, 0, 0, 0, time.UTC)
	if mon2, _ := WeekBounds(sunday); mon2 != mon {
		t.Errorf("sunday maps to %v", mon2)
	}
}
