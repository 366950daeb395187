package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/parser"
	"github.com/balkashynov/tomate/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show focus time, task counts and streaks",
	Run: withDB(func(cmd *cobra.Command, args []string) {
		st, err := db.RefreshStats(time.Now())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			renderJSON(st)
			return
		}

		fmt.Println("🍅 tomate stats")
		fmt.Println(strings.Repeat("-", 40))
		fmt.Printf("%-18s %s\n", "Focus today:", focusLabel(st.TodayFocusSeconds))
		fmt.Printf("%-18s %s\n", "Focus total:", focusLabel(st.TotalFocusSeconds))
		fmt.Printf("%-18s %s\n", "Sessions:", humanize.Comma(int64(st.TotalSessions)))
		fmt.Printf("%-18s %d/%d done\n", "Tasks:", st.CompletedTasks, st.TotalTasks)
		fmt.Printf("%-18s %s\n", "Current streak:", dayCount(st.CurrentStreak))
		fmt.Printf("%-18s %s\n", "Longest streak:", dayCount(st.LongestStreak))
	}),
}

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show this week's focus time per task",
	Long: `Show a weekly timesheet of focus time grouped by task and day.

Example output:
  Task                  Mon    Tue    Wed    Thu    Fri   Total
  #3 Write report     50m  1h15m      -      -      -   2h05m
  (no task)           25m      -    25m      -      -     50m
  Total               1h15m  1h15m  25m      -      -   2h55m`,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		back, _ := cmd.Flags().GetInt("back")
		if err := showWeek(time.Now().AddDate(0, 0, -7*back)); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}

var calendarCmd = &cobra.Command{
	Use:     "calendar [YYYY-MM]",
	Aliases: []string{"cal"},
	Short:   "Show a month with focus sessions and due tasks",
	Args:    cobra.MaximumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		month := time.Now().Format("2006-01")
		if len(args) == 1 {
			month = args[0]
		}
		if err := showCalendar(month); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}

// showWeek prints the timesheet for the Monday to Sunday week containing t
func showWeek(t time.Time) error {
	monday, sunday := stats.WeekBounds(t)
	sessions, err := db.GetSessionsInRange(monday, sunday.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to get sessions: %w", err)
	}

	type row struct {
		key   string
		id    uint
		days  [7]int64
		total int64
	}
	rows := make(map[string]*row)
	var totals [7]int64
	var grand int64

	for _, s := range sessions {
		if !s.IsFocus() {
			continue
		}
		key, id := "(no task)", uint(0)
		if s.Task != nil {
			key, id = fmt.Sprintf("#%d %s", s.Task.ID, s.Task.Title), s.Task.ID
		}
		r, ok := rows[key]
		if !ok {
			r = &row{key: key, id: id}
			rows[key] = r
		}
		day := (int(s.CompletedAt.In(monday.Location()).Weekday()) + 6) % 7
		secs := int64(s.DurationSeconds)
		r.days[day] += secs
		r.total += secs
		totals[day] += secs
		grand += secs
	}

	if len(rows) == 0 {
		fmt.Println("No focus time this week.")
		return nil
	}

	sorted := make([]*row, 0, len(rows))
	for _, r := range rows {
		sorted = append(sorted, r)
	}
	// tasks by id, sessions without a task last
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if (a.id == 0) != (b.id == 0) {
			return b.id == 0
		}
		return a.id < b.id
	})

	nameWidth := 20
	for _, r := range sorted {
		nameWidth = max(nameWidth, len([]rune(r.key)))
	}
	nameWidth = min(nameWidth, 40)

	const colWidth = 7
	dayNames := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

	fmt.Printf("%-*s", nameWidth, "Task")
	for _, d := range dayNames {
		fmt.Printf(" %*s", colWidth, d)
	}
	fmt.Printf(" %*s\n", colWidth, "Total")
	fmt.Println(strings.Repeat("-", nameWidth+8*(colWidth+1)))

	for _, r := range sorted {
		fmt.Printf("%-*s", nameWidth, clip(r.key, nameWidth))
		for _, secs := range r.days {
			fmt.Printf(" %*s", colWidth, minutesCell(secs))
		}
		fmt.Printf(" %*s\n", colWidth, minutesCell(r.total))
	}

	fmt.Println(strings.Repeat("-", nameWidth+8*(colWidth+1)))
	fmt.Printf("%-*s", nameWidth, "Total")
	for _, secs := range totals {
		fmt.Printf(" %*s", colWidth, minutesCell(secs))
	}
	fmt.Printf(" %*s\n", colWidth, minutesCell(grand))

	fmt.Printf("\nWeek of %s to %s\n", monday.Format("Jan 2"), sunday.Format("Jan 2, 2006"))
	return nil
}

// showCalendar prints a month grid; each day shows its completed
// pomodoros, and days with tasks due are marked with '!'
func showCalendar(month string) error {
	now := time.Now()
	first, last, err := stats.MonthBounds(month, now.Location())
	if err != nil {
		return err
	}

	sessions, err := db.GetSessionsInRange(first, last.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to get sessions: %w", err)
	}
	due, err := db.GetTasksDueBetween(first, last)
	if err != nil {
		return fmt.Errorf("failed to get due tasks: %w", err)
	}

	days := stats.DailyFocus(sessions, first, last)
	dueByDay := make(map[int][]models.Task)
	for _, t := range due {
		d := t.Due.In(first.Location()).Day()
		dueByDay[d] = append(dueByDay[d], t)
	}

	fmt.Printf("%s\n\n", first.Format("January 2006"))
	fmt.Println("  Mon    Tue    Wed    Thu    Fri    Sat    Sun")

	var b strings.Builder
	offset := (int(first.Weekday()) + 6) % 7
	b.WriteString(strings.Repeat("       ", offset))
	for i, d := range days {
		day := i + 1
		cell := fmt.Sprintf("%3d", day)
		if d.WorkSessions > 0 {
			cell += fmt.Sprintf("·%d", d.WorkSessions)
		}
		if len(dueByDay[day]) > 0 {
			cell += "!"
		}
		if d.Date.Format("2006-01-02") == now.Format("2006-01-02") {
			cell = strings.Replace(cell, fmt.Sprintf("%3d", day), fmt.Sprintf("[%d]", day), 1)
		}
		fmt.Fprintf(&b, "%-7s", cell)
		if (offset+i)%7 == 6 {
			b.WriteString("\n")
		}
	}
	fmt.Println(strings.TrimRight(b.String(), " \n"))

	var focus int64
	var pomodoros int
	for _, d := range days {
		focus += d.FocusSeconds
		pomodoros += d.WorkSessions
	}
	fmt.Printf("\n🍅 %d pomodoros, %s focus\n", pomodoros, focusLabel(focus))

	if len(due) > 0 {
		fmt.Println("\nDue this month:")
		for _, t := range due {
			mark := "○"
			if t.Completed {
				mark = "✓"
			}
			fmt.Printf("  %s %s #%d %s\n", t.Due.Format("02 Mon"), mark, t.ID, t.Title)
		}
	}
	return nil
}

func focusLabel(secs int64) string {
	if secs == 0 {
		return "0m"
	}
	return parser.FormatEstimate(int((secs + 59) / 60))
}

func minutesCell(secs int64) string {
	if secs == 0 {
		return "-"
	}
	return focusLabel(secs)
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func init() {
	statsCmd.Flags().Bool("json", false, "Output as JSON")
	weekCmd.Flags().IntP("back", "b", 0, "Show the week N weeks ago")
}
