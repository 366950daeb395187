package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dateRegex     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(h|hour|hours|d|day|days|w|week|weeks)$`)
	clockRegex    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	estimateRegex = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?$`)
)

// now is replaced in tests
var now = time.Now

// ParseDueDate parses various due date formats. Calendar dates resolve to
// the end of that day.
// Supported formats:
// - dd/mm/yyyy (e.g., "15/12/2024")
// - today, tomorrow
// - X days (e.g., "3 days", "3days", "3d")
// - X hours (e.g., "24 hours", "24h")
// - X weeks (e.g., "2 weeks", "2w")
func ParseDueDate(input string) (*time.Time, error) {
	return parseDate(input, true)
}

// ParseStartDate accepts the same formats as ParseDueDate but resolves
// calendar dates to the start of the day
func ParseStartDate(input string) (*time.Time, error) {
	return parseDate(input, false)
}

func parseDate(input string, endOfDay bool) (*time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil, nil
	}

	today := startOfDay(now())
	var day time.Time

	switch input {
	case "today":
		day = today
	case "tomorrow":
		day = today.AddDate(0, 0, 1)
	default:
		if d, err := parseDateFormat(input); err == nil {
			day = d
		} else if t, isDay, err := parseRelativeTime(input, today); err == nil {
			if !isDay {
				return &t, nil
			}
			day = t
		} else {
			return nil, fmt.Errorf("invalid date format. Use: dd/mm/yyyy, today, tomorrow, X days, X hours, or X weeks")
		}
	}

	if endOfDay {
		day = day.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return &day, nil
}

// parseDateFormat parses dd/mm/yyyy format
func parseDateFormat(input string) (time.Time, error) {
	matches := dateRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return time.Time{}, fmt.Errorf("invalid date format")
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 2000 and 2100")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)

	// time.Date normalizes 31/02 into March; reject that
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid date")
	}

	return date, nil
}

// parseRelativeTime handles "3 days", "24h", "2w". isDay is false for
// hour offsets, which keep their exact time.
func parseRelativeTime(input string, today time.Time) (t time.Time, isDay bool, err error) {
	matches := relativeRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return time.Time{}, false, fmt.Errorf("invalid relative time format")
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid number")
	}

	switch matches[2] {
	case "h", "hour", "hours":
		if amount < 1 || amount > 8760 { // Max 1 year in hours
			return time.Time{}, false, fmt.Errorf("hours must be between 1 and 8760")
		}
		return now().Add(time.Duration(amount) * time.Hour), false, nil
	case "d", "day", "days":
		if amount < 1 || amount > 365 {
			return time.Time{}, false, fmt.Errorf("days must be between 1 and 365")
		}
		return today.AddDate(0, 0, amount), true, nil
	default:
		if amount < 1 || amount > 52 {
			return time.Time{}, false, fmt.Errorf("weeks must be between 1 and 52")
		}
		return today.AddDate(0, 0, amount*7), true, nil
	}
}

// ParseClock validates a 24h "H:MM" or "HH:MM" time and returns "HH:MM"
func ParseClock(input string) (string, error) {
	matches := clockRegex.FindStringSubmatch(strings.TrimSpace(input))
	if len(matches) != 3 {
		return "", fmt.Errorf("invalid time %q. Use HH:MM", input)
	}
	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("invalid time %q", input)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// ParseTimeBlock parses "10:00-11:30" into its start and end times
func ParseTimeBlock(input string) (start, end string, err error) {
	parts := strings.Split(strings.TrimSpace(input), "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid time block %q. Use HH:MM-HH:MM", input)
	}
	if start, err = ParseClock(parts[0]); err != nil {
		return "", "", err
	}
	if end, err = ParseClock(parts[1]); err != nil {
		return "", "", err
	}
	if end <= start {
		return "", "", fmt.Errorf("time block %q ends before it starts", input)
	}
	return start, end, nil
}

// ParseEstimate parses a duration estimate into minutes: "25m", "2h",
// "1h30m" or a bare number of minutes
func ParseEstimate(input string) (int, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("estimate must not be negative")
		}
		return n, nil
	}

	matches := estimateRegex.FindStringSubmatch(input)
	if matches == nil || (matches[1] == "" && matches[2] == "") {
		return 0, fmt.Errorf("invalid estimate %q. Use 25m, 2h or 1h30m", input)
	}
	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	return hours*60 + minutes, nil
}

// FormatDueDate formats a due date for display
func FormatDueDate(dueDate *time.Time) string {
	if dueDate == nil {
		return ""
	}

	today := startOfDay(now())
	dueDay := startOfDay(*dueDate)
	daysDiff := int(dueDay.Sub(today).Hours() / 24)

	// Always show the actual date to avoid confusion
	dateStr := dueDate.Format("02/01/2006")

	switch {
	case daysDiff < 0:
		return fmt.Sprintf("⚠️ OVERDUE (%s)", dateStr)
	case daysDiff == 0:
		return fmt.Sprintf("🔥 Due today (%s)", dateStr)
	case daysDiff == 1:
		return fmt.Sprintf("📅 Due tomorrow (%s)", dateStr)
	case daysDiff <= 7:
		return fmt.Sprintf("📅 Due %s (in %d days)", dateStr, daysDiff)
	default:
		return fmt.Sprintf("📅 Due %s", dateStr)
	}
}

// FormatEstimate renders minutes as "1h30m" / "25m"
func FormatEstimate(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
