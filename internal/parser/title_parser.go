package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ParsedTask represents a task parsed from natural language
type ParsedTask struct {
	Title            string
	Domain           string // "domain" or "domain/subdomain"
	Tags             []string
	Priority         string
	DueDate          *time.Time
	StartDate        *time.Time
	StartTime        string
	EndTime          string
	EstimatedMinutes int
	Errors           []string
}

var (
	tagRegex       = regexp.MustCompile(`#([a-zA-Z0-9_,-]+)`)
	domainRegex    = regexp.MustCompile(`@([a-zA-Z0-9_/-]+)`)
	priorityRegex  = regexp.MustCompile(`(?:^|\s)\+([a-zA-Z0-9]+)`)
	dueRegex       = regexp.MustCompile(`due:([^\s]+)`)
	startRegex     = regexp.MustCompile(`start:([^\s]+)`)
	estRegex       = regexp.MustCompile(`(?:^|\s)~([0-9hm]+)`)
	timeBlockRegex = regexp.MustCompile(`\b(\d{1,2}:\d{2}-\d{1,2}:\d{2})\b`)
)

// ParseTitle extracts metadata from a task title using natural syntax
// Syntax: "Task title #tag1,tag2 @domain/sub +priority due:3days start:today ~25m 10:00-11:30"
func ParseTitle(input string) ParsedTask {
	result := ParsedTask{
		Tags:   []string{},
		Errors: []string{},
	}

	// Extract tags (#tag1,tag2 or #tag1 #tag2)
	for _, match := range tagRegex.FindAllStringSubmatch(input, -1) {
		for _, tag := range strings.Split(match[1], ",") {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				result.Tags = append(result.Tags, tag)
			}
		}
	}
	input = tagRegex.ReplaceAllString(input, "")

	// Extract domain (@domain or @domain/sub)
	if m := domainRegex.FindStringSubmatch(input); len(m) > 1 {
		domain, sub, err := ParseDomainPath(m[1])
		if err != nil {
			result.Errors = append(result.Errors, "Invalid domain '"+m[1]+"': "+err.Error())
		} else if sub != "" {
			result.Domain = domain + "/" + sub
		} else {
			result.Domain = domain
		}
		input = domainRegex.ReplaceAllString(input, "")
	}

	// Extract priority (+high, +3, +medium, etc.)
	if m := priorityRegex.FindStringSubmatch(input); len(m) > 1 {
		priority := strings.ToLower(m[1])
		if isValidPriority(priority) {
			result.Priority = NormalizePriority(priority)
		} else {
			result.Errors = append(result.Errors, "Invalid priority '"+m[1]+"'. Use: low, medium, high, 1, 2, or 3")
		}
		input = priorityRegex.ReplaceAllString(input, " ")
	}

	// Extract due date (due:3days, due:15/12/2024, etc.)
	if m := dueRegex.FindStringSubmatch(input); len(m) > 1 {
		dueDate, err := ParseDueDate(m[1])
		if err != nil {
			result.Errors = append(result.Errors, "Invalid due date '"+m[1]+"': "+err.Error())
		} else {
			result.DueDate = dueDate
		}
		input = dueRegex.ReplaceAllString(input, "")
	}

	if m := startRegex.FindStringSubmatch(input); len(m) > 1 {
		startDate, err := ParseStartDate(m[1])
		if err != nil {
			result.Errors = append(result.Errors, "Invalid start date '"+m[1]+"': "+err.Error())
		} else {
			result.StartDate = startDate
		}
		input = startRegex.ReplaceAllString(input, "")
	}

	// Extract estimate (~25m, ~1h30m)
	if m := estRegex.FindStringSubmatch(input); len(m) > 1 {
		minutes, err := ParseEstimate(m[1])
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.EstimatedMinutes = minutes
		}
		input = estRegex.ReplaceAllString(input, " ")
	}

	// Extract time block (10:00-11:30)
	if m := timeBlockRegex.FindStringSubmatch(input); len(m) > 1 {
		start, end, err := ParseTimeBlock(m[1])
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.StartTime, result.EndTime = start, end
		}
		input = timeBlockRegex.ReplaceAllString(input, "")
	}

	// Clean up the title (remove extra spaces)
	result.Title = strings.Join(strings.Fields(input), " ")

	return result
}

// isValidPriority checks if a priority value is valid
func isValidPriority(priority string) bool {
	validPriorities := map[string]bool{
		"low":    true,
		"medium": true,
		"med":    true,
		"high":   true,
		"1":      true,
		"2":      true,
		"3":      true,
	}
	return validPriorities[priority]
}

// NormalizePriority converts priority to standard form
func NormalizePriority(priority string) string {
	priority = strings.ToLower(strings.TrimSpace(priority))
	switch priority {
	case "1", "low":
		return "low"
	case "2", "medium", "med":
		return "medium"
	case "3", "high":
		return "high"
	default:
		return ""
	}
}

// ParsePriority converts a priority string to its stored level.
// An empty string or "none" means no priority (0).
func ParsePriority(priority string) (int, error) {
	p := strings.ToLower(strings.TrimSpace(priority))
	if p == "" || p == "none" || p == "0" {
		return 0, nil
	}
	if !isValidPriority(p) {
		return 0, fmt.Errorf("invalid priority '%s'. Use: low, medium, high, 1, 2, or 3", priority)
	}
	switch NormalizePriority(p) {
	case "low":
		return 1, nil
	case "medium":
		return 2, nil
	default:
		return 3, nil
	}
}
