package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/parser"
	"github.com/balkashynov/tomate/internal/tui"
)

var addCmd = &cobra.Command{
	Use:   "add [task description]",
	Short: "Add a new task",
	Long: `Add a new task with optional metadata.

Modes:
  Interactive: tomate add -i (or just 'tomate add' with no arguments)
  Quick: tomate add "Task title" (with optional flags)
  Smart parsing: tomate add "Write report #work @job/reports +high due:2d ~1h30m"

Smart parsing syntax:
  #tag1,tag2    - Tags (comma-separated or individual)
  @domain/sub   - Domain and optional sub-domain
  +priority     - Priority (low/medium/high or 1/2/3)
  due:3d        - Due date (today, tomorrow, dd/mm/yyyy, Nd, Nh, Nw)
  start:today   - Start date
  ~25m          - Time estimate (25m, 2h, 1h30m)
  10:00-11:30   - Time block`,
	Args: cobra.ArbitraryArgs,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		interactive, _ := cmd.Flags().GetBool("interactive")
		if len(args) == 0 {
			interactive = true
		}

		if interactive {
			prefilled := make(map[string]string)
			if len(args) > 0 {
				prefilled["title"] = strings.Join(args, " ")
			}
			runInteractiveAdd(cmd, prefilled)
			return
		}

		parsed := parser.ParseTitle(strings.Join(args, " "))
		if len(parsed.Errors) > 0 {
			fmt.Printf("⚠️  Found issues with parsing: %s\n", strings.Join(parsed.Errors, ", "))
			fmt.Println("Opening interactive mode for confirmation...")
			runInteractiveAdd(cmd, prefillFromParsed(parsed))
			return
		}
		runDirectAdd(cmd, parsed)
	}),
}

// prefillFromParsed converts parsed metadata into wizard inputs
func prefillFromParsed(parsed parser.ParsedTask) map[string]string {
	prefilled := map[string]string{"title": parsed.Title}
	if parsed.Domain != "" {
		prefilled["domain"] = parsed.Domain
	}
	if len(parsed.Tags) > 0 {
		prefilled["tags"] = strings.Join(parsed.Tags, ", ")
	}
	if parsed.Priority != "" {
		prefilled["priority"] = parsed.Priority
	}
	if parsed.DueDate != nil {
		prefilled["due"] = parsed.DueDate.Format("02/01/2006")
	}
	if parsed.EstimatedMinutes > 0 {
		prefilled["estimate"] = parser.FormatEstimate(parsed.EstimatedMinutes)
	}
	return prefilled
}

// runInteractiveAdd starts the wizard; explicit flags override prefilled values
func runInteractiveAdd(cmd *cobra.Command, prefilled map[string]string) {
	for flag, key := range map[string]string{
		"domain":   "domain",
		"priority": "priority",
		"due":      "due",
		"estimate": "estimate",
		"note":     "notes",
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			prefilled[key] = v
		}
	}
	if tags, _ := cmd.Flags().GetStringSlice("tags"); len(tags) > 0 {
		prefilled["tags"] = strings.Join(tags, ", ")
	}

	if err := tui.RunAddTaskTUI(prefilled); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

// addRequest merges parsed metadata with flags; flags take precedence
func addRequest(cmd *cobra.Command, parsed parser.ParsedTask) (db.CreateTaskRequest, error) {
	req := db.CreateTaskRequest{
		Title:            parsed.Title,
		Domain:           parsed.Domain,
		Tags:             parsed.Tags,
		Priority:         parsed.Priority,
		DueDate:          parsed.DueDate,
		StartDate:        parsed.StartDate,
		StartTime:        parsed.StartTime,
		EndTime:          parsed.EndTime,
		EstimatedMinutes: parsed.EstimatedMinutes,
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("domain"); v != "" {
		req.Domain = v
	}
	if v, _ := flags.GetStringSlice("tags"); len(v) > 0 {
		req.Tags = v
	}
	if v, _ := flags.GetString("priority"); v != "" {
		req.Priority = v
	}
	if v, _ := flags.GetString("due"); v != "" {
		due, err := parser.ParseDueDate(v)
		if err != nil {
			return req, fmt.Errorf("invalid due date: %w", err)
		}
		req.DueDate = due
	}
	if v, _ := flags.GetString("start"); v != "" {
		start, err := parser.ParseStartDate(v)
		if err != nil {
			return req, fmt.Errorf("invalid start date: %w", err)
		}
		req.StartDate = start
	}
	if v, _ := flags.GetString("time"); v != "" {
		start, end, err := parser.ParseTimeBlock(v)
		if err != nil {
			return req, err
		}
		req.StartTime, req.EndTime = start, end
	}
	if v, _ := flags.GetString("estimate"); v != "" {
		est, err := parser.ParseEstimate(v)
		if err != nil {
			return req, fmt.Errorf("invalid estimate: %w", err)
		}
		req.EstimatedMinutes = est
	}
	req.Note, _ = flags.GetString("note")
	req.SubTasks, _ = flags.GetStringArray("sub")
	return req, nil
}

// runDirectAdd creates task directly without TUI
func runDirectAdd(cmd *cobra.Command, parsed parser.ParsedTask) {
	req, err := addRequest(cmd, parsed)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	task, err := db.CreateTask(req)
	if err != nil {
		fmt.Printf("Error creating task: %v\n", err)
		return
	}

	fmt.Printf("Created task #%d: %s\n", task.ID, task.Title)
	printTaskDetails(task)
}

// printTaskDetails prints the optional fields of a task, indented
func printTaskDetails(task *models.Task) {
	if d := task.Domain.Path(); d != "" {
		fmt.Printf("  Domain: %s\n", d)
	}
	if len(task.Tags) > 0 {
		fmt.Printf("  Tags: %s\n", strings.Join(task.TagNames(), ", "))
	}
	if p := task.PriorityLabel(); p != "" {
		fmt.Printf("  Priority: %s\n", p)
	}
	if task.Due != nil {
		fmt.Printf("  %s\n", parser.FormatDueDate(task.Due))
	}
	if task.StartDate != nil {
		fmt.Printf("  Starts: %s\n", task.StartDate.Format("02/01/2006"))
	}
	if task.StartTime != "" {
		fmt.Printf("  Block: %s-%s\n", task.StartTime, task.EndTime)
	}
	if est := parser.FormatEstimate(task.EstimatedMinutes); est != "" {
		fmt.Printf("  Estimate: %s\n", est)
	}
	if task.Note != "" {
		fmt.Printf("  Note: %s\n", task.Note)
	}
	if done, total := task.SubTaskProgress(); total > 0 {
		fmt.Printf("  Checklist: %d/%d\n", done, total)
		for _, st := range task.SubTasks {
			mark := "○"
			if st.Completed {
				mark = "✓"
			}
			fmt.Printf("    %d. %s %s\n", st.Position+1, mark, st.Title)
		}
	}
}

func addAddFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("interactive", "i", false, "Interactive mode with TUI")
	cmd.Flags().StringP("domain", "d", "", "Domain, or domain/subdomain")
	cmd.Flags().StringSliceP("tags", "t", []string{}, "Comma-separated tags")
	cmd.Flags().StringP("priority", "p", "", "Priority: low, medium, high, or 1-3")
	cmd.Flags().String("due", "", "Due date: today, tomorrow, dd/mm/yyyy, Nd, Nh, Nw")
	cmd.Flags().String("start", "", "Start date, same formats as --due")
	cmd.Flags().String("time", "", "Time block, e.g. 10:00-11:30")
	cmd.Flags().StringP("estimate", "e", "", "Estimate: 25m, 2h, 1h30m")
	cmd.Flags().String("note", "", "Additional notes")
	cmd.Flags().StringArrayP("sub", "s", []string{}, "Checklist item (repeatable)")
}

func init() {
	addAddFlags(addCmd)
}
