package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/parser"
	"github.com/balkashynov/tomate/internal/tui"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List tasks",
	Long: `List tasks with optional filters for status, tags, domain, priority and due date.

Opens the interactive list by default; use --no-ui for plain output.

Examples:
  tomate ls --status todo --order "priority DESC"
  tomate ls --domain job --tags urgent --no-ui
  tomate ls --due today`,
	Run: withDB(func(cmd *cobra.Command, args []string) {
		opts, err := queryOptions(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		tasks, err := db.GetTasks(opts)
		if err != nil {
			fmt.Printf("Error fetching tasks: %v\n", err)
			return
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		switch {
		case jsonOutput:
			renderJSON(tasks)
		case noUI:
			if len(tasks) == 0 {
				fmt.Println("No tasks found. Use 'tomate add \"task description\"' to create your first task.")
				return
			}
			renderTaskTable(tasks)
		default:
			focusID, err := tui.RunListTUI(tasks, opts)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			if focusID != 0 {
				runFocus(&focusID)
			}
		}
	}),
}

// queryOptions reads the shared filter flags of ls and search
func queryOptions(cmd *cobra.Command) (db.TaskQueryOptions, error) {
	flags := cmd.Flags()
	opts := db.TaskQueryOptions{}
	opts.Status, _ = flags.GetString("status")
	opts.Tags, _ = flags.GetStringSlice("tags")
	opts.Domain, _ = flags.GetString("domain")
	opts.Priority, _ = flags.GetString("priority")
	opts.OrderBy, _ = flags.GetString("order")
	opts.Limit, _ = flags.GetInt("limit")

	if due, _ := flags.GetString("due"); due != "" {
		day, err := parser.ParseStartDate(due)
		if err != nil {
			return opts, fmt.Errorf("invalid due filter: %w", err)
		}
		opts.DueOn = day
	}
	return opts, nil
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", "", "Filter by status: todo, done")
	cmd.Flags().StringSliceP("tags", "t", []string{}, "Filter by tags (any of)")
	cmd.Flags().StringP("domain", "d", "", "Filter by domain or domain/subdomain")
	cmd.Flags().StringP("priority", "p", "", "Filter by priority (low/medium/high)")
	cmd.Flags().String("due", "", "Tasks due on a day: today, tomorrow, dd/mm/yyyy")
	cmd.Flags().StringP("order", "o", "", "Order by (e.g. 'priority DESC', 'due ASC')")
	cmd.Flags().IntP("limit", "l", 0, "Limit number of results")
	cmd.Flags().Bool("json", false, "Output as JSON")
}

// renderTaskTable prints tasks as a fixed-width table for 80 column terminals
func renderTaskTable(tasks []models.Task) {
	fmt.Printf("%-5s %-2s %-32s %-14s %-6s %-5s %s\n", "ID", "", "TITLE", "DOMAIN", "PRIO", "LIST", "DUE")
	fmt.Println(strings.Repeat("-", 80))

	for _, task := range tasks {
		mark := "○"
		if task.Completed {
			mark = "✓"
		}

		checklist := "-"
		if done, total := task.SubTaskProgress(); total > 0 {
			checklist = fmt.Sprintf("%d/%d", done, total)
		}

		due := "-"
		if task.Due != nil {
			due = humanize.Time(*task.Due)
		}

		fmt.Printf("%-5s %-2s %-32s %-14s %-6s %-5s %s\n",
			fmt.Sprintf("#%d", task.ID),
			mark,
			clip(task.Title, 32),
			clip(task.Domain.Path(), 14),
			task.PriorityLabel(),
			checklist,
			due)
	}
}

// renderJSON prints tasks with their relations as indented JSON
func renderJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func init() {
	addQueryFlags(listCmd)
	listCmd.Flags().Bool("no-ui", false, "Plain text output")
}
