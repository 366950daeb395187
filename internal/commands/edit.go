package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/parser"
)

var editCmd = &cobra.Command{
	Use:   "edit <task_id>",
	Short: "Edit an existing task",
	Long: `Edit fields of an existing task. Only the flags you pass are changed.

Usage:
  tomate edit 42 --title "New title"
  tomate edit 42 --priority high --due tomorrow
  tomate edit 42 --due none --domain ""   - Clear the due date and domain
  tomate edit 42                          - Show the task`,
	Args: cobra.ExactArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		patch, changed, err := taskPatch(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if !changed {
			task, err := db.GetTaskByID(taskID)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			fmt.Printf("Task #%d: %s\n", task.ID, task.Title)
			printTaskDetails(task)
			return
		}

		task, err := db.UpdateTask(taskID, patch)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("✏️  Updated task #%d: %s\n", task.ID, task.Title)
		printTaskDetails(task)
	}),
}

// taskPatch builds a partial update from the flags that were set
func taskPatch(cmd *cobra.Command) (db.TaskPatch, bool, error) {
	var patch db.TaskPatch
	flags := cmd.Flags()
	changed := false

	str := func(name string) (*string, bool) {
		if !flags.Changed(name) {
			return nil, false
		}
		v, _ := flags.GetString(name)
		changed = true
		return &v, true
	}

	patch.Title, _ = str("title")
	patch.Priority, _ = str("priority")
	patch.Domain, _ = str("domain")
	patch.Note, _ = str("note")

	if flags.Changed("tags") {
		tags, _ := flags.GetStringSlice("tags")
		patch.Tags = &tags
		changed = true
	}

	if v, ok := str("due"); ok {
		if isClear(*v) {
			patch.ClearDue = true
		} else {
			due, err := parser.ParseDueDate(*v)
			if err != nil {
				return patch, false, fmt.Errorf("invalid due date: %w", err)
			}
			patch.DueDate = due
		}
	}

	if v, ok := str("start"); ok {
		if isClear(*v) {
			patch.ClearStartDate = true
		} else {
			start, err := parser.ParseStartDate(*v)
			if err != nil {
				return patch, false, fmt.Errorf("invalid start date: %w", err)
			}
			patch.StartDate = start
		}
	}

	if v, ok := str("time"); ok {
		start, end := "", ""
		if !isClear(*v) {
			var err error
			if start, end, err = parser.ParseTimeBlock(*v); err != nil {
				return patch, false, err
			}
		}
		patch.StartTime, patch.EndTime = &start, &end
	}

	if v, ok := str("estimate"); ok {
		est := 0
		if !isClear(*v) {
			var err error
			if est, err = parser.ParseEstimate(*v); err != nil {
				return patch, false, fmt.Errorf("invalid estimate: %w", err)
			}
		}
		patch.EstimatedMinutes = &est
	}

	return patch, changed, nil
}

func isClear(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || v == "none"
}

func addEditFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("priority", "p", "", "Priority: low, medium, high, 1-3 or none")
	cmd.Flags().StringSliceP("tags", "t", []string{}, "Replace tags (comma-separated)")
	cmd.Flags().StringP("domain", "d", "", "Domain or domain/subdomain, empty to clear")
	cmd.Flags().String("due", "", "Due date, or none to clear")
	cmd.Flags().String("start", "", "Start date, or none to clear")
	cmd.Flags().String("time", "", "Time block like 10:00-11:30, or none to clear")
	cmd.Flags().StringP("estimate", "e", "", "Estimate like 25m or 1h30m, or none to clear")
	cmd.Flags().String("note", "", "Notes")
}

func init() {
	addEditFlags(editCmd)
}
