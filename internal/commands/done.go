package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		task, err := db.MarkTaskDone(taskID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Marked task #%d as done: %s\n", task.ID, task.Title)
		if task.CompletedAt != nil {
			fmt.Printf("Completed at: %s\n", task.CompletedAt.Format("15:04:05"))
		}
	}),
}

var undoneCmd = &cobra.Command{
	Use:   "undone [task-id]",
	Short: "Mark a completed task back to todo",
	Args:  cobra.ExactArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		task, err := db.MarkTaskUndone(taskID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("↩️  Marked task #%d back to todo: %s\n", task.ID, task.Title)
	}),
}

var rmCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task (restorable with 'tomate restore')",
	Args:    cobra.ExactArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		task, err := db.DeleteTask(taskID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("🗑️  Deleted task #%d: %s\n", task.ID, task.Title)
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore [task-id]",
	Short: "Restore a deleted task, or list deleted tasks",
	Args:  cobra.MaximumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			tasks, err := db.GetDeletedTasks()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			if len(tasks) == 0 {
				fmt.Println("No deleted tasks.")
				return
			}
			for _, t := range tasks {
				fmt.Printf("#%-4d %s\n", t.ID, t.Title)
			}
			return
		}

		taskID, err := parseTaskID(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		task, err := db.RestoreTask(taskID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("📤 Restored task #%d: %s\n", task.ID, task.Title)
	}),
}
