package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
)

var subCmd = &cobra.Command{
	Use:   "sub",
	Short: "Manage the checklist of a task",
	Long: `Manage sub-tasks. Positions are 1-based, as shown by 'tomate edit <id>'.

Examples:
  tomate sub add 42 "Write outline"
  tomate sub toggle 42 1
  tomate sub mv 42 3 1`,
}

var subAddCmd = &cobra.Command{
	Use:   "add <task-id> <title>",
	Short: "Append a checklist item",
	Args:  cobra.MinimumNArgs(2),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		st, err := db.AddSubTask(taskID, strings.Join(args[1:], " "))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("➕ Added %d. %s to task #%d\n", st.Position+1, st.Title, taskID)
	}),
}

var subToggleCmd = &cobra.Command{
	Use:   "toggle <task-id> <position>",
	Short: "Check or uncheck a checklist item",
	Args:  cobra.ExactArgs(2),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, pos, err := subTaskArgs(args[0], args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		st, err := db.ToggleSubTask(taskID, pos)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		mark := "○"
		if st.Completed {
			mark = "✓"
		}
		fmt.Printf("%s %d. %s\n", mark, st.Position+1, st.Title)
	}),
}

var subRenameCmd = &cobra.Command{
	Use:   "rename <task-id> <position> <title>",
	Short: "Rename a checklist item",
	Args:  cobra.MinimumNArgs(3),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, pos, err := subTaskArgs(args[0], args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		st, err := db.RenameSubTask(taskID, pos, strings.Join(args[2:], " "))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("✏️  %d. %s\n", st.Position+1, st.Title)
	}),
}

var subRmCmd = &cobra.Command{
	Use:   "rm <task-id> <position>",
	Short: "Remove a checklist item",
	Args:  cobra.ExactArgs(2),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, pos, err := subTaskArgs(args[0], args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := db.RemoveSubTask(taskID, pos); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("🗑️  Removed item %d from task #%d\n", pos+1, taskID)
	}),
}

var subMvCmd = &cobra.Command{
	Use:   "mv <task-id> <from> <to>",
	Short: "Move a checklist item to another position",
	Args:  cobra.ExactArgs(3),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		taskID, from, err := subTaskArgs(args[0], args[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		to, err := parsePosition(args[2])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if err := db.MoveSubTask(taskID, from, to); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("↕️  Moved item %d to %d in task #%d\n", from+1, to+1, taskID)
	}),
}

// subTaskArgs parses a task id and a 1-based position into a 0-based one
func subTaskArgs(idArg, posArg string) (uint, int, error) {
	taskID, err := parseTaskID(idArg)
	if err != nil {
		return 0, 0, err
	}
	pos, err := parsePosition(posArg)
	return taskID, pos, err
}

func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position '%s'", arg)
	}
	return n - 1, nil
}

func init() {
	subCmd.AddCommand(subAddCmd)
	subCmd.AddCommand(subToggleCmd)
	subCmd.AddCommand(subRenameCmd)
	subCmd.AddCommand(subRmCmd)
	subCmd.AddCommand(subMvCmd)
}
