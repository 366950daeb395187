package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/focus"
	"github.com/balkashynov/tomate/internal/timer"
	"github.com/balkashynov/tomate/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start or resume the Pomodoro timer",
	Long: `Start or resume the Pomodoro timer, optionally focusing on a task.
Opens the focus view by default, use --no-ui to start in the background.
The timer keeps counting between commands.

Examples:
  tomate start 42        # Focus on task 42 with the interactive timer
  tomate start --no-ui   # Resume the timer without UI`,
	Args: cobra.MaximumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		svc, err := openFocusForTask(args)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		svc.Start()

		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			printStatus(svc)
			return
		}
		if err := tui.RunFocusTUI(svc, logPath()); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}),
}

var focusCmd = &cobra.Command{
	Use:   "focus [task-id]",
	Short: "Open the full screen timer",
	Args:  cobra.MaximumNArgs(1),
	Run: withDB(func(cmd *cobra.Command, args []string) {
		var taskID *uint
		if len(args) == 1 {
			id, err := parseTaskID(args[0])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			taskID = &id
		}
		runFocus(taskID)
	}),
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running timer",
	Run: timerAction(func(svc *focus.Service) {
		svc.Pause()
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the timer to a fresh focus session",
	Run: timerAction(func(svc *focus.Service) {
		svc.Reset()
	}),
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Finish the current session now and move to the next one",
	Run: timerAction(func(svc *focus.Service) {
		kind := svc.Snapshot().Kind
		svc.Skip()
		fmt.Printf("⏭️  Skipped %s\n", kind.Label())
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer status",
	Run:   timerAction(func(*focus.Service) {}),
}

// timerAction runs fn on the resumed timer and prints the resulting status
func timerAction(fn func(*focus.Service)) func(*cobra.Command, []string) {
	return withDB(func(cmd *cobra.Command, args []string) {
		svc, err := openFocus()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fn(svc)
		printStatus(svc)
	})
}

func openFocusForTask(args []string) (*focus.Service, error) {
	svc, err := openFocus()
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		id, err := parseTaskID(args[0])
		if err != nil {
			return nil, err
		}
		if err := svc.SetTask(&id); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// runFocus opens the focus TUI, attaching taskID when set
func runFocus(taskID *uint) {
	svc, err := openFocus()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if taskID != nil {
		if err := svc.SetTask(taskID); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}
	if err := tui.RunFocusTUI(svc, logPath()); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func printStatus(svc *focus.Service) {
	snap := svc.Snapshot()

	icon := "⏸️ "
	switch snap.Status {
	case timer.StatusRunning:
		icon = "⏱️ "
	case timer.StatusIdle:
		icon = "💤"
	}
	fmt.Printf("%s %s %s: %s left of %s\n",
		icon, snap.Kind.Label(), snap.Status,
		formatDuration(snap.Remaining), formatDuration(snap.Total))

	if snap.SessionStartedAt != nil {
		fmt.Printf("Started %s\n", humanize.Time(*snap.SessionStartedAt))
	}
	if snap.TaskID != nil {
		if task, err := db.GetTaskByID(*snap.TaskID); err == nil {
			fmt.Printf("Task: #%d %s\n", task.ID, task.Title)
		}
	}

	cycles := svc.Config().CyclesBeforeLongBreak
	fmt.Printf("🍅 %d pomodoros, long break after %d more\n",
		snap.CompletedCycles, cycles-snap.CompletedCycles%cycles)
}

// formatDuration formats a countdown as MM:SS, rounding partial seconds up
func formatDuration(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start the timer without the interactive view")
}
