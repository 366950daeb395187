package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Show comprehensive help for tomate",
	Long:  `Display detailed help for all tomate commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			if sub, _, err := rootCmd.Find(args); err == nil && sub != rootCmd {
				sub.Help()
				return
			}
		}
		showCustomHelp()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tomate %s (commit %s, built %s)\n", version, commit, date)
	},
}

func showCustomHelp() {
	fmt.Print(`
 _                        _
| |_ ___  _ __ ___   __ _| |_ ___
| __/ _ \| '_ ` + "`" + ` _ \ / _` + "`" + ` | __/ _ \
| || (_) | | | | | | (_| | ||  __/
 \__\___/|_| |_| |_|\__,_|\__\___|

tomate - Pomodoro timer + task manager

TASKS:

  add <task>              Create a new task with smart parsing
    -d, --domain          Domain or domain/subdomain
    -t, --tags            Comma-separated tags
    -p, --priority        Priority: low|medium|high
    --due, --start        Dates (today, tomorrow, dd/mm/yyyy, 3d, 12h, 2w)
    --time                Time block, e.g. 10:00-11:30
    -e, --estimate        Estimate, e.g. 25m, 1h30m
    -s, --sub             Checklist item (repeatable)
    -i, --interactive     Open the add wizard

    Smart syntax:
      #tags  @domain/sub  +priority  due:2d  start:today  ~45m  10:00-11:00

    Example:
      tomate add "Write report #work @job/reports +high due:2d ~1h30m"

  ls                      Interactive task list (--no-ui for plain output)
    --status, --tags, --domain, --priority, --due, --order, --limit, --json

    Quick actions:
      ↑/↓  ←/→      Navigate and page
      /             Search
      d             Mark done/undone
      space         Tick the next checklist item
      f             Focus on the task
      q             Quit

  search <query>          Ranked search (same filters as ls)
  edit <id> [flags]       Change fields; no flags shows the task
  done <id> / undone <id> Complete or reopen a task
  rm <id> / restore [id]  Delete, restore or list deleted tasks
  sub add|toggle|rename|rm|mv
                          Manage a task's checklist

TIMER:

  start [id]              Start or resume, optionally on a task
    --no-ui               Stay on the command line
  focus [id]              Full screen timer
  pause / reset / skip    Control the running timer
  status                  Show what the timer is doing

REPORTS:

  stats                   Focus time, sessions, tasks and streaks
  week                    Focus timesheet by task and day (-b N weeks back)
  calendar [YYYY-MM]      Month grid with pomodoros and due tasks

SERVICES:

  serve [--addr]          JSON API + prometheus metrics
  sync                    Push sessions and stats to the hosted database
  config [init]           Show or create ~/.tomate/config.yaml
  version                 Print version information

`)
}
