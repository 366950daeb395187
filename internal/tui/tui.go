package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/focus"
	"github.com/balkashynov/tomate/internal/logger"
	"github.com/balkashynov/tomate/internal/models"
)

// RunFocusTUI shows the full screen timer for svc. When logPath is set,
// log output is sent there while the TUI owns the terminal.
func RunFocusTUI(svc *focus.Service, logPath string) error {
	if logPath != "" {
		if err := logger.ToFile(logPath); err != nil {
			return err
		}
	}

	p := tea.NewProgram(NewFocusModel(svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}

	snap := svc.Snapshot()
	fmt.Printf("🍅 %d pomodoros this cycle, timer %s\n", snap.CompletedCycles, snap.Status)
	return nil
}

// RunListTUI starts the interactive task list. It returns the id of the
// task picked for focusing, or 0.
func RunListTUI(tasks []models.Task, opts db.TaskQueryOptions) (uint, error) {
	p := tea.NewProgram(NewListModel(tasks, opts), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return 0, err
	}
	if m, ok := finalModel.(ListModel); ok {
		return m.FocusTaskID, nil
	}
	return 0, nil
}

// RunAddTaskTUI starts the interactive add task TUI
func RunAddTaskTUI(prefilled map[string]string) error {
	p := tea.NewProgram(NewAddTaskModel(prefilled), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(AddTaskModel); ok {
		switch {
		case m.created != nil:
			fmt.Printf("✅ New task \"%s\" added - ID: %d\n", m.created.Title, m.created.ID)
		case m.err != nil:
			fmt.Printf("❌ Error: %v\n", m.err)
		default:
			fmt.Println("❌ Task creation cancelled.")
		}
	}
	return nil
}
