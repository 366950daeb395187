package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/focus"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/parser"
	"github.com/balkashynov/tomate/internal/timer"
)

// FocusModel is the full-screen Pomodoro view
type FocusModel struct {
	width  int
	height int

	svc  *focus.Service
	snap timer.Snapshot
	task *models.Task
	bar  progress.Model

	// notice is shown after a session ends until the next key press
	notice string
	quit   bool
}

// focusTickMsg drives the countdown
type focusTickMsg time.Time

// NewFocusModel creates the focus view around a loaded service
func NewFocusModel(svc *focus.Service) FocusModel {
	m := FocusModel{
		svc: svc,
		bar: progress.New(
			progress.WithGradient(ColorAccentBright, ColorAccentMain),
			progress.WithoutPercentage(),
		),
	}
	m.snap = svc.Snapshot()
	m.task = loadTask(m.snap.TaskID)
	return m
}

func focusTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return focusTickMsg(t)
	})
}

// Init starts the countdown ticker
func (m FocusModel) Init() tea.Cmd {
	return focusTick()
}

// Update handles messages
func (m FocusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case focusTickMsg:
		m.svc.Tick()
		return m.refresh(true), focusTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(max(msg.Width/2-8, 10), 60)
		return m, nil

	case tea.KeyMsg:
		m.notice = ""
		switch msg.String() {
		case " ", "enter":
			if m.snap.Status == timer.StatusRunning {
				m.svc.Pause()
			} else {
				m.svc.Start()
			}
		case "r":
			m.svc.Reset()
			return m.refresh(false), nil
		case "s":
			m.svc.Skip()
		case "ctrl+c", "esc", "q":
			m.quit = true
			return m, tea.Quit
		}
		return m.refresh(true), nil
	}

	return m, nil
}

// refresh pulls the machine state; with announce set a session change is
// reported as a finished session
func (m FocusModel) refresh(announce bool) FocusModel {
	prev := m.snap
	m.snap = m.svc.Snapshot()

	if announce && (m.snap.CompletedCycles != prev.CompletedCycles || m.snap.Kind != prev.Kind) {
		m.notice = completionNotice(prev.Kind, m.snap.Kind)
	}
	if !sameTask(prev.TaskID, m.snap.TaskID) {
		m.task = loadTask(m.snap.TaskID)
	}
	return m
}

func completionNotice(finished, next timer.Kind) string {
	if finished == timer.KindWork {
		return fmt.Sprintf("🍅 Pomodoro done! Time for a %s.", strings.ToLower(next.Label()))
	}
	return "☕ Break over. Back to work!"
}

// View renders the focus TUI
func (m FocusModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	if m.width < 90 || m.task == nil {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderTimerPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderTaskPanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func (m FocusModel) kindColor() string {
	if m.snap.Kind.IsBreak() {
		return ColorLeaf
	}
	return ColorAccentMain
}

func (m FocusModel) renderTimerPanel(width, height int) string {
	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
	var parts []string

	header := strings.ToUpper(m.snap.Kind.Label())
	switch m.snap.Status {
	case timer.StatusPaused:
		header += " · PAUSED"
	case timer.StatusIdle:
		header += " · READY"
	}
	parts = append(parts, center.Foreground(lipgloss.Color(m.kindColor())).Bold(true).Render(header))

	clock := renderBigClock(m.snap.Remaining, m.kindColor())
	var clockLines []string
	for _, line := range strings.Split(clock, "\n") {
		clockLines = append(clockLines, center.Render(line))
	}
	parts = append(parts, strings.Join(clockLines, "\n"))

	parts = append(parts, center.Render(m.bar.ViewAs(m.snap.Progress())))
	parts = append(parts, center.Render(m.renderCycleDots()))

	if m.snap.SessionStartedAt != nil {
		started := fmt.Sprintf("Started at %s", m.snap.SessionStartedAt.Format("15:04:05"))
		parts = append(parts, center.Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render(started))
	}
	if m.task != nil && m.width < 90 {
		parts = append(parts, center.Foreground(lipgloss.Color(ColorPrimaryText)).Render(fmt.Sprintf("#%d %s", m.task.ID, m.task.Title)))
	}
	if m.notice != "" {
		parts = append(parts, center.Foreground(lipgloss.Color(ColorSuccess)).Bold(true).Render(m.notice))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(parts, "\n\n"))
}

// renderCycleDots shows progress towards the next long break
func (m FocusModel) renderCycleDots() string {
	cycles := m.svc.Config().CyclesBeforeLongBreak
	done := m.snap.CompletedCycles % cycles
	if done == 0 && m.snap.CompletedCycles > 0 && m.snap.Kind == timer.KindLongBreak {
		done = cycles
	}

	on := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain))
	off := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))
	dots := make([]string, cycles)
	for i := range dots {
		if i < done {
			dots[i] = on.Render("●")
		} else {
			dots[i] = off.Render("○")
		}
	}
	total := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).
		Render(fmt.Sprintf("  %d pomodoros", m.snap.CompletedCycles))
	return strings.Join(dots, " ") + total
}

func (m FocusModel) renderTaskPanel(width, height int) string {
	task := m.task
	line := lipgloss.NewStyle().Align(lipgloss.Center).Width(width - 8)
	value := func(v, color string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(v)
	}
	var b strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width-12).
		Padding(0, 1)
	b.WriteString(title.Render(fmt.Sprintf("#%d %s", task.ID, task.Title)))
	b.WriteString("\n\n")

	icon, color := priorityStyle(task.Priority)
	label := task.PriorityLabel()
	if label == "" {
		label = "none"
	}
	b.WriteString(line.Render(fmt.Sprintf("%s Priority: %s", icon, value(label, color))))
	b.WriteString("\n")

	if d := task.Domain.Path(); d != "" {
		b.WriteString(line.Render("📁 Domain: " + value(d, ColorAccentBright)))
		b.WriteString("\n")
	}
	if len(task.Tags) > 0 {
		b.WriteString(line.Render("🏷️  Tags: " + value("#"+strings.Join(task.TagNames(), " #"), ColorAccentBright)))
		b.WriteString("\n")
	}
	if task.Due != nil {
		b.WriteString(line.Render(value(parser.FormatDueDate(task.Due), ColorWarning)))
		b.WriteString("\n")
	}
	if est := parser.FormatEstimate(task.EstimatedMinutes); est != "" {
		b.WriteString(line.Render("⏳ Estimate: " + value(est, ColorSecondaryText)))
		b.WriteString("\n")
	}

	if len(task.SubTasks) > 0 {
		done, total := task.SubTaskProgress()
		b.WriteString("\n")
		b.WriteString(line.Render(value(fmt.Sprintf("Checklist %d/%d", done, total), ColorSecondaryText)))
		b.WriteString("\n")
		for _, st := range task.SubTasks {
			mark := value("○", ColorDisabledText)
			if st.Completed {
				mark = value("✓", ColorSuccess)
			}
			b.WriteString(line.Render(mark + " " + st.Title))
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(b.String())
}

func (m FocusModel) renderHelpBar() string {
	action := "start"
	if m.snap.Status == timer.StatusRunning {
		action = "pause"
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render(fmt.Sprintf("space %s · r reset · s skip · q quit (timer keeps its state)", action))
}

func priorityStyle(p int) (icon, color string) {
	switch p {
	case models.PriorityHigh:
		return "🔴", ColorError
	case models.PriorityMedium:
		return "🟡", ColorWarning
	case models.PriorityLow:
		return "🟢", ColorSecondaryText
	default:
		return "⚪", ColorDisabledText
	}
}

func loadTask(id *uint) *models.Task {
	if id == nil || db.DB == nil {
		return nil
	}
	task, err := db.GetTaskByID(*id)
	if err != nil {
		return nil
	}
	return task
}

func sameTask(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
