package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/tomate/internal/db"
	"github.com/balkashynov/tomate/internal/models"
	"github.com/balkashynov/tomate/internal/parser"
)

// Step is one page of the add wizard
type Step int

const (
	StepTitle Step = iota
	StepDomain
	StepTags
	StepPriority
	StepDueDate
	StepEstimate
	StepChecklist
	StepNotes
	StepSave
)

var stepLabels = [...]string{
	StepTitle:     "Title",
	StepDomain:    "Domain",
	StepTags:      "Tags",
	StepPriority:  "Priority",
	StepDueDate:   "Due date",
	StepEstimate:  "Estimate",
	StepChecklist: "Checklist",
	StepNotes:     "Notes",
	StepSave:      "Save",
}

// AddTaskModel walks the user through creating a task, one field per step.
type AddTaskModel struct {
	currentStep Step
	inputs      []textinput.Model
	width       int
	height      int

	// list-valued steps collect one entry per Enter
	tags     []string
	subTasks []string

	// State
	err           error
	validationErr string
	cancelled     bool
	created       *models.Task

	sweep *Sweep

	// Save confirmation modal
	showSaveModal   bool
	saveModalChoice bool // Yes highlighted
}

// NewAddTaskModel creates a new add task TUI model. Recognised prefilled
// keys are title, domain, tags (comma separated), priority, due, estimate
// and notes.
func NewAddTaskModel(prefilled map[string]string) AddTaskModel {
	inputs := make([]textinput.Model, StepSave)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 60
		inputs[i].CharLimit = 100
		inputs[i].TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
		inputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
		inputs[i].Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	}

	inputs[StepTitle].Placeholder = "Enter task title... (required)"
	inputs[StepTitle].CharLimit = 200
	inputs[StepDomain].Placeholder = "domain or domain/sub (Enter to skip)"
	inputs[StepTags].Placeholder = "Add tag (Enter on empty to continue)"
	inputs[StepPriority].Placeholder = "low/medium/high or 1/2/3 (Enter to skip)"
	inputs[StepDueDate].Placeholder = "today, tomorrow, 3d, 2w, dd/mm/yyyy (Enter to skip)"
	inputs[StepEstimate].Placeholder = "25m, 2h, 1h30m (Enter to skip)"
	inputs[StepChecklist].Placeholder = "Add checklist item (Enter on empty to continue)"
	inputs[StepNotes].Placeholder = "Additional notes (Enter to skip)"
	inputs[StepNotes].CharLimit = 500
	inputs[StepTitle].Focus()

	m := AddTaskModel{
		inputs: inputs,
		sweep:  NewSweep(),
	}

	fields := map[string]Step{
		"title":    StepTitle,
		"domain":   StepDomain,
		"priority": StepPriority,
		"due":      StepDueDate,
		"estimate": StepEstimate,
		"notes":    StepNotes,
	}
	for key, step := range fields {
		if v, ok := prefilled[key]; ok {
			m.inputs[step].SetValue(v)
		}
	}
	if tags, ok := prefilled["tags"]; ok {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				m.tags = append(m.tags, strings.ToLower(t))
			}
		}
	}

	return m
}

// Created returns the task saved by the wizard, nil when cancelled
func (m AddTaskModel) Created() *models.Task {
	return m.created
}

// Init starts the cursor blink and the title sweep
func (m AddTaskModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.sweep.Enabled() {
		cmds = append(cmds, sweepTick())
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m AddTaskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sweepTickMsg:
		m.sweep.Advance(len(stepLabels[m.currentStep]))
		return m, sweepTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := min(max(m.width*2/3-10, 30), 80)
		for i := range m.inputs {
			m.inputs[i].Width = w
		}
		return m, nil

	case tea.KeyMsg:
		if m.showSaveModal {
			return m.handleModalKeys(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "esc":
			if m.currentStep == StepSave {
				return m.prevStep()
			}
			if !m.hasChanges() {
				m.cancelled = true
				return m, tea.Quit
			}
			m.showSaveModal = true
			m.saveModalChoice = true
			return m, nil
		case "enter":
			return m.handleEnter()
		case "tab", "down":
			if m.currentStep == StepTitle && m.value(StepTitle) == "" {
				m.validationErr = "Task title is required"
				return m, nil
			}
			return m.nextStep()
		case "shift+tab", "up":
			return m.prevStep()
		}
	}

	var cmd tea.Cmd
	if m.currentStep < StepSave {
		m.inputs[m.currentStep], cmd = m.inputs[m.currentStep].Update(msg)
	}
	return m, cmd
}

func (m AddTaskModel) handleModalKeys(msg tea.KeyMsg) (AddTaskModel, tea.Cmd) {
	switch msg.String() {
	case "left", "right":
		m.saveModalChoice = !m.saveModalChoice
	case "y", "Y":
		m.saveModalChoice = true
		return m.handleSaveChoice()
	case "n", "N":
		m.saveModalChoice = false
		return m.handleSaveChoice()
	case "enter":
		return m.handleSaveChoice()
	case "esc":
		m.showSaveModal = false
	case "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m AddTaskModel) value(step Step) string {
	return strings.TrimSpace(m.inputs[step].Value())
}

func (m AddTaskModel) hasChanges() bool {
	if len(m.tags) > 0 || len(m.subTasks) > 0 {
		return true
	}
	for step := StepTitle; step < StepSave; step++ {
		if m.value(step) != "" {
			return true
		}
	}
	return false
}

// handleEnter validates the current step and advances
func (m AddTaskModel) handleEnter() (AddTaskModel, tea.Cmd) {
	m.validationErr = ""
	if m.currentStep == StepSave {
		return m.createTask()
	}
	v := m.value(m.currentStep)

	switch m.currentStep {
	case StepTitle:
		if v == "" {
			m.validationErr = "Task title is required"
			return m, nil
		}
	case StepDomain:
		if v != "" && !parser.IsValidDomainPath(v) {
			m.validationErr = "Invalid domain. Use: name or name/sub"
			return m, nil
		}
	case StepTags:
		if v != "" {
			m.tags = append(m.tags, strings.ToLower(strings.TrimPrefix(v, "#")))
			m.inputs[StepTags].SetValue("")
			return m, nil
		}
	case StepPriority:
		if _, err := parser.ParsePriority(v); err != nil {
			m.validationErr = "Invalid priority. Use: low, medium, high, 1, 2, or 3"
			return m, nil
		}
	case StepDueDate:
		if v != "" {
			if _, err := parser.ParseDueDate(v); err != nil {
				m.validationErr = "Invalid due date: " + err.Error()
				return m, nil
			}
		}
	case StepEstimate:
		if v != "" {
			if _, err := parser.ParseEstimate(v); err != nil {
				m.validationErr = "Invalid estimate: " + err.Error()
				return m, nil
			}
		}
	case StepChecklist:
		if v != "" {
			m.subTasks = append(m.subTasks, v)
			m.inputs[StepChecklist].SetValue("")
			return m, nil
		}
	}
	return m.nextStep()
}

// nextStep focuses the following input
func (m AddTaskModel) nextStep() (AddTaskModel, tea.Cmd) {
	if m.currentStep < StepSave {
		m.inputs[m.currentStep].Blur()
		m.currentStep++
		if m.currentStep < StepSave {
			m.inputs[m.currentStep].Focus()
		}
		m.sweep.Reset()
	}
	return m, textinput.Blink
}

// prevStep goes back one field, keeping what was typed
func (m AddTaskModel) prevStep() (AddTaskModel, tea.Cmd) {
	if m.currentStep > StepTitle {
		if m.currentStep < StepSave {
			m.inputs[m.currentStep].Blur()
		}
		m.currentStep--
		m.inputs[m.currentStep].Focus()
		m.sweep.Reset()
	}
	return m, textinput.Blink
}

// request builds the create request from the collected input
func (m AddTaskModel) request() (db.CreateTaskRequest, error) {
	req := db.CreateTaskRequest{
		Title:    m.value(StepTitle),
		Domain:   m.value(StepDomain),
		Tags:     m.tags,
		Priority: m.value(StepPriority),
		Note:     m.value(StepNotes),
		SubTasks: m.subTasks,
	}
	if v := m.value(StepDueDate); v != "" {
		due, err := parser.ParseDueDate(v)
		if err != nil {
			return req, fmt.Errorf("invalid due date: %w", err)
		}
		req.DueDate = due
	}
	if v := m.value(StepEstimate); v != "" {
		est, err := parser.ParseEstimate(v)
		if err != nil {
			return req, fmt.Errorf("invalid estimate: %w", err)
		}
		req.EstimatedMinutes = est
	}
	return req, nil
}

// createTask saves the collected request
func (m AddTaskModel) createTask() (AddTaskModel, tea.Cmd) {
	if m.value(StepTitle) == "" {
		if m.currentStep < StepSave {
			m.inputs[m.currentStep].Blur()
		}
		m.currentStep = StepTitle
		m.inputs[StepTitle].Focus()
		m.validationErr = "Task title is required"
		return m, nil
	}
	req, err := m.request()
	if err != nil {
		m.err = err
		return m, nil
	}
	task, err := db.CreateTask(req)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.created = task
	return m, tea.Quit
}

// handleSaveChoice applies the answer from the quit modal
func (m AddTaskModel) handleSaveChoice() (AddTaskModel, tea.Cmd) {
	m.showSaveModal = false
	if !m.saveModalChoice {
		m.cancelled = true
		return m, tea.Quit
	}
	return m.createTask()
}

// View renders the TUI
func (m AddTaskModel) View() string {
	if m.cancelled || m.created != nil {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	rightWidth := min(50, m.width*40/100)
	leftWidth := m.width - rightWidth - 4

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1).
		Render(m.renderWizard())
	right := lipgloss.NewStyle().
		Width(rightWidth).
		Padding(1).
		Render(m.renderPreview())

	view := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	if m.showSaveModal {
		return m.renderSaveModal()
	}
	return view
}

// renderWizard renders the step-by-step wizard
func (m AddTaskModel) renderWizard() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentMain)).Render("🍅 New task"))
	b.WriteString("\n\n")

	for step := StepTitle; step <= StepSave; step++ {
		label := stepLabels[step]
		switch {
		case step == m.currentStep:
			b.WriteString("▸ " + m.sweep.Render(label))
		case step < m.currentStep:
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render("✓ " + label))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Render("  " + label))
		}
		b.WriteString("\n")
		if step == m.currentStep && step < StepSave {
			b.WriteString("  " + m.inputs[step].View() + "\n")
		}
	}

	if m.currentStep == StepSave {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render("Press Enter to save the task"))
	}
	if m.validationErr != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("⚠ "+m.validationErr))
	}
	if m.err != nil {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("❌ "+m.err.Error()))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).
		Render("Enter next · ↑/↓ move · Esc quit · Ctrl+C abort"))
	return b.String()
}

// renderPreview renders the live task card
func (m AddTaskModel) renderPreview() string {
	var b strings.Builder
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	title := m.value(StepTitle)
	if title == "" {
		title = label.Italic(true).Render("untitled")
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).Render(title))
	b.WriteString("\n\n")

	if d := m.value(StepDomain); d != "" {
		b.WriteString(label.Render("Domain: ") + accent.Render(strings.ToLower(d)) + "\n")
	}
	if len(m.tags) > 0 {
		b.WriteString(label.Render("Tags: ") + accent.Render("#"+strings.Join(m.tags, " #")) + "\n")
	}
	if p, err := parser.ParsePriority(m.value(StepPriority)); err == nil && p > 0 {
		icon, color := priorityStyle(p)
		b.WriteString(label.Render("Priority: ") + icon + " " + lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(models.Task{Priority: p}.PriorityLabel()) + "\n")
	}
	if due, err := parser.ParseDueDate(m.value(StepDueDate)); err == nil && due != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render(parser.FormatDueDate(due)) + "\n")
	}
	if est, err := parser.ParseEstimate(m.value(StepEstimate)); err == nil && est > 0 {
		b.WriteString(label.Render("Estimate: ") + parser.FormatEstimate(est) + fmt.Sprintf(" (~%d pomodoros)", pomodorosFor(est)) + "\n")
	}
	if len(m.subTasks) > 0 {
		b.WriteString("\n")
		for _, st := range m.subTasks {
			b.WriteString("  ○ " + st + "\n")
		}
	}
	if n := m.value(StepNotes); n != "" {
		b.WriteString("\n" + label.Italic(true).Render(n))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Background(lipgloss.Color(ColorCardBackground)).
		Padding(1).
		Render(b.String())
}

// pomodorosFor rounds an estimate up to whole 25 minute pomodoros
func pomodorosFor(minutes int) int {
	const pomodoro = 25 * time.Minute
	d := time.Duration(minutes) * time.Minute
	return int((d + pomodoro - 1) / pomodoro)
}

// renderSaveModal asks whether to keep the half-filled task
func (m AddTaskModel) renderSaveModal() string {
	var content strings.Builder
	content.WriteString("Save task?\n\n")

	yes := lipgloss.NewStyle().Padding(0, 2)
	no := lipgloss.NewStyle().Padding(0, 2)
	if m.saveModalChoice {
		yes = yes.Background(lipgloss.Color(ColorAccentBright)).Foreground(lipgloss.Color("#000000")).Bold(true)
	} else {
		no = no.Background(lipgloss.Color(ColorError)).Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	}
	content.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, yes.Render("Yes"), "   ", no.Render("No")))
	content.WriteString("\n\n← → or Y/N to choose, Enter to confirm\nEsc to keep editing")

	modal := lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentBright)).
		Background(lipgloss.Color(ColorCardBackground)).
		Padding(1).
		Align(lipgloss.Center).
		Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
