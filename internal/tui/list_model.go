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

// ListModel is the two-pane task browser.
type ListModel struct {
	width  int
	height int

	// Task data
	opts         db.TaskQueryOptions
	tasks        []models.Task
	selectedTask int

	// UI state
	searching bool
	search    textinput.Model
	query     string
	status    string // last action result
	err       error

	sweep *Sweep

	// Pagination
	currentPage  int
	tasksPerPage int

	// FocusTaskID is set when the user picked a task to focus on
	FocusTaskID uint
}

// sweepTickMsg advances the title highlight
type sweepTickMsg struct{}

// NewListModel creates a list over tasks; opts is reused to reload after
// every change
func NewListModel(tasks []models.Task, opts db.TaskQueryOptions) ListModel {
	search := textinput.New()
	search.Prompt = "Search: "
	search.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	search.CharLimit = 100

	return ListModel{
		opts:         opts,
		tasks:        tasks,
		search:       search,
		sweep:        NewSweep(),
		tasksPerPage: 10,
	}
}

func sweepTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return sweepTickMsg{}
	})
}

// Init initializes the model
func (m ListModel) Init() tea.Cmd {
	if m.sweep.Enabled() {
		return sweepTick()
	}
	return nil
}

// Update handles messages
func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sweepTickMsg:
		if t, ok := m.selected(); ok {
			m.sweep.Advance(len([]rune(t.Title)))
		}
		return m, sweepTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header, pagination, help, borders and margins
		m.tasksPerPage = max(m.height-12, 3)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}

		m.status = ""
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.query != "" {
				m.query = ""
				return m.reload(), nil
			}
			return m, tea.Quit
		case "up", "k":
			return m.moveSelection(-1), nil
		case "down", "j":
			return m.moveSelection(1), nil
		case "left", "h":
			return m.changePage(-1), nil
		case "right", "l":
			return m.changePage(1), nil
		case "/":
			m.searching = true
			m.search.SetValue(m.query)
			cmd := m.search.Focus()
			return m, cmd
		case "d", "x":
			return m.toggleDone(), nil
		case " ":
			return m.toggleNextSubTask(), nil
		case "f":
			if t, ok := m.selected(); ok {
				m.FocusTaskID = t.ID
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

// handleSearchKeys feeds the search box until enter or esc
func (m ListModel) handleSearchKeys(msg tea.KeyMsg) (ListModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.query = strings.TrimSpace(m.search.Value())
		return m.reload(), nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m ListModel) selected() (models.Task, bool) {
	if m.selectedTask < 0 || m.selectedTask >= len(m.tasks) {
		return models.Task{}, false
	}
	return m.tasks[m.selectedTask], true
}

// reload queries the database again, keeping the selection on the same
// task when it is still listed
func (m ListModel) reload() ListModel {
	var keep uint
	if t, ok := m.selected(); ok {
		keep = t.ID
	}

	var tasks []models.Task
	var err error
	if m.query != "" {
		tasks, err = db.SearchTasks(m.query, m.opts)
	} else {
		tasks, err = db.GetTasks(m.opts)
	}
	if err != nil {
		m.err = err
		return m
	}

	m.tasks = tasks
	m.selectedTask = 0
	for i, t := range tasks {
		if t.ID == keep {
			m.selectedTask = i
		}
	}
	m.currentPage = m.selectedTask / m.tasksPerPage
	m.sweep.Reset()
	return m
}

func (m ListModel) toggleDone() ListModel {
	t, ok := m.selected()
	if !ok {
		return m
	}
	var err error
	if t.Completed {
		_, err = db.MarkTaskUndone(t.ID)
		m.status = fmt.Sprintf("↩️  #%d back to todo", t.ID)
	} else {
		_, err = db.MarkTaskDone(t.ID)
		m.status = fmt.Sprintf("✅ #%d done", t.ID)
	}
	if err != nil {
		m.err = err
		m.status = ""
		return m
	}
	return m.reload()
}

// toggleNextSubTask ticks off the first open checklist item, or reopens
// the last one when all are done
func (m ListModel) toggleNextSubTask() ListModel {
	t, ok := m.selected()
	if !ok || len(t.SubTasks) == 0 {
		return m
	}
	pos := -1
	for _, st := range t.SubTasks {
		if !st.Completed {
			pos = st.Position
			break
		}
	}
	if pos < 0 {
		pos = t.SubTasks[len(t.SubTasks)-1].Position
	}
	st, err := db.ToggleSubTask(t.ID, pos)
	if err != nil {
		m.err = err
		return m
	}
	if st.Completed {
		m.status = "✓ " + st.Title
	} else {
		m.status = "○ " + st.Title
	}
	return m.reload()
}

func (m ListModel) moveSelection(delta int) ListModel {
	next := m.selectedTask + delta
	if next < 0 || next >= len(m.tasks) {
		return m
	}
	m.selectedTask = next
	m.currentPage = next / m.tasksPerPage
	m.sweep.Reset()
	return m
}

func (m ListModel) changePage(delta int) ListModel {
	pages := (len(m.tasks) + m.tasksPerPage - 1) / m.tasksPerPage
	page := m.currentPage + delta
	if page < 0 || page >= pages {
		return m
	}
	m.currentPage = page
	m.selectedTask = page * m.tasksPerPage
	m.sweep.Reset()
	return m
}

// View renders the TUI
func (m ListModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 1

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTaskTable(leftWidth),
		" ",
		m.renderTaskDetails(rightWidth),
	)

	var bottom string
	switch {
	case m.searching:
		bottom = m.search.View()
	case m.err != nil:
		bottom = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("❌ " + m.err.Error())
	case m.status != "":
		bottom = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render(m.status)
	default:
		bottom = m.renderHelpBar()
	}

	return lipgloss.JoinVertical(lipgloss.Left, "", content, "", bottom)
}

// renderTaskTable draws the paged table on the left
func (m ListModel) renderTaskTable(width int) string {
	var b strings.Builder

	header := "🍅 Tasks"
	if m.query != "" {
		header += fmt.Sprintf("  (search: %q)", m.query)
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Render(header))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render("No tasks found"))
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(ColorBorder)).Width(width).Render(b.String())
	}

	idWidth, checkWidth, dueWidth := 5, 6, 10
	titleWidth := max(width-4-idWidth-checkWidth-dueWidth-6, 20)

	columns := fmt.Sprintf("%-*s %-*s %-*s %-*s", idWidth, "ID", titleWidth, "TITLE", checkWidth, "LIST", dueWidth, "DUE")
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright)).Padding(0, 1).Render(columns))
	b.WriteString("\n\n")

	start := m.currentPage * m.tasksPerPage
	end := min(start+m.tasksPerPage, len(m.tasks))

	for i := start; i < end; i++ {
		task := m.tasks[i]
		isSelected := i == m.selectedTask

		mark := "○"
		if task.Completed {
			mark = "✓"
		}
		title := truncate(mark+" "+task.Title, titleWidth)
		if isSelected {
			title = m.sweep.Render(title) + strings.Repeat(" ", max(titleWidth-len([]rune(title)), 0))
		} else {
			color := ColorPrimaryText
			if task.Completed {
				color = ColorDisabledText
			}
			title = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Width(titleWidth).Render(title)
		}

		checklist := "-"
		if done, total := task.SubTaskProgress(); total > 0 {
			checklist = fmt.Sprintf("%d/%d", done, total)
		}
		dueText, dueColor := dueLabel(task.Due)

		row := fmt.Sprintf("%-*s %s %-*s %s",
			idWidth, fmt.Sprintf("#%d", task.ID),
			title,
			checkWidth, checklist,
			lipgloss.NewStyle().Foreground(lipgloss.Color(dueColor)).Width(dueWidth).Render(dueText))

		if isSelected {
			b.WriteString(lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorAccentMain)).
				Padding(0, 1).
				Render(row))
		} else {
			b.WriteString(" " + row)
		}
		b.WriteString("\n")
	}

	if m.tasksPerPage < len(m.tasks) {
		totalPages := (len(m.tasks) + m.tasksPerPage - 1) / m.tasksPerPage
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorHelpText)).
			Align(lipgloss.Center).
			Width(width-2).
			MarginTop(1).
			Render(fmt.Sprintf("Page %d/%d (%d tasks)", m.currentPage+1, totalPages, len(m.tasks))))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

// renderTaskDetails shows the selected task with its checklist
func (m ListModel) renderTaskDetails(width int) string {
	var b strings.Builder
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	task, ok := m.selected()
	if !ok {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain)).Bold(true).Align(lipgloss.Center).Width(width).Render("tomate"))
		b.WriteString("\n")
		b.WriteString(label.Italic(true).Align(lipgloss.Center).Width(width).MarginTop(2).Render("Select a task to view details"))
	} else {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).Width(width).Render("🍅 " + task.Title))
		b.WriteString("\n\n")

		status := "todo"
		if task.Completed {
			status = "done"
		}
		b.WriteString(label.Render("Status: ") + status + "\n")
		if p := task.PriorityLabel(); p != "" {
			_, color := priorityStyle(task.Priority)
			b.WriteString(label.Render("Priority: ") + lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(p) + "\n")
		}
		if d := task.Domain.Path(); d != "" {
			b.WriteString(label.Render("Domain: ") + accent.Render(d) + "\n")
		}
		if len(task.Tags) > 0 {
			b.WriteString(label.Render("Tags: ") + accent.Render(strings.Join(task.TagNames(), ", ")) + "\n")
		}
		if task.Due != nil {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render(parser.FormatDueDate(task.Due)) + "\n")
		}
		if task.StartTime != "" {
			b.WriteString(label.Render("Block: ") + task.StartTime + "-" + task.EndTime + "\n")
		}
		if est := parser.FormatEstimate(task.EstimatedMinutes); est != "" {
			b.WriteString(label.Render("Estimate: ") + est + "\n")
		}

		if len(task.SubTasks) > 0 {
			b.WriteString("\n")
			for _, st := range task.SubTasks {
				if st.Completed {
					b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render("  ✓ ") + label.Render(st.Title) + "\n")
				} else {
					b.WriteString("  ○ " + st.Title + "\n")
				}
			}
		}

		if task.Note != "" {
			b.WriteString("\nNotes:\n")
			b.WriteString(label.Italic(true).Width(width - 2).Render(task.Note))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

// renderHelpBar lists the keys
func (m ListModel) renderHelpBar() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width).
		Render("↑/↓ nav · ←/→ page · / search · d done · space next sub-task · f focus · q quit")
}

func dueLabel(due *time.Time) (string, string) {
	if due == nil {
		return "-", ColorDisabledText
	}
	days := int(due.Sub(time.Now()).Hours() / 24)
	switch {
	case due.Before(time.Now()):
		return "OVERDUE", ColorError
	case days == 0:
		return "TODAY", ColorWarning
	case days == 1:
		return "TOMORROW", ColorWarning
	case days <= 7:
		return fmt.Sprintf("%dd", days), ColorAccentBright
	default:
		return due.Format("02/01"), ColorSecondaryText
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
