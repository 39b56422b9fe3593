package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"task-manager/internal/client"
	"task-manager/internal/model"
)

const requestTimeout = 10 * time.Second

// API is the part of the HTTP client the UI uses.
type API interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, title, description string) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) (client.Health, error)
}

const (
	fieldTitle = iota
	fieldDescription
	fieldCount
)

// Model is the task list screen.
type Model struct {
	api      API
	tasks    []model.Task
	selected int
	width    int
	height   int
	loading  bool

	addMode  bool
	addField int
	inputs   []textinput.Model

	status       string
	disconnected bool
}

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type healthMsg struct {
	health client.Health
	err    error
}

type taskCreatedMsg struct {
	task model.Task
	err  error
}

type taskToggledMsg struct {
	id   string
	prev bool
	task model.Task
	err  error
}

type taskDeletedMsg struct {
	id  string
	err error
}

var (
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Strikethrough(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

func New(api API) Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 50
		inputs[i].Prompt = "> "
		inputs[i].PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	}
	inputs[fieldTitle].Placeholder = "Title"
	inputs[fieldTitle].CharLimit = 200
	inputs[fieldDescription].Placeholder = "Description (optional)"
	inputs[fieldDescription].CharLimit = 1000

	return Model{
		api:     api,
		inputs:  inputs,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTasks(), m.checkHealth())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = describe("Failed to load tasks", msg.err)
			return m, nil
		}
		m.tasks = msg.tasks
		m.selected = m.clampSelection()
		return m, nil

	case healthMsg:
		m.disconnected = msg.err != nil || !msg.health.Connected()
		return m, nil

	case taskCreatedMsg:
		if msg.err != nil {
			m.status = describe("Failed to add task", msg.err)
			return m, nil
		}
		m.tasks = append([]model.Task{msg.task}, m.tasks...)
		m.selected = 0
		m.status = ""
		return m, nil

	case taskToggledMsg:
		i := m.indexOf(msg.id)
		if msg.err != nil {
			if i >= 0 {
				m.tasks[i].Completed = msg.prev
			}
			m.status = describe("Failed to update task", msg.err)
			return m, nil
		}
		if i >= 0 {
			m.tasks[i] = msg.task
		}
		return m, nil

	case taskDeletedMsg:
		if msg.err != nil {
			m.status = describe("Failed to delete task", msg.err)
			return m, nil
		}
		if i := m.indexOf(msg.id); i >= 0 {
			m.tasks = append(m.tasks[:i:i], m.tasks[i+1:]...)
		}
		m.selected = m.clampSelection()
		return m, nil

	case tea.KeyMsg:
		if m.addMode {
			return m.updateAddMode(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}

	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}

	case "a":
		m.addMode = true
		m.addField = fieldTitle
		for i := range m.inputs {
			m.inputs[i].Reset()
			m.inputs[i].Blur()
		}
		m.inputs[fieldTitle].Focus()
		return m, textinput.Blink

	case " ", "space":
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.selected]
		next := !t.Completed
		m.tasks[m.selected].Completed = next
		return m, m.toggleTask(t.ID, t.Completed, next)

	case "d":
		if len(m.tasks) == 0 {
			return m, nil
		}
		return m, m.deleteTask(m.tasks[m.selected].ID)

	case "r":
		m.loading = true
		m.status = ""
		return m, tea.Batch(m.loadTasks(), m.checkHealth())

	case "esc":
		m.status = ""
	}
	return m, nil
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.addMode = false
		return m, nil

	case "tab", "shift+tab":
		m.inputs[m.addField].Blur()
		m.addField = (m.addField + 1) % fieldCount
		m.inputs[m.addField].Focus()
		return m, textinput.Blink

	case "enter":
		m.addMode = false
		title := m.inputs[fieldTitle].Value()
		description := m.inputs[fieldDescription].Value()
		return m, m.createTask(title, description)
	}

	var cmd tea.Cmd
	m.inputs[m.addField], cmd = m.inputs[m.addField].Update(msg)
	return m, cmd
}

func (m Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tasks, err := m.api.List(ctx)
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func (m Model) checkHealth() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		h, err := m.api.Health(ctx)
		return healthMsg{health: h, err: err}
	}
}

func (m Model) createTask(title, description string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := m.api.Create(ctx, title, description)
		return taskCreatedMsg{task: t, err: err}
	}
}

func (m Model) toggleTask(id string, prev, next bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := m.api.Update(ctx, id, model.TaskPatch{Completed: &next})
		return taskToggledMsg{id: id, prev: prev, task: t, err: err}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return taskDeletedMsg{id: id, err: m.api.Delete(ctx, id)}
	}
}

func (m Model) indexOf(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) clampSelection() int {
	if m.selected >= len(m.tasks) {
		return max(len(m.tasks)-1, 0)
	}
	return m.selected
}

// describe prefers the server's message over transport details.
func describe(prefix string, err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}

func (m Model) View() string {
	if m.addMode {
		return m.renderAddForm()
	}

	var lines []string

	done := 0
	for _, t := range m.tasks {
		if t.Completed {
			done++
		}
	}
	lines = append(lines, fmt.Sprintf("Tasks (%d, %d done)", len(m.tasks), done))
	if m.disconnected {
		lines = append(lines, warnStyle.Render("Database disconnected, changes may fail"))
	}
	lines = append(lines, "")

	switch {
	case m.loading && len(m.tasks) == 0:
		lines = append(lines, "Loading...")
	case len(m.tasks) == 0:
		lines = append(lines, labelStyle.Render("No tasks yet. Press a to add one."))
	}

	for i, t := range m.tasks {
		lines = append(lines, m.renderTask(i, t))
	}

	lines = append(lines, "")
	if m.status != "" {
		lines = append(lines, errorStyle.Render(m.status)+labelStyle.Render("  (esc to dismiss)"))
	}
	lines = append(lines, labelStyle.Render("a add  space toggle  d delete  r refresh  q quit"))

	return strings.Join(lines, "\n")
}

func (m Model) renderTask(i int, t model.Task) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	title := t.Title
	if t.Completed && i != m.selected {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s", box, title)
	if i == m.selected {
		line = selectedStyle.Render(line)
	}

	meta := t.CreatedAt.Local().Format("2006-01-02 15:04")
	if t.Description != "" {
		meta = strings.ReplaceAll(t.Description, "\n", " ") + "  " + meta
	}
	return line + "  " + labelStyle.Render(meta)
}

func (m Model) renderAddForm() string {
	var b strings.Builder
	b.WriteString("New task\n\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("enter save  tab next field  esc cancel"))

	width := 60
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}
	return borderStyle.Width(width).Padding(1, 2).Render(b.String())
}
