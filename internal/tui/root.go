package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/autoglm/tui-go/internal/chat"
	"github.com/autoglm/tui-go/internal/config"
	"github.com/autoglm/tui-go/internal/model"
)

// ViewMode represents the current view
type ViewMode int

const (
	ViewModeMain ViewMode = iota
	ViewModeHelp
)

// Messages
type sessionUpdateMsg struct{}

type historyLoadedMsg struct {
	err error
}

type sendResultMsg struct {
	err error
}

type stopResultMsg struct {
	err error
}

type clearResultMsg struct {
	err error
}

type logLineMsg struct {
	line string
}

type logClosedMsg struct{}

type devicesMsg struct {
	devices []string
}

type spinnerTickMsg struct{}

// Spinner animation frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Model is the root Bubble Tea model
type Model struct {
	// Terminal dimensions
	width  int
	height int

	viewMode ViewMode

	// Collaborators, all constructed in cmd and injected here
	ctx     context.Context
	cfg     *config.Config
	ctrl    *chat.Controller
	logs    <-chan string
	devices <-chan []string

	// Session snapshot, refreshed on every controller update signal
	transcript model.Transcript
	state      model.SessionState

	// Peripherals
	deviceList []string
	logPanel   LogPanel

	// Input
	input        textinput.Model
	inputFocused bool

	// Output
	viewport viewport.Model

	// Transient error shown in the status bar
	alert string

	// Streaming indicator state
	spinnerIndex  int
	spinnerActive bool

	keys  KeyMap
	ready bool
}

// NewRootModel creates the root model around an already-wired controller.
func NewRootModel(ctx context.Context, cfg *config.Config, ctrl *chat.Controller, logs <-chan string, devices <-chan []string) Model {
	ti := textinput.New()
	ti.Placeholder = "Describe a phone task, or /help"
	ti.Prompt = "❯ "
	ti.PromptStyle = InputPromptStyle
	ti.CharLimit = 0
	ti.Width = 80
	ti.Focus()

	return Model{
		ctx:          ctx,
		cfg:          cfg,
		ctrl:         ctrl,
		logs:         logs,
		devices:      devices,
		input:        ti,
		inputFocused: true,
		logPanel:     NewLogPanel(),
		keys:         DefaultKeyMap(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForUpdate(),
		m.waitForLog(),
		m.waitForDevices(),
		m.loadHistoryCmd(),
	)
}

// waitForUpdate blocks until the controller signals a state change.
func (m Model) waitForUpdate() tea.Cmd {
	updates := m.ctrl.Updates()
	return func() tea.Msg {
		<-updates
		return sessionUpdateMsg{}
	}
}

// waitForLog blocks until the websocket tail delivers a line.
func (m Model) waitForLog() tea.Cmd {
	logs := m.logs
	return func() tea.Msg {
		line, ok := <-logs
		if !ok {
			return logClosedMsg{}
		}
		return logLineMsg{line: line}
	}
}

// waitForDevices blocks until the device poller publishes a snapshot.
func (m Model) waitForDevices() tea.Cmd {
	devices := m.devices
	return func() tea.Msg {
		return devicesMsg{devices: <-devices}
	}
}

func (m Model) loadHistoryCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return historyLoadedMsg{err: ctrl.LoadHistory(ctx)}
	}
}

func (m Model) sendCmd(req model.TaskRequest) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return sendResultMsg{err: ctrl.Send(ctx, req)}
	}
}

func (m Model) stopCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return stopResultMsg{err: ctrl.RequestStop(ctx)}
	}
}

func (m Model) clearCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return clearResultMsg{err: ctrl.ClearTranscript(ctx)}
	}
}

// spinnerTickCmd returns a fast tick command for spinner animation
func spinnerTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.refreshViewport()

	case sessionUpdateMsg:
		m.transcript, m.state = m.ctrl.Snapshot()
		m.refreshViewport()
		// Keep the spinner chain alive only while something is running.
		if (m.state.Loading || m.state.Stopping) && !m.spinnerActive {
			m.spinnerActive = true
			cmds = append(cmds, spinnerTickCmd())
		}
		cmds = append(cmds, m.waitForUpdate())

	case spinnerTickMsg:
		if m.state.Loading || m.state.Stopping {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			m.refreshViewport()
			cmds = append(cmds, spinnerTickCmd())
		} else {
			m.spinnerActive = false
		}

	case historyLoadedMsg:
		if msg.err != nil {
			m.alert = "Failed to load history: " + msg.err.Error()
		}

	case sendResultMsg:
		if msg.err != nil {
			m.alert = msg.err.Error()
		}

	case stopResultMsg:
		if msg.err != nil {
			m.alert = "Stop request failed: " + msg.err.Error()
		}

	case clearResultMsg:
		if msg.err != nil {
			m.alert = msg.err.Error()
		}

	case logLineMsg:
		m.logPanel.AddLine(msg.line)
		cmds = append(cmds, m.waitForLog())

	case logClosedMsg:
		// Tail shut down with the program; nothing to re-arm.

	case devicesMsg:
		m.deviceList = msg.devices
		cmds = append(cmds, m.waitForDevices())

	case tea.KeyMsg:
		// Ctrl+C always quits, regardless of state
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.alert = ""

		if m.inputFocused {
			switch msg.Type {
			case tea.KeyEnter:
				text := strings.TrimSpace(m.input.Value())
				if text == "" {
					return m, tea.Batch(cmds...)
				}
				m.input.SetValue("")
				cmd := m.execute(text)
				if cmd != nil {
					cmds = append(cmds, cmd)
				}
				return m, tea.Batch(cmds...)
			case tea.KeyEsc:
				m.inputFocused = false
				m.input.Blur()
				return m, tea.Batch(cmds...)
			default:
				var cmd tea.Cmd
				m.input, cmd = m.input.Update(msg)
				cmds = append(cmds, cmd)
				return m, tea.Batch(cmds...)
			}
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			if m.viewMode == ViewModeHelp {
				m.viewMode = ViewModeMain
			} else {
				m.viewMode = ViewModeHelp
			}
		case key.Matches(msg, m.keys.Escape):
			m.viewMode = ViewModeMain
		case key.Matches(msg, m.keys.Focus):
			m.inputFocused = true
			m.input.Focus()
			cmds = append(cmds, textinput.Blink)
		case key.Matches(msg, m.keys.Stop):
			cmds = append(cmds, m.stopCmd())
		case key.Matches(msg, m.keys.Logs):
			m.logPanel.Toggle()
			m.resize()
			m.refreshViewport()
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// execute interprets one line of input: either a slash command or a task.
func (m *Model) execute(text string) tea.Cmd {
	if !strings.HasPrefix(text, "/") {
		return m.sendCmd(model.TaskRequest{Message: text})
	}

	cmd, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case "/stop":
		return m.stopCmd()
	case "/clear":
		return m.clearCmd()
	case "/logs":
		m.logPanel.Toggle()
		m.resize()
		m.refreshViewport()
		return nil
	case "/help":
		m.viewMode = ViewModeHelp
		return nil
	case "/quit":
		return tea.Quit
	case "/new":
		if rest == "" {
			m.alert = "Usage: /new <task>"
			return nil
		}
		return m.sendCmd(model.TaskRequest{Message: rest, IsNewTask: true})
	case "/loop":
		countStr, task, _ := strings.Cut(rest, " ")
		count, err := strconv.Atoi(countStr)
		task = strings.TrimSpace(task)
		if err != nil || count < 1 || task == "" {
			m.alert = "Usage: /loop <n> <task>"
			return nil
		}
		return m.sendCmd(model.TaskRequest{Message: task, LoopCount: count})
	default:
		m.alert = "Unknown command: " + cmd
		return nil
	}
}

// resize recomputes the layout-dependent widget sizes.
func (m *Model) resize() {
	// Header (2), input (3), status bar (1)
	bodyHeight := m.height - 6
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	outputWidth := m.width
	if m.logPanel.Visible() {
		outputWidth -= logPanelWidth + 1
	}

	m.viewport.Width = outputWidth - 4 // borders and padding
	m.viewport.Height = bodyHeight - 2
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}

	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

const logPanelWidth = 44

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.viewMode == ViewModeHelp {
		return m.helpView()
	}
	return m.mainView()
}

// mainView renders the conversation screen
func (m Model) mainView() string {
	header := m.renderHeader()

	bodyHeight := m.height - 6
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	outputWidth := m.width
	if m.logPanel.Visible() {
		outputWidth -= logPanelWidth + 1
	}

	output := OutputStyle.
		Width(outputWidth - 2).
		Height(bodyHeight - 2).
		Render(m.viewport.View())

	body := output
	if m.logPanel.Visible() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, output, m.logPanel.Render(logPanelWidth, bodyHeight))
	}

	input := InputStyle.Width(m.width - 4).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		input,
		m.renderStatusBar(),
	)
}

// renderHeader renders the header bar
func (m Model) renderHeader() string {
	title := HeaderStyle.Render("AUTOGLM")
	subtitle := DimStyle.Render("Phone Agent Console")
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", subtitle) + "\n"
}

// renderStatusBar renders the bottom status line
func (m Model) renderStatusBar() string {
	var status string
	switch {
	case m.state.Stopping:
		status = StatusStoppingStyle.Render(
			spinnerFrames[m.spinnerIndex] + " Stopping " + formatElapsed(m.state.Elapsed))
	case m.state.Loading:
		status = StatusRunningStyle.Render(
			spinnerFrames[m.spinnerIndex] + " Running " + formatElapsed(m.state.Elapsed))
	default:
		status = StatusIdleStyle.Render("● Idle")
	}

	device := "no device"
	if len(m.deviceList) > 0 {
		device = m.deviceList[0]
		if len(m.deviceList) > 1 {
			device = fmt.Sprintf("%s (+%d)", device, len(m.deviceList)-1)
		}
	}

	parts := []string{status, DimStyle.Render(device), DimStyle.Render(m.cfg.ServerURL)}
	if m.alert != "" {
		parts = append(parts, ErrorStyle.Render(m.alert))
	}
	return StatusBarStyle.Render(strings.Join(parts, "  │  "))
}

// renderTranscript renders all messages for the viewport
func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return DimStyle.Render("No conversation yet.")
	}

	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}

	blocks := make([]string, 0, len(m.transcript))
	for i, msg := range m.transcript {
		inProgress := i == len(m.transcript)-1 &&
			msg.Role == model.RoleAssistant && !msg.Final() &&
			(m.state.Loading || m.state.Stopping)
		blocks = append(blocks, m.renderMessage(msg, width, inProgress))
	}
	return strings.Join(blocks, "\n\n")
}

// renderMessage renders one transcript entry
func (m Model) renderMessage(msg model.Message, width int, inProgress bool) string {
	var label, meta string
	style := AssistantStyle

	switch msg.Role {
	case model.RoleUser:
		label = UserLabelStyle.Render("You")
		style = UserStyle
	default:
		label = AssistantLabelStyle.Render("AutoGLM")
	}
	if msg.Time != "" {
		meta = msg.Time
		if msg.Duration != "" {
			meta += " · " + msg.Duration
		}
	}
	head := label
	if meta != "" {
		head += "  " + MetaStyle.Render(meta)
	}

	var lines []string
	lines = append(lines, head)
	if msg.Thinking != "" {
		lines = append(lines, ThinkingStyle.Width(width).Render(msg.Thinking))
	}
	if msg.Content != "" {
		lines = append(lines, lipgloss.NewStyle().Width(width).Render(msg.Content))
	}
	if inProgress && msg.Content == "" && msg.Thinking == "" {
		lines = append(lines, ThinkingStyle.Render(spinnerFrames[m.spinnerIndex]+" Working..."))
	}

	return style.Render(strings.Join(lines, "\n"))
}

// helpView renders the help overlay
func (m Model) helpView() string {
	rows := []struct{ cmd, desc string }{
		{"<task>", "Run a phone task (continues current context)"},
		{"/new <task>", "Start a task with a fresh agent context"},
		{"/loop <n> <task>", "Repeat a task n times, one after another"},
		{"/stop", "Ask the backend to stop the running task"},
		{"/clear", "Clear the conversation history"},
		{"/logs", "Toggle the live backend log panel"},
		{"/quit", "Exit"},
	}

	var b strings.Builder
	b.WriteString(HelpTitleStyle.Render("AUTOGLM TUI") + "\n\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%s  %s\n",
			HelpKeyStyle.Width(18).Render(r.cmd),
			HelpDescStyle.Render(r.desc)))
	}
	b.WriteString("\n" + DimStyle.Render("Keys: i focus · esc unfocus · s stop · l logs · ? close help · q quit"))

	help := HelpStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, help)
}

// formatElapsed renders seconds the same way the backend formats durations.
func formatElapsed(sec int) string {
	if sec < 60 {
		return fmt.Sprintf("%ds", sec)
	}
	return fmt.Sprintf("%dm %ds", sec/60, sec%60)
}
