package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autoglm/tui-go/internal/chat"
	"github.com/autoglm/tui-go/internal/config"
	"github.com/autoglm/tui-go/internal/model"
)

// stubBackend satisfies the controller's backend with inert responses.
type stubBackend struct{}

func (stubBackend) SubmitTask(context.Context, model.TaskRequest) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (stubBackend) RunStatus(context.Context) (model.RunStatus, error) {
	return model.RunStatus{}, nil
}
func (stubBackend) Stop(context.Context) error { return nil }
func (stubBackend) History(context.Context) (model.Transcript, error) {
	return nil, nil
}
func (stubBackend) ClearHistory(context.Context) (model.Transcript, error) {
	return nil, nil
}

// Helper to create a test model with minimal initialization
func createTestModel() Model {
	ctrl := chat.NewController(stubBackend{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := NewRootModel(context.Background(), config.DefaultConfig(), ctrl, make(chan string), make(chan []string))
	m.ready = true
	m.width = 120
	m.height = 40
	m.resize()
	return m
}

func TestWindowSizeMarksReady(t *testing.T) {
	ctrl := chat.NewController(stubBackend{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := NewRootModel(context.Background(), config.DefaultConfig(), ctrl, make(chan string), make(chan []string))
	if m.ready {
		t.Fatal("model should not be ready before the first resize")
	}

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = newModel.(Model)

	if !m.ready {
		t.Error("expected ready=true after WindowSizeMsg")
	}
	if m.viewport.Height < 1 {
		t.Errorf("viewport height must stay positive, got %d", m.viewport.Height)
	}
}

func TestExecutePlainTextSubmitsTask(t *testing.T) {
	m := createTestModel()
	cmd := m.execute("帮我打开相机")
	if cmd == nil {
		t.Error("plain text input should produce a send command")
	}
	if m.alert != "" {
		t.Errorf("unexpected alert: %q", m.alert)
	}
}

func TestExecuteHelpSwitchesView(t *testing.T) {
	m := createTestModel()
	if cmd := m.execute("/help"); cmd != nil {
		t.Error("/help should not produce a command")
	}
	if m.viewMode != ViewModeHelp {
		t.Errorf("expected help view, got %v", m.viewMode)
	}
}

func TestExecuteLogsTogglesPanel(t *testing.T) {
	m := createTestModel()
	m.execute("/logs")
	if !m.logPanel.Visible() {
		t.Error("expected log panel visible after /logs")
	}
	m.execute("/logs")
	if m.logPanel.Visible() {
		t.Error("expected log panel hidden after second /logs")
	}
}

func TestExecuteNewRequiresTask(t *testing.T) {
	m := createTestModel()
	if cmd := m.execute("/new"); cmd != nil {
		t.Error("/new without a task should not produce a command")
	}
	if m.alert == "" {
		t.Error("expected usage alert for bare /new")
	}

	m.alert = ""
	if cmd := m.execute("/new 打开相机"); cmd == nil {
		t.Error("/new with a task should produce a send command")
	}
}

func TestExecuteLoopValidatesArguments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantCmd bool
	}{
		{"valid", "/loop 3 打开相机", true},
		{"missing task", "/loop 3", false},
		{"missing count", "/loop 打开相机", false},
		{"zero count", "/loop 0 打开相机", false},
		{"negative count", "/loop -1 打开相机", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := createTestModel()
			cmd := m.execute(tt.input)
			if tt.wantCmd && cmd == nil {
				t.Error("expected a send command")
			}
			if !tt.wantCmd {
				if cmd != nil {
					t.Error("expected no command for invalid arguments")
				}
				if m.alert == "" {
					t.Error("expected usage alert")
				}
			}
		})
	}
}

func TestExecuteUnknownCommandAlerts(t *testing.T) {
	m := createTestModel()
	if cmd := m.execute("/frobnicate"); cmd != nil {
		t.Error("unknown command should not produce a command")
	}
	if !strings.Contains(m.alert, "/frobnicate") {
		t.Errorf("alert should name the unknown command, got %q", m.alert)
	}
}

func TestEnterClearsInputAndSubmits(t *testing.T) {
	m := createTestModel()
	m.inputFocused = true
	m.input.SetValue("打开相机")

	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(Model)

	if m.input.Value() != "" {
		t.Errorf("input should be cleared after submit, got %q", m.input.Value())
	}
	if cmd == nil {
		t.Error("expected a command from submitting input")
	}
}

func TestEnterOnEmptyInputDoesNothing(t *testing.T) {
	m := createTestModel()
	m.inputFocused = true
	m.input.SetValue("   ")

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(Model)

	if m.alert != "" {
		t.Errorf("blank submit should not alert, got %q", m.alert)
	}
}

func TestEscapeUnfocusesInput(t *testing.T) {
	m := createTestModel()
	m.inputFocused = true

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = newModel.(Model)

	if m.inputFocused {
		t.Error("expected input unfocused after escape")
	}
}

func TestSpinnerArmsOnceWhileRunning(t *testing.T) {
	m := createTestModel()
	m.ctrl.ApplyRunStatus(context.Background(), model.RunStatus{Running: true})
	// Drain the pending update signal the way the running program would.
	<-m.ctrl.Updates()

	newModel, cmd := m.Update(sessionUpdateMsg{})
	m = newModel.(Model)
	if !m.spinnerActive {
		t.Fatal("expected spinner armed while loading")
	}
	if cmd == nil {
		t.Fatal("expected spinner tick plus update re-arm")
	}

	// A second update signal must not start a second tick chain.
	newModel, _ = m.Update(sessionUpdateMsg{})
	m = newModel.(Model)
	if !m.spinnerActive {
		t.Error("spinner should remain armed")
	}
}

func TestSpinnerStopsWhenIdle(t *testing.T) {
	m := createTestModel()
	m.spinnerActive = true
	m.state = model.SessionState{}

	newModel, cmd := m.Update(spinnerTickMsg{})
	m = newModel.(Model)

	if m.spinnerActive {
		t.Error("spinner should disarm once the session is idle")
	}
	if cmd != nil {
		t.Error("idle spinner tick should not re-arm")
	}
}

func TestLogLinesReachThePanel(t *testing.T) {
	m := createTestModel()
	m.logPanel.Toggle()

	newModel, cmd := m.Update(logLineMsg{line: "INFO agent started"})
	m = newModel.(Model)

	if cmd == nil {
		t.Error("log line handling must re-arm the log wait")
	}
	if !strings.Contains(m.logPanel.Render(44, 20), "INFO agent started") {
		t.Error("expected the log line in the rendered panel")
	}
}

func TestStatusBarShowsDeviceSummary(t *testing.T) {
	m := createTestModel()

	newModel, cmd := m.Update(devicesMsg{devices: []string{"emulator-5554", "R5CT12ABCDE", "R5CT99ZZZZZ"}})
	m = newModel.(Model)

	if cmd == nil {
		t.Error("device handling must re-arm the device wait")
	}
	bar := m.renderStatusBar()
	if !strings.Contains(bar, "emulator-5554") {
		t.Errorf("status bar should show the first device, got %q", bar)
	}
	if !strings.Contains(bar, "(+2)") {
		t.Errorf("status bar should count extra devices, got %q", bar)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		sec  int
		want string
	}{
		{0, "0s"},
		{59, "59s"},
		{60, "1m 0s"},
		{125, "2m 5s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.sec); got != tt.want {
			t.Errorf("formatElapsed(%d) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}
