package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LogPanel manages the live backend log display fed by the websocket tail.
type LogPanel struct {
	visible bool
	lines   []string
	buffer  int // max lines to keep
}

// NewLogPanel creates a hidden log panel.
func NewLogPanel() LogPanel {
	return LogPanel{
		buffer: 200, // keep last 200 log lines
	}
}

// Toggle flips the panel's visibility.
func (l *LogPanel) Toggle() {
	l.visible = !l.visible
}

// Visible returns whether the panel is shown.
func (l *LogPanel) Visible() bool {
	return l.visible
}

// AddLine appends a received log line, dropping the oldest past the buffer.
func (l *LogPanel) AddLine(line string) {
	l.lines = append(l.lines, line)
	if len(l.lines) > l.buffer {
		l.lines = l.lines[len(l.lines)-l.buffer:]
	}
}

// Render renders the panel at the given size.
func (l *LogPanel) Render(width, height int) string {
	title := lipgloss.NewStyle().
		Foreground(ColorYellow).
		Bold(true).
		Render("LOGS")

	contentHeight := height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}

	var lines []string
	startIdx := 0
	if len(l.lines) > contentHeight {
		startIdx = len(l.lines) - contentHeight
	}
	for i := startIdx; i < len(l.lines); i++ {
		line := l.lines[i]
		maxLen := width - 4
		if maxLen < 10 {
			maxLen = 10
		}
		if len(line) > maxLen {
			line = line[:maxLen-3] + "..."
		}
		lines = append(lines, line)
	}

	for len(lines) < contentHeight {
		lines = append(lines, "")
	}

	content := DimStyle.Render(strings.Join(lines, "\n"))

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorYellow).
		Padding(0, 1).
		Render(title + "\n" + content)
}
