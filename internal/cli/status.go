package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

// status prints user-facing progress lines.
type status struct {
	w io.Writer
}

func newStatus(w io.Writer) *status {
	return &status{w: w}
}

func (s *status) info(msg string) {
	fmt.Fprintln(s.w, infoStyle.Render(msg))
}

func (s *status) success(msg string) {
	fmt.Fprintln(s.w, successStyle.Render(msg))
}

func (s *status) warn(msg string) {
	fmt.Fprintln(s.w, warnStyle.Render(msg))
}

func (s *status) errorLine(msg string) string {
	return errorStyle.Render(msg)
}

// reportedError marks an error already printed by the command.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }
