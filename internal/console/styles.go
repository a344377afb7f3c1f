package console

import "github.com/charmbracelet/lipgloss"

var (
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Success renders text in green.
func Success(text string) string { return successStyle.Render(text) }

// Warn renders text in bold yellow, used for failures that will be retried.
func Warn(text string) string { return warnStyle.Render(text) }

// Fail renders text in bold red.
func Fail(text string) string { return failStyle.Render(text) }

// Highlight renders text in bold green.
func Highlight(text string) string { return highlightStyle.Render(text) }

// Muted renders text in grey.
func Muted(text string) string { return mutedStyle.Render(text) }
