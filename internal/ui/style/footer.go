package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Binding represents a single key-label pair for the footer.
type Binding struct {
	Key   string
	Label string
}

// B is a shorthand constructor for Binding.
func B(key, label string) Binding {
	return Binding{Key: key, Label: label}
}

var (
	FooterKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	FooterLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// FormatBindings renders a list of bindings with styled keys and muted labels,
// separated by double spaces.
func FormatBindings(bindings []Binding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = FooterKey.Render(b.Key) + " " + FooterLabel.Render(b.Label)
	}
	return strings.Join(parts, "  ")
}

// FormatFooter renders bindings left-aligned with optional status text
// right-aligned. If width is 0, no right-alignment is applied.
func FormatFooter(bindings []Binding, status string, width int) string {
	left := FormatBindings(bindings)
	if status == "" || width == 0 {
		return left
	}
	right := FooterLabel.Render(status)
	leftW := ansi.StringWidth(left)
	rightW := ansi.StringWidth(right)
	gap := width - leftW - rightW
	if gap < 2 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// ActionFooter renders view-specific bindings followed by the global ones,
// truncated to width.
func ActionFooter(actions []Binding, width int) string {
	all := append(append([]Binding(nil), actions...), globalBindings...)
	line := FormatBindings(all)
	if width > 0 {
		line = ansi.Truncate(line, width-1, "…")
	}
	return line
}

var globalBindings = []Binding{
	{"o", "overview"},
	{":", "command"},
	{"?", "help"},
	{"q", "quit"},
}
