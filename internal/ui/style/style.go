package style

import "github.com/charmbracelet/lipgloss"

var (
	Header      = lipgloss.NewStyle().Bold(true)
	ErrorBanner = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	Notice      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	Muted       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	Warning     = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)

	Button         = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	ButtonDisabled = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	Counter        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	Overlay = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("241")).
		Padding(0, 1)

	ErrorBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("1")).
		Foreground(lipgloss.Color("1")).
		Padding(1, 2)

	Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("250")).
		Bold(true)
)

// RenderButton draws a bracketed footer button, muted when disabled.
func RenderButton(label string, disabled bool) string {
	text := "[" + label + "]"
	if disabled {
		return ButtonDisabled.Render(text)
	}
	return Button.Render(text)
}
