// Package slidepicker is the overview overlay: a filterable list of slide
// titles.
package slidepicker

import (
	"fmt"
	"strings"
	"unicode"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dloss/deckview/internal/ui/style"
	"github.com/dloss/deckview/internal/ui/viewstate"
)

// SelectedMsg is emitted as a Cmd when the user confirms a slide.
type SelectedMsg struct {
	Slide int
}

type item struct {
	slide int
	label string
}

type Picker struct {
	items  []item
	filter string
	cursor int
	width  int
	height int
}

// New lists titles[i] as slide i+1 with the cursor on current.
func New(titles []string, current int) *Picker {
	items := make([]item, len(titles))
	for i, t := range titles {
		items[i] = item{slide: i + 1, label: fmt.Sprintf("%3d  %s", i+1, t)}
	}
	p := &Picker{items: items}
	if current >= 1 && current <= len(items) {
		p.cursor = current - 1
	}
	return p
}

func (p *Picker) SetSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *Picker) SuppressGlobalKeys() bool { return true }

func (p *Picker) filtered() []item {
	if p.filter == "" {
		return p.items
	}
	lower := strings.ToLower(p.filter)
	var result []item
	for _, it := range p.items {
		if strings.Contains(strings.ToLower(it.label), lower) {
			result = append(result, it)
		}
	}
	return result
}

func (p *Picker) clampCursor(list []item) {
	if len(list) == 0 {
		p.cursor = 0
		return
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(list) {
		p.cursor = len(list) - 1
	}
}

func (p *Picker) Init() bubbletea.Cmd { return nil }

func (p *Picker) Update(msg bubbletea.Msg) viewstate.Update {
	key, ok := msg.(bubbletea.KeyMsg)
	if !ok {
		return viewstate.Update{Action: viewstate.None, Next: p}
	}

	filtered := p.filtered()

	switch key.String() {
	case "esc":
		return viewstate.Update{Action: viewstate.Pop}
	case "enter":
		if len(filtered) > 0 {
			p.clampCursor(filtered)
			slide := filtered[p.cursor].slide
			return viewstate.Update{
				Action: viewstate.Pop,
				Cmd: func() bubbletea.Msg {
					return SelectedMsg{Slide: slide}
				},
			}
		}
		return viewstate.Update{Action: viewstate.Pop}
	case "up":
		p.cursor--
		p.clampCursor(filtered)
	case "down":
		p.cursor++
		p.clampCursor(filtered)
	case "home":
		p.cursor = 0
	case "end":
		p.cursor = len(filtered) - 1
		p.clampCursor(filtered)
	case "backspace", "ctrl+h":
		runes := []rune(p.filter)
		if len(runes) > 0 {
			p.filter = string(runes[:len(runes)-1])
			p.cursor = 0
			p.clampCursor(p.filtered())
		}
	default:
		if key.Type == bubbletea.KeyRunes {
			for _, r := range key.Runes {
				if unicode.IsPrint(r) {
					p.filter += string(r)
					p.cursor = 0
				}
			}
		}
	}

	return viewstate.Update{Action: viewstate.None, Next: p}
}

func (p *Picker) View() string {
	filtered := p.filtered()
	p.clampCursor(filtered)

	boxWidth := p.width - 4
	if boxWidth < 24 {
		boxWidth = 24
	}
	if boxWidth > 60 {
		boxWidth = 60
	}
	innerWidth := boxWidth - 2

	maxItems := p.height - 6
	if maxItems < 1 {
		maxItems = 1
	}

	var lines []string
	lines = append(lines, style.Header.Render("  slides  "))
	lines = append(lines, "> "+p.filter)
	lines = append(lines, strings.Repeat("─", innerWidth))

	start := 0
	if p.cursor >= maxItems {
		start = p.cursor - maxItems + 1
	}
	end := start + maxItems
	if end > len(filtered) {
		end = len(filtered)
	}
	if start > end {
		start = end
	}

	for i := start; i < end; i++ {
		label := filtered[i].label
		if len([]rune(label)) > innerWidth-2 {
			label = string([]rune(label)[:innerWidth-3]) + "…"
		}
		if i == p.cursor {
			lines = append(lines, style.Selected.Render(" "+label+" "))
		} else {
			lines = append(lines, " "+label)
		}
	}

	if len(filtered) == 0 {
		lines = append(lines, style.Muted.Render("  no matches"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("241")).
		Width(innerWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
}

func (p *Picker) Breadcrumb() string { return "overview" }

// Footer shows the picker keys with the match count on the right.
func (p *Picker) Footer() string {
	status := fmt.Sprintf("%d of %d slides", len(p.filtered()), len(p.items))
	return "\n" + style.FormatFooter([]style.Binding{
		style.B("↑/↓", "move"), style.B("enter", "go"), style.B("esc", "close"),
	}, status, p.width)
}
