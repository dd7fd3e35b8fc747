package helpview

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"

	"github.com/dloss/deckview/internal/ui/style"
)

// KeyMap lists the presenter's keys for the transient overlay.
type KeyMap struct {
	Prev       key.Binding
	Next       key.Binding
	First      key.Binding
	Last       key.Binding
	Jump       key.Binding
	Fullscreen key.Binding
	Overview   key.Binding
	Command    key.Binding
	Back       key.Binding
	Copy       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var Keys = KeyMap{
	Prev:       key.NewBinding(key.WithKeys("left", "up"), key.WithHelp("←/↑", "previous")),
	Next:       key.NewBinding(key.WithKeys("right", "down", " "), key.WithHelp("→/↓/space", "next")),
	First:      key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first")),
	Last:       key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last")),
	Jump:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "go to slide")),
	Fullscreen: key.NewBinding(key.WithKeys("f", "F"), key.WithHelp("f", "fullscreen")),
	Overview:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overview")),
	Command:    key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "go to #n")),
	Back:       key.NewBinding(key.WithKeys("backspace", "alt+left"), key.WithHelp("⌫", "history back")),
	Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
	Help:       key.NewBinding(key.WithKeys("?", "H"), key.WithHelp("?", "help")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.First, k.Last},
		{k.Jump, k.Fullscreen, k.Overview, k.Command},
		{k.Back, k.Copy, k.Help, k.Quit},
	}
}

// Overlay renders the key summary box shown over a slide.
func Overlay(width int) string {
	h := help.New()
	h.ShowAll = true
	if width > 4 {
		h.Width = width - 4
	}
	return style.Overlay.Render(h.View(Keys))
}
