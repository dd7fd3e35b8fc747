// Package commandbar is the ":" prompt: a one-line text input for jumping to
// a location or running a short command.
package commandbar

import (
	"fmt"
	"strconv"
	"strings"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/dloss/deckview/internal/ui/style"
)

type SubmitMsg struct{ Value string }

type Kind int

const (
	KindHash Kind = iota
	KindFirst
	KindLast
	KindNext
	KindPrev
	KindHelp
	KindQuit
)

// Command is a parsed prompt entry.
type Command struct {
	Kind Kind
	Hash string
}

var words = map[string]Kind{
	"first": KindFirst,
	"last":  KindLast,
	"next":  KindNext,
	"n":     KindNext,
	"prev":  KindPrev,
	"p":     KindPrev,
	"help":  KindHelp,
	"q":     KindQuit,
	"quit":  KindQuit,
}

// Parse turns prompt input into a command. "#7" and "7" both become the
// location hash "#7"; the hash is passed on verbatim so the navigation layer
// decides whether it names a slide.
func Parse(value string) (Command, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Command{}, fmt.Errorf("empty command")
	}
	if strings.HasPrefix(value, "#") {
		return Command{Kind: KindHash, Hash: value}, nil
	}
	if _, err := strconv.Atoi(value); err == nil {
		return Command{Kind: KindHash, Hash: "#" + value}, nil
	}
	if kind, ok := words[strings.ToLower(value)]; ok {
		return Command{Kind: kind}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", value)
}

type Model struct {
	input   string
	error   string
	history []string
	idx     int
	width   int
}

func New() *Model { return &Model{idx: -1} }

func (m *Model) SetSize(width int)   { m.width = width }
func (m *Model) SetError(err string) { m.error = err }

// Update handles a key and reports whether the prompt should close.
func (m *Model) Update(msg bubbletea.KeyMsg) (*Model, bubbletea.Cmd, bool) {
	switch msg.String() {
	case "esc":
		m.input = ""
		m.error = ""
		m.idx = -1
		return m, nil, true
	case "enter":
		val := strings.TrimSpace(m.input)
		if val != "" {
			m.history = append(m.history, val)
		}
		m.idx = -1
		m.input = ""
		m.error = ""
		return m, func() bubbletea.Msg { return SubmitMsg{Value: val} }, true
	case "backspace", "ctrl+h":
		r := []rune(m.input)
		if len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case "up":
		if len(m.history) == 0 {
			return m, nil, false
		}
		if m.idx == -1 {
			m.idx = len(m.history) - 1
		} else if m.idx > 0 {
			m.idx--
		}
		m.input = m.history[m.idx]
	case "down":
		if len(m.history) == 0 || m.idx == -1 {
			return m, nil, false
		}
		if m.idx < len(m.history)-1 {
			m.idx++
			m.input = m.history[m.idx]
		} else {
			m.idx = -1
			m.input = ""
		}
	default:
		switch msg.Type {
		case bubbletea.KeyRunes:
			m.input += string(msg.Runes)
		case bubbletea.KeySpace:
			m.input += " "
		}
	}
	return m, nil, false
}

func (m *Model) Input() string { return m.input }

func (m *Model) View() string {
	line := ": " + m.input
	if m.error != "" {
		line += strings.Repeat(" ", 2) + style.Warning.Render(m.error)
	}
	line += "█"
	if m.width > 0 {
		line = ansi.Truncate(line, m.width-1, "…")
	}
	return line
}
