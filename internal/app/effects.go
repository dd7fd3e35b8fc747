package app

import (
	"context"
	"errors"
	"time"

	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/dloss/deckview/internal/deck"
)

var errNoAltScreen = errors.New("terminal does not support fullscreen")

// scheduledMsg runs a deferred controller callback on the event loop.
type scheduledMsg struct{ fn func() }

// contentLoadedMsg carries a finished slide load back to the event loop.
type contentLoadedMsg struct {
	slide   int
	content deck.Content
	err     error
}

// effects adapts the controller's collaborators to bubbletea: timers,
// fullscreen and fetches become commands collected here and returned from
// the next Update.
type effects struct {
	deck   *deck.Deck
	loader *deck.Loader

	altScreen  bool
	fullscreen bool
	pending    []bubbletea.Cmd
}

func (e *effects) After(d time.Duration, fn func()) {
	e.pending = append(e.pending, bubbletea.Tick(d, func(time.Time) bubbletea.Msg {
		return scheduledMsg{fn: fn}
	}))
}

func (e *effects) Active() bool { return e.fullscreen }

func (e *effects) Enter() error {
	if !e.altScreen {
		return errNoAltScreen
	}
	e.fullscreen = true
	e.pending = append(e.pending, bubbletea.EnterAltScreen)
	return nil
}

func (e *effects) Exit() error {
	if !e.fullscreen {
		return nil
	}
	e.fullscreen = false
	e.pending = append(e.pending, bubbletea.ExitAltScreen)
	return nil
}

func (e *effects) Fetch(i int) {
	path, err := e.deck.Path(i)
	if err != nil {
		e.pending = append(e.pending, func() bubbletea.Msg {
			return contentLoadedMsg{slide: i, err: err}
		})
		return
	}
	loader := e.loader
	e.pending = append(e.pending, func() bubbletea.Msg {
		content, err := loader.Load(context.Background(), path)
		return contentLoadedMsg{slide: i, content: content, err: err}
	})
}

func (e *effects) drain() bubbletea.Cmd {
	if len(e.pending) == 0 {
		return nil
	}
	cmds := e.pending
	e.pending = nil
	return bubbletea.Batch(cmds...)
}
