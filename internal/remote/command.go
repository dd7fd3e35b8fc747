// Package remote exposes the presentation over HTTP: a JSON API that drives
// navigation, a websocket feed of the navigation state, and a follower page
// for a second screen.
package remote

import (
	"fmt"
	"strconv"
	"strings"
)

type CommandKind string

const (
	CmdNext       CommandKind = "next"
	CmdPrev       CommandKind = "prev"
	CmdFirst      CommandKind = "first"
	CmdLast       CommandKind = "last"
	CmdGoto       CommandKind = "goto"
	CmdHash       CommandKind = "hash"
	CmdFullscreen CommandKind = "fullscreen"
	CmdHelp       CommandKind = "help"
)

// Command is a navigation request from a remote client. Commands are
// executed on the UI event loop, never on the HTTP goroutine.
type Command struct {
	Kind  CommandKind `json:"command"`
	Slide int         `json:"slide,omitempty"`
	Hash  string      `json:"hash,omitempty"`
	// Client is the websocket client id, empty for plain HTTP.
	Client string `json:"-"`
}

// Dispatcher hands a command to whoever owns the controller.
type Dispatcher func(Command)

func (c Command) String() string {
	switch c.Kind {
	case CmdGoto:
		return fmt.Sprintf("goto %d", c.Slide)
	case CmdHash:
		return "hash " + c.Hash
	default:
		return string(c.Kind)
	}
}

// Validate checks a command against a deck of total slides.
func (c Command) Validate(total int) error {
	switch c.Kind {
	case CmdNext, CmdPrev, CmdFirst, CmdLast, CmdFullscreen, CmdHelp:
		return nil
	case CmdGoto:
		if c.Slide < 1 || c.Slide > total {
			return fmt.Errorf("slide %d out of range 1..%d", c.Slide, total)
		}
		return nil
	case CmdHash:
		if !strings.HasPrefix(c.Hash, "#") {
			return fmt.Errorf("hash %q must start with #", c.Hash)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", c.Kind)
	}
}

// ParseSlide parses a path segment as a 1-based slide number.
func ParseSlide(s string, total int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid slide number %q", s)
	}
	if n < 1 || n > total {
		return 0, fmt.Errorf("slide %d out of range 1..%d", n, total)
	}
	return n, nil
}
