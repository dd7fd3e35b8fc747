package helpview

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/dloss/deckview/internal/ui/style"
	"github.com/dloss/deckview/internal/ui/viewstate"
)

var helpText = strings.TrimSpace(`
SLIDES
  left / up            Previous slide
  right / down / space Next slide
  home / end           First / last slide
  1 .. 9               Slide by number (within the deck)
  f                    Fullscreen on/off
  esc                  Leave fullscreen
  ? / H                Key overlay (hides itself)
  j / k                Scroll a long slide
  pgup / pgdn          Page a long slide

LOCATION
  :                    Command prompt
  :#7  or  :7          Go to slide 7 through the location
  :first  :last        First / last slide
  :next  :prev         Next / previous slide
  :help                This help
  backspace / alt+left History back
  alt+right            History forward
  y                    Copy link to this slide

OVERVIEW
  o                    Slide list
  type                 Filter by title
  up / down            Move
  enter                Go to slide
  esc                  Close

MOUSE
  [◀ prev] [next ▶]    Previous / next slide
  [⛶]                  Fullscreen
  wheel                Scroll

APP
  q / ctrl+c           Quit
`)

type View struct {
	viewport viewport.Model
}

func New() *View {
	vp := viewport.New(0, 0)
	vp.SetContent(helpText)
	return &View{viewport: vp}
}

func (v *View) Init() bubbletea.Cmd { return nil }

func (v *View) Update(msg bubbletea.Msg) viewstate.Update {
	if key, ok := msg.(bubbletea.KeyMsg); ok && key.String() == "esc" {
		return viewstate.Update{Action: viewstate.Pop}
	}
	updated, cmd := v.viewport.Update(msg)
	v.viewport = updated
	return viewstate.Update{Action: viewstate.None, Next: v, Cmd: cmd}
}

func (v *View) View() string {
	return v.viewport.View()
}

func (v *View) Breadcrumb() string {
	return "help"
}

func (v *View) Footer() string {
	line1 := ""
	line2 := style.ActionFooter([]style.Binding{style.B("esc", "back")}, v.viewport.Width)
	return line1 + "\n" + line2
}

func (v *View) SetSize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	v.viewport.Width = width
	v.viewport.Height = height
}
