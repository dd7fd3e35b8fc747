// Package presenter is the slide view: the current slide rendered into a
// scrollable viewport, with a footer of navigation buttons, the slide
// counter and a progress bar.
package presenter

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/dloss/deckview/internal/deck"
	"github.com/dloss/deckview/internal/nav"
	"github.com/dloss/deckview/internal/ui/helpview"
	"github.com/dloss/deckview/internal/ui/style"
	"github.com/dloss/deckview/internal/ui/viewstate"
)

// Button identifies a clickable footer control.
type Button int

const (
	ButtonNone Button = iota
	ButtonPrev
	ButtonNext
	ButtonFullscreen
)

const (
	labelPrev       = "◀ prev"
	labelNext       = "next ▶"
	labelFullscreen = "⛶"
	labelWindowed   = "⤡"
	gap             = "  "
)

type Options struct {
	Style    string
	WordWrap int
	Logger   *log.Logger
}

type span struct {
	from, to int
	button   Button
}

// View renders slides from a deck. It is a nav.Surface and must only be
// used from the UI event loop.
type View struct {
	deck   *deck.Deck
	opts   Options
	logger *log.Logger

	viewport viewport.Model
	progress progress.Model
	spinner  spinner.Model

	snap   nav.Snapshot
	shown  int
	width  int
	height int

	renderer      *glamour.TermRenderer
	rendererWidth int
	cache         map[int]string
}

var _ nav.Surface = (*View)(nil)

func New(d *deck.Deck, opts Options) *View {
	if opts.Style == "" {
		opts.Style = "dark"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &View{
		deck:     d,
		opts:     opts,
		logger:   logger,
		viewport: viewport.New(0, 0),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
			progress.WithWidth(20),
		),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(style.Muted),
		),
		snap:  nav.Snapshot{Loading: true},
		cache: make(map[int]string),
	}
}

// Render implements nav.Surface.
func (v *View) Render(s nav.Snapshot) {
	v.snap = s
	if s.Current != v.shown {
		v.shown = s.Current
		v.refresh(true)
	}
}

// Invalidate drops the cached rendering of slide i, for reloaded content.
func (v *View) Invalidate(i int) {
	delete(v.cache, i)
	if i == v.shown {
		v.refresh(false)
	}
}

func (v *View) refresh(top bool) {
	v.viewport.SetContent(v.content(v.shown))
	if top {
		v.viewport.GotoTop()
	}
}

func (v *View) content(i int) string {
	h := v.deck.Handle(i)
	switch {
	case i == 0:
		return ""
	case h == nil:
		return style.Muted.Render(fmt.Sprintf("Slide %d is not available.", i))
	case !h.Loaded:
		return ""
	case errors.Is(h.Err, deck.ErrNoContainer):
		return style.ErrorBox.Render(fmt.Sprintf("No slide content found in %s.", filepath.Base(h.Path)))
	case h.Err != nil && h.Content.Markdown == "":
		return style.ErrorBox.Render(fmt.Sprintf("Slide %d could not be loaded.", i))
	}

	if out, ok := v.cache[i]; ok {
		return out
	}
	out := v.renderMarkdown(h.Content.Markdown)
	v.cache[i] = out
	return out
}

func (v *View) wrapWidth() int {
	w := v.width - 2
	if v.opts.WordWrap > 0 && (w <= 0 || v.opts.WordWrap < w) {
		w = v.opts.WordWrap
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (v *View) renderMarkdown(md string) string {
	w := v.wrapWidth()
	if v.renderer == nil || v.rendererWidth != w {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(w)}
		if v.opts.Style == "auto" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(v.opts.Style))
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			v.logger.Error("creating markdown renderer", "err", err)
			return md
		}
		v.renderer = r
		v.rendererWidth = w
	}
	out, err := v.renderer.Render(md)
	if err != nil {
		v.logger.Error("rendering slide", "slide", v.shown, "err", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (v *View) Init() bubbletea.Cmd { return v.spinner.Tick }

func (v *View) Update(msg bubbletea.Msg) viewstate.Update {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !v.snap.Loading {
			return viewstate.Update{Action: viewstate.None, Next: v}
		}
		var cmd bubbletea.Cmd
		v.spinner, cmd = v.spinner.Update(tick)
		return viewstate.Update{Action: viewstate.None, Next: v, Cmd: cmd}
	}

	updated, cmd := v.viewport.Update(msg)
	v.viewport = updated
	return viewstate.Update{Action: viewstate.None, Next: v, Cmd: cmd}
}

func (v *View) View() string {
	if v.snap.Loading {
		msg := v.spinner.View() + " Loading presentation…"
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, msg)
	}
	if v.snap.HelpVisible {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, helpview.Overlay(v.width))
	}
	return v.viewport.View()
}

func (v *View) Breadcrumb() string {
	if h := v.deck.Handle(v.shown); h != nil && h.Title != "" {
		return h.Title
	}
	if v.shown == 0 {
		return ""
	}
	return fmt.Sprintf("slide %d", v.shown)
}

// Footer is the controls line and the key bindings. In fullscreen only the
// progress bar remains.
func (v *View) Footer() string {
	if v.snap.Fullscreen {
		return v.progress.ViewAs(v.snap.Progress / 100)
	}
	controls, _ := v.controls()
	bindings := []style.Binding{style.B("←/→", "slide"), style.B("f", "fullscreen")}
	return controls + "\n" + style.ActionFooter(bindings, v.width)
}

func (v *View) controls() (string, []span) {
	fsLabel := labelFullscreen
	if v.snap.Fullscreen {
		fsLabel = labelWindowed
	}

	var b strings.Builder
	var spans []span
	x := 0
	add := func(s string, button Button) {
		w := ansi.StringWidth(s)
		if button != ButtonNone {
			spans = append(spans, span{from: x, to: x + w, button: button})
		}
		b.WriteString(s)
		x += w
	}

	add(style.RenderButton(labelPrev, v.snap.PrevDisabled), buttonIf(ButtonPrev, !v.snap.PrevDisabled))
	add(gap, ButtonNone)
	add(style.Counter.Render(v.snap.Counter), ButtonNone)
	add(gap, ButtonNone)
	add(style.RenderButton(labelNext, v.snap.NextDisabled), buttonIf(ButtonNext, !v.snap.NextDisabled))
	add(gap, ButtonNone)
	add(style.RenderButton(fsLabel, false), ButtonFullscreen)
	add(gap, ButtonNone)
	add(v.progress.ViewAs(v.snap.Progress/100), ButtonNone)
	return b.String(), spans
}

func buttonIf(b Button, enabled bool) Button {
	if enabled {
		return b
	}
	return ButtonNone
}

// ButtonAt reports the enabled button under column x of the controls line.
// Nothing is clickable while the presentation is loading.
func (v *View) ButtonAt(x int) Button {
	if v.snap.Loading || v.snap.Fullscreen {
		return ButtonNone
	}
	_, spans := v.controls()
	for _, s := range spans {
		if x >= s.from && x < s.to {
			return s.button
		}
	}
	return ButtonNone
}

func (v *View) SetSize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	if width != v.width {
		clear(v.cache)
	}
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = height
	v.progress.Width = min(30, max(10, width/4))
	if v.shown > 0 {
		v.refresh(false)
	}
}
