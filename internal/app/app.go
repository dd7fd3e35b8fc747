package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/dloss/deckview/internal/config"
	"github.com/dloss/deckview/internal/deck"
	"github.com/dloss/deckview/internal/nav"
	"github.com/dloss/deckview/internal/remote"
	"github.com/dloss/deckview/internal/ui/commandbar"
	"github.com/dloss/deckview/internal/ui/helpview"
	"github.com/dloss/deckview/internal/ui/presenter"
	"github.com/dloss/deckview/internal/ui/slidepicker"
	"github.com/dloss/deckview/internal/ui/style"
	"github.com/dloss/deckview/internal/ui/viewstate"
	"github.com/dloss/deckview/internal/watch"
)

type Options struct {
	Deck    *deck.Deck
	Loader  *deck.Loader
	History *nav.History
	Config  *config.Config
	Logger  *log.Logger
	// AltScreen reports whether the terminal can show fullscreen.
	AltScreen bool
	// LinkBase prefixes copied slide links.
	LinkBase  string
	Clipboard func(string) error
}

type Model struct {
	deck       *deck.Deck
	history    *nav.History
	controller *nav.Controller
	effects    *effects
	presenter  *presenter.View
	logger     *log.Logger

	stack      []viewstate.View
	commandbar *commandbar.Model
	prompting  bool
	errorMsg   string
	notice     string

	linkBase  string
	clipboard func(string) error
	width     int
	height    int
}

func New(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	history := opts.History
	if history == nil {
		history = nav.NewHistory("")
	}
	loader := opts.Loader
	if loader == nil {
		loader = deck.NewLoader(cfg.ContainerClass)
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	fx := &effects{deck: opts.Deck, loader: loader, altScreen: opts.AltScreen}
	view := presenter.New(opts.Deck, presenter.Options{
		Style:    cfg.Style,
		WordWrap: cfg.WordWrap,
		Logger:   logger,
	})

	controller, err := nav.NewController(nav.Options{
		Total:          opts.Deck.Total(),
		Slides:         opts.Deck,
		Location:       history,
		Fullscreen:     fx,
		Scheduler:      fx,
		Fetcher:        fx,
		Surfaces:       []nav.Surface{view},
		Logger:         logger.WithPrefix("nav"),
		ReadyDelay:     cfg.ReadyDelayDuration(),
		EmptyDeckDelay: cfg.EmptyDeckDelayDuration(),
		HelpDuration:   cfg.HelpTimeout(),
	})
	if err != nil {
		return Model{}, fmt.Errorf("creating controller: %w", err)
	}
	for _, i := range opts.Deck.Missing() {
		logger.Warn("slide file missing", "slide", i, "err", deck.ErrMissingSlide)
	}
	for _, name := range opts.Deck.Ignored {
		logger.Warn("ignoring slide file past the deck limit", "file", name, "max", deck.MaxSlides)
	}
	controller.Init()

	return Model{
		deck:       opts.Deck,
		history:    history,
		controller: controller,
		effects:    fx,
		presenter:  view,
		logger:     logger,
		stack:      []viewstate.View{view},
		commandbar: commandbar.New(),
		linkBase:   opts.LinkBase,
		clipboard:  copyFn,
	}, nil
}

// AddSurface registers another renderer of the navigation state.
func (m Model) AddSurface(s nav.Surface) { m.controller.AddSurface(s) }

func (m Model) Controller() *nav.Controller { return m.controller }

func (m Model) Init() bubbletea.Cmd {
	return bubbletea.Batch(m.presenter.Init(), m.effects.drain())
}

func (m Model) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.controller.Refresh()
		return m.settle(nil)
	case scheduledMsg:
		msg.fn()
		return m.settle(nil)
	case contentLoadedMsg:
		m.applyContent(msg)
		return m.settle(nil)
	case remote.Command:
		m.runRemote(msg)
		return m.settle(nil)
	case watch.SlideChanged:
		if h := m.deck.Handle(msg.Index); h != nil && h.Requested {
			m.logger.Info("reloading slide", "slide", msg.Index)
			m.effects.Fetch(msg.Index)
		}
		return m.settle(nil)
	case slidepicker.SelectedMsg:
		m.controller.GoToSlide(msg.Slide, true)
		return m.settle(nil)
	case commandbar.SubmitMsg:
		return m.runCommand(msg.Value)
	case bubbletea.MouseMsg:
		if m.onPresenter() && m.clickedControl(msg) {
			return m.settle(nil)
		}
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, bubbletea.Quit
	}

	if m.prompting {
		// Typing into the prompt never moves slides.
		m.controller.HandleKey(keyFromTea(msg, true))
		_, cmd, done := m.commandbar.Update(msg)
		if done {
			m.prompting = false
			m.resize()
		}
		return m, cmd
	}

	m.errorMsg = ""
	m.notice = ""

	if !m.onPresenter() {
		if s, ok := m.top().(viewstate.KeySuppresser); ok && s.SuppressGlobalKeys() {
			return m.forward(msg)
		}
		if msg.String() == "q" {
			return m, bubbletea.Quit
		}
		return m.forward(msg)
	}

	switch msg.String() {
	case "q":
		return m, bubbletea.Quit
	case ":":
		m.prompting = true
		m.resize()
		return m, nil
	case "o":
		picker := slidepicker.New(m.deck.Titles(), m.controller.CurrentSlide())
		return m.push(picker)
	case "y":
		m.copyLink()
		return m, nil
	case "backspace", "alt+left":
		if m.history.Back() {
			m.controller.HandleHashChange()
		}
		return m.settle(nil)
	case "alt+right":
		if m.history.Forward() {
			m.controller.HandleHashChange()
		}
		return m.settle(nil)
	}

	if m.controller.HandleKey(keyFromTea(msg, false)) {
		return m.settle(nil)
	}
	return m.forward(msg)
}

// forward hands msg to the top view and applies its stack action.
func (m Model) forward(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	update := m.top().Update(msg)
	switch update.Action {
	case viewstate.Push:
		update.Next.SetSize(m.width, m.availableHeight())
		m.stack = append(m.stack, update.Next)
	case viewstate.Pop:
		if len(m.stack) > 1 {
			m.stack = m.stack[:len(m.stack)-1]
		}
	default:
		m.stack[len(m.stack)-1] = update.Next
	}
	return m, update.Cmd
}

func (m Model) push(v viewstate.View) (bubbletea.Model, bubbletea.Cmd) {
	m.stack = append(m.stack, v)
	m.resize()
	return m, v.Init()
}

// settle lays the views out again, since fullscreen changes the chrome, and
// flushes the commands the controller queued.
func (m Model) settle(cmd bubbletea.Cmd) (bubbletea.Model, bubbletea.Cmd) {
	m.resize()
	return m, bubbletea.Batch(cmd, m.effects.drain())
}

func (m Model) applyContent(msg contentLoadedMsg) {
	if msg.err != nil {
		m.logger.Error("loading slide failed", "slide", msg.slide, "err", msg.err)
	} else {
		m.logger.Debug("slide content ready", "slide", msg.slide, "title", msg.content.Title)
		for _, src := range msg.content.Scripts {
			m.logger.Info("slide references external script", "slide", msg.slide, "src", src)
		}
	}
	m.deck.MarkLoaded(msg.slide, msg.content, msg.err)
	m.presenter.Invalidate(msg.slide)
	// A failed load still counts as loaded, or a broken first slide would
	// keep the deck in the loading state forever.
	m.controller.ContentLoaded(msg.slide)
}

func (m Model) runRemote(cmd remote.Command) {
	m.logger.Debug("remote command", "command", cmd.String(), "client", cmd.Client)
	switch cmd.Kind {
	case remote.CmdNext:
		m.controller.NextSlide()
	case remote.CmdPrev:
		m.controller.PreviousSlide()
	case remote.CmdFirst:
		m.controller.Start()
	case remote.CmdLast:
		m.controller.End()
	case remote.CmdGoto:
		m.controller.GoToSlide(cmd.Slide, true)
	case remote.CmdHash:
		m.history.Push(cmd.Hash)
		m.controller.HandleHashChange()
	case remote.CmdFullscreen:
		m.controller.ToggleFullscreen()
	case remote.CmdHelp:
		m.controller.ToggleHelp()
	}
}

func (m Model) runCommand(value string) (bubbletea.Model, bubbletea.Cmd) {
	if value == "" {
		return m, nil
	}
	cmd, err := commandbar.Parse(value)
	if err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}

	switch cmd.Kind {
	case commandbar.KindHash:
		m.history.Push(cmd.Hash)
		if !m.controller.HandleHashChange() && cmd.Hash != fmt.Sprintf("#%d", m.controller.CurrentSlide()) {
			m.errorMsg = "no slide " + cmd.Hash
		}
	case commandbar.KindFirst:
		m.controller.Start()
	case commandbar.KindLast:
		m.controller.End()
	case commandbar.KindNext:
		m.controller.NextSlide()
	case commandbar.KindPrev:
		m.controller.PreviousSlide()
	case commandbar.KindHelp:
		return m.push(helpview.New())
	case commandbar.KindQuit:
		return m, bubbletea.Quit
	}
	return m.settle(nil)
}

func (m *Model) copyLink() {
	link := m.history.URL(m.linkBase)
	if m.history.Hash() == "" {
		link += fmt.Sprintf("#%d", m.controller.CurrentSlide())
	}
	if err := m.clipboard(link); err != nil {
		m.logger.Warn("copying link", "err", err)
		m.errorMsg = "clipboard unavailable"
		return
	}
	m.notice = "copied " + link
}

func (m Model) clickedControl(msg bubbletea.MouseMsg) bool {
	if msg.Action != bubbletea.MouseActionPress || msg.Button != bubbletea.MouseButtonLeft {
		return false
	}
	if msg.Y != m.controlsRow() {
		return false
	}
	switch m.presenter.ButtonAt(msg.X) {
	case presenter.ButtonPrev:
		m.controller.PreviousSlide()
	case presenter.ButtonNext:
		m.controller.NextSlide()
	case presenter.ButtonFullscreen:
		m.controller.ToggleFullscreen()
	default:
		return false
	}
	return true
}

func (m Model) View() string {
	if m.fullscreen() {
		body := fitLines(m.top().View(), m.availableHeight())
		return body + "\n" + m.top().Footer()
	}

	var sections []string
	if m.errorMsg != "" {
		sections = append(sections, style.ErrorBanner.Render(m.errorMsg))
	}
	sections = append(sections, m.header())
	sections = append(sections, fitLines(m.top().View(), m.availableHeight()))
	sections = append(sections, m.footer())
	return strings.Join(sections, "\n")
}

func (m Model) header() string {
	head := style.Header.Render(m.breadcrumb())
	if m.notice != "" {
		head += "  " + style.Notice.Render(m.notice)
	}
	return head
}

func (m Model) footer() string {
	footer := strings.TrimRight(m.top().Footer(), "\n")
	if !m.prompting {
		return footer
	}
	lines := strings.Split(footer, "\n")
	lines[len(lines)-1] = m.commandbar.View()
	return strings.Join(lines, "\n")
}

func (m Model) top() viewstate.View {
	return m.stack[len(m.stack)-1]
}

func (m Model) onPresenter() bool { return len(m.stack) == 1 }

func (m Model) fullscreen() bool {
	return m.onPresenter() && m.effects.Active()
}

func (m Model) breadcrumb() string {
	parts := []string{m.deck.Title}
	for _, view := range m.stack {
		if crumb := view.Breadcrumb(); crumb != "" {
			parts = append(parts, crumb)
		}
	}
	return strings.Join(parts, " > ")
}

func (m Model) chromeAbove() int {
	if m.fullscreen() {
		return 0
	}
	if m.errorMsg != "" {
		return 2
	}
	return 1
}

func (m Model) availableHeight() int {
	if m.height == 0 {
		return 0
	}
	height := m.height - m.chromeAbove() - lipgloss.Height(m.top().Footer())
	if height < 1 {
		return 1
	}
	return height
}

// controlsRow is the screen row of the presenter's button line, the first
// footer line under the body.
func (m Model) controlsRow() int {
	if m.fullscreen() {
		return -1
	}
	return m.chromeAbove() + m.availableHeight()
}

func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.availableHeight()
	for _, v := range m.stack {
		v.SetSize(m.width, h)
	}
	m.commandbar.SetSize(m.width)
}

// fitLines pads or clips s to exactly n lines.
func fitLines(s string, n int) string {
	if n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
