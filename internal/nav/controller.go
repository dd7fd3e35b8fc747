package nav

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Slides is the ordered set of slide handles, addressed 1..Total. Methods
// report false when no handle exists at an index; the index space does not
// shrink when handles are missing.
type Slides interface {
	// First returns the lowest index that has a handle, or 0 if none do.
	First() int
	Activate(i int) bool
	Deactivate(i int) bool
	// AssignSource gives the handle its content source unless it already has
	// one. It reports whether a new source was assigned.
	AssignSource(i int) bool
}

// Fetcher starts loading a slide's content. It must not block; completion is
// reported back through Controller.ContentLoaded.
type Fetcher interface {
	Fetch(i int)
}

type Fullscreen interface {
	Active() bool
	Enter() error
	Exit() error
}

// Scheduler runs fn after d on the same event loop that drives the
// controller.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Surface receives every UI state change.
type Surface interface {
	Render(Snapshot)
}

// Snapshot is the derived view state pushed to surfaces.
type Snapshot struct {
	Current      int     `json:"current"`
	Total        int     `json:"total"`
	Progress     float64 `json:"progress"`
	Counter      string  `json:"counter"`
	PrevDisabled bool    `json:"prev_disabled"`
	NextDisabled bool    `json:"next_disabled"`
	Fullscreen   bool    `json:"fullscreen"`
	Loading      bool    `json:"loading"`
	HelpVisible  bool    `json:"help_visible"`
	Hash         string  `json:"hash"`
}

const (
	DefaultReadyDelay     = 500 * time.Millisecond
	DefaultEmptyDeckDelay = 1000 * time.Millisecond
	DefaultHelpDuration   = 3000 * time.Millisecond
)

type Options struct {
	Total      int
	Slides     Slides
	Location   Location
	Fullscreen Fullscreen
	Scheduler  Scheduler
	Fetcher    Fetcher
	Surfaces   []Surface
	Logger     *log.Logger

	ReadyDelay     time.Duration
	EmptyDeckDelay time.Duration
	HelpDuration   time.Duration
}

// Controller owns the current slide and keeps every surface, the location
// and the slide handles consistent with it. No method returns an error:
// rejected moves and collaborator failures are logged and absorbed.
type Controller struct {
	state      State
	slides     Slides
	location   Location
	fullscreen Fullscreen
	scheduler  Scheduler
	fetcher    Fetcher
	surfaces   []Surface
	logger     *log.Logger

	readyDelay     time.Duration
	emptyDeckDelay time.Duration
	helpDuration   time.Duration

	first        int
	readyPending bool
	helpVisible  bool
	helpGen      int
}

func NewController(opts Options) (*Controller, error) {
	state, err := NewState(opts.Total)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		state:          state,
		slides:         opts.Slides,
		location:       opts.Location,
		fullscreen:     opts.Fullscreen,
		scheduler:      opts.Scheduler,
		fetcher:        opts.Fetcher,
		surfaces:       opts.Surfaces,
		logger:         opts.Logger,
		readyDelay:     opts.ReadyDelay,
		emptyDeckDelay: opts.EmptyDeckDelay,
		helpDuration:   opts.HelpDuration,
	}
	if c.slides == nil {
		c.slides = noSlides{}
	}
	if c.location == nil {
		c.location = NewHistory("")
	}
	if c.fullscreen == nil {
		c.fullscreen = noFullscreen{}
	}
	if c.scheduler == nil {
		c.scheduler = immediate{}
	}
	if c.fetcher == nil {
		c.fetcher = noFetch{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.readyDelay <= 0 {
		c.readyDelay = DefaultReadyDelay
	}
	if c.emptyDeckDelay <= 0 {
		c.emptyDeckDelay = DefaultEmptyDeckDelay
	}
	if c.helpDuration <= 0 {
		c.helpDuration = DefaultHelpDuration
	}
	return c, nil
}

// AddSurface registers another surface and brings it up to date.
func (c *Controller) AddSurface(s Surface) {
	c.surfaces = append(c.surfaces, s)
	s.Render(c.Snapshot())
}

// Init shows slide 1, requests the content needed to leave Loading, applies
// the initial location hash and starts the empty-deck fallback timer when no
// slide handles exist.
func (c *Controller) Init() {
	c.first = c.slides.First()
	if !c.slides.Activate(c.state.Current) {
		c.logger.Warn("slide not found", "slide", c.state.Current)
	}
	c.requestSource(c.state.Current)
	if c.first > 0 {
		c.requestSource(c.first)
	}

	c.HandleHashChange()
	c.sync()

	if c.first == 0 {
		c.logger.Warn("no slides found, leaving loading state on timer", "delay", c.emptyDeckDelay)
		c.scheduler.After(c.emptyDeckDelay, c.markReady)
	}
}

// ContentLoaded is the load signal of slide i. The first slide's signal ends
// the Loading phase after the ready delay.
func (c *Controller) ContentLoaded(i int) {
	c.logger.Debug("slide loaded", "slide", i)
	if i != c.first || c.state.Phase != Loading || c.readyPending {
		return
	}
	c.readyPending = true
	c.scheduler.After(c.readyDelay, c.markReady)
}

func (c *Controller) markReady() {
	if c.state.Phase == Ready {
		return
	}
	c.state.Phase = Ready
	c.logger.Info("loading completed", "slides", c.state.Total)
	c.sync()
}

// GoToSlide moves to slide n. It reports whether the move happened; an index
// out of range or equal to the current one is logged and ignored. When
// updateURL is set the new index is pushed onto the location.
func (c *Controller) GoToSlide(n int, updateURL bool) bool {
	next, err := c.state.Goto(n)
	if err != nil {
		c.logger.Debug("navigation ignored", "err", err)
		return false
	}
	prev := c.state.Current
	c.logger.Debug("changing slide", "from", prev, "to", n)

	if !c.slides.Deactivate(prev) {
		c.logger.Warn("slide not found", "slide", prev)
	}
	c.state = next
	c.requestSource(n)
	if !c.slides.Activate(n) {
		c.logger.Warn("slide not found", "slide", n)
	}

	if updateURL {
		c.location.Push(strconv.Itoa(n))
	}
	c.sync()
	c.onSlideChange(n)
	return true
}

func (c *Controller) NextSlide() bool {
	if _, err := c.state.Next(); err != nil {
		c.logger.Debug("next ignored", "err", err, "slide", c.state.Current)
		return false
	}
	return c.GoToSlide(c.state.Current+1, true)
}

func (c *Controller) PreviousSlide() bool {
	if _, err := c.state.Prev(); err != nil {
		c.logger.Debug("previous ignored", "err", err, "slide", c.state.Current)
		return false
	}
	return c.GoToSlide(c.state.Current-1, true)
}

// Start jumps to the first slide.
func (c *Controller) Start() bool { return c.GoToSlide(1, true) }

// End jumps to the last slide.
func (c *Controller) End() bool { return c.GoToSlide(c.state.Total, true) }

// HandleHashChange re-reads the location and follows it without writing it
// back. Empty, malformed and out-of-range fragments are ignored.
func (c *Controller) HandleHashChange() bool {
	n, ok := parseHash(c.location.Hash())
	if !ok || !c.state.Valid(n) {
		return false
	}
	return c.GoToSlide(n, false)
}

// HandleKey reacts to a keydown and reports whether the key was consumed.
// Keys are ignored entirely while loading and while typing into a text input.
func (c *Controller) HandleKey(k Key) bool {
	if c.state.Phase == Loading {
		c.logger.Debug("still loading, ignoring key", "code", k.Code)
		return false
	}
	if k.TextInput {
		return false
	}

	switch k.Code {
	case CodeArrowLeft, CodeArrowUp:
		c.PreviousSlide()
		return true
	case CodeArrowRight, CodeArrowDown, CodeSpace:
		c.NextSlide()
		return true
	case CodeHome:
		c.GoToSlide(1, true)
		return true
	case CodeEnd:
		c.GoToSlide(c.state.Total, true)
		return true
	case CodeKeyF:
		if !k.Ctrl && !k.Meta {
			c.ToggleFullscreen()
			return true
		}
	case CodeEscape:
		if c.fullscreen.Active() {
			c.exitFullscreen()
			return true
		}
	case CodeSlash, CodeKeyH:
		if k.Shift {
			c.ToggleHelp()
			return true
		}
	}

	if d, ok := k.digit(); ok && d >= 1 && d <= 9 && d <= c.state.Total {
		c.GoToSlide(d, true)
		return true
	}
	return false
}

func (c *Controller) ToggleFullscreen() {
	if c.fullscreen.Active() {
		c.exitFullscreen()
		return
	}
	if err := c.fullscreen.Enter(); err != nil {
		c.logger.Warn("fullscreen request failed", "err", err)
	}
	c.sync()
}

func (c *Controller) exitFullscreen() {
	if err := c.fullscreen.Exit(); err != nil {
		c.logger.Warn("fullscreen exit failed", "err", err)
	}
	c.sync()
}

// ToggleHelp flips the help overlay. A shown overlay hides itself after the
// help duration unless it was toggled again in between.
func (c *Controller) ToggleHelp() {
	c.helpVisible = !c.helpVisible
	c.helpGen++
	gen := c.helpGen
	c.sync()
	c.scheduler.After(c.helpDuration, func() {
		if c.helpGen == gen && c.helpVisible {
			c.helpVisible = false
			c.sync()
		}
	})
}

// Refresh re-pushes the current snapshot, for resize and fullscreen-change
// events that alter presentation but not state.
func (c *Controller) Refresh() { c.sync() }

func (c *Controller) CurrentSlide() int { return c.state.Current }
func (c *Controller) TotalSlides() int  { return c.state.Total }
func (c *Controller) Loading() bool     { return c.state.Phase == Loading }
func (c *Controller) State() State      { return c.state }

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Current:      c.state.Current,
		Total:        c.state.Total,
		Progress:     c.state.Progress(),
		Counter:      c.state.Counter(),
		PrevDisabled: c.state.PrevDisabled(),
		NextDisabled: c.state.NextDisabled(),
		Fullscreen:   c.fullscreen.Active(),
		Loading:      c.state.Phase == Loading,
		HelpVisible:  c.helpVisible,
		Hash:         c.location.Hash(),
	}
}

func (c *Controller) sync() {
	snap := c.Snapshot()
	for _, s := range c.surfaces {
		s.Render(snap)
	}
}

// onSlideChange prefetches the slide after n, and only that one.
func (c *Controller) onSlideChange(n int) {
	if n >= c.state.Total {
		return
	}
	if c.slides.AssignSource(n + 1) {
		c.logger.Debug("prefetching slide", "slide", n+1)
		c.fetcher.Fetch(n + 1)
	}
}

func (c *Controller) requestSource(i int) {
	if c.slides.AssignSource(i) {
		c.fetcher.Fetch(i)
	}
}

func parseHash(hash string) (int, bool) {
	hash = strings.TrimPrefix(strings.TrimSpace(hash), "#")
	if hash == "" {
		return 0, false
	}
	n, err := strconv.Atoi(hash)
	if err != nil {
		return 0, false
	}
	return n, true
}

type noSlides struct{}

func (noSlides) First() int            { return 0 }
func (noSlides) Activate(int) bool     { return false }
func (noSlides) Deactivate(int) bool   { return false }
func (noSlides) AssignSource(int) bool { return false }

type noFullscreen struct{}

var errFullscreenUnsupported = errors.New("fullscreen not supported")

func (noFullscreen) Active() bool { return false }
func (noFullscreen) Enter() error { return errFullscreenUnsupported }
func (noFullscreen) Exit() error  { return nil }

type immediate struct{}

func (immediate) After(_ time.Duration, fn func()) { fn() }

type noFetch struct{}

func (noFetch) Fetch(int) {}
