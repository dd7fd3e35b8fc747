package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/dloss/deckview/internal/config"
	"github.com/dloss/deckview/internal/deck"
	"github.com/dloss/deckview/internal/nav"
	"github.com/dloss/deckview/internal/remote"
	"github.com/dloss/deckview/internal/ui/commandbar"
	"github.com/dloss/deckview/internal/ui/slidepicker"
	"github.com/dloss/deckview/internal/watch"
)

type harness struct {
	dir    string
	copied []string
}

func writeDeck(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"1.md": "# Intro\n\nwelcome text\n",
		"2.md": "# Middle\n\nmiddle text\n",
		"3.md": "# End\n\nclosing text\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newModel(t *testing.T, altScreen bool) (Model, *harness) {
	t.Helper()
	h := &harness{dir: writeDeck(t)}
	d, err := deck.Open(h.dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Style = "notty"
	cfg.ReadyDelay = 1
	cfg.EmptyDeckDelay = 1
	cfg.HelpDuration = 1

	m, err := New(Options{
		Deck:      d,
		History:   nav.NewHistory(""),
		Config:    cfg,
		AltScreen: altScreen,
		LinkBase:  "http://deck.test/",
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	next, _ := m.Update(bubbletea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model), h
}

// drive runs commands until the controller's timers and loads settle,
// feeding their messages back into the model.
func drive(t *testing.T, m Model, cmd bubbletea.Cmd) Model {
	t.Helper()
	queue := []bubbletea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case bubbletea.BatchMsg:
			queue = append(queue, msg...)
		case scheduledMsg, contentLoadedMsg, commandbar.SubmitMsg, slidepicker.SelectedMsg:
			next, more := m.Update(msg)
			m = next.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

func started(t *testing.T) (Model, *harness) {
	t.Helper()
	m, h := newModel(t, true)
	return drive(t, m, m.Init()), h
}

func press(t *testing.T, m Model, keys ...bubbletea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = drive(t, next.(Model), cmd)
	}
	return m
}

func runes(s string) bubbletea.KeyMsg {
	return bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune(s)}
}

var (
	keyRight = bubbletea.KeyMsg{Type: bubbletea.KeyRight}
	keyEnter = bubbletea.KeyMsg{Type: bubbletea.KeyEnter}
	keyEsc   = bubbletea.KeyMsg{Type: bubbletea.KeyEscape}
)

func TestStartupLeavesLoadingAndShowsFirstSlide(t *testing.T) {
	m, _ := newModel(t, false)
	if !strings.Contains(ansi.Strip(m.View()), "Loading presentation") {
		t.Fatalf("expected loading view, got %q", ansi.Strip(m.View()))
	}

	m = drive(t, m, m.Init())
	if m.controller.Loading() {
		t.Fatal("still loading after the first slide arrived")
	}
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "welcome text") || !strings.Contains(view, "1 / 3") {
		t.Fatalf("view = %q", view)
	}
}

func TestKeysIgnoredWhileLoading(t *testing.T) {
	m, _ := newModel(t, false)
	next, _ := m.Update(keyRight)
	if got := next.(Model).controller.CurrentSlide(); got != 1 {
		t.Fatalf("current = %d while loading", got)
	}
}

func TestArrowNavigationPrefetchesNext(t *testing.T) {
	m, _ := started(t)
	m = press(t, m, keyRight)

	if m.controller.CurrentSlide() != 2 || m.history.Hash() != "#2" {
		t.Fatalf("current %d hash %q", m.controller.CurrentSlide(), m.history.Hash())
	}
	if h := m.deck.Handle(3); !h.Requested || !h.Loaded {
		t.Fatalf("slide 3 not prefetched: %+v", h)
	}
	if !strings.Contains(ansi.Strip(m.View()), "middle text") {
		t.Fatalf("view = %q", ansi.Strip(m.View()))
	}
}

func TestCommandBarGoesThroughLocation(t *testing.T) {
	m, _ := started(t)
	m = press(t, m, runes(":"), runes("3"))
	if m.controller.CurrentSlide() != 1 {
		t.Fatal("typing a digit into the prompt must not move slides")
	}
	if !strings.Contains(ansi.Strip(m.View()), ": 3") {
		t.Fatalf("prompt not shown: %q", ansi.Strip(m.View()))
	}
	m = press(t, m, keyEnter)
	if m.controller.CurrentSlide() != 3 || m.history.Hash() != "#3" {
		t.Fatalf("current %d hash %q", m.controller.CurrentSlide(), m.history.Hash())
	}

	m = press(t, m, runes(":"), runes("#9"), keyEnter)
	if m.controller.CurrentSlide() != 3 || !strings.Contains(m.errorMsg, "no slide #9") {
		t.Fatalf("current %d error %q", m.controller.CurrentSlide(), m.errorMsg)
	}
}

func TestHistoryBackAndForward(t *testing.T) {
	m, _ := started(t)
	m = press(t, m, keyRight, keyRight)
	m = press(t, m, bubbletea.KeyMsg{Type: bubbletea.KeyBackspace})
	if m.controller.CurrentSlide() != 2 {
		t.Fatalf("back: current = %d", m.controller.CurrentSlide())
	}
	m = press(t, m, bubbletea.KeyMsg{Type: bubbletea.KeyRight, Alt: true})
	if m.controller.CurrentSlide() != 3 {
		t.Fatalf("forward: current = %d", m.controller.CurrentSlide())
	}
}

func TestRemoteCommands(t *testing.T) {
	m, _ := started(t)
	next, cmd := m.Update(remote.Command{Kind: remote.CmdGoto, Slide: 3})
	m = drive(t, next.(Model), cmd)
	if m.controller.CurrentSlide() != 3 {
		t.Fatalf("goto: current = %d", m.controller.CurrentSlide())
	}

	next, cmd = m.Update(remote.Command{Kind: remote.CmdHash, Hash: "#2"})
	m = drive(t, next.(Model), cmd)
	if m.controller.CurrentSlide() != 2 || m.history.Hash() != "#2" {
		t.Fatalf("hash: current %d hash %q", m.controller.CurrentSlide(), m.history.Hash())
	}

	next, cmd = m.Update(remote.Command{Kind: remote.CmdFirst})
	m = drive(t, next.(Model), cmd)
	if m.controller.CurrentSlide() != 1 {
		t.Fatalf("first: current = %d", m.controller.CurrentSlide())
	}
}

func TestSlidePickerSelects(t *testing.T) {
	m, _ := started(t)
	m = press(t, m, runes("o"))
	if m.onPresenter() {
		t.Fatal("picker not opened")
	}
	m = press(t, m, runes("q"))
	if m.onPresenter() {
		t.Fatal("typing into the picker filter must not quit or close it")
	}
	m = press(t, m, bubbletea.KeyMsg{Type: bubbletea.KeyBackspace}, runes("3."), keyEnter)
	if !m.onPresenter() || m.controller.CurrentSlide() != 3 {
		t.Fatalf("picker: on presenter %v current %d", m.onPresenter(), m.controller.CurrentSlide())
	}
}

func TestMouseClickOnNextButton(t *testing.T) {
	m, _ := started(t)
	row := m.controlsRow()
	click := bubbletea.MouseMsg{X: 17, Y: row, Action: bubbletea.MouseActionPress, Button: bubbletea.MouseButtonLeft}

	next, cmd := m.Update(click)
	m = drive(t, next.(Model), cmd)
	if m.controller.CurrentSlide() != 2 {
		t.Fatalf("current = %d after clicking next", m.controller.CurrentSlide())
	}

	click.Y = row - 1
	next, cmd = m.Update(click)
	m = drive(t, next.(Model), cmd)
	if m.controller.CurrentSlide() != 2 {
		t.Fatal("a click above the controls must not navigate")
	}
}

func TestFullscreenHidesChrome(t *testing.T) {
	m, _ := started(t)
	m = press(t, m, runes("f"))
	if !m.effects.Active() {
		t.Fatal("fullscreen not entered")
	}
	lines := strings.Split(ansi.Strip(m.View()), "\n")
	if len(lines) != 24 {
		t.Fatalf("fullscreen view has %d lines", len(lines))
	}
	if strings.Contains(lines[0], filepath.Base(m.deck.Dir)) {
		t.Fatalf("header still shown: %q", lines[0])
	}

	m = press(t, m, keyEsc)
	if m.effects.Active() {
		t.Fatal("escape should leave fullscreen")
	}
}

func TestFullscreenUnavailableIsAbsorbed(t *testing.T) {
	m, _ := newModel(t, false)
	m = drive(t, m, m.Init())
	m = press(t, m, runes("f"))
	if m.effects.Active() {
		t.Fatal("fullscreen entered without an alternate screen")
	}
	if m.controller.CurrentSlide() != 1 {
		t.Fatal("failed fullscreen must not move slides")
	}
}

func TestWatchReloadsRequestedSlide(t *testing.T) {
	m, h := started(t)
	path := filepath.Join(h.dir, "1.md")
	if err := os.WriteFile(path, []byte("# Intro\n\nrevised text\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	next, cmd := m.Update(watch.SlideChanged{Index: 1, Path: path})
	m = drive(t, next.(Model), cmd)
	if !strings.Contains(ansi.Strip(m.View()), "revised text") {
		t.Fatalf("view = %q", ansi.Strip(m.View()))
	}
}

func TestCopyLink(t *testing.T) {
	m, h := started(t)
	m = press(t, m, runes("y"))
	m = press(t, m, keyRight, runes("y"))
	if len(h.copied) != 2 || h.copied[0] != "http://deck.test/#1" || h.copied[1] != "http://deck.test/#2" {
		t.Fatalf("copied %v", h.copied)
	}
	if !strings.Contains(m.notice, "#2") {
		t.Fatalf("notice = %q", m.notice)
	}
}

func TestViewFillsWindow(t *testing.T) {
	m, _ := started(t)
	lines := strings.Split(m.View(), "\n")
	if len(lines) != 24 {
		t.Fatalf("view has %d lines, want 24", len(lines))
	}
	if !strings.Contains(ansi.Strip(lines[0]), "Intro") {
		t.Fatalf("header = %q", ansi.Strip(lines[0]))
	}
}

func TestHelpOverlayHidesItself(t *testing.T) {
	m, _ := started(t)
	next, cmd := m.Update(runes("?"))
	m = next.(Model)
	if !m.controller.Snapshot().HelpVisible {
		t.Fatal("help not shown")
	}
	time.Sleep(5 * time.Millisecond)
	m = drive(t, m, cmd)
	if m.controller.Snapshot().HelpVisible {
		t.Fatal("help should hide after its duration")
	}
}

func TestQuit(t *testing.T) {
	m, _ := started(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(bubbletea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestKeyFromTea(t *testing.T) {
	tests := []struct {
		msg  bubbletea.KeyMsg
		want nav.Key
	}{
		{bubbletea.KeyMsg{Type: bubbletea.KeyLeft}, nav.Key{Code: nav.CodeArrowLeft}},
		{bubbletea.KeyMsg{Type: bubbletea.KeySpace, Runes: []rune{' '}}, nav.Key{Code: nav.CodeSpace}},
		{bubbletea.KeyMsg{Type: bubbletea.KeyHome}, nav.Key{Code: nav.CodeHome}},
		{bubbletea.KeyMsg{Type: bubbletea.KeyEscape}, nav.Key{Code: nav.CodeEscape}},
		{runes("f"), nav.Key{Code: nav.CodeKeyF}},
		{bubbletea.KeyMsg{Type: bubbletea.KeyCtrlF}, nav.Key{Code: nav.CodeKeyF, Ctrl: true}},
		{runes("H"), nav.Key{Code: nav.CodeKeyH, Shift: true}},
		{runes("?"), nav.Key{Code: nav.CodeSlash, Shift: true}},
		{runes("7"), nav.Key{Code: nav.DigitCode(7)}},
		{bubbletea.KeyMsg{Type: bubbletea.KeyShiftLeft}, nav.Key{Code: nav.CodeArrowLeft, Shift: true}},
		{bubbletea.KeyMsg{Type: bubbletea.KeyRight, Alt: true}, nav.Key{Code: nav.CodeArrowRight, Alt: true}},
	}
	for _, tt := range tests {
		if got := keyFromTea(tt.msg, false); got != tt.want {
			t.Fatalf("keyFromTea(%q) = %+v, want %+v", tt.msg.String(), got, tt.want)
		}
	}
	if got := keyFromTea(runes("3"), true); !got.TextInput {
		t.Fatal("text input flag lost")
	}
}

func TestPageKeysScrollWithoutChangingSlides(t *testing.T) {
	m, _ := started(t)
	m = press(t, m, bubbletea.KeyMsg{Type: bubbletea.KeyPgDown}, bubbletea.KeyMsg{Type: bubbletea.KeyPgUp})
	if m.controller.CurrentSlide() != 1 {
		t.Fatalf("current = %d after page keys", m.controller.CurrentSlide())
	}
	if k := keyFromTea(bubbletea.KeyMsg{Type: bubbletea.KeyPgDown}, false); k.Code == nav.CodeArrowRight || k.Code == nav.CodeSpace {
		t.Fatalf("pgdown translated to %+v", k)
	}
}
