package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dloss/deckview/internal/deck"
	"github.com/dloss/deckview/internal/nav"
)

type recorder struct {
	mu   sync.Mutex
	cmds []Command
	seen chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 16)}
}

func (r *recorder) dispatch(c Command) {
	r.mu.Lock()
	r.cmds = append(r.cmds, c)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) all() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.cmds...)
}

func setupServer(t *testing.T) (*Server, *recorder) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"1.html": `<html><head><style>h1 { color: teal; }</style></head><body><div class="slide-container"><h1>Hello</h1></div></body></html>`,
		"2.md":   "# Second\n\nbody\n",
		"4.html": `<html><body><p>no container</p></body></html>`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	d, err := deck.Open(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	s := New(Config{Addr: "127.0.0.1:0"}, d, deck.NewLoader(deck.DefaultContainerClass), rec.dispatch, nil)
	return s, rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := setupServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("healthz = %d %s", w.Code, w.Body.String())
	}
}

func TestCommandsAreDispatched(t *testing.T) {
	s, rec := setupServer(t)
	h := s.Handler()

	for _, path := range []string{"/api/next", "/api/prev", "/api/first", "/api/last", "/api/fullscreen", "/api/goto/3"} {
		if w := do(t, h, http.MethodPost, path, ""); w.Code != http.StatusAccepted {
			t.Fatalf("%s = %d %s", path, w.Code, w.Body.String())
		}
	}
	if w := do(t, h, http.MethodPost, "/api/hash", `{"hash":"#2"}`); w.Code != http.StatusAccepted {
		t.Fatalf("hash = %d %s", w.Code, w.Body.String())
	}

	want := []Command{
		{Kind: CmdNext}, {Kind: CmdPrev}, {Kind: CmdFirst}, {Kind: CmdLast},
		{Kind: CmdFullscreen}, {Kind: CmdGoto, Slide: 3}, {Kind: CmdHash, Hash: "#2"},
	}
	got := rec.all()
	if len(got) != len(want) {
		t.Fatalf("dispatched %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBadCommandsAreRejected(t *testing.T) {
	s, rec := setupServer(t)
	h := s.Handler()

	tests := []struct {
		path, body string
	}{
		{"/api/goto/0", ""},
		{"/api/goto/5", ""},
		{"/api/goto/two", ""},
		{"/api/hash", `{"hash":"5"}`},
		{"/api/hash", `not json`},
	}
	for _, tt := range tests {
		if w := do(t, h, http.MethodPost, tt.path, tt.body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s %q = %d", tt.path, tt.body, w.Code)
		}
	}
	if n := len(rec.all()); n != 0 {
		t.Fatalf("%d commands dispatched for bad requests", n)
	}
}

func TestStateFollowsHub(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	if w := do(t, h, http.MethodGet, "/api/state", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("state before render = %d", w.Code)
	}

	s.Hub().Render(nav.Snapshot{Current: 2, Total: 4, Counter: "2 / 4", Progress: 50})
	w := do(t, h, http.MethodGet, "/api/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("state = %d", w.Code)
	}
	var snap nav.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Current != 2 || snap.Counter != "2 / 4" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestSlides(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/slides/1", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<h1>Hello</h1>") {
		t.Fatalf("slide 1 = %d %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); !strings.HasPrefix(body, "<style>h1 { color: teal; }</style>") {
		t.Fatalf("slide styles not lifted: %s", body)
	}
	w = do(t, h, http.MethodGet, "/slides/2", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Second") {
		t.Fatalf("slide 2 = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodGet, "/slides/3", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing slide = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/slides/4", ""); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("slide without container = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/slides/9", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("out of range slide = %d", w.Code)
	}
}

func TestFollowerPage(t *testing.T) {
	s, _ := setupServer(t)
	w := do(t, s.Handler(), http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "- / 4") {
		t.Fatalf("page = %d", w.Code)
	}
}

func TestWebsocketFeedAndCommands(t *testing.T) {
	s, rec := setupServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Hub().Close()

	s.Hub().Render(nav.Snapshot{Current: 1, Total: 4, Counter: "1 / 4"})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap nav.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Current != 1 {
		t.Fatalf("initial snapshot = %+v", snap)
	}

	s.Hub().Render(nav.Snapshot{Current: 2, Total: 4, Counter: "2 / 4"})
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Current != 2 {
		t.Fatalf("pushed snapshot = %+v", snap)
	}

	if err := conn.WriteJSON(map[string]any{"command": "goto", "slide": 4}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rec.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("command never dispatched")
	}
	got := rec.all()
	if len(got) != 1 || got[0].Kind != CmdGoto || got[0].Slide != 4 || got[0].Client == "" {
		t.Fatalf("dispatched %+v", got)
	}
}

func TestServerStartAndURL(t *testing.T) {
	s, _ := setupServer(t)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Shutdown(t.Context())

	resp, err := http.Get(s.URL() + "healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}
}

func TestWebsocketRejectsForeignOrigin(t *testing.T) {
	s, rec := setupServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Hub().Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		conn.Close()
		t.Fatal("upgrade from a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("response = %+v, err = %v", resp, err)
	}
	if n := len(rec.all()); n != 0 {
		t.Fatalf("%d commands dispatched", n)
	}

	header.Set("Origin", "http://localhost:3000")
	conn, _, err = websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("local origin rejected: %v", err)
	}
	conn.Close()
}

func TestWebsocketAllowAllAcceptsAnyOrigin(t *testing.T) {
	base, _ := setupServer(t)
	s := New(Config{AllowAll: true}, base.deck, deck.NewLoader(deck.DefaultContainerClass), nil, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	defer s.Hub().Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"http://evil.example"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		origin, host string
		ok           bool
	}{
		{"", "deck.lan:8737", true},
		{"http://deck.lan:8737", "deck.lan:8737", true},
		{"http://127.0.0.1:9000", "deck.lan:8737", true},
		{"http://[::1]:9000", "deck.lan:8737", true},
		{"http://evil.example", "deck.lan:8737", false},
		{"http://localhost.evil.example", "deck.lan:8737", false},
		{"::bad", "deck.lan:8737", false},
	}
	check := checkOrigin(false)
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Host = tt.host
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.ok {
			t.Fatalf("checkOrigin(%q, host %q) = %v", tt.origin, tt.host, got)
		}
	}
}
