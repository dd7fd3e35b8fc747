package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dloss/deckview/internal/deck"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	AllowAll bool // allow all CORS and websocket origins
}

// Server is the HTTP remote for one deck.
type Server struct {
	cfg      Config
	deck     *deck.Deck
	loader   *deck.Loader
	hub      *Hub
	dispatch Dispatcher
	logger   *log.Logger

	router     chi.Router
	httpServer *http.Server
	listener   net.Listener
}

// New wires a server around d. The loader renders /slides/{n} and should not
// be shared with the presenter, whose script bookkeeping it would disturb.
func New(cfg Config, d *deck.Deck, loader *deck.Loader, dispatch Dispatcher, logger *log.Logger) *Server {
	if dispatch == nil {
		dispatch = func(Command) {}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("remote")
	s := &Server{
		cfg:      cfg,
		deck:     d,
		loader:   loader,
		dispatch: dispatch,
		logger:   logger,
	}
	s.hub = NewHub(d.Total(), cfg.AllowAll, dispatch, logger)
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/", s.handlePage)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", s.hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/slides/{n}", s.handleSlide)
		r.Route("/api", func(r chi.Router) {
			r.Get("/state", s.handleState)
			r.Post("/next", s.simple(CmdNext))
			r.Post("/prev", s.simple(CmdPrev))
			r.Post("/first", s.simple(CmdFirst))
			r.Post("/last", s.simple(CmdLast))
			r.Post("/fullscreen", s.simple(CmdFullscreen))
			r.Post("/help", s.simple(CmdHelp))
			r.Post("/goto/{n}", s.handleGoto)
			r.Post("/hash", s.handleHash)
		})
	})

	return r
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Hub is the websocket surface to register with the controller.
func (s *Server) Hub() *Hub { return s.hub }

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("remote listening", "addr", ln.Addr().String())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("remote server stopped", "err", err)
		}
	}()
	return nil
}

// Addr is the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// URL is the follower page address.
func (s *Server) URL() string {
	host, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return "http://" + s.Addr() + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) simple(kind CommandKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.accept(w, Command{Kind: kind})
	}
}

func (s *Server) accept(w http.ResponseWriter, cmd Command) {
	if err := cmd.Validate(s.deck.Total()); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.logger.Debug("remote command", "command", cmd.String())
	s.dispatch(cmd)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "command": cmd.String()})
}

func (s *Server) handleGoto(w http.ResponseWriter, r *http.Request) {
	n, err := ParseSlide(chi.URLParam(r, "n"), s.deck.Total())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.accept(w, Command{Kind: CmdGoto, Slide: n})
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding body: %w", err))
		return
	}
	s.accept(w, Command{Kind: CmdHash, Hash: body.Hash})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.hub.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, errors.New("presentation not started"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSlide(w http.ResponseWriter, r *http.Request) {
	n, err := ParseSlide(chi.URLParam(r, "n"), s.deck.Total())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	path, err := s.deck.Path(n)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	content, err := s.loader.Load(r.Context(), path)
	switch {
	case errors.Is(err, deck.ErrNoContainer):
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	case err != nil:
		s.logger.Error("loading slide", "slide", n, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content.Fragment()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
