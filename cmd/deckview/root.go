package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/dloss/deckview/internal/app"
	"github.com/dloss/deckview/internal/config"
	"github.com/dloss/deckview/internal/deck"
	"github.com/dloss/deckview/internal/nav"
	"github.com/dloss/deckview/internal/remote"
	"github.com/dloss/deckview/internal/telemetry"
	"github.com/dloss/deckview/internal/watch"
)

var (
	cfgFile  string
	slides   int
	start    int
	remoteOn bool
	addr     string
	watchOn  bool
	logFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "deckview [dir]",
	Short: "Present a directory of numbered slides in the terminal",
	Long: `deckview shows the slides 1.html, 2.md, ... of a deck directory one at a
time. Arrow keys and space move between slides, Home and End jump to the
first and last slide, digits 1-9 jump directly, f toggles fullscreen and ?
shows the key reference. PageUp and PageDown scroll a long slide.

With --remote a small HTTP server lets other devices follow along and send
navigation commands.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPresent,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "deckview.yaml", "config file path")
	rootCmd.PersistentFlags().IntVar(&slides, "slides", 0, "number of slides (0 derives it from the directory)")
	rootCmd.Flags().IntVar(&start, "start", 0, "slide to open first")
	rootCmd.Flags().BoolVar(&remoteOn, "remote", false, "serve the HTTP remote and follower page")
	rootCmd.Flags().StringVar(&addr, "addr", "", "remote listen address")
	rootCmd.Flags().BoolVar(&watchOn, "watch", false, "reload slides when their files change")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "log file path (empty in the config discards logs)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig merges the config file, environment and command line. The
// positional directory wins over deck_dir.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		cfg.DeckDir = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("slides") {
		cfg.TotalSlides = slides
	}
	if flags.Changed("start") {
		cfg.StartSlide = start
	}
	if flags.Changed("remote") {
		cfg.Remote.Enabled = remoteOn
	}
	if flags.Changed("addr") {
		cfg.Remote.Addr = addr
	}
	if flags.Changed("watch") {
		cfg.Watch.Enabled = watchOn
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runPresent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	logger, closer, err := telemetry.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	d, err := deck.Open(cfg.DeckDir, cfg.TotalSlides)
	if err != nil {
		return err
	}
	logger.Info("deck opened", "dir", d.Dir, "slides", d.Total())

	initial := ""
	if cfg.StartSlide > 0 {
		initial = fmt.Sprintf("#%d", cfg.StartSlide)
	}

	var server *remote.Server
	linkBase, err := fileBase(d.Dir)
	if err != nil {
		return err
	}

	// Remote commands can arrive before the program exists; those are dropped.
	var program atomic.Pointer[bubbletea.Program]
	send := func(msg bubbletea.Msg) {
		if p := program.Load(); p != nil {
			p.Send(msg)
		}
	}

	if cfg.Remote.Enabled {
		server = remote.New(remote.Config{Addr: cfg.Remote.Addr, AllowAll: cfg.Remote.AllowAll},
			d, deck.NewLoader(cfg.ContainerClass), func(c remote.Command) { send(c) }, logger)
		if err := server.Start(); err != nil {
			return err
		}
		defer shutdown(server, logger)
		linkBase = server.URL()
		logger.Info("remote listening", "url", linkBase)
	}

	model, err := app.New(app.Options{
		Deck:      d,
		Loader:    deck.NewLoader(cfg.ContainerClass),
		History:   nav.NewHistory(initial),
		Config:    cfg,
		Logger:    logger,
		AltScreen: term.IsTerminal(os.Stdout.Fd()),
		LinkBase:  linkBase,
	})
	if err != nil {
		return err
	}
	if server != nil {
		model.AddSurface(server.Hub())
	}

	var opts []bubbletea.ProgramOption
	if cfg.Mouse {
		opts = append(opts, bubbletea.WithMouseCellMotion())
	}
	p := bubbletea.NewProgram(model, opts...)
	program.Store(p)

	if cfg.Watch.Enabled {
		w, err := watch.New(d.Dir, cfg.Watch.Ignore, func(ev watch.SlideChanged) { send(ev) }, logger)
		if err != nil {
			return err
		}
		w.Start()
		defer w.Stop()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running presenter: %w", err)
	}
	return nil
}

func fileBase(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return "file://" + filepath.ToSlash(abs) + "/", nil
}

func shutdown(s *remote.Server, logger *log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("remote shutdown", "err", err)
	}
}
