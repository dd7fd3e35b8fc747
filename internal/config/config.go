// Package config loads deckview settings from an optional YAML file with
// DECKVIEW_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/dloss/deckview/internal/deck"
)

const EnvPrefix = "DECKVIEW_"

// Config is the full deckview configuration. Durations are milliseconds.
type Config struct {
	DeckDir        string       `yaml:"deck_dir" koanf:"deck_dir"`
	TotalSlides    int          `yaml:"total_slides" koanf:"total_slides"`
	StartSlide     int          `yaml:"start_slide" koanf:"start_slide"`
	ReadyDelay     int          `yaml:"ready_delay" koanf:"ready_delay"`
	EmptyDeckDelay int          `yaml:"empty_deck_delay" koanf:"empty_deck_delay"`
	HelpDuration   int          `yaml:"help_duration" koanf:"help_duration"`
	LogFile        string       `yaml:"log_file" koanf:"log_file"`
	LogLevel       string       `yaml:"log_level" koanf:"log_level"`
	Style          string       `yaml:"style" koanf:"style"`
	WordWrap       int          `yaml:"word_wrap" koanf:"word_wrap"`
	ContainerClass string       `yaml:"container_class" koanf:"container_class"`
	Mouse          bool         `yaml:"mouse" koanf:"mouse"`
	Remote         RemoteConfig `yaml:"remote" koanf:"remote"`
	Watch          WatchConfig  `yaml:"watch" koanf:"watch"`
}

// RemoteConfig controls the HTTP remote.
type RemoteConfig struct {
	Enabled  bool   `yaml:"enabled" koanf:"enabled"`
	Addr     string `yaml:"addr" koanf:"addr"`
	AllowAll bool   `yaml:"allow_all" koanf:"allow_all"`
}

// WatchConfig controls live reload of edited slide files. Ignore adds to the
// watcher's built-in editor temp file patterns.
type WatchConfig struct {
	Enabled bool     `yaml:"enabled" koanf:"enabled"`
	Ignore  []string `yaml:"ignore" koanf:"ignore"`
}

func DefaultConfig() *Config {
	return &Config{
		DeckDir:        ".",
		ReadyDelay:     500,
		EmptyDeckDelay: 1000,
		HelpDuration:   3000,
		LogFile:        filepath.Join(os.TempDir(), "deckview.log"),
		LogLevel:       "info",
		Style:          "dark",
		WordWrap:       80,
		ContainerClass: "slide-container",
		Mouse:          true,
		Remote: RemoteConfig{
			Addr: "127.0.0.1:8737",
		},
	}
}

// Load reads the YAML file at path when it exists, then overlays DECKVIEW_*
// environment variables. A double underscore descends into a section:
// DECKVIEW_REMOTE__ADDR sets remote.addr.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validStyles = map[string]bool{
	"dark":  true,
	"light": true,
	"notty": true,
	"ascii": true,
	"auto":  true,
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func (c *Config) Validate() error {
	switch {
	case c.DeckDir == "":
		return fmt.Errorf("deck_dir is required")
	case c.TotalSlides < 0:
		return fmt.Errorf("total_slides must be non-negative")
	case c.TotalSlides > deck.MaxSlides:
		return fmt.Errorf("total_slides %d is past the limit of %d", c.TotalSlides, deck.MaxSlides)
	case c.StartSlide < 0:
		return fmt.Errorf("start_slide must be non-negative")
	case c.TotalSlides > 0 && c.StartSlide > c.TotalSlides:
		return fmt.Errorf("start_slide %d is past total_slides %d", c.StartSlide, c.TotalSlides)
	case c.ReadyDelay < 0, c.EmptyDeckDelay < 0:
		return fmt.Errorf("ready_delay and empty_deck_delay must be non-negative")
	case c.HelpDuration <= 0:
		return fmt.Errorf("help_duration must be positive")
	case !validStyles[c.Style]:
		return fmt.Errorf("invalid style %q: must be one of dark, light, notty, ascii, auto", c.Style)
	case !validLevels[strings.ToLower(c.LogLevel)]:
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	case c.WordWrap < 0:
		return fmt.Errorf("word_wrap must be non-negative")
	case c.Remote.Enabled && c.Remote.Addr == "":
		return fmt.Errorf("remote.addr is required when the remote is enabled")
	}
	for _, p := range c.Watch.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid watch.ignore pattern %q", p)
		}
	}
	return nil
}

func (c *Config) ReadyDelayDuration() time.Duration {
	return time.Duration(c.ReadyDelay) * time.Millisecond
}

func (c *Config) EmptyDeckDelayDuration() time.Duration {
	return time.Duration(c.EmptyDeckDelay) * time.Millisecond
}

func (c *Config) HelpTimeout() time.Duration {
	return time.Duration(c.HelpDuration) * time.Millisecond
}
