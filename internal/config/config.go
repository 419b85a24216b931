// Package config holds the tool's settings. The embedded default_config.yaml
// is the single source of defaults; user files are layered on top.
package config

import (
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pausecomplete/pkg/loader"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

var (
	embeddedConfigOnce sync.Once
	embeddedConfig     Config
	embeddedConfigErr  error
)

// Config is the full set of settings.
type Config struct {
	Completion CompletionConfig `yaml:"completion" json:"completion" toml:"completion"`
	Recording  RecordingConfig  `yaml:"recording" json:"recording" toml:"recording"`
	Log        LogConfig        `yaml:"log" json:"log" toml:"log"`
	UI         UIConfig         `yaml:"ui" json:"ui" toml:"ui"`
}

// CompletionConfig tunes the completion popup.
type CompletionConfig struct {
	MaxVisibleRows     int  `yaml:"max_visible_rows" json:"max_visible_rows" toml:"max_visible_rows"`
	PreviewCanOverflow bool `yaml:"preview_can_overflow" json:"preview_can_overflow" toml:"preview_can_overflow"`
	PopupWidth         int  `yaml:"popup_width" json:"popup_width" toml:"popup_width"`
}

// RecordingConfig tunes the recording backend.
type RecordingConfig struct {
	PreviewLimit  int      `yaml:"preview_limit" json:"preview_limit" toml:"preview_limit"`
	WatchDebounce Duration `yaml:"watch_debounce" json:"watch_debounce" toml:"watch_debounce"`
}

// LogConfig selects log verbosity and destination.
type LogConfig struct {
	Level int8   `yaml:"level" json:"level" toml:"level"`
	File  string `yaml:"file" json:"file" toml:"file"`
}

// UIConfig holds interactive editor styling.
type UIConfig struct {
	Colors ColorConfig `yaml:"colors" json:"colors" toml:"colors"`
}

// ColorConfig holds lipgloss color strings (ANSI numbers or hex).
type ColorConfig struct {
	Selected string `yaml:"selected" json:"selected" toml:"selected"`
	Border   string `yaml:"border" json:"border" toml:"border"`
	Muted    string `yaml:"muted" json:"muted" toml:"muted"`
	Error    string `yaml:"error" json:"error" toml:"error"`
}

// Duration is a time.Duration written as a Go duration string ("75ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// DefaultConfigYAML returns a copy of the embedded default config YAML bytes.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default parses and returns the embedded default configuration.
func Default() (Config, error) {
	embeddedConfigOnce.Do(func() {
		if len(embeddedDefaultConfig) == 0 {
			embeddedConfigErr = fmt.Errorf("embedded default config is empty")
			return
		}
		if err := yaml.Unmarshal(embeddedDefaultConfig, &embeddedConfig); err != nil {
			embeddedConfigErr = fmt.Errorf("decode embedded default config: %w", err)
		}
	})
	return embeddedConfig, embeddedConfigErr
}

// Load returns the defaults overlaid with the file at path, which may be
// YAML, JSON or TOML. Keys missing from the file keep their default values.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if err := loader.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.Completion.MaxVisibleRows < 1 {
		result = multierror.Append(result, fmt.Errorf("completion.max_visible_rows must be at least 1, got %d", c.Completion.MaxVisibleRows))
	}
	if c.Completion.PopupWidth < 8 {
		result = multierror.Append(result, fmt.Errorf("completion.popup_width must be at least 8, got %d", c.Completion.PopupWidth))
	}
	if c.Recording.PreviewLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("recording.preview_limit must not be negative, got %d", c.Recording.PreviewLimit))
	}
	if c.Recording.WatchDebounce < 0 {
		result = multierror.Append(result, fmt.Errorf("recording.watch_debounce must not be negative"))
	}
	return result.ErrorOrNil()
}

// YAML renders the configuration in the same layout as the defaults file.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
