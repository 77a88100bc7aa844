package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sources  SourcesConfig  `toml:"sources"`
	Search   SearchConfig   `toml:"search"`
	Playlist PlaylistConfig `toml:"playlist"`
	Playback PlaybackConfig `toml:"playback"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// SourcesConfig selects and configures the song-search adapters.
type SourcesConfig struct {
	Enabled   []string       `toml:"enabled"`
	Fallback  string         `toml:"fallback"`
	Timeout   Duration       `toml:"timeout"`
	RateLimit float64        `toml:"rate_limit"`
	ITunes    ITunesConfig   `toml:"itunes"`
	JioSaavn  JioSaavnConfig `toml:"jiosaavn"`
}

// ITunesConfig contains iTunes Search API settings.
type ITunesConfig struct {
	BaseURL string `toml:"base_url"`
	Limit   int    `toml:"limit"`
}

// JioSaavnConfig contains JioSaavn API settings.
type JioSaavnConfig struct {
	BaseURL string `toml:"base_url"`
}

// SearchConfig contains query lifecycle settings.
type SearchConfig struct {
	Debounce        Duration `toml:"debounce"`
	RefreshInterval Duration `toml:"refresh_interval"`
	Suggestions     int      `toml:"suggestions"`
}

// PlaylistConfig contains playlist builder settings.
type PlaylistConfig struct {
	MaxLength int `toml:"max_length"`
}

// PlaybackConfig contains sequencer settings.
type PlaybackConfig struct {
	Lookup          bool     `toml:"lookup"`
	LookupThreshold float64  `toml:"lookup_threshold"`
	SkipDelay       Duration `toml:"skip_delay"`
	EndedDelay      Duration `toml:"ended_delay"`
	PreviewLength   Duration `toml:"preview_length"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // Used by the TUI, which cannot share the terminal with log output
}

// Duration wraps [time.Duration] so it can be written as "320ms" or "5m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		// toml.ParseError does not unwrap, so UnmarshalText errors are lost to errors.Is.
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks enabled sources and numeric limits.
func (c *Config) Validate() error {
	for _, name := range c.Sources.Enabled {
		if !knownSource(name) {
			return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, name)
		}
	}
	if c.Sources.Fallback != "" && !knownSource(c.Sources.Fallback) {
		return fmt.Errorf("%w: unknown fallback source %q", ErrInvalidConfig, c.Sources.Fallback)
	}
	if c.Playlist.MaxLength <= 0 {
		return fmt.Errorf("%w: playlist.max_length must be positive", ErrInvalidConfig)
	}
	if c.Search.Suggestions < 0 {
		return fmt.Errorf("%w: search.suggestions must not be negative", ErrInvalidConfig)
	}
	for key, d := range map[string]Duration{
		"sources.timeout":         c.Sources.Timeout,
		"search.debounce":         c.Search.Debounce,
		"search.refresh_interval": c.Search.RefreshInterval,
		"playback.skip_delay":     c.Playback.SkipDelay,
		"playback.ended_delay":    c.Playback.EndedDelay,
		"playback.preview_length": c.Playback.PreviewLength,
	} {
		if d.Duration < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, key)
		}
	}
	if c.Playback.LookupThreshold < 0 || c.Playback.LookupThreshold > 1 {
		return fmt.Errorf("%w: playback.lookup_threshold must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Environment variables read by [Config.ApplyEnv].
const (
	EnvITunesURL   = "VIBE_ITUNES_URL"
	EnvJioSaavnURL = "VIBE_JIOSAAVN_URL"
	EnvDBPath      = "VIBE_DB_PATH"
	EnvLogLevel    = "VIBE_LOG_LEVEL"
)

// ApplyEnv overrides endpoint, database and log settings from the environment.
//
// A .env file in the working directory is loaded first when present; it never overrides variables already set.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(EnvITunesURL); v != "" {
		c.Sources.ITunes.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvJioSaavnURL); v != "" {
		c.Sources.JioSaavn.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

func knownSource(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "itunes", "jiosaavn":
		return true
	}
	return false
}
