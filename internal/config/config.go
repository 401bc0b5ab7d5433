package config

import (
	"log/slog"
	"time"
)

// GeneratorConfig is the root configuration for an asset generator run.
type GeneratorConfig struct {
	Log           LogConfig     `yaml:"log"`
	Export        ExportConfig  `yaml:"export"`
	SessionWindow WindowConfig  `yaml:"session_window"`
	Feed          FeedConfig    `yaml:"feed"`
	Account       AccountConfig `yaml:"account"`
	Database      DBConfig      `yaml:"database"`
	Replay        ReplayConfig  `yaml:"replay"`
	Status        StatusConfig  `yaml:"status"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SlogLevel maps Level to a slog level. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ExportConfig holds asset file settings.
type ExportConfig struct {
	HistoryPath  string `yaml:"history_path"`  // Zorro History directory
	Exclude      string `yaml:"exclude"`       // Comma-separated deny-list, e.g. "JPY,XAU"
	SampleTarget int    `yaml:"sample_target"` // Spread samples per instrument
}

// WindowConfig restricts spread sampling to UTC hours [start_hour, end_hour].
type WindowConfig struct {
	Enabled   bool `yaml:"enabled"`
	StartHour *int `yaml:"start_hour"` // nil = DefaultWindowStartHour; 0 is midnight
	EndHour   *int `yaml:"end_hour"`   // nil = DefaultWindowEndHour
}

// Start returns the first sampled hour.
func (w WindowConfig) Start() int {
	return intOr(w.StartHour, DefaultWindowStartHour)
}

// End returns the last sampled hour.
func (w WindowConfig) End() int {
	return intOr(w.EndHour, DefaultWindowEndHour)
}

// FeedConfig selects and configures the market data source.
type FeedConfig struct {
	Source       string        `yaml:"source"` // "ws" or "replay"
	WSURL        string        `yaml:"ws_url"`
	APIKey       string        `yaml:"api_key"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BufferSize   int           `yaml:"buffer_size"`
}

// AccountConfig names the account for the replay source, which has no live session.
type AccountConfig struct {
	Broker string `yaml:"broker"`
	Live   bool   `yaml:"live"`
}

// DBConfig holds the Postgres/TimescaleDB connection used by the replay source.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ReplayConfig bounds the recorded quotes replayed as update events.
type ReplayConfig struct {
	From     time.Time `yaml:"from"` // Zero = from the first recorded quote
	To       time.Time `yaml:"to"`   // Zero = until the last recorded quote
	PageSize int       `yaml:"page_size"`
}

// StatusConfig controls periodic progress reporting.
type StatusConfig struct {
	Every *int `yaml:"every"` // Report every N update events; 0 = phase changes only, nil = DefaultStatusEvery
}

// Interval returns the status interval in update events.
func (s StatusConfig) Interval() int {
	return intOr(s.Every, DefaultStatusEvery)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Feed sources.
const (
	SourceWS     = "ws"
	SourceReplay = "replay"
)
