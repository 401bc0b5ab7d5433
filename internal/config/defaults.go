package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel        = "info"
	DefaultSampleTarget    = 100
	DefaultSource          = SourceWS
	DefaultPingTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultFeedBufferSize  = 10000
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultReplayPageSize  = 5000
	DefaultStatusEvery     = 50
	DefaultWindowStartHour = 9
	DefaultWindowEndHour   = 16
)

func (c *GeneratorConfig) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Export defaults
	if c.Export.SampleTarget == 0 {
		c.Export.SampleTarget = DefaultSampleTarget
	}

	// Window defaults apply per absent key; an explicit 0 is midnight.
	if c.SessionWindow.StartHour == nil {
		c.SessionWindow.StartHour = intPtr(DefaultWindowStartHour)
	}
	if c.SessionWindow.EndHour == nil {
		c.SessionWindow.EndHour = intPtr(DefaultWindowEndHour)
	}

	// Feed defaults
	if c.Feed.Source == "" {
		c.Feed.Source = DefaultSource
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultFeedBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Replay defaults
	if c.Replay.PageSize == 0 {
		c.Replay.PageSize = DefaultReplayPageSize
	}

	// Status defaults
	if c.Status.Every == nil {
		c.Status.Every = intPtr(DefaultStatusEvery)
	}
}

func intPtr(v int) *int {
	return &v
}
