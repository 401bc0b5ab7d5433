package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *GeneratorConfig) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if c.Export.HistoryPath == "" {
		return errors.New("export.history_path is required")
	}
	if c.Export.SampleTarget < 1 {
		return errors.New("export.sample_target must be >= 1")
	}

	if c.SessionWindow.Enabled {
		if err := validateHour("session_window.start_hour", c.SessionWindow.Start()); err != nil {
			return err
		}
		if err := validateHour("session_window.end_hour", c.SessionWindow.End()); err != nil {
			return err
		}
	}

	if c.Feed.BufferSize < 1 {
		return errors.New("feed.buffer_size must be >= 1")
	}

	switch c.Feed.Source {
	case SourceWS:
		if c.Feed.WSURL == "" {
			return errors.New("feed.ws_url is required")
		}
	case SourceReplay:
		if c.Account.Broker == "" {
			return errors.New("account.broker is required")
		}
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Replay.PageSize < 1 {
			return errors.New("replay.page_size must be >= 1")
		}
		if !c.Replay.From.IsZero() && !c.Replay.To.IsZero() && c.Replay.To.Before(c.Replay.From) {
			return errors.New("replay.to cannot be before replay.from")
		}
	default:
		return fmt.Errorf("feed.source must be %q or %q, got %q", SourceWS, SourceReplay, c.Feed.Source)
	}

	if c.Status.Interval() < 0 {
		return errors.New("status.every must be >= 0")
	}

	return nil
}

func validateHour(field string, h int) error {
	if h < 0 || h > 23 {
		return fmt.Errorf("%s must be between 0 and 23, got %d", field, h)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
