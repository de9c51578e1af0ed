package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *IndexerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if !strings.HasPrefix(c.Node.HTTPURL, "http://") && !strings.HasPrefix(c.Node.HTTPURL, "https://") {
		return fmt.Errorf("node.http_url must be an http(s) URL, got %q", c.Node.HTTPURL)
	}
	if !strings.HasPrefix(c.Node.SHIPURL, "ws://") && !strings.HasPrefix(c.Node.SHIPURL, "wss://") {
		return fmt.Errorf("node.ship_url must be a ws(s) URL, got %q", c.Node.SHIPURL)
	}

	if c.Stream.EndBlock != 0 && c.Stream.EndBlock <= c.Stream.StartBlock {
		return fmt.Errorf("stream.end_block (%d) must exceed start_block (%d)",
			c.Stream.EndBlock, c.Stream.StartBlock)
	}
	if c.Stream.Window < 1 {
		return errors.New("stream.window must be >= 1")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.BufferSize < 1 {
		return errors.New("writer.buffer_size must be >= 1")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
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
