package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHTTPURL       = "http://127.0.0.1:8888"
	DefaultSHIPURL       = "ws://127.0.0.1:29999"
	DefaultAPITimeout    = 30 * time.Second
	DefaultMaxRetries    = 5
	DefaultRetryBackoff  = 100 * time.Millisecond
	DefaultStreamWindow  = 512
	DefaultStaleTimeout  = 60 * time.Second
	DefaultDBPort        = 5432
	DefaultDBSSLMode     = "prefer"
	DefaultMaxConns      = 10
	DefaultMinConns      = 2
	DefaultBatchSize     = 500
	DefaultFlushInterval = 1 * time.Second
	DefaultBufferSize    = 4096
	DefaultLogLevel      = "info"
)

func (c *IndexerConfig) applyDefaults() {
	if c.Node.HTTPURL == "" {
		c.Node.HTTPURL = DefaultHTTPURL
	}
	if c.Node.SHIPURL == "" {
		c.Node.SHIPURL = DefaultSHIPURL
	}
	if c.Node.Timeout == 0 {
		c.Node.Timeout = DefaultAPITimeout
	}
	if c.Node.MaxRetries == 0 {
		c.Node.MaxRetries = DefaultMaxRetries
	}
	if c.Node.RetryBackoff == 0 {
		c.Node.RetryBackoff = DefaultRetryBackoff
	}

	if c.Stream.Window == 0 {
		c.Stream.Window = DefaultStreamWindow
	}
	if c.Stream.StaleTimeout == 0 {
		c.Stream.StaleTimeout = DefaultStaleTimeout
	}

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

	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
