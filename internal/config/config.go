// Package config loads and validates the indexer's YAML configuration.
package config

import "time"

// IndexerConfig is the full configuration for an indexer instance.
type IndexerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Node     NodeConfig     `yaml:"node"`
	Stream   StreamConfig   `yaml:"stream"`
	Database DBConfig       `yaml:"database"`
	Writer   WriterConfig   `yaml:"writer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InstanceConfig identifies this indexer deployment.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// NodeConfig points at the Leap node being indexed.
type NodeConfig struct {
	// HTTPURL is the chain API endpoint.
	HTTPURL string `yaml:"http_url"`
	// SHIPURL is the state_history_plugin WebSocket endpoint.
	SHIPURL string `yaml:"ship_url"`
	// Timeout bounds chain API calls.
	Timeout time.Duration `yaml:"timeout"`
	// MaxRetries for transport-level chain API failures.
	MaxRetries int `yaml:"max_retries"`
	// RetryBackoff is the initial retry delay.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// StreamConfig tunes the state-history block stream.
type StreamConfig struct {
	// StartBlock is the first block to index; 0 resumes from the last
	// irreversible block.
	StartBlock uint32 `yaml:"start_block"`
	// EndBlock stops the stream; 0 streams forever.
	EndBlock uint32 `yaml:"end_block"`
	// Window is the max unacked messages in flight.
	Window uint32 `yaml:"window"`
	// IrreversibleOnly skips speculative blocks.
	IrreversibleOnly bool `yaml:"irreversible_only"`
	// FetchTraces and FetchDeltas request those payloads per block.
	FetchTraces bool `yaml:"fetch_traces"`
	FetchDeltas bool `yaml:"fetch_deltas"`
	// StaleTimeout declares the stream dead after silence.
	StaleTimeout time.Duration `yaml:"stale_timeout"`
}

// DBConfig is a Postgres connection.
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

// WriterConfig tunes the batch writer.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
	// JSON switches to structured JSON output.
	JSON bool `yaml:"json"`
}
