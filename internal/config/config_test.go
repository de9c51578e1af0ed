package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: telos-indexer
node:
  http_url: http://10.0.0.5:8888
  ship_url: ws://10.0.0.5:29999
database:
  host: localhost
  port: 5432
  name: chaindata
  user: indexer
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "telos-indexer" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "telos-indexer")
	}
	if cfg.Node.HTTPURL != "http://10.0.0.5:8888" {
		t.Errorf("Node.HTTPURL = %q", cfg.Node.HTTPURL)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
instance:
  id: telos-indexer
database:
  host: localhost
  name: chaindata
  user: indexer
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: telos-indexer
database:
  host: localhost
  name: chaindata
  user: indexer
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Node.HTTPURL != DefaultHTTPURL {
		t.Errorf("Node.HTTPURL = %q, want default %q", cfg.Node.HTTPURL, DefaultHTTPURL)
	}
	if cfg.Node.Timeout != DefaultAPITimeout {
		t.Errorf("Node.Timeout = %v, want default %v", cfg.Node.Timeout, DefaultAPITimeout)
	}
	if cfg.Stream.Window != DefaultStreamWindow {
		t.Errorf("Stream.Window = %d, want default %d", cfg.Stream.Window, DefaultStreamWindow)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.MaxConns != DefaultMaxConns {
		t.Errorf("Database.MaxConns = %d, want default %d", cfg.Database.MaxConns, DefaultMaxConns)
	}
	if cfg.Writer.BatchSize != DefaultBatchSize {
		t.Errorf("Writer.BatchSize = %d, want default %d", cfg.Writer.BatchSize, DefaultBatchSize)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func validTestConfig() IndexerConfig {
	return IndexerConfig{
		Instance: InstanceConfig{ID: "test"},
		Node: NodeConfig{
			HTTPURL: "http://localhost:8888",
			SHIPURL: "ws://localhost:29999",
		},
		Stream: StreamConfig{Window: 512},
		Database: DBConfig{
			Host: "localhost", Name: "db", User: "user", Password: "pass",
			MaxConns: 10, MinConns: 2,
		},
		Writer: WriterConfig{
			BatchSize:     500,
			FlushInterval: time.Second,
			BufferSize:    4096,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*IndexerConfig)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *IndexerConfig) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *IndexerConfig) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "bad http url",
			mutate:  func(c *IndexerConfig) { c.Node.HTTPURL = "localhost:8888" },
			wantErr: `node.http_url must be an http(s) URL, got "localhost:8888"`,
		},
		{
			name:    "bad ship url",
			mutate:  func(c *IndexerConfig) { c.Node.SHIPURL = "http://localhost:29999" },
			wantErr: `node.ship_url must be a ws(s) URL, got "http://localhost:29999"`,
		},
		{
			name: "end block before start",
			mutate: func(c *IndexerConfig) {
				c.Stream.StartBlock = 100
				c.Stream.EndBlock = 50
			},
			wantErr: "stream.end_block (50) must exceed start_block (100)",
		},
		{
			name:    "missing database host",
			mutate:  func(c *IndexerConfig) { c.Database.Host = "" },
			wantErr: "database.host is required",
		},
		{
			name:    "missing database password",
			mutate:  func(c *IndexerConfig) { c.Database.Password = "" },
			wantErr: "database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *IndexerConfig) {
				c.Database.MinConns = 20
			},
			wantErr: "database.min_conns (20) cannot exceed max_conns (10)",
		},
		{
			name:    "bad log level",
			mutate:  func(c *IndexerConfig) { c.Logging.Level = "verbose" },
			wantErr: `logging.level must be debug, info, warn, or error, got "verbose"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
