package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: desk-1
realtime:
  url: wss://support.example.com/ws
  max_reconnect_attempts: 7
  reconnect_delay: 2s
  rooms:
    - inquiries
auth:
  token: abc
  user:
    id: 3
    name: Dana
    is_admin: true
notifications:
  max_entries: 50
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "desk-1" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "desk-1")
	}
	if cfg.Realtime.URL != "wss://support.example.com/ws" {
		t.Errorf("Realtime.URL = %q, want %q", cfg.Realtime.URL, "wss://support.example.com/ws")
	}
	if cfg.Realtime.MaxReconnectAttempts != 7 {
		t.Errorf("Realtime.MaxReconnectAttempts = %d, want 7", cfg.Realtime.MaxReconnectAttempts)
	}
	if cfg.Realtime.ReconnectDelay != 2*time.Second {
		t.Errorf("Realtime.ReconnectDelay = %v, want 2s", cfg.Realtime.ReconnectDelay)
	}
	if len(cfg.Realtime.Rooms) != 1 || cfg.Realtime.Rooms[0] != "inquiries" {
		t.Errorf("Realtime.Rooms = %v, want [inquiries]", cfg.Realtime.Rooms)
	}
	if !cfg.Auth.User.IsAdmin || cfg.Auth.User.ID != 3 {
		t.Errorf("Auth.User = %+v, want admin with id 3", cfg.Auth.User)
	}
	if cfg.Notifications.MaxEntries != 50 {
		t.Errorf("Notifications.MaxEntries = %d, want 50", cfg.Notifications.MaxEntries)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SUPPORT_TOKEN", "secret123")
	t.Setenv("TEST_DB_PASSWORD", "dbpass")

	yaml := `
auth:
  token: ${TEST_SUPPORT_TOKEN}
archive:
  database:
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.Token != "secret123" {
		t.Errorf("Auth.Token = %q, want %q", cfg.Auth.Token, "secret123")
	}
	if cfg.Archive.Database.Password != "dbpass" {
		t.Errorf("Archive.Database.Password = %q, want %q", cfg.Archive.Database.Password, "dbpass")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "read config file") {
		t.Errorf("Load() error = %q, want read config file prefix", err.Error())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeTempFile(t, "realtime:\n  url: ws://localhost:8000/ws\n  max_reconect_attempts: 9\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for misspelled key")
	}
	if !strings.Contains(err.Error(), "max_reconect_attempts") {
		t.Errorf("Load() error = %q, want it to name the unknown key", err.Error())
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := LoadAndValidate(writeTempFile(t, ""))
	if err != nil {
		t.Fatalf("LoadAndValidate() on empty file: %v", err)
	}
	if cfg.Realtime.URL != DefaultRealtimeURL {
		t.Errorf("Realtime.URL = %q, want default %q", cfg.Realtime.URL, DefaultRealtimeURL)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "instance:\n  id: desk-1\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Realtime.URL != DefaultRealtimeURL {
		t.Errorf("Realtime.URL = %q, want default %q", cfg.Realtime.URL, DefaultRealtimeURL)
	}
	if cfg.Realtime.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("Realtime.MaxReconnectAttempts = %d, want default %d", cfg.Realtime.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if cfg.Realtime.ReconnectDelay != DefaultReconnectDelay {
		t.Errorf("Realtime.ReconnectDelay = %v, want default %v", cfg.Realtime.ReconnectDelay, DefaultReconnectDelay)
	}
	if cfg.Notifications.MaxEntries != DefaultMaxNotifications {
		t.Errorf("Notifications.MaxEntries = %d, want default %d", cfg.Notifications.MaxEntries, DefaultMaxNotifications)
	}
	if cfg.Archive.Database.Port != DefaultDBPort {
		t.Errorf("Archive.Database.Port = %d, want default %d", cfg.Archive.Database.Port, DefaultDBPort)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v, want defaults", cfg.Log)
	}

	// Defaults alone must produce a valid config
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() after defaults: %v", err)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, "log:\n  level: verbose\n")

	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("LoadAndValidate() expected error")
	}
	want := `validate config: log.level must be one of debug, info, warn, error, got "verbose"`
	if err.Error() != want {
		t.Errorf("LoadAndValidate() error = %q, want %q", err.Error(), want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConsoleConfig)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *ConsoleConfig) {},
			wantErr: "",
		},
		{
			name:    "missing url",
			mutate:  func(c *ConsoleConfig) { c.Realtime.URL = "" },
			wantErr: "realtime.url is required",
		},
		{
			name:    "http url",
			mutate:  func(c *ConsoleConfig) { c.Realtime.URL = "http://localhost:8000" },
			wantErr: `realtime.url must be a ws:// or wss:// URL, got "http://localhost:8000"`,
		},
		{
			name:    "zero attempts",
			mutate:  func(c *ConsoleConfig) { c.Realtime.MaxReconnectAttempts = 0 },
			wantErr: "realtime.max_reconnect_attempts must be >= 1",
		},
		{
			name:    "negative delay",
			mutate:  func(c *ConsoleConfig) { c.Realtime.ReconnectDelay = -time.Second },
			wantErr: "realtime.reconnect_delay must be > 0",
		},
		{
			name:    "zero max entries",
			mutate:  func(c *ConsoleConfig) { c.Notifications.MaxEntries = 0 },
			wantErr: "notifications.max_entries must be >= 1",
		},
		{
			name: "archive missing host",
			mutate: func(c *ConsoleConfig) {
				c.Archive.Enabled = true
				c.Archive.Database.Host = ""
			},
			wantErr: "archive.database.host is required",
		},
		{
			name: "archive missing password",
			mutate: func(c *ConsoleConfig) {
				c.Archive.Enabled = true
				c.Archive.Database.Password = ""
			},
			wantErr: "archive.database.password is required",
		},
		{
			name: "archive min_conns exceeds max_conns",
			mutate: func(c *ConsoleConfig) {
				c.Archive.Enabled = true
				c.Archive.Database.MaxConns = 5
				c.Archive.Database.MinConns = 10
			},
			wantErr: "archive.database.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "archive disabled skips database checks",
			mutate:  func(c *ConsoleConfig) { c.Archive.Database = DBConfig{} },
			wantErr: "",
		},
		{
			name:    "port out of range",
			mutate:  func(c *ConsoleConfig) { c.Server.Port = 70000 },
			wantErr: "server.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "bad log format",
			mutate:  func(c *ConsoleConfig) { c.Log.Format = "xml" },
			wantErr: `log.format must be text or json, got "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
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

func validConfig() ConsoleConfig {
	cfg := ConsoleConfig{
		Archive: ArchiveConfig{
			Database: DBConfig{Host: "localhost", Name: "support", User: "user", Password: "pass"},
		},
	}
	cfg.applyDefaults()
	return cfg
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
