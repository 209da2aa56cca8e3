package config

import "time"

// ConsoleConfig is the root configuration for a console agent.
type ConsoleConfig struct {
	Instance      InstanceConfig      `yaml:"instance"`
	Realtime      RealtimeConfig      `yaml:"realtime"`
	Auth          AuthConfig          `yaml:"auth"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
}

// InstanceConfig identifies this agent in logs.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// RealtimeConfig holds WebSocket connection settings.
type RealtimeConfig struct {
	URL                  string        `yaml:"url"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	BufferSize           int           `yaml:"buffer_size"`
	Rooms                []string      `yaml:"rooms"` // Joined on every connect, in addition to role rooms
}

// AuthConfig supplies the bearer token and the user it belongs to.
type AuthConfig struct {
	Token     string     `yaml:"token"`
	TokenFile string     `yaml:"token_file"` // Read when Token is empty
	User      UserConfig `yaml:"user"`
}

// UserConfig describes the authenticated user.
type UserConfig struct {
	ID      int64  `yaml:"id"`
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	IsAdmin bool   `yaml:"is_admin"`
}

// NotificationsConfig holds notification store settings.
type NotificationsConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// ArchiveConfig holds the optional PostgreSQL notification archive.
type ArchiveConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds a single database connection.
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

// ServerConfig holds the health/debug HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}
