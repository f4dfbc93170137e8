// Package config loads and validates the console configuration: the OS
// endpoint to attach to, realtime connection limits, the relay server,
// and the run archive.
package config

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Endpoint EndpointConfig `mapstructure:"endpoint" yaml:"endpoint"`
	Realtime RealtimeConfig `mapstructure:"realtime" yaml:"realtime"`
	Relay    RelayConfig    `mapstructure:"relay" yaml:"relay"`
	Archive  ArchiveConfig  `mapstructure:"archive" yaml:"archive"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// EndpointConfig identifies the OS the console attaches to.
type EndpointConfig struct {
	// WSURL is the workflow event WebSocket endpoint.
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`
	// APIURL is the REST base URL for run history snapshots.
	APIURL string `mapstructure:"api_url" yaml:"api_url"`
	// SecurityKey authenticates both channels. Empty enables no-auth mode.
	SecurityKey string `mapstructure:"security_key" yaml:"security_key,omitempty"`
}

// RealtimeConfig bounds the connection lifecycle. The attempt limits are
// configuration rather than hard constants.
type RealtimeConfig struct {
	MaxReconnectAttempts int    `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	MaxAuthAttempts      int    `mapstructure:"max_auth_attempts" yaml:"max_auth_attempts"`
	HandshakeTimeout     string `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	ChangeBuffer         int    `mapstructure:"change_buffer" yaml:"change_buffer"`
}

// RelayConfig configures the read-only dashboard relay server.
type RelayConfig struct {
	Host        string   `mapstructure:"host" yaml:"host"`
	Port        int      `mapstructure:"port" yaml:"port"`
	EnableCORS  bool     `mapstructure:"enable_cors" yaml:"enable_cors"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// ArchiveConfig configures the terminal-run archive.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}
