package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks cross-field constraints that viper cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log.level %q (want debug, info, warn, or error)", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "", "auto", "text", "json":
	default:
		return fmt.Errorf("config: invalid log.format %q (want auto, text, or json)", cfg.Log.Format)
	}

	if cfg.Endpoint.WSURL != "" {
		u, err := url.Parse(cfg.Endpoint.WSURL)
		if err != nil {
			return fmt.Errorf("config: invalid endpoint.ws_url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("config: endpoint.ws_url must use ws:// or wss://, got %q", u.Scheme)
		}
	}
	if cfg.Endpoint.APIURL != "" {
		u, err := url.Parse(cfg.Endpoint.APIURL)
		if err != nil {
			return fmt.Errorf("config: invalid endpoint.api_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("config: endpoint.api_url must use http:// or https://, got %q", u.Scheme)
		}
	}

	if cfg.Realtime.MaxReconnectAttempts < 0 {
		return fmt.Errorf("config: realtime.max_reconnect_attempts must be >= 0")
	}
	if cfg.Realtime.MaxAuthAttempts < 1 {
		return fmt.Errorf("config: realtime.max_auth_attempts must be >= 1")
	}
	if cfg.Realtime.HandshakeTimeout != "" {
		if _, err := time.ParseDuration(cfg.Realtime.HandshakeTimeout); err != nil {
			return fmt.Errorf("config: invalid realtime.handshake_timeout: %w", err)
		}
	}

	if cfg.Relay.Port < 0 || cfg.Relay.Port > 65535 {
		return fmt.Errorf("config: relay.port out of range: %d", cfg.Relay.Port)
	}
	return nil
}

// HandshakeTimeoutDuration returns the parsed handshake timeout,
// defaulting to ten seconds on empty or malformed input. Validate
// rejects malformed input earlier; this keeps the accessor total.
func (r RealtimeConfig) HandshakeTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.HandshakeTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
