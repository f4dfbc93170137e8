package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "AGNO",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance,
// allowing CLI flag bindings to participate in precedence.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "AGNO",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (AGNO_*)
// 3. Project config (.agno.yaml in current directory)
// 4. User config (~/.config/agno-console/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".agno")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "agno-console"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("endpoint.ws_url", "ws://localhost:7777/workflows/ws")
	l.v.SetDefault("endpoint.api_url", "http://localhost:7777")

	l.v.SetDefault("realtime.max_reconnect_attempts", 3)
	l.v.SetDefault("realtime.max_auth_attempts", 2)
	l.v.SetDefault("realtime.handshake_timeout", "10s")
	l.v.SetDefault("realtime.change_buffer", 64)

	l.v.SetDefault("relay.host", "localhost")
	l.v.SetDefault("relay.port", 7788)
	l.v.SetDefault("relay.enable_cors", true)
	l.v.SetDefault("relay.cors_origins", []string{"http://localhost:5173"})

	l.v.SetDefault("archive.enabled", false)
	l.v.SetDefault("archive.path", defaultArchivePath())
}

func defaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agno/archive.db"
	}
	return filepath.Join(home, ".local", "share", "agno-console", "archive.db")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}
