package cmd

import (
	"io"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/theanh9911/agno-console/internal/api"
	"github.com/theanh9911/agno-console/internal/archive"
	"github.com/theanh9911/agno-console/internal/config"
	"github.com/theanh9911/agno-console/internal/engine"
	"github.com/theanh9911/agno-console/internal/logging"
	"github.com/theanh9911/agno-console/internal/socket"
	"github.com/theanh9911/agno-console/internal/store"
)

// app bundles the wired components every command starts from.
type app struct {
	cfg     *config.Config
	loader  *config.Loader
	logger  *logging.Logger
	store   *store.Store
	client  *api.Client
	archive *archive.Archive
}

// newApp loads configuration and builds the shared components. logOut is
// where log lines go; the watch view passes io.Discard because the TUI
// owns the terminal.
func newApp(logOut io.Writer) (*app, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if logOut == nil {
		logOut = os.Stderr
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOut,
	})

	a := &app{
		cfg:    cfg,
		loader: loader,
		logger: logger,
		store:  store.New(cfg.Realtime.ChangeBuffer),
	}

	a.client = api.NewClient(cfg.Endpoint.APIURL, logger,
		api.WithSecurityKey(cfg.Endpoint.SecurityKey))

	if cfg.Archive.Enabled {
		arc, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			logger.Warn("archive disabled", "error", err.Error())
		} else {
			a.archive = arc
		}
	}
	return a, nil
}

func (a *app) socketConfig() socket.Config {
	timeout, err := time.ParseDuration(a.cfg.Realtime.HandshakeTimeout)
	if err != nil {
		timeout = 0 // manager default
	}
	return socket.Config{
		Endpoint:             a.cfg.Endpoint.WSURL,
		SecurityKey:          a.cfg.Endpoint.SecurityKey,
		MaxReconnectAttempts: a.cfg.Realtime.MaxReconnectAttempts,
		MaxAuthAttempts:      a.cfg.Realtime.MaxAuthAttempts,
		HandshakeTimeout:     timeout,
	}
}

func (a *app) reconcilerOptions(n engine.Notifier) []engine.ReconcilerOption {
	opts := []engine.ReconcilerOption{
		engine.WithSnapshotFetcher(a.client),
	}
	if n != nil {
		opts = append(opts, engine.WithNotifier(n))
	}
	if a.archive != nil {
		opts = append(opts, engine.WithArchiver(a.archive))
	}
	return opts
}

func (a *app) close() {
	if a.archive != nil {
		_ = a.archive.Close()
	}
	a.store.Close()
}
