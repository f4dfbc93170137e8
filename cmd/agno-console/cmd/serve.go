package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/theanh9911/agno-console/internal/api"
	"github.com/theanh9911/agno-console/internal/config"
	"github.com/theanh9911/agno-console/internal/engine"
	"github.com/theanh9911/agno-console/internal/socket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run headless and relay session views over HTTP",
	Long: `Attach to the configured endpoint without a terminal UI and expose
the reconciled session views over a local HTTP API with an SSE change
feed, for dashboards and scripts.

Examples:
  # Relay on the default localhost:7788
  agno-console serve

  # Custom bind address
  agno-console serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

var (
	serveHost   string
	servePort   int
	serveNoCORS bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"host address to bind to (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoCORS, "no-cors", false,
		"disable CORS headers")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	registry := socket.NewRegistry(a.logger,
		socket.WithNotifier(logNotifier{a}),
		socket.WithTeardownHook(a.store.ClearStreamingFlags))
	defer registry.Shutdown()

	mgr, err := registry.Connect(a.socketConfig())
	if err != nil {
		a.logger.Error("initial connect failed", "error", a.logger.Sanitize(err.Error()))
	}
	rec := engine.New(a.store, a.logger, a.reconcilerOptions(logNotifier{a})...)

	srvCfg := api.DefaultServerConfig()
	srvCfg.Host = a.cfg.Relay.Host
	srvCfg.Port = a.cfg.Relay.Port
	srvCfg.EnableCORS = a.cfg.Relay.EnableCORS && !serveNoCORS
	if len(a.cfg.Relay.CORSOrigins) > 0 {
		srvCfg.CORSOrigins = a.cfg.Relay.CORSOrigins
	}
	if serveHost != "" {
		srvCfg.Host = serveHost
	}
	if servePort != 0 {
		srvCfg.Port = servePort
	}

	server := api.NewServer(srvCfg, a.store, mgr, a.logger)

	// The reconciler pump and the relay both hold the manager that was
	// live at startup, so endpoint edits cannot be applied in place.
	watcher, err := config.NewWatcher(a.loader, func(next *config.Config) {
		if next.Endpoint != a.cfg.Endpoint {
			a.logger.Warn("endpoint changed in config file; restart to apply",
				"ws_url", next.Endpoint.WSURL)
			return
		}
		a.logger.Info("config reloaded")
	})
	if err != nil {
		a.logger.Warn("config watch unavailable", "error", err.Error())
	} else {
		defer watcher.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rec.Pump(ctx, mgr)
	})
	g.Go(func() error {
		return server.Start(ctx)
	})

	err = g.Wait()
	mgr.Disconnect()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// logNotifier routes connection and workflow failures to the logger when
// no UI is attached.
type logNotifier struct{ a *app }

func (n logNotifier) ConnectionError(msg string) {
	n.a.logger.Error("connection error", "error", n.a.logger.Sanitize(msg))
}

func (n logNotifier) AuthError(msg string) {
	n.a.logger.Error("authentication failed", "error", n.a.logger.Sanitize(msg))
}

func (n logNotifier) WorkflowError(sessionID, msg string) {
	n.a.logger.WithSession(sessionID).Error("workflow failed", "error", msg)
}
