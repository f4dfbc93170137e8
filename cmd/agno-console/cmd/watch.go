package cmd

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/theanh9911/agno-console/internal/engine"
	"github.com/theanh9911/agno-console/internal/socket"
	"github.com/theanh9911/agno-console/internal/tui"
)

var watchSessions []string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the interactive watch view",
	Long: `Attach to the configured endpoint and follow workflow runs live.

Sessions appear as their events arrive. Pass --session to preload run
history for known sessions before any event is seen.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringSliceVar(&watchSessions, "session", nil,
		"session id to preload history for (repeatable)")
}

func runWatch(_ *cobra.Command, _ []string) error {
	// The TUI owns the terminal; logs would corrupt the frame.
	a, err := newApp(io.Discard)
	if err != nil {
		return err
	}
	defer a.close()

	model := tui.New(a.store, nil)
	adapter := model.Adapter()

	// A dead socket leaves no stream to finish; clearing the flags lets
	// the next snapshot repopulate mid-stream sessions.
	mgr := socket.NewManager(a.socketConfig(), a.logger,
		socket.WithNotifier(adapter),
		socket.WithTeardownHook(a.store.ClearStreamingFlags))
	model = model.WithManager(mgr)

	rec := engine.New(a.store, a.logger, a.reconcilerOptions(adapter)...)

	if err := mgr.Connect(); err != nil {
		adapter.ConnectionError(err.Error())
	}
	for _, id := range watchSessions {
		rec.RefreshSession(id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rec.Pump(ctx, mgr)
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	mgr.Disconnect()
	cancel()
	_ = g.Wait()
	return runErr
}
