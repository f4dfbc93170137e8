package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theanh9911/agno-console/internal/run"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect archived sessions and rename live ones",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions in the local run archive",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show archived runs for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <session-id> <name>",
	Short: "Rename a session on the endpoint",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionsRename,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	if a.archive == nil {
		return fmt.Errorf("archive is not enabled; set archive.enabled in config")
	}

	sessions, err := a.archive.Sessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no archived sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %d runs  last %s\n",
			s.SessionID, s.RunCount, formatUnix(s.LastRunAt))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	if a.archive == nil {
		return fmt.Errorf("archive is not enabled; set archive.enabled in config")
	}

	runs, err := a.archive.Runs(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no archived runs for this session")
		return nil
	}
	for _, r := range runs {
		printRunSummary(r)
	}
	return nil
}

func runSessionsRename(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	if err := a.client.RenameSession(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("renamed session %s to %q\n", args[0], args[1])
	return nil
}

func printRunSummary(r *run.WorkflowRun) {
	fmt.Printf("%s  %-9s  %s\n", r.RunID, r.Status, formatUnix(r.CreatedAt))
	if r.RunInput != "" {
		fmt.Printf("  input: %s\n", r.RunInput)
	}
	if r.Metrics != nil && r.Metrics.TotalTokens > 0 {
		fmt.Printf("  tokens: %d\n", r.Metrics.TotalTokens)
	}
}

func formatUnix(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}
