package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	wsURL     string
	apiURL    string
	secKey    string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "agno-console",
	Short: "Terminal console for live AgentOS workflow runs",
	Long: `agno-console attaches to an AgentOS endpoint and reconciles its
realtime workflow event stream with REST run history into consistent
per-session run views.

Running 'agno-console' without arguments opens the interactive watch
view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Default to the watch view when no subcommand is provided
	RunE: runWatch,
}

func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .agno.yaml, then ~/.config/agno-console)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().StringVar(&wsURL, "ws-url", "",
		"workflow event WebSocket URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "",
		"REST base URL for run history (overrides config)")
	rootCmd.PersistentFlags().StringVar(&secKey, "key", "",
		"security key for both channels (overrides config)")

	// Bind flags to viper (errors are nil when flag exists)
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("endpoint.ws_url", rootCmd.PersistentFlags().Lookup("ws-url"))
	_ = viper.BindPFlag("endpoint.api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("endpoint.security_key", rootCmd.PersistentFlags().Lookup("key"))
}
