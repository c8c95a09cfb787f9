package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/posthub/posthub/internal/api"
	"github.com/posthub/posthub/internal/auth"
	"github.com/posthub/posthub/internal/config"
	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/session"
	"github.com/posthub/posthub/internal/tui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	mode       string
	logLevel   string
	logFile    string
	logConsole bool
)

var rootCmd = &cobra.Command{
	Use:   "posthub",
	Short: "PostHub - terminal blogging client",
	Long: `PostHub is a terminal client for a PostHub blogging backend: browse
posts, read them with comments, write your own, and discuss.

It authenticates against a remote server, or fully offline with a local
simulated identity provider (--mode local).

Run 'posthub' without arguments to launch the interactive TUI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			cfg = config.DefaultConfig()
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
			configChanged = true
		}
		if cmd.Flags().Changed("mode") {
			cfg.Mode = mode
			configChanged = true
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}

		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		if err := logger.Init(logger.Config{
			Level:    cfg.LogLevel,
			FilePath: cfg.LogFile,
			Console:  cfg.LogConsole,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		loadedConfig = cfg
		logger.Info("PostHub started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, provider, err := newRuntime()
		if err != nil {
			return err
		}

		logger.Info("Launching TUI")
		m := tui.NewApp(cfg, client, provider)
		p := tea.NewProgram(m, tea.WithAltScreen())

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.F("error", err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("PostHub exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// loadedConfig is the config resolved in PersistentPreRunE, shared by every
// subcommand through newRuntime.
var loadedConfig *config.Config

// newRuntime wires the process-wide instances: one session store, one
// resource client reading it, and the identity provider selected once from
// config.
func newRuntime() (*config.Config, *session.Store, *api.Client, auth.Provider, error) {
	cfg := loadedConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	store, err := session.OpenDefault()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := api.NewClient(cfg.ServerURL, store)
	provider := auth.NewProvider(cfg, store, client)
	return cfg, store, client, provider, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "Identity provider: remote or local")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(postsCmd)
}
