package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nuref/internal/config"
	"nuref/internal/logging"
	"nuref/internal/workspace"
)

var (
	rootPath   string
	configPath string
	logLevel   string
	logFormat  string
	ws         *workspace.Context
)

var rootCmd = &cobra.Command{
	Use:   "nuref",
	Short: "Replace NuGet package references with project references",
	Long: `nuref rewrites the .NET projects of a workspace so that NuGet package
references to packages built in the same tree become project references.

Projects are taken from the workspace's solution file, or from every project
file under the root when there is none. Referenced projects are added to the
solution under a "!ReplacedProjects" folder. Package ids are remembered in
NuGetToProjectReferenceMap.json, which can be curated with "nuref map" and
"nuref review".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		cfg, err := config.Load(rootPath, configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := logging.NewLogger(cfg.Logging())
		if err != nil {
			return err
		}
		ws, err = workspace.Open(cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ws == nil {
			return nil
		}
		return ws.Close()
	},
}

// Execute runs the root command
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if ws != nil {
			ws.Close()
		}
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", config.WorkspacePath(), "workspace root")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default <root>/"+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
}

// GetWorkspace returns the initialized workspace
func GetWorkspace() *workspace.Context {
	return ws
}
