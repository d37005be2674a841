package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/cli"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/config"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "babsim",
	Short: "babsim answers questions about Hyundai cars and renders them",
	Long: `babsim routes each query by intent: text questions are answered from a
vector knowledge base or the web, image requests are turned into Stable
Diffusion prompts and rendered, 3D and video requests return placeholders.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a babsim.yaml configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Override log.format (text, json)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every node transition")
}

// loadConfig reads the configuration and applies the logging flags.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	return cfg, cli.NewLogger(cfg.Log), nil
}

// buildApp loads the configuration and wires every component.
func buildApp(ctx context.Context, cmd *cobra.Command, hooks domain.LifecycleHooks) (*cli.App, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	app, err := cli.Build(ctx, cfg, logger, cli.BuildOptions{Hooks: hooks, Debug: debug})
	if err != nil {
		return nil, fmt.Errorf("error initializing babsim: %w", err)
	}
	return app, nil
}
