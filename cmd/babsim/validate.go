package main

import (
	"fmt"

	"github.com/spf13/cobra"

	babsim "github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/validator"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the pipeline graph",
	Long:  `Loads the configuration and reports every invalid setting, then crawls the pipeline graph for unreachable nodes and dead ends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration is invalid: %w", err)
		}
		if err := validator.ValidateGraph(babsim.New().Inspect(), domain.EntryNode); err != nil {
			return fmt.Errorf("graph is invalid: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration and graph are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
