package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	babsim "github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of babsim",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "babsim version %s\n", strings.TrimSpace(babsim.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
