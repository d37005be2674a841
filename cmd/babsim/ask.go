package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/cli"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask <query>...",
	Short: "Answer a single query",
	Long:  `Runs one query through the pipeline and prints the answer. The words of the query may be passed as separate arguments.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := buildApp(sigCtx, cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunAsk(sigCtx, app, strings.Join(args, " "), cli.AskOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Verbose:   verbose,
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("session", "s", "", "Session ID to record the turn under")
	askCmd.Flags().Bool("json", false, "Print the response as JSON")
	askCmd.Flags().BoolP("verbose", "v", false, "Print intent, data source and step count")
}
