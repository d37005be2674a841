package main

import (
	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/cli"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long:  `Reads queries from standard input and answers them one by one. History is kept in the configured store under the session ID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := buildApp(sigCtx, cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.RunChat(sigCtx, app, cli.ChatOptions{
			SessionID: sessionID,
			Fresh:     fresh,
			Verbose:   verbose,
			Quiet:     quiet,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (a new one is generated if empty)")
	chatCmd.Flags().Bool("fresh", false, "Clear the session history before starting")
	chatCmd.Flags().BoolP("verbose", "v", false, "Print intent, data source and step count after each answer")
	chatCmd.Flags().BoolP("quiet", "q", false, "No banner and no prompt")

	// chat is the default when no command is given
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
