package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/cli"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Index text files into the vector database",
	Long: `Splits each file into paragraphs (separated by blank lines), embeds them and
stores them in the configured qdrant or milvus collection. The collection is
created when missing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, _ := cmd.Flags().GetInt("batch")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := buildApp(sigCtx, cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		total := 0
		for _, path := range args {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			n, err := cli.Ingest(sigCtx, app.Indexer, f, filepath.Base(path), batch)
			f.Close()
			total += n
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			fmt.Fprintf(out, "Indexed %d paragraphs from %s\n", n, path)
		}
		app.Logger.Info("Ingest complete", "files", len(args), "documents", total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().Int("batch", cli.DefaultIngestBatch, "Documents per upsert request")
}
