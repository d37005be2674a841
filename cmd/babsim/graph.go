package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	babsim "github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the pipeline graph",
	Long:  `Outputs the pipeline's nodes and conditional edges as a Mermaid diagram (graph TD) or as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		// the topology does not depend on which adapters are configured
		edges := babsim.New().Inspect()

		switch format {
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(edges, nil))
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(edges)
		default:
			return fmt.Errorf("unknown format %q, supported: mermaid, json", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: 'mermaid' or 'json'")
}
