package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch Steam Workshop metadata for installed mods",
	Long: `Queries the Steam Workshop for every published mod, merges the results
into the local collection and prints it. Unpublished mods are listed
unchanged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		batchSize := a.cfg.BatchSize
		if cmd.Flags().Changed("batch-size") {
			batchSize, _ = cmd.Flags().GetInt("batch-size")
		}
		return runEnrich(cmd.Context(), cmd.OutOrStdout(), a, batchSize)
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().Int("batch-size", 0, "Ids per request, 0 sends one request (default from config)")
}

func runEnrich(ctx context.Context, out io.Writer, a *app, batchSize int) error {
	if err := a.enrich(ctx, batchSize); err != nil {
		return err
	}
	mods := a.mgr.Mods()
	resolved := 0
	for _, m := range mods {
		if m.LastModified != 0 {
			resolved++
		}
	}
	writeModTable(out, mods, true)
	fmt.Fprintf(out, "\n%d mods, %d with workshop metadata\n", len(mods), resolved)
	return nil
}
