package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show the recorded hashes of a mod, newest first",
	Long: `Prints the hash ledger entries for the named mod. The mod does not have
to be installed any more.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		return runHistory(cmd.Context(), cmd.OutOrStdout(), a, args[0], limit)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 10, "Maximum number of entries, 0 shows all")
}

func runHistory(ctx context.Context, out io.Writer, a *app, name string, limit int) error {
	store, err := a.ledger()
	if err != nil {
		return err
	}
	recs, err := store.History(ctx, name, limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(out, "No hashes recorded for %s\n", name)
		return nil
	}
	for _, rec := range recs {
		fmt.Fprintf(out, "%s  %s  %d files\n",
			rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"), rec.Digest, rec.Files)
	}
	return nil
}
