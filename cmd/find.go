package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"baro-mod-manager/search"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over installed mods",
	Long: `Searches mod names, descriptions, workshop tags and file groups.
The query uses bleve query-string syntax, for example
  baro-mod-manager search submarine
  baro-mod-manager search tags:Items +name:baro
Workshop metadata is fetched first unless --offline is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		return runSearch(cmd.Context(), cmd.OutOrStdout(), a, strings.Join(args, " "), limit, offline)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Bool("offline", false, "Search local data only")
	searchCmd.Flags().Int("limit", search.DefaultLimit, "Maximum number of results")
}

func runSearch(ctx context.Context, out io.Writer, a *app, query string, limit int, offline bool) error {
	if !offline {
		if err := a.enrich(ctx, a.cfg.BatchSize); err != nil {
			a.log.Warnw("Searching without workshop metadata", zap.Error(err))
			fmt.Fprintf(out, "Workshop unavailable, searching local data only: %v\n", err)
		}
	}

	idx, err := search.NewIndex(a.mgr.Mods())
	if err != nil {
		return err
	}
	defer idx.Close()
	a.log.Debugw("Search index built", zap.Int("mods", idx.Len()), zap.String("query", query))

	hits, err := idx.Search(query, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintf(out, "No mods match %q\n", query)
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(out, "%6.3f  %-12s %s", h.Score, formatID(h.Mod.WorkshopID), h.Mod.Name)
		if len(h.Mod.Tags) > 0 {
			fmt.Fprintf(out, "  [%s]", strings.Join(h.Mod.Tags, ", "))
		}
		fmt.Fprintln(out)
	}
	return nil
}
