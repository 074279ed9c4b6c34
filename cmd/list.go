package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"baro-mod-manager/contentpkg"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed mods",
	Long: `Lists every content package under LocalMods, sorted by workshop id.
With --enrich the Steam Workshop is queried first and the remote columns
are filled in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		withRemote, _ := cmd.Flags().GetBool("enrich")
		return listMods(cmd, asJSON, withRemote)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("json", false, "Print the collection as JSON")
	listCmd.Flags().Bool("enrich", false, "Fetch workshop metadata before printing")
}

// listMods runs list on behalf of cmd, which is either list itself or the
// root command invoked without a subcommand.
func listMods(cmd *cobra.Command, asJSON, withRemote bool) error {
	a, err := bootstrap(cmd.Context(), globalConfig)
	if err != nil {
		return err
	}
	defer a.Close()
	return runList(cmd.Context(), cmd.OutOrStdout(), a, asJSON, withRemote)
}

func runList(ctx context.Context, out io.Writer, a *app, asJSON, withRemote bool) error {
	if withRemote {
		if err := a.enrich(ctx, a.cfg.BatchSize); err != nil {
			return err
		}
	}
	mods := a.mgr.Mods()
	if asJSON {
		return writeJSON(out, mods)
	}
	if len(mods) == 0 {
		fmt.Fprintf(out, "No mods found in %s\n", a.mgr.ModsDir())
		return nil
	}
	writeModTable(out, mods, withRemote)
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeModTable(out io.Writer, mods []contentpkg.Descriptor, withRemote bool) {
	header := fmt.Sprintf("%-12s %s %-12s %5s", "Workshop ID", padRight("Name", 40), "Version", "Files")
	if withRemote {
		header += fmt.Sprintf(" %10s %11s %10s  %s", "Size", "Subscribers", "Updated", "Tags")
	}
	fmt.Fprintln(out, header)

	for _, m := range mods {
		row := fmt.Sprintf("%-12s %s %-12s %5d",
			formatID(m.WorkshopID),
			padRight(truncate(m.Name, 40), 40),
			truncate(m.Version, 12),
			m.FileCount())
		if withRemote {
			row += fmt.Sprintf(" %10s %11d %10s  %s",
				formatSize(m.Size),
				m.Subscribers,
				formatTime(m.LastModified),
				strings.Join(m.Tags, ", "))
		}
		fmt.Fprintln(out, row)
	}
}
