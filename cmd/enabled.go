package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var enabledCmd = &cobra.Command{
	Use:   "enabled",
	Short: "List the mods enabled in the game, in load order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		return runEnabled(cmd.OutOrStdout(), a)
	},
}

func init() {
	rootCmd.AddCommand(enabledCmd)
}

func runEnabled(out io.Writer, a *app) error {
	mods, err := a.mgr.EnabledMods()
	if err != nil {
		return err
	}
	if len(mods) == 0 {
		fmt.Fprintln(out, "No local mods are enabled")
		return nil
	}
	for i, m := range mods {
		fmt.Fprintf(out, "%3d. %-12s %s\n", i+1, formatID(m.WorkshopID), m.Name)
	}
	return nil
}
