package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"baro-mod-manager/contentpkg"
	"baro-mod-manager/modmgr"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <name|workshop-id>",
	Short: "Show the workshop page details of one installed mod",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		return runInfo(cmd.Context(), cmd.OutOrStdout(), a, args[0])
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// resolveMod finds a mod by name, falling back to a workshop id lookup
// when ref is numeric.
func resolveMod(mgr *modmgr.Manager, ref string) (contentpkg.Descriptor, error) {
	desc, err := mgr.Find(ref)
	if err == nil || !errors.Is(err, modmgr.ErrModNotFound) {
		return desc, err
	}
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil && id != 0 {
		return mgr.FindByID(id)
	}
	return desc, err
}

func runInfo(ctx context.Context, out io.Writer, a *app, ref string) error {
	desc, err := resolveMod(a.mgr, ref)
	if err != nil {
		return err
	}
	if !desc.IsPublished() {
		return fmt.Errorf("%q is not published on the workshop", desc.Name)
	}

	api, err := a.steam()
	if err != nil {
		return err
	}
	it, err := api.GetItem(ctx, desc.WorkshopID)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, it.Title)
	row := func(label, value string) {
		fmt.Fprintf(out, "  %-13s %s\n", label+":", value)
	}
	row("Workshop ID", formatID(it.ID()))
	row("Installed", fmt.Sprintf("%s %s", desc.Name, desc.Version))
	row("Size", formatSize(uint64(it.FileSize)))
	row("Subscribers", strconv.FormatUint(uint64(it.Subscriptions), 10))
	row("Favorited", strconv.FormatUint(uint64(it.Favorited), 10))
	row("Created", formatDate(it.CreatedAt()))
	row("Updated", formatDate(it.UpdatedAt()))
	if tags := it.TagNames(); len(tags) > 0 {
		row("Tags", strings.Join(tags, ", "))
	}
	if it.IsBanned() {
		row("Banned", it.BanReason)
	}
	return nil
}
