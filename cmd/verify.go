package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"baro-mod-manager/db"

	"github.com/spf13/cobra"
)

// Verification outcomes.
const (
	statusOK       = "ok"
	statusChanged  = "changed"
	statusNoRecord = "no-record"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [name...]",
	Short: "Compare mod contents with their last recorded hash",
	Long: `Re-hashes the named mods (all mods when none are named) and compares
each digest with the newest one in the hash ledger. Exits non-zero when
any mod changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()
		return runVerify(cmd.Context(), cmd.OutOrStdout(), a, args)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(ctx context.Context, out io.Writer, a *app, names []string) error {
	mods, err := selectMods(a.mgr, names)
	if err != nil {
		return err
	}
	store, err := a.ledger()
	if err != nil {
		return err
	}

	changed := 0
	for _, desc := range mods {
		digest, err := a.mgr.HashDescriptor(ctx, desc)
		if err != nil {
			return err
		}
		status := statusOK
		rec, err := store.Latest(ctx, desc.Name)
		switch {
		case errors.Is(err, db.ErrNoRecord):
			status = statusNoRecord
		case err != nil:
			return err
		case !rec.Matches(digest):
			status = statusChanged
			changed++
		}
		fmt.Fprintf(out, "%-10s %s\n", status, desc.Name)
	}
	if changed > 0 {
		return fmt.Errorf("%d mods changed since they were last hashed", changed)
	}
	return nil
}
