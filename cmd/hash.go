package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"baro-mod-manager/contentpkg"
	"baro-mod-manager/db"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var hashCmd = &cobra.Command{
	Use:   "hash [name...]",
	Short: "Hash mod directories and record the digests",
	Long: `Computes the content hash of each named mod's directory and appends it
to the hash ledger. With --all every installed mod is hashed and progress
is shown live.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) > 0) {
			return errors.New("pass mod names or --all")
		}

		a, err := bootstrap(cmd.Context(), globalConfig)
		if err != nil {
			return err
		}
		defer a.Close()

		if !all {
			return runHash(cmd.Context(), cmd.OutOrStdout(), a, args)
		}
		writer := uilive.New()
		writer.Out = cmd.OutOrStdout()
		writer.Start()
		err = runHashAll(cmd.Context(), cmd.OutOrStdout(), writer, a)
		writer.Stop()
		return err
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.Flags().Bool("all", false, "Hash every installed mod")
}

// hashAndRecord hashes desc and appends the digest to the ledger.
func hashAndRecord(ctx context.Context, a *app, store *db.Store, desc contentpkg.Descriptor) (*db.HashRecord, error) {
	digest, err := a.mgr.HashDescriptor(ctx, desc)
	if err != nil {
		return nil, err
	}
	rec := &db.HashRecord{
		ModName:    desc.Name,
		WorkshopID: desc.WorkshopID,
		HomeDir:    desc.HomeDir,
		Digest:     digest,
		Files:      desc.FileCount(),
	}
	if err := store.Record(ctx, rec); err != nil {
		return nil, err
	}
	a.log.Infow("Recorded hash", zap.String("mod", desc.Name), zap.String("digest", digest))
	return rec, nil
}

func runHash(ctx context.Context, out io.Writer, a *app, names []string) error {
	mods, err := selectMods(a.mgr, names)
	if err != nil {
		return err
	}
	store, err := a.ledger()
	if err != nil {
		return err
	}
	for _, desc := range mods {
		rec, err := hashAndRecord(ctx, a, store, desc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %s\n", rec.Digest, desc.Name)
	}
	return nil
}

// runHashAll hashes every mod, redrawing a progress line on progress and
// printing the digests to out once done. A mod that fails to hash is
// reported and skipped.
func runHashAll(ctx context.Context, out, progress io.Writer, a *app) error {
	store, err := a.ledger()
	if err != nil {
		return err
	}
	mods := a.mgr.Mods()

	var recs []*db.HashRecord
	var failed int
	for i, desc := range mods {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(progress, "Hashing %d/%d: %s\n", i+1, len(mods), truncate(desc.Name, 50))
		rec, err := hashAndRecord(ctx, a, store, desc)
		if err != nil {
			a.log.Warnw("Failed to hash mod", zap.String("mod", desc.Name), zap.Error(err))
			failed++
			continue
		}
		recs = append(recs, rec)
	}
	fmt.Fprintf(progress, "Hashed %d/%d mods\n", len(recs), len(mods))

	for _, rec := range recs {
		fmt.Fprintf(out, "%s  %s\n", rec.Digest, rec.ModName)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d mods could not be hashed, see the log", failed, len(mods))
	}
	return nil
}
