package modmgr

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"baro-mod-manager/contentpkg"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Discover parses every immediate subdirectory of modsDir as a content
// package and returns the packages sorted by workshop id.
//
// A subdirectory that does not hold a valid filelist.xml is not a mod and
// is left out without an error. A missing modsDir yields no mods; any
// other failure to list it is an *IoError.
func Discover(ctx context.Context, modsDir string, log *zap.SugaredLogger) ([]contentpkg.Descriptor, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	entries, err := os.ReadDir(modsDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugw("Mods directory does not exist", zap.String("path", modsDir))
		return []contentpkg.Descriptor{}, nil
	}
	if err != nil {
		return nil, &IoError{Op: "list", Path: modsDir, Err: err}
	}

	var dirs []string
	for _, entry := range entries {
		path := filepath.Join(modsDir, entry.Name())
		if entry.IsDir() {
			dirs = append(dirs, path)
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				dirs = append(dirs, path)
			}
		}
	}

	parsed := make([]*contentpkg.Descriptor, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0) * 2)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			desc, err := contentpkg.ParseModDir(dir)
			if err != nil {
				log.Debugw("Skipping directory without a valid content package",
					zap.String("path", dir),
					zap.Error(err))
				return nil
			}
			parsed[i] = desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mods := make([]contentpkg.Descriptor, 0, len(parsed))
	for _, desc := range parsed {
		if desc != nil {
			mods = append(mods, *desc)
		}
	}
	sort.SliceStable(mods, func(i, j int) bool {
		if mods[i].WorkshopID != mods[j].WorkshopID {
			return mods[i].WorkshopID < mods[j].WorkshopID
		}
		return mods[i].HomeDir < mods[j].HomeDir
	})

	log.Infow("Discovered mods",
		zap.String("path", modsDir),
		zap.Int("candidates", len(dirs)),
		zap.Int("mods", len(mods)))
	return mods, nil
}
