package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"baro-mod-manager/config"
	"baro-mod-manager/contentpkg"
	"baro-mod-manager/db"
	"baro-mod-manager/logger"
	"baro-mod-manager/modmgr"
	"baro-mod-manager/workshop"

	"go.uber.org/zap"
)

// steamAPI is the part of *workshop.Client the commands use.
type steamAPI interface {
	modmgr.Fetcher
	GetItem(ctx context.Context, id uint64) (*workshop.Item, error)
}

// app bundles what a command needs to work on one game installation.
// The Steam client and the hash ledger are opened on first use.
type app struct {
	cfg config.Config
	mgr *modmgr.Manager
	log *zap.SugaredLogger

	fetch  steamAPI
	client *workshop.Client
	store  *db.Store
}

// bootstrap handles shared initialization logic for commands: it checks
// the config and scans the mods directory.
func bootstrap(ctx context.Context, cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrGameHomeNotSet) {
			return nil, fmt.Errorf("%w: pass --game-home or set game_home in %s", err, config.ConfigFileName)
		}
		return nil, err
	}

	log := logger.Log.With(zap.String("game_home", cfg.GameHome))
	mgr := modmgr.New(cfg.GameHome,
		modmgr.WithLogger(log),
		modmgr.WithHashWorkers(cfg.HashWorkers))
	if err := mgr.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("scan %s: %w", mgr.ModsDir(), err)
	}
	return &app{cfg: cfg, mgr: mgr, log: log}, nil
}

// fetcher returns the Steam client as a metadata fetcher.
func (a *app) fetcher() (modmgr.Fetcher, error) {
	return a.steam()
}

// steam returns the Steam client, creating it on first use.
func (a *app) steam() (steamAPI, error) {
	if a.fetch == nil {
		c, err := workshop.NewClient(a.cfg, a.log.Named("steam"))
		if err != nil {
			return nil, err
		}
		a.client = c
		a.fetch = c
	}
	return a.fetch, nil
}

// ledger returns the hash ledger, opening it on first use.
func (a *app) ledger() (*db.Store, error) {
	if a.store == nil {
		s, err := db.Open(a.cfg.DatabasePath, a.log)
		if err != nil {
			return nil, err
		}
		a.log.Infow("Database initialized", zap.String("path", a.cfg.DatabasePath))
		a.store = s
	}
	return a.store, nil
}

// enrich fetches workshop metadata into the collection.
func (a *app) enrich(ctx context.Context, batchSize int) error {
	f, err := a.fetcher()
	if err != nil {
		return err
	}
	return a.mgr.Enrich(ctx, f, batchSize)
}

func (a *app) Close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.log.Warnw("Failed to close API log", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warnw("Failed to close database", zap.Error(err))
		}
	}
}

// selectMods resolves names to mods. No names selects every mod.
func selectMods(mgr *modmgr.Manager, names []string) ([]contentpkg.Descriptor, error) {
	if len(names) == 0 {
		return mgr.Mods(), nil
	}
	mods := make([]contentpkg.Descriptor, 0, len(names))
	for _, name := range names {
		d, err := mgr.Find(name)
		if err != nil {
			return nil, err
		}
		mods = append(mods, d)
	}
	return mods, nil
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func formatID(id uint64) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}

func formatSize(bytes uint64) string {
	const unit = 1024
	if bytes == 0 {
		return "-"
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatTime(unix int64) string {
	return formatDate(time.Unix(unix, 0))
}

func formatDate(t time.Time) string {
	if t.Unix() <= 0 {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}
