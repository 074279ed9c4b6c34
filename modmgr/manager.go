// Package modmgr discovers installed mods, enriches them with workshop
// metadata and answers queries about one game installation.
package modmgr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"baro-mod-manager/contentpkg"
	"baro-mod-manager/dirhash"
	"baro-mod-manager/gameconfig"
	"baro-mod-manager/modlist"
	"baro-mod-manager/workshop"

	"go.uber.org/zap"
)

// Directory names inside the game home.
const (
	ModsDirName     = "LocalMods"
	ProfilesDirName = "ModLists"
)

// Fetcher resolves workshop ids to item metadata. *workshop.Client
// satisfies it.
type Fetcher interface {
	GetItemsBatched(ctx context.Context, ids []uint64, batchSize int) ([]workshop.Item, error)
}

// Manager owns the mod collection of one game installation. It is safe
// for concurrent use: readers get copies, and Refresh and Enrich replace
// the collection as a whole.
type Manager struct {
	home        string
	log         *zap.SugaredLogger
	hashWorkers int

	mu   sync.RWMutex
	mods []contentpkg.Descriptor
}

type Option func(*Manager)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithHashWorkers bounds the number of files HashMod reads concurrently.
func WithHashWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.hashWorkers = n
		}
	}
}

// New returns a Manager for the game installed at home. The collection
// is empty until Refresh runs.
func New(home string, opts ...Option) *Manager {
	m := &Manager{
		home:        home,
		log:         zap.NewNop().Sugar(),
		hashWorkers: runtime.GOMAXPROCS(0),
		mods:        []contentpkg.Descriptor{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Home() string { return m.home }

func (m *Manager) ModsDir() string { return filepath.Join(m.home, ModsDirName) }

func (m *Manager) ProfilesDir() string { return filepath.Join(m.home, ProfilesDirName) }

// Mods returns a copy of the current collection, sorted by workshop id.
// The descriptors share their FileGroups and Tags with the collection and
// must not be modified.
func (m *Manager) Mods() []contentpkg.Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]contentpkg.Descriptor, len(m.mods))
	copy(out, m.mods)
	return out
}

// Refresh rescans the mods directory and replaces the collection.
func (m *Manager) Refresh(ctx context.Context) error {
	mods, err := Discover(ctx, m.ModsDir(), m.log)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.mods = mods
	m.mu.Unlock()
	return nil
}

// Enrich fetches workshop metadata for every published mod and merges it
// into the collection. The fetch runs without holding the lock; the merge
// is applied to whatever collection is current once the fetch returns,
// so a concurrent Refresh is never overwritten by stale entries.
func (m *Manager) Enrich(ctx context.Context, f Fetcher, batchSize int) error {
	ids := PublishedIDs(m.Mods())
	if len(ids) == 0 {
		m.log.Infow("No published mods to enrich")
		return nil
	}

	items, err := f.GetItemsBatched(ctx, ids, batchSize)
	if err != nil {
		return fmt.Errorf("fetch workshop metadata: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	merged, err := Merge(m.mods, items)
	if err != nil {
		return err
	}
	m.mods = merged
	m.log.Infow("Enriched mods",
		zap.Int("requested", len(ids)),
		zap.Int("resolved", len(items)))
	return nil
}

// Find returns the mod whose name is name.
func (m *Manager) Find(name string) (contentpkg.Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.mods {
		if d.Name == name {
			return d, nil
		}
	}
	return contentpkg.Descriptor{}, fmt.Errorf("%w: %q", ErrModNotFound, name)
}

// FindByID returns the mod published under id.
func (m *Manager) FindByID(id uint64) (contentpkg.Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.mods {
		if id != 0 && d.WorkshopID == id {
			return d, nil
		}
	}
	return contentpkg.Descriptor{}, fmt.Errorf("%w: workshop id %d", ErrModNotFound, id)
}

// HashMod computes the content hash of the named mod's directory.
func (m *Manager) HashMod(ctx context.Context, name string) (string, error) {
	desc, err := m.Find(name)
	if err != nil {
		return "", err
	}
	return m.HashDescriptor(ctx, desc)
}

// HashDescriptor computes the content hash of desc's home directory.
func (m *Manager) HashDescriptor(ctx context.Context, desc contentpkg.Descriptor) (string, error) {
	if desc.HomeDir == "" {
		return "", fmt.Errorf("%w: %q has no home directory", ErrModNotFound, desc.Name)
	}
	digest, err := dirhash.HashWithLimit(ctx, desc.HomeDir, m.hashWorkers)
	if err != nil {
		return "", fmt.Errorf("hash %q: %w", desc.Name, err)
	}
	return digest, nil
}

// Profiles parses every load-order profile in the profiles directory.
func (m *Manager) Profiles() ([]*modlist.Profile, error) {
	return modlist.ListDir(m.ProfilesDir())
}

// Profile loads the profile called name.
func (m *Manager) Profile(name string) (*modlist.Profile, error) {
	path, err := modlist.PathFor(m.ProfilesDir(), name)
	if err != nil {
		return nil, err
	}
	p, err := modlist.ParseFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, err
}

// SaveProfile writes p to the profiles directory, replacing any profile
// of the same name.
func (m *Manager) SaveProfile(p *modlist.Profile) error {
	path, err := modlist.PathFor(m.ProfilesDir(), p.Name)
	if err != nil {
		return err
	}
	if err := p.SaveFile(path); err != nil {
		return err
	}
	m.log.Infow("Saved profile", zap.String("profile", p.Name), zap.Int("mods", len(p.Mods)))
	return nil
}

// DeleteProfile removes the profile called name.
func (m *Manager) DeleteProfile(name string) error {
	path, err := modlist.PathFor(m.ProfilesDir(), name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
		}
		return err
	}
	m.log.Infow("Deleted profile", zap.String("profile", name))
	return nil
}

// EnabledMods returns the discovered mods the game's player config
// enables, in load order. Enabled packages that are not installed are
// skipped. Without a player config no mod is enabled.
func (m *Manager) EnabledMods() ([]contentpkg.Descriptor, error) {
	cfg, err := gameconfig.Load(m.home)
	if errors.Is(err, fs.ErrNotExist) {
		return []contentpkg.Descriptor{}, nil
	}
	if err != nil {
		return nil, err
	}

	mods := m.Mods()
	byDir := make(map[string]int, len(mods))
	byID := make(map[uint64]int, len(mods))
	for i, d := range mods {
		byDir[filepath.Base(d.HomeDir)] = i
		if d.WorkshopID != 0 {
			byID[d.WorkshopID] = i
		}
	}

	enabled := make([]contentpkg.Descriptor, 0, len(cfg.Packages))
	for _, ref := range cfg.LocalMods() {
		i, ok := byDir[ref.Dir]
		if !ok && ref.WorkshopID != 0 {
			i, ok = byID[ref.WorkshopID]
		}
		if !ok {
			m.log.Warnw("Enabled package is not installed", zap.String("path", ref.Path))
			continue
		}
		enabled = append(enabled, mods[i])
	}
	return enabled, nil
}
