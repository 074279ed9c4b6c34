package modmgr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"baro-mod-manager/dirhash"
	"baro-mod-manager/modlist"
	"baro-mod-manager/workshop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(t *testing.T) (*Manager, string) {
	t.Helper()
	home := t.TempDir()
	modsDir := filepath.Join(home, ModsDirName)
	writeMod(t, modsDir, "2518816103", "BaroTraumatic", "2518816103", `<Item file="%ModDir%/misc.xml"/>`)
	writeMod(t, modsDir, "3012187347", "EK Dockyard", "3012187347", "")
	writeMod(t, modsDir, "mine", "My Local Mod", "", "")
	return New(home, WithHashWorkers(2)), home
}

func TestManagerRefresh(t *testing.T) {
	m, home := newGame(t)
	assert.Empty(t, m.Mods())

	require.NoError(t, m.Refresh(context.Background()))
	mods := m.Mods()
	require.Len(t, mods, 3)
	assert.Equal(t, "My Local Mod", mods[0].Name)

	// Callers own the returned slice.
	mods[0].Name = "changed"
	assert.Equal(t, "My Local Mod", m.Mods()[0].Name)

	writeMod(t, filepath.Join(home, ModsDirName), "99", "New", "99", "")
	require.NoError(t, m.Refresh(context.Background()))
	assert.Len(t, m.Mods(), 4)
}

func TestManagerEnrich(t *testing.T) {
	m, _ := newGame(t)
	require.NoError(t, m.Refresh(context.Background()))

	f := &fakeFetcher{items: map[uint64]workshop.Item{2518816103: item(2518816103, "BaroTraumatic")}}
	require.NoError(t, m.Enrich(context.Background(), f, 50))

	assert.Equal(t, []uint64{2518816103, 3012187347}, f.lastIDs)
	assert.Equal(t, 50, f.lastBatch)

	got, err := m.FindByID(2518816103)
	require.NoError(t, err)
	assert.Equal(t, "About BaroTraumatic", got.Description)
	assert.Equal(t, uint64(1000), got.Subscribers)

	untouched, err := m.Find("EK Dockyard")
	require.NoError(t, err)
	assert.Empty(t, untouched.Description)
}

func TestManagerEnrichFailureKeepsCollection(t *testing.T) {
	m, _ := newGame(t)
	require.NoError(t, m.Refresh(context.Background()))
	before := m.Mods()

	boom := &workshop.APIError{Kind: workshop.ErrResultCode, Result: 2}
	err := m.Enrich(context.Background(), &fakeFetcher{err: boom}, 0)
	assert.ErrorIs(t, err, workshop.ErrResultCode)
	assert.Equal(t, before, m.Mods())
}

func TestManagerEnrichWithoutPublishedMods(t *testing.T) {
	m := New(t.TempDir())
	f := &fakeFetcher{}
	require.NoError(t, m.Enrich(context.Background(), f, 10))
	assert.Zero(t, f.calls.Load())
}

func TestManagerEnrichAfterConcurrentRefresh(t *testing.T) {
	m, home := newGame(t)
	require.NoError(t, m.Refresh(context.Background()))

	f := &fakeFetcher{items: map[uint64]workshop.Item{3012187347: item(3012187347, "Dockyard")}}
	f.before = func() {
		// A rescan lands while the fetch is in flight.
		writeMod(t, filepath.Join(home, ModsDirName), "77", "Arrived Late", "77", "")
		require.NoError(t, m.Refresh(context.Background()))
	}
	require.NoError(t, m.Enrich(context.Background(), f, 0))

	mods := m.Mods()
	require.Len(t, mods, 4)
	late, err := m.FindByID(77)
	require.NoError(t, err)
	assert.Equal(t, "Arrived Late", late.Name)
	dock, err := m.FindByID(3012187347)
	require.NoError(t, err)
	assert.Equal(t, "About Dockyard", dock.Description)
}

func TestManagerConcurrentReaders(t *testing.T) {
	m, _ := newGame(t)
	require.NoError(t, m.Refresh(context.Background()))
	f := &fakeFetcher{items: map[uint64]workshop.Item{
		2518816103: item(2518816103, "a"),
		3012187347: item(3012187347, "b"),
	}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Refresh(context.Background()))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, m.Enrich(context.Background(), f, 1))
		}()
	}
	for i := 0; i < 50; i++ {
		mods := m.Mods()
		// Never a partial collection.
		assert.Len(t, mods, 3)
	}
	wg.Wait()
}

func TestManagerHashMod(t *testing.T) {
	m, home := newGame(t)
	require.NoError(t, m.Refresh(context.Background()))

	got, err := m.HashMod(context.Background(), "BaroTraumatic")
	require.NoError(t, err)
	want, err := dirhash.Hash(context.Background(), filepath.Join(home, ModsDirName, "2518816103"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = m.HashMod(context.Background(), "Nope")
	assert.ErrorIs(t, err, ErrModNotFound)
}

func TestManagerProfiles(t *testing.T) {
	m, home := newGame(t)

	profiles, err := m.Profiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)

	p := &modlist.Profile{Name: "AG", BasePackage: "Vanilla", Mods: []string{"BaroTraumatic", "EK Dockyard"}}
	require.NoError(t, m.SaveProfile(p))
	assert.FileExists(t, filepath.Join(home, ProfilesDirName, "AG.xml"))

	profiles, err = m.Profiles()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, p, profiles[0])

	loaded, err := m.Profile("AG")
	require.NoError(t, err)
	assert.Equal(t, p, loaded)

	_, err = m.Profile("missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	require.NoError(t, m.DeleteProfile("AG"))
	assert.ErrorIs(t, m.DeleteProfile("AG"), ErrProfileNotFound)
	assert.ErrorIs(t, m.SaveProfile(&modlist.Profile{Name: "../escape", BasePackage: "Vanilla"}), modlist.ErrInvalidProfileName)
}

func TestManagerProfilesBadFile(t *testing.T) {
	m, home := newGame(t)
	dir := filepath.Join(home, ProfilesDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte(`<mods/>`), 0o644))

	_, err := m.Profiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestManagerEnabledMods(t *testing.T) {
	m, home := newGame(t)
	require.NoError(t, m.Refresh(context.Background()))

	enabled, err := m.EnabledMods()
	require.NoError(t, err)
	assert.Empty(t, enabled)

	playerConfig := `<config>
  <contentpackages>
    <corepackage path="Content/ContentPackages/Vanilla.xml" />
    <regularpackages>
      <package path="LocalMods/3012187347/filelist.xml" />
      <package path="LocalMods/404/filelist.xml" />
      <package path="LocalMods/mine/filelist.xml" />
      <package path="Workshop/Other/filelist.xml" />
    </regularpackages>
  </contentpackages>
</config>`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config_player.xml"), []byte(playerConfig), 0o644))

	enabled, err = m.EnabledMods()
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "EK Dockyard", enabled[0].Name)
	assert.Equal(t, "My Local Mod", enabled[1].Name)
}

func TestManagerEnabledModsBrokenConfig(t *testing.T) {
	m, home := newGame(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config_player.xml"), []byte(`<config><contentpackages>`), 0o644))
	_, err := m.EnabledMods()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
