package modmgr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"baro-mod-manager/workshop"

	"github.com/stretchr/testify/require"
)

// writeMod creates <modsDir>/<dir>/filelist.xml describing a package.
func writeMod(t *testing.T, modsDir, dir, name, workshopID string, children string) string {
	t.Helper()
	home := filepath.Join(modsDir, dir)
	require.NoError(t, os.MkdirAll(home, 0o755))
	doc := fmt.Sprintf(`<contentpackage name=%q modversion="1.0" corepackage="false" steamworkshopid=%q gameversion="1.9.8.0" expectedhash="">%s</contentpackage>`,
		name, workshopID, children)
	require.NoError(t, os.WriteFile(filepath.Join(home, "filelist.xml"), []byte(doc), 0o644))
	return home
}

// fakeFetcher serves items from a map and records what it was asked for.
type fakeFetcher struct {
	items     map[uint64]workshop.Item
	err       error
	calls     atomic.Int32
	mu        sync.Mutex
	lastIDs   []uint64
	lastBatch int
	// before runs inside the fetch, while no lock is held.
	before func()
}

func (f *fakeFetcher) GetItemsBatched(ctx context.Context, ids []uint64, batchSize int) ([]workshop.Item, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastIDs = append([]uint64(nil), ids...)
	f.lastBatch = batchSize
	f.mu.Unlock()
	if f.before != nil {
		f.before()
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []workshop.Item
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func item(id uint64, title string) workshop.Item {
	return workshop.Item{
		PublishedFileID: workshop.FlexUint64(id),
		Result:          workshop.ResultOK,
		Creator:         76561198000000000,
		FileSize:        workshop.FlexUint64(id * 100),
		Preview:         " https://example.com/" + title + ".png ",
		Title:           title,
		Description:     "About " + title,
		TimeUpdated:     1700000000,
		Subscriptions:   1000,
		Favorited:       50,
		Tags:            []workshop.Tag{{Tag: "Items"}, {Tag: "Submarines"}},
	}
}
