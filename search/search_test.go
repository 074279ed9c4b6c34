package search

import (
	"testing"

	"baro-mod-manager/contentpkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMods() []contentpkg.Descriptor {
	return []contentpkg.Descriptor{
		{
			Name: "BaroTraumatic", Version: "1.2.81", WorkshopID: 2518816103,
			HomeDir:     "/game/LocalMods/2518816103",
			Description: "Expanded medical system with new afflictions",
			Tags:        []string{"Items", "Medical"},
			FileGroups:  map[string][]string{"Afflictions": {"a.xml"}, "Text": {"en.xml"}},
		},
		{
			Name: "EK Dockyard", Version: "2.0", WorkshopID: 3012187347,
			HomeDir:     "/game/LocalMods/3012187347",
			Description: "A collection of submarines",
			Tags:        []string{"Submarines"},
			FileGroups:  map[string][]string{"Submarine": {"boat.sub"}},
		},
		{
			Name: "My Local Mod", Version: "0.1", HomeDir: "/game/LocalMods/mine",
			FileGroups: map[string][]string{"Item": {"x.xml"}},
		},
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(testMods())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func names(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Mod.Name
	}
	return out
}

func TestSearch(t *testing.T) {
	ix := newTestIndex(t)
	assert.Equal(t, 3, ix.Len())

	tests := []struct {
		query string
		want  []string
	}{
		{"dockyard", []string{"EK Dockyard"}},
		{"afflictions", []string{"BaroTraumatic"}},
		{"tags:Submarines", []string{"EK Dockyard"}},
		{"local", []string{"My Local Mod"}},
		{"nothingmatches", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			hits, err := ix.Search(tt.query, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(hits))
		})
	}
}

func TestSearchReturnsDescriptor(t *testing.T) {
	ix := newTestIndex(t)
	hits, err := ix.Search("medical", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(2518816103), hits[0].Mod.WorkshopID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearchLimit(t *testing.T) {
	ix := newTestIndex(t)
	hits, err := ix.Search("name:mod name:dockyard name:barotraumatic", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	ix := newTestIndex(t)
	_, err := ix.Search("   ", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestEmptyIndex(t *testing.T) {
	ix, err := NewIndex(nil)
	require.NoError(t, err)
	defer ix.Close()
	hits, err := ix.Search("anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
