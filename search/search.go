// Package search builds a throwaway full-text index over a mod collection.
package search

import (
	"errors"
	"fmt"
	"strings"

	"baro-mod-manager/contentpkg"

	"github.com/blevesearch/bleve/v2"
)

const DefaultLimit = 10

var ErrEmptyQuery = errors.New("empty search query")

// document is what gets indexed for one mod.
type document struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	FileGroups  []string `json:"fileGroups"`
	Version     string   `json:"version"`
}

// Hit is one matching mod.
type Hit struct {
	Mod   contentpkg.Descriptor
	Score float64
}

// Index is an in-memory index over one snapshot of the collection.
type Index struct {
	idx  bleve.Index
	mods map[string]contentpkg.Descriptor
}

// NewIndex indexes mods. Nothing is written to disk.
func NewIndex(mods []contentpkg.Descriptor) (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}

	ix := &Index{idx: idx, mods: make(map[string]contentpkg.Descriptor, len(mods))}
	batch := idx.NewBatch()
	for i, m := range mods {
		id := docID(i, m)
		ix.mods[id] = m
		if err := batch.Index(id, newDocument(m)); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index %q: %w", m.Name, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("build search index: %w", err)
	}
	return ix, nil
}

func docID(i int, m contentpkg.Descriptor) string {
	if m.HomeDir != "" {
		return m.HomeDir
	}
	return fmt.Sprintf("%d:%s", i, m.Name)
}

func newDocument(m contentpkg.Descriptor) document {
	return document{
		Name:        m.Name,
		Description: m.Description,
		Tags:        m.Tags,
		FileGroups:  m.TagNames(),
		Version:     m.Version,
	}
}

// Search runs a bleve query-string query, e.g. "dockyard" or
// "tags:Submarines", and returns hits best first.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	res, err := ix.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		if m, ok := ix.mods[h.ID]; ok {
			hits = append(hits, Hit{Mod: m, Score: h.Score})
		}
	}
	return hits, nil
}

// Len returns the number of indexed mods.
func (ix *Index) Len() int { return len(ix.mods) }

func (ix *Index) Close() error {
	return ix.idx.Close()
}
