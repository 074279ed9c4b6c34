package modmgr

import (
	"baro-mod-manager/contentpkg"
	"baro-mod-manager/workshop"
)

// Merge left-joins fetched workshop items onto local by workshop id.
//
// Every local entry is kept and the input order is preserved. An entry
// with a matching item gets its remote fields replaced; all other fields,
// and entries without a match, are returned unchanged. Unpublished
// entries (id 0) never match. Two published entries sharing an id make
// the join ambiguous and fail with a *DuplicateIDError.
func Merge(local []contentpkg.Descriptor, items []workshop.Item) ([]contentpkg.Descriptor, error) {
	if err := checkUniqueIDs(local); err != nil {
		return nil, err
	}

	byID := make(map[uint64]*workshop.Item, len(items))
	for i := range items {
		byID[items[i].ID()] = &items[i]
	}

	merged := make([]contentpkg.Descriptor, len(local))
	for i, desc := range local {
		merged[i] = desc
		if desc.WorkshopID == 0 {
			continue
		}
		if it, ok := byID[desc.WorkshopID]; ok {
			applyRemote(&merged[i], it)
		}
	}
	return merged, nil
}

func applyRemote(d *contentpkg.Descriptor, it *workshop.Item) {
	d.Size = uint64(it.FileSize)
	d.LastModified = int64(it.TimeUpdated)
	d.Description = it.Description
	d.PreviewImage = it.PreviewURL()
	d.Subscribers = uint64(it.Subscriptions)
	d.Likes = uint64(it.Favorited)
	d.Creator = uint64(it.Creator)
	d.Tags = it.TagNames()
}

func checkUniqueIDs(local []contentpkg.Descriptor) error {
	seen := make(map[uint64]string, len(local))
	for _, desc := range local {
		if desc.WorkshopID == 0 {
			continue
		}
		if first, ok := seen[desc.WorkshopID]; ok {
			return &DuplicateIDError{ID: desc.WorkshopID, First: first, Second: desc.HomeDir}
		}
		seen[desc.WorkshopID] = desc.HomeDir
	}
	return nil
}

// PublishedIDs returns the distinct non-zero workshop ids in mods, in
// order of first appearance.
func PublishedIDs(mods []contentpkg.Descriptor) []uint64 {
	ids := make([]uint64, 0, len(mods))
	seen := make(map[uint64]bool, len(mods))
	for _, m := range mods {
		if m.WorkshopID == 0 || seen[m.WorkshopID] {
			continue
		}
		seen[m.WorkshopID] = true
		ids = append(ids, m.WorkshopID)
	}
	return ids
}
