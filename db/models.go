package db

import (
	"gorm.io/gorm"
)

// HashRecord is one content hash computed for a local mod.
type HashRecord struct {
	gorm.Model
	ModName    string `gorm:"index"` // Content package name
	WorkshopID uint64 `gorm:"index"` // 0 for unpublished packages
	HomeDir    string // Directory that was hashed
	Digest     string // Hex blake3 directory digest
	Files      int    // Files declared in filelist.xml
}

// Matches reports whether digest equals the recorded one.
func (r *HashRecord) Matches(digest string) bool {
	return r.Digest == digest
}
