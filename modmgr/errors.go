package modmgr

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateWorkshopID = errors.New("duplicate workshop id")
	ErrModNotFound         = errors.New("mod not found")
	ErrProfileNotFound     = errors.New("profile not found")
)

// DuplicateIDError is returned by Merge when two local packages carry the
// same workshop id. First and Second are their home directories.
type DuplicateIDError struct {
	ID     uint64
	First  string
	Second string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%v %d: %q and %q", ErrDuplicateWorkshopID, e.ID, e.First, e.Second)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateWorkshopID }

// IoError wraps a filesystem failure while scanning the game directory.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }
