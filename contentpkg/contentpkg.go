// Package contentpkg parses Barotrauma content package descriptors
// (filelist.xml) into a normalized Descriptor.
package contentpkg

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileListName is the descriptor file every mod directory carries.
const FileListName = "filelist.xml"

// Attribute names on the root element.
const (
	AttrName         = "name"
	AttrModVersion   = "modversion"
	AttrCorePackage  = "corepackage"
	AttrWorkshopID   = "steamworkshopid"
	AttrGameVersion  = "gameversion"
	AttrExpectedHash = "expectedhash"

	fileAttr = "file"
)

var requiredAttrs = []string{
	AttrName,
	AttrModVersion,
	AttrCorePackage,
	AttrWorkshopID,
	AttrGameVersion,
	AttrExpectedHash,
}

var (
	ErrMissingAttribute = errors.New("missing required attribute")
	ErrInvalidBool      = errors.New("invalid boolean")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrNoRootElement    = errors.New("no root element")
)

// ParseError reports a descriptor that is malformed or lacks a required field.
type ParseError struct {
	Field string // attribute name, empty for document-level errors
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Field == "":
		return fmt.Sprintf("parse content package: %v", e.Err)
	case errors.Is(e.Err, ErrMissingAttribute):
		return fmt.Sprintf("parse content package: %v %q", ErrMissingAttribute, e.Field)
	default:
		return fmt.Sprintf("parse content package: attribute %q: %v %q", e.Field, e.Err, e.Value)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Descriptor is one parsed content package. The fields after FileGroups
// are filled in from remote workshop metadata and stay zero until the
// package is enriched.
type Descriptor struct {
	Name         string `json:"name"`
	Version      string `json:"modVersion"`
	CorePackage  bool   `json:"corePackage"`
	WorkshopID   uint64 `json:"steamWorkshopId"`
	GameVersion  string `json:"gameVersion"`
	ExpectedHash string `json:"expectedHash"`
	HomeDir      string `json:"homeDir,omitempty"`

	// FileGroups maps an element name to the file paths listed under it,
	// in document order.
	FileGroups map[string][]string `json:"fileGroups"`

	Size         uint64   `json:"size,omitempty"`
	LastModified int64    `json:"lastModified,omitempty"`
	Description  string   `json:"description,omitempty"`
	PreviewImage string   `json:"previewImage,omitempty"`
	Subscribers  uint64   `json:"subscribers,omitempty"`
	Likes        uint64   `json:"likes,omitempty"`
	Creator      uint64   `json:"creator,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Files returns the file paths listed under tag, or nil.
func (d *Descriptor) Files(tag string) []string {
	return d.FileGroups[tag]
}

// HasTag reports whether the package lists at least one file under tag.
func (d *Descriptor) HasTag(tag string) bool {
	return len(d.FileGroups[tag]) > 0
}

// TagNames returns the file group names in sorted order.
func (d *Descriptor) TagNames() []string {
	names := make([]string, 0, len(d.FileGroups))
	for name := range d.FileGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileCount is the total number of file entries across all groups.
func (d *Descriptor) FileCount() int {
	n := 0
	for _, files := range d.FileGroups {
		n += len(files)
	}
	return n
}

// IsPublished reports whether the package carries a workshop id.
func (d *Descriptor) IsPublished() bool {
	return d.WorkshopID != 0
}

// Parse reads a descriptor document from r.
//
// Every child of the root element is captured by its tag name, so new
// content types need no parser change. Children without a file
// attribute are ignored, as are elements nested below the first level.
func Parse(r io.Reader) (*Descriptor, error) {
	dec := xml.NewDecoder(r)

	var desc *Descriptor
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if desc == nil {
				desc, err = fromRoot(el)
				if err != nil {
					return nil, err
				}
				continue
			}
			if file, ok := attr(el, fileAttr); ok {
				tag := el.Name.Local
				desc.FileGroups[tag] = append(desc.FileGroups[tag], file)
			}
			if err := dec.Skip(); err != nil {
				return nil, &ParseError{Err: err}
			}
		case xml.EndElement:
			// Children are skipped whole, so this closes the root.
			return desc, nil
		}
	}

	if desc == nil {
		return nil, &ParseError{Err: ErrNoRootElement}
	}
	return desc, nil
}

// ParseBytes parses an in-memory descriptor document.
func ParseBytes(b []byte) (*Descriptor, error) {
	return Parse(bytes.NewReader(b))
}

// ParseFile parses the descriptor at path and records its directory as
// the package home.
func ParseFile(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open content package: %w", err)
	}
	defer f.Close()

	desc, err := Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	desc.HomeDir = filepath.Dir(path)
	return desc, nil
}

// ParseModDir parses the filelist.xml inside dir.
func ParseModDir(dir string) (*Descriptor, error) {
	return ParseFile(filepath.Join(dir, FileListName))
}

func fromRoot(el xml.StartElement) (*Descriptor, error) {
	values := make(map[string]string, len(requiredAttrs))
	for _, name := range requiredAttrs {
		v, ok := attr(el, name)
		if !ok {
			return nil, &ParseError{Field: name, Err: ErrMissingAttribute}
		}
		values[name] = v
	}

	core, err := parseBool(values[AttrCorePackage])
	if err != nil {
		return nil, &ParseError{Field: AttrCorePackage, Value: values[AttrCorePackage], Err: err}
	}
	id, err := parseWorkshopID(values[AttrWorkshopID])
	if err != nil {
		return nil, &ParseError{Field: AttrWorkshopID, Value: values[AttrWorkshopID], Err: err}
	}

	return &Descriptor{
		Name:         values[AttrName],
		Version:      values[AttrModVersion],
		CorePackage:  core,
		WorkshopID:   id,
		GameVersion:  values[AttrGameVersion],
		ExpectedHash: values[AttrExpectedHash],
		FileGroups:   make(map[string][]string),
	}, nil
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, ErrInvalidBool
}

// parseWorkshopID accepts a bare or quoted decimal id. Local packages that
// were never published carry an empty id, which maps to zero.
func parseWorkshopID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	return id, nil
}
