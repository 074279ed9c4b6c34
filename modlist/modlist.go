// Package modlist reads and writes load-order profiles, the XML files the
// game keeps under ModLists/.
package modlist

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	rootTag  = "mods"
	localTag = "Local"
	nameAttr = "name"

	// FileExt is the extension of profile files inside the profiles directory.
	FileExt = ".xml"
)

var (
	ErrMissingName        = errors.New("missing profile name")
	ErrMissingBasePackage = errors.New("missing base package (e.g. <Vanilla />)")
	ErrInvalidBasePackage = errors.New("invalid base package tag")
	ErrInvalidProfileName = errors.New("invalid profile file name")
	ErrInvalidText        = errors.New("text cannot be stored in XML")
)

// ParseError reports a profile document that could not be read.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse mod list: " + e.Err.Error()
	}
	return fmt.Sprintf("parse mod list %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Profile is an ordered load list. Mods holds display names in load order.
type Profile struct {
	Name        string   `json:"profileName"`
	BasePackage string   `json:"basePackage"`
	Mods        []string `json:"mods"`
}

// Parse reads a profile document.
//
// The first <mods> element names the profile. The first element that is
// not <Local> is taken as the base package, and every <Local> adds its
// name to the load order in document order.
func Parse(r io.Reader) (*Profile, error) {
	dec := xml.NewDecoder(r)

	var (
		name, base         string
		haveName, haveBase bool
	)
	mods := []string{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}

		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		tag := el.Name.Local
		switch {
		case tag == rootTag && !haveName:
			name, haveName = nameOf(el)
		case tag == localTag:
			if mod, ok := nameOf(el); ok {
				mods = append(mods, mod)
			}
		case !haveBase:
			base, haveBase = tag, true
		}
	}

	if !haveName {
		return nil, &ParseError{Err: ErrMissingName}
	}
	if !haveBase {
		return nil, &ParseError{Err: ErrMissingBasePackage}
	}
	return &Profile{Name: name, BasePackage: base, Mods: mods}, nil
}

// ParseFile parses the profile stored at path.
func ParseFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Parse(bufio.NewReader(f))
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return p, nil
}

func nameOf(el xml.StartElement) (string, bool) {
	found, value := false, ""
	for _, a := range el.Attr {
		if a.Name.Space == "" && a.Name.Local == nameAttr {
			found, value = true, a.Value
		}
	}
	return value, found
}

// Write serializes the profile with two-space indentation:
//
//	<mods name="Profile">
//	  <Vanilla />
//	  <Local name="ModA" />
//	</mods>
func (p *Profile) Write(w io.Writer) error {
	if err := validTag(p.BasePackage); err != nil {
		return err
	}
	if err := validText(p.Name); err != nil {
		return fmt.Errorf("profile name: %w", err)
	}
	for _, mod := range p.Mods {
		if err := validText(mod); err != nil {
			return fmt.Errorf("mod name: %w", err)
		}
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("<" + rootTag + " " + nameAttr + `="`)
	if err := xml.EscapeText(bw, []byte(p.Name)); err != nil {
		return err
	}
	bw.WriteString("\">\n")
	bw.WriteString("  <" + p.BasePackage + " />\n")
	for _, mod := range p.Mods {
		bw.WriteString("  <" + localTag + " " + nameAttr + `="`)
		if err := xml.EscapeText(bw, []byte(mod)); err != nil {
			return err
		}
		bw.WriteString("\" />\n")
	}
	bw.WriteString("</" + rootTag + ">\n")
	return bw.Flush()
}

// Marshal returns the serialized profile.
func (p *Profile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Profile) String() string {
	b, err := p.Marshal()
	if err != nil {
		return fmt.Sprintf("<invalid profile %q: %v>", p.Name, err)
	}
	return string(b)
}

// SaveFile writes the profile to path through a temporary file in the same
// directory, so readers never observe a half-written profile.
func (p *Profile) SaveFile(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".modlist-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp profile: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace profile %s: %w", path, err)
	}
	return nil
}

// PathFor returns the file a profile called name is stored in under dir.
func PathFor(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	return filepath.Join(dir, name+FileExt), nil
}

// ListDir parses every profile file in dir, ordered by file name. A
// missing directory yields no profiles. Any unreadable profile fails the
// whole listing and the error names its path.
func ListDir(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile directory %s: %w", dir, err)
	}

	var profiles []*Profile
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), FileExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		p, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// validTag rejects base package names that cannot be written as a bare
// element or that would read back as a mod entry.
func validTag(tag string) error {
	if tag == "" {
		return ErrMissingBasePackage
	}
	if tag == localTag || tag == rootTag {
		return fmt.Errorf("%w: %q", ErrInvalidBasePackage, tag)
	}
	for i, r := range tag {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("%w: %q", ErrInvalidBasePackage, tag)
	}
	return nil
}

// validText rejects strings that would not survive an XML round trip:
// invalid UTF-8 and characters outside the XML Char production, such as
// most C0 controls.
func validText(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8 in %q", ErrInvalidText, s)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: character %U in %q", ErrInvalidText, r, s)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
