// Package gameconfig reads the content package selection from the game's
// player config.
package gameconfig

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// FileName is the player config inside the game directory.
	FileName = "config_player.xml"

	localModsPrefix = "LocalMods/"
)

type packageElem struct {
	Path string `xml:"path,attr"`
}

type document struct {
	Core            packageElem `xml:"corepackage"`
	ContentPackages struct {
		Core    packageElem `xml:"corepackage"`
		Regular struct {
			Packages []packageElem `xml:"package"`
		} `xml:"regularpackages"`
	} `xml:"contentpackages"`
}

// PackageRef is one enabled regular package, in load order.
type PackageRef struct {
	Path string
	// Dir is the folder under LocalMods/, empty for packages elsewhere.
	Dir string
	// WorkshopID is Dir parsed as a number, zero when Dir is not numeric.
	WorkshopID uint64
}

// IsLocal reports whether the package lives under LocalMods/.
func (p PackageRef) IsLocal() bool { return p.Dir != "" }

// Config is the subset of the player config describing enabled packages.
type Config struct {
	CorePackage string
	Packages    []PackageRef
}

// LocalMods returns the enabled packages installed under LocalMods/.
func (c *Config) LocalMods() []PackageRef {
	var refs []PackageRef
	for _, p := range c.Packages {
		if p.IsLocal() {
			refs = append(refs, p)
		}
	}
	return refs
}

// Parse reads a player config document.
func Parse(r io.Reader) (*Config, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse player config: %w", err)
	}

	cfg := &Config{CorePackage: doc.ContentPackages.Core.Path}
	if cfg.CorePackage == "" {
		cfg.CorePackage = doc.Core.Path
	}
	for _, p := range doc.ContentPackages.Regular.Packages {
		cfg.Packages = append(cfg.Packages, newRef(p.Path))
	}
	return cfg, nil
}

// Load parses FileName inside gameHome.
func Load(gameHome string) (*Config, error) {
	f, err := os.Open(filepath.Join(gameHome, FileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(bufio.NewReader(f))
}

func newRef(p string) PackageRef {
	ref := PackageRef{Path: p}
	clean := path.Clean(strings.ReplaceAll(strings.TrimSpace(p), `\`, "/"))
	if !strings.HasPrefix(clean, localModsPrefix) {
		return ref
	}
	dir, _, _ := strings.Cut(strings.TrimPrefix(clean, localModsPrefix), "/")
	ref.Dir = dir
	if id, err := strconv.ParseUint(dir, 10, 64); err == nil {
		ref.WorkshopID = id
	}
	return ref
}
