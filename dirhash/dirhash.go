// Package dirhash computes content-addressed digests of mod directories.
//
// The digest depends only on the set of (relative path, content) pairs
// under the directory. Each file gets an inner BLAKE3 digest over its
// slash-separated relative path, a zero byte and its content; the inner
// digests are then folded into one outer BLAKE3 in path order.
package dirhash

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"unicode/utf8"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

// ChunkSize is the read buffer used when streaming file content.
const ChunkSize = 8192

const separator = 0x00

// EncodingError reports a relative path that is not valid UTF-8.
type EncodingError struct {
	Path string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("path is not valid UTF-8: %q", e.Path)
}

// IoError wraps a filesystem failure during traversal or reading.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

type entry struct {
	rel    string
	abs    string
	digest []byte
}

// Hash returns the hex digest of dir, hashing files on up to GOMAXPROCS
// goroutines.
func Hash(ctx context.Context, dir string) (string, error) {
	return HashWithLimit(ctx, dir, runtime.GOMAXPROCS(0))
}

// HashWithLimit is Hash with an explicit bound on concurrent file reads.
// A limit below one is treated as one.
func HashWithLimit(ctx context.Context, dir string, limit int) (string, error) {
	entries, err := collect(dir)
	if err != nil {
		return "", err
	}

	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range entries {
		e := &entries[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			digest, err := hashFile(e.rel, e.abs)
			if err != nil {
				return err
			}
			e.digest = digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	outer := blake3.New()
	for _, e := range entries {
		outer.Write([]byte(e.rel))
		outer.Write(e.digest)
	}
	return hex.EncodeToString(outer.Sum(nil)), nil
}

// collect lists every regular file below dir with its slash-form relative
// path.
func collect(dir string) ([]entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &IoError{Op: "stat", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &IoError{Op: "stat", Path: dir, Err: errors.New("not a directory")}
	}

	var entries []entry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &IoError{Op: "walk", Path: path, Err: err}
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return &IoError{Op: "walk", Path: path, Err: err}
		}
		rel = filepath.ToSlash(rel)
		if !utf8.ValidString(rel) {
			return &EncodingError{Path: rel}
		}
		entries = append(entries, entry{rel: rel, abs: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func hashFile(rel, abs string) ([]byte, error) {
	f, err := os.Open(abs)
	if err != nil {
		return nil, &IoError{Op: "open", Path: abs, Err: err}
	}
	defer f.Close()

	h := blake3.New()
	h.Write([]byte(rel))
	h.Write([]byte{separator})
	buf := make([]byte, ChunkSize)
	for {
		n, err := f.Read(buf)
		h.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &IoError{Op: "read", Path: abs, Err: err}
		}
	}
	return h.Sum(nil), nil
}
