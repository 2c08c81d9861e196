// Package source locates and opens EAD documents for ingestion.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
)

// Harvester enumerates document locators and opens them.
type Harvester interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// Extensions accepted by the directory harvester.
var Extensions = []string{".xml", ".xml.gz", ".xml.zst"}

func hasExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// readCloser closes the decompressor and then the underlying file.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenFile opens path for reading. Files ending in .gz or .zst are
// decompressed on the fly.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := Decompress(f, path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rc, nil
}

// Decompress wraps r according to the extension of name. The returned
// closer also closes r.
func Decompress(r io.ReadCloser, name string) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(bufio.NewReader(r))
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []func() error{zr.Close, r.Close}}, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			r.Close,
		}}, nil
	default:
		return r, nil
	}
}

// File harvests a fixed list of local files.
type File struct {
	Paths []string
}

func (h File) List(ctx context.Context) ([]string, error) {
	return append([]string(nil), h.Paths...), nil
}

func (h File) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	return OpenFile(locator)
}

// Directory harvests every EAD file below Root, recursively, in lexical
// order.
type Directory struct {
	Root string
}

func (h Directory) List(ctx context.Context) ([]string, error) {
	info, err := os.Stat(h.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", h.Root, internalerr.ErrInvalidInput)
	}

	var paths []string
	err = filepath.WalkDir(h.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && hasExtension(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (h Directory) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	return OpenFile(locator)
}
