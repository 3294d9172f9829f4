package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tuannm99/ditabase/internal/catalog"
)

const (
	FileMode0644 = 0o644 // rw-r--r--
	FileMode0755 = 0o755 // rwxr-xr-x
)

// ErrNotExist is returned (wrapped) by Load when the file is absent.
var ErrNotExist = fs.ErrNotExist

// Load reads and decodes the whole file at path.
func Load(fsys afero.Fs, path string) (*catalog.Catalog, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: %s: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return Decode(data)
}

// Save encodes c and rewrites the whole file at path. The write goes straight
// to the target: there is no temp file, rename, or lock, so a crash mid-write
// can leave a truncated file and concurrent writers overwrite each other.
func Save(fsys afero.Fs, path string, c *catalog.Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := fsys.MkdirAll(dir, FileMode0755); err != nil {
			return fmt.Errorf("storage: mkdir %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fsys, path, data, FileMode0644); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}
