package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

// FS implements Backend on the local file system. Payloads live flat
// under the root as {code}.{ext}.
type FS struct {
	root string // absolute path to the payload directory
}

// NewFS creates a backend rooted at dir, creating it if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute payload directory. Used by the watcher.
func (f *FS) Root() string {
	return f.root
}

// pathFor derives the payload path. Pure function of (code, format):
// the path is never stored anywhere.
func (f *FS) pathFor(code string, format models.ContentFormat) string {
	return filepath.Join(f.root, code+"."+models.ExtensionForFormat(format))
}

// Put atomically writes the payload: tmp file, fsync, rename.
func (f *FS) Put(code string, format models.ContentFormat, src Source) error {
	if (src.Bytes == nil) == (src.Path == "") {
		return fmt.Errorf("storage: exactly one of bytes or path required: %w", apperr.ErrValidation)
	}

	tmp, err := os.CreateTemp(f.root, ".depo-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if src.Bytes != nil {
		_, err = tmp.Write(src.Bytes)
	} else {
		var in *os.File
		in, err = os.Open(src.Path)
		if err == nil {
			_, err = io.Copy(tmp, in)
			in.Close()
		}
	}
	if err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.pathFor(code, format)); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Open returns a reader over the payload file.
func (f *FS) Open(code string, format models.ContentFormat) (io.ReadCloser, error) {
	rc, err := os.Open(f.pathFor(code, format))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: payload %s.%s: %w", code, format, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %s.%s: %w", code, format, err)
	}
	return rc, nil
}

// Delete removes the payload file. No error when it is already gone.
func (f *FS) Delete(code string, format models.ContentFormat) error {
	err := os.Remove(f.pathFor(code, format))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s.%s: %w", code, format, err)
	}
	return nil
}
