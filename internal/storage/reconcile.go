package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

// MetadataLister is the slice of the repository the reconciliation pass
// needs: the full item list and code lookups.
type MetadataLister interface {
	AllItems(ctx context.Context) ([]models.Item, error)
	FindByCode(ctx context.Context, code string) (models.Item, error)
}

// Reconcile cross-checks metadata against the payload directory at
// startup and reports both divergence directions:
//   - an item whose payload file is missing (unreachable metadata)
//   - a payload file no metadata row points at (unreachable bytes)
//
// It repairs nothing; both conditions indicate a failure that needs an
// operator, so they are only logged. Returns the number of findings.
func Reconcile(ctx context.Context, lister MetadataLister, fsys *FS, logger *slog.Logger) (int, error) {
	items, err := lister.AllItems(ctx)
	if err != nil {
		return 0, err
	}

	findings := 0
	for _, it := range items {
		format, ok := it.PayloadFormat()
		if !ok {
			continue // links store no bytes
		}
		if _, err := os.Stat(fsys.pathFor(it.Code, format)); errors.Is(err, os.ErrNotExist) {
			findings++
			logger.Error("reconcile: metadata without payload",
				slog.String("code", it.Code),
				slog.String("hash", it.HashFull))
		}
	}

	entries, err := os.ReadDir(fsys.Root())
	if err != nil {
		return findings, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		code, _, ok := parsePayloadName(filepath.Base(e.Name()))
		if !ok {
			continue
		}
		if _, err := lister.FindByCode(ctx, code); errors.Is(err, apperr.ErrNotFound) {
			findings++
			logger.Warn("reconcile: payload without metadata",
				slog.String("file", e.Name()))
		}
	}
	return findings, nil
}
