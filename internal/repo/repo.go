// Package repo owns item metadata persistence. The SQLite implementation
// is the single source of truth for resolved codes; payload bytes live in
// the storage backend and never touch this package.
package repo

import (
	"context"

	"github.com/marcus-grant/depo/internal/models"
)

// Repository is the metadata persistence contract.
//
// Insert resolves a collision-free code internally and writes the base
// row plus the subtype row as one atomic unit. A unique-constraint race
// on the content hash is reported as apperr.ErrAlreadyExists so callers
// can re-run the dedup lookup; a violated code constraint is reported as
// apperr.ErrCodeCollision and indicates a logic bug.
type Repository interface {
	// FindByHash returns the item with the given full hash, or
	// apperr.ErrNotFound.
	FindByHash(ctx context.Context, hashFull string) (models.Item, error)
	// FindByCode returns the item with the given canonical code, or
	// apperr.ErrNotFound. The caller canonicalizes first.
	FindByCode(ctx context.Context, code string) (models.Item, error)
	// Insert persists a write plan under the given owner and visibility.
	Insert(ctx context.Context, plan models.WritePlan, ownerID int64, vis models.Visibility) (models.Item, error)
	// Delete removes an item and its subtype row. Idempotent; used only
	// for orchestrator rollback.
	Delete(ctx context.Context, hashFull string) error
}
