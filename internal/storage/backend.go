// Package storage owns payload bytes. Backends are oblivious to item
// metadata: a payload is addressed purely by (code, format), and the
// on-disk path is a function of those two values alone, so there is no
// stored path to drift out of sync.
package storage

import (
	"io"

	"github.com/marcus-grant/depo/internal/models"
)

// Source is the payload to write: exactly one of Bytes or Path.
type Source struct {
	Bytes []byte
	Path  string
}

// Backend is the payload storage contract. Link items never reach it.
type Backend interface {
	// Put writes the payload for (code, format) from exactly one source.
	Put(code string, format models.ContentFormat, src Source) error
	// Open returns a reader over the payload. The caller closes it.
	// Missing payloads yield an error wrapping apperr.ErrNotFound.
	Open(code string, format models.ContentFormat) (io.ReadCloser, error)
	// Delete removes the payload. Idempotent; used for rollback.
	Delete(code string, format models.ContentFormat) error
}
