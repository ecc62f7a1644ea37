// Package selector is the stateless read path: resolve a user-supplied
// code to an item and, for payload-bearing kinds, its byte stream.
package selector

import (
	"context"
	"io"

	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/repo"
	"github.com/marcus-grant/depo/internal/shortcode"
	"github.com/marcus-grant/depo/internal/storage"
)

// Selector coordinates repository and storage for reads. It holds no
// state across calls.
type Selector struct {
	repo  repo.Repository
	store storage.Backend
}

// New creates a read-path selector.
func New(r repo.Repository, store storage.Backend) *Selector {
	return &Selector{repo: r, store: store}
}

// GetItem canonicalizes code and returns the matching item. Sloppy
// input is accepted; lookup always uses the canonical form.
func (s *Selector) GetItem(ctx context.Context, code string) (models.Item, error) {
	canonical, err := shortcode.Canonicalize(code)
	if err != nil {
		return models.Item{}, err
	}
	return s.repo.FindByCode(ctx, canonical)
}

// GetRaw returns the item and a payload reader for text and picture
// kinds. For links the reader is nil: the caller must redirect to
// item.Link.URL instead of streaming bytes. The caller closes the
// reader when non-nil.
func (s *Selector) GetRaw(ctx context.Context, code string) (io.ReadCloser, models.Item, error) {
	item, err := s.GetItem(ctx, code)
	if err != nil {
		return nil, models.Item{}, err
	}
	format, ok := item.PayloadFormat()
	if !ok {
		return nil, item, nil
	}
	rc, err := s.store.Open(item.Code, format)
	if err != nil {
		return nil, models.Item{}, err
	}
	return rc, item, nil
}

// GetInfo returns item metadata. Identical to GetItem today; kept as a
// separate operation so future enrichment (access counters) stays off
// the raw-serving path.
func (s *Selector) GetInfo(ctx context.Context, code string) (models.Item, error) {
	return s.GetItem(ctx, code)
}
