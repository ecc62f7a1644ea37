package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/repo"
	"github.com/marcus-grant/depo/internal/storage"
)

// PersistResult is what one ingest call produces. Created is false when
// identical content already existed and the stored item was returned.
type PersistResult struct {
	Item    models.Item
	Created bool
}

// Orchestrator is the single write-path entry point. It coordinates the
// repository and storage backend as siblings and owns deduplication and
// rollback. Metadata is written before bytes: an orphaned metadata row
// is detectable and trivially rolled back, an orphaned file would be
// silently unreachable.
type Orchestrator struct {
	svc   *Service
	repo  repo.Repository
	store storage.Backend
	log   *slog.Logger
}

// NewOrchestrator wires the plan builder to its persistence siblings.
func NewOrchestrator(svc *Service, r repo.Repository, store storage.Backend, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{svc: svc, repo: r, store: store, log: logger}
}

// Ingest runs one full ingest call. No retries happen here: any failure
// is surfaced after compensation, and a retried call starts clean.
func (o *Orchestrator) Ingest(ctx context.Context, req Request) (PersistResult, error) {
	plan, err := o.svc.BuildPlan(req)
	if err != nil {
		return PersistResult{}, err
	}

	existing, err := o.repo.FindByHash(ctx, plan.HashFull)
	if err == nil {
		return PersistResult{Item: existing, Created: false}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return PersistResult{}, err
	}

	item, err := o.repo.Insert(ctx, plan, req.OwnerID, req.Visibility)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		// Lost a concurrent race on identical content. The other
		// insert's row is the answer; this is a dedup hit, not a failure.
		existing, lerr := o.repo.FindByHash(ctx, plan.HashFull)
		if lerr != nil {
			return PersistResult{}, fmt.Errorf("ingest: dedup lookup after race: %w", lerr)
		}
		return PersistResult{Item: existing, Created: false}, nil
	}
	if err != nil {
		return PersistResult{}, err
	}

	if plan.Kind != models.KindLink {
		src := storage.Source{Bytes: plan.PayloadBytes, Path: plan.PayloadPath}
		if perr := o.store.Put(item.Code, plan.Format, src); perr != nil {
			return PersistResult{}, o.rollback(ctx, plan.HashFull, perr)
		}
	}

	return PersistResult{Item: item, Created: true}, nil
}

// rollback undoes the metadata insert after a storage failure. It runs
// detached from the caller's cancellation: a disconnecting client must
// not leave a metadata row without bytes.
func (o *Orchestrator) rollback(ctx context.Context, hashFull string, putErr error) error {
	if derr := o.repo.Delete(context.WithoutCancel(ctx), hashFull); derr != nil {
		o.log.Error("ingest: rollback failed, metadata row has no payload",
			slog.String("hash", hashFull),
			slog.String("put_error", putErr.Error()),
			slog.String("delete_error", derr.Error()))
		return fmt.Errorf("ingest: storage write failed (%v) and rollback failed (%v): %w",
			putErr, derr, apperr.ErrInconsistent)
	}
	o.log.Warn("ingest: storage write failed, metadata rolled back",
		slog.String("hash", hashFull),
		slog.String("error", putErr.Error()))
	return fmt.Errorf("ingest: storage write: %w", putErr)
}
