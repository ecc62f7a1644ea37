package ingest

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/repo"
	"github.com/marcus-grant/depo/internal/storage"
)

func pngPayload(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func newTestOrchestrator() (*Orchestrator, *repo.Memory, *storage.Memory) {
	r := repo.NewMemory()
	s := storage.NewMemory()
	o := NewOrchestrator(NewService(Config{}), r, s, nil)
	return o, r, s
}

func TestIngestHelloWorld(t *testing.T) {
	o, r, s := newTestOrchestrator()
	ctx := context.Background()

	res, err := o.Ingest(ctx, Request{PayloadBytes: []byte("Hello, World!")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !res.Created {
		t.Error("first ingest not marked created")
	}
	if res.Item.HashFull != "D7GS0E632ZGYMQAVRXHYZ315" {
		t.Errorf("hash = %q", res.Item.HashFull)
	}
	if res.Item.Code != "D7GS0E63" {
		t.Errorf("code = %q, want 8-character prefix", res.Item.Code)
	}
	if r.Len() != 1 || s.Len() != 1 {
		t.Errorf("repo=%d store=%d, want 1/1", r.Len(), s.Len())
	}

	rc, err := s.Open(res.Item.Code, models.FormatPlain)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "Hello, World!" {
		t.Errorf("stored payload = %q", got)
	}
}

func TestIngestDeduplicates(t *testing.T) {
	o, r, s := newTestOrchestrator()
	ctx := context.Background()

	first, err := o.Ingest(ctx, Request{PayloadBytes: []byte("dedup me")})
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := o.Ingest(ctx, Request{PayloadBytes: []byte("dedup me")})
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.Created {
		t.Error("duplicate ingest marked created")
	}
	if second.Item.Code != first.Item.Code {
		t.Errorf("codes differ: %q vs %q", second.Item.Code, first.Item.Code)
	}
	if r.Inserts != 1 || s.Puts != 1 {
		t.Errorf("inserts=%d puts=%d, want 1/1", r.Inserts, s.Puts)
	}
}

func TestIngestLinkSkipsStorage(t *testing.T) {
	o, r, s := newTestOrchestrator()
	res, err := o.Ingest(context.Background(), Request{LinkURL: "https://example.com/doc"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Item.Kind != models.KindLink {
		t.Errorf("kind = %v", res.Item.Kind)
	}
	if res.Item.Link == nil || res.Item.Link.URL != "https://example.com/doc" {
		t.Errorf("link = %+v", res.Item.Link)
	}
	if r.Len() != 1 {
		t.Errorf("repo len = %d", r.Len())
	}
	if s.Len() != 0 || s.Puts != 0 {
		t.Errorf("link ingest touched storage: len=%d puts=%d", s.Len(), s.Puts)
	}
}

func TestIngestRollsBackOnStorageFailure(t *testing.T) {
	o, r, s := newTestOrchestrator()
	s.FailPut = errors.New("disk full")

	_, err := o.Ingest(context.Background(), Request{PayloadBytes: []byte("doomed")})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, apperr.ErrInconsistent) {
		t.Errorf("clean rollback reported as inconsistent: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("metadata row survived rollback: len=%d", r.Len())
	}
	if r.Deletes != 1 {
		t.Errorf("deletes = %d, want 1", r.Deletes)
	}

	// A retry after the transient failure starts clean and succeeds.
	s.FailPut = nil
	res, err := o.Ingest(context.Background(), Request{PayloadBytes: []byte("doomed")})
	if err != nil {
		t.Fatalf("retry Ingest: %v", err)
	}
	if !res.Created {
		t.Error("retry not marked created")
	}
}

func TestIngestInconsistentWhenRollbackFails(t *testing.T) {
	o, r, s := newTestOrchestrator()
	s.FailPut = errors.New("disk full")
	r.FailDelete = errors.New("db locked")

	_, err := o.Ingest(context.Background(), Request{PayloadBytes: []byte("stuck")})
	if !errors.Is(err, apperr.ErrInconsistent) {
		t.Errorf("err = %v, want ErrInconsistent", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected stranded metadata row, len=%d", r.Len())
	}
}

func TestIngestRollbackSurvivesCancelledContext(t *testing.T) {
	o, r, s := newTestOrchestrator()
	s.FailPut = errors.New("disk full")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Ingest(ctx, Request{PayloadBytes: []byte("gone client")})
	if err == nil {
		t.Fatal("expected error")
	}
	if r.Len() != 0 {
		t.Errorf("rollback skipped under cancelled context: len=%d", r.Len())
	}
}

func TestIngestDedupRace(t *testing.T) {
	// Simulate losing the insert race: the hash appears between the dedup
	// lookup and the insert. The orchestrator must resolve it as a dedup
	// hit, not an error.
	r := repo.NewMemory()
	s := storage.NewMemory()
	svc := NewService(Config{})
	o := NewOrchestrator(svc, &racingRepo{Memory: r, svc: svc}, s, nil)

	res, err := o.Ingest(context.Background(), Request{PayloadBytes: []byte("raced")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Created {
		t.Error("race loser marked created")
	}
	if s.Puts != 0 {
		t.Errorf("race loser wrote payload: puts=%d", s.Puts)
	}
}

// racingRepo sneaks a winning concurrent insert in just before the
// caller's own insert lands.
type racingRepo struct {
	*repo.Memory
	svc   *Service
	raced bool
}

func (r *racingRepo) Insert(ctx context.Context, plan models.WritePlan, ownerID int64, vis models.Visibility) (models.Item, error) {
	if !r.raced {
		r.raced = true
		if _, err := r.Memory.Insert(ctx, plan, 99, vis); err != nil {
			return models.Item{}, err
		}
	}
	return r.Memory.Insert(ctx, plan, ownerID, vis)
}

func TestIngestPicturePersistsDimensions(t *testing.T) {
	o, r, _ := newTestOrchestrator()
	res, err := o.Ingest(context.Background(), Request{PayloadBytes: pngPayload(t, 3, 4)})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Item.Picture == nil || res.Item.Picture.Width != 3 || res.Item.Picture.Height != 4 {
		t.Errorf("picture = %+v", res.Item.Picture)
	}
	if r.Len() != 1 {
		t.Errorf("repo len = %d", r.Len())
	}
}
