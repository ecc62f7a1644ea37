package selector

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/ingest"
	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/repo"
	"github.com/marcus-grant/depo/internal/storage"
)

func seeded(t *testing.T, reqs ...ingest.Request) (*Selector, []ingest.PersistResult) {
	t.Helper()
	r := repo.NewMemory()
	s := storage.NewMemory()
	o := ingest.NewOrchestrator(ingest.NewService(ingest.Config{}), r, s, nil)

	results := make([]ingest.PersistResult, 0, len(reqs))
	for _, req := range reqs {
		res, err := o.Ingest(context.Background(), req)
		if err != nil {
			t.Fatalf("seed ingest: %v", err)
		}
		results = append(results, res)
	}
	return New(r, s), results
}

func TestGetItemCanonicalizesInput(t *testing.T) {
	sel, seeds := seeded(t, ingest.Request{PayloadBytes: []byte("lookup target")})
	code := seeds[0].Item.Code

	// Sloppy renditions of the same code: lowercase, hyphens, ambiguous
	// characters swapped in where the canonical form has their targets.
	sloppy := ""
	for i, r := range code {
		c := r
		switch r {
		case '0':
			c = 'O'
		case '1':
			c = 'l'
		case 'V':
			c = 'u'
		}
		if i == 4 {
			sloppy += "-"
		}
		sloppy += string(c)
	}

	got, err := sel.GetItem(context.Background(), "  "+strings.ToLower(sloppy)+"  ")
	if err != nil {
		t.Fatalf("GetItem(%q): %v", sloppy, err)
	}
	if got.Code != code {
		t.Errorf("resolved %q, want %q", got.Code, code)
	}
}

func TestGetItemInvalidCode(t *testing.T) {
	sel, _ := seeded(t)
	_, err := sel.GetItem(context.Background(), "not_a_code!")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestGetItemMissing(t *testing.T) {
	sel, _ := seeded(t)
	_, err := sel.GetItem(context.Background(), "AAAA0000")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetRawText(t *testing.T) {
	sel, seeds := seeded(t, ingest.Request{PayloadBytes: []byte("raw bytes here")})
	rc, item, err := sel.GetRaw(context.Background(), seeds[0].Item.Code)
	if err != nil {
		t.Fatalf("GetRaw: %v", err)
	}
	defer rc.Close()
	if item.Kind != models.KindText {
		t.Errorf("kind = %v", item.Kind)
	}
	got, _ := io.ReadAll(rc)
	if string(got) != "raw bytes here" {
		t.Errorf("payload = %q", got)
	}
}

func TestGetRawLinkHasNoReader(t *testing.T) {
	sel, seeds := seeded(t, ingest.Request{LinkURL: "https://example.com/target"})
	rc, item, err := sel.GetRaw(context.Background(), seeds[0].Item.Code)
	if err != nil {
		t.Fatalf("GetRaw: %v", err)
	}
	if rc != nil {
		rc.Close()
		t.Error("link lookup returned a payload reader")
	}
	if item.Link == nil || item.Link.URL != "https://example.com/target" {
		t.Errorf("link = %+v", item.Link)
	}
}

func TestGetRawMissingPayload(t *testing.T) {
	// Metadata exists but the payload file is gone: the read must fail
	// loudly rather than serve an empty body.
	r := repo.NewMemory()
	s := storage.NewMemory()
	o := ingest.NewOrchestrator(ingest.NewService(ingest.Config{}), r, s, nil)
	res, err := o.Ingest(context.Background(), ingest.Request{PayloadBytes: []byte("vanishing")})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(res.Item.Code, models.FormatPlain); err != nil {
		t.Fatal(err)
	}

	sel := New(r, s)
	_, _, err = sel.GetRaw(context.Background(), res.Item.Code)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetInfo(t *testing.T) {
	sel, seeds := seeded(t, ingest.Request{PayloadBytes: []byte("info target")})
	item, err := sel.GetInfo(context.Background(), seeds[0].Item.Code)
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if item.HashFull != seeds[0].Item.HashFull {
		t.Errorf("hash = %q", item.HashFull)
	}
}
