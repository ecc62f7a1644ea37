package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestPutAndOpen(t *testing.T) {
	s := tempFS(t)
	content := []byte("payload bytes")
	if err := s.Put("ABCD1234", models.FormatPlain, Source{Bytes: content}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := s.Open("ABCD1234", models.FormatPlain)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestPutPathNaming(t *testing.T) {
	s := tempFS(t)
	if err := s.Put("XY123456", models.FormatPNG, Source{Bytes: []byte{1}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "XY123456.png")); err != nil {
		t.Errorf("expected XY123456.png under root: %v", err)
	}
}

func TestPutFromPath(t *testing.T) {
	s := tempFS(t)
	src := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(src, []byte("from a file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("FFFF0000", models.FormatPlain, Source{Path: src}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := s.Open("FFFF0000", models.FormatPlain)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "from a file" {
		t.Errorf("content = %q", got)
	}
}

func TestPutRequiresExactlyOneSource(t *testing.T) {
	s := tempFS(t)
	if err := s.Put("AAAA0000", models.FormatPlain, Source{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty source: err = %v, want ErrValidation", err)
	}
	err := s.Put("AAAA0000", models.FormatPlain, Source{Bytes: []byte("x"), Path: "y"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("both sources: err = %v, want ErrValidation", err)
	}
}

func TestPutLeavesNoTempOnFailure(t *testing.T) {
	s := tempFS(t)
	err := s.Put("AAAA0000", models.FormatPlain, Source{Path: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("expected error for missing source path")
	}
	entries, readErr := os.ReadDir(s.Root())
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("root not empty after failed put: %v", entries)
	}
}

func TestOpenMissing(t *testing.T) {
	s := tempFS(t)
	_, err := s.Open("NOPE0000", models.FormatPlain)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := tempFS(t)
	if err := s.Put("DDDD0000", models.FormatPlain, Source{Bytes: []byte("x")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete("DDDD0000", models.FormatPlain); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("DDDD0000", models.FormatPlain); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, err := s.Open("DDDD0000", models.FormatPlain); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("payload still readable after delete: %v", err)
	}
}

func TestPutOverwritesExisting(t *testing.T) {
	// Content addressing means same code implies same bytes; an overwrite
	// with identical content must still succeed cleanly.
	s := tempFS(t)
	for range 2 {
		if err := s.Put("SAME0000", models.FormatPlain, Source{Bytes: []byte("same")}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	rc, err := s.Open("SAME0000", models.FormatPlain)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "same" {
		t.Errorf("content = %q", got)
	}
}
