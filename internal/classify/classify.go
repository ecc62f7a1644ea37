// Package classify determines what kind of content a payload is.
//
// Classification is a fixed-priority strategy chain: an explicit
// requested format wins, then the declared MIME type, then magic-byte
// detection, then the filename extension, then URL detection, then a
// plain-text fallback. The order is part of the contract and must not
// be reshuffled.
package classify

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/models"
)

// Classification is the (kind, format) result of classifying a payload.
// Format is empty when Kind is Link.
type Classification struct {
	Kind   models.ItemKind
	Format models.ContentFormat
}

// Hints are the optional caller-supplied signals. Zero values mean the
// hint is absent.
type Hints struct {
	Filename        string
	DeclaredMIME    string
	RequestedFormat models.ContentFormat
}

// strategy inspects the payload and hints; ok=false means "no opinion",
// letting the next strategy try.
type strategy func(data []byte, h Hints) (Classification, bool)

// Strategies run in priority order; first match wins.
var strategies = []strategy{
	fromRequestedFormat,
	fromDeclaredMIME,
	fromMagicBytes,
	fromFilename,
	fromURL,
	fromPlainText,
}

// Classify resolves payload bytes plus hints to a (kind, format) pair.
// Pure function, no I/O.
func Classify(data []byte, h Hints) (Classification, error) {
	for _, s := range strategies {
		if c, ok := s(data, h); ok {
			return c, nil
		}
	}
	return Classification{}, fmt.Errorf("classify: no strategy matched: %w", apperr.ErrUnclassified)
}

func classificationFor(f models.ContentFormat) (Classification, bool) {
	kind, err := models.KindForFormat(f)
	if err != nil {
		return Classification{}, false
	}
	return Classification{Kind: kind, Format: f}, true
}

func fromRequestedFormat(_ []byte, h Hints) (Classification, bool) {
	if h.RequestedFormat == "" {
		return Classification{}, false
	}
	return classificationFor(h.RequestedFormat)
}

func fromDeclaredMIME(_ []byte, h Hints) (Classification, bool) {
	if h.DeclaredMIME == "" {
		return Classification{}, false
	}
	// Strip parameters: "text/plain; charset=utf-8" -> "text/plain".
	mt, _, err := mime.ParseMediaType(h.DeclaredMIME)
	if err != nil {
		return Classification{}, false
	}
	f, ok := models.FormatForMIME(mt)
	if !ok {
		return Classification{}, false
	}
	return classificationFor(f)
}

func fromFilename(_ []byte, h Hints) (Classification, bool) {
	name := h.Filename
	if name == "" {
		return Classification{}, false
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	// path.Ext(".bashrc") == ".bashrc": a dotfile's "extension" is its
	// whole name, which is not an extension at all.
	if ext == "" || "."+ext == name {
		return Classification{}, false
	}
	f, ok := models.FormatForExtension(ext)
	if !ok {
		return Classification{}, false
	}
	return classificationFor(f)
}

func fromURL(data []byte, _ Hints) (Classification, bool) {
	if !utf8.Valid(data) {
		return Classification{}, false
	}
	if !LooksLikeURL(strings.TrimSpace(string(data))) {
		return Classification{}, false
	}
	return Classification{Kind: models.KindLink}, true
}

func fromPlainText(data []byte, _ Hints) (Classification, bool) {
	if len(data) == 0 || !utf8.Valid(data) {
		return Classification{}, false
	}
	for _, b := range data {
		// Ban C0 controls other than whitespace, plus DEL.
		if (b < 0x20 && b != '\t' && b != '\n' && b != '\r') || b == 0x7f {
			return Classification{}, false
		}
	}
	return Classification{Kind: models.KindText, Format: models.FormatPlain}, true
}

// LooksLikeURL reports whether text parses structurally as a URL:
// either an absolute http(s) URL with a host, or a bare host containing
// a dot with no whitespace.
func LooksLikeURL(text string) bool {
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return false
	}
	if u, err := url.Parse(text); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return u.Host != ""
	}
	u, err := url.Parse("https://" + text)
	if err != nil || u.Host == "" || len(u.Host) >= 100 {
		return false
	}
	return strings.Contains(u.Host, ".")
}
