package models

import (
	"fmt"
	"strings"
)

// MIME types are derived at serve time; only the canonical format value
// is persisted.
var formatToMIME = map[ContentFormat]string{
	FormatPlain:    "text/plain",
	FormatMarkdown: "text/markdown",
	FormatJSON:     "application/json",
	FormatYAML:     "application/yaml",
	FormatPNG:      "image/png",
	FormatJPEG:     "image/jpeg",
	FormatWEBP:     "image/webp",
}

var mimeToFormat = map[string]ContentFormat{
	"text/plain":         FormatPlain,
	"text/markdown":      FormatMarkdown,
	"application/json":   FormatJSON,
	"application/yaml":   FormatYAML,
	"text/yaml":          FormatYAML,
	"application/x-yaml": FormatYAML,
	"image/png":          FormatPNG,
	"image/jpeg":         FormatJPEG,
	"image/webp":         FormatWEBP,
}

var extToFormat = map[string]ContentFormat{
	"txt":      FormatPlain,
	"text":     FormatPlain,
	"md":       FormatMarkdown,
	"markdown": FormatMarkdown,
	"json":     FormatJSON,
	"yaml":     FormatYAML,
	"yml":      FormatYAML,
	"png":      FormatPNG,
	"jpg":      FormatJPEG,
	"jpeg":     FormatJPEG,
	"webp":     FormatWEBP,
}

var formatToKind = map[ContentFormat]ItemKind{
	FormatPlain:    KindText,
	FormatMarkdown: KindText,
	FormatJSON:     KindText,
	FormatYAML:     KindText,
	FormatPNG:      KindPicture,
	FormatJPEG:     KindPicture,
	FormatWEBP:     KindPicture,
}

// MIMEForFormat returns the MIME type for the Content-Type header.
func MIMEForFormat(f ContentFormat) (string, error) {
	m, ok := formatToMIME[f]
	if !ok {
		return "", fmt.Errorf("models: no MIME mapping for format %q", f)
	}
	return m, nil
}

// FormatForMIME maps a bare MIME type (no parameters) to a format.
func FormatForMIME(mime string) (ContentFormat, bool) {
	f, ok := mimeToFormat[strings.ToLower(mime)]
	return f, ok
}

// FormatForExtension maps a file extension (without dot) to a format.
func FormatForExtension(ext string) (ContentFormat, bool) {
	f, ok := extToFormat[strings.ToLower(ext)]
	return f, ok
}

// ExtensionForFormat returns the storage file extension without the dot.
// Format values are chosen to be their own extension.
func ExtensionForFormat(f ContentFormat) string {
	return string(f)
}

// KindForFormat returns the ItemKind a format belongs to.
func KindForFormat(f ContentFormat) (ItemKind, error) {
	k, ok := formatToKind[f]
	if !ok {
		return "", fmt.Errorf("models: no kind mapping for format %q", f)
	}
	return k, nil
}

// ParseFormat resolves a user-supplied format name (canonical value or
// common alias) to a ContentFormat.
func ParseFormat(s string) (ContentFormat, bool) {
	return FormatForExtension(strings.TrimSpace(s))
}
