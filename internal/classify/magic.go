package classify

import (
	"bytes"

	"github.com/marcus-grant/depo/internal/models"
)

// magicDetector recognizes one format's byte signature. The registry is
// data: adding a format means adding an entry, not a branch.
type magicDetector struct {
	format models.ContentFormat
	detect func([]byte) bool
}

var magicDetectors = []magicDetector{
	{models.FormatPNG, detectPNG},
	{models.FormatJPEG, detectJPEG},
	{models.FormatWEBP, detectWEBP},
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func detectPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngMagic)
}

// JPEG SOI marker plus the common APP0/APP1/DQT follow-ups (JFIF, EXIF,
// raw JPEG).
var jpegMagics = [][]byte{
	{0xff, 0xd8, 0xff, 0xe0},
	{0xff, 0xd8, 0xff, 0xe1},
	{0xff, 0xd8, 0xff, 0xdb},
}

func detectJPEG(data []byte) bool {
	for _, m := range jpegMagics {
		if bytes.HasPrefix(data, m) {
			return true
		}
	}
	return false
}

// WEBP is a RIFF container: "RIFF" <4-byte size> "WEBP".
func detectWEBP(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WEBP"))
}

func fromMagicBytes(data []byte, _ Hints) (Classification, bool) {
	for _, d := range magicDetectors {
		if d.detect(data) {
			return classificationFor(d.format)
		}
	}
	return Classification{}, false
}
