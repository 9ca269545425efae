// Package probe is the media introspection capability: best-effort decoding
// of dimensions, duration, and thumbnails. Nothing in this package lets a
// decode failure escape; callers always get partial metadata or a generated
// placeholder instead of an error they would have to surface.
package probe

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
)

// Info is what introspection could determine about a file. Unknown fields
// stay nil.
type Info struct {
	Width      *int
	Height     *int
	DurationMs *int64
}

// Prober inspects media content.
type Prober interface {
	// Probe examines a file's content. name is used for extension hints.
	// Never returns an error: whatever could not be determined is nil.
	Probe(name string, r io.Reader) Info
}

// ImageProber decodes image headers for dimensions. Durations are left nil;
// container parsing for audio and video is out of its reach and callers
// degrade accordingly.
type ImageProber struct{}

var _ Prober = ImageProber{}

func (ImageProber) Probe(name string, r io.Reader) (info Info) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("probe panicked", "name", name, "panic", rec)
			info = Info{}
		}
	}()

	if !isImageName(name) {
		return Info{}
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return Info{}
	}

	w, h := cfg.Width, cfg.Height
	return Info{Width: &w, Height: &h}
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	default:
		return false
	}
}

// MimeByName infers a MIME type from the file extension, defaulting to
// application/octet-stream.
func MimeByName(name string) string {
	ext := filepath.Ext(name)
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
