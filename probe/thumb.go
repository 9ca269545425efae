package probe

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Thumbnailer produces JPEG thumbnails. A thumbnail is always returned:
// when the source cannot be decoded a labeled placeholder tile is generated
// instead.
type Thumbnailer struct {
	Quality int
}

func NewThumbnailer() *Thumbnailer {
	return &Thumbnailer{Quality: 80}
}

// Thumbnail decodes r and downscales it to fit within w x h, preserving
// aspect ratio. On any decode failure it falls back to Placeholder.
func (t *Thumbnailer) Thumbnail(name string, r io.Reader, w, h int) []byte {
	if w <= 0 {
		w = 256
	}
	if h <= 0 {
		h = 256
	}

	out, err := t.decodeAndFit(r, w, h)
	if err != nil {
		slog.Debug("thumbnail decode failed, using placeholder", "name", name, "err", err)
		return t.Placeholder(name, w, h)
	}
	return out
}

func (t *Thumbnailer) decodeAndFit(r io.Reader, w, h int) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("thumbnail decode panicked", "panic", rec)
			out, err = nil, io.ErrUnexpectedEOF
		}
	}()

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	fitted := imaging.Fit(img, w, h, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fitted, &jpeg.Options{Quality: t.quality()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Thumbnailer) quality() int {
	if t.Quality <= 0 || t.Quality > 100 {
		return 80
	}
	return t.Quality
}

// categoryColors maps file categories to placeholder tile backgrounds.
var categoryColors = map[string]color.RGBA{
	"image":    {R: 0x8E, G: 0x44, B: 0xAD, A: 0xFF},
	"video":    {R: 0xC0, G: 0x39, B: 0x2C, A: 0xFF},
	"audio":    {R: 0x27, G: 0xAE, B: 0x60, A: 0xFF},
	"document": {R: 0x29, G: 0x80, B: 0xB9, A: 0xFF},
	"archive":  {R: 0xD3, G: 0x54, B: 0x00, A: 0xFF},
	"other":    {R: 0x7F, G: 0x8C, B: 0x8D, A: 0xFF},
}

func categoryFor(ext string) string {
	switch ext {
	case "jpg", "jpeg", "png", "gif", "bmp", "webp", "tif", "tiff", "heic":
		return "image"
	case "mp4", "mkv", "avi", "mov", "webm", "m4v", "3gp":
		return "video"
	case "mp3", "wav", "flac", "ogg", "m4a", "aac", "opus":
		return "audio"
	case "pdf", "doc", "docx", "txt", "md", "odt", "xls", "xlsx", "ppt", "pptx":
		return "document"
	case "zip", "tar", "gz", "rar", "7z", "xz":
		return "archive"
	default:
		return "other"
	}
}

// Placeholder renders a solid-color tile labeled with the file extension.
// The background comes from a small category table; the label is black or
// white, whichever contrasts better with the background luminance.
func (t *Thumbnailer) Placeholder(name string, w, h int) []byte {
	if w <= 0 {
		w = 256
	}
	if h <= 0 {
		h = 256
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	bg := categoryColors[categoryFor(ext)]

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	label := strings.ToUpper(ext)
	if label == "" {
		label = "FILE"
	}
	drawLabel(img, label, textColorFor(bg), w, h)

	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: t.quality()})
	return buf.Bytes()
}

// textColorFor picks black or white by background luminance (ITU-R BT.601
// weights).
func textColorFor(bg color.RGBA) color.Color {
	luma := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luma > 140 {
		return color.Black
	}
	return color.White
}

func drawLabel(img *image.RGBA, label string, col color.Color, w, h int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I((w - width) / 2),
			Y: fixed.I((h + face.Ascent) / 2),
		},
	}
	d.DrawString(label)
}
