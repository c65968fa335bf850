package codec

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"math"
	"strings"

	ico "github.com/Kodeworks/golang-image-ico"
	"github.com/disintegration/imaging"

	"github.com/backmassage/pixshift/internal/media"
)

// DefaultQuality is used for lossy targets when the caller passes 0.
const DefaultQuality = 0.92

// encoder writes img to w. quality is in [0,1] and ignored by lossless
// encoders.
type encoder func(w io.Writer, img image.Image, quality float64) error

// encoders maps a canonical media type to its encoder. WebP and AVIF have no
// encoder in this build.
var encoders = map[string]encoder{
	"image/png": func(w io.Writer, img image.Image, _ float64) error {
		return imaging.Encode(w, img, imaging.PNG)
	},
	"image/jpeg": func(w io.Writer, img image.Image, q float64) error {
		return imaging.Encode(w, flatten(img), imaging.JPEG, imaging.JPEGQuality(jpegQuality(q)))
	},
	"image/gif": func(w io.Writer, img image.Image, _ float64) error {
		return imaging.Encode(w, img, imaging.GIF)
	},
	"image/bmp": func(w io.Writer, img image.Image, _ float64) error {
		return imaging.Encode(w, img, imaging.BMP)
	},
	"image/tiff": func(w io.Writer, img image.Image, _ float64) error {
		return imaging.Encode(w, img, imaging.TIFF)
	},
	"image/x-icon": func(w io.Writer, img image.Image, _ float64) error {
		return ico.Encode(w, img)
	},
}

var mediaTypeAliases = map[string]string{
	"image/jpg":                "image/jpeg",
	"image/pjpeg":              "image/jpeg",
	"image/vnd.microsoft.icon": "image/x-icon",
	"image/x-ms-bmp":           "image/bmp",
}

// canonicalType lowercases a media type, drops parameters and resolves aliases.
func canonicalType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if alias, ok := mediaTypeAliases[mt]; ok {
		return alias
	}
	return mt
}

// CanEncode reports whether an encoder is registered for mediaType.
func CanEncode(mediaType string) bool {
	_, ok := encoders[canonicalType(mediaType)]
	return ok
}

// encode renders img as mediaType. When no encoder exists the image is
// written as PNG and the returned blob declares image/png.
func encode(img image.Image, mediaType string, quality float64) (media.Blob, error) {
	mt := canonicalType(mediaType)
	enc, ok := encoders[mt]
	if !ok {
		mt = "image/png"
		enc = encoders[mt]
	}
	var buf bytes.Buffer
	if err := enc(&buf, img, quality); err != nil {
		return media.Blob{}, err
	}
	return media.Blob{MediaType: mt, Data: buf.Bytes()}, nil
}

// flatten composites img onto an opaque white background for formats
// without an alpha channel.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// jpegQuality maps a [0,1] quality onto the 1-100 JPEG scale.
func jpegQuality(q float64) int {
	if q <= 0 || math.IsNaN(q) {
		q = DefaultQuality
	}
	return Clamp(int(math.Round(q*100)), 1, 100)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PreviewSize scales (w, h) so the longest edge is at most maxEdge,
// preserving aspect ratio. Images already within bounds keep their size;
// neither edge drops below 1.
func PreviewSize(w, h, maxEdge int) (int, int) {
	maxDim := max(w, h)
	scale := 1.0
	if maxEdge > 0 && maxDim > maxEdge {
		scale = float64(maxEdge) / float64(maxDim)
	}
	pw := max(1, int(math.Round(float64(w)*scale)))
	ph := max(1, int(math.Round(float64(h)*scale)))
	return pw, ph
}
