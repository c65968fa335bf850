package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/backmassage/pixshift/internal/formats"
	"github.com/backmassage/pixshift/internal/media"
	"github.com/backmassage/pixshift/internal/naming"
)

// Target selects the output format and quality of a conversion. Quality is
// in [0,1]; it only applies to lossy formats and 0 means DefaultQuality.
type Target struct {
	Format  formats.OutputFormat
	Quality float64
}

// Result is a successful conversion.
type Result struct {
	OutputName string
	Blob       media.Blob
	Dimensions media.Dimensions
}

// Info is optional descriptive metadata used for verbose reporting.
type Info struct {
	Dimensions  media.Dimensions
	CameraModel string
	Taken       time.Time
}

// Engine is the stateless decode/encode engine. Its methods are safe for
// concurrent use, but callers that share a rendering surface are expected to
// serialize calls themselves.
type Engine struct{}

// NewEngine returns a ready engine.
func NewEngine() *Engine { return &Engine{} }

// Measure returns the pixel dimensions of f without decoding pixel data.
func (e *Engine) Measure(ctx context.Context, f media.File) (media.Dimensions, error) {
	if err := ctx.Err(); err != nil {
		return media.Dimensions{}, err
	}
	data, err := readFile(f)
	if err != nil {
		return media.Dimensions{}, err
	}
	return decodeConfig(f, data)
}

// DecodeToPreview decodes f and re-encodes it as a PNG whose longest edge is
// at most maxEdge.
func (e *Engine) DecodeToPreview(ctx context.Context, f media.File, maxEdge int) (media.Blob, error) {
	if err := ctx.Err(); err != nil {
		return media.Blob{}, err
	}
	img, err := load(f)
	if err != nil {
		return media.Blob{}, err
	}
	b := img.Bounds()
	w, h := PreviewSize(b.Dx(), b.Dy(), maxEdge)
	if w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	blob, err := encode(img, "image/png", 0)
	if err != nil {
		return media.Blob{}, &EncodeError{Name: f.Name, MediaType: "image/png", Err: err}
	}
	return blob, nil
}

// Convert decodes f and encodes it as t.Format. The output name is the
// source stem plus the format's extension.
func (e *Engine) Convert(ctx context.Context, f media.File, t Target) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	img, err := load(f)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	quality := 0.0
	if t.Format.Lossy {
		quality = t.Quality
		if quality <= 0 {
			quality = DefaultQuality
		}
	}

	want := canonicalType(t.Format.MimeType)
	blob, err := encode(img, want, quality)
	if err != nil {
		return Result{}, &EncodeError{Name: f.Name, MediaType: want, Err: err}
	}
	if blob.MediaType != want {
		return Result{}, &EncodeError{Name: f.Name, MediaType: want, Err: ErrNoEncoder}
	}

	b := img.Bounds()
	return Result{
		OutputName: naming.OutputName(f.Name, t.Format.Extension),
		Blob:       blob,
		Dimensions: media.Dimensions{Width: b.Dx(), Height: b.Dy()},
	}, nil
}

// ProbeFormatSupport encodes a 1x1 image as format and reports whether the
// result declares the requested media type.
func (e *Engine) ProbeFormatSupport(ctx context.Context, format formats.OutputFormat) bool {
	if ctx.Err() != nil {
		return false
	}
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	want := canonicalType(format.MimeType)
	blob, err := encode(img, want, DefaultQuality)
	if err != nil {
		return false
	}
	return blob.MediaType == want && len(blob.Data) > 0
}

// Inspect returns dimensions plus any EXIF camera model and capture time.
// Missing EXIF data is not an error.
func (e *Engine) Inspect(ctx context.Context, f media.File) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	data, err := readFile(f)
	if err != nil {
		return Info{}, err
	}
	dims, err := decodeConfig(f, data)
	if err != nil {
		return Info{}, err
	}
	info := Info{Dimensions: dims}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return info, nil
	}
	if model, err := x.Get(exif.Model); err == nil {
		if s, err := model.StringVal(); err == nil {
			info.CameraModel = strings.TrimSpace(s)
		}
	}
	if t, err := x.DateTime(); err == nil {
		info.Taken = t
	}
	return info, nil
}

// Decoders lists the input kinds this build can decode, for diagnostics.
func Decoders() []string {
	return []string{"png", "jpeg", "gif", "webp", "bmp", "tiff", "ico", "svg"}
}

func load(f media.File) (image.Image, error) {
	data, err := readFile(f)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(f, data)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (r Result) String() string {
	return fmt.Sprintf("%s (%dx%d, %d bytes)", r.OutputName, r.Dimensions.Width, r.Dimensions.Height, r.Blob.Size())
}
