package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/backmassage/pixshift/internal/media"
)

// kind selects the decode path for a file.
type kind int

const (
	kindRaster kind = iota
	kindSVG
	kindICO
)

func kindOf(f media.File, data []byte) kind {
	mt := strings.ToLower(f.MediaType)
	ext := f.Ext()
	switch {
	case strings.Contains(mt, "svg") || ext == "svg":
		return kindSVG
	case strings.Contains(mt, "icon") || ext == "ico":
		return kindICO
	}
	// Sniffed content wins over a misleading name.
	if bytes.HasPrefix(data, []byte{0, 0, 1, 0}) {
		return kindICO
	}
	return kindRaster
}

// readFile loads the file content, mapping failures to DecodeError.
func readFile(f media.File) ([]byte, error) {
	data, err := f.ReadAll()
	if err != nil {
		return nil, &DecodeError{Name: f.Name, Err: err}
	}
	if len(data) == 0 {
		return nil, &DecodeError{Name: f.Name, Err: errors.New("empty file")}
	}
	return data, nil
}

// decodeConfig reads only as much of the file as needed for its dimensions.
func decodeConfig(f media.File, data []byte) (media.Dimensions, error) {
	var (
		w, h int
		err  error
	)
	switch kindOf(f, data) {
	case kindSVG:
		var icon *oksvg.SvgIcon
		icon, err = oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
		if err == nil {
			w, h = svgSize(icon)
		}
	case kindICO:
		var cfg image.Config
		cfg, err = decodeICOConfig(data)
		w, h = cfg.Width, cfg.Height
	default:
		var cfg image.Config
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
		w, h = cfg.Width, cfg.Height
	}
	if err != nil {
		return media.Dimensions{}, &DecodeError{Name: f.Name, Err: err}
	}
	if w <= 0 || h <= 0 {
		return media.Dimensions{}, &DecodeError{Name: f.Name, Err: fmt.Errorf("invalid dimensions %dx%d", w, h)}
	}
	return media.Dimensions{Width: w, Height: h}, nil
}

// decodeImage fully decodes the file. Raster images are auto-oriented from
// their EXIF orientation tag.
func decodeImage(f media.File, data []byte) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch kindOf(f, data) {
	case kindSVG:
		img, err = rasterizeSVG(bytes.NewReader(data))
	case kindICO:
		img, err = decodeICO(data)
	default:
		img, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	if err != nil {
		return nil, &DecodeError{Name: f.Name, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Name: f.Name, Err: errors.New("empty image")}
	}
	return img, nil
}

// defaultSVGEdge sizes SVGs that carry no usable viewBox.
const defaultSVGEdge = 512

func svgSize(icon *oksvg.SvgIcon) (int, int) {
	w := int(icon.ViewBox.W + 0.5)
	h := int(icon.ViewBox.H + 0.5)
	if w <= 0 || h <= 0 {
		return defaultSVGEdge, defaultSVGEdge
	}
	return w, h
}

func rasterizeSVG(r io.Reader) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(r, oksvg.WarnErrorMode)
	if err != nil {
		return nil, err
	}
	w, h := svgSize(icon)
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.Transparent, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return rgba, nil
}
