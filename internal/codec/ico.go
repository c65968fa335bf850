package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/bmp"
)

// ICO files are a directory of images. Each entry holds either a PNG stream
// or a BMP without its file header whose height counts the color and mask
// planes together.

const (
	icoHeaderLen  = 6
	icoEntryLen   = 16
	bmpFileHeader = 14
	dibMinHeader  = 40
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type icoEntry struct {
	width, height int
	bitCount      int
	payload       []byte
}

func readICODir(data []byte) ([]icoEntry, error) {
	if len(data) < icoHeaderLen {
		return nil, errors.New("ico: short header")
	}
	le := binary.LittleEndian
	if le.Uint16(data[0:]) != 0 {
		return nil, errors.New("ico: bad reserved field")
	}
	if t := le.Uint16(data[2:]); t != 1 && t != 2 {
		return nil, fmt.Errorf("ico: unknown resource type %d", t)
	}
	n := int(le.Uint16(data[4:]))
	if n == 0 {
		return nil, errors.New("ico: no images")
	}
	if len(data) < icoHeaderLen+n*icoEntryLen {
		return nil, errors.New("ico: short directory")
	}

	entries := make([]icoEntry, 0, n)
	for i := 0; i < n; i++ {
		b := data[icoHeaderLen+i*icoEntryLen:]
		size, offset := uint64(le.Uint32(b[8:])), uint64(le.Uint32(b[12:]))
		if size == 0 || offset+size > uint64(len(data)) {
			return nil, fmt.Errorf("ico: entry %d out of range", i)
		}
		e := icoEntry{
			width:    int(b[0]),
			height:   int(b[1]),
			bitCount: int(le.Uint16(b[6:])),
			payload:  data[offset : offset+size],
		}
		// Zero means 256 in the directory.
		if e.width == 0 {
			e.width = 256
		}
		if e.height == 0 {
			e.height = 256
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// largestICOEntry picks the biggest image, then the deepest color.
func largestICOEntry(data []byte) (icoEntry, error) {
	entries, err := readICODir(data)
	if err != nil {
		return icoEntry{}, err
	}
	best := entries[0]
	for _, e := range entries[1:] {
		area, bestArea := e.width*e.height, best.width*best.height
		if area > bestArea || (area == bestArea && e.bitCount > best.bitCount) {
			best = e
		}
	}
	return best, nil
}

func decodeICOConfig(data []byte) (image.Config, error) {
	e, err := largestICOEntry(data)
	if err != nil {
		return image.Config{}, err
	}
	if bytes.HasPrefix(e.payload, pngMagic) {
		return png.DecodeConfig(bytes.NewReader(e.payload))
	}
	file, err := dibToBMP(e.payload)
	if err != nil {
		return image.Config{}, err
	}
	return bmp.DecodeConfig(bytes.NewReader(file))
}

func decodeICO(data []byte) (image.Image, error) {
	e, err := largestICOEntry(data)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(e.payload, pngMagic) {
		return png.Decode(bytes.NewReader(e.payload))
	}
	file, err := dibToBMP(e.payload)
	if err != nil {
		return nil, err
	}
	return bmp.Decode(bytes.NewReader(file))
}

// dibToBMP prepends a file header to an icon bitmap and halves its height so
// only the color plane is decoded; the trailing mask is ignored.
func dibToBMP(dib []byte) ([]byte, error) {
	le := binary.LittleEndian
	if len(dib) < dibMinHeader {
		return nil, errors.New("ico: short bitmap header")
	}
	headerLen := le.Uint32(dib[0:])
	if headerLen < dibMinHeader || uint64(headerLen) > uint64(len(dib)) {
		return nil, fmt.Errorf("ico: bad bitmap header size %d", headerLen)
	}
	height := int32(le.Uint32(dib[8:])) / 2
	if height <= 0 {
		return nil, errors.New("ico: bad bitmap height")
	}
	paletteLen := uint32(0)
	if bpp := le.Uint16(dib[14:]); bpp <= 8 {
		colors := le.Uint32(dib[32:])
		if colors == 0 {
			colors = 1 << bpp
		}
		paletteLen = colors * 4
	}

	out := make([]byte, bmpFileHeader+len(dib))
	out[0], out[1] = 'B', 'M'
	le.PutUint32(out[2:], uint32(len(out)))
	le.PutUint32(out[10:], bmpFileHeader+headerLen+paletteLen)
	copy(out[bmpFileHeader:], dib)
	le.PutUint32(out[bmpFileHeader+8:], uint32(height))
	return out, nil
}
