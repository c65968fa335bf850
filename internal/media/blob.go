package media

// Blob is an encoded result held in memory (a preview or a converted output).
type Blob struct {
	MediaType string
	Data      []byte
}

// Size returns the encoded byte length.
func (b Blob) Size() int64 { return int64(len(b.Data)) }

// Dimensions is the pixel size of a decoded image.
type Dimensions struct {
	Width  int
	Height int
}

// Pixels returns Width*Height as int64 to avoid overflow on large batches.
func (d Dimensions) Pixels() int64 {
	return int64(d.Width) * int64(d.Height)
}

// Megapixels returns the pixel count in millions.
func (d Dimensions) Megapixels() float64 {
	return float64(d.Pixels()) / 1_000_000
}
