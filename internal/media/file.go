package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Opener yields a fresh reader over a file's content. Each call must return
// an independent reader positioned at the start.
type Opener func() (io.ReadCloser, error)

// File is the descriptor for one user-selected file. It is populated once at
// selection time and never mutated afterwards.
type File struct {
	Name      string // Base name as presented to the user.
	Size      int64  // Declared byte size.
	MediaType string // Declared media type, e.g. "image/png". May be empty.
	Open      Opener
}

// Ext returns the lowercase extension of the file name without the dot, or
// "" when the name has none (or ends in a dot).
func (f File) Ext() string {
	return Ext(f.Name)
}

// ReadAll opens the file and reads its full content.
func (f File) ReadAll() ([]byte, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("%s: no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}

// FromPath builds a File for a path on disk. The declared media type is
// sniffed from content; unreadable or unrecognized content leaves it as the
// generic type reported by the detector.
func FromPath(path string) (File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if fi.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	mediaType := ""
	if mt, err := mimetype.DetectFile(path); err == nil {
		mediaType = mt.String()
	}
	return File{
		Name:      filepath.Base(path),
		Size:      fi.Size(),
		MediaType: mediaType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromBytes builds an in-memory File. An empty mediaType is sniffed from data.
func FromBytes(name, mediaType string, data []byte) File {
	if mediaType == "" && len(data) > 0 {
		mediaType = mimetype.Detect(data).String()
	}
	return File{
		Name:      name,
		Size:      int64(len(data)),
		MediaType: mediaType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Ext returns the lowercase extension of name without the dot.
func Ext(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	dot := strings.LastIndex(normalized, ".")
	if dot == -1 || dot == len(normalized)-1 {
		return ""
	}
	return normalized[dot+1:]
}
