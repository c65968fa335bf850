// Package naming derives output file names from source names and resolves
// collisions between outputs written into the same directory.
package naming

import (
	"path/filepath"
	"strings"
)

// StripExtension removes the last extension from name. Names without a dot,
// or whose only dot is the first character (".hidden"), are returned as-is.
func StripExtension(name string) string {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return name
	}
	return name[:dot]
}

// OutputName builds "<stem>.<ext>" for a converted file. ext is given
// without the leading dot.
func OutputName(sourceName, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	stem := StripExtension(filepath.Base(sourceName))
	if stem == "" {
		stem = "image"
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

// OutputPath joins an output name onto dir, flattening any path separators
// that slipped into the name so writes cannot escape dir.
func OutputPath(dir, name string) string {
	clean := strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if clean == "" || clean == "." || clean == ".." {
		clean = "image"
	}
	return filepath.Join(dir, clean)
}
