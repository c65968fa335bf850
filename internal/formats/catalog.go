// Package formats holds the output format catalog and the negotiation logic
// that decides which catalog entries the current engine can actually encode
// and which ones to offer for a given selection.
package formats

import (
	"strings"

	"github.com/backmassage/pixshift/internal/media"
)

// OutputFormat describes one encodable target.
type OutputFormat struct {
	ID        string `yaml:"id" toml:"id"`
	Label     string `yaml:"label" toml:"label"`
	Extension string `yaml:"extension" toml:"extension"`
	MimeType  string `yaml:"mimeType" toml:"mimeType"`
	Lossy     bool   `yaml:"lossy" toml:"lossy"`
}

// DefaultCatalog returns a fresh copy of the built-in catalog. The first
// entry is the lossless fallback used when nothing probes as encodable.
func DefaultCatalog() []OutputFormat {
	return []OutputFormat{
		{ID: "png", Label: "PNG", Extension: "png", MimeType: "image/png", Lossy: false},
		{ID: "jpeg", Label: "JPEG", Extension: "jpg", MimeType: "image/jpeg", Lossy: true},
		{ID: "webp", Label: "WebP", Extension: "webp", MimeType: "image/webp", Lossy: true},
	}
}

// ByID returns the format with the given id from list.
func ByID(id string, list []OutputFormat) (OutputFormat, bool) {
	for _, f := range list {
		if f.ID == id {
			return f, true
		}
	}
	return OutputFormat{}, false
}

// signature is a stable identity for an ordered format list, used to detect
// when the offered options change.
func signature(list []OutputFormat) string {
	ids := make([]string, len(list))
	for i, f := range list {
		ids[i] = f.ID
	}
	return strings.Join(ids, "|")
}

// jpegAliases collapses the JPEG family onto one token.
var jpegAliases = map[string]string{
	"jpg":   "jpeg",
	"jpeg":  "jpeg",
	"jfif":  "jpeg",
	"pjpeg": "jpeg",
}

func canonical(token string) string {
	token = strings.ToLower(strings.TrimSpace(token))
	if alias, ok := jpegAliases[token]; ok {
		return alias
	}
	return token
}

// mimeToken returns the subtype of a media type ("image/svg+xml" -> "svg").
func mimeToken(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	slash := strings.Index(mediaType, "/")
	if slash == -1 {
		return ""
	}
	sub := mediaType[slash+1:]
	if plus := strings.Index(sub, "+"); plus >= 0 {
		sub = sub[:plus]
	}
	return sub
}

// InferID returns the catalog id matching the file's current format, or ""
// when it cannot be inferred. The declared media type is tried first, then
// the file extension.
func InferID(f media.File, catalog []OutputFormat) string {
	if token := canonical(mimeToken(f.MediaType)); token != "" {
		for _, format := range catalog {
			if canonical(mimeToken(format.MimeType)) == token || canonical(format.ID) == token {
				return format.ID
			}
		}
	}

	ext := canonical(f.Ext())
	if ext == "" {
		return ""
	}
	for _, format := range catalog {
		if canonical(format.Extension) == ext || canonical(format.ID) == ext {
			return format.ID
		}
	}
	return ""
}

// FilterForSelection removes the input's own format from offered when exactly
// one file is selected. With zero or several files, offered is returned as-is.
func FilterForSelection(offered []OutputFormat, selected []media.File) []OutputFormat {
	if len(selected) != 1 {
		return offered
	}
	current := InferID(selected[0], offered)
	if current == "" {
		return offered
	}
	out := make([]OutputFormat, 0, len(offered))
	for _, f := range offered {
		if f.ID != current {
			out = append(out, f)
		}
	}
	return out
}
