package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/pixshift/internal/media"
)

// Discover expands paths into a file list. File arguments are kept in the
// order given; directories contribute their files sorted lexicographically,
// descending into subdirectories only when recursive is set. Hidden files
// and directories (leading dot) are pruned. No extension filtering happens
// here: unsupported files must reach the validator to be counted as skipped.
func Discover(paths []string, recursive bool) ([]string, error) {
	var files []string
	for _, root := range paths {
		fi, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			files = append(files, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			hidden := path != root && strings.HasPrefix(d.Name(), ".")
			if d.IsDir() {
				if path != root && (hidden || !recursive) {
					return filepath.SkipDir
				}
				return nil
			}
			if !hidden && d.Type().IsRegular() {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// Collect discovers paths and builds a file descriptor for each.
func Collect(paths []string, recursive bool) ([]media.File, error) {
	found, err := Discover(paths, recursive)
	if err != nil {
		return nil, err
	}
	files := make([]media.File, 0, len(found))
	for _, p := range found {
		f, err := media.FromPath(p)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", p, err)
		}
		files = append(files, f)
	}
	return files, nil
}
