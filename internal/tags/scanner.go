// Package tags scans a codebase for formula reference tags of the form
// $(version - index), e.g. $(0.6.4 - 12.3) or $(0.6.4 - 12.3/12.4).
package tags

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// Tag is one formula reference found in a source file. A tag listing
// several indices ($(v - a/b)) yields one Tag per index, sharing file,
// line, and version.
type Tag struct {
	File    string
	Line    int
	Version string
	Index   string
}

var tagPattern = regexp.MustCompile(`\$\((.*?)\)`)

// Scanner walks a directory tree collecting tags. Ignore entries are plain
// names (matched against any path element's base) or doublestar globs
// matched against the path relative to the scan root.
type Scanner struct {
	ignore []string
}

func NewScanner(ignore []string) *Scanner {
	return &Scanner{ignore: ignore}
}

// Scan returns every tag under root in walk order. Files that are not
// valid text are skipped silently; a malformed tag aborts its file, and all
// such errors are reported together once the walk finishes.
func (s *Scanner) Scan(root string) ([]Tag, error) {
	var found []Tag
	var scanErrs []error

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}

		if d.IsDir() {
			if path != root && s.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.ignored(rel) {
			return nil
		}

		fileTags, err := scanFile(path)
		if err != nil {
			scanErrs = append(scanErrs, err)
			return nil
		}
		found = append(found, fileTags...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, errors.Join(scanErrs...)
}

func (s *Scanner) ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, pat := range s.ignore {
		if base == pat {
			return true
		}
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// scanFile extracts the tags of one file. Binary content is not an error,
// it is simply skipped.
func scanFile(path string) ([]Tag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, nil
	}

	var found []Tag
	for n, line := range strings.Split(string(data), "\n") {
		for _, m := range tagPattern.FindAllStringSubmatch(line, -1) {
			version, rest, ok := strings.Cut(m[1], "-")
			if !ok {
				return nil, fmt.Errorf("%s:%d: malformed tag %q: missing '-' separator", path, n+1, m[0])
			}

			version = strings.TrimSpace(version)
			for _, idx := range strings.Split(rest, "/") {
				found = append(found, Tag{
					File:    path,
					Line:    n + 1,
					Version: version,
					Index:   strings.TrimSpace(idx),
				})
			}
		}
	}
	return found, nil
}
