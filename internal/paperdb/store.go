// Package paperdb builds the per-release formula databases and persists
// them as one JSON artifact per release tag. Presence of an artifact is the
// cache-hit signal: a release whose file exists is never rebuilt.
package paperdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"jambiato/internal/paper"
)

// Formula is one stored record. Label is a pointer so an absent label
// round-trips as JSON null.
type Formula struct {
	Label *string `json:"label"`
	Index string  `json:"index"`
	Tex   string  `json:"tex"`
}

// Database maps a formula index to its record for one release.
type Database map[string]Formula

// Build converts parser output into an index-keyed database. A duplicate
// index is a parser defect and is reported, never silently overwritten.
func Build(records []paper.Record) (Database, error) {
	db := make(Database)
	for _, r := range records {
		if r.Kind != paper.KindFormula {
			continue
		}
		if _, dup := db[r.Index]; dup {
			return nil, fmt.Errorf("duplicate formula index %q", r.Index)
		}

		f := Formula{Index: r.Index, Tex: r.Tex}
		if r.Label != "" {
			label := r.Label
			f.Label = &label
		}
		db[r.Index] = f
	}
	return db, nil
}

// ArtifactPath returns the cache file backing one release tag.
func ArtifactPath(dir, tag string) string {
	return filepath.Join(dir, tag+".json")
}

// Exists reports whether a release's artifact is already built. Callers
// wanting a fresh parse must remove the file first.
func Exists(dir, tag string) bool {
	_, err := os.Stat(ArtifactPath(dir, tag))
	return err == nil
}

// Write serializes the database sorted by index and renames it into place,
// so an aborted run never leaves a partial artifact behind.
func Write(dir, tag string, db Database) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	list := make([]Formula, 0, len(db))
	for _, idx := range SortedIndexes(db) {
		list = append(list, db[idx])
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	path := ArtifactPath(dir, tag)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SortedIndexes returns the database's keys ordered by IndexLess.
func SortedIndexes(db Database) []string {
	idxs := make([]string, 0, len(db))
	for idx := range db {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return IndexLess(idxs[i], idxs[j]) })
	return idxs
}

// IndexLess orders formula indices numerically where possible, so "2.9"
// sorts before "12.1" and numeric body sections sort before lettered
// appendix sections.
func IndexLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			return ai < bi
		}
		if (aerr == nil) != (berr == nil) {
			return aerr == nil
		}
		return as[i] < bs[i]
	}
	return len(as) < len(bs)
}
