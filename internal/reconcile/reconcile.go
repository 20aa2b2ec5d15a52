// Package reconcile diffs a codebase's formula tags against the per-release
// databases, classifying each tag and finding latest-release formulas that
// nothing implements.
package reconcile

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"jambiato/internal/paperdb"
	"jambiato/internal/tags"
)

// RenameHint suggests where an outdated tag's formula moved in the latest
// release.
type RenameHint struct {
	OldIndex   string
	NewIndex   string
	Label      string // set for a label match; "" for a content match
	ByContent  bool   // matched by identical text only; lower confidence
	TexChanged bool   // label matched but the formula text drifted
}

// TagStatus is one outdated tag plus its rename hint, when one was found.
type TagStatus struct {
	Tag    tags.Tag
	Rename *RenameHint
}

// Result collects everything one reconciliation run reports.
type Result struct {
	Latest       string
	TotalTags    int
	Outdated     []TagStatus
	Missing      []paperdb.Formula
	Unrecognized []tags.Tag
	Histogram    map[string]int
	Dominant     string
}

// Reconcile classifies every tag against the databases and finds latest
// formulas nothing references. It keeps no state between runs: identical
// inputs always produce an identical Result.
func Reconcile(dbs map[string]paperdb.Database, latest string, tagList []tags.Tag) *Result {
	res := &Result{
		Latest:    latest,
		TotalTags: len(tagList),
		Histogram: make(map[string]int),
	}

	latestDB := dbs[latest]
	latestByLabel := make(map[string]paperdb.Formula)
	for _, f := range latestDB {
		if f.Label != nil {
			latestByLabel[*f.Label] = f
		}
	}
	latestSorted := paperdb.SortedIndexes(latestDB)

	referenced := make(map[string]bool)
	for _, t := range tagList {
		referenced[t.Index] = true
		res.Histogram[t.Version]++

		f, known := lookup(dbs, t)
		if !known {
			res.Unrecognized = append(res.Unrecognized, t)
		}
		if t.Version != latest {
			status := TagStatus{Tag: t}
			if known {
				status.Rename = renameHint(f, latestByLabel, latestDB, latestSorted)
			}
			res.Outdated = append(res.Outdated, status)
		}
	}

	// Missing is judged against exact latest indices only. A tag for the
	// same formula under an older version is already flagged outdated; the
	// two reports call for different fixes, so neither suppresses the
	// other.
	for _, idx := range latestSorted {
		if !referenced[idx] {
			res.Missing = append(res.Missing, latestDB[idx])
		}
	}

	res.Dominant = dominant(res.Histogram)
	sortStatuses(res.Outdated)
	sortTags(res.Unrecognized)

	return res
}

// lookup fails closed: a version with no database is treated the same as a
// database without the index.
func lookup(dbs map[string]paperdb.Database, t tags.Tag) (paperdb.Formula, bool) {
	db, ok := dbs[t.Version]
	if !ok {
		return paperdb.Formula{}, false
	}
	f, ok := db[t.Index]
	return f, ok
}

// renameHint re-identifies a formula across versions: by label when it has
// one, else by byte-identical text. Nil means no identity was found and the
// tag is reported as plainly outdated.
func renameHint(old paperdb.Formula, byLabel map[string]paperdb.Formula, latestDB paperdb.Database, sorted []string) *RenameHint {
	if old.Label != nil {
		if cur, ok := byLabel[*old.Label]; ok {
			if cur.Index == old.Index {
				return nil
			}
			return &RenameHint{
				OldIndex:   old.Index,
				NewIndex:   cur.Index,
				Label:      *old.Label,
				TexChanged: cur.Tex != old.Tex,
			}
		}
	}

	// Content fallback. Two latest formulas with identical text are
	// ambiguous; the first in index order wins, a known limitation of
	// content matching.
	for _, idx := range sorted {
		if cur := latestDB[idx]; cur.Tex == old.Tex {
			if cur.Index == old.Index {
				return nil
			}
			return &RenameHint{OldIndex: old.Index, NewIndex: cur.Index, ByContent: true}
		}
	}
	return nil
}

// Percent is count out of total as a percentage truncated toward zero.
func Percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return 100 * count / total
}

// dominant returns the most-tagged version, breaking ties toward the newer
// version so the answer is deterministic.
func dominant(hist map[string]int) string {
	var best string
	bestN := -1
	for v, n := range hist {
		if n > bestN || (n == bestN && semver.Compare(canonical(v), canonical(best)) > 0) {
			best, bestN = v, n
		}
	}
	return best
}

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

func sortStatuses(list []TagStatus) {
	sort.Slice(list, func(i, j int) bool {
		return tagLess(list[i].Tag, list[j].Tag)
	})
}

func sortTags(list []tags.Tag) {
	sort.Slice(list, func(i, j int) bool {
		return tagLess(list[i], list[j])
	})
}

func tagLess(a, b tags.Tag) bool {
	if a.Index != b.Index {
		return paperdb.IndexLess(a.Index, b.Index)
	}
	if a.File != b.File {
		return a.File < b.File
	}
	return a.Line < b.Line
}
