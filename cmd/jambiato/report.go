package main

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"jambiato/internal/reconcile"
)

// printReport renders one reconciliation result: summary, missing formulas,
// outdated tags with rename hints, unrecognized tags, and the version-usage
// histogram. latestCount is the size of the latest release's database, the
// denominator for the missing percentage.
func printReport(res *reconcile.Result, latestCount int) {
	if len(res.Missing) == 0 && len(res.Outdated) == 0 && len(res.Unrecognized) == 0 {
		fmt.Println("✅ Your code is up to date")
		return
	}

	fmt.Printf("📊 %d tags scanned, dominant version %s (latest is %s)\n",
		res.TotalTags, res.Dominant, res.Latest)

	fmt.Printf("\nThere are %d missing definitions (%d%%):\n",
		len(res.Missing), reconcile.Percent(len(res.Missing), latestCount))
	for _, f := range res.Missing {
		label := "-"
		if f.Label != nil {
			label = *f.Label
		}
		fmt.Printf("\t%s\t%s\n", f.Index, label)
	}

	fmt.Printf("\nThere are %d outdated tags (%d%%, latest is %s):\n",
		len(res.Outdated), reconcile.Percent(len(res.Outdated), res.TotalTags), res.Latest)
	for _, st := range res.Outdated {
		t := st.Tag
		fmt.Printf("\t%s:%d\t$(%s - %s)%s\n", t.File, t.Line, t.Version, t.Index, hintSuffix(st.Rename))
	}

	fmt.Printf("\nThere are %d unrecognized tags (%d%%):\n",
		len(res.Unrecognized), reconcile.Percent(len(res.Unrecognized), res.TotalTags))
	for _, t := range res.Unrecognized {
		fmt.Printf("\t%s:%d\t$(%s - %s)\n", t.File, t.Line, t.Version, t.Index)
	}

	fmt.Println("\nVersion usage:")
	for _, v := range sortedVersions(res.Histogram) {
		fmt.Printf("\t%s\t%d\n", v, res.Histogram[v])
	}
}

func hintSuffix(h *reconcile.RenameHint) string {
	if h == nil {
		return ""
	}
	switch {
	case h.ByContent:
		return fmt.Sprintf("  probably %s => %s (same text)", h.OldIndex, h.NewIndex)
	case h.TexChanged:
		return fmt.Sprintf("  %s => %s (label %s, text changed)", h.OldIndex, h.NewIndex, h.Label)
	default:
		return fmt.Sprintf("  %s => %s (label %s)", h.OldIndex, h.NewIndex, h.Label)
	}
}

func sortedVersions(hist map[string]int) []string {
	vs := make([]string, 0, len(hist))
	for v := range hist {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool {
		return semver.Compare(canon(vs[i]), canon(vs[j])) < 0
	})
	return vs
}

func canon(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
