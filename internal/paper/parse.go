// Package paper turns a parsed document tree into the ordered section and
// formula records a release database is built from.
package paper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"jambiato/internal/textree"
)

type Kind string

const (
	KindSection Kind = "section"
	KindFormula Kind = "formula"
)

// Record is one entry of the parser output: a section heading or a numbered
// formula, in document order.
type Record struct {
	Kind  Kind
	Label string // optional; "" when absent

	// Section fields
	Number string // "1", "2", ... or "A", "B" once the appendix begins
	Title  string

	// Formula fields
	Index string // "12.3" with per-section numbering, "47" otherwise
	Tex   string // verbatim source
}

// walkState is the traversal state of one Parse call: the current section,
// whether the appendix has begun, and the two counters that assign numbers.
type walkState struct {
	section    string
	appendix   bool
	sectionN   int
	formulaN   int
	perSection bool
}

const lineBreak = `\\`

// conditionalEnvs are sub-environments whose internal line breaks must not
// split a formula.
var conditionalEnvs = []string{"cases", "rcases", "aligned", "align*"}

var labelPattern = regexp.MustCompile(`\\label\{([^}]*)\}`)

// Parse walks the document tree and emits section and formula records in
// document order. With perSection enabled the formula counter restarts at
// every section, giving "<section>.<n>" indices; otherwise a single global
// counter runs through the whole document.
func Parse(root *textree.Node, perSection bool) ([]Record, error) {
	st := &walkState{sectionN: 1, formulaN: 1, perSection: perSection}

	var out []Record
	for _, child := range root.Children {
		if child.Name == "" {
			continue
		}
		if err := walk(child, st, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func walk(n *textree.Node, st *walkState, out *[]Record) error {
	switch n.Name {
	case "appendix":
		st.appendix = true
		st.sectionN = 1
		return nil

	case "label":
		attachSectionLabel(n, out)

	case "section":
		num := sectionNumber(st.appendix, st.sectionN)
		st.section = num
		var title string
		if len(n.Args) > 0 {
			title = n.Args[0]
		}
		*out = append(*out, Record{Kind: KindSection, Number: num, Title: title})
		st.sectionN++
		if st.perSection {
			st.formulaN = 1
		}

	case "equation", "align", "align*", "gather":
		if st.section == "" {
			return fmt.Errorf("formula outside section")
		}
		emitFormulas(n, st, out)
	}

	for _, c := range n.Children {
		if c.Name == "" {
			continue
		}
		if err := walk(c, st, out); err != nil {
			return err
		}
	}
	return nil
}

// A label directly following a section heading names that section. Nothing
// else ever labels a section.
func attachSectionLabel(n *textree.Node, out *[]Record) {
	if len(*out) == 0 || len(n.Args) == 0 {
		return
	}
	last := &(*out)[len(*out)-1]
	if last.Kind == KindSection && last.Label == "" && strings.Contains(n.Args[0], "sec:") {
		last.Label = n.Args[0]
	}
}

func emitFormulas(n *textree.Node, st *walkState, out *[]Record) {
	aligned := n.ChildrenNamed("aligned")

	switch {
	case len(aligned) > 1:
		// A group of aligned blocks is several independently numbered
		// formulas sharing one outer environment.
		for _, a := range aligned {
			*out = append(*out, st.formula(a.Text, nodeLabel(a)))
		}

	case n.Name == "align" && strings.Contains(n.Text, lineBreak):
		for _, tex := range splitAlign(n.Text) {
			*out = append(*out, st.formula(tex, rawLabel(tex)))
		}

	default:
		*out = append(*out, st.formula(n.Text, nodeLabel(n)))
	}
}

func (st *walkState) formula(tex, label string) Record {
	var idx string
	if st.perSection {
		idx = st.section + "." + strconv.Itoa(st.formulaN)
	} else {
		idx = strconv.Itoa(st.formulaN)
	}
	st.formulaN++
	return Record{Kind: KindFormula, Label: label, Index: idx, Tex: tex}
}

// nodeLabel prefers a structured label child and falls back to scanning the
// raw source for a label command.
func nodeLabel(n *textree.Node) string {
	if label, ok := n.FirstLabel(); ok {
		return label
	}
	return rawLabel(n.Text)
}

func rawLabel(tex string) string {
	if m := labelPattern.FindStringSubmatch(tex); m != nil {
		return m[1]
	}
	return ""
}

// splitAlign cuts an align block into one fragment per numbered line. A \\
// is not a cut point while the accumulated text still has an unclosed
// conditional sub-environment, or when the following line carries a
// \nonumber mark; those lines join the current fragment instead. Balance is
// counted over everything accumulated so far, so a conditional spanning
// several breaks holds the fragment open until its \end.
func splitAlign(text string) []string {
	parts := strings.Split(text, lineBreak)

	var formulas []string
	acc := parts[0]
	for _, next := range parts[1:] {
		if unbalanced(acc) || strings.Contains(next, `\nonumber`) {
			acc += lineBreak + next
			continue
		}
		formulas = append(formulas, acc)
		acc = next
	}
	return append(formulas, acc)
}

func unbalanced(s string) bool {
	for _, env := range conditionalEnvs {
		if strings.Count(s, `\begin{`+env+`}`) > strings.Count(s, `\end{`+env+`}`) {
			return true
		}
	}
	return false
}

func sectionNumber(appendix bool, counter int) string {
	if appendix {
		return string(rune('A' + counter - 1))
	}
	return strconv.Itoa(counter)
}
