package textree

import (
	"regexp"
	"strings"
)

// equationEnvs are the environments that become named equation nodes.
var equationEnvs = map[string]bool{
	"equation": true,
	"align":    true,
	"align*":   true,
	"gather":   true,
}

var labelPattern = regexp.MustCompile(`\\label\{([^}]*)\}`)

// Parse tokenizes expanded LaTeX source into a document tree. It never
// fails: anything outside the recognized constructs becomes a raw-text
// leaf, including commands with malformed arguments.
func Parse(src string) *Node {
	root := &Node{Name: "document"}
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			root.Children = append(root.Children, &Node{Text: text.String()})
			text.Reset()
		}
	}
	emit := func(n *Node) {
		flush()
		root.Children = append(root.Children, n)
	}

	i := 0
	for i < len(src) {
		if src[i] != '\\' {
			text.WriteByte(src[i])
			i++
			continue
		}

		rest := src[i:]
		switch {
		case strings.HasPrefix(rest, `\appendix`):
			emit(&Node{Name: "appendix"})
			i += len(`\appendix`)

		case strings.HasPrefix(rest, `\section`):
			arg, next, ok := braceArg(src, i+len(`\section`))
			if !ok {
				text.WriteByte(src[i])
				i++
				continue
			}
			emit(&Node{Name: "section", Args: []string{arg}})
			i = next

		case strings.HasPrefix(rest, `\label`):
			arg, next, ok := braceArg(src, i+len(`\label`))
			if !ok {
				text.WriteByte(src[i])
				i++
				continue
			}
			emit(&Node{Name: "label", Args: []string{arg}})
			i = next

		case strings.HasPrefix(rest, `\begin{`):
			env, bodyStart, ok := envName(src, i)
			if !ok || !equationEnvs[env] {
				text.WriteByte(src[i])
				i++
				continue
			}
			end, ok := matchEnd(src, bodyStart, env)
			if !ok {
				text.WriteByte(src[i])
				i++
				continue
			}
			body := src[bodyStart : end-len(`\end{`+env+`}`)]
			emit(newEnvNode(env, src[i:end], body))
			i = end

		default:
			text.WriteByte(src[i])
			i++
		}
	}
	flush()
	return root
}

// newEnvNode builds an equation node. Its Text is the verbatim source
// including the \begin/\end wrapper; children are the labels found in the
// body plus one child per \begin{aligned} block, in document order.
func newEnvNode(env, full, body string) *Node {
	n := &Node{Name: env, Text: full}

	pos := 0
	for {
		ai := strings.Index(body[pos:], `\begin{aligned}`)
		if ai < 0 {
			break
		}
		start := pos + ai
		end, ok := matchEnd(body, start+len(`\begin{aligned}`), "aligned")
		if !ok {
			break
		}
		n.Children = append(n.Children, labelNodes(body[pos:start])...)
		child := &Node{Name: "aligned", Text: body[start:end]}
		child.Children = labelNodes(body[start:end])
		n.Children = append(n.Children, child)
		pos = end
	}
	n.Children = append(n.Children, labelNodes(body[pos:])...)

	return n
}

func labelNodes(s string) []*Node {
	var out []*Node
	for _, m := range labelPattern.FindAllStringSubmatch(s, -1) {
		out = append(out, &Node{Name: "label", Args: []string{m[1]}})
	}
	return out
}

// braceArg reads a balanced {...} argument starting at pos, skipping
// whitespace and an optional starred variant first. It returns the argument
// content and the index just past the closing brace.
func braceArg(s string, pos int) (string, int, bool) {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\n' || s[pos] == '*') {
		pos++
	}
	if pos >= len(s) || s[pos] != '{' {
		return "", 0, false
	}

	depth := 0
	for j := pos; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[pos+1 : j], j + 1, true
			}
		}
	}
	return "", 0, false
}

// envName reads the environment name of a \begin{...} at position i and
// returns it with the index where the body starts.
func envName(s string, i int) (string, int, bool) {
	open := i + len(`\begin{`)
	j := strings.IndexByte(s[open:], '}')
	if j < 0 {
		return "", 0, false
	}
	return s[open : open+j], open + j + 1, true
}

// matchEnd finds the \end closing the environment whose body starts at
// from, counting nested same-name environments. It returns the index just
// past the \end.
func matchEnd(s string, from int, env string) (int, bool) {
	begin := `\begin{` + env + `}`
	end := `\end{` + env + `}`

	depth := 1
	pos := from
	for {
		bi := strings.Index(s[pos:], begin)
		ei := strings.Index(s[pos:], end)
		if ei < 0 {
			return 0, false
		}
		if bi >= 0 && bi < ei {
			depth++
			pos += bi + len(begin)
			continue
		}
		depth--
		pos += ei + len(end)
		if depth == 0 {
			return pos, true
		}
	}
}
