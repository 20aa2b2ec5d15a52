package textree

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var inputPattern = regexp.MustCompile(`\\input\s*\{([^}]+)\}`)

// Expand reads the named .tex file under dir and returns its source with
// every \input{...} substituted recursively. Lines declaring \newcommand
// are dropped so command definitions never show up as document content. A
// missing input file expands to nothing; only the root file must exist.
func Expand(dir, name string) (string, error) {
	if !strings.HasSuffix(name, ".tex") {
		name += ".tex"
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}

	lines := strings.Split(string(data), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "newcommand") {
			continue
		}
		kept = append(kept, line)
	}
	content := strings.Join(kept, "\n")

	return inputPattern.ReplaceAllStringFunc(content, func(m string) string {
		sub := inputPattern.FindStringSubmatch(m)[1]
		expanded, err := Expand(dir, sub)
		if err != nil {
			return ""
		}
		return expanded
	}), nil
}
