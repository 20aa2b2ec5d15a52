// Package textree reads LaTeX source into a generic named-node tree. It is
// deliberately not a LaTeX AST: it recognizes only the handful of
// constructs the document parser consumes (sections, the appendix marker,
// labels, and equation-like environments) and leaves everything else as raw
// text.
package textree

// Node is one element of the document tree. A node with an empty Name is a
// raw-text leaf and carries only Text.
type Node struct {
	Name     string
	Args     []string
	Text     string
	Children []*Node
}

// ChildrenNamed returns the direct children with the given name, in order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FirstLabel returns the first label argument in n's subtree, depth-first.
func (n *Node) FirstLabel() (string, bool) {
	for _, c := range n.Children {
		if c.Name == "label" && len(c.Args) > 0 {
			return c.Args[0], true
		}
		if label, ok := c.FirstLabel(); ok {
			return label, true
		}
	}
	return "", false
}
