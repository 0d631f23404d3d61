package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Walk visits n and its descendants depth-first in document order. When fn
// returns false the children of that node are skipped.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		Walk(n.Child(i), fn)
	}
}

// Text returns the source text spanned by n, or "" for a nil node.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// ChildOfType returns the first direct child whose type is one of kinds.
func ChildOfType(n *sitter.Node, kinds ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && oneOf(c.Type(), kinds) {
			return c
		}
	}
	return nil
}

// ChildrenOfType returns every direct child whose type is one of kinds.
func ChildrenOfType(n *sitter.Node, kinds ...string) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && oneOf(c.Type(), kinds) {
			out = append(out, c)
		}
	}
	return out
}

// Field returns the child stored under field, falling back to the first
// child of one of kinds. Grammar revisions differ in which children carry
// field names, so lookups go through both.
func Field(n *sitter.Node, field string, kinds ...string) *sitter.Node {
	if n == nil {
		return nil
	}
	if c := n.ChildByFieldName(field); c != nil {
		return c
	}
	if len(kinds) == 0 {
		return nil
	}
	return ChildOfType(n, kinds...)
}

// NamedChildren returns the named children of n.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func oneOf(s string, set []string) bool {
	for _, k := range set {
		if s == k {
			return true
		}
	}
	return false
}
