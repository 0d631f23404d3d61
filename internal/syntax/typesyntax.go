package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pxp-lang/pxp-sub001/internal/types"
)

// TypeSyntax converts a tree-sitter type node into type syntax. Class-like
// names are passed through resolve; a nil resolve leaves them as written.
// A nil n yields a nil Node (no declared type).
//
// PHP type keywords are case-insensitive, so keyword spellings, whether the
// grammar yields a primitive_type or a plain name, are lower-cased here
// before reaching the case-sensitive converter.
func TypeSyntax(n *sitter.Node, src []byte, resolve func(string) string) types.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "primitive_type":
		return types.Keyword{Name: strings.ToLower(strings.TrimSpace(Text(n, src)))}
	case "bottom_type":
		return types.Keyword{Name: "never"}
	case "named_type":
		inner := ChildOfType(n, "name", "qualified_name", "relative_name")
		if inner == nil {
			return nameSyntax(strings.TrimSpace(Text(n, src)), resolve)
		}
		return nameSyntax(strings.TrimSpace(Text(inner, src)), resolve)
	case "name", "qualified_name", "relative_name":
		return nameSyntax(strings.TrimSpace(Text(n, src)), resolve)
	case "optional_type":
		children := NamedChildren(n)
		if len(children) == 0 {
			return types.NullableNode{}
		}
		return types.NullableNode{Inner: TypeSyntax(children[0], src, resolve)}
	case "union_type", "disjunctive_normal_form_type":
		return types.UnionNode{Members: memberSyntax(n, src, resolve)}
	case "intersection_type":
		return types.IntersectionNode{Members: memberSyntax(n, src, resolve)}
	}
	return types.Keyword{Name: strings.ToLower(strings.TrimSpace(Text(n, src)))}
}

func memberSyntax(n *sitter.Node, src []byte, resolve func(string) string) []types.Node {
	var members []types.Node
	for _, c := range NamedChildren(n) {
		if c.Type() == "comment" {
			continue
		}
		members = append(members, TypeSyntax(c, src, resolve))
	}
	return members
}

// nameSyntax lowers a written name. Unqualified spellings of builtin types
// (self, static, parent and the keywords grammars parse as names, such as
// INT or NULL) become keywords; every other name goes through resolve.
func nameSyntax(name string, resolve func(string) string) types.Node {
	if !strings.Contains(name, `\`) {
		lower := strings.ToLower(name)
		if _, ok := types.LookupKeyword(lower); ok {
			return types.Keyword{Name: lower}
		}
	}
	if resolve != nil {
		name = resolve(name)
	}
	return types.Name{Qualified: name}
}
