package types

// Node is the closed set of type syntax shapes. A nil Node means the
// declaration carries no type.
type Node interface {
	node()
}

// Keyword is a builtin type identifier such as int or static.
type Keyword struct {
	Name string
}

// Name is a class-like reference. Qualified holds the resolved name when the
// node came out of name resolution, or the name as written otherwise.
type Name struct {
	Qualified string
}

// NullableNode is ?Inner.
type NullableNode struct {
	Inner Node
}

// UnionNode is A|B|...
type UnionNode struct {
	Members []Node
}

// IntersectionNode is A&B&...
type IntersectionNode struct {
	Members []Node
}

func (Keyword) node()          {}
func (Name) node()             {}
func (NullableNode) node()     {}
func (UnionNode) node()        {}
func (IntersectionNode) node() {}

// Convert maps type syntax onto the type model. It is total: absent syntax
// and unrecognized keywords both yield Unknown.
func Convert(n Node) Type {
	switch n := n.(type) {
	case nil:
		return Unknown
	case Keyword:
		if p, ok := LookupKeyword(n.Name); ok {
			return p
		}
		return Unknown
	case Name:
		if n.Qualified == "" {
			return Unknown
		}
		return Named{Name: trimLeadingSeparator(n.Qualified)}
	case NullableNode:
		return NewNullable(Convert(n.Inner))
	case UnionNode:
		return NewUnion(convertAll(n.Members)...)
	case IntersectionNode:
		return NewIntersection(convertAll(n.Members)...)
	}
	panic("types: unhandled syntax node")
}

func convertAll(nodes []Node) []Type {
	out := make([]Type, len(nodes))
	for i, n := range nodes {
		out[i] = Convert(n)
	}
	return out
}

func trimLeadingSeparator(name string) string {
	for len(name) > 0 && name[0] == '\\' {
		name = name[1:]
	}
	return name
}

// MapNames returns a copy of n with every Name leaf rewritten by f.
func MapNames(n Node, f func(string) string) Node {
	switch n := n.(type) {
	case Name:
		return Name{Qualified: f(n.Qualified)}
	case NullableNode:
		return NullableNode{Inner: MapNames(n.Inner, f)}
	case UnionNode:
		return UnionNode{Members: mapAll(n.Members, f)}
	case IntersectionNode:
		return IntersectionNode{Members: mapAll(n.Members, f)}
	}
	return n
}

func mapAll(nodes []Node, f func(string) string) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = MapNames(n, f)
	}
	return out
}
