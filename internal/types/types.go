// Package types models the PHP type grammar as a closed set of immutable
// values and converts type syntax into it.
package types

import "strings"

// Type is one of Primitive, Named, Nullable, Union or Intersection.
// Values are immutable once constructed.
type Type interface {
	String() string
	isType()
}

// Primitive is a builtin type keyword.
type Primitive int

const (
	// Unknown is the fallback for absent or unrecognized type information.
	Unknown Primitive = iota
	Self
	Static
	Parent
	String
	Bool
	Int
	Object
	Mixed
	Callable
	Iterable
	Array
	Float
	Null
	False
	Void
	True
	Never
)

var primitiveNames = [...]string{
	Unknown:  "mixed",
	Self:     "self",
	Static:   "static",
	Parent:   "parent",
	String:   "string",
	Bool:     "bool",
	Int:      "int",
	Object:   "object",
	Mixed:    "mixed",
	Callable: "callable",
	Iterable: "iterable",
	Array:    "array",
	Float:    "float",
	Null:     "null",
	False:    "false",
	Void:     "void",
	True:     "true",
	Never:    "never",
}

// keywords maps the builtin keyword spelling to its variant. Matching is
// case-sensitive.
var keywords = map[string]Primitive{
	"self":     Self,
	"static":   Static,
	"parent":   Parent,
	"string":   String,
	"bool":     Bool,
	"int":      Int,
	"object":   Object,
	"mixed":    Mixed,
	"callable": Callable,
	"iterable": Iterable,
	"array":    Array,
	"float":    Float,
	"null":     Null,
	"false":    False,
	"void":     Void,
	"true":     True,
	"never":    Never,
}

// LookupKeyword returns the primitive spelled exactly as name.
func LookupKeyword(name string) (Primitive, bool) {
	p, ok := keywords[name]
	return p, ok
}

func (p Primitive) String() string {
	if p < 0 || int(p) >= len(primitiveNames) {
		return primitiveNames[Unknown]
	}
	return primitiveNames[p]
}

func (Primitive) isType() {}

// Named references a class, interface or enum by fully qualified name
// (without a leading namespace separator).
type Named struct {
	Name string
}

func (n Named) String() string { return n.Name }

func (Named) isType() {}

// Nullable is ?Inner. Inner is never itself Nullable.
type Nullable struct {
	Inner Type
}

// NewNullable wraps inner, collapsing ?(?T) to ?T.
func NewNullable(inner Type) Type {
	if inner == nil {
		inner = Unknown
	}
	if n, ok := inner.(Nullable); ok {
		return n
	}
	return Nullable{Inner: inner}
}

func (n Nullable) String() string { return "?" + n.Inner.String() }

func (Nullable) isType() {}

// Union is A|B|... with at least two members.
type Union struct {
	Members []Type
}

// NewUnion builds a union from members, flattening nested unions. A single
// member is returned as-is and an empty list yields Unknown.
func NewUnion(members ...Type) Type {
	flat := flatten(members, func(t Type) ([]Type, bool) {
		u, ok := t.(Union)
		return u.Members, ok
	})
	switch len(flat) {
	case 0:
		return Unknown
	case 1:
		return flat[0]
	}
	return Union{Members: flat}
}

func (u Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		if _, ok := m.(Intersection); ok {
			parts[i] = "(" + m.String() + ")"
			continue
		}
		parts[i] = m.String()
	}
	return strings.Join(parts, "|")
}

func (Union) isType() {}

// Intersection is A&B&... with at least two members.
type Intersection struct {
	Members []Type
}

// NewIntersection mirrors NewUnion for intersections.
func NewIntersection(members ...Type) Type {
	flat := flatten(members, func(t Type) ([]Type, bool) {
		i, ok := t.(Intersection)
		return i.Members, ok
	})
	switch len(flat) {
	case 0:
		return Unknown
	case 1:
		return flat[0]
	}
	return Intersection{Members: flat}
}

func (i Intersection) String() string {
	parts := make([]string, len(i.Members))
	for n, m := range i.Members {
		parts[n] = m.String()
	}
	return strings.Join(parts, "&")
}

func (Intersection) isType() {}

func flatten(members []Type, split func(Type) ([]Type, bool)) []Type {
	out := make([]Type, 0, len(members))
	for _, m := range members {
		if m == nil {
			m = Unknown
		}
		if inner, ok := split(m); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// Equal reports structural equality. Member order of unions and
// intersections is not significant.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Primitive:
		bp, ok := b.(Primitive)
		return ok && a == bp
	case Named:
		bn, ok := b.(Named)
		return ok && a.Name == bn.Name
	case Nullable:
		bn, ok := b.(Nullable)
		return ok && Equal(a.Inner, bn.Inner)
	case Union:
		bu, ok := b.(Union)
		return ok && sameMembers(a.Members, bu.Members)
	case Intersection:
		bi, ok := b.(Intersection)
		return ok && sameMembers(a.Members, bi.Members)
	case nil:
		return b == nil
	}
	return false
}

// sameMembers compares two member lists as multisets.
func sameMembers(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for j, y := range b {
			if !used[j] && Equal(x, y) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// IsNullable reports whether t accepts null.
func IsNullable(t Type) bool {
	switch t := t.(type) {
	case Nullable:
		return true
	case Primitive:
		return t == Null || t == Mixed || t == Unknown
	case Union:
		for _, m := range t.Members {
			if IsNullable(m) {
				return true
			}
		}
	}
	return false
}
