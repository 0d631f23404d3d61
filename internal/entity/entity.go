// Package entity holds the immutable symbol records produced by indexing.
package entity

import (
	"fmt"
	"strings"

	"github.com/pxp-lang/pxp-sub001/internal/types"
)

// File is an opaque handle naming the source file an entity came from.
type File struct {
	Path string
}

func (f File) String() string { return f.Path }

// Location is where a declaration begins: a file and a byte offset into it.
type Location struct {
	File   File
	Offset int
}

func (l Location) String() string {
	return fmt.Sprintf("%s@%d", l.File.Path, l.Offset)
}

// Parameter is one declared parameter, in declaration order.
type Parameter struct {
	Name        string
	Type        types.Type
	Variadic    bool
	ByReference bool
	HasDefault  bool
}

// FunctionEntity describes one function signature.
type FunctionEntity struct {
	QualifiedName      string
	Name               string
	Parameters         []Parameter
	ReturnType         types.Type
	ReturnsByReference bool
	Location           Location

	// Summary is the first paragraph of the attached docblock, if any.
	Summary string
}

// Signature renders the entity the way it would be declared.
func (f *FunctionEntity) Signature() string {
	var b strings.Builder
	b.WriteString("function ")
	if f.ReturnsByReference {
		b.WriteByte('&')
	}
	b.WriteString(f.QualifiedName)
	b.WriteByte('(')
	for i, p := range f.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if known(f.ReturnType) {
		b.WriteString(": ")
		b.WriteString(f.ReturnType.String())
	}
	return b.String()
}

func (p Parameter) String() string {
	var b strings.Builder
	if known(p.Type) {
		b.WriteString(p.Type.String())
		b.WriteByte(' ')
	}
	if p.ByReference {
		b.WriteByte('&')
	}
	if p.Variadic {
		b.WriteString("...")
	}
	b.WriteByte('$')
	b.WriteString(p.Name)
	if p.HasDefault {
		b.WriteString(" = ...")
	}
	return b.String()
}

func known(t types.Type) bool {
	return t != nil && !types.Equal(t, types.Unknown)
}
