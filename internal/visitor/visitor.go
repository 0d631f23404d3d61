// Package visitor walks a parsed file and turns every function declaration
// into a FunctionEntity.
package visitor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pxp-lang/pxp-sub001/internal/docblock"
	"github.com/pxp-lang/pxp-sub001/internal/entity"
	"github.com/pxp-lang/pxp-sub001/internal/names"
	"github.com/pxp-lang/pxp-sub001/internal/syntax"
	"github.com/pxp-lang/pxp-sub001/internal/types"
)

// Sink receives each entity as it is built. *index.Index satisfies it.
type Sink interface {
	AddFunction(name string, e *entity.FunctionEntity)
}

// Visit walks tree depth-first, calls sink.AddFunction once per function
// declaration and returns the entities in document order. A nil sink only
// collects.
//
// Declared types take precedence. A docblock @param or @return type is used
// only where the declaration has no type of its own.
func Visit(tree *syntax.Tree, file entity.File, sink Sink) []*entity.FunctionEntity {
	v := &visitor{
		file:     file,
		sink:     sink,
		resolver: names.NewResolver(),
	}
	tree.Inspect(func(root *sitter.Node, src []byte) {
		v.src = src
		syntax.Walk(root, v.visit)
	})
	return v.out
}

type visitor struct {
	file     entity.File
	sink     Sink
	resolver *names.Resolver
	src      []byte
	out      []*entity.FunctionEntity
}

func (v *visitor) visit(n *sitter.Node) bool {
	switch n.Type() {
	case "namespace_definition":
		name := syntax.Field(n, "name", "namespace_name", "name")
		v.resolver.EnterNamespace(syntax.Text(name, v.src))
	case "namespace_use_declaration":
		for _, u := range names.ParseUse(syntax.Text(n, v.src)) {
			v.resolver.AddUse(u)
		}
		return false
	case "function_definition":
		e := v.function(n)
		if v.sink != nil {
			v.sink.AddFunction(e.QualifiedName, e)
		}
		v.out = append(v.out, e)
	}
	return true
}

func (v *visitor) function(n *sitter.Node) *entity.FunctionEntity {
	simple := strings.TrimSpace(syntax.Text(syntax.Field(n, "name", "name"), v.src))
	doc := docblock.Parse(v.leadingComment(n))

	e := &entity.FunctionEntity{
		QualifiedName:      v.resolver.Qualify(simple),
		Name:               simple,
		ReturnsByReference: hasReferenceModifier(n),
		Location:           entity.Location{File: v.file, Offset: int(n.StartByte())},
	}
	if doc != nil {
		e.Summary = doc.Summary
	}

	params := syntax.Field(n, "parameters", "formal_parameters")
	for _, p := range syntax.ChildrenOfType(params, "simple_parameter", "variadic_parameter", "property_promotion_parameter") {
		e.Parameters = append(e.Parameters, v.parameter(p, doc))
	}

	ret := v.typeSyntax(returnTypeNode(n))
	if ret == nil && doc != nil {
		ret = v.docType(doc.Return)
	}
	e.ReturnType = types.Convert(ret)
	return e
}

func (v *visitor) parameter(n *sitter.Node, doc *docblock.Docblock) entity.Parameter {
	name := syntax.Text(syntax.Field(n, "name", "variable_name"), v.src)
	name = strings.TrimPrefix(strings.TrimSpace(name), "$")

	p := entity.Parameter{
		Name:        name,
		Variadic:    n.Type() == "variadic_parameter",
		ByReference: hasReferenceModifier(n),
		HasDefault:  syntax.Field(n, "default_value") != nil,
	}

	declared := v.typeSyntax(syntax.Field(n, "type"))
	if declared == nil {
		if tag, ok := doc.Param(name); ok {
			declared = v.docType(tag.Type)
		}
	}
	p.Type = types.Convert(declared)
	return p
}

func (v *visitor) typeSyntax(n *sitter.Node) types.Node {
	return syntax.TypeSyntax(n, v.src, v.resolver.ResolveClass)
}

func (v *visitor) docType(n types.Node) types.Node {
	if n == nil {
		return nil
	}
	return types.MapNames(n, v.resolver.ResolveClass)
}

// leadingComment returns the comment directly before n, if any.
func (v *visitor) leadingComment(n *sitter.Node) string {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	return syntax.Text(prev, v.src)
}

// returnTypeNode finds the type that follows the ':' after the parameter
// list. Grammar revisions disagree on where the return_type field sits, so
// the children are scanned instead.
func returnTypeNode(fn *sitter.Node) *sitter.Node {
	afterParams := false
	afterColon := false
	count := int(fn.ChildCount())
	for i := 0; i < count; i++ {
		c := fn.Child(i)
		switch {
		case c.Type() == "formal_parameters":
			afterParams = true
		case !afterParams:
		case c.Type() == ":":
			afterColon = true
		case afterColon && c.IsNamed() && c.Type() != "comment":
			return c
		case c.Type() == "compound_statement":
			return nil
		}
	}
	return nil
}

// hasReferenceModifier reports a leading & on a function or parameter. Newer
// grammars wrap it in reference_modifier, older ones emit the bare token.
func hasReferenceModifier(n *sitter.Node) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		switch c.Type() {
		case "reference_modifier", "&":
			return true
		case "name", "variable_name", "formal_parameters", "compound_statement":
			return false
		}
	}
	return false
}
