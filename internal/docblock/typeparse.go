package docblock

import (
	"strings"

	"github.com/pxp-lang/pxp-sub001/internal/types"
)

// pseudoTypes maps static-analysis pseudo types onto the closest native type
// syntax. Keys are lower case.
var pseudoTypes = map[string]types.Node{
	"integer":          types.Keyword{Name: "int"},
	"boolean":          types.Keyword{Name: "bool"},
	"double":           types.Keyword{Name: "float"},
	"real":             types.Keyword{Name: "float"},
	"resource":         types.Keyword{Name: "mixed"},
	"closed-resource":  types.Keyword{Name: "mixed"},
	"open-resource":    types.Keyword{Name: "mixed"},
	"$this":            types.Keyword{Name: "static"},
	"list":             types.Keyword{Name: "array"},
	"non-empty-list":   types.Keyword{Name: "array"},
	"non-empty-array":  types.Keyword{Name: "array"},
	"callable-array":   types.Keyword{Name: "array"},
	"positive-int":     types.Keyword{Name: "int"},
	"negative-int":     types.Keyword{Name: "int"},
	"non-negative-int": types.Keyword{Name: "int"},
	"non-positive-int": types.Keyword{Name: "int"},
	"non-zero-int":     types.Keyword{Name: "int"},
	"int-mask":         types.Keyword{Name: "int"},
	"int-mask-of":      types.Keyword{Name: "int"},
	"non-empty-string": types.Keyword{Name: "string"},
	"numeric-string":   types.Keyword{Name: "string"},
	"class-string":     types.Keyword{Name: "string"},
	"callable-string":  types.Keyword{Name: "string"},
	"literal-string":   types.Keyword{Name: "string"},
	"lowercase-string": types.Keyword{Name: "string"},
	"non-falsy-string": types.Keyword{Name: "string"},
	"truthy-string":    types.Keyword{Name: "string"},
	"array-key": types.UnionNode{Members: []types.Node{
		types.Keyword{Name: "int"}, types.Keyword{Name: "string"},
	}},
	"numeric": types.UnionNode{Members: []types.Node{
		types.Keyword{Name: "int"}, types.Keyword{Name: "float"},
	}},
	"scalar": types.UnionNode{Members: []types.Node{
		types.Keyword{Name: "int"}, types.Keyword{Name: "float"},
		types.Keyword{Name: "string"}, types.Keyword{Name: "bool"},
	}},
}

// ParseType parses a docblock type expression. Class-like names come back
// unresolved. It returns nil when the expression cannot be parsed.
func ParseType(s string) types.Node {
	p := &typeParser{src: strings.TrimSpace(s)}
	if p.src == "" {
		return nil
	}
	n, ok := p.union()
	if !ok {
		return nil
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil
	}
	return n
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) accept(c byte) bool {
	p.skipSpace()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) union() (types.Node, bool) {
	first, ok := p.intersection()
	if !ok {
		return nil, false
	}
	members := []types.Node{first}
	for p.accept('|') {
		n, ok := p.intersection()
		if !ok {
			return nil, false
		}
		members = append(members, n)
	}
	if len(members) == 1 {
		return first, true
	}
	return types.UnionNode{Members: members}, true
}

func (p *typeParser) intersection() (types.Node, bool) {
	first, ok := p.unary()
	if !ok {
		return nil, false
	}
	members := []types.Node{first}
	for {
		p.skipSpace()
		// A trailing & followed by a variable belongs to the parameter.
		if p.peek() != '&' || p.followsVariable(p.pos+1) {
			break
		}
		p.pos++
		n, ok := p.unary()
		if !ok {
			return nil, false
		}
		members = append(members, n)
	}
	if len(members) == 1 {
		return first, true
	}
	return types.IntersectionNode{Members: members}, true
}

func (p *typeParser) followsVariable(at int) bool {
	rest := strings.TrimLeft(p.src[min(at, len(p.src)):], " \t")
	return strings.HasPrefix(rest, "$") || strings.HasPrefix(rest, "...")
}

func (p *typeParser) unary() (types.Node, bool) {
	if p.accept('?') {
		inner, ok := p.unary()
		if !ok {
			return nil, false
		}
		return types.NullableNode{Inner: inner}, true
	}
	return p.postfix()
}

func (p *typeParser) postfix() (types.Node, bool) {
	n, ok := p.atom()
	if !ok {
		return nil, false
	}
	for {
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "[]") {
			p.pos += 2
			n = types.Keyword{Name: "array"}
			continue
		}
		return n, true
	}
}

func (p *typeParser) atom() (types.Node, bool) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		n, ok := p.union()
		if !ok || !p.accept(')') {
			return nil, false
		}
		return n, true
	case c == '\'' || c == '"':
		if !p.skipQuoted(c) {
			return nil, false
		}
		return types.Keyword{Name: "string"}, true
	case c == '-' || c >= '0' && c <= '9':
		return p.number(), true
	}

	ident := p.ident()
	if ident == "" {
		return nil, false
	}

	// Class constant references such as Foo::BAR or Foo::*.
	if strings.HasPrefix(p.src[p.pos:], "::") {
		p.pos += 2
		for p.pos < len(p.src) && (isIdentByte(p.src[p.pos]) || p.src[p.pos] == '*') {
			p.pos++
		}
		return types.Keyword{Name: "mixed"}, true
	}

	switch p.peek() {
	case '<':
		if !p.skipBalanced('<', '>') {
			return nil, false
		}
	case '{':
		if !p.skipBalanced('{', '}') {
			return nil, false
		}
	case '(':
		if !p.skipBalanced('(', ')') {
			return nil, false
		}
		// Callable return type.
		save := p.pos
		if p.accept(':') {
			if _, ok := p.unary(); !ok {
				p.pos = save
			}
		}
	}
	return identNode(ident), true
}

func identNode(ident string) types.Node {
	lower := strings.ToLower(ident)
	if _, ok := types.LookupKeyword(lower); ok {
		return types.Keyword{Name: lower}
	}
	if n, ok := pseudoTypes[lower]; ok {
		return n
	}
	if strings.Contains(ident, "-") {
		// Unrecognized pseudo type.
		return types.Keyword{Name: lower}
	}
	return types.Name{Qualified: ident}
}

func (p *typeParser) ident() string {
	start := p.pos
	if p.peek() == '$' {
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isIdentByte(c) || c == '\\' || c == '-' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) number() types.Node {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' {
			isFloat = true
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	if p.pos == start+1 && p.src[start] == '-' {
		// A bare minus is not a number; treat what follows as a pseudo type.
		p.pos = start
		return types.Keyword{Name: strings.ToLower(p.ident())}
	}
	if isFloat {
		return types.Keyword{Name: "float"}
	}
	return types.Keyword{Name: "int"}
}

func (p *typeParser) skipQuoted(quote byte) bool {
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case quote:
			p.pos++
			return true
		}
		p.pos++
	}
	return false
}

// skipBalanced consumes a bracketed group, nesting included.
func (p *typeParser) skipBalanced(left, right byte) bool {
	depth := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case left:
			depth++
		case right:
			depth--
			if depth == 0 {
				p.pos++
				return true
			}
		case '\'', '"':
			if !p.skipQuoted(p.src[p.pos]) {
				return false
			}
			continue
		}
		p.pos++
	}
	return false
}
