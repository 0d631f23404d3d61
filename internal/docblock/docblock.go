// Package docblock parses documentation comments into the annotations the
// indexer uses to refine declared types.
package docblock

import (
	"strings"

	"github.com/pxp-lang/pxp-sub001/internal/types"
)

// Tag is one raw @tag with its body.
type Tag struct {
	Name string
	Body string
}

// Param is a parsed @param tag.
type Param struct {
	Name        string
	Type        types.Node
	Variadic    bool
	ByReference bool
	Description string
}

// Docblock is the structured form of a /** ... */ comment.
type Docblock struct {
	Summary    string
	Tags       []Tag
	Params     map[string]Param
	Return     types.Node
	Deprecated bool
}

// Param returns the @param annotation for a variable name (without $).
func (d *Docblock) Param(name string) (Param, bool) {
	if d == nil {
		return Param{}, false
	}
	p, ok := d.Params[name]
	return p, ok
}

// Parse parses a documentation comment. It returns nil for empty text and
// for comments that are not docblocks.
func Parse(text string) *Docblock {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/**") || !strings.HasSuffix(text, "*/") || len(text) < 5 {
		return nil
	}
	body := text[3 : len(text)-2]

	d := &Docblock{Params: make(map[string]Param)}
	var summary []string
	inSummary := true
	for _, line := range strings.Split(body, "\n") {
		line = cleanLine(line)
		if strings.HasPrefix(line, "@") {
			inSummary = false
			name, rest, _ := strings.Cut(line[1:], " ")
			d.Tags = append(d.Tags, Tag{Name: strings.TrimSpace(name), Body: strings.TrimSpace(rest)})
			continue
		}
		if len(d.Tags) > 0 {
			if line != "" {
				last := &d.Tags[len(d.Tags)-1]
				last.Body = strings.TrimSpace(last.Body + " " + line)
			}
			continue
		}
		if inSummary {
			if line == "" {
				if len(summary) > 0 {
					inSummary = false
				}
				continue
			}
			summary = append(summary, line)
		}
	}
	d.Summary = strings.Join(summary, " ")

	// Tool-prefixed tags override the plain ones; they are written to be
	// the more precise of the two.
	for _, pass := range []func(string) bool{isPlain, isPrefixed} {
		for _, tag := range d.Tags {
			if !pass(tag.Name) {
				continue
			}
			switch baseTag(tag.Name) {
			case "param":
				if p, ok := parseParam(tag.Body); ok {
					d.Params[p.Name] = p
				}
			case "return":
				if tok, _ := scanType(tag.Body); tok != "" {
					if n := ParseType(tok); n != nil {
						d.Return = n
					}
				}
			case "deprecated":
				d.Deprecated = true
			}
		}
	}
	return d
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "*")
	return strings.TrimSpace(line)
}

var toolPrefixes = []string{"phpstan-", "psalm-", "phan-"}

func baseTag(name string) string {
	for _, p := range toolPrefixes {
		if strings.HasPrefix(name, p) {
			return strings.TrimPrefix(name, p)
		}
	}
	return name
}

func isPrefixed(name string) bool { return baseTag(name) != name }

func isPlain(name string) bool { return !isPrefixed(name) }

func parseParam(body string) (Param, bool) {
	var p Param
	rest := strings.TrimSpace(body)
	if !startsVariable(rest) {
		tok, after := scanType(rest)
		if tok == "" {
			return Param{}, false
		}
		p.Type = ParseType(tok)
		rest = strings.TrimSpace(after)
	}
	if strings.HasPrefix(rest, "&") {
		p.ByReference = true
		rest = strings.TrimSpace(rest[1:])
	}
	if strings.HasPrefix(rest, "...") {
		p.Variadic = true
		rest = rest[3:]
	}
	if !strings.HasPrefix(rest, "$") {
		return Param{}, false
	}
	rest = rest[1:]
	end := 0
	for end < len(rest) && isIdentByte(rest[end]) {
		end++
	}
	if end == 0 {
		return Param{}, false
	}
	p.Name = rest[:end]
	p.Description = strings.TrimSpace(rest[end:])
	return p, true
}

func startsVariable(s string) bool {
	s = strings.TrimPrefix(s, "&")
	s = strings.TrimPrefix(s, "...")
	return strings.HasPrefix(s, "$")
}

// scanType splits a tag body into its leading type expression and the rest.
// Whitespace inside brackets, or next to |, & and : operators, does not end
// the type.
func scanType(s string) (string, string) {
	depth := 0
	i := 0
	for i < len(s) {
		c := s[i]
		switch c {
		case '<', '(', '{', '[':
			depth++
		case '>', ')', '}', ']':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth > 0 {
				break
			}
			prev := lastNonSpace(s[:i])
			next := firstNonSpace(s[i:])
			if prev == '|' || prev == '&' || prev == ':' || next == '|' || next == ':' {
				break
			}
			return s[:i], s[i:]
		}
		i++
	}
	return s, ""
}

func lastNonSpace(s string) byte {
	s = strings.TrimRight(s, " \t")
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func firstNonSpace(s string) byte {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return 0
	}
	return s[0]
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}
