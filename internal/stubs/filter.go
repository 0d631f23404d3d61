// Package stubs turns one attribute-annotated stub corpus into per-release
// corpora. Declarations carry optional "introduced in" and "removed in"
// markers; Filter prunes a file for one release and strips the markers from
// whatever survives.
package stubs

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pxp-lang/pxp-sub001/internal/names"
	"github.com/pxp-lang/pxp-sub001/internal/syntax"
	"github.com/pxp-lang/pxp-sub001/internal/version"
)

// ErrMarker is returned for a version marker that cannot be interpreted.
var ErrMarker = errors.New("stubs: malformed version marker")

// Markers names the attributes that carry version ranges. Names match the
// last segment of the attribute name, case-insensitively.
type Markers struct {
	Since   string
	Removed string
}

// DefaultMarkers are #[Since('x.y')] and #[Removed('x.y')].
var DefaultMarkers = Markers{Since: "Since", Removed: "Removed"}

// Result is the outcome of filtering one file.
type Result struct {
	// Source is the pruned, marker-free text.
	Source []byte
	// Removed lists the declarations dropped for the target, e.g.
	// "function str_contains".
	Removed []string
	// Stripped counts markers removed from retained declarations.
	Stripped int
}

// Changed reports whether filtering altered the text.
func (r Result) Changed() bool {
	return len(r.Removed) > 0 || r.Stripped > 0
}

// Filter prunes tree for target. A declaration introduced after target, or
// removed at or before it, is deleted together with its docblock. Retained
// declarations lose their markers. Filtering marker-free text is a no-op.
func Filter(tree *syntax.Tree, target version.Version, m Markers) (Result, error) {
	if target.IsZero() {
		return Result{}, fmt.Errorf("stubs: filter: %w: empty target", version.ErrInvalid)
	}
	if m.Since == "" {
		m.Since = DefaultMarkers.Since
	}
	if m.Removed == "" {
		m.Removed = DefaultMarkers.Removed
	}

	f := &filter{target: target, markers: m}
	tree.Inspect(func(root *sitter.Node, src []byte) {
		f.src = src
		syntax.Walk(root, f.visit)
	})
	if f.err != nil {
		return Result{}, f.err
	}

	src := tree.Source()
	return Result{
		Source:   apply(src, f.edits),
		Removed:  f.removed,
		Stripped: f.stripped,
	}, nil
}

type span struct{ start, end int }

type filter struct {
	target  version.Version
	markers Markers
	src     []byte

	edits    []span
	removed  []string
	stripped int
	err      error
}

type marker struct {
	attr  *sitter.Node
	group *sitter.Node
	since bool
	value version.Version
}

func (f *filter) visit(n *sitter.Node) bool {
	if f.err != nil {
		return false
	}
	attrs := syntax.ChildOfType(n, "attribute_list")
	if attrs == nil {
		return true
	}
	found, err := f.markersOf(attrs)
	if err != nil {
		f.err = err
		return false
	}
	if len(found) == 0 {
		return true
	}

	var since, removed *version.Version
	for i := range found {
		mk := &found[i]
		slot := &removed
		if mk.since {
			slot = &since
		}
		if *slot != nil {
			f.err = f.markerError(mk.attr, "duplicate marker")
			return false
		}
		*slot = &mk.value
	}
	if since != nil && removed != nil && !since.Less(*removed) {
		f.err = f.markerError(n, fmt.Sprintf("removed in %s is not after introduced in %s", removed, since))
		return false
	}

	drop := (since != nil && f.target.Less(*since)) ||
		(removed != nil && !f.target.Less(*removed))
	if drop {
		f.edits = append(f.edits, f.declarationSpan(n))
		f.removed = append(f.removed, describe(n, f.src))
		return false
	}

	f.strip(found)
	return true
}

// markersOf returns the version markers among the attributes of one list.
func (f *filter) markersOf(list *sitter.Node) ([]marker, error) {
	var out []marker
	for _, group := range syntax.ChildrenOfType(list, "attribute_group") {
		for _, attr := range syntax.ChildrenOfType(group, "attribute") {
			name := syntax.Text(syntax.ChildOfType(attr, "name", "qualified_name"), f.src)
			last := names.Last(strings.TrimSpace(name))
			var since bool
			switch {
			case strings.EqualFold(last, f.markers.Since):
				since = true
			case strings.EqualFold(last, f.markers.Removed):
			default:
				continue
			}
			v, err := f.markerValue(attr)
			if err != nil {
				return nil, err
			}
			out = append(out, marker{attr: attr, group: group, since: since, value: v})
		}
	}
	return out, nil
}

var argLabel = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*:\s*`)

func (f *filter) markerValue(attr *sitter.Node) (version.Version, error) {
	args := syntax.NamedChildren(syntax.ChildOfType(attr, "arguments"))
	if len(args) != 1 {
		return version.Version{}, f.markerError(attr, "expected exactly one version argument")
	}
	text := strings.TrimSpace(syntax.Text(args[0], f.src))
	text = argLabel.ReplaceAllString(text, "")
	if n := len(text); n >= 2 && (text[0] == '\'' || text[0] == '"') {
		if text[n-1] != text[0] {
			return version.Version{}, f.markerError(attr, "unterminated version string")
		}
		text = text[1 : n-1]
	}
	v, err := version.Parse(text)
	if err != nil {
		return version.Version{}, f.markerError(attr, err.Error())
	}
	return v, nil
}

func (f *filter) markerError(n *sitter.Node, msg string) error {
	return fmt.Errorf("%w: offset %d: %s: %s", ErrMarker, n.StartByte(), excerpt(syntax.Text(n, f.src)), msg)
}

// strip schedules removal of the given markers. A group holding nothing but
// markers goes entirely; otherwise each marker goes with one adjacent comma.
func (f *filter) strip(found []marker) {
	byGroup := make(map[*sitter.Node][]marker)
	var order []*sitter.Node
	for _, mk := range found {
		if _, ok := byGroup[mk.group]; !ok {
			order = append(order, mk.group)
		}
		byGroup[mk.group] = append(byGroup[mk.group], mk)
	}
	for _, group := range order {
		markers := byGroup[group]
		f.stripped += len(markers)
		if len(markers) == len(syntax.ChildrenOfType(group, "attribute")) {
			f.edits = append(f.edits, f.groupSpan(group))
			continue
		}
		for _, mk := range markers {
			f.edits = append(f.edits, listItemSpan(mk.attr))
		}
	}
}

// groupSpan covers the #[ ... ] of one attribute group. Older grammars keep
// the brackets as siblings of the group rather than its children.
func (f *filter) groupSpan(group *sitter.Node) span {
	s := span{int(group.StartByte()), int(group.EndByte())}
	if first := group.Child(0); first != nil && first.Type() == "#[" {
		return f.widen(s, true)
	}
	if prev := group.PrevSibling(); prev != nil && prev.Type() == "#[" {
		s.start = int(prev.StartByte())
	}
	if next := group.NextSibling(); next != nil && next.Type() == "]" {
		s.end = int(next.EndByte())
	}
	return f.widen(s, true)
}

// declarationSpan covers a declaration, its docblock and, for list items
// such as parameters, one adjacent comma.
func (f *filter) declarationSpan(n *sitter.Node) span {
	if p := n.Parent(); p != nil && p.Type() == "formal_parameters" {
		return listItemSpan(n)
	}
	s := span{int(n.StartByte()), int(n.EndByte())}
	if prev := n.PrevSibling(); prev != nil && prev.Type() == "comment" &&
		strings.HasPrefix(syntax.Text(prev, f.src), "/**") {
		s.start = int(prev.StartByte())
	}
	return f.widen(s, false)
}

// listItemSpan covers a comma separated item and the comma before it, or
// the comma and spacing after it when it is the first item.
func listItemSpan(n *sitter.Node) span {
	s := span{int(n.StartByte()), int(n.EndByte())}
	if prev := n.PrevSibling(); prev != nil && prev.Type() == "," {
		s.start = int(prev.StartByte())
		return s
	}
	if next := n.NextSibling(); next != nil && next.Type() == "," {
		s.end = int(next.EndByte())
		if after := next.NextSibling(); after != nil && after.Type() != "," {
			s.end = int(after.StartByte())
		}
	}
	return s
}

// widen extends s over the whole line when nothing else is on it. When s
// ends a line, the spacing before it goes. Otherwise the spacing after it
// goes unless s directly follows code and trailing is unset.
func (f *filter) widen(s span, trailing bool) span {
	src := f.src
	ls := s.start
	for ls > 0 && (src[ls-1] == ' ' || src[ls-1] == '\t') {
		ls--
	}
	le := s.end
	for le < len(src) && (src[le] == ' ' || src[le] == '\t') {
		le++
	}
	atLineStart := ls == 0 || src[ls-1] == '\n'
	atLineEnd := le == len(src) || src[le] == '\n' || src[le] == '\r'

	if atLineStart && atLineEnd {
		s.start, s.end = ls, le
		if s.end < len(src) && src[s.end] == '\r' {
			s.end++
		}
		if s.end < len(src) && src[s.end] == '\n' {
			s.end++
		}
		return s
	}
	if atLineEnd {
		// Code before s stays; drop the spacing that would trail it.
		s.start, s.end = ls, le
		return s
	}
	if trailing || atLineStart || ls < s.start {
		s.end = le
	}
	return s
}

// apply deletes the spans from src. Overlapping spans are merged.
func apply(src []byte, edits []span) []byte {
	if len(edits) == 0 {
		out := make([]byte, len(src))
		copy(out, src)
		return out
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	out := make([]byte, 0, len(src))
	pos := 0
	for _, e := range edits {
		if e.end <= pos {
			continue
		}
		if e.start > pos {
			out = append(out, src[pos:e.start]...)
		}
		pos = e.end
	}
	return append(out, src[pos:]...)
}

var declKinds = map[string]string{
	"function_definition":          "function",
	"class_declaration":            "class",
	"interface_declaration":        "interface",
	"trait_declaration":            "trait",
	"enum_declaration":             "enum",
	"method_declaration":           "method",
	"property_declaration":         "property",
	"const_declaration":            "const",
	"enum_case":                    "case",
	"simple_parameter":             "parameter",
	"variadic_parameter":           "parameter",
	"property_promotion_parameter": "parameter",
}

func describe(n *sitter.Node, src []byte) string {
	kind, ok := declKinds[n.Type()]
	if !ok {
		kind = n.Type()
	}
	var name *sitter.Node
	switch n.Type() {
	case "property_declaration":
		name = syntax.Field(syntax.ChildOfType(n, "property_element"), "name", "variable_name")
	case "const_declaration":
		name = syntax.ChildOfType(syntax.ChildOfType(n, "const_element"), "name")
	default:
		name = syntax.Field(n, "name", "name", "variable_name")
	}
	if name == nil {
		return fmt.Sprintf("%s@%d", kind, n.StartByte())
	}
	return kind + " " + syntax.Text(name, src)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const limit = 40
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
