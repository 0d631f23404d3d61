// Package names resolves class-like and declared names against the current
// namespace and its use imports.
package names

import (
	"regexp"
	"strings"
)

// Separator is the namespace separator.
const Separator = `\`

// UseKind distinguishes the three import tables.
type UseKind int

const (
	UseClass UseKind = iota
	UseFunction
	UseConst
)

// Use is one imported name.
type Use struct {
	Kind  UseKind
	Name  string
	Alias string
}

// Resolver tracks the namespace a traversal is in and the imports visible
// there. Imports are scoped to a namespace and reset on entering another.
type Resolver struct {
	namespace string
	classes   map[string]string
	functions map[string]string
}

// NewResolver returns a Resolver positioned in the global namespace.
func NewResolver() *Resolver {
	r := &Resolver{}
	r.reset()
	return r
}

func (r *Resolver) reset() {
	r.classes = make(map[string]string)
	r.functions = make(map[string]string)
}

// Namespace returns the current namespace, "" for the global one.
func (r *Resolver) Namespace() string { return r.namespace }

// EnterNamespace switches to name and drops the previous imports.
func (r *Resolver) EnterNamespace(name string) {
	r.namespace = strings.Trim(strings.TrimSpace(name), Separator)
	r.reset()
}

// AddUse registers an import.
func (r *Resolver) AddUse(u Use) {
	name := strings.TrimPrefix(strings.TrimSpace(u.Name), Separator)
	alias := u.Alias
	if alias == "" {
		alias = Last(name)
	}
	switch u.Kind {
	case UseClass:
		// Class aliases are case-insensitive.
		r.classes[strings.ToLower(alias)] = name
	case UseFunction:
		r.functions[strings.ToLower(alias)] = name
	}
}

// ResolveClass returns the fully qualified form of a class-like name as
// written in source, without a leading separator.
func (r *Resolver) ResolveClass(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, Separator) {
		return strings.TrimLeft(name, Separator)
	}
	if rest, ok := cutPrefixFold(name, "namespace"+Separator); ok {
		return r.Qualify(rest)
	}
	first, rest, qualified := strings.Cut(name, Separator)
	if target, ok := r.classes[strings.ToLower(first)]; ok {
		if qualified {
			return target + Separator + rest
		}
		return target
	}
	return r.Qualify(name)
}

// ImportedFunction returns the target of a function import for alias.
func (r *Resolver) ImportedFunction(alias string) (string, bool) {
	target, ok := r.functions[strings.ToLower(alias)]
	return target, ok
}

// Qualify prefixes a declared name with the current namespace.
func (r *Resolver) Qualify(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + Separator + name
}

// Last returns the final segment of a qualified name.
func Last(name string) string {
	if i := strings.LastIndex(name, Separator); i >= 0 {
		return name[i+1:]
	}
	return name
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

var (
	asPattern   = regexp.MustCompile(`(?i)\s+as\s+`)
	kindPattern = regexp.MustCompile(`(?i)^(function|const)\s+`)
)

// ParseUse parses the text of a use declaration, for example
// `use Foo\{Bar, function baz as qux};`.
func ParseUse(text string) []Use {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")
	if rest, ok := cutPrefixFold(text, "use"); ok {
		text = rest
	}
	text = strings.TrimSpace(text)

	kind, text := splitKind(text, UseClass)

	prefix := ""
	if open := strings.Index(text, "{"); open >= 0 {
		prefix = strings.TrimRight(strings.TrimSpace(text[:open]), Separator)
		text = text[open+1:]
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "}"))
	}

	var uses []Use
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		itemKind, item := splitKind(item, kind)
		name, alias := item, ""
		if parts := asPattern.Split(item, 2); len(parts) == 2 {
			name, alias = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
		if prefix != "" {
			name = prefix + Separator + strings.TrimLeft(name, Separator)
		}
		uses = append(uses, Use{Kind: itemKind, Name: strings.TrimLeft(name, Separator), Alias: alias})
	}
	return uses
}

func splitKind(text string, fallback UseKind) (UseKind, string) {
	m := kindPattern.FindStringSubmatch(text)
	if m == nil {
		return fallback, text
	}
	rest := text[len(m[0]):]
	if strings.EqualFold(m[1], "function") {
		return UseFunction, rest
	}
	return UseConst, rest
}
