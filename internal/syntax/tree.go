// Package syntax wraps the tree-sitter PHP grammar behind an error-tolerant
// parser and a small set of node helpers.
package syntax

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParseError is one defect recovered by the parser.
type ParseError struct {
	Offset  int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

// Tree is a parsed source file. It owns a private copy of the source bytes.
//
// smacker/go-tree-sitter caches node wrappers inside the tree, so walking the
// same tree from two goroutines is not safe. All node access goes through
// Inspect, which serializes callers per tree.
type Tree struct {
	mu     sync.Mutex
	tree   *sitter.Tree
	src    []byte
	errors []ParseError
}

// Source returns the text the tree was parsed from.
func (t *Tree) Source() []byte { return t.src }

// Errors returns the defects the parser recovered from, in document order.
func (t *Tree) Errors() []ParseError { return t.errors }

// HasErrors reports whether the parser had to recover from anything.
func (t *Tree) HasErrors() bool { return len(t.errors) > 0 }

// Inspect calls fn with the root node while holding the tree's lock. Nodes
// must not escape fn.
func (t *Tree) Inspect(fn func(root *sitter.Node, src []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.tree.RootNode(), t.src)
}

// Parser turns source text into a Tree. Implementations never fail on
// malformed input; errors are reserved for cancellation and setup problems.
type Parser interface {
	Parse(ctx context.Context, src []byte) (*Tree, error)
}

// TreeSitter parses with the PHP tree-sitter grammar.
type TreeSitter struct {
	lang *sitter.Language
}

// NewParser returns a Parser for the given dialect ("php" or "pxp").
func NewParser(dialect string) (*TreeSitter, error) {
	lang, ok := GrammarForDialect(dialect)
	if !ok {
		return nil, fmt.Errorf("syntax: unsupported dialect %q", dialect)
	}
	return &TreeSitter{lang: lang}, nil
}

// Parse implements Parser.
func (p *TreeSitter) Parse(ctx context.Context, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	owned := make([]byte, len(src))
	copy(owned, src)

	tree, err := parser.ParseCtx(ctx, nil, owned)
	if err != nil {
		return nil, fmt.Errorf("syntax: tree-sitter parse failed: %w", err)
	}

	t := &Tree{tree: tree, src: owned}
	t.errors = collectErrors(tree.RootNode(), owned)
	return t, nil
}

// collectErrors gathers ERROR and MISSING nodes. Subtrees without errors are
// skipped.
func collectErrors(root *sitter.Node, src []byte) []ParseError {
	if !root.HasError() {
		return nil
	}
	var errs []ParseError
	Walk(root, func(n *sitter.Node) bool {
		switch {
		case n.IsMissing():
			errs = append(errs, ParseError{
				Offset:  int(n.StartByte()),
				Message: fmt.Sprintf("missing %s", n.Type()),
			})
			return false
		case n.IsError():
			errs = append(errs, ParseError{
				Offset:  int(n.StartByte()),
				Message: fmt.Sprintf("unexpected %q", excerpt(n.Content(src))),
			})
			return false
		}
		return n.HasError()
	})
	return errs
}

func excerpt(s string) string {
	const limit = 32
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
