package syntax

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// extToDialect maps source file extensions to dialect names. PXP is a
// superset of PHP and is parsed with the PHP grammar; syntax the grammar does
// not know surfaces as parse defects.
var extToDialect = map[string]string{
	".php": "php",
	".pxp": "pxp",
}

var (
	dialectToGrammar map[string]*sitter.Language
	grammarsOnce     sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		lang := php.GetLanguage()
		dialectToGrammar = map[string]*sitter.Language{
			"php": lang,
			"pxp": lang,
		}
	})
}

// DialectForFile returns the dialect name for a file path based on its
// extension. Returns ("", false) if the extension is not recognized.
func DialectForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := extToDialect[ext]
	return d, ok
}

// IsSource reports whether path names a file the indexer should parse.
func IsSource(path string) bool {
	_, ok := DialectForFile(path)
	return ok
}

// GrammarForDialect returns the tree-sitter Language for a dialect name.
func GrammarForDialect(dialect string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := dialectToGrammar[dialect]
	return l, ok
}
