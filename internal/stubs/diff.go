package stubs

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// Diff renders a unified diff between the unfiltered and filtered text of
// one file. Identical inputs yield "".
func Diff(name string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  diffContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n(diff unavailable: %v)\n", name, name, err)
	}
	return s
}
