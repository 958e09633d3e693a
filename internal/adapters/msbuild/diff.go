package msbuild

import (
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// Diff renders the pending edits as a unified diff. An unmodified project
// yields "".
func (p *Project) Diff() (string, error) {
	out := p.rendered()
	if string(out) == string(p.original) {
		return "", nil
	}

	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(p.original)),
		B:        splitLinesKeepNL(string(out)),
		FromFile: p.path,
		ToFile:   p.path,
		Context:  diffContext,
	}
	return difflib.GetUnifiedDiffString(u)
}

// splitLinesKeepNL keeps the newline on each line so hunks reproduce the
// file's own line endings
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}
