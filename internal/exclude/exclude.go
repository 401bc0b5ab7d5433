// Package exclude implements the symbol deny-list applied before admission.
//
// The deny-list is a comma-separated string of tokens. An identifier is
// excluded when it contains any token, compared case-insensitively.
package exclude

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter is a parsed deny-list. The zero value excludes nothing.
type Filter struct {
	tokens []string // Original tokens, for logging
	folded []string // Case-folded tokens, same order
}

// Parse splits a comma-separated deny-list. Empty tokens are dropped.
func Parse(denyList string) Filter {
	fold := cases.Fold()

	var f Filter
	for _, tok := range strings.Split(denyList, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		f.tokens = append(f.tokens, tok)
		f.folded = append(f.folded, fold.String(tok))
	}
	return f
}

// Match returns the first token contained in identifier.
func (f Filter) Match(identifier string) (string, bool) {
	if len(f.folded) == 0 {
		return "", false
	}
	id := cases.Fold().String(identifier)
	for i, tok := range f.folded {
		if strings.Contains(id, tok) {
			return f.tokens[i], true
		}
	}
	return "", false
}

// Tokens returns the non-empty tokens in configuration order.
func (f Filter) Tokens() []string {
	out := make([]string, len(f.tokens))
	copy(out, f.tokens)
	return out
}

// IsExcluded reports whether identifier matches any token of denyList.
func IsExcluded(identifier, denyList string) bool {
	_, ok := Parse(denyList).Match(identifier)
	return ok
}
