package completion

import "strings"

// FilterMatches returns the candidates that start with split.Tail, in source order.
//
// The pool is scopeNames when the split has no head and objectNames otherwise.
// Matching is a case-sensitive prefix test and an empty tail keeps every
// candidate. The result is never nil and never aliases its inputs, so identical
// inputs always produce equal, independently owned slices.
func FilterMatches(split Split, scopeNames, objectNames []string) []string {
	pool := scopeNames
	if split.HasHead {
		pool = objectNames
	}

	matches := make([]string, 0, len(pool))
	for _, name := range pool {
		if strings.HasPrefix(name, split.Tail) {
			matches = append(matches, name)
		}
	}
	return matches
}

// matchKey identifies one derivation of a match list.
type matchKey struct {
	request    requestKey
	tail       string
	generation uint64
}

// matchMemo keeps the most recent derivation so repeated reads, such as a
// re-render with unchanged input, reuse the same list.
type matchMemo struct {
	key     matchKey
	matches []string
	valid   bool
}

func (m *matchMemo) derive(key matchKey, split Split, result Result) []string {
	if m.valid && m.key == key {
		return m.matches
	}
	var matches []string
	if result.Status == StatusReady {
		matches = FilterMatches(split, result.ScopeNames, result.ObjectNames)
	} else {
		matches = []string{}
	}
	m.key = key
	m.matches = matches
	m.valid = true
	return matches
}

func (m *matchMemo) reset() {
	*m = matchMemo{}
}
