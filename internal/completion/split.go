package completion

import "strings"

// Split is an expression partitioned at its last ".".
//
// Head is the sub-expression whose value supplies candidates. HasHead is false
// when the expression contains no "." at all, in which case candidates come
// from the lexical scope instead. An expression starting with "." has an empty
// but present head.
type Split struct {
	Head    string
	HasHead bool
	Tail    string
}

// SplitExpression partitions expr at its last ".". No syntax checking is done.
func SplitExpression(expr string) Split {
	idx := strings.LastIndex(expr, ".")
	if idx < 0 {
		return Split{Tail: expr}
	}
	return Split{Head: expr[:idx], HasHead: true, Tail: expr[idx+1:]}
}

// String rebuilds the original expression.
func (s Split) String() string {
	if !s.HasHead {
		return s.Tail
	}
	return s.Head + "." + s.Tail
}

// Complete returns the expression text with the tail replaced by match.
func (s Split) Complete(match string) string {
	if !s.HasHead {
		return match
	}
	return s.Head + "." + match
}
