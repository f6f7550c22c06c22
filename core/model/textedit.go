package model

import (
	"unicode/utf8"

	"github.com/FocuswithJustin/xmldoc/core/schema"
)

// TextEdit describes how a text property changed: Deleted runes were
// removed at Offset and Inserted runes were put in their place.
type TextEdit struct {
	Offset   int
	Deleted  int
	Inserted int
}

// TextLength returns the length of s in runes, the unit of all offsets.
func TextLength(s string) int {
	return utf8.RuneCountInString(s)
}

// DiffText finds the single edit turning before into after by trimming
// their common prefix and suffix. It returns false when they are equal.
func DiffText(before, after string) (TextEdit, bool) {
	if before == after {
		return TextEdit{}, false
	}
	a := []rune(before)
	b := []rune(after)

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	return TextEdit{
		Offset:   prefix,
		Deleted:  len(a) - prefix - suffix,
		Inserted: len(b) - prefix - suffix,
	}, true
}

// Apply moves the range [start,end) through the edit. Deleted text collapses
// offsets inside it to the edit point; inserted text is absorbed at the
// boundaries according to policy and always absorbed in the interior.
func (e TextEdit) Apply(start, end int, policy schema.Policy) (int, int) {
	if e.Deleted > 0 {
		start = clampDelete(start, e.Offset, e.Deleted)
		end = clampDelete(end, e.Offset, e.Deleted)
	}
	if e.Inserted == 0 {
		return start, end
	}

	p, k := e.Offset, e.Inserted
	switch {
	case p < start:
		return start + k, end + k
	case p > end:
		return start, end
	case start == end:
		if policy == schema.Exclusive {
			return start + k, end + k
		}
		return start, end + k
	case p == start:
		if policy.AbsorbsStart() {
			return start, end + k
		}
		return start + k, end + k
	case p == end:
		if policy.AbsorbsEnd() {
			return start, end + k
		}
		return start, end
	}
	return start, end + k
}

func clampDelete(offset, at, n int) int {
	switch {
	case offset <= at:
		return offset
	case offset >= at+n:
		return offset - n
	}
	return at
}
