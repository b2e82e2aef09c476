package rules

import (
	"strings"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/textnorm"
)

// Match returns the first entry, in insertion order, with any matcher
// satisfied by the input. ok is false when nothing matches or the input is
// blank.
func (t *Table) Match(input string) (Entry, bool) {
	idx := t.MatchIndex(input)
	if idx < 0 {
		return Entry{}, false
	}
	return t.entries[idx], true
}

// MatchIndex is Match returning the entry's insertion index, or -1.
func (t *Table) MatchIndex(input string) int {
	norm := textnorm.Normalize(input)
	if norm == "" {
		return -1
	}
	raw := strings.TrimSpace(input)
	for i := range t.entries {
		if t.entries[i].matches(norm, raw) {
			return i
		}
	}
	return -1
}

// Keywords are compared against the folded input, patterns against the
// trimmed input as typed.
func (e *Entry) matches(norm, raw string) bool {
	for _, k := range e.Keywords {
		if strings.Contains(norm, k) {
			return true
		}
	}
	for _, re := range e.Patterns {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}
