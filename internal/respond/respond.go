// Package respond picks a reply for a matched rule, or a fallback when
// nothing matched.
package respond

import (
	"strings"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/rules"
)

// Rand is the random source used to pick responses. *math/rand.Rand
// satisfies it.
type Rand interface {
	Intn(n int) int
}

// Namer supplies the display name substituted for rules.Placeholder.
type Namer interface {
	DisplayName() string
}

// Selector draws responses. It has no side effects beyond the RNG draw.
type Selector struct {
	fallback []string
}

// NewSelector returns a Selector using fallback for unmatched input. An
// empty fallback falls back to rules.DefaultFallback.
func NewSelector(fallback []string) *Selector {
	if len(fallback) == 0 {
		fallback = rules.DefaultFallback
	}
	return &Selector{fallback: append([]string(nil), fallback...)}
}

// Select returns one response from entry, or from the fallback set when
// entry is nil, with the display name substituted.
func (s *Selector) Select(entry *rules.Entry, who Namer, rng Rand) string {
	pool := s.fallback
	if entry != nil && len(entry.Responses) > 0 {
		pool = entry.Responses
	}
	return Fill(pool[rng.Intn(len(pool))], who)
}

// Fill substitutes the display name into a response template.
func Fill(template string, who Namer) string {
	if !strings.Contains(template, rules.Placeholder) {
		return template
	}
	name := ""
	if who != nil {
		name = who.DisplayName()
	}
	return strings.ReplaceAll(template, rules.Placeholder, name)
}
