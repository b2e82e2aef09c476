// Package rules holds the ordered keyword/pattern rule table and the matcher
// that classifies input against it.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/textnorm"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Placeholder is replaced with the session's display name in responses.
const Placeholder = "{name}"

// ConfigError reports a malformed rule table definition.
type ConfigError struct {
	Source string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("rules %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Entry binds a set of matchers to the responses it may produce.
type Entry struct {
	Category  string
	Mood      string
	Keywords  []string
	Patterns  []*regexp.Regexp
	Responses []string
}

// Table is the immutable, ordered rule set. Earlier entries win ties.
type Table struct {
	entries  []Entry
	fallback []string
}

// DefaultFallback is used when the definition does not provide one.
var DefaultFallback = []string{
	"Üzgünüm, bunu anlamadım.",
	"Sorry, I didn't understand that.",
	"I don't know how to answer that yet.",
	"I don't know that yet, " + Placeholder + ". Teach me with: remember <topic> is <fact>",
}

type fileRule struct {
	Category  string   `yaml:"category"`
	Mood      string   `yaml:"mood"`
	Keywords  []string `yaml:"keywords"`
	Patterns  []string `yaml:"patterns"`
	Responses []string `yaml:"responses"`
}

type fileTable struct {
	Fallback []string   `yaml:"fallback"`
	Rules    []fileRule `yaml:"rules"`
}

// Load reads the rule table from path, or the embedded defaults when path
// is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Parse("embedded", bytes.NewReader(defaultRulesYAML))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Reason: "open", Err: err}
	}
	defer f.Close()
	return Parse(path, f)
}

// Default returns the embedded rule table.
func Default() *Table {
	t, err := Load("")
	if err != nil {
		panic(err)
	}
	return t
}

// Parse decodes a YAML rule definition. Unknown fields are rejected.
func Parse(source string, r io.Reader) (*Table, error) {
	var ft fileTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ft); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Source: source, Reason: "decode", Err: err}
	}
	if len(ft.Rules) == 0 {
		return nil, &ConfigError{Source: source, Reason: "no rules defined"}
	}

	t := &Table{entries: make([]Entry, 0, len(ft.Rules))}
	for i, fr := range ft.Rules {
		e, err := buildEntry(fr, nil)
		if err != nil {
			return nil, &ConfigError{Source: source, Reason: fmt.Sprintf("rule %d", i), Err: err}
		}
		t.entries = append(t.entries, e)
	}

	for _, s := range ft.Fallback {
		if strings.TrimSpace(s) == "" {
			return nil, &ConfigError{Source: source, Reason: "empty fallback response"}
		}
	}
	if len(ft.Fallback) > 0 {
		t.fallback = ft.Fallback
	} else {
		t.fallback = append([]string(nil), DefaultFallback...)
	}
	return t, nil
}

// New builds a table directly from entries, applying the same validation as
// Parse. Keywords are normalized. Patterns are used as compiled, so callers
// add (?i) themselves when they want case-insensitive matching.
func New(entries []Entry, fallback []string) (*Table, error) {
	t := &Table{entries: make([]Entry, 0, len(entries))}
	for i, e := range entries {
		fr := fileRule{Category: e.Category, Mood: e.Mood, Keywords: e.Keywords, Responses: e.Responses}
		built, err := buildEntry(fr, e.Patterns)
		if err != nil {
			return nil, &ConfigError{Source: "inline", Reason: fmt.Sprintf("rule %d", i), Err: err}
		}
		t.entries = append(t.entries, built)
	}
	if len(fallback) == 0 {
		fallback = DefaultFallback
	}
	t.fallback = append([]string(nil), fallback...)
	return t, nil
}

func buildEntry(fr fileRule, compiled []*regexp.Regexp) (Entry, error) {
	if strings.TrimSpace(fr.Category) == "" {
		return Entry{}, errors.New("category is required")
	}
	if len(fr.Responses) == 0 {
		return Entry{}, errors.New("at least one response is required")
	}
	e := Entry{
		Category:  strings.TrimSpace(fr.Category),
		Mood:      strings.TrimSpace(fr.Mood),
		Responses: append([]string(nil), fr.Responses...),
		Patterns:  append([]*regexp.Regexp(nil), compiled...),
	}
	for _, k := range fr.Keywords {
		nk := textnorm.Normalize(k)
		if nk == "" {
			return Entry{}, errors.New("empty keyword")
		}
		e.Keywords = append(e.Keywords, nk)
	}
	for _, p := range fr.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return Entry{}, fmt.Errorf("pattern %q: %w", p, err)
		}
		e.Patterns = append(e.Patterns, re)
	}
	if len(e.Keywords) == 0 && len(e.Patterns) == 0 {
		return Entry{}, errors.New("at least one keyword or pattern is required")
	}
	return e, nil
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy of the entries in insertion order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Fallback returns the responses used when nothing matches.
func (t *Table) Fallback() []string {
	return append([]string(nil), t.fallback...)
}
