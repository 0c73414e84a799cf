// Package lang implements the audio-language selection expression engine.
//
// An expression describes which audio-language versions of a media item the
// caller wants:
//
//	'~' or 'default'     the item's own audio, whatever its language
//	'?' or 'unknown'     versions without a language tag
//	'*' or 'all'         every version, overriding everything else
//	'{code}'             an exact language code, e.g. 'ja-JP'
//	'${regex}'           a regular expression over language codes, e.g. '$ja.*'
//	'{a} > {b}'          fallback: try 'a', and only if nothing matched, 'b'
//	'{g1}, {g2}'         alternative priority groups, evaluated independently
//
// A character prefixed with '\' is taken literally.
package lang

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultTag is the sentinel code bound to the requesting item's own audio.
// It is deliberately not a valid BCP-47 tag so it can never collide with a
// real language code.
const DefaultTag = "@@default"

// matcherKind enumerates the matcher variants of the expression grammar.
type matcherKind int

const (
	kindDefault matcherKind = iota
	kindUnknown
	kindAll
	kindExact
	kindRegex
)

// Matcher is a single step of a priority group.
type Matcher struct {
	kind    matcherKind
	code    string
	pattern *regexp.Regexp
}

// Matches reports whether the matcher accepts the given case-folded code.
// The Default sentinel is only reachable through '~' and '*'; exact and
// regex matchers never select it.
func (m Matcher) Matches(code string) bool {
	switch m.kind {
	case kindDefault:
		return code == DefaultTag
	case kindUnknown:
		return code == ""
	case kindAll:
		return true
	case kindExact:
		return code != DefaultTag && code == m.code
	case kindRegex:
		return code != DefaultTag && m.pattern.MatchString(code)
	default:
		return false
	}
}

// Group is an ordered list of fallback matchers. Its contribution is the
// first matcher's full match set; later matchers are not tried once one
// succeeds.
type Group []Matcher

// Matches returns every code accepted by the first matcher that accepts at
// least one, preserving the order of the input codes.
func (g Group) Matches(codes []string) []string {
	for _, m := range g {
		var matched []string
		seen := make(map[string]struct{})
		for _, code := range codes {
			if _, dup := seen[code]; dup {
				continue
			}
			if m.Matches(code) {
				matched = append(matched, code)
				seen[code] = struct{}{}
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	return nil
}

// Selector is a parsed selection expression. It is immutable after Parse.
type Selector struct {
	groups []Group
	all    bool
}

// token is an expression token together with whether its leading character
// was escaped, which suppresses special interpretation.
type token struct {
	text    string
	escaped bool
}

// Parse compiles a selection expression. An empty expression is equivalent
// to "~" (the item's own audio).
func Parse(expr string) (*Selector, error) {
	selector := &Selector{}

	for _, rawGroup := range splitUnescaped(expr, ',') {
		var group Group
		for _, tok := range splitUnescaped(rawGroup, '>') {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			m, err := classify(unescape(tok))
			if err != nil {
				return nil, err
			}
			if m.kind == kindAll {
				selector.all = true
			}
			group = append(group, m)
		}
		if len(group) > 0 {
			selector.groups = append(selector.groups, group)
		}
	}

	if len(selector.groups) == 0 {
		selector.groups = []Group{{Matcher{kind: kindDefault}}}
	}
	return selector, nil
}

// FromCodes builds a selector in which every code forms its own priority
// group, as if the codes had been joined with ','. The token "~" maps to
// the Default matcher. Used to pin down the pre-selected languages of a
// playlist entry.
func FromCodes(codes []string) *Selector {
	selector := &Selector{}
	for _, code := range codes {
		m, err := classify(token{text: strings.TrimSpace(code)})
		if err != nil {
			continue
		}
		if m.kind == kindAll {
			selector.all = true
		}
		selector.groups = append(selector.groups, Group{m})
	}
	if len(selector.groups) == 0 {
		selector.groups = []Group{{Matcher{kind: kindDefault}}}
	}
	return selector
}

// classify turns one token into a matcher.
func classify(tok token) (Matcher, error) {
	text := tok.text
	if !tok.escaped {
		switch strings.ToLower(text) {
		case "~", "default":
			return Matcher{kind: kindDefault}, nil
		case "?", "unknown":
			return Matcher{kind: kindUnknown}, nil
		case "*", "all":
			return Matcher{kind: kindAll}, nil
		}
		if strings.HasPrefix(text, "$") {
			pattern, err := regexp.Compile(`^(?i:` + text[1:] + `)$`)
			if err != nil {
				return Matcher{}, fmt.Errorf("invalid language pattern %q: %w", text, err)
			}
			return Matcher{kind: kindRegex, pattern: pattern}, nil
		}
	}
	return Matcher{kind: kindExact, code: Fold(text)}, nil
}

// splitUnescaped splits s on sep, honoring backslash escapes.
func splitUnescaped(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	escaped := false

	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune('\\')
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == sep:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		current.WriteRune('\\')
	}
	parts = append(parts, current.String())
	return parts
}

// unescape resolves backslash escapes in a token and records whether its
// first character was escaped.
func unescape(s string) token {
	var out strings.Builder
	escaped := false
	firstEscaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			if out.Len() == 0 {
				firstEscaped = true
			}
			out.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		out.WriteByte(c)
	}
	return token{text: out.String(), escaped: firstEscaped}
}

// Fold normalizes a language code for comparison.
func Fold(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// All reports whether the expression contained '*' or 'all' anywhere, which
// short-circuits group evaluation and selects every available version.
func (s *Selector) All() bool {
	return s.all
}

// MatchList evaluates the selector against a plain set of codes and returns
// every matched code: the union of each group's contribution in group
// order, deduplicated.
func (s *Selector) MatchList(codes []string) []string {
	if s.all {
		return dedupe(codes)
	}

	var matches []string
	seen := make(map[string]struct{})
	for _, group := range s.groups {
		for _, code := range group.Matches(codes) {
			if _, dup := seen[code]; dup {
				continue
			}
			matches = append(matches, code)
			seen[code] = struct{}{}
		}
	}
	return matches
}

// HasMatch reports whether a code is part of a previously computed match
// result.
func (s *Selector) HasMatch(code string, matches []string) bool {
	for _, m := range matches {
		if m == code {
			return true
		}
	}
	return false
}

// HasMatches returns the subset of codes present in a previously computed
// match result, preserving input order. An empty code set stands for an
// unknown language: the untagged code is consulted instead.
func (s *Selector) HasMatches(codes []string, matches []string) []string {
	if len(codes) == 0 {
		if s.HasMatch("", matches) {
			return []string{""}
		}
		return nil
	}

	var kept []string
	for _, code := range codes {
		if s.HasMatch(code, matches) {
			kept = append(kept, code)
		}
	}
	return kept
}

func dedupe(codes []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, code := range codes {
		if _, dup := seen[code]; dup {
			continue
		}
		out = append(out, code)
		seen[code] = struct{}{}
	}
	return out
}
