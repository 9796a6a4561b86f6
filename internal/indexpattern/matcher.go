// Package indexpattern tests index patterns against allowed source families.
package indexpattern

import (
	"regexp"
	"strings"
)

// DefaultLogsFamilies are the base names recognised as log sources.
var DefaultLogsFamilies = []string{"log", "logs", "logstash", "auditbeat", "filebeat", "winlogbeat"}

// Matcher checks whether every source of an index pattern belongs to one of a set of
// families. A source belongs to a family when, after an optional remote cluster prefix
// ("cluster:"), it starts with the family name followed by "-", ".", "*" or nothing.
// Matching is case-insensitive.
type Matcher struct {
	families []string
	re       *regexp.Regexp
}

// NewMatcher builds a Matcher for the given families. Empty names are ignored.
func NewMatcher(families ...string) *Matcher {
	quoted := make([]string, 0, len(families))
	kept := make([]string, 0, len(families))
	for _, f := range families {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		kept = append(kept, f)
		quoted = append(quoted, regexp.QuoteMeta(f))
	}

	m := &Matcher{families: kept}
	if len(quoted) > 0 {
		m.re = regexp.MustCompile(`(?i)^(?:[^:]+:)?(?:` + strings.Join(quoted, "|") + `)(?:-|\.|\*|$)`)
	}
	return m
}

// Families returns the family names the matcher accepts.
func (m *Matcher) Families() []string {
	out := make([]string, len(m.families))
	copy(out, m.families)
	return out
}

// MatchSource reports whether a single source belongs to an allowed family.
func (m *Matcher) MatchSource(source string) bool {
	if m == nil || m.re == nil {
		return false
	}
	source = strings.TrimSpace(source)
	return source != "" && m.re.MatchString(source)
}

// MatchPattern reports whether every comma-separated source of pattern belongs to an
// allowed family. An empty pattern never matches.
func (m *Matcher) MatchPattern(pattern string) bool {
	return m.MatchSources(Split(pattern))
}

// MatchSources reports whether every source belongs to an allowed family. There is no
// partial credit: one foreign source fails the whole set.
func (m *Matcher) MatchSources(sources []string) bool {
	if len(sources) == 0 {
		return false
	}
	for _, src := range sources {
		if !m.MatchSource(src) {
			return false
		}
	}
	return true
}

// Split splits a comma-separated index pattern into trimmed, non-empty sources.
func Split(pattern string) []string {
	parts := strings.Split(pattern, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
