// Package esql extracts the source list from ES|QL queries.
//
// Only the leading source command is inspected (FROM, METRICS or TS). Everything after
// the first pipe is ignored, as is the METADATA option of the source command.
package esql

import (
	"strings"
)

// sourceCommands are the commands that may open a query and name its sources.
var sourceCommands = map[string]struct{}{
	"from":    {},
	"metrics": {},
	"ts":      {},
}

// Sources returns the sources named by the query's source command, in order.
// Quoted sources are returned without quotes. A query that does not start with a
// source command yields nil.
func Sources(query string) []string {
	query = strings.TrimSpace(stripComments(query))
	if query == "" {
		return nil
	}

	command, rest := splitWord(query)
	if _, ok := sourceCommands[strings.ToLower(command)]; !ok {
		return nil
	}

	var sources []string
	s := &scanner{input: rest}
	for {
		s.skipSpace()
		src, ok := s.source()
		if !ok {
			break
		}
		if strings.EqualFold(src, "metadata") && !s.lastQuoted {
			break
		}
		sources = append(sources, src)

		s.skipSpace()
		if !s.consume(',') {
			break
		}
	}
	return sources
}

// IndexPattern returns the query's sources joined with commas, which is the index
// pattern the query targets. Empty when the query names no sources.
func IndexPattern(query string) string {
	return strings.Join(Sources(query), ",")
}

func splitWord(s string) (string, string) {
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

type scanner struct {
	input      string
	pos        int
	lastQuoted bool
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.input) && isSpace(rune(s.input[s.pos])) {
		s.pos++
	}
}

func (s *scanner) consume(c byte) bool {
	if s.pos < len(s.input) && s.input[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

// source reads one quoted or unquoted source name.
func (s *scanner) source() (string, bool) {
	if s.pos >= len(s.input) {
		return "", false
	}

	if s.input[s.pos] == '"' {
		end := strings.IndexByte(s.input[s.pos+1:], '"')
		if end < 0 {
			return "", false
		}
		name := s.input[s.pos+1 : s.pos+1+end]
		s.pos += end + 2
		s.lastQuoted = true
		return name, name != ""
	}

	start := s.pos
	for s.pos < len(s.input) {
		c := s.input[s.pos]
		if c == ',' || c == '|' || c == '"' || isSpace(rune(c)) {
			break
		}
		s.pos++
	}
	s.lastQuoted = false
	return s.input[start:s.pos], s.pos > start
}

// stripComments removes // line comments and /* */ block comments that are not
// inside double quotes.
func stripComments(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			b.WriteByte(c)
		case !inQuote && c == '/' && i+1 < len(query) && query[i+1] == '/':
			for i < len(query) && query[i] != '\n' {
				i++
			}
			b.WriteByte('\n')
		case !inQuote && c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
