package profile

// MatchResult is the outcome of a provider predicate. A match always carries a
// context and a non-match never does; the fields are unexported so the two states
// can only be built with Match and NoMatch.
type MatchResult[C any] struct {
	matched bool
	context C
}

// Match returns a matching result carrying ctx.
func Match[C any](ctx C) MatchResult[C] {
	return MatchResult[C]{matched: true, context: ctx}
}

// NoMatch returns a non-matching result.
func NoMatch[C any]() MatchResult[C] {
	return MatchResult[C]{}
}

// IsMatch reports whether the predicate matched.
func (r MatchResult[C]) IsMatch() bool { return r.matched }

// Context returns the derived context and whether there is one.
func (r MatchResult[C]) Context() (C, bool) { return r.context, r.matched }

// Resolved is the outcome of a resolution: the profile that won and its context.
type Resolved[C any] struct {
	ProfileID string `json:"profileId"`
	Context   C      `json:"context"`
}
