package remote

// Cursor is an explicit three-state continuation position for a paged
// listing. The three positions must stay distinguishable: a listing that has
// not started yet, a listing with more pages behind a token, and a listing
// that is exhausted. Collapsing "no token" and "exhausted" into one encoding
// silently truncates listings to a single page, so neither state is encoded
// through string emptiness at this surface.
type Cursor struct {
	state cursorState
	token string
}

type cursorState int

const (
	cursorFirst cursorState = iota
	cursorContinue
	cursorEnd
)

// First returns the cursor for a listing that has not been started.
func First() Cursor {
	return Cursor{state: cursorFirst}
}

// Continue returns a cursor resuming after the given continuation token.
// An empty token is not a valid continuation and yields the exhausted cursor.
func Continue(token string) Cursor {
	if token == "" {
		return End()
	}
	return Cursor{state: cursorContinue, token: token}
}

// End returns the exhausted cursor: no further pages exist.
func End() Cursor {
	return Cursor{state: cursorEnd}
}

// Exhausted reports whether the listing has no further pages.
func (c Cursor) Exhausted() bool {
	return c.state == cursorEnd
}

// Started reports whether at least one page has been fetched.
func (c Cursor) Started() bool {
	return c.state != cursorFirst
}

// Token returns the continuation token to send with the next fetch.
// It is empty for both the first-page and the exhausted cursor; callers
// gate on Exhausted before fetching.
func (c Cursor) Token() string {
	return c.token
}

// String implements fmt.Stringer for log output.
func (c Cursor) String() string {
	switch c.state {
	case cursorFirst:
		return "cursor(first)"
	case cursorContinue:
		return "cursor(" + c.token + ")"
	default:
		return "cursor(end)"
	}
}
