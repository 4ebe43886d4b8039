package remote

import "testing"

func TestCursor_First(t *testing.T) {
	c := First()

	if c.Exhausted() {
		t.Error("First() cursor should not be exhausted")
	}
	if c.Started() {
		t.Error("First() cursor should not be started")
	}
	if c.Token() != "" {
		t.Errorf("First() token = %q, want empty", c.Token())
	}
}

func TestCursor_Continue(t *testing.T) {
	c := Continue("page-2")

	if c.Exhausted() {
		t.Error("Continue() cursor should not be exhausted")
	}
	if !c.Started() {
		t.Error("Continue() cursor should be started")
	}
	if c.Token() != "page-2" {
		t.Errorf("Token() = %q, want %q", c.Token(), "page-2")
	}
}

func TestCursor_Continue_EmptyToken(t *testing.T) {
	// An empty continuation token is not a resumable position.
	c := Continue("")

	if !c.Exhausted() {
		t.Error("Continue(\"\") should yield the exhausted cursor")
	}
}

func TestCursor_End(t *testing.T) {
	c := End()

	if !c.Exhausted() {
		t.Error("End() cursor should be exhausted")
	}
	if !c.Started() {
		t.Error("End() cursor should count as started")
	}
}

func TestCursor_DistinguishesFirstFromEnd(t *testing.T) {
	// Both carry an empty token; conflating them truncates listings to one
	// page. They must compare distinct.
	if First() == End() {
		t.Error("First() and End() must not be equal")
	}
}

func TestCursor_String(t *testing.T) {
	tests := []struct {
		cursor Cursor
		want   string
	}{
		{First(), "cursor(first)"},
		{Continue("abc"), "cursor(abc)"},
		{End(), "cursor(end)"},
	}

	for _, tt := range tests {
		if got := tt.cursor.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
