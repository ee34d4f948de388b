package cronexpr

import (
	"testing"
	"time"
)

func TestNextEveryMinute(t *testing.T) {
	e, err := Parse("*", "", "", "", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	after := time.Date(2026, 1, 1, 10, 30, 15, 0, time.UTC)
	next, ok := e.Next(after)
	if !ok {
		t.Fatal("expected a next run time")
	}
	want := time.Date(2026, 1, 1, 10, 31, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextIsIdempotent(t *testing.T) {
	e, err := Parse("*/5", "", "", "", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	after := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	first, ok := e.Next(after)
	if !ok {
		t.Fatal("expected a next run time")
	}
	second, ok := e.Next(first)
	if !ok {
		t.Fatal("expected a second next run time")
	}
	if !second.After(first) {
		t.Fatalf("Next(Next(t)) = %v, not after %v", second, first)
	}
}

func TestDayDayOfWeekOrSemantics(t *testing.T) {
	// day=1 OR day_of_week=Mon(1): should fire on the 1st of the month
	// even when the 1st isn't a Monday.
	e, err := Parse("0", "0", "1", "*", "1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// 2026-02-01 is a Sunday, not Monday, but day=1 should still match.
	after := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	next, ok := e.Next(after)
	if !ok {
		t.Fatal("expected a next run time")
	}
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v (OR semantics should fire on day=1)", next, want)
	}
}

func TestRejectsZeroStep(t *testing.T) {
	if _, err := Parse("*/0", "", "", "", ""); err == nil {
		t.Fatal("expected error for */0")
	}
}

func TestRejectsInvertedRange(t *testing.T) {
	if _, err := Parse("10-5", "", "", "", ""); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
