package query

import (
	"reflect"
	"testing"
)

func TestExpandDeterministic(t *testing.T) {
	hints := []string{"crypto", "offshore"}
	first := Expand("Jane Doe", hints, 20)
	second := Expand("Jane Doe", hints, 20)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expansion not deterministic:\n%v\n%v", first, second)
	}
}

func TestExpandBareSubjectFirst(t *testing.T) {
	queries := Expand("Jane Doe", nil, 20)
	if len(queries) == 0 {
		t.Fatal("expected at least one query")
	}
	if queries[0] != "Jane Doe" {
		t.Errorf("expected bare subject first, got %q", queries[0])
	}
}

func TestExpandOrdering(t *testing.T) {
	queries := Expand("ACME", []string{"merger"}, 20)
	if queries[0] != "ACME" {
		t.Errorf("expected bare subject first, got %q", queries[0])
	}
	if queries[1] != "ACME merger" {
		t.Errorf("expected hint query second, got %q", queries[1])
	}
	if queries[2] != "ACME scandal" {
		t.Errorf("expected first modifier third, got %q", queries[2])
	}
}

func TestExpandBound(t *testing.T) {
	hints := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, max := range []int{1, 5, 20, 100} {
		queries := Expand("Jane Doe", hints, max)
		if len(queries) > max {
			t.Errorf("max=%d: got %d queries", max, len(queries))
		}
		if max >= 1 && queries[0] != "Jane Doe" {
			t.Errorf("max=%d: bare subject not first", max)
		}
	}
}

func TestExpandDeduplicates(t *testing.T) {
	// A hint colliding with a modifier must appear only once.
	queries := Expand("ACME", []string{"fraud", "fraud"}, 50)
	count := 0
	for _, q := range queries {
		if q == "ACME fraud" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one 'ACME fraud' query, got %d", count)
	}
}

func TestExpandEmptyHints(t *testing.T) {
	queries := Expand("ACME", []string{""}, 20)
	// Empty hint is skipped: subject plus 16 modifiers.
	if len(queries) != 1+len(threatModifiers) {
		t.Errorf("expected %d queries, got %d", 1+len(threatModifiers), len(queries))
	}
}

func TestExpandDefaultMax(t *testing.T) {
	queries := Expand("ACME", nil, 0)
	if len(queries) > DefaultMaxQueries {
		t.Errorf("default bound exceeded: %d", len(queries))
	}
}
