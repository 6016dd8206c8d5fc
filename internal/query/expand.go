// Package query expands a subject name into a bounded set of threat-focused
// search queries.
package query

// threatModifiers is the fixed vocabulary appended to the subject to surface
// reputational threat coverage.
var threatModifiers = []string{
	"scandal", "leak", "controversy", "lawsuit", "fraud", "abuse",
	"criticism", "investigation", "allegation", "crisis", "hack",
	"breach", "exposed", "caught", "guilty", "criminal",
}

// DefaultMaxQueries bounds expansion when the caller passes max <= 0.
const DefaultMaxQueries = 20

// Expand builds the ordered, deduplicated query set for a subject: the bare
// subject first, then subject+hint for each hint, then subject+modifier.
// Output is truncated to max and is deterministic for fixed inputs.
func Expand(subject string, hints []string, max int) []string {
	if max <= 0 {
		max = DefaultMaxQueries
	}

	seen := make(map[string]struct{})
	queries := make([]string, 0, max)

	add := func(q string) {
		if len(queries) >= max {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	add(subject)
	for _, hint := range hints {
		if hint == "" {
			continue
		}
		add(subject + " " + hint)
	}
	for _, modifier := range threatModifiers {
		add(subject + " " + modifier)
	}

	return queries
}
