// Package graph derives co-mention relationships between the scanned subject
// and other named entities appearing in collected content.
package graph

import (
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/simonL79/aria-ops-ai-sub008/internal/database"
)

// stopwords are common sentence starters and feed brand names that shape
// like entities but are not.
var stopwords = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "These": {}, "Those": {},
	"However": {}, "Meanwhile": {}, "According": {}, "Following": {},
	"During": {}, "After": {}, "Before": {}, "When": {}, "While": {},
	"News": {}, "BBC": {}, "Guardian": {}, "Reuters": {}, "Reddit": {},
}

// DefaultTopK bounds the related-entity list when the caller passes k <= 0.
const DefaultTopK = 10

// Related extracts candidate entity names from text as runs of consecutive
// capitalized tokens, drops stopwords and the subject itself, and returns
// the topK most frequent names, most frequent first. Ties break on first
// appearance so repeated runs over the same text are deterministic.
func Related(text, subject string, topK int) []string {
	if topK <= 0 {
		topK = DefaultTopK
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	tokens := strings.Fields(text)
	for i := 0; i < len(tokens); {
		if !isCapitalized(tokens[i]) {
			i++
			continue
		}

		j := i
		var run []string
		for j < len(tokens) && isCapitalized(tokens[j]) {
			run = append(run, strings.Trim(tokens[j], ".,;:!?\"'()[]"))
			j++
		}
		name := strings.Join(run, " ")
		i = j

		if len(name) <= 2 {
			continue
		}
		if _, stop := stopwords[name]; stop {
			continue
		}
		if strings.EqualFold(name, subject) {
			continue
		}

		if _, seen := counts[name]; !seen {
			firstSeen[name] = order
			order++
		}
		counts[name]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		if counts[names[a]] != counts[names[b]] {
			return counts[names[a]] > counts[names[b]]
		}
		return firstSeen[names[a]] < firstSeen[names[b]]
	})

	if len(names) > topK {
		names = names[:topK]
	}
	return names
}

func isCapitalized(token string) bool {
	trimmed := strings.TrimLeft(token, "\"'([")
	for _, r := range trimmed {
		return unicode.IsUpper(r)
	}
	return false
}

// Builder records co-mention edges against durable storage.
type Builder struct {
	db *database.DB
}

// NewBuilder creates a graph builder over the given database.
func NewBuilder(db *database.DB) *Builder {
	return &Builder{db: db}
}

// Record upserts one edge per related entity. Each upsert is a single
// conditional write; a failed edge is logged and skipped so one bad row
// cannot abort the batch. Returns the number of edges recorded.
func (b *Builder) Record(subject string, related []string) int {
	recorded := 0
	for _, entity := range related {
		if err := b.db.UpsertEntityEdge(subject, entity); err != nil {
			log.Printf("Failed to upsert edge %s -> %s: %v", subject, entity, err)
			continue
		}
		recorded++
	}
	return recorded
}
