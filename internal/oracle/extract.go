package oracle

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Entity types in primary-selection precedence order.
const (
	TypePerson = "PERSON"
	TypeOrg    = "ORG"
	TypeSocial = "SOCIAL"
)

// Entity is one person, organization or social handle detected in content.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

const extractPrompt = `Extract all people, organizations, and social handles from the following text.

Return ONLY a JSON array in this exact format:
[
  { "name": "Jane Doe", "type": "PERSON" },
  { "name": "ACME Corp", "type": "ORG" },
  { "name": "@janedoe", "type": "SOCIAL" }
]

Text:
"""%s"""`

// Extractor pulls structured entities out of sanitized text via the oracle.
type Extractor struct {
	provider  Provider
	maxTokens int
}

// NewExtractor creates an entity extractor.
func NewExtractor(provider Provider, maxTokens int) *Extractor {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Extractor{provider: provider, maxTokens: maxTokens}
}

// Extract returns the entities detected in text. Any oracle failure
// (unreachable, non-2xx, malformed JSON) degrades to an empty slice;
// extraction is never fatal to the surrounding record.
func (e *Extractor) Extract(ctx context.Context, text string) []Entity {
	if e.provider == nil || !e.provider.IsConfigured() {
		return nil
	}

	response, err := e.provider.Generate(ctx, fmt.Sprintf(extractPrompt, text), e.maxTokens)
	if err != nil {
		log.Printf("Entity extraction failed: %v", err)
		return nil
	}

	raw := ParseJSONArray(response)
	if raw == nil {
		return nil
	}

	var entities []Entity
	for _, item := range raw {
		name, _ := item["name"].(string)
		typ, _ := item["type"].(string)
		name = strings.TrimSpace(name)
		typ = strings.ToUpper(strings.TrimSpace(typ))
		if name == "" {
			continue
		}
		switch typ {
		case TypePerson, TypeOrg, TypeSocial:
			entities = append(entities, Entity{Name: name, Type: typ})
		}
	}
	return entities
}

// Primary selects the lead entity from an extracted set using fixed
// precedence PERSON > ORG > SOCIAL, first match wins. Returns nil when the
// set is empty.
func Primary(entities []Entity) *Entity {
	for _, typ := range []string{TypePerson, TypeOrg, TypeSocial} {
		for i := range entities {
			if entities[i].Type == typ {
				return &entities[i]
			}
		}
	}
	return nil
}
