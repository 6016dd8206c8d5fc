package oracle

import (
	"context"
	"errors"
	"testing"
)

type mockProvider struct {
	response   string
	err        error
	configured bool
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return m.configured }

func TestExtractEntities(t *testing.T) {
	resp := `[
		{"name": "Jane Doe", "type": "PERSON"},
		{"name": "ACME Corp", "type": "ORG"},
		{"name": "@janedoe", "type": "SOCIAL"}
	]`
	e := NewExtractor(&mockProvider{response: resp, configured: true}, 512)

	entities := e.Extract(context.Background(), "some text")
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}
	if entities[0].Name != "Jane Doe" || entities[0].Type != TypePerson {
		t.Errorf("unexpected first entity: %+v", entities[0])
	}
}

func TestExtractToleratesMarkdownFences(t *testing.T) {
	resp := "```json\n[{\"name\": \"ACME Corp\", \"type\": \"ORG\"}]\n```"
	e := NewExtractor(&mockProvider{response: resp, configured: true}, 512)

	entities := e.Extract(context.Background(), "text")
	if len(entities) != 1 || entities[0].Type != TypeOrg {
		t.Errorf("unexpected entities: %+v", entities)
	}
}

func TestExtractDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name     string
		provider *mockProvider
	}{
		{"oracle error", &mockProvider{err: errors.New("unreachable"), configured: true}},
		{"malformed JSON", &mockProvider{response: "I found Jane Doe and ACME", configured: true}},
		{"JSON object not array", &mockProvider{response: `{"name": "x"}`, configured: true}},
		{"unconfigured", &mockProvider{configured: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(tt.provider, 512)
			if entities := e.Extract(context.Background(), "text"); entities != nil {
				t.Errorf("expected nil entities, got %+v", entities)
			}
		})
	}
}

func TestExtractSkipsUnknownTypes(t *testing.T) {
	resp := `[
		{"name": "London", "type": "LOCATION"},
		{"name": "", "type": "PERSON"},
		{"name": "acme corp", "type": "org"}
	]`
	e := NewExtractor(&mockProvider{response: resp, configured: true}, 512)

	entities := e.Extract(context.Background(), "text")
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Type != TypeOrg {
		t.Errorf("expected normalized ORG, got %q", entities[0].Type)
	}
}

func TestPrimaryPrecedence(t *testing.T) {
	entities := []Entity{
		{Name: "@handle", Type: TypeSocial},
		{Name: "ACME Corp", Type: TypeOrg},
		{Name: "Jane Doe", Type: TypePerson},
		{Name: "John Roe", Type: TypePerson},
	}

	primary := Primary(entities)
	if primary == nil || primary.Name != "Jane Doe" {
		t.Errorf("expected first PERSON, got %+v", primary)
	}
}

func TestPrimaryFallsThroughTypes(t *testing.T) {
	entities := []Entity{{Name: "@handle", Type: TypeSocial}, {Name: "ACME", Type: TypeOrg}}
	if p := Primary(entities); p == nil || p.Type != TypeOrg {
		t.Errorf("expected ORG before SOCIAL, got %+v", p)
	}

	if p := Primary(nil); p != nil {
		t.Errorf("expected nil for empty set, got %+v", p)
	}
}
