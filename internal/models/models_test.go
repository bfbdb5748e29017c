package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageNormalizeEmitsEmptyArrays(t *testing.T) {
	m := Message{ID: "m1", Role: RoleAssistant, Content: "hi"}
	m.Normalize()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, field := range []string{`"post_process_steps":[]`, `"citations":[]`, `"keyword_entries":[]`} {
		if !strings.Contains(s, field) {
			t.Fatalf("expected %s in %s", field, s)
		}
	}
}

func TestProviderIDValid(t *testing.T) {
	for _, p := range []ProviderID{ProviderFast, ProviderResearch, ProviderComplex} {
		if !p.Valid() {
			t.Fatalf("%s should be valid", p)
		}
	}
	if ProviderID("groq").Valid() {
		t.Fatalf("unknown provider id must not be valid")
	}
}

func TestUsedFallback(t *testing.T) {
	if (Message{}).UsedFallback() {
		t.Fatalf("nil metadata must report no fallback")
	}
	m := Message{Metadata: map[string]any{MetaUsedFallback: true}}
	if !m.UsedFallback() {
		t.Fatalf("expected fallback flag")
	}
}
