package providers

import "testing"

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("fast:groq| research:Perplexity |complex")
	if len(refs) != 3 {
		t.Fatalf("expected 3 providers got %d", len(refs))
	}
	if refs[1].Slot != "research" || refs[1].Backend != "perplexity" {
		t.Fatalf("unexpected parse result: %+v", refs[1])
	}
	if refs[2].Slot != "complex" || refs[2].Backend != "mock" {
		t.Fatalf("bare slot should default to mock: %+v", refs[2])
	}
}
