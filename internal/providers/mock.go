package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"craftchat/internal/models"
)

// MockAdapter produces deterministic output for local development and tests.
// It stands in for any provider slot whose backend has no API key.
type MockAdapter struct {
	id models.ProviderID
}

func NewMockAdapter(id models.ProviderID) *MockAdapter {
	return &MockAdapter{id: id}
}

func (m *MockAdapter) ID() models.ProviderID { return m.id }

func (m *MockAdapter) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, transportError(m.id, err)
	}
	sum := sha256.Sum256([]byte(req.Query))
	tag := hex.EncodeToString(sum[:4])
	resp := Response{
		Provider:    m.id,
		Model:       "mock-" + string(m.id) + "-v1",
		Citations:   []models.Citation{},
		RawMetadata: map[string]any{"backend": "mock", "digest": tag},
	}
	switch m.id {
	case models.ProviderFast:
		resp.Text = "Mock answer: " + strings.TrimSpace(req.Query)
	case models.ProviderResearch:
		resp.Text = fmt.Sprintf("## Research summary\n\nDeterministic research notes for %q (%s).\n\n- Finding one [1]\n- Finding two [2]", req.Query, tag)
		resp.Citations = []models.Citation{
			{URL: "https://example.org/report-" + tag, Title: "Mock report", SourceDomain: "example.org"},
			{URL: "https://data.example.gov/series-" + tag, Title: "Mock dataset", SourceDomain: "data.example.gov"},
		}
	default:
		resp.Text = fmt.Sprintf("# %s\n\n## Overview\n\nDeterministic long-form draft (%s).\n\n## Next steps\n\n1. Outline\n2. Draft\n3. Revise", strings.TrimSpace(req.Query), tag)
	}
	return resp, nil
}
