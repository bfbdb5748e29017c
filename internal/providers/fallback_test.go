package providers

import (
	"context"
	"errors"
	"testing"

	"craftchat/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestShouldFallback(t *testing.T) {
	tests := []struct {
		name     string
		original models.ProviderID
		err      error
		want     bool
	}{
		{"503_from_research", models.ProviderResearch, &ProviderError{Code: CodeUnavailable, HTTPStatus: 503}, true},
		{"500_from_fast", models.ProviderFast, &ProviderError{Code: CodeServer, HTTPStatus: 500}, true},
		{"429_from_fast", models.ProviderFast, &ProviderError{Code: CodeRateLimited, HTTPStatus: 429}, true},
		{"401_misconfigured", models.ProviderResearch, &ProviderError{Code: CodeAuth, HTTPStatus: 401}, true},
		{"403_misconfigured", models.ProviderResearch, &ProviderError{Code: CodeAuth, HTTPStatus: 403}, true},
		{"400_misconfigured", models.ProviderFast, &ProviderError{Code: CodeBadRequest, HTTPStatus: 400}, true},
		{"timeout", models.ProviderResearch, &ProviderError{Code: CodeTimeout}, true},
		{"missing_key", models.ProviderResearch, &ProviderError{Code: CodeMissingKey}, true},
		{"404_not_eligible", models.ProviderResearch, &ProviderError{Code: CodeNotFound, HTTPStatus: 404}, false},
		{"422_not_eligible", models.ProviderFast, &ProviderError{Code: CodeUnknown, HTTPStatus: 422}, false},
		{"malformed_not_eligible", models.ProviderFast, &ProviderError{Code: CodeMalformedResponse}, false},
		{"canceled_not_eligible", models.ProviderFast, &ProviderError{Code: CodeCanceled}, false},
		{"already_fallback", models.ProviderComplex, &ProviderError{Code: CodeServer, HTTPStatus: 500}, false},
		{"nil_error", models.ProviderFast, nil, false},
		{"raw_deadline", models.ProviderFast, context.DeadlineExceeded, true},
		{"raw_unavailable_text", models.ProviderFast, errors.New("service temporarily unavailable"), true},
		{"raw_permanent_text", models.ProviderFast, errors.New("bad prompt"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldFallback(tt.original, tt.err))
		})
	}
}
