package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"craftchat/internal/models"

	"golang.org/x/time/rate"
)

// callOptions are shared by every HTTP-backed adapter.
type callOptions struct {
	timeout time.Duration
	limiter *rate.Limiter
}

func newCallOptions(timeout time.Duration, rps float64, burst int) callOptions {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return callOptions{timeout: timeout, limiter: rate.NewLimiter(limit, burst)}
}

// begin waits for a limiter slot and derives the per-call deadline.
func (o callOptions) begin(ctx context.Context, provider models.ProviderID) (context.Context, context.CancelFunc, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, nil, transportError(provider, ctx.Err())
		}
		return nil, nil, &ProviderError{Provider: provider, Code: CodeRateLimited, Message: err.Error()}
	}
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	return callCtx, cancel, nil
}

func postJSON(ctx context.Context, client *http.Client, provider models.ProviderID, url string, headers map[string]string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", provider, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", provider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, transportError(provider, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(provider, err)
	}
	if resp.StatusCode >= 400 {
		return nil, statusError(provider, resp.StatusCode, body)
	}
	return body, nil
}
