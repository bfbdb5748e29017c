package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"craftchat/internal/chat"
	"craftchat/internal/models"
	"craftchat/internal/providers"
	"craftchat/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (http.Handler, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	reg, err := providers.NewRegistry(
		providers.NewMockAdapter(models.ProviderFast),
		providers.NewMockAdapter(models.ProviderResearch),
		providers.NewMockAdapter(models.ProviderComplex),
	)
	require.NoError(t, err)
	svc, err := chat.NewService(chat.Deps{Store: store, Providers: reg, Ledger: storage.NewMemoryLedger()})
	require.NoError(t, err)
	return NewServer(store, svc.Classifier(), svc, nil, 0).Routes(), store
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorOf(t *testing.T, body map[string]any) (string, string) {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error object: %v", body)
	return e["code"].(string), e["message"].(string)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec, body := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestConversationLifecycle(t *testing.T) {
	h, _ := newTestServer(t)

	rec, created := do(t, h, http.MethodPost, "/conversations", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	rec, turn := do(t, h, http.MethodPost, "/conversations/"+id+"/messages", `{"content":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assistant := turn["assistant_message"].(map[string]any)
	assert.Equal(t, "fast", assistant["provider"])
	assert.Equal(t, []any{}, assistant["post_process_steps"])
	assert.Equal(t, []any{}, assistant["keyword_entries"])

	rec, got := do(t, h, http.MethodGet, "/conversations/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, got["messages"], 2)
	assert.Equal(t, "hello", got["conversation"].(map[string]any)["title"])

	rec, list := do(t, h, http.MethodGet, "/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, list["conversations"], 1)
}

func TestResearchTurnCarriesKeywords(t *testing.T) {
	h, store := newTestServer(t)
	c, err := store.CreateConversation(context.Background(), "")
	require.NoError(t, err)

	rec, turn := do(t, h, http.MethodPost, "/conversations/"+c.ID+"/messages", `{"content":"research current SEO trends in the USA"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assistant := turn["assistant_message"].(map[string]any)
	assert.Equal(t, "research", assistant["provider"])
	assert.NotEmpty(t, assistant["keyword_entries"])
	assert.Len(t, assistant["post_process_steps"], 5)
	assert.Equal(t, "usa", turn["decision"].(map[string]any)["target_region"])
}

func TestPostMessageValidation(t *testing.T) {
	h, store := newTestServer(t)
	c, err := store.CreateConversation(context.Background(), "")
	require.NoError(t, err)

	rec, body := do(t, h, http.MethodPost, "/conversations/"+c.ID+"/messages", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	code, msg := errorOf(t, body)
	assert.Equal(t, "CC-API-4001", code)
	assert.Equal(t, "Message content is required.", msg)

	rec, body = do(t, h, http.MethodPost, "/conversations/"+c.ID+"/messages", `{"content":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, msg = errorOf(t, body)
	assert.Equal(t, "Malformed JSON request body.", msg)

	hist, _ := store.History(context.Background(), c.ID)
	assert.Empty(t, hist)
}

func TestUnknownConversationIs404(t *testing.T) {
	h, _ := newTestServer(t)
	rec, body := do(t, h, http.MethodGet, "/conversations/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	code, _ := errorOf(t, body)
	assert.Equal(t, "CC-API-4004", code)

	rec, _ = do(t, h, http.MethodPost, "/conversations/does-not-exist/messages", `{"content":"hello"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingRunner struct{}

func (failingRunner) HandleUserMessage(_ context.Context, conversationID, text string) (chat.TurnResult, error) {
	return chat.TurnResult{UserMessage: models.Message{ID: "u1", ConversationID: conversationID, Role: models.RoleUser, Content: text}},
		fmt.Errorf("%w: upstream 404", chat.ErrTurnFailed)
}

func TestTurnFailureIs502WithUserMessage(t *testing.T) {
	h := NewServer(storage.NewMemoryStore(), nil, failingRunner{}, nil, 0).Routes()
	rec, body := do(t, h, http.MethodPost, "/conversations/c1/messages", `{"content":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	code, msg := errorOf(t, body)
	assert.Equal(t, "CC-PRV-5020", code)
	assert.Equal(t, "Failed to process message", msg)
	assert.Equal(t, "hello", body["user_message"].(map[string]any)["content"])
}

func TestClassifyEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	rec, body := do(t, h, http.MethodPost, "/classify", `{"query":"write a blog post about renewable energy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "complex", body["provider"])
	assert.Equal(t, true, body["requires_post_process"])
	assert.Equal(t, false, body["requires_keyword_annotation"])
}

func TestCORSAndMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t)
	rec, _ := do(t, h, http.MethodOptions, "/conversations", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, body := do(t, h, http.MethodDelete, "/conversations", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	code, _ := errorOf(t, body)
	assert.Equal(t, "CC-API-4005", code)
}
