package storage

import (
	"context"
	"fmt"
	"sync"
)

// ProviderCallRecord is one adapter attempt. A fallback turn produces two.
type ProviderCallRecord struct {
	CallID           string `json:"call_id"`
	ConversationID   string `json:"conversation_id"`
	TurnID           string `json:"turn_id"`
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	Status           string `json:"status"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorType        string `json:"error_type,omitempty"`
	HTTPStatus       int    `json:"http_status,omitempty"`
	UsedFallback     bool   `json:"used_fallback"`
	QueryFingerprint string `json:"query_fingerprint"`
	LatencyMS        int64  `json:"latency_ms"`
}

const (
	CallStatusOK     = "ok"
	CallStatusFailed = "failed"
)

// CallRecorder persists provider call audit rows.
type CallRecorder interface {
	Insert(ctx context.Context, rec ProviderCallRecord) error
}

type ProviderCallRepo struct {
	db *DB
}

func NewProviderCallRepo(db *DB) *ProviderCallRepo {
	return &ProviderCallRepo{db: db}
}

func (r *ProviderCallRepo) Insert(ctx context.Context, rec ProviderCallRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO provider_calls(call_id, conversation_id, turn_id, provider, model, status, error_code, error_type, http_status, used_fallback, query_fingerprint, latency_ms)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), NULLIF($2,'')::uuid, $3, $4, NULLIF($5,''), $6, NULLIF($7,''), NULLIF($8,''), NULLIF($9,0), $10, NULLIF($11,''), $12)`,
		rec.CallID, rec.ConversationID, rec.TurnID, rec.Provider, rec.Model, rec.Status, rec.ErrorCode, rec.ErrorType, rec.HTTPStatus, rec.UsedFallback, rec.QueryFingerprint, rec.LatencyMS)
	if err != nil {
		return fmt.Errorf("insert provider call: %w", err)
	}
	return nil
}

// MemoryCallLog keeps audit rows in process, for the memory store and tests.
type MemoryCallLog struct {
	mu      sync.Mutex
	records []ProviderCallRecord
}

func NewMemoryCallLog() *MemoryCallLog {
	return &MemoryCallLog{}
}

func (l *MemoryCallLog) Insert(_ context.Context, rec ProviderCallRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *MemoryCallLog) Records() []ProviderCallRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ProviderCallRecord, len(l.records))
	copy(out, l.records)
	return out
}
