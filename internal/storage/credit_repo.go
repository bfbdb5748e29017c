package storage

import (
	"context"
	"fmt"
	"sync"
)

// CreditRepo records one credit consumption per turn. A repeated turn ID is
// ignored, which makes Consume idempotent.
type CreditRepo struct {
	db *DB
}

func NewCreditRepo(db *DB) *CreditRepo {
	return &CreditRepo{db: db}
}

func (r *CreditRepo) Consume(ctx context.Context, conversationID, turnID string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
INSERT INTO credit_consumptions (turn_id, conversation_id)
VALUES ($1, $2)
ON CONFLICT (turn_id) DO NOTHING`, turnID, conversationID)
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MemoryLedger is the in-process credit ledger.
type MemoryLedger struct {
	mu     sync.Mutex
	turns  map[string]string
	counts map[string]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{turns: map[string]string{}, counts: map[string]int{}}
}

func (l *MemoryLedger) Consume(_ context.Context, conversationID, turnID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, done := l.turns[turnID]; done {
		return false, nil
	}
	l.turns[turnID] = conversationID
	l.counts[conversationID]++
	return true, nil
}

// Consumed returns how many credits a conversation has used.
func (l *MemoryLedger) Consumed(conversationID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[conversationID]
}
