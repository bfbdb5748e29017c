package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"craftchat/internal/models"
	"craftchat/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ConversationRepo is the Postgres Store. Appends lock the conversation row,
// which serializes writers per conversation only.
type ConversationRepo struct {
	db *DB
}

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) CreateConversation(ctx context.Context, title string) (models.Conversation, error) {
	c := models.Conversation{ID: uuid.NewString(), Title: strings.TrimSpace(title)}
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO conversations (conversation_id, title)
VALUES ($1, NULLIF($2,''))
RETURNING created_at, updated_at`, c.ID, c.Title).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	var c models.Conversation
	err := r.db.Pool.QueryRow(ctx, `
SELECT conversation_id::text, COALESCE(title,''), created_at, updated_at
FROM conversations WHERE conversation_id=$1`, id).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Conversation{}, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT conversation_id::text, COALESCE(title,''), created_at, updated_at
FROM conversations
ORDER BY updated_at DESC, conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

func (r *ConversationRepo) Append(ctx context.Context, conversationID string, msg models.Message) (models.Message, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return models.Message{}, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	msg.ConversationID = conversationID
	msg.Content = util.SanitizeText(msg.Content)
	msg.Normalize()

	steps, citations, keywords, meta, err := encodeMessageJSON(msg)
	if err != nil {
		return models.Message{}, err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return models.Message{}, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	err = tx.QueryRow(ctx, `SELECT conversation_id::text FROM conversations WHERE conversation_id=$1 FOR UPDATE`, conversationID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Message{}, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("lock conversation: %w", err)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO messages (message_id, conversation_id, role, content, provider, post_process_steps, citations, keyword_entries, metadata, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, $7, $8, $9, $10)`,
		msg.ID, conversationID, string(msg.Role), msg.Content, string(msg.Provider), steps, citations, keywords, meta, msg.CreatedAt)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE conversations SET updated_at=GREATEST(updated_at, $2) WHERE conversation_id=$1`, conversationID, msg.CreatedAt); err != nil {
		return models.Message{}, fmt.Errorf("touch conversation: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Message{}, fmt.Errorf("commit append: %w", err)
	}
	return msg, nil
}

func (r *ConversationRepo) History(ctx context.Context, conversationID string) ([]models.Message, error) {
	if _, err := r.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT message_id::text, conversation_id::text, role, content, COALESCE(provider,''),
       post_process_steps, citations, keyword_entries, metadata, created_at
FROM messages
WHERE conversation_id=$1
ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]models.Message, 0)
	for rows.Next() {
		var (
			m                                models.Message
			role, provider                   string
			steps, citations, keywords, meta []byte
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &provider, &steps, &citations, &keywords, &meta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = models.Role(role)
		m.Provider = models.ProviderID(provider)
		if err := decodeMessageJSON(&m, steps, citations, keywords, meta); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func (r *ConversationRepo) SetTitleIfAbsent(ctx context.Context, conversationID, text string) (bool, error) {
	title := InferTitle(text)
	if title == "" {
		return false, nil
	}
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE conversations SET title=$2, updated_at=NOW()
WHERE conversation_id=$1 AND (title IS NULL OR title='')`, conversationID, title)
	if err != nil {
		return false, fmt.Errorf("set conversation title: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func encodeMessageJSON(m models.Message) (steps, citations, keywords, meta []byte, err error) {
	if steps, err = json.Marshal(m.PostProcessSteps); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode post process steps: %w", err)
	}
	if citations, err = json.Marshal(m.Citations); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode citations: %w", err)
	}
	if keywords, err = json.Marshal(m.KeywordEntries); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode keyword entries: %w", err)
	}
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	if meta, err = json.Marshal(metadata); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode metadata: %w", err)
	}
	return steps, citations, keywords, meta, nil
}

func decodeMessageJSON(m *models.Message, steps, citations, keywords, meta []byte) error {
	if err := json.Unmarshal(steps, &m.PostProcessSteps); err != nil {
		return fmt.Errorf("decode post process steps: %w", err)
	}
	if err := json.Unmarshal(citations, &m.Citations); err != nil {
		return fmt.Errorf("decode citations: %w", err)
	}
	if err := json.Unmarshal(keywords, &m.KeywordEntries); err != nil {
		return fmt.Errorf("decode keyword entries: %w", err)
	}
	if len(meta) > 0 && string(meta) != "{}" {
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
	}
	m.Normalize()
	return nil
}

var _ Store = (*ConversationRepo)(nil)
