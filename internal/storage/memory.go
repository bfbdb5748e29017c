package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"craftchat/internal/models"
	"craftchat/internal/util"

	"github.com/google/uuid"
)

type memConversation struct {
	mu       sync.Mutex
	conv     models.Conversation
	messages []models.Message
}

// MemoryStore keeps conversations in process. The map lock is only held to
// find a conversation; message appends take that conversation's own lock.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*memConversation
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: map[string]*memConversation{}, now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) CreateConversation(_ context.Context, title string) (models.Conversation, error) {
	now := s.now()
	c := models.Conversation{ID: uuid.NewString(), Title: strings.TrimSpace(title), CreatedAt: now, UpdatedAt: now}
	s.mu.Lock()
	s.convs[c.ID] = &memConversation{conv: c}
	s.mu.Unlock()
	return c, nil
}

func (s *MemoryStore) lookup(id string) (*memConversation, error) {
	s.mu.RLock()
	c, ok := s.convs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (models.Conversation, error) {
	c, err := s.lookup(id)
	if err != nil {
		return models.Conversation{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv, nil
}

func (s *MemoryStore) ListConversations(_ context.Context) ([]models.Conversation, error) {
	s.mu.RLock()
	all := make([]*memConversation, 0, len(s.convs))
	for _, c := range s.convs {
		all = append(all, c)
	}
	s.mu.RUnlock()

	out := make([]models.Conversation, 0, len(all))
	for _, c := range all {
		c.mu.Lock()
		out = append(out, c.conv)
		c.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, conversationID string, msg models.Message) (models.Message, error) {
	c, err := s.lookup(conversationID)
	if err != nil {
		return models.Message{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	msg.ConversationID = conversationID
	msg.Content = util.SanitizeText(msg.Content)
	msg.Normalize()
	c.messages = append(c.messages, msg)
	if msg.CreatedAt.After(c.conv.UpdatedAt) {
		c.conv.UpdatedAt = msg.CreatedAt
	}
	return msg, nil
}

func (s *MemoryStore) History(_ context.Context, conversationID string) ([]models.Message, error) {
	c, err := s.lookup(conversationID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out, nil
}

func (s *MemoryStore) SetTitleIfAbsent(_ context.Context, conversationID, text string) (bool, error) {
	c, err := s.lookup(conversationID)
	if err != nil {
		return false, err
	}
	title := InferTitle(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conv.Title != "" || title == "" {
		return false, nil
	}
	c.conv.Title = title
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
