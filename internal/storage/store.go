package storage

import (
	"context"
	"strings"
	"unicode/utf8"

	"craftchat/internal/models"
	"craftchat/internal/util"
)

var ErrNotFound = util.ErrNotFound

const maxTitleRunes = 60

// Store is the append-only conversation record the chat service depends on.
// Appends to one conversation are serialized; different conversations never
// contend.
type Store interface {
	CreateConversation(ctx context.Context, title string) (models.Conversation, error)
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	// Append assigns ID and CreatedAt when unset and returns the stored message.
	Append(ctx context.Context, conversationID string, msg models.Message) (models.Message, error)
	History(ctx context.Context, conversationID string) ([]models.Message, error)
	// SetTitleIfAbsent derives a title from text and stores it only when the
	// conversation has none. It reports whether the title was set.
	SetTitleIfAbsent(ctx context.Context, conversationID, text string) (bool, error)
}

// InferTitle takes the first line of text, cut to 60 runes with an ellipsis.
func InferTitle(text string) string {
	line := strings.Join(strings.Fields(util.FirstLine(util.SanitizeText(text))), " ")
	if utf8.RuneCountInString(line) <= maxTitleRunes {
		return line
	}
	r := []rune(line)
	return strings.TrimSpace(string(r[:maxTitleRunes-1])) + "…"
}
