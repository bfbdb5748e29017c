package chat

import (
	"context"
	"fmt"

	"craftchat/internal/craft"
	"craftchat/internal/models"
	"craftchat/internal/router"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Turn is the state carried between the steps of one user turn. It is plain
// data so it can cross a workflow boundary.
type Turn struct {
	ID             string                 `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	Query          string                 `json:"query"`
	Decision       models.RoutingDecision `json:"decision"`
	// History holds the messages before this turn, oldest first.
	History     []models.Message `json:"history"`
	UserMessage models.Message   `json:"user_message"`
}

// Begin validates the input, persists the user message and classifies it.
// Nothing is written when validation fails.
func (s *Service) Begin(ctx context.Context, conversationID, text string) (Turn, error) {
	if err := router.Validate(text); err != nil {
		return Turn{}, err
	}
	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return Turn{}, err
	}
	history, err := s.store.History(ctx, conversationID)
	if err != nil {
		return Turn{}, fmt.Errorf("load history: %w", err)
	}
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	decision := s.classifier.Classify(text)
	user, err := s.store.Append(ctx, conversationID, models.Message{
		Role:     models.RoleUser,
		Content:  text,
		Metadata: map[string]any{models.MetaDecision: decision},
	})
	if err != nil {
		return Turn{}, fmt.Errorf("persist user message: %w", err)
	}
	if _, err := s.store.SetTitleIfAbsent(ctx, conversationID, text); err != nil {
		s.logger.Warn("set conversation title", zap.String("conversation_id", conversationID), zap.Error(err))
	}
	return Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Query:          user.Content,
		Decision:       decision,
		History:        history,
		UserMessage:    user,
	}, nil
}

// Topic is the phrase keyword research and the focus term are built from.
func (s *Service) Topic(turn Turn) string {
	return s.annotator.ExtractTopic(turn.Query)
}

// PostProcess runs the pipeline when the decision asks for it. On a pipeline
// failure it returns the text unchanged with no steps, plus the error.
func (s *Service) PostProcess(turn Turn, text, focus string) (craft.Result, error) {
	if !turn.Decision.RequiresPostProcess {
		return craft.Result{Text: text, Steps: []models.PostProcessStep{}}, nil
	}
	res, err := s.pipeline.Process(text, craft.Options{
		TargetRegion: turn.Decision.TargetRegion,
		FocusTerm:    focus,
		Author:       s.author,
	})
	if err != nil {
		return craft.Result{Text: text, Steps: []models.PostProcessStep{}}, err
	}
	return res, nil
}

// Annotate returns keyword entries when the decision asks for them.
func (s *Service) Annotate(turn Turn) (entries []models.KeywordEntry, err error) {
	entries = []models.KeywordEntry{}
	if !turn.Decision.RequiresKeywordAnnotation {
		return entries, nil
	}
	defer func() {
		if r := recover(); r != nil {
			entries = []models.KeywordEntry{}
			err = fmt.Errorf("keyword annotation: %v", r)
		}
	}()
	return s.annotator.Annotate(s.Topic(turn), turn.Decision.TargetRegion), nil
}

// AssistantMessage assembles the reply. Provider is always the adapter that
// produced the text.
func (s *Service) AssistantMessage(turn Turn, gen Generation, processed craft.Result, ppErr error, entries []models.KeywordEntry) models.Message {
	meta := map[string]any{
		models.MetaUsedFallback: gen.UsedFallback,
		models.MetaModel:        gen.Response.Model,
		models.MetaDecision:     turn.Decision,
	}
	if gen.UsedFallback {
		meta[models.MetaOriginalProvider] = string(gen.OriginalProvider)
	}
	if ppErr != nil {
		meta[models.MetaPostProcessError] = ppErr.Error()
	}
	msg := models.Message{
		ConversationID:   turn.ConversationID,
		Role:             models.RoleAssistant,
		Content:          processed.Text,
		Provider:         gen.Response.Provider,
		PostProcessSteps: processed.Steps,
		Citations:        gen.Response.Citations,
		KeywordEntries:   entries,
		Metadata:         meta,
	}
	msg.Normalize()
	return msg
}

func (s *Service) PersistAssistant(ctx context.Context, turn Turn, msg models.Message) (models.Message, error) {
	stored, err := s.store.Append(ctx, turn.ConversationID, msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("persist assistant message: %w", err)
	}
	return stored, nil
}

// ConsumeCredit takes the turn's single credit. Calling it again for the same
// turn is a no-op.
func (s *Service) ConsumeCredit(ctx context.Context, turn Turn) (bool, error) {
	return s.ledger.Consume(ctx, turn.ConversationID, turn.ID)
}
