// Package chat runs one user turn end to end: validate, persist the user
// message, classify, call the provider (falling back once), post-process,
// annotate, persist the reply and consume a credit.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"craftchat/internal/craft"
	"craftchat/internal/keywords"
	"craftchat/internal/logging"
	"craftchat/internal/models"
	"craftchat/internal/providers"
	"craftchat/internal/router"
	"craftchat/internal/storage"
	"craftchat/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTurnFailed is returned when no provider produced a reply. The user
// message is already persisted when this is returned.
var ErrTurnFailed = errors.New("failed to process message")

// CreditLedger is the external credit balance. Consume must be idempotent
// per turn ID and reports whether a credit was taken.
type CreditLedger interface {
	Consume(ctx context.Context, conversationID, turnID string) (bool, error)
}

// AdapterSource resolves a provider slot to its adapter.
type AdapterSource interface {
	Get(id models.ProviderID) (providers.Adapter, error)
}

type Deps struct {
	Store      storage.Store
	Classifier *router.Classifier
	Providers  AdapterSource
	Pipeline   *craft.Pipeline
	Annotator  *keywords.Annotator
	Ledger     CreditLedger
	Calls      storage.CallRecorder
	Logger     *zap.Logger

	HistoryLimit int
	Author       string
}

type Service struct {
	store        storage.Store
	classifier   *router.Classifier
	providers    AdapterSource
	pipeline     *craft.Pipeline
	annotator    *keywords.Annotator
	ledger       CreditLedger
	calls        storage.CallRecorder
	logger       *zap.Logger
	historyLimit int
	author       string
	now          func() time.Time
}

func NewService(d Deps) (*Service, error) {
	if d.Store == nil || d.Providers == nil || d.Ledger == nil {
		return nil, errors.New("chat service needs a store, providers and a credit ledger")
	}
	s := &Service{
		store:        d.Store,
		classifier:   d.Classifier,
		providers:    d.Providers,
		pipeline:     d.Pipeline,
		annotator:    d.Annotator,
		ledger:       d.Ledger,
		calls:        d.Calls,
		logger:       logging.OrNop(d.Logger),
		historyLimit: d.HistoryLimit,
		author:       d.Author,
		now:          time.Now,
	}
	if s.classifier == nil {
		s.classifier = router.MustNewClassifier(router.DefaultRules())
	}
	if s.pipeline == nil {
		s.pipeline = craft.MustNewPipeline(craft.DefaultRules())
	}
	if s.annotator == nil {
		s.annotator = keywords.NewAnnotator(keywords.DefaultTables(), keywords.DefaultLimit)
	}
	if s.calls == nil {
		s.calls = storage.NewMemoryCallLog()
	}
	if s.historyLimit <= 0 {
		s.historyLimit = 20
	}
	return s, nil
}

func (s *Service) Classifier() *router.Classifier { return s.classifier }

func (s *Service) Store() storage.Store { return s.store }

type TurnResult struct {
	UserMessage      models.Message         `json:"user_message"`
	AssistantMessage models.Message         `json:"assistant_message"`
	Decision         models.RoutingDecision `json:"decision"`
}

// HandleUserMessage is the single entry point for a user turn. Provider
// failures that cannot fall back, and failed fallbacks, return ErrTurnFailed
// with the persisted user message in the result. Post-processing and keyword
// annotation are best-effort.
func (s *Service) HandleUserMessage(ctx context.Context, conversationID, text string) (TurnResult, error) {
	turn, err := s.Begin(ctx, conversationID, text)
	if err != nil {
		return TurnResult{}, err
	}
	res := TurnResult{UserMessage: turn.UserMessage, Decision: turn.Decision}
	log := s.logger.With(zap.String("conversation_id", conversationID), zap.String("turn_id", turn.ID))

	gen, err := s.generateWithFallback(ctx, turn)
	if err != nil {
		log.Warn("turn failed",
			zap.String("provider", string(turn.Decision.Provider)),
			zap.String("query", util.Snippet(turn.Query, 80)),
			zap.Error(err),
		)
		return res, fmt.Errorf("%w: %w", ErrTurnFailed, err)
	}

	focus := ""
	if turn.Decision.RequiresKeywordAnnotation {
		focus = s.Topic(turn)
	}
	processed, ppErr := s.PostProcess(turn, gen.Response.Text, focus)
	if ppErr != nil {
		log.Warn("post-process failed, keeping provider text", zap.Error(ppErr))
	}
	entries, kwErr := s.Annotate(turn)
	if kwErr != nil {
		log.Warn("keyword annotation failed", zap.Error(kwErr))
	}

	msg := s.AssistantMessage(turn, gen, processed, ppErr, entries)
	stored, err := s.PersistAssistant(ctx, turn, msg)
	if err != nil {
		return res, err
	}
	res.AssistantMessage = stored

	if _, err := s.ConsumeCredit(ctx, turn); err != nil {
		log.Error("consume credit", zap.Error(err))
	}
	log.Info("turn completed",
		zap.String("provider", string(stored.Provider)),
		zap.String("rule", turn.Decision.MatchedRule),
		zap.Bool("used_fallback", gen.UsedFallback),
		zap.Int("steps", len(stored.PostProcessSteps)),
		zap.Int("keywords", len(stored.KeywordEntries)),
	)
	return res, nil
}

// Generation is the provider outcome for a turn.
type Generation struct {
	Response         providers.Response `json:"response"`
	UsedFallback     bool               `json:"used_fallback"`
	OriginalProvider models.ProviderID  `json:"original_provider"`
}

func (s *Service) generateWithFallback(ctx context.Context, turn Turn) (Generation, error) {
	original := turn.Decision.Provider
	resp, err := s.CallProvider(ctx, turn, original, false)
	if err == nil {
		return Generation{Response: resp, OriginalProvider: original}, nil
	}
	if !providers.ShouldFallback(original, err) {
		return Generation{}, err
	}
	s.logger.Info("falling back",
		zap.String("conversation_id", turn.ConversationID),
		zap.String("provider", string(original)),
		zap.String("fallback", string(providers.FallbackProvider)),
		zap.Error(err),
	)
	resp, fbErr := s.CallProvider(ctx, turn, providers.FallbackProvider, true)
	if fbErr != nil {
		return Generation{}, fmt.Errorf("fallback after %v: %w", err, fbErr)
	}
	return Generation{Response: resp, UsedFallback: true, OriginalProvider: original}, nil
}

// CallProvider makes exactly one adapter call and records it in the audit log.
func (s *Service) CallProvider(ctx context.Context, turn Turn, id models.ProviderID, fallback bool) (providers.Response, error) {
	started := s.now()
	resp, err := s.Attempt(ctx, turn, id)
	rec := CallRecord(turn, id, fallback, resp, err, s.now().Sub(started))
	if logErr := s.calls.Insert(context.WithoutCancel(ctx), rec); logErr != nil {
		s.logger.Warn("record provider call", zap.Error(logErr))
	}
	return resp, err
}

// Attempt calls one adapter without recording the call.
func (s *Service) Attempt(ctx context.Context, turn Turn, id models.ProviderID) (providers.Response, error) {
	adapter, err := s.providers.Get(id)
	if err != nil {
		return providers.Response{}, err
	}
	resp, err := adapter.Generate(ctx, providers.Request{Query: turn.Query, History: turn.History, Decision: turn.Decision})
	if err != nil {
		return providers.Response{}, err
	}
	// the message provider must name the adapter that actually answered
	resp.Provider = adapter.ID()
	return resp, nil
}

// RecordCall writes an audit row built elsewhere, e.g. by a workflow.
func (s *Service) RecordCall(ctx context.Context, rec storage.ProviderCallRecord) error {
	return s.calls.Insert(ctx, rec)
}

// CallRecord builds the audit row for one adapter attempt.
func CallRecord(turn Turn, id models.ProviderID, fallback bool, resp providers.Response, err error, latency time.Duration) storage.ProviderCallRecord {
	rec := storage.ProviderCallRecord{
		CallID:           uuid.NewString(),
		ConversationID:   turn.ConversationID,
		TurnID:           turn.ID,
		Provider:         string(id),
		Model:            resp.Model,
		Status:           storage.CallStatusOK,
		UsedFallback:     fallback,
		QueryFingerprint: util.QueryFingerprint(turn.Query),
		LatencyMS:        latency.Milliseconds(),
	}
	if err != nil {
		rec.Status = storage.CallStatusFailed
		rec.ErrorType = string(providers.ClassifyError(err))
		if pe, ok := providers.AsProviderError(err); ok {
			rec.ErrorCode = string(pe.Code)
			rec.HTTPStatus = pe.HTTPStatus
		}
	}
	return rec
}
