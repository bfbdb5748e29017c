package activities

import (
	"context"
	"errors"
	"time"

	"craftchat/internal/chat"
	"craftchat/internal/providers"
	"craftchat/internal/router"
	"craftchat/internal/storage"

	"go.temporal.io/sdk/temporal"
)

// Activities exposes the steps of a chat turn to the worker. Each activity
// wraps one chat.Service step.
type Activities struct {
	chat *chat.Service
}

func New(svc *chat.Service) *Activities {
	return &Activities{chat: svc}
}

func (a *Activities) BeginTurnActivity(ctx context.Context, in BeginTurnInput) (BeginTurnOutput, error) {
	turn, err := a.chat.Begin(ctx, in.ConversationID, in.Text)
	if err != nil {
		return BeginTurnOutput{}, beginError(err)
	}
	return BeginTurnOutput{Turn: turn}, nil
}

// beginError turns input problems into typed non-retryable errors.
func beginError(err error) error {
	switch {
	case errors.Is(err, router.ErrEmptyQuery):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeEmptyQuery, err)
	case errors.Is(err, router.ErrQueryTooLong):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeQueryTooLong, err)
	case errors.Is(err, storage.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	}
	return err
}

// GenerateActivity makes one adapter call. Provider failures are returned as
// non-retryable application errors carrying the ProviderError, so the
// workflow alone decides on fallback.
func (a *Activities) GenerateActivity(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	resp, err := a.chat.Attempt(ctx, in.Turn, in.Provider)
	if err != nil {
		pe, ok := providers.AsProviderError(err)
		if !ok {
			pe = &providers.ProviderError{Provider: in.Provider, Code: providers.CodeUnknown, Message: err.Error()}
		}
		return GenerateOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeProvider, err, *pe)
	}
	return GenerateOutput{Response: resp}, nil
}

func (a *Activities) AnnotateActivity(ctx context.Context, in AnnotateInput) (AnnotateOutput, error) {
	_ = ctx
	out := AnnotateOutput{}
	if in.Turn.Decision.RequiresKeywordAnnotation {
		out.Topic = a.chat.Topic(in.Turn)
	}
	entries, err := a.chat.Annotate(in.Turn)
	out.Entries = entries
	if err != nil {
		out.Error = err.Error()
	}
	return out, nil
}

func (a *Activities) PostProcessActivity(ctx context.Context, in PostProcessInput) (PostProcessOutput, error) {
	_ = ctx
	res, err := a.chat.PostProcess(in.Turn, in.Text, in.Focus)
	out := PostProcessOutput{Result: res}
	if err != nil {
		out.Error = err.Error()
	}
	return out, nil
}

func (a *Activities) PersistAssistantActivity(ctx context.Context, in PersistAssistantInput) (PersistAssistantOutput, error) {
	var ppErr error
	if in.PostProcessError != "" {
		ppErr = errors.New(in.PostProcessError)
	}
	msg := a.chat.AssistantMessage(in.Turn, in.Generation, in.Processed, ppErr, in.Entries)
	stored, err := a.chat.PersistAssistant(ctx, in.Turn, msg)
	if err != nil {
		return PersistAssistantOutput{}, err
	}
	return PersistAssistantOutput{Message: stored}, nil
}

func (a *Activities) ConsumeCreditActivity(ctx context.Context, in ConsumeCreditInput) (ConsumeCreditOutput, error) {
	ok, err := a.chat.ConsumeCredit(ctx, in.Turn)
	if err != nil {
		return ConsumeCreditOutput{}, err
	}
	return ConsumeCreditOutput{Consumed: ok}, nil
}

func (a *Activities) LogProviderCallActivity(ctx context.Context, in LogProviderCallInput) error {
	var callErr error
	switch {
	case in.Failure != nil:
		callErr = in.Failure
	case in.FailureMessage != "":
		callErr = errors.New(in.FailureMessage)
	}
	turn := chat.Turn{ID: in.TurnID, ConversationID: in.ConversationID, Query: in.Query}
	rec := chat.CallRecord(turn, in.Provider, in.UsedFallback, providers.Response{Model: in.Model}, callErr, time.Duration(in.LatencyMS)*time.Millisecond)
	return a.chat.RecordCall(ctx, rec)
}

// ProviderFailure recovers the ProviderError from an activity failure. The
// second result is false when err did not come from GenerateActivity.
func ProviderFailure(err error) (*providers.ProviderError, bool) {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != ErrTypeProvider || !appErr.HasDetails() {
		return nil, false
	}
	var pe providers.ProviderError
	if derr := appErr.Details(&pe); derr != nil {
		return nil, false
	}
	return &pe, true
}
