package workflows

import (
	"errors"
	"time"

	"craftchat/internal/activities"
	"craftchat/internal/chat"
	"craftchat/internal/models"
	"craftchat/internal/providers"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetTurnProgress = "GetTurnProgress"

// ChatTurnWorkflow runs one user turn as a sequence of activities. Provider
// calls are attempted exactly once each; the only retry is the single
// fallback to providers.FallbackProvider.
func ChatTurnWorkflow(ctx workflow.Context, input ChatTurnInput) (ChatTurnOutput, error) {
	progress := ChatTurnProgress{Status: "running", Steps: []string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetTurnProgress, func() (ChatTurnProgress, error) {
		return progress, nil
	}); err != nil {
		return ChatTurnOutput{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	genCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: durationOrDefault(input.ProviderTimeoutSeconds, 90) + 10*time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	// Begin appends the user message and must run once
	beginCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ao.StartToCloseTimeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var begin activities.BeginTurnOutput
	if err := workflow.ExecuteActivity(beginCtx, "BeginTurnActivity", activities.BeginTurnInput{
		ConversationID: input.ConversationID,
		Text:           input.Text,
	}).Get(beginCtx, &begin); err != nil {
		return ChatTurnOutput{}, err
	}
	turn := begin.Turn
	progress.TurnID = turn.ID
	progress.Provider = string(turn.Decision.Provider)
	out := ChatTurnOutput{Result: chat.TurnResult{UserMessage: turn.UserMessage, Decision: turn.Decision}}

	gen, err := generateWithFallback(genCtx, turn, &progress)
	if err != nil {
		progress.Status = TurnStatusFailed
		out.Status = TurnStatusFailed
		out.FailReason = err.Error()
		return out, nil
	}

	var ann activities.AnnotateOutput
	if err := workflow.ExecuteActivity(ctx, "AnnotateActivity", activities.AnnotateInput{Turn: turn}).Get(ctx, &ann); err != nil {
		ann = activities.AnnotateOutput{Entries: []models.KeywordEntry{}, Error: err.Error()}
	}
	progress.Steps = append(progress.Steps, "annotate")

	var pp activities.PostProcessOutput
	if err := workflow.ExecuteActivity(ctx, "PostProcessActivity", activities.PostProcessInput{
		Turn:  turn,
		Text:  gen.Response.Text,
		Focus: ann.Topic,
	}).Get(ctx, &pp); err != nil {
		pp = activities.PostProcessOutput{Error: err.Error()}
		pp.Result.Text = gen.Response.Text
		pp.Result.Steps = []models.PostProcessStep{}
	}
	progress.Steps = append(progress.Steps, "post_process")

	var persisted activities.PersistAssistantOutput
	if err := workflow.ExecuteActivity(ctx, "PersistAssistantActivity", activities.PersistAssistantInput{
		Turn:             turn,
		Generation:       gen,
		Processed:        pp.Result,
		PostProcessError: pp.Error,
		Entries:          ann.Entries,
	}).Get(ctx, &persisted); err != nil {
		return out, err
	}
	progress.Steps = append(progress.Steps, "persist")
	out.Result.AssistantMessage = persisted.Message

	// ledger is idempotent per turn ID
	if err := workflow.ExecuteActivity(ctx, "ConsumeCreditActivity", activities.ConsumeCreditInput{Turn: turn}).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("consume credit failed", "turn_id", turn.ID, "error", err)
	}
	progress.Steps = append(progress.Steps, "credit")

	progress.Status = TurnStatusCompleted
	out.Status = TurnStatusCompleted
	return out, nil
}

func generateWithFallback(ctx workflow.Context, turn chat.Turn, progress *ChatTurnProgress) (chat.Generation, error) {
	original := turn.Decision.Provider
	resp, err := callProvider(ctx, turn, original, false)
	progress.Steps = append(progress.Steps, "generate:"+string(original))
	if err == nil {
		return chat.Generation{Response: resp, OriginalProvider: original}, nil
	}
	if !providers.ShouldFallback(original, err) {
		return chat.Generation{}, err
	}
	progress.UsedFallback = true
	resp, fbErr := callProvider(ctx, turn, providers.FallbackProvider, true)
	progress.Steps = append(progress.Steps, "generate:"+string(providers.FallbackProvider))
	if fbErr != nil {
		return chat.Generation{}, fbErr
	}
	return chat.Generation{Response: resp, UsedFallback: true, OriginalProvider: original}, nil
}

// callProvider runs GenerateActivity once and logs the attempt. The returned
// error is the decoded ProviderError when one is available.
func callProvider(ctx workflow.Context, turn chat.Turn, id models.ProviderID, fallback bool) (providers.Response, error) {
	started := workflow.Now(ctx)
	var out activities.GenerateOutput
	err := workflow.ExecuteActivity(ctx, "GenerateActivity", activities.GenerateInput{Turn: turn, Provider: id}).Get(ctx, &out)
	logIn := activities.LogProviderCallInput{
		ConversationID: turn.ConversationID,
		TurnID:         turn.ID,
		Query:          turn.Query,
		Provider:       id,
		Model:          out.Response.Model,
		UsedFallback:   fallback,
		LatencyMS:      workflow.Now(ctx).Sub(started).Milliseconds(),
	}
	if err != nil {
		if pe, ok := activities.ProviderFailure(err); ok {
			logIn.Failure = pe
			err = pe
		} else {
			logIn.FailureMessage = err.Error()
			err = errors.New(err.Error())
		}
	}
	_ = workflow.ExecuteActivity(ctx, "LogProviderCallActivity", logIn).Get(ctx, nil)
	if err != nil {
		return providers.Response{}, err
	}
	return out.Response, nil
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
