package workflows

import (
	"context"
	"errors"
	"fmt"

	"craftchat/internal/activities"
	"craftchat/internal/chat"
	"craftchat/internal/router"
	"craftchat/internal/storage"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

// Runner executes turns as ChatTurnWorkflow runs and waits for the result.
// It has the same contract as chat.Service.HandleUserMessage.
type Runner struct {
	client                 client.Client
	taskQueue              string
	providerTimeoutSeconds int
}

func NewRunner(c client.Client, taskQueue string, providerTimeoutSeconds int) *Runner {
	return &Runner{client: c, taskQueue: taskQueue, providerTimeoutSeconds: providerTimeoutSeconds}
}

func (r *Runner) HandleUserMessage(ctx context.Context, conversationID, text string) (chat.TurnResult, error) {
	if err := router.Validate(text); err != nil {
		return chat.TurnResult{}, err
	}
	opts := client.StartWorkflowOptions{
		ID:                    "turn-" + conversationID + "-" + uuid.NewString(),
		TaskQueue:             r.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	run, err := r.client.ExecuteWorkflow(ctx, opts, ChatTurnWorkflow, ChatTurnInput{
		ConversationID:         conversationID,
		Text:                   text,
		ProviderTimeoutSeconds: r.providerTimeoutSeconds,
	})
	if err != nil {
		return chat.TurnResult{}, fmt.Errorf("start turn workflow: %w", err)
	}
	var out ChatTurnOutput
	if err := run.Get(ctx, &out); err != nil {
		return chat.TurnResult{}, workflowError(err)
	}
	if out.Status == TurnStatusFailed {
		return out.Result, fmt.Errorf("%w: %s", chat.ErrTurnFailed, out.FailReason)
	}
	return out.Result, nil
}

// workflowError maps the typed application errors raised by BeginTurnActivity
// back to the sentinel errors callers test for.
func workflowError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case activities.ErrTypeEmptyQuery:
			return router.ErrEmptyQuery
		case activities.ErrTypeQueryTooLong:
			return router.ErrQueryTooLong
		case activities.ErrTypeNotFound:
			return storage.ErrNotFound
		}
	}
	return fmt.Errorf("turn workflow: %w", err)
}
