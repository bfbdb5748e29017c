package workflows

import (
	"context"
	"errors"
	"sync"
	"testing"

	"craftchat/internal/activities"
	"craftchat/internal/chat"
	"craftchat/internal/craft"
	"craftchat/internal/models"
	"craftchat/internal/providers"
	"craftchat/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

type recorder struct {
	mu        sync.Mutex
	persisted []activities.PersistAssistantInput
	logged    []activities.LogProviderCallInput
	credits   int
}

func (r *recorder) persistCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.persisted)
}

func testTurn(provider models.ProviderID, postProcess bool) chat.Turn {
	return chat.Turn{
		ID:             "turn-1",
		ConversationID: "conv-1",
		Query:          "research current SEO trends in the USA",
		Decision: models.RoutingDecision{
			Complexity:          models.ComplexityResearch,
			Provider:            provider,
			RequiresPostProcess: postProcess,
			TargetRegion:        "usa",
		},
		UserMessage: models.Message{ID: "m1", ConversationID: "conv-1", Role: models.RoleUser, Content: "research current SEO trends in the USA"},
	}
}

func newTurnEnv(t *testing.T, turn chat.Turn) (*testsuite.TestWorkflowEnvironment, *recorder) {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ChatTurnWorkflow)
	rec := &recorder{}

	registerActivityName(env, "BeginTurnActivity", func(context.Context, activities.BeginTurnInput) (activities.BeginTurnOutput, error) {
		return activities.BeginTurnOutput{Turn: turn}, nil
	})
	registerActivityName(env, "GenerateActivity", func(context.Context, activities.GenerateInput) (activities.GenerateOutput, error) {
		return activities.GenerateOutput{}, nil
	})
	registerActivityName(env, "AnnotateActivity", func(context.Context, activities.AnnotateInput) (activities.AnnotateOutput, error) {
		return activities.AnnotateOutput{Topic: "seo trends", Entries: []models.KeywordEntry{{Term: "seo trends", EstimatedVolume: 1200}}}, nil
	})
	registerActivityName(env, "PostProcessActivity", func(_ context.Context, in activities.PostProcessInput) (activities.PostProcessOutput, error) {
		return activities.PostProcessOutput{Result: chatResult(in.Text + " (edited)")}, nil
	})
	registerActivityName(env, "PersistAssistantActivity", func(_ context.Context, in activities.PersistAssistantInput) (activities.PersistAssistantOutput, error) {
		rec.mu.Lock()
		rec.persisted = append(rec.persisted, in)
		rec.mu.Unlock()
		return activities.PersistAssistantOutput{Message: models.Message{
			ID:       "m2",
			Role:     models.RoleAssistant,
			Content:  in.Processed.Text,
			Provider: in.Generation.Response.Provider,
			Metadata: map[string]any{models.MetaUsedFallback: in.Generation.UsedFallback},
		}}, nil
	})
	registerActivityName(env, "ConsumeCreditActivity", func(context.Context, activities.ConsumeCreditInput) (activities.ConsumeCreditOutput, error) {
		rec.mu.Lock()
		rec.credits++
		rec.mu.Unlock()
		return activities.ConsumeCreditOutput{Consumed: true}, nil
	})
	registerActivityName(env, "LogProviderCallActivity", func(_ context.Context, in activities.LogProviderCallInput) error {
		rec.mu.Lock()
		rec.logged = append(rec.logged, in)
		rec.mu.Unlock()
		return nil
	})
	return env, rec
}

func chatResult(text string) craft.Result {
	return craft.Result{Text: text, Steps: []models.PostProcessStep{{Name: models.StepCut, Description: "No filler words found"}}}
}

func forProvider(id models.ProviderID) any {
	return mock.MatchedBy(func(in activities.GenerateInput) bool { return in.Provider == id })
}

func providerFailure(id models.ProviderID, code providers.ErrorCode, status int) error {
	pe := providers.ProviderError{Provider: id, Code: code, HTTPStatus: status, Message: "upstream said no"}
	return temporal.NewNonRetryableApplicationError(pe.Error(), activities.ErrTypeProvider, nil, pe)
}

func TestChatTurnWorkflowSuccess(t *testing.T) {
	env, rec := newTurnEnv(t, testTurn(models.ProviderResearch, true))
	env.OnActivity("GenerateActivity", mock.Anything, forProvider(models.ProviderResearch)).
		Return(activities.GenerateOutput{Response: providers.Response{Text: "Answer", Provider: models.ProviderResearch, Model: "sonar-pro"}}, nil).Once()

	env.ExecuteWorkflow(ChatTurnWorkflow, ChatTurnInput{ConversationID: "conv-1", Text: "research current SEO trends in the USA"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out ChatTurnOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, TurnStatusCompleted, out.Status)
	assert.Equal(t, "Answer (edited)", out.Result.AssistantMessage.Content)
	assert.Equal(t, models.ProviderResearch, out.Result.AssistantMessage.Provider)
	assert.Equal(t, "m1", out.Result.UserMessage.ID)

	require.Len(t, rec.persisted, 1)
	assert.False(t, rec.persisted[0].Generation.UsedFallback)
	assert.Len(t, rec.persisted[0].Entries, 1)
	assert.Equal(t, 1, rec.credits)
	require.Len(t, rec.logged, 1)
	assert.Nil(t, rec.logged[0].Failure)
	assert.Equal(t, "sonar-pro", rec.logged[0].Model)
	env.AssertExpectations(t)
}

func TestChatTurnWorkflowFallsBackOnServerError(t *testing.T) {
	env, rec := newTurnEnv(t, testTurn(models.ProviderResearch, true))
	env.OnActivity("GenerateActivity", mock.Anything, forProvider(models.ProviderResearch)).
		Return(activities.GenerateOutput{}, providerFailure(models.ProviderResearch, providers.CodeServer, 500)).Once()
	env.OnActivity("GenerateActivity", mock.Anything, forProvider(models.ProviderComplex)).
		Return(activities.GenerateOutput{Response: providers.Response{Text: "Long answer", Provider: models.ProviderComplex}}, nil).Once()

	env.ExecuteWorkflow(ChatTurnWorkflow, ChatTurnInput{ConversationID: "conv-1", Text: "research current SEO trends in the USA"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out ChatTurnOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, TurnStatusCompleted, out.Status)
	assert.Equal(t, models.ProviderComplex, out.Result.AssistantMessage.Provider)
	assert.True(t, out.Result.AssistantMessage.UsedFallback())

	require.Len(t, rec.persisted, 1)
	gen := rec.persisted[0].Generation
	assert.True(t, gen.UsedFallback)
	assert.Equal(t, models.ProviderResearch, gen.OriginalProvider)

	require.Len(t, rec.logged, 2)
	require.NotNil(t, rec.logged[0].Failure)
	assert.Equal(t, 500, rec.logged[0].Failure.HTTPStatus)
	assert.False(t, rec.logged[0].UsedFallback)
	assert.True(t, rec.logged[1].UsedFallback)
	assert.Equal(t, 1, rec.credits)
	env.AssertExpectations(t)
}

func TestChatTurnWorkflowIneligibleErrorFailsTurn(t *testing.T) {
	env, rec := newTurnEnv(t, testTurn(models.ProviderResearch, true))
	env.OnActivity("GenerateActivity", mock.Anything, forProvider(models.ProviderResearch)).
		Return(activities.GenerateOutput{}, providerFailure(models.ProviderResearch, providers.CodeNotFound, 404)).Once()

	env.ExecuteWorkflow(ChatTurnWorkflow, ChatTurnInput{ConversationID: "conv-1", Text: "research current SEO trends in the USA"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out ChatTurnOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, TurnStatusFailed, out.Status)
	assert.Contains(t, out.FailReason, "404")
	assert.Equal(t, "m1", out.Result.UserMessage.ID)
	assert.Equal(t, 0, rec.persistCount())
	assert.Equal(t, 0, rec.credits)
	assert.Len(t, rec.logged, 1)
	env.AssertExpectations(t)
}

func TestChatTurnWorkflowComplexFailureDoesNotFallBack(t *testing.T) {
	env, rec := newTurnEnv(t, testTurn(models.ProviderComplex, true))
	env.OnActivity("GenerateActivity", mock.Anything, forProvider(models.ProviderComplex)).
		Return(activities.GenerateOutput{}, providerFailure(models.ProviderComplex, providers.CodeUnavailable, 503)).Once()

	env.ExecuteWorkflow(ChatTurnWorkflow, ChatTurnInput{ConversationID: "conv-1", Text: "write a blog post"})
	require.True(t, env.IsWorkflowCompleted())

	var out ChatTurnOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, TurnStatusFailed, out.Status)
	assert.Equal(t, 0, rec.persistCount())
	env.AssertExpectations(t)
}

func TestChatTurnWorkflowRejectsEmptyInput(t *testing.T) {
	env, rec := newTurnEnv(t, chat.Turn{})
	env.OnActivity("BeginTurnActivity", mock.Anything, mock.Anything).
		Return(activities.BeginTurnOutput{}, temporal.NewNonRetryableApplicationError(router.ErrEmptyQuery.Error(), activities.ErrTypeEmptyQuery, nil))

	env.ExecuteWorkflow(ChatTurnWorkflow, ChatTurnInput{ConversationID: "conv-1", Text: " "})
	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.True(t, errors.Is(workflowError(err), router.ErrEmptyQuery))
	assert.Equal(t, 0, rec.persistCount())
}

func TestChatTurnWorkflowBeginIsNotRetried(t *testing.T) {
	env, rec := newTurnEnv(t, chat.Turn{})
	attempts := 0
	env.OnActivity("BeginTurnActivity", mock.Anything, mock.Anything).Return(
		func(context.Context, activities.BeginTurnInput) (activities.BeginTurnOutput, error) {
			attempts++
			return activities.BeginTurnOutput{}, errors.New("append message: connection reset")
		})

	env.ExecuteWorkflow(ChatTurnWorkflow, ChatTurnInput{ConversationID: "conv-1", Text: "hello"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 0, rec.persistCount())
}

func TestChatTurnWorkflowCompletesWhenCreditFails(t *testing.T) {
	env, rec := newTurnEnv(t, testTurn(models.ProviderResearch, true))
	env.OnActivity("GenerateActivity", mock.Anything, forProvider(models.ProviderResearch)).
		Return(activities.GenerateOutput{Response: providers.Response{Text: "Answer", Provider: models.ProviderResearch}}, nil).Once()
	env.OnActivity("ConsumeCreditActivity", mock.Anything, mock.Anything).
		Return(activities.ConsumeCreditOutput{}, temporal.NewNonRetryableApplicationError("ledger unavailable", "CreditError", nil))

	env.ExecuteWorkflow(ChatTurnWorkflow, ChatTurnInput{ConversationID: "conv-1", Text: "research current SEO trends in the USA"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out ChatTurnOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, TurnStatusCompleted, out.Status)
	assert.Equal(t, "Answer (edited)", out.Result.AssistantMessage.Content)
	assert.Equal(t, 1, rec.persistCount())
	assert.Equal(t, 0, rec.credits)
}
