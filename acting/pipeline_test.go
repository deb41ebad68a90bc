package acting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/memory"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/telemetry"
	"github.com/goreact/reactagent/toolkit"
)

func newPipeline(tk toolkit.Toolkit, mem memory.Memory, chain *hooks.Chain) *Pipeline {
	if chain == nil {
		chain = hooks.NewChain()
	}
	return &Pipeline{
		Toolkit: tk, Memory: mem, Hooks: chain,
		Logger: telemetry.NewNoopLogger(), Tracer: telemetry.NewNoopTracer(), Metrics: telemetry.NewNoopMetrics(),
	}
}

func TestRunNoCallsIsANoop(t *testing.T) {
	p := newPipeline(toolkit.New(), memory.New(), nil)
	results, err := p.Run(context.Background(), "agent", nil, toolkit.ExecConfig{})
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestRunDispatchesAndAppendsToolMessage(t *testing.T) {
	tk := toolkit.New()
	require.NoError(t, toolkit.Register(tk, "add", "adds", nil, func(ctx context.Context, input map[string]any) (string, error) {
		return "5", nil
	}))
	mem := memory.New()
	p := newPipeline(tk, mem, nil)

	results, err := p.Run(context.Background(), "agent", []message.ToolUse{{ID: "t1", Name: "add"}}, toolkit.ExecConfig{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].IsError)

	snap := mem.Snapshot()
	require.Len(t, snap, 1)
	require.Equal(t, message.RoleTool, snap[0].Role)
}

func TestRunPreservesInputOrderRegardlessOfCompletion(t *testing.T) {
	tk := toolkit.New()
	order := make(chan string, 2)
	require.NoError(t, toolkit.Register(tk, "slow", "slow", nil, func(ctx context.Context, input map[string]any) (string, error) {
		<-order
		return "slow-done", nil
	}))
	require.NoError(t, toolkit.Register(tk, "fast", "fast", nil, func(ctx context.Context, input map[string]any) (string, error) {
		order <- "go"
		return "fast-done", nil
	}))

	mem := memory.New()
	p := newPipeline(tk, mem, nil)

	calls := []message.ToolUse{
		{ID: "t1", Name: "slow"},
		{ID: "t2", Name: "fast"},
	}
	results, err := p.Run(context.Background(), "agent", calls, toolkit.ExecConfig{Concurrency: 2})
	require.NoError(t, err)
	require.Equal(t, "t1", results[0].ID)
	require.Equal(t, "t2", results[1].ID)

	snap := mem.Snapshot()
	require.Len(t, snap, 2)
	firstResult := snap[0].Content[0].(message.ToolResult)
	require.Equal(t, "t1", firstResult.ID)
}

func TestRunPostActingHookCanRewriteResult(t *testing.T) {
	tk := toolkit.New()
	require.NoError(t, toolkit.Register(tk, "add", "adds", nil, func(ctx context.Context, input map[string]any) (string, error) {
		return "5", nil
	}))
	mem := memory.New()

	rewrite := hooks.HookFunc{Pri: 0, Fn: func(ctx context.Context, event hooks.Event) (hooks.Event, error) {
		post, ok := event.(*hooks.PostActingEvent)
		if !ok {
			return nil, nil
		}
		post.Result.Output = []message.ContentBlock{message.Text{Text: "rewritten"}}
		return post, nil
	}}

	p := newPipeline(tk, mem, hooks.NewChain(rewrite))
	results, err := p.Run(context.Background(), "agent", []message.ToolUse{{ID: "t1", Name: "add"}}, toolkit.ExecConfig{})
	require.NoError(t, err)
	require.Equal(t, "rewritten", results[0].Output[0].(message.Text).Text)
}

func TestRunPropagatesToolDispatchError(t *testing.T) {
	mem := memory.New()
	p := newPipeline(&failingToolkit{err: errors.New("scheduling failed")}, mem, nil)
	_, err := p.Run(context.Background(), "agent", []message.ToolUse{{ID: "t1", Name: "add"}}, toolkit.ExecConfig{})
	require.Error(t, err)
}

// failingToolkit is a minimal toolkit.Toolkit whose CallTools always fails,
// simulating a ToolDispatchError that never produces a result list.
type failingToolkit struct {
	err error
}

func (f *failingToolkit) GetToolSchemas() []*model.ToolDefinition { return nil }
func (f *failingToolkit) GetTool(name toolkit.Ident) toolkit.Tool { return nil }
func (f *failingToolkit) RegisterTool(t toolkit.Tool) error       { return nil }
func (f *failingToolkit) UnregisterTool(name toolkit.Ident)       {}
func (f *failingToolkit) SetChunkCallback(cb toolkit.ChunkCallback) {}
func (f *failingToolkit) CallTools(ctx context.Context, uses []message.ToolUse, cfg toolkit.ExecConfig) ([]message.ToolResult, error) {
	return nil, f.err
}
