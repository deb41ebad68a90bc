package reasoning

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/memory"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/telemetry"
)

type scriptedStreamer struct {
	chunks []model.ChatResponse
	idx    int
	err    error
}

func (s *scriptedStreamer) Recv() (model.ChatResponse, error) {
	if s.idx >= len(s.chunks) {
		if s.err != nil {
			return model.ChatResponse{}, s.err
		}
		return model.ChatResponse{}, io.EOF
	}
	c := s.chunks[s.idx]
	s.idx++
	return c, nil
}

func (s *scriptedStreamer) Close() error { return nil }

type scriptedClient struct {
	streamer model.Streamer
	err      error
}

func (c *scriptedClient) Stream(ctx context.Context, msgs []message.Msg, tools []*model.ToolDefinition, opts model.Options) (model.Streamer, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.streamer, nil
}

func newPipeline(client model.Client, mem memory.Memory) *Pipeline {
	return &Pipeline{
		Client:  client,
		Memory:  mem,
		Hooks:   hooks.NewChain(),
		Logger:  telemetry.NewNoopLogger(),
		Tracer:  telemetry.NewNoopTracer(),
		Metrics: telemetry.NewNoopMetrics(),
	}
}

func TestRunAccumulatesTextDeltasIntoOneMessage(t *testing.T) {
	mem := memory.New()
	mem.Append(message.NewText(message.RoleUser, "user", "Hi"))

	client := &scriptedClient{streamer: &scriptedStreamer{chunks: []model.ChatResponse{
		{Content: []message.ContentBlock{message.Text{Text: "Hel"}}},
		{Content: []message.ContentBlock{message.Text{Text: "lo"}}},
	}}}

	p := newPipeline(client, mem)
	result, err := p.Run(context.Background(), "agent", "agent", "", nil, model.Options{})
	require.NoError(t, err)
	require.True(t, result.Produced)
	require.Equal(t, "Hello", result.Message.Text())
	require.Empty(t, result.ToolUses)

	snap := mem.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, message.RoleAssistant, snap[1].Role)
}

func TestRunExtractsToolUses(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{streamer: &scriptedStreamer{chunks: []model.ChatResponse{
		{Content: []message.ContentBlock{message.ToolUse{ID: "t1", Name: "add", Input: map[string]any{"a": 2}}}},
	}}}

	p := newPipeline(client, mem)
	result, err := p.Run(context.Background(), "agent", "agent", "", nil, model.Options{})
	require.NoError(t, err)
	require.Len(t, result.ToolUses, 1)
	require.Equal(t, "t1", result.ToolUses[0].ID)
}

func TestRunEmptyStreamProducesNothing(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{streamer: &scriptedStreamer{}}

	p := newPipeline(client, mem)
	result, err := p.Run(context.Background(), "agent", "agent", "", nil, model.Options{})
	require.NoError(t, err)
	require.False(t, result.Produced)
	require.Empty(t, mem.Snapshot())
}

func TestRunStreamErrorDoesNotAppendPartialMessage(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{streamer: &scriptedStreamer{
		chunks: []model.ChatResponse{{Content: []message.ContentBlock{message.Text{Text: "partial"}}}},
		err:    errors.New("boom"),
	}}

	p := newPipeline(client, mem)
	_, err := p.Run(context.Background(), "agent", "agent", "", nil, model.Options{})
	require.Error(t, err)
	require.Empty(t, mem.Snapshot())
}

func TestRunCancellationPropagatesWithPartialState(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{streamer: &scriptedStreamer{
		chunks: []model.ChatResponse{{Content: []message.ContentBlock{message.Text{Text: "partial"}}}},
		err:    context.Canceled,
	}}

	p := newPipeline(client, mem)
	result, err := p.Run(context.Background(), "agent", "agent", "", nil, model.Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, result.Produced)
	require.Equal(t, "partial", result.Message.Text())
	require.Len(t, mem.Snapshot(), 1)
}

func TestHookErrorDuringPreReasoningAborts(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{streamer: &scriptedStreamer{}}

	failing := hooks.HookFunc{Pri: 0, Fn: func(ctx context.Context, event hooks.Event) (hooks.Event, error) {
		return nil, errors.New("denied")
	}}

	p := newPipeline(client, mem)
	p.Hooks = hooks.NewChain(failing)

	_, err := p.Run(context.Background(), "agent", "agent", "", nil, model.Options{})
	require.Error(t, err)
}
