package summarize

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

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
	return &Pipeline{Client: client, Memory: mem, Logger: telemetry.NewNoopLogger(), Tracer: telemetry.NewNoopTracer()}
}

func TestRunAppendsSummaryToMemory(t *testing.T) {
	mem := memory.New()
	mem.Append(message.NewText(message.RoleUser, "user", "do something"))

	client := &scriptedClient{streamer: &scriptedStreamer{chunks: []model.ChatResponse{
		{Content: []message.ContentBlock{message.Text{Text: "Here is the situation."}}},
	}}}

	p := newPipeline(client, mem)
	final, err := p.Run(context.Background(), "bot", "", 2)
	require.NoError(t, err)
	require.Equal(t, "Here is the situation.", final.Text())

	snap := mem.Snapshot()
	require.Equal(t, final, snap[len(snap)-1])
}

func TestRunDoesNotPersistTheSyntheticHint(t *testing.T) {
	mem := memory.New()
	mem.Append(message.NewText(message.RoleUser, "user", "do something"))

	client := &scriptedClient{streamer: &scriptedStreamer{chunks: []model.ChatResponse{
		{Content: []message.ContentBlock{message.Text{Text: "summary"}}},
	}}}

	p := newPipeline(client, mem)
	_, err := p.Run(context.Background(), "bot", "", 2)
	require.NoError(t, err)

	for _, m := range mem.Snapshot() {
		require.NotContains(t, m.Text(), hintText)
	}
}

func TestRunEmptyStreamReturnsFallbackMessage(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{streamer: &scriptedStreamer{}}

	p := newPipeline(client, mem)
	final, err := p.Run(context.Background(), "bot", "", 3)
	require.NoError(t, err)
	require.Contains(t, final.Text(), "Maximum iterations (3) reached. Unable to generate summary.")
}

func TestRunModelErrorIsSwallowedAsAssistantMessage(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{err: errors.New("provider down")}

	p := newPipeline(client, mem)
	final, err := p.Run(context.Background(), "bot", "", 3)
	require.NoError(t, err)
	require.Contains(t, final.Text(), "Error generating summary")
}

func TestRunCallsModelWithNoToolSchemas(t *testing.T) {
	mem := memory.New()
	var sawTools []*model.ToolDefinition
	client := &capturingClient{fn: func(tools []*model.ToolDefinition) {
		sawTools = tools
	}, streamer: &scriptedStreamer{chunks: []model.ChatResponse{
		{Content: []message.ContentBlock{message.Text{Text: "summary"}}},
	}}}

	p := newPipeline(client, mem)
	_, err := p.Run(context.Background(), "bot", "", 1)
	require.NoError(t, err)
	require.Nil(t, sawTools)
}

type capturingClient struct {
	fn       func(tools []*model.ToolDefinition)
	streamer model.Streamer
}

func (c *capturingClient) Stream(ctx context.Context, msgs []message.Msg, tools []*model.ToolDefinition, opts model.Options) (model.Streamer, error) {
	c.fn(tools)
	return c.streamer, nil
}

func TestRunCancellationPropagates(t *testing.T) {
	mem := memory.New()
	client := &scriptedClient{streamer: &scriptedStreamer{err: context.Canceled}}

	p := newPipeline(client, mem)
	_, err := p.Run(context.Background(), "bot", "", 3)
	require.ErrorIs(t, err, context.Canceled)
}
