// Command demo wires a fake, in-process model and a one-tool toolkit into
// an engine.Agent and runs one call end to end, without any network
// dependency. It exists to exercise the full stack as a thin composition
// root, the way the teacher's own cmd/demo does for its Temporal-backed
// runtime.
package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/goreact/reactagent/engine"
	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/memory"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/toolkit"
)

// fakeStreamer replays a fixed slice of chunks, then io.EOF.
type fakeStreamer struct {
	chunks []model.ChatResponse
	idx    int
}

func (s *fakeStreamer) Recv() (model.ChatResponse, error) {
	if s.idx >= len(s.chunks) {
		return model.ChatResponse{}, io.EOF
	}
	c := s.chunks[s.idx]
	s.idx++
	return c, nil
}

func (s *fakeStreamer) Close() error { return nil }

// fakeModel is a scripted model.Client: its first call emits a tool call to
// "add", its second call emits the final answer text.
type fakeModel struct {
	calls int
}

func (m *fakeModel) Stream(ctx context.Context, msgs []message.Msg, tools []*model.ToolDefinition, opts model.Options) (model.Streamer, error) {
	m.calls++
	if m.calls == 1 {
		return &fakeStreamer{chunks: []model.ChatResponse{{
			Content: []message.ContentBlock{message.ToolUse{
				ID: "t1", Name: "add", Input: map[string]any{"a": 2.0, "b": 3.0},
			}},
		}}}, nil
	}
	return &fakeStreamer{chunks: []model.ChatResponse{{
		Content: []message.ContentBlock{message.Text{Text: "The answer is 5."}},
	}}}, nil
}

func addToolSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []any{"a", "b"},
	}
}

func main() {
	ctx := context.Background()

	tk := toolkit.New()
	if err := toolkit.Register(tk, "add", "Add two numbers together.", addToolSchema(), func(ctx context.Context, input map[string]any) (string, error) {
		a, _ := input["a"].(float64)
		b, _ := input["b"].(float64)
		return fmt.Sprintf("%v", a+b), nil
	}); err != nil {
		log.Fatalf("register tool: %v", err)
	}

	logHook := hooks.HookFunc{Pri: 900, Fn: func(ctx context.Context, event hooks.Event) (hooks.Event, error) {
		fmt.Printf("[hook] %s\n", event.Type())
		return nil, nil
	}}

	ag := engine.New("demo", &fakeModel{}, tk, memory.New(),
		engine.WithSystemPrompt("You are a helpful assistant that uses tools when needed."),
		engine.WithHooks(logHook),
		engine.WithMaxIterations(5),
	)

	final, err := ag.Call(ctx, []message.Msg{message.NewText(message.RoleUser, "user", "What is 2+3?")})
	if err != nil {
		log.Fatalf("call: %v", err)
	}

	fmt.Println("Assistant:", final.Text())
}
