package toolkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/schema"
)

// Handler is the function signature a registered tool executes with. It
// receives the decoded input map and returns either a success payload
// (marshaled to a single Text ToolResult block) or an error, which the
// toolkit converts into an IsError ToolResult rather than propagating.
type Handler func(ctx context.Context, input map[string]any) (string, error)

// StreamingHandler is like Handler but may report incremental progress via
// report before returning its final result.
type StreamingHandler func(ctx context.Context, input map[string]any, report func(partial string)) (string, error)

type registered struct {
	name        Ident
	description string
	inputSchema any
	compiled    *schema.Schema
	handler     StreamingHandler
}

func (r *registered) Name() Ident         { return r.name }
func (r *registered) Description() string { return r.description }
func (r *registered) InputSchema() any    { return r.inputSchema }

// inmem is a default, in-process Toolkit implementation suitable for tests,
// demos, and simple single-process hosts. Tools registered as plain Handlers
// are run synchronously from CallTools's per-call goroutine.
type inmem struct {
	mu    sync.RWMutex
	tools map[Ident]*registered
	cb    ChunkCallback
}

// New returns an empty in-memory Toolkit.
func New() Toolkit {
	return &inmem{tools: make(map[Ident]*registered)}
}

// Register adds a non-streaming tool backed by a plain Go function. The
// inputSchema, when non-nil, is compiled once and used to validate every
// call's input before handler is invoked.
func Register(t Toolkit, name Ident, description string, inputSchema any, handler Handler) error {
	return RegisterStreaming(t, name, description, inputSchema, func(ctx context.Context, input map[string]any, _ func(string)) (string, error) {
		return handler(ctx, input)
	})
}

// RegisterStreaming adds a streaming tool backed by a Go function that may
// invoke report to surface incremental progress.
func RegisterStreaming(t Toolkit, name Ident, description string, inputSchema any, handler StreamingHandler) error {
	im, ok := t.(*inmem)
	if !ok {
		return fmt.Errorf("toolkit: RegisterStreaming requires the in-memory toolkit implementation")
	}
	r := &registered{name: name, description: description, inputSchema: inputSchema, handler: handler}
	if inputSchema != nil {
		compiled, err := schema.CompileMap(toMap(inputSchema))
		if err != nil {
			return fmt.Errorf("toolkit: compile schema for %q: %w", name, err)
		}
		r.compiled = compiled
	}
	return im.RegisterTool(r)
}

func toMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func (t *inmem) GetToolSchemas() []*model.ToolDefinition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*model.ToolDefinition, 0, len(t.tools))
	for _, r := range t.tools {
		out = append(out, &model.ToolDefinition{
			Name:        string(r.name),
			Description: r.description,
			InputSchema: r.inputSchema,
		})
	}
	return out
}

func (t *inmem) GetTool(name Ident) Tool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.tools[name]
	if !ok {
		return nil
	}
	return r
}

func (t *inmem) RegisterTool(tool Tool) error {
	r, ok := tool.(*registered)
	if !ok {
		// Allow arbitrary Tool implementations without a handler; such tools
		// are offered to the model through GetToolSchemas but always fail
		// at call time with an IsError result.
		r = &registered{name: tool.Name(), description: tool.Description(), inputSchema: tool.InputSchema()}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tools == nil {
		t.tools = make(map[Ident]*registered)
	}
	t.tools[r.name] = r
	return nil
}

func (t *inmem) UnregisterTool(name Ident) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tools, name)
}

func (t *inmem) SetChunkCallback(cb ChunkCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cb = cb
}

func (t *inmem) CallTools(ctx context.Context, uses []message.ToolUse, cfg ExecConfig) ([]message.ToolResult, error) {
	results := make([]message.ToolResult, len(uses))
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrencyOf(cfg, len(uses)))
	for i, use := range uses {
		i, use := i, use
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = t.callOne(ctx, use, cfg)
		}()
	}
	wg.Wait()
	return results, nil
}

func concurrencyOf(cfg ExecConfig, n int) int {
	if cfg.Concurrency > 0 {
		return cfg.Concurrency
	}
	if n == 0 {
		return 1
	}
	return n
}

func (t *inmem) callOne(ctx context.Context, use message.ToolUse, cfg ExecConfig) message.ToolResult {
	t.mu.RLock()
	r, ok := t.tools[Ident(use.Name)]
	cb := t.cb
	t.mu.RUnlock()

	if !ok || r.handler == nil {
		return errorResult(use.ID, fmt.Sprintf("tool %q is not registered", use.Name))
	}
	if r.compiled != nil {
		if err := r.compiled.Validate(use.Input); err != nil {
			return errorResult(use.ID, err.Error())
		}
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if cfg.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	report := func(string) {}
	if cb != nil {
		report = func(partial string) { cb(use, partial) }
	}

	out, err := r.handler(callCtx, use.Input, report)
	if err != nil {
		return errorResult(use.ID, err.Error())
	}
	return message.ToolResult{
		ID:      use.ID,
		Output:  []message.ContentBlock{message.Text{Text: out}},
		IsError: false,
	}
}

func errorResult(id, text string) message.ToolResult {
	return message.ToolResult{
		ID:      id,
		Output:  []message.ContentBlock{message.Text{Text: text}},
		IsError: true,
	}
}
