// Package engine implements the top-level ReAct loop: it binds the
// reasoning, acting, summarizing, and structured-output pipelines together,
// enforcing the iteration budget, cancellation checks, and interrupt
// recovery described by the rest of this module.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goreact/reactagent/acting"
	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/memory"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/reasoning"
	"github.com/goreact/reactagent/structured"
	"github.com/goreact/reactagent/summarize"
	"github.com/goreact/reactagent/telemetry"
	"github.com/goreact/reactagent/toolkit"
)

// Agent binds one model, toolkit, and memory into a ReAct loop. Construct
// with New; an Agent is safe for reuse across successive Call invocations
// but rejects overlapping ones (see ErrCallInProgress).
type Agent struct {
	name         string
	systemPrompt string

	client  model.Client
	toolkit toolkit.Toolkit
	memory  memory.Memory

	maxIters      int
	hooks         []hooks.Hook
	execConfig    toolkit.ExecConfig
	interruptText string

	logger  telemetry.Logger
	tracer  telemetry.Tracer
	metrics telemetry.Metrics

	mu sync.Mutex
}

// New constructs an Agent. client, tk, and mem are required non-nil
// collaborators; opts configure everything else.
func New(name string, client model.Client, tk toolkit.Toolkit, mem memory.Memory, opts ...Option) *Agent {
	a := &Agent{
		name:          name,
		client:        client,
		toolkit:       tk,
		memory:        mem,
		maxIters:      defaultMaxIterations,
		interruptText: InterruptRecoveryText,
		logger:        telemetry.NewNoopLogger(),
		tracer:        telemetry.NewNoopTracer(),
		metrics:       telemetry.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Observe appends msgs to memory without running the ReAct loop.
func (a *Agent) Observe(msgs ...message.Msg) {
	a.memory.Append(msgs...)
}

// Call runs the ReAct loop to completion: append userMsgs, then alternate
// reasoning and acting until the model stops requesting tools, an
// unregistered tool is named, the iteration budget is exhausted, or ctx is
// cancelled. WithTargetSchema activates structured-output coercion for this
// call only.
func (a *Agent) Call(ctx context.Context, userMsgs []message.Msg, opts ...CallOption) (message.Msg, error) {
	if !a.mu.TryLock() {
		return message.Msg{}, ErrCallInProgress
	}
	defer a.mu.Unlock()

	ctx, span := a.tracer.Start(ctx, "engine.call")
	defer span.End()
	a.metrics.IncCounter("engine_calls_total", 1)

	cfg := callConfig{strategy: structured.Reminder}
	for _, o := range opts {
		o(&cfg)
	}

	a.memory.Append(userMsgs...)

	chainHooks := a.hooks
	var handler *structured.Handler
	if cfg.hasSchema {
		h, err := structured.New(cfg.strategy, cfg.schema, a.toolkit)
		if err != nil {
			return message.Msg{}, fmt.Errorf("engine: %w", err)
		}
		if err := h.Prepare(); err != nil {
			return message.Msg{}, fmt.Errorf("engine: %w", err)
		}
		defer h.Cleanup()
		handler = h
		chainHooks = append(append([]hooks.Hook{}, a.hooks...), h.Hook())
	}
	chain := hooks.NewChain(chainHooks...)

	reasoningPipeline := &reasoning.Pipeline{
		Client: a.client, Memory: a.memory, Hooks: chain,
		Logger: a.logger, Tracer: a.tracer, Metrics: a.metrics,
	}
	actingPipeline := &acting.Pipeline{
		Toolkit: a.toolkit, Memory: a.memory, Hooks: chain,
		Logger: a.logger, Tracer: a.tracer, Metrics: a.metrics,
	}

	for iter := 0; iter < a.maxIters; iter++ {
		if ctx.Err() != nil {
			return a.interrupt(ctx)
		}

		reasonOpts := model.Options{}
		if handler != nil {
			reasonOpts = handler.ApplyOptions(reasonOpts)
		}

		result, err := reasoningPipeline.Run(ctx, a.name, a.name, a.systemPrompt, a.toolkit.GetToolSchemas(), reasonOpts)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return message.Msg{}, err
			}
			return message.Msg{}, fmt.Errorf("engine: %w", err)
		}

		if ctx.Err() != nil {
			return a.interrupt(ctx)
		}

		toolUses := result.ToolUses
		if handler != nil {
			handler.ObserveToolUses(toolUses)
			if len(toolUses) == 0 && handler.NeedsRetry() {
				a.metrics.IncCounter("engine_structured_retries_total", 1)
				continue
			}
		}

		if len(toolUses) == 0 || a.allUnregistered(toolUses) {
			return a.lastAssistant(result)
		}

		if _, err := actingPipeline.Run(ctx, a.name, toolUses, a.execConfig); err != nil {
			if errors.Is(err, context.Canceled) {
				return message.Msg{}, err
			}
			return message.Msg{}, fmt.Errorf("engine: %w", err)
		}

		if handler != nil && handler.Completed() {
			final, err := handler.ExtractFinalResult(result.Message)
			if err != nil {
				return message.Msg{}, fmt.Errorf("engine: %w", err)
			}
			return final, nil
		}
	}

	if handler != nil {
		if verr := handler.LastValidationError(); verr != nil {
			return message.Msg{}, fmt.Errorf("engine: %w: %s", structured.ErrInvalidPayload, verr.Error())
		}
		return message.Msg{}, fmt.Errorf("engine: %w", structured.ErrBudgetExceeded)
	}

	summarizer := &summarize.Pipeline{Client: a.client, Memory: a.memory, Logger: a.logger, Tracer: a.tracer}
	final, err := summarizer.Run(ctx, a.name, a.systemPrompt, a.maxIters)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return message.Msg{}, err
		}
		return message.Msg{}, fmt.Errorf("engine: %w", err)
	}
	return final, nil
}

// allUnregistered reports whether every tool use names a tool absent from
// the toolkit's active set.
func (a *Agent) allUnregistered(uses []message.ToolUse) bool {
	for _, u := range uses {
		if a.toolkit.GetTool(toolkit.Ident(u.Name)) != nil {
			return false
		}
	}
	return true
}

// lastAssistant returns the message produced this turn, or the most recent
// assistant message already in memory if this turn produced nothing.
func (a *Agent) lastAssistant(result reasoning.Result) (message.Msg, error) {
	if result.Produced {
		return result.Message, nil
	}
	for _, m := range reverse(a.memory.Snapshot()) {
		if m.Role == message.RoleAssistant {
			return m, nil
		}
	}
	return message.Msg{}, ErrNoAssistantMessage
}

// interrupt appends the configured recovery message to memory and returns
// it, used when cancellation is observed at a clean iteration boundary
// rather than mid-stream.
func (a *Agent) interrupt(ctx context.Context) (message.Msg, error) {
	a.logger.Warn(context.Background(), "engine: call interrupted at iteration boundary", "agent", a.name)
	msg := message.NewText(message.RoleAssistant, a.name, a.interruptText)
	a.memory.Append(msg)
	return msg, nil
}

func reverse(msgs []message.Msg) []message.Msg {
	out := make([]message.Msg, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
