package reasoning

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/memory"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/telemetry"
)

type (
	// Pipeline runs one reasoning turn: stream the model, accumulate deltas,
	// dispatch hooks, and write the resulting assistant message to memory.
	Pipeline struct {
		Client  model.Client
		Memory  memory.Memory
		Hooks   *hooks.Chain
		Logger  telemetry.Logger
		Tracer  telemetry.Tracer
		Metrics telemetry.Metrics
	}

	// Result carries the outcome of one Run call.
	Result struct {
		// Message is the finalized assistant message, when one was produced.
		Message message.Msg
		// Produced reports whether a new message was appended to memory.
		Produced bool
		// ToolUses are the (possibly hook-rewritten) tool calls to forward to
		// the acting pipeline. These rewrites are not reflected back into
		// Message as written to memory, per spec semantics.
		ToolUses []message.ToolUse
	}
)

// errNoLogger/errNoTracer guards are unnecessary: callers must supply
// non-nil telemetry implementations (use telemetry.NewNoopLogger() etc.).

// Run executes one reasoning turn.
//
// systemPrompt, when non-empty, is prepended as a system message ahead of
// the memory snapshot. speakerName labels the produced assistant message.
func (p *Pipeline) Run(ctx context.Context, agentName, speakerName, systemPrompt string, tools []*model.ToolDefinition, opts model.Options) (Result, error) {
	ctx, span := p.Tracer.Start(ctx, "reasoning.run")
	defer span.End()

	input := p.buildInput(systemPrompt)

	preEvt := hooks.NewPreReasoning(agentName, input)
	out, err := p.Hooks.Dispatch(ctx, preEvt)
	if err != nil {
		return Result{}, fmt.Errorf("reasoning: pre-reasoning hook: %w", err)
	}
	if pre, ok := out.(*hooks.PreReasoningEvent); ok {
		input = pre.Messages
	}

	streamer, err := p.Client.Stream(ctx, input, tools, opts)
	if err != nil {
		keyvals := append([]any{"error", err.Error()}, model.LogFields(err)...)
		p.Logger.Error(ctx, "reasoning: stream call failed", keyvals...)
		return Result{}, fmt.Errorf("reasoning: stream: %w", err)
	}
	defer streamer.Close()

	rc := NewContext(speakerName)
	streamErr := p.drain(ctx, streamer, rc, agentName)

	finalMsg, produced := rc.BuildFinalMessage()

	if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
		// Stream error other than cancellation: do not append a partial
		// message to memory.
		keyvals := append([]any{"error", streamErr.Error()}, model.LogFields(streamErr)...)
		p.Logger.Error(ctx, "reasoning: stream failed", keyvals...)
		return Result{}, fmt.Errorf("reasoning: %w", streamErr)
	}

	var toolUses []message.ToolUse
	if produced {
		finalMsg, toolUses, err = p.finalize(ctx, agentName, finalMsg)
		if err != nil {
			return Result{}, err
		}
		p.Memory.Append(finalMsg)
	}

	if streamErr != nil {
		// Cancellation: partial state (if any) was still recorded above;
		// propagate the cancellation to the caller.
		return Result{Message: finalMsg, Produced: produced, ToolUses: toolUses}, streamErr
	}

	return Result{Message: finalMsg, Produced: produced, ToolUses: toolUses}, nil
}

func (p *Pipeline) buildInput(systemPrompt string) []message.Msg {
	snapshot := p.Memory.Snapshot()
	if systemPrompt == "" {
		return snapshot
	}
	input := make([]message.Msg, 0, len(snapshot)+1)
	input = append(input, message.NewText(message.RoleSystem, "system", systemPrompt))
	input = append(input, snapshot...)
	return input
}

// drain reads chunks from streamer until it ends or fails, accumulating into
// rc and dispatching a ReasoningChunk hook event per content block of each
// chunk (none for a chunk without blocks). It returns nil on
// clean stream completion (io.EOF), or the terminal error (including
// context.Canceled) otherwise.
func (p *Pipeline) drain(ctx context.Context, streamer model.Streamer, rc *Context, agentName string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := streamer.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		for _, block := range chunk.Content {
			switch b := block.(type) {
			case message.Text:
				rc.AppendText(b.Text)
			case message.Thinking:
				rc.AppendThinking(b.Thinking)
			case message.ToolUse:
				rc.AddToolUse(b)
			}
			accumulated, _ := rc.BuildFinalMessage()
			evt := hooks.NewReasoningChunk(agentName, block, accumulated)
			if _, err := p.Hooks.Dispatch(ctx, evt); err != nil {
				return fmt.Errorf("reasoning: reasoning-chunk hook: %w", err)
			}
		}
	}
}

// finalize dispatches PostReasoning, then one PreActing event per tool use in
// the (possibly rewritten) final message, returning the message to persist
// and the tool uses to forward to acting.
func (p *Pipeline) finalize(ctx context.Context, agentName string, finalMsg message.Msg) (message.Msg, []message.ToolUse, error) {
	postEvt := hooks.NewPostReasoning(agentName, finalMsg)
	out, err := p.Hooks.Dispatch(ctx, postEvt)
	if err != nil {
		return finalMsg, nil, fmt.Errorf("reasoning: post-reasoning hook: %w", err)
	}
	if post, ok := out.(*hooks.PostReasoningEvent); ok {
		finalMsg = post.Message
	}

	toolUses := finalMsg.ToolUses()
	forwarded := make([]message.ToolUse, len(toolUses))
	for i, tu := range toolUses {
		preEvt := hooks.NewPreActing(agentName, tu)
		out, err := p.Hooks.Dispatch(ctx, preEvt)
		if err != nil {
			return finalMsg, nil, fmt.Errorf("reasoning: pre-acting hook: %w", err)
		}
		forwarded[i] = tu
		if pre, ok := out.(*hooks.PreActingEvent); ok {
			forwarded[i] = pre.ToolUse
		}
	}
	return finalMsg, forwarded, nil
}
