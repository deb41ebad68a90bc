// Package acting implements the acting phase of the ReAct loop: dispatching
// model-requested tool calls, pairing each result with its call by position
// (the toolkit returns results in input order), and writing one tool-role
// message per result to memory.
package acting

import (
	"context"
	"fmt"

	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/memory"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/telemetry"
	"github.com/goreact/reactagent/toolkit"
)

// Pipeline runs one acting phase.
type Pipeline struct {
	Toolkit toolkit.Toolkit
	Memory  memory.Memory
	Hooks   *hooks.Chain
	Logger  telemetry.Logger
	Tracer  telemetry.Tracer
	Metrics telemetry.Metrics
}

// Run dispatches every tool use in calls via the toolkit, pairs the results
// back by input order (not completion order), runs the PostActing hook over
// each pair, and appends one tool-role message per result to memory.
//
// If the toolkit cannot even produce a result list, the error propagates
// unchanged (ToolDispatchError per the spec's taxonomy); individual tool
// failures are instead captured as message.ToolResult{IsError: true} and do
// not produce a Go error here.
func (p *Pipeline) Run(ctx context.Context, agentName string, calls []message.ToolUse, cfg toolkit.ExecConfig) ([]message.ToolResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	ctx, span := p.Tracer.Start(ctx, "acting.run")
	defer span.End()

	p.Toolkit.SetChunkCallback(func(use message.ToolUse, partial string) {
		evt := hooks.NewActingChunk(agentName, use, partial)
		// Chunk events are notification-only; a hook error here would abort
		// the forwarding callback but must not corrupt in-flight tool
		// execution, so it is logged rather than propagated.
		if _, err := p.Hooks.Dispatch(ctx, evt); err != nil {
			p.Logger.Warn(ctx, "acting: acting-chunk hook failed", "error", err.Error())
		}
	})

	results, err := p.Toolkit.CallTools(ctx, calls, cfg)
	if err != nil {
		return nil, fmt.Errorf("acting: call tools: %w", err)
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("acting: toolkit returned %d results for %d calls", len(results), len(calls))
	}

	out := make([]message.ToolResult, len(calls))
	for i, use := range calls {
		result := results[i]
		evt := hooks.NewPostActing(agentName, use, result)
		rewritten, err := p.Hooks.Dispatch(ctx, evt)
		if err != nil {
			return nil, fmt.Errorf("acting: post-acting hook: %w", err)
		}
		if post, ok := rewritten.(*hooks.PostActingEvent); ok {
			result = post.Result
		}
		out[i] = result
		p.Memory.Append(message.New(message.RoleTool, "tool", []message.ContentBlock{result}))
	}

	return out, nil
}
