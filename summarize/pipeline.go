// Package summarize implements the bounded recovery pass that runs once a
// ReAct call exhausts its iteration budget without a structured-output
// handler active: a single, tool-free reasoning pass whose errors are
// swallowed and rendered as a fallback message rather than propagated.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goreact/reactagent/memory"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/reasoning"
	"github.com/goreact/reactagent/telemetry"
)

// hintText is injected as a synthetic user turn ahead of the one-shot
// summarization call. It is not persisted to Memory; it exists only for the
// duration of this single model call, mirroring how structured-output
// reminders are injected without becoming part of the durable transcript.
const hintText = "You have failed to generate response within the maximum iterations. Now respond directly by summarizing the current situation."

// Pipeline runs the summarization pass.
type Pipeline struct {
	Client model.Client
	Memory memory.Memory
	Logger telemetry.Logger
	Tracer telemetry.Tracer
}

// Run performs the one-shot, tools-disabled summarization pass and appends
// its result (success, fallback, or swallowed-error text) to memory.
// Cancellation propagates unchanged; every other failure is rendered as an
// assistant message per spec.
func (p *Pipeline) Run(ctx context.Context, speakerName, systemPrompt string, maxIters int) (message.Msg, error) {
	ctx, span := p.Tracer.Start(ctx, "summarize.run")
	defer span.End()

	input := p.buildInput(systemPrompt)

	streamer, err := p.Client.Stream(ctx, input, nil, model.Options{})
	if err != nil {
		return p.swallow(maxIters, speakerName, err), nil
	}
	defer streamer.Close()

	rc := reasoning.NewContext(speakerName)
	for {
		select {
		case <-ctx.Done():
			return message.Msg{}, ctx.Err()
		default:
		}
		chunk, err := streamer.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, context.Canceled) {
				return message.Msg{}, err
			}
			return p.swallow(maxIters, speakerName, err), nil
		}
		for _, block := range chunk.Content {
			switch b := block.(type) {
			case message.Text:
				rc.AppendText(b.Text)
			case message.Thinking:
				rc.AppendThinking(b.Thinking)
			}
		}
		continue
	}

	final, produced := rc.BuildFinalMessage()
	if !produced {
		final = message.NewText(message.RoleAssistant, speakerName, fmt.Sprintf("Maximum iterations (%d) reached. Unable to generate summary.", maxIters))
	}
	p.Memory.Append(final)
	return final, nil
}

func (p *Pipeline) buildInput(systemPrompt string) []message.Msg {
	snapshot := p.Memory.Snapshot()
	input := make([]message.Msg, 0, len(snapshot)+2)
	if systemPrompt != "" {
		input = append(input, message.NewText(message.RoleSystem, "system", systemPrompt))
	}
	input = append(input, snapshot...)
	input = append(input, message.NewText(message.RoleUser, "user", hintText))
	return input
}

func (p *Pipeline) swallow(maxIters int, speakerName string, err error) message.Msg {
	keyvals := append([]any{"error", err.Error()}, model.LogFields(err)...)
	p.Logger.Warn(context.Background(), "summarize: model error swallowed", keyvals...)
	final := message.NewText(message.RoleAssistant, speakerName, fmt.Sprintf("Maximum iterations (%d) reached. Error generating summary: %s", maxIters, err.Error()))
	p.Memory.Append(final)
	return final
}
