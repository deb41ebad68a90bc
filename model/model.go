// Package model defines the provider-agnostic streaming interface the ReAct
// engine composes. The core never calls a network itself; it consumes a
// Client implementation supplied by the host application.
package model

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/goreact/reactagent/message"
)

// ToolChoiceMode controls how the model uses tools for a request.
type ToolChoiceMode string

const (
	// ToolChoiceModeAuto lets the provider decide whether to call tools or
	// respond with text. This is the default when ToolChoice is nil.
	ToolChoiceModeAuto ToolChoiceMode = "auto"

	// ToolChoiceModeNone disables tool use for the request when supported.
	ToolChoiceModeNone ToolChoiceMode = "none"

	// ToolChoiceModeRequired forces the model to request at least one tool.
	ToolChoiceModeRequired ToolChoiceMode = "required"

	// ToolChoiceModeTool forces the model to request the specific tool
	// identified by ToolChoice.Name.
	ToolChoiceModeTool ToolChoiceMode = "tool"
)

type (
	// ToolDefinition describes a tool exposed to the model.
	ToolDefinition struct {
		// Name is the tool identifier as seen by the model.
		Name string
		// Description is presented to the model to decide when to call the tool.
		Description string
		// InputSchema is a JSON Schema describing the tool input payload.
		InputSchema any
	}

	// ToolChoice configures optional tool-use behavior for a Request. When nil,
	// providers use their default (typically ToolChoiceModeAuto) behavior.
	ToolChoice struct {
		Mode ToolChoiceMode
		// Name identifies the tool to request when Mode is ToolChoiceModeTool.
		Name string
	}

	// Options carries per-call tuning knobs independent of the message
	// transcript.
	Options struct {
		// ToolChoice optionally constrains how the model uses tools.
		ToolChoice *ToolChoice
		// Temperature controls sampling when supported by the provider.
		Temperature float32
		// MaxTokens caps the number of output tokens when supported.
		MaxTokens int
	}

	// TokenUsage tracks token counts for a model call.
	TokenUsage struct {
		InputTokens  int
		OutputTokens int
		TotalTokens  int
	}

	// ChatResponse is a single streaming event from the model. Each chunk
	// carries partial content-block deltas; the final
	// chunk in the stream is implied by stream completion (Recv returning
	// io.EOF), not by a boolean field, so consumers must drain the stream to
	// its natural end.
	ChatResponse struct {
		// ID identifies the response this chunk belongs to.
		ID string
		// Content carries zero or more content-block deltas for this chunk.
		// A Text delta is an incremental fragment to append; a Thinking delta
		// likewise; a ToolUse block is generally emitted whole once the
		// model finishes composing its arguments.
		Content []message.ContentBlock
		// Usage reports incremental token usage when the provider surfaces it
		// out-of-band from content deltas.
		Usage *TokenUsage
	}

	// Streamer delivers incremental model output for one Stream call.
	//
	// Callers must drain the stream until Recv returns io.EOF or another
	// terminal error, then call Close exactly once.
	Streamer interface {
		// Recv returns the next streaming chunk or an error. Implementations
		// return io.EOF once the stream completes successfully.
		Recv() (ChatResponse, error)
		// Close releases any resources associated with the stream. Close is
		// safe to call multiple times.
		Close() error
	}

	// Client is the provider-agnostic model client the ReAct engine composes.
	// The core treats this entirely as an external collaborator: wire
	// formats, auth, and provider quirks are the implementation's concern.
	Client interface {
		// Stream performs a streaming model invocation. msgs is the full
		// ordered transcript (including any system message); tools lists the
		// currently offered tool schemas (possibly empty, e.g. during
		// summarization).
		Stream(ctx context.Context, msgs []message.Msg, tools []*ToolDefinition, opts Options) (Streamer, error)
	}
)

// ErrStreamingUnsupported indicates the provider does not support streaming.
var ErrStreamingUnsupported = errors.New("model: streaming not supported")

// ErrRateLimited indicates the provider rejected the request due to rate
// limiting after exhausting any configured retries.
var ErrRateLimited = errors.New("model: rate limited")

// MarshalToolInput is a convenience used by provider adapters and tests to
// normalize a ToolUse's Input map into canonical JSON.
func MarshalToolInput(input map[string]any) (json.RawMessage, error) {
	return json.Marshal(input)
}
