// Package toolkit defines the abstract tool registry and dispatch contract
// the acting pipeline consumes. Concrete tool registration, MCP bridging, and
// execution plumbing are external collaborators; this package only specifies
// the interfaces the core requires.
package toolkit

import (
	"context"
	"time"

	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
)

// Ident is the strong type for tool identifiers, avoiding accidental mixing
// with free-form strings in maps and APIs.
type Ident string

type (
	// Tool is a single callable tool exposed to the model.
	Tool interface {
		// Name returns the tool's identifier as seen by the model.
		Name() Ident
		// Description returns the human-readable summary presented to the model.
		Description() string
		// InputSchema returns the JSON Schema describing the tool's input payload.
		InputSchema() any
	}

	// ExecConfig configures one acting phase's invocation of CallTools.
	ExecConfig struct {
		// Timeout bounds each individual tool call. Zero means no timeout.
		Timeout time.Duration
		// Concurrency caps how many tool calls may run at once. Zero means
		// the toolkit implementation chooses.
		Concurrency int
	}

	// ChunkCallback receives intra-tool streaming deltas during acting. The
	// partial parameter is a provider/tool-specific, typically text,
	// representation of progress; it is notification-only.
	ChunkCallback func(use message.ToolUse, partial string)

	// Toolkit is the registry and dispatcher for callable tools. The acting
	// pipeline is the only core consumer; registration and execution
	// plumbing live entirely outside this package.
	Toolkit interface {
		// GetToolSchemas returns the model-facing definitions for every
		// currently active tool, including any synthetic tools installed by
		// the structured-output handler.
		GetToolSchemas() []*model.ToolDefinition

		// GetTool returns the registered tool for name, or nil if unregistered.
		GetTool(name Ident) Tool

		// RegisterTool adds (or replaces) a tool in the active set. Used by
		// the structured-output handler to install its synthetic
		// generate_response tool and to remove it again on Cleanup.
		RegisterTool(t Tool) error

		// UnregisterTool removes name from the active set. It is a no-op if
		// name is not registered.
		UnregisterTool(name Ident)

		// SetChunkCallback installs the callback the toolkit invokes for
		// streaming tools during the next CallTools call. The engine installs
		// this before every acting phase; passing nil disables streaming
		// notifications.
		SetChunkCallback(cb ChunkCallback)

		// CallTools invokes every tool use in uses and returns one
		// message.ToolResult per input, in the same order as uses
		// regardless of completion order. CallTools may run tools
		// concurrently internally but must preserve the result ordering
		// contract.
		//
		// A ToolDispatchError-shaped error (one that prevents even producing
		// a result list) propagates to the caller; individual tool failures
		// must instead be captured as message.ToolResult{IsError: true}.
		CallTools(ctx context.Context, uses []message.ToolUse, cfg ExecConfig) ([]message.ToolResult, error)
	}
)
