// Package hooks defines the priority-ordered middleware chain observers use
// to inspect and transform messages as they move between the reasoning and
// acting phases of the ReAct loop.
package hooks

import "github.com/goreact/reactagent/message"

// EventType classifies a dispatched Event. The engine dispatches exactly
// these six kinds; no others are defined.
type EventType string

const (
	// EventPreReasoning fires before the model is streamed, carrying the
	// input message list. Hooks may rewrite the list (e.g. prepend a
	// system-reminder or RAG context message).
	EventPreReasoning EventType = "pre_reasoning"

	// EventReasoningChunk fires once per content block of each processed
	// streaming chunk, so a chunk with several blocks fires several events
	// and a chunk with no blocks fires none. It is notification-only: hook
	// output is discarded.
	EventReasoningChunk EventType = "reasoning_chunk"

	// EventPostReasoning fires after the final assistant message is built,
	// carrying that message. Hooks may rewrite it before it is written to
	// memory.
	EventPostReasoning EventType = "post_reasoning"

	// EventPreActing fires once per ToolUse block extracted from the final
	// assistant message, before the acting pipeline dispatches it. Hooks may
	// rewrite the ToolUse; the rewrite is forwarded to acting but is not
	// reflected back into the message already written to memory.
	EventPreActing EventType = "pre_acting"

	// EventActingChunk fires once per intra-tool streaming delta during
	// acting. It is notification-only.
	EventActingChunk EventType = "acting_chunk"

	// EventPostActing fires once per completed tool result, before the
	// acting pipeline writes the corresponding tool Msg to memory. Hooks may
	// rewrite the ToolResult.
	EventPostActing EventType = "post_acting"
)

type (
	// Event is the payload dispatched through a Chain. Concrete Go types
	// implement Event by embedding baseEvent; callers type-switch on the
	// concrete type to access event-specific fields.
	Event interface {
		// Type returns which of the six event kinds this is.
		Type() EventType
	}

	baseEvent struct {
		typ EventType
	}

	// PreReasoningEvent carries the message list about to be sent to the
	// model. AgentName identifies which agent issued the call, useful when a
	// single Chain is shared across agents.
	PreReasoningEvent struct {
		baseEvent
		AgentName string
		Messages  []message.Msg
	}

	// ReasoningChunkEvent carries one processed streaming delta alongside the
	// accumulated view built so far this turn.
	ReasoningChunkEvent struct {
		baseEvent
		AgentName   string
		Incremental message.ContentBlock
		Accumulated message.Msg
	}

	// PostReasoningEvent carries the finalized assistant message before it is
	// written to memory.
	PostReasoningEvent struct {
		baseEvent
		AgentName string
		Message   message.Msg
	}

	// PreActingEvent carries a single ToolUse about to be dispatched.
	PreActingEvent struct {
		baseEvent
		AgentName string
		ToolUse   message.ToolUse
	}

	// ActingChunkEvent carries an intra-tool streaming delta.
	ActingChunkEvent struct {
		baseEvent
		AgentName string
		ToolUse   message.ToolUse
		Partial   string
	}

	// PostActingEvent carries a completed tool result before it is written to
	// memory as a tool-role Msg.
	PostActingEvent struct {
		baseEvent
		AgentName string
		ToolUse   message.ToolUse
		Result    message.ToolResult
	}
)

func (b baseEvent) Type() EventType { return b.typ }

// NewPreReasoning constructs a PreReasoningEvent.
func NewPreReasoning(agentName string, msgs []message.Msg) *PreReasoningEvent {
	return &PreReasoningEvent{baseEvent: baseEvent{typ: EventPreReasoning}, AgentName: agentName, Messages: msgs}
}

// NewReasoningChunk constructs a ReasoningChunkEvent.
func NewReasoningChunk(agentName string, incremental message.ContentBlock, accumulated message.Msg) *ReasoningChunkEvent {
	return &ReasoningChunkEvent{baseEvent: baseEvent{typ: EventReasoningChunk}, AgentName: agentName, Incremental: incremental, Accumulated: accumulated}
}

// NewPostReasoning constructs a PostReasoningEvent.
func NewPostReasoning(agentName string, msg message.Msg) *PostReasoningEvent {
	return &PostReasoningEvent{baseEvent: baseEvent{typ: EventPostReasoning}, AgentName: agentName, Message: msg}
}

// NewPreActing constructs a PreActingEvent.
func NewPreActing(agentName string, use message.ToolUse) *PreActingEvent {
	return &PreActingEvent{baseEvent: baseEvent{typ: EventPreActing}, AgentName: agentName, ToolUse: use}
}

// NewActingChunk constructs an ActingChunkEvent.
func NewActingChunk(agentName string, use message.ToolUse, partial string) *ActingChunkEvent {
	return &ActingChunkEvent{baseEvent: baseEvent{typ: EventActingChunk}, AgentName: agentName, ToolUse: use, Partial: partial}
}

// NewPostActing constructs a PostActingEvent.
func NewPostActing(agentName string, use message.ToolUse, result message.ToolResult) *PostActingEvent {
	return &PostActingEvent{baseEvent: baseEvent{typ: EventPostActing}, AgentName: agentName, ToolUse: use, Result: result}
}
