// Package message defines the provider-agnostic conversation types shared by
// every pipeline in the ReAct engine. A Msg is an immutable, ordered list of
// typed content blocks attributed to a single speaker role.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a Msg.
type Role string

const (
	// RoleSystem identifies the system prompt message.
	RoleSystem Role = "system"
	// RoleUser identifies a message from the human or calling application.
	RoleUser Role = "user"
	// RoleAssistant identifies a message produced by the model.
	RoleAssistant Role = "assistant"
	// RoleTool identifies a message carrying the result of a tool call.
	RoleTool Role = "tool"
)

type (
	// ContentBlock is a marker interface implemented by every content block
	// variant. Concrete implementations capture plain text, model reasoning,
	// tool invocations, and tool results in a strongly typed form.
	ContentBlock interface {
		isContentBlock()
	}

	// Text is a plain-text content block.
	Text struct {
		Text string
	}

	// Thinking carries the model's chain-of-thought, surfaced separately
	// from answer text. Callers must not echo Thinking blocks back to the
	// model as user input without an explicit policy decision.
	Thinking struct {
		Thinking string
	}

	// ToolUse declares a tool invocation requested by the model. ID is the
	// join key correlated against a later ToolResult with the same ID.
	ToolUse struct {
		ID    string
		Name  string
		Input map[string]any
	}

	// ToolResult carries the response to a prior ToolUse sharing the same ID.
	ToolResult struct {
		ID      string
		Output  []ContentBlock
		IsError bool
	}

	// Msg is a single immutable message in the conversation.
	//
	// Role is final once constructed. Content may be empty but is never nil.
	// IDs are stable across hook mutations: a hook that rewrites Content
	// should preserve ID unless it is deliberately replacing the message.
	Msg struct {
		ID        string
		Name      string
		Role      Role
		Content   []ContentBlock
		Metadata  map[string]any
		Timestamp time.Time
	}
)

func (Text) isContentBlock()       {}
func (Thinking) isContentBlock()   {}
func (ToolUse) isContentBlock()    {}
func (ToolResult) isContentBlock() {}

// New constructs a Msg with a freshly generated ID and the current time.
// Content may be nil; it is normalized to an empty, non-nil slice.
func New(role Role, name string, content []ContentBlock) Msg {
	if content == nil {
		content = []ContentBlock{}
	}
	return Msg{
		ID:        uuid.NewString(),
		Name:      name,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewText is a convenience constructor for a single-block text message.
func NewText(role Role, name, text string) Msg {
	return New(role, name, []ContentBlock{Text{Text: text}})
}

// WithMetadata returns a copy of m with Metadata set. The original message is
// left unmodified.
func (m Msg) WithMetadata(meta map[string]any) Msg {
	m.Metadata = meta
	return m
}

// ToolUses returns every ToolUse block in m, in content order.
func (m Msg) ToolUses() []ToolUse {
	var out []ToolUse
	for _, c := range m.Content {
		if tu, ok := c.(ToolUse); ok {
			out = append(out, tu)
		}
	}
	return out
}

// Text concatenates every Text block in m's content, in order. It does not
// include Thinking content.
func (m Msg) Text() string {
	var out string
	for _, c := range m.Content {
		if t, ok := c.(Text); ok {
			out += t.Text
		}
	}
	return out
}
