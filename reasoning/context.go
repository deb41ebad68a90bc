// Package reasoning implements the streaming reasoning phase of the ReAct
// loop: it consumes a model.Streamer, accumulates deltas into a coherent
// assistant message.Msg, dispatches hook events at each point, and writes the
// final message to memory.
package reasoning

import "github.com/goreact/reactagent/message"

// Context is the transient, per-turn accumulator that merges streaming
// deltas into a single final message. It is created at the start of a
// reasoning turn, mutated by each processed chunk, read by BuildFinalMessage
// (for each chunk's accumulated view and for the final message), and
// discarded.
type Context struct {
	speaker string

	text     string
	thinking string

	toolUses  []message.ToolUse
	toolIndex map[string]int
}

// NewContext returns an empty Context for the given speaker name.
func NewContext(speaker string) *Context {
	return &Context{speaker: speaker, toolIndex: make(map[string]int)}
}

// AppendText appends an incremental text delta to the accumulated text.
func (c *Context) AppendText(delta string) { c.text += delta }

// AppendThinking appends an incremental thinking delta to the accumulated
// thinking text.
func (c *Context) AppendThinking(delta string) { c.thinking += delta }

// AddToolUse records a ToolUse block. The first sighting of a given ID
// appends to the finalized list in arrival order; a later chunk carrying the
// same ID replaces the previously recorded block in place, tolerating
// providers that stream late-arriving arguments.
func (c *Context) AddToolUse(tu message.ToolUse) {
	if idx, ok := c.toolIndex[tu.ID]; ok {
		c.toolUses[idx] = tu
		return
	}
	c.toolIndex[tu.ID] = len(c.toolUses)
	c.toolUses = append(c.toolUses, tu)
}

// Text returns the accumulated text so far.
func (c *Context) Text() string { return c.text }

// Thinking returns the accumulated thinking so far.
func (c *Context) Thinking() string { return c.thinking }

// ToolUses returns the finalized ToolUse blocks in arrival order.
func (c *Context) ToolUses() []message.ToolUse { return c.toolUses }

// IsEmpty reports whether the context accumulated no content at all.
func (c *Context) IsEmpty() bool {
	return c.text == "" && c.thinking == "" && len(c.toolUses) == 0
}

// BuildFinalMessage assembles the canonical assistant message from the
// accumulated state: thinking blocks, then one text block if non-empty, then
// tool-use blocks in arrival order. It returns false if nothing was
// accumulated, per the spec's rule that empty reasoning writes nothing to
// memory.
func (c *Context) BuildFinalMessage() (message.Msg, bool) {
	if c.IsEmpty() {
		return message.Msg{}, false
	}
	var content []message.ContentBlock
	if c.thinking != "" {
		content = append(content, message.Thinking{Thinking: c.thinking})
	}
	if c.text != "" {
		content = append(content, message.Text{Text: c.text})
	}
	for _, tu := range c.toolUses {
		content = append(content, tu)
	}
	return message.New(message.RoleAssistant, c.speaker, content), true
}
