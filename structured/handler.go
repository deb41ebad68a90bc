// Package structured coerces a model into returning a schema-conformant
// payload instead of free-form text, by registering a synthetic tool the
// model is asked (or required) to call.
package structured

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
	"github.com/goreact/reactagent/schema"
	"github.com/goreact/reactagent/toolkit"
)

// GenerateResponseName is the synthetic tool the handler installs and
// removes for the lifetime of one structured-output call.
const GenerateResponseName toolkit.Ident = "generate_response"

const generateResponseDescription = "Produce the final structured response matching the required schema. Call this exactly once you are ready to answer."

const reminderText = "You must call the `generate_response` function with the required schema to produce your final answer."

// Strategy selects how the handler coerces the model into calling the
// synthetic tool.
type Strategy int

const (
	// ToolChoice forces tool_choice to the synthetic tool on every reasoning
	// call, so the model has no path but to call it.
	ToolChoice Strategy = iota
	// Reminder leaves tool choice at the model's discretion but injects a
	// high-priority PreReasoning reminder until the tool is observed.
	Reminder
)

// ErrNotReady is returned by ExtractFinalResult when no valid
// generate_response call has been observed yet.
var ErrNotReady = errors.New("structured: no generate_response call observed yet")

// ErrBudgetExceeded indicates the engine exhausted its iteration budget
// while a structured-output handler was active without ever observing a
// valid generate_response call.
var ErrBudgetExceeded = errors.New("structured: maximum iterations reached without a generate_response call")

// ErrInvalidPayload indicates a generate_response call was observed but its
// input failed schema validation and no valid call followed before the
// iteration budget ran out.
var ErrInvalidPayload = errors.New("structured: generate_response input failed schema validation")

// Handler drives the lifecycle of one structured-output coercion attempt:
// prepare, observe tool uses each iteration, and extract or clean up.
type Handler struct {
	strategy Strategy
	toolkit  toolkit.Toolkit
	schema   *schema.Schema
	rawDoc   map[string]any

	mu       sync.Mutex
	seen     bool
	payload  map[string]any
	validErr error
}

// New compiles schemaDoc and returns a Handler bound to tk using strategy.
func New(strategy Strategy, schemaDoc map[string]any, tk toolkit.Toolkit) (*Handler, error) {
	compiled, err := schema.CompileMap(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("structured: compile target schema: %w", err)
	}
	return &Handler{strategy: strategy, toolkit: tk, schema: compiled, rawDoc: schemaDoc}, nil
}

// Prepare registers the synthetic generate_response tool. It must be paired
// with exactly one Cleanup call on every exit path.
func (h *Handler) Prepare() error {
	return toolkit.Register(h.toolkit, GenerateResponseName, generateResponseDescription, h.rawDoc,
		func(ctx context.Context, input map[string]any) (string, error) {
			return "", nil
		})
}

// Cleanup removes the synthetic tool and is idempotent.
func (h *Handler) Cleanup() {
	h.toolkit.UnregisterTool(GenerateResponseName)
}

// ApplyOptions overlays the per-call model.Options the strategy requires.
// Under ToolChoice this forces tool_choice to generate_response on every
// call for as long as the handler remains active; under Reminder it leaves
// opts untouched since coercion happens via the PreReasoning hook instead.
func (h *Handler) ApplyOptions(opts model.Options) model.Options {
	if h.strategy != ToolChoice {
		return opts
	}
	opts.ToolChoice = &model.ToolChoice{Mode: model.ToolChoiceModeTool, Name: string(GenerateResponseName)}
	return opts
}

// ObserveToolUses inspects the tool-use blocks extracted from one reasoning
// turn for a generate_response call, validating its input against the
// target schema. A later call overwrites a validation failure recorded by
// an earlier one within the same iteration, and a validated call's payload
// sticks once seen.
func (h *Handler) ObserveToolUses(uses []message.ToolUse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	reset := false
	for _, u := range uses {
		if toolkit.Ident(u.Name) != GenerateResponseName {
			continue
		}
		if !reset {
			h.validErr = nil
			reset = true
		}
		if err := h.schema.Validate(u.Input); err != nil {
			h.validErr = err
			continue
		}
		h.seen = true
		h.payload = u.Input
	}
}

// Completed reports whether a valid generate_response call has been
// observed.
func (h *Handler) Completed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen
}

// LastValidationError returns the schema validation failure from the most
// recent ObserveToolUses call that named generate_response, or nil if no
// generate_response call has been attempted yet or the most recent one
// validated successfully. Callers use this to distinguish "never attempted"
// from "attempted but invalid" once the iteration budget is exhausted.
func (h *Handler) LastValidationError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.seen {
		return nil
	}
	return h.validErr
}

// NeedsRetry reports whether the engine should skip acting and reason again
// without dispatching tools, per the Reminder strategy's retry-until-seen
// contract. ToolChoice never requests a retry: under that strategy a turn
// with no tool calls ends the loop through the engine's normal termination
// case, while an invalid call (or a call to other tools only) lets the loop
// continue and surfaces as a terminal error once the iteration budget runs
// out.
func (h *Handler) NeedsRetry() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.strategy == Reminder && !h.seen
}

// ExtractFinalResult returns the terminal assistant message once Completed
// reports true: a short text explanation plus the extracted payload in
// Metadata under the "structured_output" key. last supplies the speaker
// name to attribute the message to.
func (h *Handler) ExtractFinalResult(last message.Msg) (message.Msg, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.seen {
		if h.validErr != nil {
			return message.Msg{}, fmt.Errorf("structured: %w: %s", ErrInvalidPayload, h.validErr.Error())
		}
		return message.Msg{}, ErrNotReady
	}
	out := message.New(message.RoleAssistant, last.Name, []message.ContentBlock{
		message.Text{Text: "Structured response produced."},
	})
	return out.WithMetadata(map[string]any{"structured_output": h.payload}), nil
}

// Hook returns the PreReasoning hook the Reminder strategy installs ahead of
// every reasoning call for as long as no valid generate_response call has
// been observed. Under ToolChoice this hook is harmless but unnecessary;
// callers may still install it uniformly for simplicity.
func (h *Handler) Hook() hooks.Hook {
	return hooks.HookFunc{Pri: 0, Fn: h.handlePreReasoning}
}

func (h *Handler) handlePreReasoning(ctx context.Context, event hooks.Event) (hooks.Event, error) {
	pre, ok := event.(*hooks.PreReasoningEvent)
	if !ok {
		return nil, nil
	}

	h.mu.Lock()
	needsReminder := h.strategy == Reminder && !h.seen
	validErr := h.validErr
	h.mu.Unlock()
	if !needsReminder {
		return nil, nil
	}

	text := reminderText
	if validErr != nil {
		text = fmt.Sprintf("%s Your previous attempt's input was invalid: %s.", reminderText, validErr.Error())
	}

	msgs := make([]message.Msg, len(pre.Messages), len(pre.Messages)+1)
	copy(msgs, pre.Messages)
	msgs = append(msgs, message.NewText(message.RoleUser, "system", text))
	return hooks.NewPreReasoning(pre.AgentName, msgs), nil
}
