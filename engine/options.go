package engine

import (
	"github.com/goreact/reactagent/hooks"
	"github.com/goreact/reactagent/structured"
	"github.com/goreact/reactagent/telemetry"
	"github.com/goreact/reactagent/toolkit"
)

const defaultMaxIterations = 10

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithMaxIterations overrides the default iteration budget (10). A value of
// 0 is valid: the loop runs no reasoning/acting cycles and falls straight to
// summarization (or StructuredOutputBudgetExceeded, when a target schema is
// active for the call).
func WithMaxIterations(n int) Option {
	return func(a *Agent) { a.maxIters = n }
}

// WithSystemPrompt sets the system message prepended to every reasoning and
// summarization call.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithHooks registers hooks into the agent's fixed, construction-time chain.
// The chain is otherwise immutable for the agent's lifetime; a structured-
// output call additionally layers a reminder hook on top, scoped to that one
// call only.
func WithHooks(hs ...hooks.Hook) Option {
	return func(a *Agent) { a.hooks = append(a.hooks, hs...) }
}

// WithLogger overrides the agent's telemetry.Logger (default: no-op).
func WithLogger(l telemetry.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithTracer overrides the agent's telemetry.Tracer (default: no-op).
func WithTracer(t telemetry.Tracer) Option {
	return func(a *Agent) { a.tracer = t }
}

// WithMetrics overrides the agent's telemetry.Metrics (default: no-op).
func WithMetrics(m telemetry.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithExecConfig overrides the toolkit.ExecConfig applied to every acting
// phase (default: zero value — no per-call timeout, toolkit-chosen
// concurrency).
func WithExecConfig(cfg toolkit.ExecConfig) Option {
	return func(a *Agent) { a.execConfig = cfg }
}

// WithInterruptRecoveryText overrides the recovery message appended when a
// call is cancelled at an iteration boundary.
func WithInterruptRecoveryText(text string) Option {
	return func(a *Agent) { a.interruptText = text }
}

// callConfig accumulates the options passed to a single Call.
type callConfig struct {
	hasSchema bool
	schema    map[string]any
	strategy  structured.Strategy
}

// CallOption configures a single Call invocation.
type CallOption func(*callConfig)

// WithTargetSchema activates structured-output coercion for this call: the
// engine installs a synthetic generate_response tool bound to schemaDoc and
// coerces the model to invoke it using strategy, returning a final Msg whose
// Metadata carries the extracted payload.
func WithTargetSchema(schemaDoc map[string]any, strategy structured.Strategy) CallOption {
	return func(c *callConfig) {
		c.hasSchema = true
		c.schema = schemaDoc
		c.strategy = strategy
	}
}
