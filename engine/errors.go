package engine

import "errors"

// ErrCallInProgress is returned by Call when another call on the same Agent
// is already running. Concurrent calls are rejected rather than serialized:
// silently queuing a second call could surprise a caller about result
// ordering and about which call a given hook dispatch belongs to.
var ErrCallInProgress = errors.New("engine: a call is already in progress for this agent")

// ErrNoAssistantMessage indicates the loop reached a termination check with
// no new assistant message produced this turn and none already present in
// memory to fall back to.
var ErrNoAssistantMessage = errors.New("engine: reasoning produced no message and none exists in memory")

// InterruptRecoveryText is the default recovery message appended when a call
// is cancelled at an iteration boundary. It is English-only; callers needing
// localization should override it per Agent via WithInterruptRecoveryText.
var InterruptRecoveryText = "I noticed that you have interrupted me and will stop here."
