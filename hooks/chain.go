package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type (
	// Hook observes or transforms a single Event. For Pre/Post events,
	// returning a non-nil Event replaces the payload forwarded to the next
	// hook; returning nil leaves the payload unchanged. For chunk events,
	// the return value is ignored entirely (notification-only).
	//
	// A Hook returning a non-nil error aborts dispatch for the current
	// event; the error surfaces from the Chain.Dispatch call and, in turn,
	// from whichever pipeline call triggered it.
	Hook interface {
		// Priority orders hooks within a Chain; lower runs first. Suggested
		// bands: 0-50 system (auth, structured-output reminder), 51-100
		// validation, 101-500 business, 501-1000 observability.
		Priority() int

		// HandleEvent processes event and optionally returns a replacement
		// payload. ctx carries cancellation from the call in progress.
		HandleEvent(ctx context.Context, event Event) (Event, error)
	}

	// HookFunc adapts a plain function to the Hook interface at a fixed
	// priority.
	HookFunc struct {
		Pri int
		Fn  func(ctx context.Context, event Event) (Event, error)
	}

	// Chain dispatches events to its registered hooks in non-decreasing
	// priority order. Hook registration is fixed at construction; a Chain
	// does not support adding or removing hooks mid-call, matching the
	// spec's "fixed at agent construction" rule.
	Chain struct {
		hooks []Hook
	}
)

// Priority returns f.Pri.
func (f HookFunc) Priority() int { return f.Pri }

// HandleEvent calls f.Fn.
func (f HookFunc) HandleEvent(ctx context.Context, event Event) (Event, error) { return f.Fn(ctx, event) }

// NewChain returns a Chain with hooks sorted into non-decreasing priority
// order. The input slice is not retained or mutated.
func NewChain(hooks ...Hook) *Chain {
	sorted := make([]Hook, len(hooks))
	copy(sorted, hooks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() < sorted[j].Priority() })
	return &Chain{hooks: sorted}
}

// ErrNilEvent is returned by Dispatch when called with a nil event.
var ErrNilEvent = errors.New("hooks: event is required")

// Dispatch runs every hook in priority order against event. For Pre/Post
// events, each hook receives the previous hook's output (or the original
// event if no hook yet returned a replacement) so hooks compose like
// middleware; the final payload is returned to the caller. For chunk events
// every hook still runs (so observability hooks see every chunk) but the
// returned payload is always the original event, since chunk events are
// notification-only per the engine's contract.
//
// Dispatch stops and returns the error from the first hook that fails.
func (c *Chain) Dispatch(ctx context.Context, event Event) (Event, error) {
	if event == nil {
		return nil, ErrNilEvent
	}
	if c == nil {
		return event, nil
	}
	notifyOnly := isChunkEvent(event)
	current := event
	for _, h := range c.hooks {
		out, err := h.HandleEvent(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hooks: hook at priority %d: %w", h.Priority(), err)
		}
		if notifyOnly || out == nil {
			continue
		}
		current = out
	}
	if notifyOnly {
		return event, nil
	}
	return current, nil
}

func isChunkEvent(e Event) bool {
	switch e.Type() {
	case EventReasoningChunk, EventActingChunk:
		return true
	default:
		return false
	}
}
