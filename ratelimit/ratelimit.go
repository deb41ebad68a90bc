// Package ratelimit provides an adaptive, AIMD-style token-bucket
// model.Client decorator. It estimates the token cost of each request,
// blocks callers until capacity is available, and adjusts its effective
// tokens-per-minute budget in response to rate-limiting signals from the
// provider.
//
// The limiter is process-local: it sits at the provider client boundary and
// is composed by the host application in front of whatever concrete
// model.Client it uses. The core engine never constructs one itself.
package ratelimit

import (
	"context"
	"io"
	"sync"

	"golang.org/x/time/rate"

	"github.com/goreact/reactagent/message"
	"github.com/goreact/reactagent/model"
)

// Config configures an adaptive rate limiter's tokens-per-minute budget and
// its response to backoff/probe signals.
type Config struct {
	// InitialTPM is the starting tokens-per-minute budget. Non-positive
	// values default to a conservative 60000.
	InitialTPM float64
	// MinTPM is the floor the budget backs off to under sustained rate
	// limiting. Non-positive values default to 10% of InitialTPM.
	MinTPM float64
	// MaxTPM is the ceiling the budget probes back up to after a period of
	// clean calls. Values below InitialTPM are clamped to InitialTPM.
	MaxTPM float64
	// RecoveryRate is how many tokens per minute the budget grows by on
	// each successful call, up to MaxTPM. Non-positive values default to
	// 5% of InitialTPM.
	RecoveryRate float64
	// OnBackoff, when set, is invoked with the new budget whenever the
	// limiter backs off in response to a rate-limited call.
	OnBackoff func(newTPM float64)
	// OnProbe, when set, is invoked with the new budget whenever the
	// limiter grows its budget after a clean call.
	OnProbe func(newTPM float64)
}

// adaptiveLimiter applies an AIMD-style adaptive token bucket on top of a
// model.Client.
type adaptiveLimiter struct {
	mu sync.Mutex

	limiter *rate.Limiter

	currentTPM float64
	minTPM     float64
	maxTPM     float64

	recoveryRate float64

	onBackoff func(newTPM float64)
	onProbe   func(newTPM float64)
}

type limitedClient struct {
	next    model.Client
	limiter *adaptiveLimiter
}

type limitedStreamer struct {
	next    model.Streamer
	limiter *adaptiveLimiter
}

// Wrap returns a model.Client decorator enforcing cfg's adaptive
// tokens-per-minute budget around every Stream call to next.
func Wrap(next model.Client, cfg Config) model.Client {
	if next == nil {
		return nil
	}
	return &limitedClient{next: next, limiter: newAdaptiveLimiter(cfg)}
}

func newAdaptiveLimiter(cfg Config) *adaptiveLimiter {
	initialTPM := cfg.InitialTPM
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	maxTPM := cfg.MaxTPM
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := cfg.MinTPM
	if minTPM <= 0 {
		minTPM = initialTPM * 0.1
	}
	if minTPM < 1 {
		minTPM = 1
	}
	recoveryRate := cfg.RecoveryRate
	if recoveryRate <= 0 {
		recoveryRate = initialTPM * 0.05
	}
	if recoveryRate < 1 {
		recoveryRate = 1
	}

	return &adaptiveLimiter{
		limiter:      rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM:   initialTPM,
		minTPM:       minTPM,
		maxTPM:       maxTPM,
		recoveryRate: recoveryRate,
		onBackoff:    cfg.OnBackoff,
		onProbe:      cfg.OnProbe,
	}
}

// Stream enforces the limiter before delegating to the wrapped client, and
// observes the outcome of the call (and, once draining begins, of the
// stream itself) to adjust the budget.
func (c *limitedClient) Stream(ctx context.Context, msgs []message.Msg, tools []*model.ToolDefinition, opts model.Options) (model.Streamer, error) {
	if err := c.limiter.wait(ctx, msgs); err != nil {
		return nil, err
	}
	streamer, err := c.next.Stream(ctx, msgs, tools, opts)
	c.limiter.observe(err)
	if err != nil {
		return nil, err
	}
	return &limitedStreamer{next: streamer, limiter: c.limiter}, nil
}

// Recv delegates to the wrapped streamer, observing a terminal non-EOF error
// so the limiter can react to a rate-limit signal surfaced mid-stream.
func (s *limitedStreamer) Recv() (model.ChatResponse, error) {
	resp, err := s.next.Recv()
	if err != nil && err != io.EOF {
		s.limiter.observe(err)
	}
	return resp, err
}

func (s *limitedStreamer) Close() error { return s.next.Close() }

func (l *adaptiveLimiter) wait(ctx context.Context, msgs []message.Msg) error {
	return l.limiter.WaitN(ctx, estimateTokens(msgs))
}

func (l *adaptiveLimiter) observe(err error) {
	if err == nil {
		l.probe()
		return
	}
	if model.IsRetryable(err) {
		l.backoff()
	}
}

func (l *adaptiveLimiter) backoff() {
	l.mu.Lock()
	newTPM := l.currentTPM * 0.5
	if newTPM < l.minTPM {
		newTPM = l.minTPM
	}
	if newTPM == l.currentTPM {
		l.mu.Unlock()
		return
	}
	l.currentTPM = newTPM
	l.limiter.SetLimit(rate.Limit(newTPM / 60.0))
	l.limiter.SetBurst(int(newTPM))
	cb := l.onBackoff
	l.mu.Unlock()

	if cb != nil {
		cb(newTPM)
	}
}

func (l *adaptiveLimiter) probe() {
	l.mu.Lock()
	newTPM := l.currentTPM + l.recoveryRate
	if newTPM > l.maxTPM {
		newTPM = l.maxTPM
	}
	if newTPM == l.currentTPM {
		l.mu.Unlock()
		return
	}
	l.currentTPM = newTPM
	l.limiter.SetLimit(rate.Limit(newTPM / 60.0))
	l.limiter.SetBurst(int(newTPM))
	cb := l.onProbe
	l.mu.Unlock()

	if cb != nil {
		cb(newTPM)
	}
}

// estimateTokens computes a cheap heuristic for the number of tokens in the
// request transcript: it counts characters in text content and tool-result
// text, converts to tokens using a fixed ratio, and adds a fixed buffer for
// system prompts and provider framing.
func estimateTokens(msgs []message.Msg) int {
	charCount := 0
	for _, m := range msgs {
		for _, c := range m.Content {
			switch v := c.(type) {
			case message.Text:
				charCount += len(v.Text)
			case message.ToolResult:
				for _, o := range v.Output {
					if t, ok := o.(message.Text); ok {
						charCount += len(t.Text)
					}
				}
			}
		}
	}
	if charCount <= 0 {
		return 500
	}
	tokens := charCount / 3
	if tokens < 1 {
		tokens = 1
	}
	return tokens + 500
}
