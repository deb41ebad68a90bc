// Package memory provides the append-only conversation log consumed and
// written by the ReAct pipelines. Memory is a pure append log: it performs no
// deduplication, no mutation of previously written messages, and no
// random-access editing.
package memory

import (
	"sync"

	"github.com/goreact/reactagent/message"
)

// Memory is an ordered, append-only log of conversation messages. Reads
// return a snapshot copy; writes are append-only. Implementations must be
// safe for concurrent use.
type Memory interface {
	// Append adds msgs to the end of the log, in order.
	Append(msgs ...message.Msg)

	// Snapshot returns a copy of the log's current contents. Mutating the
	// returned slice must not affect the log.
	Snapshot() []message.Msg

	// Last returns the most recently appended message and true, or a zero
	// Msg and false if the log is empty.
	Last() (message.Msg, bool)
}

type inmem struct {
	mu   sync.RWMutex
	msgs []message.Msg
}

// New returns an empty in-process Memory implementation.
func New() Memory {
	return &inmem{}
}

// NewWithHistory returns a Memory implementation pre-populated with the given
// snapshot of messages, preserving order. It is typically used to restore a
// prior run's conversation.
func NewWithHistory(history []message.Msg) Memory {
	m := &inmem{msgs: make([]message.Msg, len(history))}
	copy(m.msgs, history)
	return m
}

func (m *inmem) Append(msgs ...message.Msg) {
	if len(msgs) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msgs...)
}

func (m *inmem) Snapshot() []message.Msg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]message.Msg, len(m.msgs))
	copy(out, m.msgs)
	return out
}

func (m *inmem) Last() (message.Msg, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.msgs) == 0 {
		return message.Msg{}, false
	}
	return m.msgs[len(m.msgs)-1], true
}
