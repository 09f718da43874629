package stream

import (
	"strings"
	"sync"

	"github.com/aidoc-labs/aidoc-go/internal/api"
)

// Transcript is the local view of one conversation: the persisted message
// list plus at most one in-flight assistant message accumulating deltas.
// After an exchange resolves, the server's message list replaces local
// state wholesale so the two never drift.
type Transcript struct {
	mu             sync.RWMutex
	conversationID string
	messages       []api.Message
	inflight       strings.Builder
	active         bool
	partial        bool
}

// NewTranscript creates a Transcript. The id may be empty for a
// conversation the first exchange will create.
func NewTranscript(conversationID string) *Transcript {
	return &Transcript{conversationID: conversationID}
}

// ConversationID returns the adopted conversation id.
func (t *Transcript) ConversationID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conversationID
}

// Begin appends the user's question and opens the in-flight assistant
// message for the exchange that follows.
func (t *Transcript) Begin(question string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, api.Message{Role: api.RoleUser, Content: question})
	t.inflight.Reset()
	t.active = true
	t.partial = false
}

// AppendDelta extends the in-flight assistant message. Deltas arriving
// outside an exchange are ignored.
func (t *Transcript) AppendDelta(delta string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.inflight.WriteString(delta)
}

// Adopt records the conversation id the exchange was persisted under.
// Empty ids are ignored so an adopted id is never lost.
func (t *Transcript) Adopt(conversationID string) {
	if conversationID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conversationID = conversationID
}

// ResolveAuthoritative replaces all local messages with the persisted list
// and closes the in-flight message. Server ids and timestamps win over
// anything assembled locally.
func (t *Transcript) ResolveAuthoritative(messages []api.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append([]api.Message(nil), messages...)
	t.inflight.Reset()
	t.active = false
	t.partial = false
}

// Abandon closes the in-flight message after a failed or cancelled
// exchange, keeping any partial text as a message marked non-final.
func (t *Transcript) Abandon() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	if t.inflight.Len() > 0 {
		t.messages = append(t.messages, api.Message{Role: api.RoleAssistant, Content: t.inflight.String()})
		t.partial = true
	}
	t.inflight.Reset()
	t.active = false
}

// Messages returns a snapshot of the transcript including the in-flight
// assistant message, if one has text.
func (t *Transcript) Messages() []api.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := append([]api.Message(nil), t.messages...)
	if t.active && t.inflight.Len() > 0 {
		out = append(out, api.Message{Role: api.RoleAssistant, Content: t.inflight.String()})
	}
	return out
}

// Partial reports whether the latest assistant message is the remnant of
// an exchange that did not complete.
func (t *Transcript) Partial() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.partial
}
