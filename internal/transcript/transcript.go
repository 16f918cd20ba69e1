// Package transcript holds the append-only conversation record of a session.
//
// Entries are immutable once appended and keep insertion order; the record
// is only ever emptied when the session swaps its backing agent. Every
// entry carries a stable ID so a photo can be tied to exactly one turn.
package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a transcript entry.
type Role string

// Valid roles. The conversation strictly alternates between them.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is a single conversation element.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transcript is the ordered record of one conversation. Safe for concurrent
// use. The zero value is not useful, use New.
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{entries: make([]Entry, 0)}
}

// AppendUser appends a user entry and returns it. The returned entry's ID
// is the identifier an attachment for this turn binds to.
func (t *Transcript) AppendUser(content string) Entry {
	return t.append(RoleUser, content)
}

// AppendAssistant appends an assistant entry and returns it.
func (t *Transcript) AppendAssistant(content string) Entry {
	return t.append(RoleAssistant, content)
}

func (t *Transcript) append(role Role, content string) Entry {
	e := Entry{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	return e
}

// Entries returns a copy of all entries in insertion order. Rendering the
// result any number of times observes the same state.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Last returns the most recent entry, if any.
func (t *Transcript) Last() (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

// Clear removes all entries. Called only when the session replaces its
// agent; history cannot carry over to a different backing credential.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make([]Entry, 0)
}
