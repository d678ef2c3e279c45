// Package ledger implements the legacy timestamp-keyed session
// transcript used by flows that predate turn numbering. It performs
// the same three-way merge as the turn engine — local optimistic
// writes, push-delivered messages, fetched history — but keyed by
// message identity and text/time proximity instead of turn number.
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DedupeWindow bounds how far apart in time two messages with the same
// sender and normalized-equal text may be and still collapse to one
// entry. Protects against a final delivery arriving once via push and
// once via refetch. Fixed for now; whether it should scale with
// observed network latency is an open product question.
const DedupeWindow = 2 * time.Minute

// Message is one transcript entry.
type Message struct {
	// ID is the backend identity when known, or a locally generated
	// UUID for optimistic entries.
	ID        string
	Sender    string
	Text      string
	Timestamp time.Time
	// IsLocal marks an optimistic entry not yet confirmed by the
	// backend. Confirmed entries carry the backend's identity.
	IsLocal bool
	// Seq is the insertion-order counter; ordering uses it first and
	// falls back to the timestamp when comparing entries from
	// different merge generations.
	Seq int
}

// Ledger is a session-scoped, ordered message list. Not safe for
// concurrent use; the owning engine serializes access.
type Ledger struct {
	sessionID string
	seq       int
	messages  []Message
}

// New creates an empty ledger bound to sessionID.
func New(sessionID string) *Ledger {
	return &Ledger{sessionID: sessionID}
}

// SessionID returns the session the ledger is bound to.
func (l *Ledger) SessionID() string { return l.sessionID }

// next returns the next insertion-order counter value. The counter is
// owned by the ledger and resets with it on session clear.
func (l *Ledger) next() int {
	l.seq++
	return l.seq
}

// AppendLocal records an optimistic entry written before any server
// acknowledgment. It is assigned a local UUID identity and retained
// across merges until the backend confirms or supersedes it.
func (l *Ledger) AppendLocal(sender, text string, at time.Time) Message {
	m := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: at,
		IsLocal:   true,
		Seq:       l.next(),
	}
	l.messages = append(l.messages, m)
	return m
}

// Append records a push-delivered entry that already carries a backend
// identity.
func (l *Ledger) Append(id, sender, text string, at time.Time) Message {
	m := Message{
		ID:        id,
		Sender:    sender,
		Text:      text,
		Timestamp: at,
		Seq:       l.next(),
	}
	l.messages = append(l.messages, m)
	return m
}

// Messages returns the transcript ordered by insertion counter, then
// timestamp.
func (l *Ledger) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	sortMessages(out)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.messages) }

// Reset discards all entries and restarts the insertion counter.
func (l *Ledger) Reset() {
	l.messages = nil
	l.seq = 0
}

// normalizeText collapses whitespace and case so that cosmetic
// differences between a push delivery and its refetched twin do not
// defeat deduplication.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func sortMessages(ms []Message) {
	// Insertion sort keeps equal-Seq entries stable; transcripts are
	// small enough that this never matters for speed.
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && messageLess(ms[j], ms[j-1]); j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}

func messageLess(a, b Message) bool {
	if a.Seq != 0 && b.Seq != 0 && a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Seq < b.Seq
}
