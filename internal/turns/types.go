// Package turns implements the turn reconciliation core for loreloom.
//
// A session's turn log is assembled from three unsynchronized sources:
// locally-originated optimistic writes, the push channel's incremental
// events, and the periodically refetched authoritative history snapshot.
// This package merges all three into a single ordered, duplicate-free
// sequence of turns whose highest-known counter never regresses.
//
// The package is a plain state machine: no I/O, no logging, no globals.
// Callers bind it to a session by constructing a Store with the session
// ID and pass every input explicitly.
package turns

import "time"

// InputRecord describes what produced a turn: the active player's
// contribution, any observer contributions, the DM's contribution, and
// the combined prompt text that was actually submitted.
type InputRecord struct {
	PlayerInput    string
	ObserverInputs []string
	DMInput        string
	CombinedText   string
}

// FinalRecord is the completed output of a turn.
type FinalRecord struct {
	MessageID     string
	Role          string
	Content       string
	CharacterName string
	HasAudio      bool
	CompletedAt   time.Time
}

// TurnState is the merged view of a single turn. Identity is the turn
// number, which is stable and monotonic within a session.
//
// Input is set at most once and never replaced by nil. StreamingText
// only grows by append while the turn is active; it is cleared by a
// session reset, never by a merge. Error and FinalMessage are not
// mutually exclusive: a late error does not discard a committed final,
// and vice versa.
type TurnState struct {
	TurnNumber    int
	Input         *InputRecord
	StreamingText string
	FinalMessage  *FinalRecord
	IsStreaming   bool
	Error         string
}

// ResponseType categorizes a turn-scoped message: structured input,
// in-flight streaming text, or completed final output.
type ResponseType string

const (
	ResponseTurnInput ResponseType = "turn_input"
	ResponseStreaming ResponseType = "streaming"
	ResponseFinal     ResponseType = "final"
)

// SnapshotMessage is one entry of an authoritative history snapshot,
// already decoded from the wire. Entries without a turn number are
// skipped (and counted) by Reconcile rather than treated as errors.
type SnapshotMessage struct {
	TurnNumber    int
	HasTurnNumber bool
	ResponseType  ResponseType
	Content       string
	MessageID     string
	Role          string
	CharacterName string
	HasAudio      bool
	Timestamp     time.Time
	PlayerInput   string
	DMInput       string
}
