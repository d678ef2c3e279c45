// Package engine binds the pure turn reconciliation core to a live
// session: it serializes the push goroutine and the fetch goroutine
// onto one TurnStore, feeds streaming fragments into the narration
// accumulator, maintains the legacy transcript ledger, and notifies
// subscribers when the merged view changes.
package engine

import (
	"sync"

	"loreloom/internal/ledger"
	"loreloom/internal/logging"
	"loreloom/internal/protocol"
	"loreloom/internal/stream"
	"loreloom/internal/turns"
)

// Recorder persists reconciled turn state so a later start can warm up
// from the local cache instead of an empty store. Implemented by the
// sqlite cache in internal/store.
type Recorder interface {
	SaveTurns(sessionID string, states []turns.TurnState) error
}

// Session owns all per-session state. All methods are safe for
// concurrent use; the inner state machine itself stays single-threaded
// behind the session mutex.
type Session struct {
	mu        sync.Mutex
	sessionID string
	store     *turns.Store
	acc       *stream.Accumulator
	ledger    *ledger.Ledger

	// droppedEvents counts foreign-session or turn-less frames. They
	// are legal on a broadcast channel, so they are counted, never
	// raised.
	droppedEvents int

	recorder Recorder

	subMu       sync.Mutex
	subscribers []chan Update
}

// NewSession creates a session engine bound to sessionID.
func NewSession(sessionID string) *Session {
	return &Session{
		sessionID: sessionID,
		store:     turns.NewStore(sessionID),
		acc:       stream.New(),
		ledger:    ledger.New(sessionID),
	}
}

// SessionID returns the bound session.
func (s *Session) SessionID() string { return s.sessionID }

// SetRecorder wires a persistence sink for reconciled turn state.
func (s *Session) SetRecorder(r Recorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// HandleEvent applies one decoded push event. A nil event (a frame
// with nothing the turn engine can use) and foreign-session events are
// dropped and counted.
func (s *Session) HandleEvent(ev turns.Event) {
	if ev == nil {
		s.mu.Lock()
		s.droppedEvents++
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	applied := s.store.Apply(ev)
	if !applied {
		s.droppedEvents++
		s.mu.Unlock()
		logging.EngineDebug("dropped foreign event: session=%s turn=%d", ev.Session(), ev.Turn())
		return
	}

	// Streaming fragments also feed the shared narration buffer so the
	// legacy render path sees the same in-flight text.
	if m, ok := ev.(turns.TurnMessage); ok && m.ResponseType == turns.ResponseStreaming {
		s.acc.Update(s.sessionID, m.Content, stream.UpdateOpts{Streaming: true})
	}
	turn := ev.Turn()
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateTurn, TurnNumber: turn})
}

// HandleNarration feeds a chunk from the external narrative feed into
// the accumulator and, when terminal, into the legacy ledger.
func (s *Session) HandleNarration(fragment string, streaming, final bool) string {
	s.mu.Lock()
	text := s.acc.Update(s.sessionID, fragment, stream.UpdateOpts{Streaming: streaming, Final: final})
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateNarration})
	return text
}

// ReconcileHistory merges an authoritative snapshot plus the campaign
// state into the turn store, routes legacy records through the ledger,
// and persists the merged result when a recorder is wired.
func (s *Session) ReconcileHistory(msgs []protocol.HistoryMessage, state protocol.CampaignState) turns.ReconcileStats {
	s.mu.Lock()
	stats := s.store.Reconcile(protocol.SnapshotMessages(msgs), state.Status())
	if legacy := protocol.LedgerMessages(msgs); len(legacy) > 0 {
		s.ledger.MergeHistory(legacy)
	}
	states := s.store.Turns()
	recorder := s.recorder
	s.mu.Unlock()

	logging.Engine("reconciled history: session=%s messages=%d merged=%d skipped=%d highest=%d",
		s.sessionID, len(msgs), stats.MergedTurns, stats.SkippedMessages, s.HighestKnownTurn())

	if recorder != nil {
		if err := recorder.SaveTurns(s.sessionID, states); err != nil {
			logging.Get(logging.CategoryEngine).Warn("turn cache save failed: %v", err)
		}
	}

	s.notify(Update{Kind: UpdateReconcile})
	return stats
}

// ReconcileSnapshot merges already-decoded snapshot messages, e.g. the
// warm-start read from the local turn cache. Same precedence rules as
// ReconcileHistory; the local cache is just another stale snapshot.
func (s *Session) ReconcileSnapshot(msgs []turns.SnapshotMessage, status turns.CampaignStatus) turns.ReconcileStats {
	s.mu.Lock()
	stats := s.store.Reconcile(msgs, status)
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateReconcile})
	return stats
}

// Turns returns the merged turn log in ascending turn-number order.
func (s *Session) Turns() []turns.TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Turns()
}

// Turn returns a single turn's merged state.
func (s *Session) Turn(turnNumber int) (turns.TurnState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(turnNumber)
}

// HighestKnownTurn returns the monotonic highest-known turn counter.
func (s *Session) HighestKnownTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.HighestKnownTurn()
}

// ProcessingTurn returns the turn currently under production, if any.
func (s *Session) ProcessingTurn() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ProcessingTurn()
}

// IsProcessing reports whether any turn is currently being produced.
func (s *Session) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.IsProcessing()
}

// Narration returns the accumulated in-flight narration text.
func (s *Session) Narration() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Text(s.sessionID)
}

// Transcript returns the legacy message ledger in display order.
func (s *Session) Transcript() []ledger.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Messages()
}

// AppendLocalMessage records an optimistic transcript entry.
func (s *Session) AppendLocalMessage(sender, text string) ledger.Message {
	s.mu.Lock()
	m := s.ledger.AppendLocal(sender, text, nowUTC())
	s.mu.Unlock()
	s.notify(Update{Kind: UpdateTranscript})
	return m
}

// DroppedEvents returns how many frames were ignored as foreign or
// turn-less.
func (s *Session) DroppedEvents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.droppedEvents
}

// Reset atomically clears all per-session state: turn store, narration
// buffers, and the ledger (including its insertion counter). Used when
// switching campaigns. No partial clear is ever visible.
func (s *Session) Reset() {
	s.mu.Lock()
	s.store = turns.NewStore(s.sessionID)
	s.acc.Reset()
	s.ledger.Reset()
	s.droppedEvents = 0
	s.mu.Unlock()

	logging.Engine("session reset: session=%s", s.sessionID)
	s.notify(Update{Kind: UpdateReset})
}
