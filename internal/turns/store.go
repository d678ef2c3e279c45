package turns

import "sort"

// Store is the authoritative in-memory turn table for one session:
// turn number -> TurnState, plus the monotonic highest-known-turn
// counter and the optional marker for the turn currently being
// produced.
//
// Store is not safe for concurrent use; the owning session engine
// serializes access.
type Store struct {
	sessionID string

	byNumber      map[int]*TurnState
	highestKnown  int
	processing    int
	hasProcessing bool
}

// NewStore creates an empty store bound to sessionID.
func NewStore(sessionID string) *Store {
	return &Store{
		sessionID: sessionID,
		byNumber:  make(map[int]*TurnState),
	}
}

// SessionID returns the session the store is bound to.
func (s *Store) SessionID() string { return s.sessionID }

// Get returns a copy of the state for a turn number, or ok=false if the
// turn has never been referenced.
func (s *Store) Get(turnNumber int) (TurnState, bool) {
	t, ok := s.byNumber[turnNumber]
	if !ok {
		return TurnState{}, false
	}
	return *t, true
}

// Turns returns all known turns in ascending turn-number order.
func (s *Store) Turns() []TurnState {
	out := make([]TurnState, 0, len(s.byNumber))
	for _, t := range s.byNumber {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnNumber < out[j].TurnNumber })
	return out
}

// HighestKnownTurn returns the highest turn number seen from any
// source. It never decreases over the life of the store.
func (s *Store) HighestKnownTurn() int { return s.highestKnown }

// ProcessingTurn returns the turn currently being produced, if any.
func (s *Store) ProcessingTurn() (int, bool) { return s.processing, s.hasProcessing }

// IsProcessing reports whether any turn is currently under production:
// either the processing marker is set or some turn is still streaming.
func (s *Store) IsProcessing() bool {
	if s.hasProcessing {
		return true
	}
	for _, t := range s.byNumber {
		if t.IsStreaming {
			return true
		}
	}
	return false
}

// Len returns the number of known turns.
func (s *Store) Len() int { return len(s.byNumber) }

// ensure returns the state for turnNumber, creating an empty one on
// first reference. Any reference raises the highest-known ceiling.
func (s *Store) ensure(turnNumber int) *TurnState {
	t, ok := s.byNumber[turnNumber]
	if !ok {
		t = &TurnState{TurnNumber: turnNumber}
		s.byNumber[turnNumber] = t
	}
	if turnNumber > s.highestKnown {
		s.highestKnown = turnNumber
	}
	return t
}
