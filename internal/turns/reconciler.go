package turns

// ReconcileStats reports what a reconciliation did. It exists for
// observability at the engine layer; the merge itself never fails.
type ReconcileStats struct {
	// SkippedMessages counts snapshot entries without a turn number.
	SkippedMessages int
	// MergedTurns counts turn numbers present in the snapshot.
	MergedTurns int
}

// CampaignStatus is the out-of-band state reported by the campaign
// endpoint alongside a history fetch: the turn the backend believes is
// current, and whether it is still producing output for it.
type CampaignStatus struct {
	CurrentTurn    int
	HasCurrentTurn bool
	IsProcessing   bool
}

// snapshotTurn is the turn state derived purely from snapshot entries,
// before merging with live state.
type snapshotTurn struct {
	input       *InputRecord
	final       *FinalRecord
	isStreaming bool
}

// Reconcile merges an authoritative history snapshot into the store.
//
// The durable store wins for completed output, live state wins for
// everything in flight: an existing input is never overwritten, the
// snapshot's final record replaces any existing one, streaming text and
// the streaming flag survive untouched (a stale snapshot must never
// erase "still working" state), and errors are left exactly as the
// reducer recorded them.
//
// Reconcile is idempotent — applying the same snapshot twice is the
// same as applying it once — and can only raise highestKnownTurn,
// never lower it, no matter how stale the snapshot is. An empty or
// malformed snapshot is a no-op.
func (s *Store) Reconcile(msgs []SnapshotMessage, status CampaignStatus) ReconcileStats {
	var stats ReconcileStats

	derived := make(map[int]*snapshotTurn)
	maxSnapshotTurn := 0
	for _, m := range msgs {
		if !m.HasTurnNumber || m.TurnNumber < 0 {
			stats.SkippedMessages++
			continue
		}
		st := derived[m.TurnNumber]
		if st == nil {
			st = &snapshotTurn{}
			derived[m.TurnNumber] = st
		}
		if m.TurnNumber > maxSnapshotTurn {
			maxSnapshotTurn = m.TurnNumber
		}
		switch m.ResponseType {
		case ResponseTurnInput:
			st.input = &InputRecord{
				PlayerInput:  m.PlayerInput,
				DMInput:      m.DMInput,
				CombinedText: m.Content,
			}
		case ResponseFinal:
			st.final = &FinalRecord{
				MessageID:     m.MessageID,
				Role:          m.Role,
				Content:       m.Content,
				CharacterName: m.CharacterName,
				HasAudio:      m.HasAudio,
				CompletedAt:   m.Timestamp,
			}
		}
	}
	stats.MergedTurns = len(derived)

	finalTurn := maxSnapshotTurn
	if status.HasCurrentTurn && status.CurrentTurn > finalTurn {
		finalTurn = status.CurrentTurn
	}

	// The backend told us work is in flight for a turn no push event
	// has mentioned yet (typical immediately after a reconnect): make
	// sure that turn exists and is marked streaming.
	if status.IsProcessing && status.HasCurrentTurn && status.CurrentTurn >= 0 {
		st := derived[status.CurrentTurn]
		if st == nil {
			st = &snapshotTurn{}
			derived[status.CurrentTurn] = st
		}
		st.isStreaming = true
	}

	for turnNumber, snap := range derived {
		t := s.ensure(turnNumber)
		if t.Input == nil && snap.input != nil {
			t.Input = snap.input
		}
		if snap.final != nil {
			t.FinalMessage = snap.final
		}
		t.IsStreaming = t.IsStreaming || snap.isStreaming
		// StreamingText and Error are live-side state; the snapshot
		// never carries either.
	}

	if finalTurn > s.highestKnown {
		s.highestKnown = finalTurn
	}
	return stats
}
