package engine

import "time"

// UpdateKind names what part of the merged view changed.
type UpdateKind int

const (
	UpdateTurn       UpdateKind = iota // One turn's state changed
	UpdateReconcile                    // A history snapshot was merged
	UpdateNarration                    // The narration buffer changed
	UpdateTranscript                   // The legacy ledger changed
	UpdateReset                        // The session was cleared
)

// Update is a change notification for the rendering layer.
type Update struct {
	Kind       UpdateKind
	TurnNumber int // Meaningful for UpdateTurn only
}

// Subscribe returns a buffered channel of change notifications.
// Emission never blocks: if a subscriber falls behind, notifications
// for it are dropped (the next read of Turns() is always complete, so
// a dropped tick only delays a repaint).
func (s *Session) Subscribe() <-chan Update {
	ch := make(chan Update, 64)
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Session) Unsubscribe(ch <-chan Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, sub := range s.subscribers {
		if (<-chan Update)(sub) == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close shuts down all subscriber channels.
func (s *Session) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subscribers {
		close(sub)
	}
	s.subscribers = nil
}

func (s *Session) notify(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, sub := range s.subscribers {
		select {
		case sub <- u:
		default:
		}
	}
}

func nowUTC() time.Time { return time.Now().UTC() }
