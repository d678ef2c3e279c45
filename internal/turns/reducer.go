package turns

// Apply merges one push-channel event into the store and reports
// whether the event was applied. Events bound to a different session
// are a no-op, not an error: the transport may legitimately broadcast
// events for sessions this engine instance is not watching.
//
// All mutation is local to the addressed turn; no event touches any
// other turn's state. Within one turn the transport preserves the
// start -> input -> streaming* -> final|error -> complete order; across
// turns, order is irrelevant.
func (s *Store) Apply(ev Event) bool {
	if ev == nil {
		return false
	}
	// turn_message frames arrive on an already session-scoped channel
	// and may omit the session ID; only an explicit mismatch is foreign.
	if sid := ev.Session(); sid != "" && sid != s.sessionID {
		return false
	}
	if ev.Turn() < 0 {
		return false
	}

	switch e := ev.(type) {
	case TurnStarted:
		// The push channel is at-least-once; a re-delivered start must
		// not erase fragments that already accumulated on this turn.
		t := s.ensure(e.TurnNumber)
		t.IsStreaming = true
		s.processing = e.TurnNumber
		s.hasProcessing = true

	case InputReceived:
		t := s.ensure(e.TurnNumber)
		if t.Input == nil {
			t.Input = &InputRecord{
				PlayerInput:  e.PlayerInput,
				DMInput:      e.DMInput,
				CombinedText: e.InputText,
			}
		}
		// Receipt of input implies production has begun.
		t.IsStreaming = true

	case TurnMessage:
		s.applyMessage(e)

	case TurnComplete:
		t := s.ensure(e.TurnNumber)
		t.IsStreaming = false
		if s.hasProcessing && s.processing == e.TurnNumber {
			s.hasProcessing = false
		}

	case TurnError:
		t := s.ensure(e.TurnNumber)
		t.Error = e.Message
		t.IsStreaming = false
		if s.hasProcessing && s.processing == e.TurnNumber {
			s.hasProcessing = false
		}

	default:
		return false
	}
	return true
}

func (s *Store) applyMessage(e TurnMessage) {
	t := s.ensure(e.TurnNumber)

	switch e.ResponseType {
	case ResponseTurnInput:
		// The structured payload replaces any auto-constructed record
		// built from an earlier input_received event.
		t.Input = &InputRecord{
			PlayerInput:  e.PlayerInput,
			DMInput:      e.DMInput,
			CombinedText: e.Content,
		}

	case ResponseStreaming:
		t.StreamingText += e.Content
		t.IsStreaming = true

	case ResponseFinal:
		t.FinalMessage = &FinalRecord{
			MessageID:     e.MessageID,
			Role:          e.Role,
			Content:       e.Content,
			CharacterName: e.CharacterName,
			HasAudio:      e.HasAudio,
			CompletedAt:   e.Timestamp,
		}
		t.IsStreaming = false

	default:
		// Unknown response types are ignored so newer servers can add
		// kinds without breaking older clients.
	}
}
