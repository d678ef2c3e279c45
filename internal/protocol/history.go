package protocol

import (
	"time"

	"loreloom/internal/ledger"
	"loreloom/internal/turns"
)

// HistoryMessage is one record of the bulk history fetch. Turn-typed
// records carry a turn number and response type; legacy records carry
// only sender/text/timestamp and flow through the message ledger.
type HistoryMessage struct {
	TurnNumber    *int      `json:"turn_number,omitempty"`
	ResponseType  string    `json:"response_type,omitempty"`
	Content       string    `json:"content"`
	MessageID     string    `json:"message_id,omitempty"`
	Role          string    `json:"role,omitempty"`
	CharacterName string    `json:"character_name,omitempty"`
	HasAudio      bool      `json:"has_audio,omitempty"`
	PlayerInput   string    `json:"active_player_input,omitempty"`
	DMInput       string    `json:"dm_input,omitempty"`
	Sender        string    `json:"sender,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// CampaignState is the out-of-band campaign status fetched alongside
// history: the turn the backend is on and whether it is still working.
type CampaignState struct {
	CurrentTurn  *int `json:"current_turn"`
	IsProcessing bool `json:"is_processing"`
}

// Status converts the wire shape to the reconciler's input.
func (c CampaignState) Status() turns.CampaignStatus {
	s := turns.CampaignStatus{IsProcessing: c.IsProcessing}
	if c.CurrentTurn != nil {
		s.CurrentTurn = *c.CurrentTurn
		s.HasCurrentTurn = true
	}
	return s
}

// SnapshotMessages converts history records into the reconciler's
// snapshot form. Records without a turn number pass through with
// HasTurnNumber unset; the reconciler counts and skips them.
func SnapshotMessages(msgs []HistoryMessage) []turns.SnapshotMessage {
	out := make([]turns.SnapshotMessage, 0, len(msgs))
	for _, m := range msgs {
		sm := turns.SnapshotMessage{
			ResponseType:  turns.ResponseType(m.ResponseType),
			Content:       m.Content,
			MessageID:     m.MessageID,
			Role:          m.Role,
			CharacterName: m.CharacterName,
			HasAudio:      m.HasAudio,
			Timestamp:     m.Timestamp,
			PlayerInput:   m.PlayerInput,
			DMInput:       m.DMInput,
		}
		if m.TurnNumber != nil {
			sm.TurnNumber = *m.TurnNumber
			sm.HasTurnNumber = true
		}
		out = append(out, sm)
	}
	return out
}

// LedgerMessages converts the non-turn-structured records of a history
// fetch into ledger entries for the legacy transcript merge.
func LedgerMessages(msgs []HistoryMessage) []ledger.Message {
	out := make([]ledger.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.TurnNumber != nil {
			continue
		}
		sender := m.Sender
		if sender == "" {
			sender = m.Role
		}
		out = append(out, ledger.Message{
			ID:        m.MessageID,
			Sender:    sender,
			Text:      m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return out
}
