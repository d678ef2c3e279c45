// Package protocol defines the wire shapes loreloom consumes and
// resolves their duck-typed payloads into the typed events of
// internal/turns exactly once, at the boundary. Nothing past this
// package re-checks optional fields.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"loreloom/internal/turns"
)

// Push-channel frame kinds.
const (
	KindTurnStarted   = "turn_started"
	KindInputReceived = "input_received"
	KindTurnMessage   = "turn_message"
	KindTurnComplete  = "turn_complete"
	KindTurnError     = "turn_error"
)

// ErrUnknownKind is returned by DecodePushEvent for frame kinds this
// client does not understand. Callers treat it as a skippable frame,
// not a failure, so newer servers stay compatible.
type ErrUnknownKind struct {
	Kind string
}

func (e ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown push event kind %q", e.Kind)
}

// pushFrame is the superset of every push-channel payload. Which
// fields are meaningful depends on the type tag.
type pushFrame struct {
	Type       string `json:"type"`
	TurnNumber *int   `json:"turn_number"`
	SessionID  string `json:"session_id"`

	// input_received
	InputText   string `json:"input_text"`
	PlayerInput string `json:"active_player_input"`
	DMInput     string `json:"dm_input"`

	// turn_message
	ResponseType  string `json:"response_type"`
	Content       string `json:"content"`
	MessageID     string `json:"message_id"`
	ResponseIndex int    `json:"response_index"`
	Role          string `json:"role"`
	CharacterName string `json:"character_name"`
	HasAudio      bool   `json:"has_audio"`
	Timestamp     string `json:"timestamp"`

	// turn_error
	Error string `json:"error"`
}

// DecodePushEvent parses one push-channel frame into a typed event.
// Frames without a turn number decode to a nil event and nil error:
// they are legal on the wire but carry nothing the turn engine can
// use, so the caller drops them (counted, not raised).
func DecodePushEvent(raw []byte) (turns.Event, error) {
	var f pushFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode push frame: %w", err)
	}
	if f.TurnNumber == nil {
		return nil, nil
	}
	n := *f.TurnNumber

	switch f.Type {
	case KindTurnStarted:
		return turns.TurnStarted{TurnNumber: n, SessionID: f.SessionID}, nil

	case KindInputReceived:
		return turns.InputReceived{
			TurnNumber:  n,
			SessionID:   f.SessionID,
			InputText:   f.InputText,
			PlayerInput: f.PlayerInput,
			DMInput:     f.DMInput,
		}, nil

	case KindTurnMessage:
		return turns.TurnMessage{
			TurnNumber:    n,
			SessionID:     f.SessionID,
			ResponseType:  turns.ResponseType(f.ResponseType),
			Content:       f.Content,
			MessageID:     f.MessageID,
			ResponseIndex: f.ResponseIndex,
			Role:          f.Role,
			CharacterName: f.CharacterName,
			HasAudio:      f.HasAudio,
			PlayerInput:   f.PlayerInput,
			DMInput:       f.DMInput,
			Timestamp:     parseTimestamp(f.Timestamp),
		}, nil

	case KindTurnComplete:
		return turns.TurnComplete{TurnNumber: n, SessionID: f.SessionID}, nil

	case KindTurnError:
		return turns.TurnError{TurnNumber: n, SessionID: f.SessionID, Message: f.Error}, nil
	}
	return nil, ErrUnknownKind{Kind: f.Type}
}

// parseTimestamp interprets the server timestamp, falling back to the
// local clock when it is absent or unreadable. The decode boundary
// owns wall-clock access so the state machine behind it stays pure.
func parseTimestamp(s string) time.Time {
	if s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
