package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loreloom/internal/turns"
)

func TestDecodeTurnStarted(t *testing.T) {
	raw := []byte(`{"type":"turn_started","turn_number":5,"session_id":"sess-1"}`)

	ev, err := DecodePushEvent(raw)
	require.NoError(t, err)

	started, ok := ev.(turns.TurnStarted)
	require.True(t, ok, "expected TurnStarted, got %T", ev)
	assert.Equal(t, 5, started.TurnNumber)
	assert.Equal(t, "sess-1", started.SessionID)
}

func TestDecodeInputReceived(t *testing.T) {
	raw := []byte(`{
		"type": "input_received",
		"turn_number": 2,
		"session_id": "sess-1",
		"input_text": "combined prompt",
		"active_player_input": "I search the desk",
		"dm_input": "roll investigation"
	}`)

	ev, err := DecodePushEvent(raw)
	require.NoError(t, err)

	in, ok := ev.(turns.InputReceived)
	require.True(t, ok)
	assert.Equal(t, "combined prompt", in.InputText)
	assert.Equal(t, "I search the desk", in.PlayerInput)
	assert.Equal(t, "roll investigation", in.DMInput)
}

func TestDecodeTurnMessageFinal(t *testing.T) {
	raw := []byte(`{
		"type": "turn_message",
		"turn_number": 3,
		"response_type": "final",
		"content": "The lock clicks open.",
		"message_id": "m-33",
		"role": "narrator",
		"character_name": "DM",
		"has_audio": true,
		"timestamp": "2026-08-01T10:00:00Z"
	}`)

	ev, err := DecodePushEvent(raw)
	require.NoError(t, err)

	msg, ok := ev.(turns.TurnMessage)
	require.True(t, ok)
	assert.Equal(t, turns.ResponseFinal, msg.ResponseType)
	assert.Equal(t, "m-33", msg.MessageID)
	assert.True(t, msg.HasAudio)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), msg.Timestamp.UTC())
}

func TestDecodeTurnMessageMissingTimestampUsesLocalClock(t *testing.T) {
	raw := []byte(`{"type":"turn_message","turn_number":1,"response_type":"streaming","content":"x"}`)

	before := time.Now().UTC()
	ev, err := DecodePushEvent(raw)
	require.NoError(t, err)
	after := time.Now().UTC()

	msg := ev.(turns.TurnMessage)
	assert.False(t, msg.Timestamp.Before(before))
	assert.False(t, msg.Timestamp.After(after))
}

func TestDecodeTurnError(t *testing.T) {
	raw := []byte(`{"type":"turn_error","turn_number":4,"session_id":"sess-1","error":"model timeout"}`)

	ev, err := DecodePushEvent(raw)
	require.NoError(t, err)

	te, ok := ev.(turns.TurnError)
	require.True(t, ok)
	assert.Equal(t, "model timeout", te.Message)
}

func TestDecodeMissingTurnNumber(t *testing.T) {
	// Legal on the wire, unusable by the turn engine: nil event, nil
	// error, caller counts and drops it.
	raw := []byte(`{"type":"turn_started","session_id":"sess-1"}`)

	ev, err := DecodePushEvent(raw)
	assert.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDecodeUnknownKind(t *testing.T) {
	raw := []byte(`{"type":"dice_rolled","turn_number":1}`)

	_, err := DecodePushEvent(raw)
	var unknown ErrUnknownKind
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "dice_rolled", unknown.Kind)
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := DecodePushEvent([]byte(`{not json`))
	assert.Error(t, err)
}

func TestSnapshotMessagesConversion(t *testing.T) {
	n := 4
	msgs := SnapshotMessages([]HistoryMessage{
		{TurnNumber: &n, ResponseType: "final", Content: "done", MessageID: "m-1"},
		{Sender: "dm", Content: "legacy line"},
	})

	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].HasTurnNumber)
	assert.Equal(t, 4, msgs[0].TurnNumber)
	assert.False(t, msgs[1].HasTurnNumber)
}

func TestLedgerMessagesSkipsTurnStructured(t *testing.T) {
	n := 4
	out := LedgerMessages([]HistoryMessage{
		{TurnNumber: &n, ResponseType: "final", Content: "turn-structured"},
		{Sender: "dm", Content: "legacy line", MessageID: "b-1"},
		{Role: "player", Content: "role fallback"},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "dm", out[0].Sender)
	assert.Equal(t, "player", out[1].Sender, "role is the sender fallback")
}

func TestCampaignStateStatus(t *testing.T) {
	n := 7
	st := CampaignState{CurrentTurn: &n, IsProcessing: true}.Status()
	assert.True(t, st.HasCurrentTurn)
	assert.Equal(t, 7, st.CurrentTurn)
	assert.True(t, st.IsProcessing)

	empty := CampaignState{}.Status()
	assert.False(t, empty.HasCurrentTurn)
}
