package turns

import "time"

// Event is one discrete push-channel event addressed to a single turn.
// The duck-typed wire payloads are resolved into these concrete types
// once, at the protocol boundary; the reducer never re-checks optional
// fields.
type Event interface {
	// Turn returns the turn number the event addresses.
	Turn() int
	// Session returns the session the event belongs to. Events for a
	// session other than the Store's bound session are ignored.
	Session() string
}

// TurnStarted announces that production of a turn has begun.
type TurnStarted struct {
	TurnNumber int
	SessionID  string
}

func (e TurnStarted) Turn() int       { return e.TurnNumber }
func (e TurnStarted) Session() string { return e.SessionID }

// InputReceived carries the captured input for a turn. The combined
// text is authoritative; the structured player/DM fields are optional.
type InputReceived struct {
	TurnNumber  int
	SessionID   string
	InputText   string
	PlayerInput string
	DMInput     string
}

func (e InputReceived) Turn() int       { return e.TurnNumber }
func (e InputReceived) Session() string { return e.SessionID }

// TurnMessage is a turn-scoped message fragment. Its effect depends on
// ResponseType: turn_input replaces the turn's input record, streaming
// appends to the accumulation buffer, final commits the completed
// output. Unknown response types are a no-op for forward compatibility.
type TurnMessage struct {
	TurnNumber    int
	SessionID     string
	ResponseType  ResponseType
	Content       string
	MessageID     string
	ResponseIndex int
	Role          string
	CharacterName string
	HasAudio      bool
	PlayerInput   string
	DMInput       string
	// Timestamp is the server timestamp when present, otherwise the
	// local receive time filled in at the decode boundary.
	Timestamp time.Time
}

func (e TurnMessage) Turn() int       { return e.TurnNumber }
func (e TurnMessage) Session() string { return e.SessionID }

// TurnComplete signals that a turn is over, whether or not a final
// record ever arrived (the DM may end a turn without output).
type TurnComplete struct {
	TurnNumber int
	SessionID  string
}

func (e TurnComplete) Turn() int       { return e.TurnNumber }
func (e TurnComplete) Session() string { return e.SessionID }

// TurnError records a turn-level failure.
type TurnError struct {
	TurnNumber int
	SessionID  string
	Message    string
}

func (e TurnError) Turn() int       { return e.TurnNumber }
func (e TurnError) Session() string { return e.SessionID }
