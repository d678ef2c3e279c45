// Package stream implements the incremental text accumulator that
// assembles in-flight narration fragments into a whole string, one
// buffer per session. It knows nothing about turns; both the turn
// engine and the legacy transcript path feed it.
package stream

import "sync"

// buffer holds the accumulated text for one session along with its
// active (still streaming) and terminal (final fragment seen) flags.
type buffer struct {
	text   string
	active bool
	final  bool
}

// UpdateOpts controls how a fragment is folded into the buffer.
type UpdateOpts struct {
	// Append forces append (true) or replace (false). When nil, the
	// fragment appends iff a non-empty buffer already exists.
	Append *bool
	// Streaming marks the buffer as actively being produced.
	Streaming bool
	// Final marks this fragment as terminal. A final update with an
	// empty fragment preserves the existing buffer rather than
	// blanking content that has already rendered.
	Final bool
}

// Accumulator is a set of per-session text buffers. Safe for
// concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	buffers map[string]*buffer
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{buffers: make(map[string]*buffer)}
}

// Update folds a fragment into the session's buffer and returns the
// resulting text.
func (a *Accumulator) Update(sessionID, fragment string, opts UpdateOpts) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := a.buffers[sessionID]
	if b == nil {
		b = &buffer{}
		a.buffers[sessionID] = b
	}

	if opts.Final && fragment == "" {
		b.active = false
		b.final = true
		return b.text
	}

	appendMode := b.text != ""
	if opts.Append != nil {
		appendMode = *opts.Append
	}
	if appendMode {
		b.text += fragment
	} else {
		b.text = fragment
	}

	b.active = opts.Streaming && !opts.Final
	if opts.Final {
		b.final = true
	} else if opts.Streaming {
		// A fresh streaming fragment reopens a previously final buffer.
		b.final = false
	}
	return b.text
}

// Text returns the accumulated text for a session ("" if none).
func (a *Accumulator) Text(sessionID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b := a.buffers[sessionID]; b != nil {
		return b.text
	}
	return ""
}

// IsActive reports whether the session's buffer is still streaming.
func (a *Accumulator) IsActive(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.buffers[sessionID]
	return b != nil && b.active
}

// IsFinal reports whether a terminal fragment has been seen.
func (a *Accumulator) IsFinal(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.buffers[sessionID]
	return b != nil && b.final
}

// Clear discards the session's buffer. Used on session switch.
func (a *Accumulator) Clear(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.buffers, sessionID)
}

// Reset discards every buffer.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffers = make(map[string]*buffer)
}
