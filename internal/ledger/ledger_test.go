package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 8, 1, 18, 0, 0, 0, time.UTC)

func TestAppendLocalAssignsIdentityAndSeq(t *testing.T) {
	l := New("sess-1")

	m1 := l.AppendLocal("player", "I open the door", t0)
	m2 := l.AppendLocal("player", "slowly", t0.Add(time.Second))

	assert.NotEmpty(t, m1.ID)
	assert.NotEqual(t, m1.ID, m2.ID)
	assert.True(t, m1.IsLocal)
	assert.Less(t, m1.Seq, m2.Seq)
}

func TestMessagesOrderedBySeqThenTimestamp(t *testing.T) {
	l := New("sess-1")
	l.Append("b-2", "dm", "second", t0.Add(2*time.Second))
	l.Append("b-1", "dm", "first", t0)

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	// Insertion counter wins over timestamp.
	assert.Equal(t, "second", msgs[0].Text)
	assert.Equal(t, "first", msgs[1].Text)
}

func TestResetRestartsCounter(t *testing.T) {
	l := New("sess-1")
	l.AppendLocal("player", "hello", t0)
	l.Reset()

	assert.Zero(t, l.Len())
	m := l.AppendLocal("player", "again", t0)
	assert.Equal(t, 1, m.Seq, "counter resets with the session")
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, normalizeText("  The  DRAGON\nroars "), "the dragon roars")
}
