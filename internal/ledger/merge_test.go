package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeReplacesByIdentity(t *testing.T) {
	l := New("sess-1")
	l.Append("b-1", "dm", "draft text", t0)

	l.MergeHistory([]Message{
		{ID: "b-1", Sender: "dm", Text: "corrected text", Timestamp: t0},
	})

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "corrected text", msgs[0].Text)
	assert.False(t, msgs[0].IsLocal)
}

func TestMergeReplacesLocalByTimestamp(t *testing.T) {
	l := New("sess-1")
	local := l.AppendLocal("player", "I sneak past", t0)

	l.MergeHistory([]Message{
		{ID: "b-9", Sender: "player", Text: "I sneak past", Timestamp: t0},
	})

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "b-9", msgs[0].ID, "backend identity supersedes the optimistic UUID")
	assert.False(t, msgs[0].IsLocal)
	assert.Equal(t, local.Seq, msgs[0].Seq, "replacement keeps the insertion slot")
}

func TestMergeRetainsUnconfirmedLocal(t *testing.T) {
	l := New("sess-1")
	l.AppendLocal("player", "not yet acked", t0)

	l.MergeHistory([]Message{
		{ID: "b-1", Sender: "dm", Text: "something else", Timestamp: t0.Add(time.Minute)},
	})

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsLocal, "optimistic entry survives until confirmed")
}

func TestMergeDropsStaleNonLocal(t *testing.T) {
	l := New("sess-1")
	l.Append("gone-1", "dm", "deleted upstream", t0)

	l.MergeHistory([]Message{
		{ID: "b-2", Sender: "dm", Text: "current", Timestamp: t0.Add(time.Second)},
	})

	msgs := l.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "b-2", msgs[0].ID)
}

func TestMergeCollapsesDuplicateDeliveries(t *testing.T) {
	// An optimistic write is retained (the backend stamped it with its
	// own timestamp, so exact-equality matching misses), and the
	// refetch delivers the confirmed twin seconds later. Both survive
	// matching; the window dedupe must collapse them.
	l := New("sess-1")
	local := l.AppendLocal("player", "I attack the troll", t0)

	l.MergeHistory([]Message{
		{ID: "b-7", Sender: "player", Text: "I attack  the troll", Timestamp: t0.Add(3 * time.Second)},
	})

	msgs := l.Messages()
	require.Len(t, msgs, 1, "near-duplicates inside the window collapse")
	assert.Equal(t, "b-7", msgs[0].ID, "the identity-bearing entry survives")
	assert.Equal(t, local.Seq, msgs[0].Seq, "the collapsed entry keeps the earliest slot")
}

func TestMergeKeepsRepeatsOutsideWindow(t *testing.T) {
	// "hello" twice, hours apart: genuinely distinct messages.
	l := New("sess-1")

	l.MergeHistory([]Message{
		{ID: "b-1", Sender: "player", Text: "hello", Timestamp: t0},
		{ID: "b-2", Sender: "player", Text: "hello", Timestamp: t0.Add(3 * time.Hour)},
	})

	assert.Equal(t, 2, l.Len())
}

func TestMergeDifferentSendersNeverCollapse(t *testing.T) {
	l := New("sess-1")

	l.MergeHistory([]Message{
		{ID: "b-1", Sender: "player", Text: "yes", Timestamp: t0},
		{ID: "b-2", Sender: "dm", Text: "yes", Timestamp: t0.Add(time.Second)},
	})

	assert.Equal(t, 2, l.Len())
}

func TestMergeIdempotent(t *testing.T) {
	backend := []Message{
		{ID: "b-1", Sender: "player", Text: "hi", Timestamp: t0},
		{ID: "b-2", Sender: "dm", Text: "welcome", Timestamp: t0.Add(time.Second)},
	}

	l := New("sess-1")
	l.MergeHistory(backend)
	once := l.Messages()

	l.MergeHistory(backend)
	twice := l.Messages()

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, once[i].ID, twice[i].ID)
		assert.Equal(t, once[i].Text, twice[i].Text)
	}
}
