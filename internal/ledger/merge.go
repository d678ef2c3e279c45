package ledger

// MergeHistory reconciles the ledger against a fetched transcript
// snapshot. Backend entries are authoritative:
//
//   - a local entry matched by identity, or failing that by exact
//     timestamp equality, is replaced by its backend counterpart
//     (keeping its insertion slot so the visible order is stable);
//   - an unmatched entry still marked IsLocal is retained — it is an
//     optimistic write the backend has not confirmed yet;
//   - an unmatched entry not marked IsLocal is dropped as stale;
//   - backend entries with no local counterpart are appended in
//     snapshot order.
//
// After matching, entries from the same sender with normalized-equal
// text within DedupeWindow collapse to the most authoritative single
// entry: identity-bearing first, then most recent.
func (l *Ledger) MergeHistory(backend []Message) {
	matched := make([]bool, len(backend))
	merged := make([]Message, 0, len(l.messages)+len(backend))

	for _, local := range l.messages {
		idx := matchBackend(local, backend, matched)
		if idx >= 0 {
			matched[idx] = true
			m := backend[idx]
			m.IsLocal = false
			m.Seq = local.Seq
			merged = append(merged, m)
			continue
		}
		if local.IsLocal {
			merged = append(merged, local)
		}
		// Stale non-local entry the backend no longer knows: dropped.
	}

	for i, m := range backend {
		if matched[i] {
			continue
		}
		m.IsLocal = false
		m.Seq = l.next()
		merged = append(merged, m)
	}

	l.messages = collapseDuplicates(merged)
}

// matchBackend finds the backend counterpart of a local entry:
// explicit identity first, exact timestamp equality as fallback.
func matchBackend(local Message, backend []Message, taken []bool) int {
	if local.ID != "" {
		for i, b := range backend {
			if !taken[i] && b.ID != "" && b.ID == local.ID {
				return i
			}
		}
	}
	if local.IsLocal || local.ID == "" {
		for i, b := range backend {
			if !taken[i] && b.Sender == local.Sender && b.Timestamp.Equal(local.Timestamp) {
				return i
			}
		}
	}
	return -1
}

// collapseDuplicates removes near-duplicate deliveries: same sender,
// normalized-equal text, timestamps within DedupeWindow. The survivor
// is the identity-bearing entry, breaking ties by recency; it keeps
// the earliest insertion slot of its group so collapsing never reorders
// the transcript.
func collapseDuplicates(ms []Message) []Message {
	sortMessages(ms)

	type key struct {
		sender string
		text   string
	}
	kept := make([]Message, 0, len(ms))
	lastByKey := make(map[key]int) // index into kept

	for _, m := range ms {
		k := key{sender: m.Sender, text: normalizeText(m.Text)}
		if idx, ok := lastByKey[k]; ok {
			prev := kept[idx]
			gap := m.Timestamp.Sub(prev.Timestamp)
			if gap < 0 {
				gap = -gap
			}
			if gap <= DedupeWindow {
				kept[idx] = moreAuthoritative(prev, m)
				continue
			}
		}
		kept = append(kept, m)
		lastByKey[k] = len(kept) - 1
	}
	return kept
}

func moreAuthoritative(a, b Message) Message {
	winner := a
	switch {
	case a.ID != "" && b.ID == "":
		winner = a
	case b.ID != "" && a.ID == "":
		winner = b
	case b.Timestamp.After(a.Timestamp):
		winner = b
	}
	// Keep the earliest insertion slot regardless of which payload won.
	seq := a.Seq
	if seq == 0 || (b.Seq != 0 && b.Seq < seq) {
		seq = b.Seq
	}
	winner.Seq = seq
	return winner
}
