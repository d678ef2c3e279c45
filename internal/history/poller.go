package history

import (
	"context"
	"time"

	"loreloom/internal/engine"
	"loreloom/internal/logging"
)

// Poller refetches the authoritative snapshot on an interval and on
// demand (after a reconnect), reconciling each fetch into the session
// engine. Fetch failures are logged and retried next tick; the engine
// keeps serving its current best-effort view.
type Poller struct {
	client     *Client
	session    *engine.Session
	campaignID string
	interval   time.Duration

	// kick requests an immediate refetch, coalescing bursts.
	kick chan struct{}
}

// NewPoller wires a snapshot poller to a session engine.
func NewPoller(client *Client, session *engine.Session, campaignID string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		client:     client,
		session:    session,
		campaignID: campaignID,
		interval:   interval,
		kick:       make(chan struct{}, 1),
	}
}

// Refresh requests an immediate refetch. Safe from any goroutine;
// multiple pending requests coalesce into one fetch.
func (p *Poller) Refresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Run fetches once immediately, then on every tick or Refresh, until
// the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetchOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.fetchOnce(ctx)
		case <-p.kick:
			p.fetchOnce(ctx)
		}
	}
}

func (p *Poller) fetchOnce(ctx context.Context) {
	msgs, state, err := p.client.FetchSnapshot(ctx, p.session.SessionID(), p.campaignID)
	if err != nil {
		if ctx.Err() == nil {
			logging.HistoryWarn("snapshot fetch failed: %v", err)
		}
		return
	}
	p.session.ReconcileHistory(msgs, state)
}
