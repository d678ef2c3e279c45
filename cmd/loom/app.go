package main

import (
	"context"
	"net/url"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"loreloom/internal/engine"
	"loreloom/internal/history"
	"loreloom/internal/store"
	"loreloom/internal/transport"
	"loreloom/internal/turns"
)

// app wires a session engine to its producers: the local turn cache
// (warm start), the push channel, and the snapshot poller.
type app struct {
	session *engine.Session
	poller  *history.Poller
	push    *transport.Client
	cache   *store.Cache
}

// pushBridge adapts the session engine to the transport handler:
// events flow straight into the engine, and every reconnect kicks an
// immediate history refetch to cover whatever was missed offline.
type pushBridge struct {
	session *engine.Session
	poller  *history.Poller
}

func (b *pushBridge) HandleEvent(ev turns.Event) { b.session.HandleEvent(ev) }
func (b *pushBridge) Reconnected()               { b.poller.Refresh() }

// newApp builds the full pipeline from config. The cache is optional;
// everything else degrades gracefully per the engine's availability
// rules.
func newApp() (*app, error) {
	session := engine.NewSession(cfg.Campaign.SessionID)

	var cache *store.Cache
	if cfg.Storage.Enabled {
		var err error
		cache, err = store.Open(cachePath())
		if err != nil {
			logger.Warn("Turn cache unavailable, starting cold", zap.Error(err))
		} else {
			session.SetRecorder(cache)
			warmStart(session, cache)
		}
	}

	client := history.NewClient(cfg.Server)
	poller := history.NewPoller(client, session, cfg.Campaign.CampaignID, cfg.Reconcile.Interval)
	push := transport.NewClient(pushURL(), cfg.Server.Token, &pushBridge{session: session, poller: poller})

	return &app{session: session, poller: poller, push: push, cache: cache}, nil
}

// run drives the poller and push client until ctx is cancelled.
func (a *app) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.poller.Run(gctx) })
	g.Go(func() error { return a.push.Run(gctx) })
	err := g.Wait()
	if ctx.Err() != nil {
		return nil // clean shutdown
	}
	return err
}

func (a *app) close() {
	a.session.Close()
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

// warmStart reconciles the cached turns as the first snapshot, so the
// view is populated before the first network round trip completes.
func warmStart(session *engine.Session, cache *store.Cache) {
	msgs, err := cache.LoadSnapshot(session.SessionID())
	if err != nil {
		logger.Warn("Turn cache read failed", zap.Error(err))
		return
	}
	if len(msgs) == 0 {
		return
	}
	stats := session.ReconcileSnapshot(msgs, turns.CampaignStatus{})
	logger.Debug("Warm start from turn cache",
		zap.Int("messages", len(msgs)),
		zap.Int("turns", stats.MergedTurns))
}

func cachePath() string {
	if filepath.IsAbs(cfg.Storage.Path) {
		return cfg.Storage.Path
	}
	return filepath.Join(workspace, cfg.Storage.Path)
}

func pushURL() string {
	u := cfg.Server.WSURL
	if cfg.Campaign.SessionID != "" {
		u += "?session_id=" + url.QueryEscape(cfg.Campaign.SessionID)
	}
	return u
}
