// Package transport maintains the push-channel websocket connection.
// Delivery is at-least-once and unordered with respect to history
// fetches; nothing here deduplicates — the turn engine is the one
// authority for merging. The transport's only jobs are to keep the
// socket alive, decode frames at the protocol boundary, and tell the
// caller when a reconnect happened so a history refetch can correct
// anything missed while offline.
package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"loreloom/internal/logging"
	"loreloom/internal/protocol"
	"loreloom/internal/turns"
)

const (
	pingInterval      = 25 * time.Second
	pongWait          = 60 * time.Second
	writeWait         = 10 * time.Second
	initialBackoff    = time.Second
	maxBackoff        = 30 * time.Second
	backoffMultiplier = 2
)

// Handler receives decoded events and connection lifecycle signals.
type Handler interface {
	// HandleEvent is called for every decoded frame, including nil
	// events for frames the engine cannot use.
	HandleEvent(ev turns.Event)
	// Reconnected is called after every successful (re)connect except
	// the first, so the caller can trigger a history refetch.
	Reconnected()
}

// Client is a reconnecting websocket consumer of the push channel.
type Client struct {
	url     string
	token   string
	handler Handler
	dialer  *websocket.Dialer
}

// NewClient builds a push-channel client. url is the full websocket
// endpoint including the session query parameter.
func NewClient(url, token string, handler Handler) *Client {
	return &Client{
		url:     url,
		token:   token,
		handler: handler,
		dialer:  websocket.DefaultDialer,
	}
}

// Run connects and consumes frames until the context is cancelled,
// reconnecting with capped exponential backoff on any failure.
func (c *Client) Run(ctx context.Context) error {
	backoff := initialBackoff
	connected := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.dial(ctx)
		if err != nil {
			logging.TransportWarn("dial failed, retrying in %s: %v", backoff, err)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		if connected {
			logging.Transport("reconnected to push channel")
			c.handler.Reconnected()
		} else {
			logging.Transport("connected to push channel")
			connected = true
		}
		backoff = initialBackoff

		err = c.consume(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.TransportWarn("connection lost: %v", err)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// consume runs the read and ping loops until either fails.
func (c *Client) consume(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	g, gctx := errgroup.WithContext(ctx)

	// Closing the socket is the only way to unblock a pending read, so
	// tie the connection's life to the group context.
	g.Go(func() error {
		<-gctx.Done()
		conn.Close()
		return gctx.Err()
	})

	g.Go(func() error {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return err
				}
			}
		}
	})

	g.Go(func() error {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			ev, err := protocol.DecodePushEvent(raw)
			if err != nil {
				var unknown protocol.ErrUnknownKind
				if errors.As(err, &unknown) {
					logging.TransportWarn("skipping unknown frame kind %q", unknown.Kind)
					continue
				}
				logging.TransportWarn("undecodable frame: %v", err)
				continue
			}
			c.handler.HandleEvent(ev)
		}
	})

	return g.Wait()
}

func nextBackoff(d time.Duration) time.Duration {
	d *= backoffMultiplier
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
