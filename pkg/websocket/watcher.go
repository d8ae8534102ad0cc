package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Watcher subscribes to a game's update stream and calls OnUpdate for every
// game_update frame. It carries no state; callers refetch on each call.
type Watcher struct {
	URL      string
	OnUpdate func()

	Dialer     *websocket.Dialer
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Log        *zap.Logger
}

// WatchURL turns an http(s) server root into the ws(s) endpoint for gameID.
func WatchURL(serverURL, gameID, playerID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"game_id": {gameID}, "player_id": {playerID}}.Encode()
	return u.String(), nil
}

// Run dials and reads until ctx ends, reconnecting with exponential backoff.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("watcher")
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	minB, maxB := w.MinBackoff, w.MaxBackoff
	if minB <= 0 {
		minB = 500 * time.Millisecond
	}
	if maxB < minB {
		maxB = 30 * time.Second
	}

	backoff := minB
	for {
		connected, err := w.session(ctx, dialer)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = minB
		}
		log.Debug("watch connection ended", zap.Error(err), zap.Duration("retry_in", backoff))

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		backoff = min(backoff*2, maxB)
	}
}

func (w *Watcher) session(ctx context.Context, dialer *websocket.Dialer) (bool, error) {
	conn, _, err := dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// The stream may have missed updates while disconnected.
	w.notify()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return true, errors.New("server closed the stream")
			}
			return true, err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == TypeGameUpdate {
			w.notify()
		}
	}
}

func (w *Watcher) notify() {
	if w.OnUpdate != nil {
		w.OnUpdate()
	}
}
