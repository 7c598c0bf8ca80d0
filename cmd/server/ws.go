package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sekolahku/kurikulum/internal/store"
)

// handleWS streams store changes to the browser so open views can re-read
// the collections they render. An optional ?collection= narrows the feed;
// the default is every collection.
func (a *app) handleWS(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if collection != "" && !store.ValidCollection(collection) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown collection %q", collection))
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// A slow client loses changes rather than blocking the bus; it can
	// always re-read the collection.
	changes := make(chan store.Change, 64)
	unsubscribe := a.bus.Subscribe(collection, func(change store.Change) {
		select {
		case changes <- change:
		default:
		}
	})
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case change := <-changes:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, change)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
