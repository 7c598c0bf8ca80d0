package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sekolahku/kurikulum/internal/curriculum"
	"github.com/sekolahku/kurikulum/internal/store"
)

func TestWSChangeFeed(t *testing.T) {
	a, token := newTestApp(t)
	srv := httptest.NewServer(a.routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(srv.URL, "http://", "ws://", 1) + "/ws?token=" + token + "&collection=calendar_events"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// A write to a different collection is filtered out; the matching one
	// arrives.
	if _, err := a.store.Create(ctx, store.ColJournals, map[string]any{"date": "2024-07-07"}); err != nil {
		t.Fatal(err)
	}
	id, err := a.store.Create(ctx, store.ColCalendarEvents, curriculum.CalendarEvent{
		Date: "2024-07-15", Title: "Libur", Type: curriculum.EventHoliday,
	}.Document())
	if err != nil {
		t.Fatal(err)
	}

	var change store.Change
	if err := wsjson.Read(ctx, conn, &change); err != nil {
		t.Fatalf("read: %v", err)
	}
	if change.Collection != store.ColCalendarEvents || change.Op != store.OpCreate || change.ID != id {
		t.Errorf("change = %+v", change)
	}
}

func TestWSRejectsUnknownCollection(t *testing.T) {
	a, token := newTestApp(t)
	srv := httptest.NewServer(a.routes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(srv.URL, "http://", "ws://", 1) + "/ws?token=" + token + "&collection=tidak_ada"
	if _, _, err := websocket.Dial(ctx, url, nil); err == nil {
		t.Error("dial to an unknown collection should fail the handshake")
	}
}
