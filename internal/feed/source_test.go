package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func TestWSSource_Run(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	subscribed := make(chan Command, 1)

	server := mockWSServer(t, func(conn *websocket.Conn, _ *http.Request) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		json.Unmarshal(data, &cmd)
		subscribed <- cmd

		for _, msg := range []string{
			`{"type":"subscribed","msg":{}}`,
			`{"type":"account","ts":1700000000000,"msg":{"broker":"Acme","live":true}}`,
			`{"type":"symbols","msg":[{"name":"EURUSD","symbol":"EURUSD.a","tradable":true,"bid":1.1,"ask":1.1002,"digits":5}]}`,
			`not json`,
			`{"type":"error","msg":{"code":"E1","message":"slow down"}}`,
			`{"type":"quote","ts":1700000001000,"msg":{"name":"EURUSD","bid":1.1,"ask":1.1003}}`,
		} {
			conn.WriteMessage(websocket.TextMessage, []byte(msg))
		}
		closeNormal(conn)
	})
	defer server.Close()

	src := NewWSSource(testClientConfig(server), id, nil)
	out := make(chan Event, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := src.Run(ctx, out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	close(out)

	cmd := <-subscribed
	if cmd.ID != id.String() || cmd.Cmd != "subscribe" {
		t.Errorf("subscribe command = %+v", cmd)
	}

	var kinds []EventKind
	var events []Event
	for ev := range out {
		kinds = append(kinds, ev.Kind)
		events = append(events, ev)
	}
	want := []EventKind{EventAccount, EventInstruments, EventQuote}
	if len(kinds) != len(want) {
		t.Fatalf("event kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}

	if events[0].Account.BrokerName != "Acme" || !events[0].Account.IsLive {
		t.Errorf("account = %+v", events[0].Account)
	}
	if got := events[1].Instruments[0].Symbol; got != "EURUSD.a" {
		t.Errorf("symbol = %q", got)
	}
	if got := events[2].Time; !got.Equal(time.UnixMilli(1700000001000)) {
		t.Errorf("quote time = %v", got)
	}
}

func TestWSSource_ContextCancel(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn, _ *http.Request) {
		readUntilClosed(conn)
	})
	defer server.Close()

	src := NewWSSource(testClientConfig(server), uuid.New(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, make(chan Event)) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWSSource_ConnectFailure(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.URL = "ws://127.0.0.1:1/feed"

	src := NewWSSource(cfg, uuid.New(), nil)
	if err := src.Run(context.Background(), make(chan Event)); err == nil {
		t.Fatal("expected connect error")
	}
}
