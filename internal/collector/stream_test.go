package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const closedKline = `{"e":"kline","E":1704153600100,"s":"BTCUSDT","k":{"t":1704067200000,"T":1704153599999,"s":"BTCUSDT","i":"1d","o":"42283.58","c":"42475.23","h":"42554.57","l":"41884.28","v":"18541.36","n":701456,"x":true,"q":"784119613.52"}}`

const openKline = `{"e":"kline","E":1704100000000,"s":"BTCUSDT","k":{"t":1704067200000,"T":1704153599999,"s":"BTCUSDT","i":"1d","o":"42283.58","c":"42300.00","h":"42554.57","l":"41884.28","v":"9000.00","n":350000,"x":false,"q":"380000000.00"}}`

func wsEndpoint(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestStreamClient_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := NewStreamClient(context.Background(), wsEndpoint(server), nil)
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestStreamClient_SubscribeReceivesClosedKline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "SUBSCRIBE" {
			t.Errorf("expected SUBSCRIBE, got %s", req.Method)
		}
		if len(req.Params) != 1 || req.Params[0] != "btcusdt@kline_1d" {
			t.Errorf("unexpected params %v", req.Params)
		}

		// Ack, then an open kline (must be dropped), then a closed one
		conn.WriteMessage(websocket.TextMessage, []byte(`{"result":null,"id":1}`))
		time.Sleep(50 * time.Millisecond)
		conn.WriteMessage(websocket.TextMessage, []byte(openKline))
		conn.WriteMessage(websocket.TextMessage, []byte(closedKline))

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := NewStreamClient(context.Background(), wsEndpoint(server), nil)
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeKlines(context.Background(), "BTCUSDT", "1d")
	if err != nil {
		t.Fatalf("SubscribeKlines: %v", err)
	}

	select {
	case bar := <-ch:
		if bar.Date != "2024-01-01" {
			t.Errorf("expected date 2024-01-01, got %s", bar.Date)
		}
		if bar.Close != 42475.23 {
			t.Errorf("expected close 42475.23, got %f", bar.Close)
		}
		if bar.Trades != 701456 {
			t.Errorf("expected 701456 trades, got %d", bar.Trades)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for closed kline")
	}

	// The open kline must not arrive
	select {
	case bar := <-ch:
		t.Errorf("unexpected extra bar %+v", bar)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStreamClient_CombinedStreamPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		wrapped := `{"stream":"btcusdt@kline_1d","data":` + closedKline + `}`
		conn.WriteMessage(websocket.TextMessage, []byte(wrapped))

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := NewStreamClient(context.Background(), wsEndpoint(server), nil)
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeKlines(context.Background(), "BTCUSDT", "1d")
	if err != nil {
		t.Fatalf("SubscribeKlines: %v", err)
	}

	select {
	case bar := <-ch:
		if bar.Date != "2024-01-01" || bar.Close != 42475.23 {
			t.Errorf("unexpected bar %+v", bar)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for wrapped kline")
	}
}

func TestStreamClient_ReconnectResubscribes(t *testing.T) {
	var conns atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// First connection: accept the subscription, then drop the link
		if conns.Add(1) == 1 {
			conn.ReadMessage()
			return
		}

		// Second connection: expect a resubscribe, then deliver
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil || req.Method != "SUBSCRIBE" {
			t.Errorf("expected resubscribe frame, got %s", msg)
			return
		}

		conn.WriteMessage(websocket.TextMessage, []byte(closedKline))

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	config := &StreamConfig{
		ReconnectDelay:    50 * time.Millisecond,
		MaxReconnectDelay: 500 * time.Millisecond,
		PingInterval:      5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      5 * time.Second,
	}

	client, err := NewStreamClient(context.Background(), wsEndpoint(server), config)
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	defer client.Close()

	ch, err := client.SubscribeKlines(context.Background(), "BTCUSDT", "1d")
	if err != nil {
		t.Fatalf("SubscribeKlines: %v", err)
	}

	select {
	case bar := <-ch:
		if bar.Date != "2024-01-01" {
			t.Errorf("expected date 2024-01-01, got %s", bar.Date)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for bar after reconnect")
	}

	if conns.Load() < 2 {
		t.Errorf("expected a reconnect, saw %d connections", conns.Load())
	}
}

func TestStreamClient_Close(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := NewStreamClient(context.Background(), wsEndpoint(server), nil)
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !client.closed.Load() {
		t.Error("client should be closed")
	}

	// Double close should be safe
	if err := client.Close(); err != nil {
		t.Errorf("double Close: %v", err)
	}
}

func TestStreamClient_SubscribeAfterClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := NewStreamClient(context.Background(), wsEndpoint(server), nil)
	if err != nil {
		t.Fatalf("NewStreamClient: %v", err)
	}
	client.Close()

	if _, err := client.SubscribeKlines(context.Background(), "BTCUSDT", "1d"); err == nil {
		t.Error("expected error subscribing after close")
	}
}
