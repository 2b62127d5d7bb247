package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chronos-lab/internal/domain"
	"chronos-lab/internal/observability"
)

// DefaultStreamEndpoint is the Binance spot market stream endpoint.
const DefaultStreamEndpoint = "wss://stream.binance.com:9443/ws"

// StreamConfig configures WebSocket stream behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// StreamClient subscribes to Binance kline streams over WebSocket and
// delivers closed klines as bars. Open (still forming) klines are
// dropped, so each subscription yields at most one bar per interval.
type StreamClient struct {
	endpoint string
	config   StreamConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps stream name (e.g. "btcusdt@kline_1d") to delivery channel
	subs   map[string]chan *domain.Bar
	subsMu sync.RWMutex

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// NewStreamClient creates a stream client and connects to the endpoint.
func NewStreamClient(ctx context.Context, endpoint string, config *StreamConfig) (*StreamClient, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	c := &StreamClient{
		endpoint: endpoint,
		config:   cfg,
		subs:     make(map[string]chan *domain.Bar),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes WebSocket connection.
func (c *StreamClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// SubscribeKlines subscribes to the kline stream for a symbol and
// interval. The returned channel carries only closed klines and is
// closed when the client shuts down.
func (c *StreamClient) SubscribeKlines(ctx context.Context, symbol, interval string) (<-chan *domain.Bar, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	stream := streamName(symbol, interval)

	ch := make(chan *domain.Bar, 256)
	c.subsMu.Lock()
	if _, exists := c.subs[stream]; exists {
		c.subsMu.Unlock()
		return nil, fmt.Errorf("already subscribed to %s", stream)
	}
	c.subs[stream] = ch
	c.subsMu.Unlock()

	if err := c.writeSubscribe(stream); err != nil {
		c.subsMu.Lock()
		delete(c.subs, stream)
		c.subsMu.Unlock()
		return nil, err
	}

	return ch, nil
}

// writeSubscribe sends a SUBSCRIBE frame for one stream. Binance acks
// with {"result":null,"id":n}, which the read loop ignores.
func (c *StreamClient) writeSubscribe(stream string) error {
	req := wsRequest{
		Method: "SUBSCRIBE",
		Params: []string{stream},
		ID:     c.requestID.Add(1),
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the WebSocket connection.
func (c *StreamClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for name, ch := range c.subs {
		close(ch)
		delete(c.subs, name)
	}
	c.subsMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages from WebSocket and dispatches to subscribers.
func (c *StreamClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			// Connection error - attempt reconnect with exponential backoff
			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (c *StreamClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	observability.RecordWSReconnect()
	c.resubscribeAll()
}

// resubscribeAll re-sends SUBSCRIBE frames for all active streams.
func (c *StreamClient) resubscribeAll() {
	c.subsMu.RLock()
	streams := make([]string, 0, len(c.subs))
	for name := range c.subs {
		streams = append(streams, name)
	}
	c.subsMu.RUnlock()

	for _, stream := range streams {
		if err := c.writeSubscribe(stream); err != nil {
			// Failed to resubscribe, next reconnect retries
			continue
		}
	}
}

// handleMessage processes one incoming frame. Subscription acks and
// unknown event types are ignored.
func (c *StreamClient) handleMessage(message []byte) {
	// Combined-stream payloads wrap the event under "data"
	var combined struct {
		Stream string          `json:"stream"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &combined); err == nil && combined.Stream != "" && len(combined.Data) > 0 {
		message = combined.Data
	}

	var event klineEvent
	if err := json.Unmarshal(message, &event); err != nil || event.EventType != "kline" {
		return
	}
	if !event.Kline.Closed {
		return
	}

	bar, err := event.Kline.bar()
	if err != nil {
		fmt.Printf("[stream] dropping malformed kline: %v\n", err)
		return
	}

	stream := streamName(event.Kline.Symbol, event.Kline.Interval)

	c.subsMu.RLock()
	ch, ok := c.subs[stream]
	c.subsMu.RUnlock()

	if ok {
		// Block until we can send - never drop closed klines
		select {
		case ch <- bar:
		case <-c.done:
			return
		}
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *StreamClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			c.connMu.Unlock()
		}
	}
}

func streamName(symbol, interval string) string {
	return strings.ToLower(symbol) + "@kline_" + interval
}

// WebSocket message types

type wsRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
	ID     uint64   `json:"id"`
}

type klineEvent struct {
	EventType string       `json:"e"`
	EventTime int64        `json:"E"`
	Symbol    string       `json:"s"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTimeMs  int64  `json:"t"`
	CloseTimeMs int64  `json:"T"`
	Symbol      string `json:"s"`
	Interval    string `json:"i"`
	Open        string `json:"o"`
	Close       string `json:"c"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Volume      string `json:"v"`
	Trades      int64  `json:"n"`
	Closed      bool   `json:"x"`
	QuoteVolume string `json:"q"`
}

// bar converts a closed kline payload into a Bar.
func (k klinePayload) bar() (*domain.Bar, error) {
	values := make([]float64, 6)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume, k.QuoteVolume} {
		v, err := asFloat(s)
		if err != nil {
			return nil, fmt.Errorf("kline field %d: %w", i, err)
		}
		values[i] = v
	}

	bar := &domain.Bar{
		Symbol:      k.Symbol,
		Date:        time.UnixMilli(k.OpenTimeMs).UTC().Format(domain.DateFormat),
		OpenTimeMs:  k.OpenTimeMs,
		Open:        values[0],
		High:        values[1],
		Low:         values[2],
		Close:       values[3],
		Volume:      values[4],
		QuoteVolume: values[5],
		Trades:      k.Trades,
	}
	if err := bar.Validate(); err != nil {
		return nil, err
	}
	return bar, nil
}
