package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chainwatch/monitor/internal/metrics"
	"github.com/chainwatch/monitor/internal/store"
)

const (
	// ReconnectDelay is the fixed wait between reconnect attempts.
	// Deliberately constant, no exponential growth.
	ReconnectDelay = 10 * time.Second

	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout = 10 * time.Second

	// WriteTimeout bounds the subscribe control write.
	WriteTimeout = 10 * time.Second
)

// Connector holds one long-lived feed subscription for one chain.
// It reconnects forever with a fixed backoff and forwards decoded
// transactions to txChan. Frames for a chain are read by this single
// loop, so downstream processing sees them in feed-delivery order.
type Connector struct {
	url     string
	codec   Codec
	txChan  chan<- store.Tx
	tracker *metrics.Tracker
	backoff time.Duration

	conn   *websocket.Conn
	connMu sync.Mutex
	wg     sync.WaitGroup
}

// NewConnector creates a Connector for the codec's chain.
func NewConnector(url string, codec Codec, txChan chan<- store.Tx, tracker *metrics.Tracker) *Connector {
	return &Connector{
		url:     url,
		codec:   codec,
		txChan:  txChan,
		tracker: tracker,
		backoff: ReconnectDelay,
	}
}

// Start launches the connection loop. It runs until ctx is cancelled.
func (c *Connector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.runLoop(ctx)
}

// Wait blocks until the connection loop has exited.
func (c *Connector) Wait() {
	c.wg.Wait()
}

// runLoop dials, subscribes, reads until failure, then backs off and
// starts over. There is no terminal state besides ctx cancellation.
func (c *Connector) runLoop(ctx context.Context) {
	defer c.wg.Done()
	chain := c.codec.Chain()

	for {
		select {
		case <-ctx.Done():
			c.tracker.SetConnState(chain, metrics.ConnDisconnected)
			slog.Info("ws_loop_stopping", "chain", chain)
			return
		default:
		}

		c.tracker.SetConnState(chain, metrics.ConnConnecting)

		if err := c.connect(ctx); err != nil {
			slog.Error("ws_connect_failed", "chain", chain, "error", err, "retry_in", c.backoff)
			c.tracker.SetConnState(chain, metrics.ConnError)
			c.tracker.RecordError()
			c.waitBackoff(ctx)
			continue
		}

		c.tracker.SetConnState(chain, metrics.ConnConnected)
		slog.Info("ws_connected", "chain", chain, "endpoint", c.url)

		if err := c.readLoop(ctx); err != nil {
			slog.Warn("ws_read_error", "chain", chain, "error", err)
			c.tracker.SetConnState(chain, metrics.ConnError)
			c.tracker.RecordError()
		} else {
			c.tracker.SetConnState(chain, metrics.ConnDisconnected)
		}

		c.closeConnection()

		select {
		case <-ctx.Done():
			return
		default:
			c.waitBackoff(ctx)
		}
	}
}

// connect dials the feed and sends the chain's subscribe message.
func (c *Connector) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: HandshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial failed: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	msg, err := c.codec.SubscribeMessage()
	if err != nil {
		c.closeConnection()
		return fmt.Errorf("build subscribe message: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.closeConnection()
		return fmt.Errorf("send subscribe message: %w", err)
	}

	slog.Info("ws_subscribed", "chain", c.codec.Chain())
	return nil
}

// readLoop reads and handles frames until the connection fails or the
// context is cancelled. A nil return means a clean close.
func (c *Connector) readLoop(ctx context.Context) error {
	// A pending ReadMessage only returns on traffic or error, so close
	// the connection from the side when shutdown arrives mid-silence.
	readDone := make(chan struct{})
	defer close(readDone)
	go func() {
		select {
		case <-ctx.Done():
			c.closeConnection()
		case <-readDone:
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connection is nil")
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read error: %w", err)
		}

		c.handleFrame(ctx, frame)
	}
}

// handleFrame decodes one frame and forwards the transaction. Parse
// failures are logged and counted but never stop the loop.
func (c *Connector) handleFrame(ctx context.Context, frame []byte) {
	chain := c.codec.Chain()

	tx, err := c.codec.Decode(frame)
	if err != nil {
		slog.Warn("frame_parse_error", "chain", chain, "error", err)
		c.tracker.RecordError()
		return
	}
	if tx == nil {
		return
	}

	select {
	case c.txChan <- *tx:
		slog.Debug("tx_received", "chain", chain, "hash", store.TruncateHash(tx.Hash), "outputs", len(tx.Outputs))
	case <-ctx.Done():
	}
}

// waitBackoff sleeps for the fixed reconnect delay or until shutdown.
func (c *Connector) waitBackoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.backoff):
	}
}

// closeConnection safely closes the websocket connection.
func (c *Connector) closeConnection() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		slog.Info("ws_disconnected", "chain", c.codec.Chain())
	}
}
