package ship

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config tunes a state-history client.
type Config struct {
	// URL is the ws:// endpoint of the state_history_plugin.
	URL string
	// BufferSize is the streamed block channel capacity.
	BufferSize int
	// WriteTimeout bounds request writes.
	WriteTimeout time.Duration
	// StaleTimeout is how long the stream may stay silent before the
	// connection is declared dead. Zero disables the check.
	StaleTimeout time.Duration
	// DialRetries is how many times a failed dial is retried.
	DialRetries int
	// DialBackoff is the initial retry delay, doubled per attempt.
	DialBackoff time.Duration
}

func (cfg *Config) applyDefaults() {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 512
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.DialRetries == 0 {
		cfg.DialRetries = 3
	}
	if cfg.DialBackoff == 0 {
		cfg.DialBackoff = 500 * time.Millisecond
	}
}

// Client is a single connection to the state_history_plugin. The node
// speaks a binary protocol: the first frame after the handshake is the
// plugin's ABI, every later frame is a serialized result variant.
type Client struct {
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	messages chan []byte
	errs     chan error
	done     chan struct{}

	writeMu sync.Mutex

	mu        sync.RWMutex
	connected bool
	closed    bool
	lastData  time.Time
	shipABI   []byte
	cause     error
}

// NewClient creates a state-history client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Client{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan []byte, cfg.BufferSize),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Connect dials the node and consumes the ABI frame. Failed dials are
// retried with exponential backoff.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	var conn *websocket.Conn
	backoff := c.cfg.DialBackoff
	for attempt := 0; ; attempt++ {
		var err error
		conn, _, err = dialer.DialContext(ctx, c.cfg.URL, nil)
		if err == nil {
			break
		}
		if attempt >= c.cfg.DialRetries {
			return fmt.Errorf("ship: dial %s: %w", c.cfg.URL, err)
		}
		c.logger.Warn("ship dial failed, retrying",
			"attempt", attempt+1, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	// the node greets with its ABI before any results
	_, abiFrame, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return fmt.Errorf("ship: read abi frame: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastData = time.Now()
	c.shipABI = abiFrame
	c.mu.Unlock()

	go c.readLoop()
	if c.cfg.StaleTimeout > 0 {
		go c.staleLoop()
	}

	c.logger.Debug("ship connected", "url", c.cfg.URL, "abi_bytes", len(abiFrame))
	return nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	close(c.done)

	if c.conn != nil {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return c.conn.Close()
	}
	return nil
}

// IsConnected reports the connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ABI returns the raw ABI frame the node sent on connect.
func (c *Client) ABI() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shipABI
}

// Errors returns the connection error channel.
func (c *Client) Errors() <-chan error {
	return c.errs
}

func (c *Client) send(data []byte) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// next blocks for the next result frame.
func (c *Client) next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-c.errs:
		return nil, err
	case <-c.done:
		return nil, ErrAlreadyClosed
	case msg, ok := <-c.messages:
		if !ok {
			return nil, ErrAlreadyClosed
		}
		return msg, nil
	}
}

// GetStatus queries the node's current stream state.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	if err := c.send(encodeStatusRequest()); err != nil {
		return nil, err
	}
	frame, err := c.next(ctx)
	if err != nil {
		return nil, err
	}
	return decodeStatusResult(frame)
}

// StreamBlocks requests a block range and delivers decoded results on
// the returned channel, acking each message to keep the window full.
// The channel closes when the range ends, the context is canceled, or
// the connection fails; CauseErr explains a premature close.
func (c *Client) StreamBlocks(ctx context.Context, req BlocksRequest) (<-chan *BlockResult, error) {
	if req.MaxMessagesInFlight == 0 {
		req.MaxMessagesInFlight = uint32(c.cfg.BufferSize)
	}
	// The node only sends results while block_num < end_block_num, so an
	// unbounded stream is requested as the maximum block number.
	if req.EndBlockNum == 0 {
		req.EndBlockNum = math.MaxUint32
	}

	payload, err := encodeBlocksRequest(req)
	if err != nil {
		return nil, err
	}
	if err := c.send(payload); err != nil {
		return nil, err
	}

	out := make(chan *BlockResult, c.cfg.BufferSize)
	go func() {
		defer close(out)
		for {
			frame, err := c.next(ctx)
			if err != nil {
				c.setCause(err)
				return
			}

			result, err := decodeBlocksResult(frame)
			if err != nil {
				c.setCause(fmt.Errorf("ship: decode block result: %w", err))
				return
			}

			if err := c.send(encodeBlocksAck(1)); err != nil {
				c.setCause(err)
				return
			}

			// empty result, nothing in range yet
			if result.ThisBlock == nil {
				continue
			}

			select {
			case out <- result:
			case <-ctx.Done():
				c.setCause(ctx.Err())
				return
			}

			if result.ThisBlock.BlockNum+1 >= req.EndBlockNum {
				return
			}
		}
	}()
	return out, nil
}

// CauseErr returns why the last stream ended early, nil for a clean end.
func (c *Client) CauseErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cause
}

func (c *Client) setCause(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cause = err
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errs <- err:
			default:
			}
			return
		}

		c.mu.Lock()
		c.lastData = time.Now()
		c.mu.Unlock()

		select {
		case c.messages <- data:
		case <-c.done:
			return
		}
	}
}

func (c *Client) staleLoop() {
	ticker := time.NewTicker(c.cfg.StaleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			last := c.lastData
			c.mu.RUnlock()

			if time.Since(last) > c.cfg.StaleTimeout {
				c.logger.Warn("ship stream stale", "last_data", last, "timeout", c.cfg.StaleTimeout)
				select {
				case c.errs <- ErrStaleConnection:
				default:
				}
				return
			}
		}
	}
}
