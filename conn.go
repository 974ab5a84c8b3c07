// Package cubewire implements the compact binary encoding used by the game
// network protocol: variable-length integers, floats and strings, chat text
// filtering, file packets and address rules. It also carries finalized
// packets over TCP, with per-connection read and write loops and a server
// that enforces an access list.
package cubewire

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

// Errors returned by connection operations.
var (
	// ErrInvalidCodec is returned when no codec is provided.
	ErrInvalidCodec = errors.New("invalid codec callback")
	// ErrInvalidOnMessage is returned when no message handler is provided.
	ErrInvalidOnMessage = errors.New("invalid on message callback")
	// ErrMessageTooLarge is returned when a message exceeds the maximum allowed size.
	ErrMessageTooLarge = errors.New("message too large")
)

// ErrConnectionClosed is returned when operating on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// limitedReader fails with ErrMessageTooLarge once a message has consumed
// its byte allowance.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func newLimitedReader(r io.Reader, limit int64) *limitedReader {
	return &limitedReader{r: r, remaining: limit}
}

func (l *limitedReader) Read(p []byte) (n int, err error) {
	if l.remaining <= 0 {
		return 0, ErrMessageTooLarge
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err = l.r.Read(p)
	l.remaining -= int64(n)
	return
}

// reset restores the limit for the next message. The bufio.Reader underneath
// keeps its own buffered bytes, so only the counter changes.
func (l *limitedReader) reset(limit int64) {
	l.remaining = limit
}

// outgoing is an encoded message waiting in the send queue.
type outgoing struct {
	data     []byte
	reliable bool
}

// Conn is a TCP connection carrying encoded messages.
// It runs a read loop and a write loop and identifies itself in logs by a KSUID.
type Conn struct {
	id            ksuid.KSUID
	rawConn       *net.TCPConn
	reader        *bufio.Reader
	limitedReader *limitedReader
	logger        Logger

	opts options

	sendMsg chan outgoing
	closed  atomic.Bool
	cancel  context.CancelFunc
}

// Default configuration values.
const (
	// defaultBufferSize is the default size of the message channel buffer.
	defaultBufferSize = 1
	// defaultMaxPackageLength is the default maximum size of a single message,
	// large enough for the biggest file packet.
	defaultMaxPackageLength = DefaultMaxFrameSize + 8
	// defaultHeartbeat is the default heartbeat; deadlines are twice this.
	defaultHeartbeat = 30 * time.Second
)

// NewConn creates a new connection wrapper around the given TCP connection.
// It applies the provided options and validates them before returning.
// Returns an error if required options (codec, onMessage) are missing.
func NewConn(conn *net.TCPConn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	return newConn(conn, opts), nil
}

// checkOptions rejects options missing a codec or message handler and fills
// in defaults for the rest.
func checkOptions(opts *options) error {
	switch {
	case opts.codec == nil:
		return ErrInvalidCodec
	case opts.onMessage == nil:
		return ErrInvalidOnMessage
	}

	if opts.bufferSize <= 0 {
		opts.bufferSize = defaultBufferSize
	}
	if opts.maxReadLength <= 0 {
		opts.maxReadLength = defaultMaxPackageLength
	}
	if opts.heartbeat <= 0 {
		opts.heartbeat = defaultHeartbeat
	}
	if opts.onError == nil {
		opts.onError = func(error) ErrorAction { return Disconnect }
	}
	if opts.logger == nil {
		opts.logger = defaultLogger()
	}
	return nil
}

// newConn wraps c. Reads go through a buffer no larger than 64 KiB, with the
// per-message limit applied on top.
func newConn(c *net.TCPConn, opts options) *Conn {
	reader := bufio.NewReaderSize(c, min(opts.maxReadLength, 64<<10))
	return &Conn{
		id:            ksuid.New(),
		rawConn:       c,
		reader:        reader,
		limitedReader: newLimitedReader(reader, int64(opts.maxReadLength)),
		logger:        opts.logger,
		opts:          opts,
		sendMsg:       make(chan outgoing, opts.bufferSize),
	}
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() ksuid.KSUID {
	return c.id
}

// Run starts the connection's read and write loops.
// It blocks until an error occurs or the context is canceled.
// The connection is closed when Run returns.
func (c *Conn) Run(ctx context.Context) error {
	c.logger.Info("connection established", "conn_id", c.id, "addr", c.Addr())
	c.logger.Debug("connection options", "conn_id", c.id,
		"buffer_size", c.opts.bufferSize,
		"max_read_length", c.opts.maxReadLength,
		"heartbeat", c.opts.heartbeat)

	ctx, c.cancel = context.WithCancel(ctx)
	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	err := group.Wait()
	c.closeConn()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Info("connection closed with error", "conn_id", c.id, "error", err)
	} else {
		c.logger.Info("connection closed", "conn_id", c.id)
	}

	return err
}

// Close gracefully closes the connection.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// ErrBufferFull is returned when the send buffer is full and cannot accept
// more messages: the peer is not draining the connection fast enough.
var ErrBufferFull = errors.New("send buffer full")

// Write queues a message without blocking.
//
// Returns:
//   - nil: message was queued (not yet sent)
//   - ErrBufferFull: send buffer is full, message was NOT queued
//   - ErrConnectionClosed: connection is closed
//   - encoding error: if codec.Encode fails
func (c *Conn) Write(message Message) error {
	item, err := c.encode(message)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- item:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking queues a message, waiting for buffer space until ctx is done.
func (c *Conn) WriteBlocking(ctx context.Context, message Message) error {
	item, err := c.encode(message)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteTimeout queues a message, waiting at most timeout for buffer space.
// ErrBufferFull is returned when the timeout expires.
func (c *Conn) WriteTimeout(message Message, timeout time.Duration) error {
	item, err := c.encode(message)
	if err != nil {
		return err
	}

	select {
	case c.sendMsg <- item:
		return nil
	case <-time.After(timeout):
		return ErrBufferFull
	}
}

// Send queues a packet according to its delivery flags. Reliable packets
// wait for buffer space like WriteBlocking. Unreliable packets are dropped
// when the buffer is full; Send then returns nil and the drop is counted.
func (c *Conn) Send(ctx context.Context, p *Packet) error {
	if p.Reliable() {
		return c.WriteBlocking(ctx, p)
	}

	err := c.Write(p)
	if errors.Is(err, ErrBufferFull) {
		c.logger.Debug("unreliable packet dropped", "conn_id", c.id, "length", p.Length())
		c.opts.metrics.packetDropped()
		return nil
	}
	return err
}

func (c *Conn) encode(message Message) (outgoing, error) {
	if c.closed.Load() {
		return outgoing{}, ErrConnectionClosed
	}

	data, err := c.opts.codec.Encode(message)
	if err != nil {
		return outgoing{}, err
	}

	reliable := true
	if p, ok := message.(*Packet); ok {
		reliable = p.Reliable()
	}
	return outgoing{data: data, reliable: reliable}, nil
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

// readLoop decodes messages and hands them to the message handler until ctx
// is canceled or an error ends the connection. Messages longer than
// maxReadLength fail with ErrMessageTooLarge.
func (c *Conn) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.heartbeat * 2))

			c.limitedReader.reset(int64(c.opts.maxReadLength))

			message, err := c.opts.codec.Decode(c.limitedReader)
			if err != nil {
				c.logger.Debug("read error", "conn_id", c.id, "error", err)
				if c.opts.onError(err) == Disconnect {
					return err
				}
				continue
			}
			c.opts.metrics.packetReceived()

			if err = c.opts.onMessage(message); err != nil {
				return err
			}
		}
	}
}

// writeLoop sends queued messages until ctx is canceled or a write fails.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-c.sendMsg:
			if err := c.write(item); err != nil {
				return err
			}
		}
	}
}

// write sends one queued message with a deadline. A failed write ends the
// loop only when onError asks to disconnect.
func (c *Conn) write(item outgoing) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.heartbeat * 2))

	_, err := c.rawConn.Write(item.data)

	if err != nil {
		c.logger.Debug("write error", "conn_id", c.id, "error", err)
		if c.opts.onError(err) == Disconnect {
			return err
		}
		return nil
	}

	c.opts.metrics.packetSent(item.reliable, len(item.data))
	return nil
}

// closeConn marks the connection as closed and closes the underlying TCP connection.
func (c *Conn) closeConn() {
	c.closed.Store(true)
	c.rawConn.Close()
}
