package cubewire

import (
	"time"
)

// ErrorAction tells a connection what to do after a read or write error.
type ErrorAction int

const (
	// Disconnect ends Run with the error.
	Disconnect ErrorAction = iota
	// Continue drops the failed frame and keeps the connection open.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	codec   Codec
	logger  Logger
	metrics *Metrics

	onMessage func(message Message) error
	onError   func(error) ErrorAction

	bufferSize    int           // send queue length
	maxReadLength int           // byte allowance per decoded message
	heartbeat     time.Duration // read/write deadlines are twice this
}

// Option configures a Conn.
type Option func(*options)

// CustomCodecOption sets the frame codec. Required; use &PacketCodec{} for packets.
func CustomCodecOption(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// BufferSizeOption sets how many encoded messages may wait in the send queue.
// Unreliable packets are dropped once it is full.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// HeartbeatOption sets the heartbeat. A peer silent for two heartbeats
// times out.
func HeartbeatOption(heartbeat time.Duration) Option {
	return func(o *options) {
		o.heartbeat = heartbeat
	}
}

// MessageMaxSize caps the bytes one incoming message may occupy on the wire.
// Larger frames fail with ErrMessageTooLarge.
func MessageMaxSize(size int) Option {
	return func(o *options) {
		o.maxReadLength = size
	}
}

// OnErrorOption sets the callback consulted on read and write errors.
// Without it every error disconnects.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnMessageOption sets the required callback for decoded messages.
// A non-nil return ends the connection.
func OnMessageOption(cb func(Message) error) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// LoggerOption sets the connection logger. The default is slog.Default().
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// MetricsOption records packet counters in m.
func MetricsOption(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
