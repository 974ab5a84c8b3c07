package cubewire

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnderrun is matched by every UnderrunError.
var ErrUnderrun = errors.New("buffer underrun")

// UnderrunError is returned when a read needs more bytes than remain.
type UnderrunError struct {
	Need      int
	Remaining int
}

func (e *UnderrunError) Error() string {
	return fmt.Sprintf("buffer underrun: need %d bytes, %d remaining", e.Need, e.Remaining)
}

// Is reports whether target is ErrUnderrun.
func (e *UnderrunError) Is(target error) bool {
	return target == ErrUnderrun
}

// Writer is the append side of a byte buffer.
type Writer interface {
	// PutByte appends a single byte.
	PutByte(c byte)
	// Put appends p verbatim.
	Put(p []byte)
}

// ByteSource is the consuming side of a byte buffer.
// Both methods fail with an *UnderrunError and consume nothing when
// fewer bytes are available than requested.
type ByteSource interface {
	GetByte() (byte, error)
	Get(p []byte) error
}

// Reader is a ByteSource that knows how many unread bytes it holds.
type Reader interface {
	ByteSource
	// Remaining returns the number of unread bytes.
	Remaining() int
}

// Buffer is a growable byte buffer with a read cursor.
// Writes always append; reads consume from the front.
type Buffer struct {
	buf []byte
	off int
}

// NewBuffer returns a Buffer whose unread contents are data.
// The buffer takes ownership of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{buf: data}
}

// NewBufferSize returns an empty Buffer with room for size bytes.
func NewBufferSize(size int) *Buffer {
	return &Buffer{buf: make([]byte, 0, size)}
}

func (b *Buffer) PutByte(c byte) {
	b.buf = append(b.buf, c)
}

func (b *Buffer) Put(p []byte) {
	b.buf = append(b.buf, p...)
}

func (b *Buffer) GetByte() (byte, error) {
	if b.off >= len(b.buf) {
		return 0, &UnderrunError{Need: 1, Remaining: 0}
	}
	c := b.buf[b.off]
	b.off++
	return c, nil
}

func (b *Buffer) Get(p []byte) error {
	if r := b.Remaining(); len(p) > r {
		return &UnderrunError{Need: len(p), Remaining: r}
	}
	b.off += copy(p, b.buf[b.off:])
	return nil
}

func (b *Buffer) Remaining() int {
	return len(b.buf) - b.off
}

// Bytes returns everything written to the buffer, read or not.
// The slice aliases the buffer until the next write.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the underlying storage.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}
