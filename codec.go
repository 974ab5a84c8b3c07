package cubewire

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// ErrMalformedFrame is returned when a frame header cannot describe a packet.
var ErrMalformedFrame = errors.New("malformed frame")

// DefaultMaxFrameSize fits the largest packet MakeFilePacket produces.
const DefaultMaxFrameSize = MaxTransHeader + MaxFilePacketSize

// PacketCodec frames packets on a stream as
//
//	[VarUInt n][flags byte][body, n-1 bytes]
//
// Decoded messages are *Packet values.
type PacketCodec struct {
	// MaxFrameSize bounds n. Zero means DefaultMaxFrameSize.
	MaxFrameSize int
}

func (c *PacketCodec) maxFrameSize() int {
	if c.MaxFrameSize > 0 {
		return c.MaxFrameSize
	}
	return DefaultMaxFrameSize
}

// Encode implements Codec. Messages that are not packets are sent reliably.
func (c *PacketCodec) Encode(msg Message) ([]byte, error) {
	body := msg.Body()
	if len(body) >= math.MaxInt32 || len(body)+1 > c.maxFrameSize() {
		return nil, errors.Wrapf(ErrMessageTooLarge, "%d bytes", len(body))
	}

	flags := PacketReliable
	if p, ok := msg.(*Packet); ok {
		flags = p.Flags
	}

	n := int32(len(body) + 1)
	b := NewBufferSize(UintLen(n) + int(n))
	PutUint(b, n)
	b.PutByte(byte(flags))
	b.Put(body)
	return b.Bytes(), nil
}

// Decode implements Codec. A stream that ends cleanly between frames
// returns io.EOF; one that ends inside a frame returns io.ErrUnexpectedEOF.
func (c *PacketCodec) Decode(r io.Reader) (Message, error) {
	src := &streamSource{r: r}
	n, err := GetUint(src)
	if err != nil {
		if errors.Is(err, io.EOF) && src.read > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if n <= 0 {
		return nil, errors.Wrapf(ErrMalformedFrame, "frame length %d", n)
	}
	if int(n) > c.maxFrameSize() {
		return nil, errors.Wrapf(ErrMessageTooLarge, "frame length %d", n)
	}

	frame := make([]byte, n)
	if err := src.Get(frame); err != nil {
		return nil, errors.Wrap(noEOF(err), "read frame")
	}
	return &Packet{Flags: PacketFlag(frame[0]), Data: frame[1:]}, nil
}

// streamSource adapts an io.Reader to ByteSource.
type streamSource struct {
	r    io.Reader
	one  [1]byte
	read int
}

func (s *streamSource) GetByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.one[:]); err != nil {
		return 0, err
	}
	s.read++
	return s.one[0], nil
}

func (s *streamSource) Get(p []byte) error {
	n, err := io.ReadFull(s.r, p)
	s.read += n
	return err
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
