package cubewire

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
)

type rawMessage []byte

func (m rawMessage) Length() int  { return len(m) }
func (m rawMessage) Body() []byte { return m }

func TestPacketCodec_Encode(t *testing.T) {
	codec := &PacketCodec{}

	data, err := codec.Encode(NewPacket([]byte("hi"), PacketReliable))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if want := []byte{0x03, 0x01, 'h', 'i'}; !bytes.Equal(data, want) {
		t.Errorf("Encode = % x, want % x", data, want)
	}

	data, err = codec.Encode(rawMessage("x"))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if want := []byte{0x02, byte(PacketReliable), 'x'}; !bytes.Equal(data, want) {
		t.Errorf("Encode(raw) = % x, want % x", data, want)
	}
}

func TestPacketCodec_RoundTrip(t *testing.T) {
	codec := &PacketCodec{}
	packets := []*Packet{
		NewPacket([]byte("reliable"), PacketReliable),
		NewPacket([]byte("loose"), PacketUnsequenced),
		NewPacket(nil, 0),
		NewPacket(bytes.Repeat([]byte{0x55}, 20000), PacketReliable),
	}

	var stream bytes.Buffer
	for _, p := range packets {
		data, err := codec.Encode(p)
		if err != nil {
			t.Fatalf("Encode error: %v", err)
		}
		stream.Write(data)
	}

	for _, want := range packets {
		msg, err := codec.Decode(&stream)
		if err != nil {
			t.Fatalf("Decode error: %v", err)
		}
		got, ok := msg.(*Packet)
		if !ok {
			t.Fatalf("Decode returned %T, want *Packet", msg)
		}
		if got.Flags != want.Flags || !bytes.Equal(got.Data, want.Data) {
			t.Errorf("Decode = %v/%d bytes, want %v/%d bytes",
				got.Flags, len(got.Data), want.Flags, len(want.Data))
		}
	}

	if _, err := codec.Decode(&stream); err != io.EOF {
		t.Errorf("Decode at end = %v, want io.EOF", err)
	}
}

func TestPacketCodec_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"partial length", []byte{0x80}, io.ErrUnexpectedEOF},
		{"partial body", []byte{0x05, 0x01, 'a'}, io.ErrUnexpectedEOF},
		{"missing flags", []byte{0x01}, io.ErrUnexpectedEOF},
		{"zero length", []byte{0x00}, ErrMalformedFrame},
		{"negative length", []byte{0xFF, 0xFF, 0xFF, 0xFF}, ErrMalformedFrame},
		{"too large", []byte{0x80, 0x80, 0x80, 0x01}, ErrMessageTooLarge},
	}

	codec := &PacketCodec{MaxFrameSize: 1 << 20}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPacketCodec_MaxFrameSize(t *testing.T) {
	codec := &PacketCodec{MaxFrameSize: 8}

	if _, err := codec.Encode(rawMessage("1234567")); err != nil {
		t.Errorf("Encode at limit error: %v", err)
	}
	if _, err := codec.Encode(rawMessage("12345678")); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("Encode over limit error = %v, want ErrMessageTooLarge", err)
	}

	if (&PacketCodec{}).maxFrameSize() != DefaultMaxFrameSize {
		t.Error("zero MaxFrameSize does not fall back to the default")
	}
}
