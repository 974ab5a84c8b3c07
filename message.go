package cubewire

import "io"

// Message is the interface for messages transmitted over the connection.
// *Packet is the implementation used throughout this package.
type Message interface {
	// Length returns the length of the message body.
	Length() int
	// Body returns the raw message data.
	Body() []byte
}

// Codec is the interface for message framing on a stream connection.
//
// Decode reads from an io.Reader so the codec controls exactly how many bytes
// make up one message, which reassembles messages split across TCP segments.
// PacketCodec is the codec for finalized packets.
type Codec interface {
	// Decode reads and decodes a complete message from the reader.
	Decode(r io.Reader) (Message, error)
	// Encode encodes a Message into raw bytes for transmission.
	Encode(Message) ([]byte, error)
}
