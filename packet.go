package cubewire

// PacketFlag selects how the transport delivers a packet.
type PacketFlag uint8

const (
	// PacketReliable requests guaranteed, ordered delivery.
	PacketReliable PacketFlag = 1 << iota
	// PacketUnsequenced allows the packet to be delivered out of order.
	PacketUnsequenced
)

// PacketBuffer is a Buffer that is finalized into a Packet.
type PacketBuffer struct {
	Buffer
	flags PacketFlag
}

// NewPacketBuffer returns an empty PacketBuffer with room for capacity bytes.
func NewPacketBuffer(capacity int, flags PacketFlag) *PacketBuffer {
	return &PacketBuffer{
		Buffer: Buffer{buf: make([]byte, 0, capacity)},
		flags:  flags,
	}
}

// Reliable reports whether the packet will be sent reliably.
func (p *PacketBuffer) Reliable() bool {
	return p.flags&PacketReliable != 0
}

// Finalize hands the written bytes over to a Packet.
// Storage that is more than a quarter unused is trimmed by copying.
// The PacketBuffer must not be used afterwards.
func (p *PacketBuffer) Finalize() *Packet {
	data := p.buf
	if unused := cap(data) - len(data); unused > cap(data)/4 {
		data = append([]byte(nil), data...)
	}
	p.buf = nil
	p.off = 0
	return &Packet{Flags: p.flags, Data: data}
}

// Packet is a finalized, transport-ready unit. It implements Message.
type Packet struct {
	Flags PacketFlag
	Data  []byte
}

// NewPacket wraps data, which the packet takes ownership of.
func NewPacket(data []byte, flags PacketFlag) *Packet {
	return &Packet{Flags: flags, Data: data}
}

// Length returns the length of the packet body.
func (p *Packet) Length() int {
	return len(p.Data)
}

// Body returns the packet body.
func (p *Packet) Body() []byte {
	return p.Data
}

// Reliable reports whether the packet requests reliable delivery.
func (p *Packet) Reliable() bool {
	return p.Flags&PacketReliable != 0
}

// Reader returns a Buffer positioned at the start of the body, for decoding.
func (p *Packet) Reader() *Buffer {
	return NewBuffer(p.Data)
}
