package cubewire

import (
	"encoding/binary"
	"math"
)

// hostBigEndian reports the byte order of the running machine.
var hostBigEndian = binary.NativeEndian.Uint16([]byte{0x00, 0x01}) == 0x0001

// lilswap converts b between host order and little-endian in place.
// It is a no-op on little-endian hosts.
func lilswap(b []byte) {
	if hostBigEndian {
		swapBytes(b)
	}
}

// swapBytes reverses b in place.
func swapBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// PutFloat appends the IEEE-754 bit pattern of f as 4 little-endian bytes.
func PutFloat(w Writer, f float32) {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], math.Float32bits(f))
	lilswap(b[:])
	w.Put(b[:])
}

// GetFloat consumes 4 bytes written by PutFloat.
// The bit pattern, NaN payloads included, is preserved exactly.
func GetFloat(r ByteSource) (float32, error) {
	var b [4]byte
	if err := r.Get(b[:]); err != nil {
		return 0, err
	}
	lilswap(b[:])
	return math.Float32frombits(binary.NativeEndian.Uint32(b[:])), nil
}
