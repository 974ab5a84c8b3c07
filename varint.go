package cubewire

// Marker bytes that select the wide VarInt forms.
const (
	varInt16Marker = 0x80 // followed by 2 bytes, little-endian
	varInt32Marker = 0x81 // followed by 4 bytes, little-endian
)

// PutInt appends n in the 1, 3 or 5 byte VarInt form.
//
// Values in [-126, 127] take a single byte. The bytes 0x80 and 0x81 (-128 and
// -127 as signed bytes) are reserved as markers for the 16 and 32 bit forms.
func PutInt(w Writer, n int32) {
	switch {
	case n < 128 && n > -127:
		w.PutByte(byte(n))
	case n < 0x8000 && n >= -0x8000:
		w.PutByte(varInt16Marker)
		w.PutByte(byte(n))
		w.PutByte(byte(n >> 8))
	default:
		w.PutByte(varInt32Marker)
		w.PutByte(byte(n))
		w.PutByte(byte(n >> 8))
		w.PutByte(byte(n >> 16))
		w.PutByte(byte(n >> 24))
	}
}

// GetInt consumes one VarInt written by PutInt.
func GetInt(r ByteSource) (int32, error) {
	c, err := r.GetByte()
	if err != nil {
		return 0, err
	}

	switch int8(c) {
	case -128:
		var b [2]byte
		if err := r.Get(b[:]); err != nil {
			return 0, err
		}
		// the signed high byte carries the sign into bits 16-31
		return int32(b[0]) | int32(int8(b[1]))<<8, nil
	case -127:
		var b [4]byte
		if err := r.Get(b[:]); err != nil {
			return 0, err
		}
		return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24, nil
	default:
		return int32(int8(c)), nil
	}
}

// IntLen returns the number of bytes PutInt writes for n.
func IntLen(n int32) int {
	switch {
	case n < 128 && n > -127:
		return 1
	case n < 0x8000 && n >= -0x8000:
		return 3
	default:
		return 5
	}
}
