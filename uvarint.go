package cubewire

// PutUint appends n in the 1 to 4 byte VarUInt form.
//
// Non-negative values below 1<<21 use 7 data bits per byte with the high bit
// flagging continuation. Negative values and values from 1<<21 up always take
// four bytes; the last byte is n>>21 unmasked, so it carries bit 28 (the sign
// as seen by GetUint) as well as the high data bits.
func PutUint(w Writer, n int32) {
	switch {
	case n < 0 || n >= 1<<21:
		w.PutByte(0x80 | byte(n&0x7F))
		w.PutByte(0x80 | byte((n>>7)&0x7F))
		w.PutByte(0x80 | byte((n>>14)&0x7F))
		w.PutByte(byte(n >> 21))
	case n < 1<<7:
		w.PutByte(byte(n))
	case n < 1<<14:
		w.PutByte(0x80 | byte(n&0x7F))
		w.PutByte(byte(n >> 7))
	default:
		w.PutByte(0x80 | byte(n&0x7F))
		w.PutByte(0x80 | byte((n>>7)&0x7F))
		w.PutByte(byte(n >> 14))
	}
}

// GetUint consumes one VarUInt written by PutUint.
//
// There is no dedicated continuation flag: after each byte is added, the bit
// just above the bits decoded so far decides whether another byte follows.
// That bit is the continuation marker the encoder set, so each step subtracts
// it back out once the next byte is folded in. Bit 28 set after the fourth
// byte means the value is negative.
func GetUint(r ByteSource) (int32, error) {
	c, err := r.GetByte()
	if err != nil {
		return 0, err
	}
	n := int32(c)
	if n&0x80 == 0 {
		return n, nil
	}

	if c, err = r.GetByte(); err != nil {
		return 0, err
	}
	n += int32(c)<<7 - 0x80

	if n&(1<<14) != 0 {
		if c, err = r.GetByte(); err != nil {
			return 0, err
		}
		n += int32(c)<<14 - 1<<14
	}

	if n&(1<<21) != 0 {
		if c, err = r.GetByte(); err != nil {
			return 0, err
		}
		n += int32(c)<<21 - 1<<21
	}

	if n&(1<<28) != 0 {
		n |= -1 << 28
	}
	return n, nil
}

// UintLen returns the number of bytes PutUint writes for n.
func UintLen(n int32) int {
	switch {
	case n < 0 || n >= 1<<21:
		return 4
	case n < 1<<7:
		return 1
	case n < 1<<14:
		return 2
	default:
		return 3
	}
}
