package cubewire

// PutString appends s as a wire string: one VarInt per byte, read as a
// signed char, followed by a VarInt 0. Encoding stops at the first NUL in s.
func PutString(w Writer, s string) {
	for i := 0; i < len(s) && s[i] != 0; i++ {
		PutInt(w, int32(int8(s[i])))
	}
	PutInt(w, 0)
}

// GetString consumes a wire string into a destination of maxLen bytes,
// terminator included, so at most maxLen-1 bytes are returned.
//
// Decoding never fails. It ends at the encoded terminator, when the
// destination is full (the unit that would overflow it is consumed and
// dropped), or when r runs dry, in which case whatever was decoded so far
// is returned.
func GetString(r Reader, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	text := make([]byte, 0, min(maxLen, r.Remaining()+1))
	for {
		if len(text) >= maxLen {
			return string(text[:maxLen-1])
		}
		if r.Remaining() == 0 {
			return string(text)
		}
		n, err := GetInt(r)
		if err != nil {
			return string(text)
		}
		c := byte(n)
		if c == 0 {
			return string(text)
		}
		text = append(text, c)
	}
}
