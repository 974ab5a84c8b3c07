package cubewire

// escapeByte starts a two byte formatting escape (a colour code in chat text).
const escapeByte = '\f'

// Character classes of the 8-bit game charset.
const (
	ctPrint = 1 << iota
	ctSpace
)

var cubeCType = func() (t [256]uint8) {
	for c := 1; c < 256; c++ {
		t[c] = ctPrint
	}
	for c := '\t'; c <= '\r'; c++ {
		t[c] = ctSpace
	}
	t[' '] = ctPrint | ctSpace
	return t
}()

// IsCubePrint reports whether c is a printable character of the game charset.
// Everything but NUL and the ASCII control whitespace is printable: the other
// control codes are mapped to accented glyphs.
func IsCubePrint(c byte) bool {
	return cubeCType[c]&ctPrint != 0
}

// IsCubeSpace reports whether c is whitespace.
func IsCubeSpace(c byte) bool {
	return cubeCType[c]&ctSpace != 0
}

// FilterText returns the printable part of src, at most maxLen bytes long.
//
// src ends at its first NUL. An escape byte is dropped together with the byte
// after it. Whitespace that is not printable survives only when
// keepWhitespace is set, and becomes a plain space when forceSpace is set.
func FilterText(src string, keepWhitespace, forceSpace bool, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	dst := make([]byte, 0, min(len(src), maxLen))
	for i := 0; i < len(src) && src[i] != 0; i++ {
		c := src[i]
		if c == escapeByte {
			i++
			if i >= len(src) || src[i] == 0 {
				break
			}
			continue
		}
		if !IsCubePrint(c) {
			if !IsCubeSpace(c) || !keepWhitespace {
				continue
			}
			if forceSpace {
				c = ' '
			}
		}
		dst = append(dst, c)
		if len(dst) == maxLen {
			break
		}
	}
	return string(dst)
}
