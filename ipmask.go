package cubewire

import (
	"encoding/binary"
	"math"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IPMask is an address rule: a host matches when host&Mask == IP.
//
// Both values hold the address in network order as a number, so the first
// octet of the dotted quad is the most significant byte. IP never has bits
// set outside Mask.
type IPMask struct {
	IP   uint32
	Mask uint32
}

// ParseIPMask parses a rule of the form "a.b.c.d[/n]".
//
// Parsing is lenient and never fails. Octets that are missing or not a number
// (conventionally "*") are wildcards. "/n" replaces the per-octet mask with
// an n bit prefix, n clamped to [0, 32], and ends parsing.
func ParseIPMask(text string) IPMask {
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}

	var ip, mask [4]byte
	s := text
	for i := 0; i < 4; i++ {
		n, rest, ok := parseLong(s)
		if ok {
			ip[i] = byte(n)
			mask[i] = 0xFF
		}
		s = rest

		for len(s) > 0 {
			c := s[0]
			s = s[1:]
			if c == '.' {
				break
			}
			if c == '/' {
				bits, _, _ := parseLong(s)
				m := prefixMask(int(max(0, min(bits, 32))))
				return IPMask{IP: binary.BigEndian.Uint32(ip[:]) & m, Mask: m}
			}
		}
	}

	return IPMask{
		IP:   binary.BigEndian.Uint32(ip[:]),
		Mask: binary.BigEndian.Uint32(mask[:]),
	}
}

// prefixMask returns a mask with the top bits bits set.
func prefixMask(bits int) uint32 {
	return ^uint32(0) << (32 - bits)
}

// parseLong reads a decimal number the way strtol does: optional leading
// whitespace and sign, then digits. ok is false and rest is s when there are
// no digits. Values saturate at the int64 range.
func parseLong(s string) (n int64, rest string, ok bool) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for ; i < len(s) && isDigit(s[i]); i++ {
		d := int64(s[i] - '0')
		switch {
		case neg && n < (math.MinInt64+d)/10:
			n = math.MinInt64
		case !neg && n > (math.MaxInt64-d)/10:
			n = math.MaxInt64
		case neg:
			n = n*10 - d
		default:
			n = n*10 + d
		}
	}
	if i == start {
		return 0, s, false
	}
	return n, s[i:], true
}

func isSpace(c byte) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

// Octet returns octet i (0 to 3) of the address.
func (m IPMask) Octet(i int) byte {
	return byte(m.IP >> (24 - 8*i))
}

func maskOctet(mask uint32, i int) byte {
	return byte(mask >> (24 - 8*i))
}

// String formats the rule so that ParseIPMask returns it unchanged.
// Wildcard octets print as "*", and a prefix that does not end on an octet
// boundary is appended as "/n".
func (m IPMask) String() string {
	var b strings.Builder
	last := -1
	for i := 0; i < 4; i++ {
		if maskOctet(m.Mask, i) == 0 {
			continue
		}
		if last >= 0 {
			b.WriteByte('.')
		}
		for j := last + 1; j < i; j++ {
			b.WriteString("*.")
		}
		b.WriteString(strconv.Itoa(int(m.Octet(i))))
		last = i
	}
	if last < 0 {
		b.WriteString("*.*.*.*")
	} else {
		for j := last + 1; j < 4; j++ {
			b.WriteString(".*")
		}
	}

	bits := ^m.Mask
	prefix := 32
	for ; bits&0xFF == 0xFF; bits >>= 8 {
		prefix -= 8
	}
	for ; bits&1 != 0; bits >>= 1 {
		prefix--
	}
	if bits == 0 && prefix%8 != 0 {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(prefix))
	}
	return b.String()
}

// Check reports whether host, a network-order address, matches the rule.
func (m IPMask) Check(host uint32) bool {
	return host&m.Mask == m.IP
}

// CheckIP reports whether ip matches the rule. Only IPv4 addresses can match.
func (m IPMask) CheckIP(ip net.IP) bool {
	host, ok := ipv4Uint32(ip)
	return ok && m.Check(host)
}

// MarshalText implements encoding.TextMarshaler.
func (m IPMask) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *IPMask) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		return errors.New("empty address rule")
	}
	*m = ParseIPMask(string(text))
	return nil
}

func ipv4Uint32(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}
