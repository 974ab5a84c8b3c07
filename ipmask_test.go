package cubewire

import (
	"math/rand"
	"net"
	"testing"
)

func TestParseIPMask(t *testing.T) {
	tests := []struct {
		text string
		ip   uint32
		mask uint32
	}{
		{"192.168.1.0/24", 0xC0A80100, 0xFFFFFF00},
		{"10.0.0.0", 0x0A000000, 0xFFFFFFFF},
		{"10", 0x0A000000, 0xFF000000},
		{"10.1.128.0/17", 0x0A018000, 0xFFFF8000},
		{"10.1.255.255/17", 0x0A018000, 0xFFFF8000},
		{"*.168.1.2", 0x00A80102, 0x00FFFFFF},
		{"10.*.3.*", 0x0A000300, 0xFF00FF00},
		{"*.*.*.*", 0, 0},
		{"/0", 0, 0},
		{"", 0, 0},
		{"abc", 0, 0},
		{"10.0.0.0/40", 0x0A000000, 0xFFFFFFFF},
		{"10.0.0.0/-3", 0, 0},
		{"10.0.0.0/", 0, 0},
		{"300.1.1.1", 0x2C010101, 0xFFFFFFFF},
		{"-1.0.0.0", 0xFF000000, 0xFFFFFFFF},
		{" 10. 2", 0x0A020000, 0xFFFF0000},
		{"10.0.0.0\x00/8", 0x0A000000, 0xFFFFFFFF},
		{"1.2.3.4.5", 0x01020304, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m := ParseIPMask(tt.text)
			if m.IP != tt.ip || m.Mask != tt.mask {
				t.Errorf("ParseIPMask(%q) = %08x/%08x, want %08x/%08x",
					tt.text, m.IP, m.Mask, tt.ip, tt.mask)
			}
			if m.IP&^m.Mask != 0 {
				t.Errorf("IP %08x has bits outside mask %08x", m.IP, m.Mask)
			}
		})
	}
}

func TestIPMask_String(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"192.168.1.0/24", "192.168.1.*"},
		{"10.0.0.0", "10.0.0.0"},
		{"10", "10.*.*.*"},
		{"10.1.128.0/17", "10.1.128.*/17"},
		{"10.0.0.0/5", "8.*.*.*/5"},
		{"*.168.1.2", "*.168.1.2"},
		{"10.*.3.*", "10.*.3.*"},
		{"/0", "*.*.*.*"},
		{"1.2.3.4/32", "1.2.3.4"},
		{"1.2.3.4/31", "1.2.3.4/31"},
	}

	for _, tt := range tests {
		if got := ParseIPMask(tt.text).String(); got != tt.want {
			t.Errorf("ParseIPMask(%q).String() = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestIPMask_StringParsesBack(t *testing.T) {
	var masks []IPMask
	rng := rand.New(rand.NewSource(1))
	for bits := 0; bits <= 32; bits++ {
		m := prefixMask(bits)
		masks = append(masks, IPMask{IP: rng.Uint32() & m, Mask: m})
	}
	for i := 0; i < 1000; i++ {
		var m uint32
		for o := 0; o < 4; o++ {
			if rng.Intn(2) == 0 {
				m |= 0xFF << (8 * o)
			}
		}
		masks = append(masks, IPMask{IP: rng.Uint32() & m, Mask: m})
	}

	for _, m := range masks {
		if got := ParseIPMask(m.String()); got != m {
			t.Errorf("ParseIPMask(%q) = %08x/%08x, want %08x/%08x",
				m.String(), got.IP, got.Mask, m.IP, m.Mask)
		}
	}
}

func TestIPMask_Octet(t *testing.T) {
	m := ParseIPMask("192.168.1.7")
	for i, want := range []byte{192, 168, 1, 7} {
		if got := m.Octet(i); got != want {
			t.Errorf("Octet(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestIPMask_Check(t *testing.T) {
	m := ParseIPMask("192.168.1.0/24")

	tests := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.0", true},
		{"192.168.1.200", true},
		{"192.168.2.1", false},
		{"10.0.0.1", false},
		{"::1", false},
		{"::ffff:192.168.1.9", true},
	}

	for _, tt := range tests {
		if got := m.CheckIP(net.ParseIP(tt.ip)); got != tt.want {
			t.Errorf("CheckIP(%s) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !ParseIPMask("*.*.*.*").Check(0xDEADBEEF) {
		t.Error("the empty mask must match every host")
	}
	if !ParseIPMask("*.168.1.2").Check(0x07A80102) {
		t.Error("wildcard first octet did not match")
	}
}

func TestIPMask_Text(t *testing.T) {
	m := ParseIPMask("10.1.128.0/17")
	text, err := m.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText error: %v", err)
	}
	if string(text) != "10.1.128.*/17" {
		t.Errorf("MarshalText = %q", text)
	}

	var back IPMask
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if back != m {
		t.Errorf("UnmarshalText = %+v, want %+v", back, m)
	}

	for _, bad := range []string{"", "  "} {
		if err := back.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("UnmarshalText(%q) succeeded", bad)
		}
	}
}
