package cubewire

import (
	"bytes"
	"strings"
	"testing"
)

func TestPutString_Encoding(t *testing.T) {
	tests := []struct {
		name string
		s    string
		want []byte
	}{
		{"empty", "", []byte{0x00}},
		{"ascii", "hi", []byte{'h', 'i', 0x00}},
		{"stops at nul", "a\x00b", []byte{'a', 0x00}},
		// high bytes travel as signed chars
		{"high byte", "\xff", []byte{0xFF, 0x00}},
		{"marker bytes", "\x80\x81", []byte{0x80, 0x80, 0xFF, 0x80, 0x81, 0xFF, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBufferSize(16)
			PutString(b, tt.s)
			if !bytes.Equal(b.Bytes(), tt.want) {
				t.Errorf("PutString(%q) = % x, want % x", tt.s, b.Bytes(), tt.want)
			}
		})
	}
}

func TestGetString_RoundTrip(t *testing.T) {
	var all strings.Builder
	for c := 1; c < 256; c++ {
		all.WriteByte(byte(c))
	}

	for _, s := range []string{"", "a", "hello world", "\x0cfcolour", all.String()} {
		b := NewBufferSize(len(s) * 3)
		PutString(b, s)
		PutInt(b, 99)

		if got := GetString(b, len(s)+1); got != s {
			t.Errorf("GetString = %q, want %q", got, s)
		}
		// the terminator is consumed, the next value is intact
		if n, err := GetInt(b); err != nil || n != 99 {
			t.Errorf("value after string = %d, %v; want 99", n, err)
		}
	}
}

func TestGetString_TruncatesAtCapacity(t *testing.T) {
	b := NewBufferSize(16)
	PutString(b, "abcdef")

	if got := GetString(b, 4); got != "abc" {
		t.Errorf("GetString(cap 4) = %q, want abc", got)
	}
	// four units were consumed: a, b, c and the dropped d
	if got := GetString(b, 16); got != "ef" {
		t.Errorf("rest of stream = %q, want ef", got)
	}
}

func TestGetString_ExhaustedSource(t *testing.T) {
	b := NewBuffer([]byte{'a', 'b'})
	if got := GetString(b, 16); got != "ab" {
		t.Errorf("GetString = %q, want ab", got)
	}

	// a unit cut off in the middle of its encoding ends the string
	b = NewBuffer([]byte{'a', 0x80, 0x41})
	if got := GetString(b, 16); got != "a" {
		t.Errorf("GetString = %q, want a", got)
	}
}

func TestGetString_NonPositiveCapacity(t *testing.T) {
	b := NewBufferSize(4)
	PutString(b, "abc")

	if got := GetString(b, 0); got != "" {
		t.Errorf("GetString(cap 0) = %q, want empty", got)
	}
	if got := GetString(b, 1); got != "" {
		t.Errorf("GetString(cap 1) = %q, want empty", got)
	}
}
