package cubewire

import (
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

const (
	// MaxTransHeader is the room reserved for the header in a file packet.
	MaxTransHeader = 5000
	// MaxFilePacketSize is the largest file MakeFilePacket accepts.
	MaxFilePacketSize = 16 << 20
)

var (
	// ErrFileSize is returned when a file is empty or larger than MaxFilePacketSize.
	ErrFileSize = errors.New("file size out of range")
	// ErrFormatArgument is returned when the arguments do not match the format.
	ErrFormatArgument = errors.New("bad format argument")
)

// File is the stream MakeFilePacket reads its payload from.
// *io.SectionReader and *bytes.Reader satisfy it.
type File interface {
	io.ReadSeeker
	Size() int64
}

// OpenFile opens name as a File. Close the returned io.Closer when done.
func OpenFile(name string) (File, io.Closer, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrap(err, "stat file")
	}
	return io.NewSectionReader(f, 0, info.Size()), f, nil
}

// MakeFilePacket builds a reliable packet holding a header described by
// format followed by the whole contents of file.
//
// Each format byte is a directive:
//
//	i   VarInt of the next argument; a digit after it repeats it, "i3" takes three
//	s   wire string of the next argument
//	l   VarInt of the file length; takes no argument
//
// Other bytes are ignored. The file must hold between 1 byte and
// MaxFilePacketSize bytes, otherwise ErrFileSize is returned and the file is
// left untouched. On success the file's read position is at its end.
func MakeFilePacket(file File, format string, args ...any) (*Packet, error) {
	size := min(file.Size(), math.MaxInt32)
	if size <= 0 || size > MaxFilePacketSize {
		return nil, errors.Wrapf(ErrFileSize, "%d bytes", size)
	}
	length := int(size)

	p := NewPacketBuffer(MaxTransHeader+length, PacketReliable)
	next := 0
	arg := func() (any, error) {
		if next >= len(args) {
			return nil, errors.Wrapf(ErrFormatArgument, "missing argument %d", next)
		}
		next++
		return args[next-1], nil
	}

	for i := 0; i < len(format); i++ {
		switch format[i] {
		case 'i':
			count := 1
			if i+1 < len(format) && isDigit(format[i+1]) {
				i++
				count = int(format[i] - '0')
			}
			for ; count > 0; count-- {
				v, err := arg()
				if err != nil {
					return nil, err
				}
				n, ok := intArg(v)
				if !ok {
					return nil, errors.Wrapf(ErrFormatArgument, "argument %d: want integer, got %T", next-1, v)
				}
				PutInt(p, n)
			}
		case 's':
			v, err := arg()
			if err != nil {
				return nil, err
			}
			s, ok := v.(string)
			if !ok {
				return nil, errors.Wrapf(ErrFormatArgument, "argument %d: want string, got %T", next-1, v)
			}
			PutString(p, s)
		case 'l':
			PutInt(p, int32(length))
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewind file")
	}
	start := p.Len()
	p.buf = append(p.buf, make([]byte, length)...)
	if _, err := io.ReadFull(file, p.buf[start:]); err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return p.Finalize(), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// intArg converts the integer kinds a caller may pass for an 'i' directive.
// Values are truncated to 32 bits.
func intArg(v any) (int32, bool) {
	switch n := v.(type) {
	case int:
		return int32(n), true
	case int8:
		return int32(n), true
	case int16:
		return int32(n), true
	case int32:
		return n, true
	case int64:
		return int32(n), true
	case uint:
		return int32(n), true
	case uint8:
		return int32(n), true
	case uint16:
		return int32(n), true
	case uint32:
		return int32(n), true
	case uint64:
		return int32(n), true
	default:
		return 0, false
	}
}
