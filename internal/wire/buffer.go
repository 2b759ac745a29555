package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Buffer is a small cursor over a packet payload, used by both backends to
// decode/encode the typed fields within a frame (ints, fixed strings,
// C-style zero-terminated strings, and byte runs).
type Buffer struct {
	buf []byte
	pos int
}

// NewBuffer wraps payload for reading from offset 0.
func NewBuffer(payload []byte) *Buffer {
	return &Buffer{buf: payload}
}

// NewWriteBuffer returns an empty Buffer for building a payload.
func NewWriteBuffer() *Buffer {
	return &Buffer{}
}

// Bytes returns everything written so far.
func (b *Buffer) Bytes() []byte { return b.buf }

// Remaining reports how many unread bytes are left.
func (b *Buffer) Remaining() int { return len(b.buf) - b.pos }

func (b *Buffer) require(n int) error {
	if b.Remaining() < n {
		return fmt.Errorf("wire: buffer underrun: need %d bytes, have %d", n, b.Remaining())
	}
	return nil
}

// PeekByte returns the next byte without consuming it, or 0 if exhausted.
func (b *Buffer) PeekByte() byte {
	if b.Remaining() == 0 {
		return 0
	}
	return b.buf[b.pos]
}

// ReadByte reads a single byte.
func (b *Buffer) ReadByte() (byte, error) {
	if err := b.require(1); err != nil {
		return 0, err
	}
	v := b.buf[b.pos]
	b.pos++
	return v, nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(v byte) { b.buf = append(b.buf, v) }

// ReadBytes reads exactly n raw bytes.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if err := b.require(n); err != nil {
		return nil, err
	}
	v := b.buf[b.pos : b.pos+n]
	b.pos += n
	return v, nil
}

// WriteBytes appends raw bytes verbatim.
func (b *Buffer) WriteBytes(v []byte) { b.buf = append(b.buf, v...) }

// ReadUint16 reads a 2-byte integer in the given byte order.
func (b *Buffer) ReadUint16(order binary.ByteOrder) (uint16, error) {
	v, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(v), nil
}

// WriteUint16 appends a 2-byte integer in the given byte order.
func (b *Buffer) WriteUint16(order binary.ByteOrder, v uint16) {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// ReadUint32 reads a 4-byte integer in the given byte order.
func (b *Buffer) ReadUint32(order binary.ByteOrder) (uint32, error) {
	v, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(v), nil
}

// WriteUint32 appends a 4-byte integer in the given byte order.
func (b *Buffer) WriteUint32(order binary.ByteOrder, v uint32) {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// ReadZeroTerminatedString reads up to (and consuming) the next 0x00 byte,
// the C-string convention both PostgreSQL's startup/auth messages and
// MySQL's handshake packets use for variable-length text fields.
func (b *Buffer) ReadZeroTerminatedString() (string, error) {
	idx := bytes.IndexByte(b.buf[b.pos:], 0)
	if idx < 0 {
		return "", fmt.Errorf("wire: unterminated string in buffer")
	}
	s := string(b.buf[b.pos : b.pos+idx])
	b.pos += idx + 1
	return s, nil
}

// WriteZeroTerminatedString appends s followed by a 0x00 terminator.
func (b *Buffer) WriteZeroTerminatedString(s string) {
	b.buf = append(b.buf, []byte(s)...)
	b.buf = append(b.buf, 0)
}

// ReadLengthEncodedInt decodes a MySQL length-encoded integer (§4.6): a
// one-byte prefix selects a literal value (<0xfb) or a following 2/3/8
// byte little-endian integer.
func (b *Buffer) ReadLengthEncodedInt() (uint64, error) {
	prefix, err := b.ReadByte()
	if err != nil {
		return 0, err
	}
	switch {
	case prefix < 0xfb:
		return uint64(prefix), nil
	case prefix == 0xfb:
		return 0, nil // NULL marker; caller must check prefix separately when NULL is meaningful
	case prefix == 0xfc:
		v, err := b.ReadUint16(binary.LittleEndian)
		return uint64(v), err
	case prefix == 0xfd:
		v, err := b.ReadBytes(3)
		if err != nil {
			return 0, err
		}
		return uint64(v[0]) | uint64(v[1])<<8 | uint64(v[2])<<16, nil
	case prefix == 0xfe:
		v, err := b.ReadBytes(8)
		if err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(v), nil
	default:
		return 0, fmt.Errorf("wire: invalid length-encoded-int prefix 0x%x", prefix)
	}
}

// WriteLengthEncodedInt encodes v as a MySQL length-encoded integer.
func (b *Buffer) WriteLengthEncodedInt(v uint64) {
	switch {
	case v < 0xfb:
		b.WriteByte(byte(v))
	case v <= 0xffff:
		b.WriteByte(0xfc)
		b.WriteUint16(binary.LittleEndian, uint16(v))
	case v <= 0xffffff:
		b.WriteByte(0xfd)
		b.buf = append(b.buf, byte(v), byte(v>>8), byte(v>>16))
	default:
		b.WriteByte(0xfe)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		b.buf = append(b.buf, tmp[:]...)
	}
}

// ReadLengthEncodedString decodes a MySQL length-encoded string: a
// length-encoded int followed by that many raw bytes.
func (b *Buffer) ReadLengthEncodedString() (string, error) {
	n, err := b.ReadLengthEncodedInt()
	if err != nil {
		return "", err
	}
	raw, err := b.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// WriteLengthEncodedString encodes s as a MySQL length-encoded string.
func (b *Buffer) WriteLengthEncodedString(s string) {
	b.WriteLengthEncodedInt(uint64(len(s)))
	b.buf = append(b.buf, []byte(s)...)
}
