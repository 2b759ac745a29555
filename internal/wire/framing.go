// Package wire implements the parametric framed byte stream shared by both
// backend wire clients (§4.1, C1): a configurable packet header (optional
// one-byte message id, a length field of configurable width/endianness/
// self-inclusion, and an optional sequence byte) wrapped around a payload
// buffer with typed read/write helpers.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"shoal/internal/dberrors"
)

// Framing parametrizes one backend's packet header shape.
type Framing struct {
	// HasID reports whether every packet is prefixed with a one-byte
	// message id (PostgreSQL: true, e.g. 'Q', 'R', 'Z'; MySQL: false, the
	// payload's first byte IS the command/response discriminator).
	HasID bool

	// BigEndian selects the byte order of the length field.
	BigEndian bool

	// LengthWidth is the length field's width in bytes (PostgreSQL: 4,
	// MySQL: 3).
	LengthWidth int

	// LengthIncludesSelf reports whether the length field counts its own
	// bytes (PostgreSQL: true) or only the payload that follows it
	// (MySQL: false; MySQL's length never counts the sequence byte
	// either — see HasSequence).
	LengthIncludesSelf bool

	// HasSequence reports whether a one-byte packet sequence number
	// follows the length field (MySQL: true, reset to 0 at the start of
	// each command; PostgreSQL: false).
	HasSequence bool
}

// Postgres is the PostgreSQL v3 frontend/backend framing: 1-byte id ('Q',
// 'R', 'Z', ...), a 4-byte big-endian length that counts itself, no
// sequence byte.
var Postgres = Framing{
	HasID:              true,
	BigEndian:          true,
	LengthWidth:        4,
	LengthIncludesSelf: true,
	HasSequence:        false,
}

// MySQL is the MySQL/MariaDB 4.1+ client/server framing: no separate
// message id (the payload itself is self-describing), a 3-byte
// little-endian length counting only the payload, and a 1-byte sequence
// number that resets to 0 at the start of each command.
var MySQL = Framing{
	HasID:              false,
	BigEndian:          false,
	LengthWidth:        3,
	LengthIncludesSelf: false,
	HasSequence:        true,
}

// byteOrder returns the binary.ByteOrder matching f's configured endianness.
func (f Framing) byteOrder() binary.ByteOrder {
	if f.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// putLength encodes n into the low f.LengthWidth bytes of a 4-byte
// scratch buffer, in f's configured endianness, and returns the relevant
// slice.
func (f Framing) putLength(n int) []byte {
	var scratch [4]byte
	switch f.LengthWidth {
	case 2:
		f.byteOrder().PutUint16(scratch[:2], uint16(n))
		return scratch[:2]
	case 3:
		buf := make([]byte, 4)
		f.byteOrder().PutUint32(buf, uint32(n))
		if f.BigEndian {
			return buf[1:4]
		}
		return buf[:3]
	case 4:
		f.byteOrder().PutUint32(scratch[:4], uint32(n))
		return scratch[:4]
	default:
		panic(fmt.Sprintf("wire: unsupported length width %d", f.LengthWidth))
	}
}

func (f Framing) getLength(b []byte) int {
	switch f.LengthWidth {
	case 2:
		return int(f.byteOrder().Uint16(b))
	case 3:
		buf := make([]byte, 4)
		if f.BigEndian {
			copy(buf[1:4], b)
		} else {
			copy(buf[:3], b)
		}
		return int(f.byteOrder().Uint32(buf))
	case 4:
		return int(f.byteOrder().Uint32(b))
	default:
		panic(fmt.Sprintf("wire: unsupported length width %d", f.LengthWidth))
	}
}

// Packet is one decoded frame: an optional id byte, the sequence number
// (always present in the struct, ignored when the framing has none), and
// the payload with header fields stripped.
type Packet struct {
	ID       byte
	Sequence byte
	Payload  []byte
}

// Stream wraps an io.ReadWriter with f's framing, plus a per-command
// sequence counter for framings that use one.
type Stream struct {
	rw  io.ReadWriter
	f   Framing
	seq byte
}

// NewStream builds a Stream over rw using framing f.
func NewStream(rw io.ReadWriter, f Framing) *Stream {
	return &Stream{rw: rw, f: f}
}

// ResetSequence zeroes the sequence counter, done at the start of every
// MySQL command (§4.1).
func (s *Stream) ResetSequence() { s.seq = 0 }

// WritePacket frames payload per s.f and writes it. Wire order is [id, if
// any] [length] [sequence, if any] [payload]: PostgreSQL's type byte
// precedes its length word; the length itself never counts that byte,
// only itself (when LengthIncludesSelf) and the payload.
func (s *Stream) WritePacket(id byte, payload []byte) error {
	lengthValue := len(payload)
	if s.f.LengthIncludesSelf {
		lengthValue += s.f.LengthWidth
	}

	buf := make([]byte, 0, s.f.LengthWidth+2+len(payload))
	if s.f.HasID {
		buf = append(buf, id)
	}
	buf = append(buf, s.f.putLength(lengthValue)...)
	if s.f.HasSequence {
		buf = append(buf, s.seq)
		s.seq++
	}
	buf = append(buf, payload...)

	_, err := s.rw.Write(buf)
	return err
}

// ReadPacket reads and decodes the next frame.
func (s *Stream) ReadPacket() (*Packet, error) {
	var id byte
	if s.f.HasID {
		idByte := make([]byte, 1)
		if _, err := io.ReadFull(s.rw, idByte); err != nil {
			if err == io.EOF {
				err = dberrors.ErrConnectionClosed
			}
			return nil, fmt.Errorf("wire: read message id: %w", err)
		}
		id = idByte[0]
	}

	header := make([]byte, s.f.LengthWidth)
	if _, err := io.ReadFull(s.rw, header); err != nil {
		if err == io.EOF {
			err = dberrors.ErrConnectionClosed
		}
		return nil, fmt.Errorf("wire: read length header: %w", err)
	}
	length := s.f.getLength(header)

	var seq byte
	if s.f.HasSequence {
		seqByte := make([]byte, 1)
		if _, err := io.ReadFull(s.rw, seqByte); err != nil {
			return nil, fmt.Errorf("wire: read sequence byte: %w", err)
		}
		seq = seqByte[0]
		s.seq = seq + 1
	}

	payloadLen := length
	if s.f.LengthIncludesSelf {
		payloadLen -= s.f.LengthWidth
	}

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(s.rw, payload); err != nil {
			return nil, fmt.Errorf("wire: read payload: %w", err)
		}
	}

	return &Packet{ID: id, Sequence: seq, Payload: payload}, nil
}
