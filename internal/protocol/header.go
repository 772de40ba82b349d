// Package protocol implements Beam's UDP wire format: a fixed 12-byte
// RTP-like header carried by every media datagram, plus the JSON control
// messages exchanged over the TCP control channel.
//
// All multi-byte integer fields are big-endian.
package protocol

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed size of the datagram header (§4.1).
const HeaderSize = 12

// MaxDatagram is the target UDP datagram size, chosen to avoid IP
// fragmentation on typical LAN paths.
const MaxDatagram = 1400

// MaxPayload is the largest NAL fragment that fits in one datagram.
const MaxPayload = MaxDatagram - HeaderSize

// Flag bits for the header's flags byte.
const (
	FlagKeyframe = 1 << 0
	FlagStart    = 1 << 1
	FlagEnd      = 1 << 2
)

// ErrTruncated is returned by Decode when fewer than HeaderSize bytes are
// supplied.
var ErrTruncated = errors.New("protocol: truncated header")

// Header is the 12-byte datagram header described in spec §4.1.
type Header struct {
	Sequence    uint16
	Timestamp   uint32
	Flags       uint8
	FragIndex   uint16
	FragCount   uint16
}

// Encode writes h into a fresh 12-byte slice.
func Encode(h Header) []byte {
	buf := make([]byte, HeaderSize)
	EncodeInto(buf, h)
	return buf
}

// EncodeInto writes h into buf, which must be at least HeaderSize bytes.
// Byte 7 (reserved) is always written as zero.
func EncodeInto(buf []byte, h Header) {
	_ = buf[11] // bounds check hint
	binary.BigEndian.PutUint16(buf[0:2], h.Sequence)
	binary.BigEndian.PutUint32(buf[2:6], h.Timestamp)
	buf[6] = h.Flags
	buf[7] = 0
	binary.BigEndian.PutUint16(buf[8:10], h.FragIndex)
	binary.BigEndian.PutUint16(buf[10:12], h.FragCount)
}

// Decode reads a header from the front of buf. Extra trailing bytes are
// the caller's payload and are left untouched.
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncated
	}
	return Header{
		Sequence:  binary.BigEndian.Uint16(buf[0:2]),
		Timestamp: binary.BigEndian.Uint32(buf[2:6]),
		Flags:     buf[6],
		FragIndex: binary.BigEndian.Uint16(buf[8:10]),
		FragCount: binary.BigEndian.Uint16(buf[10:12]),
	}, nil
}

// IsKeyframe reports whether the keyframe bit is set.
func (h Header) IsKeyframe() bool { return h.Flags&FlagKeyframe != 0 }

// IsStart reports whether this is the first fragment of a NAL.
func (h Header) IsStart() bool { return h.Flags&FlagStart != 0 }

// IsEnd reports whether this is the last fragment of a NAL.
func (h Header) IsEnd() bool { return h.Flags&FlagEnd != 0 }

// TimestampNewer reports whether a is newer than b under the wrapping
// 32-bit clock comparison used throughout §4.3 (RFC 1982 serial
// arithmetic): a straightforward `a > b` breaks across a wrap, so callers
// compare via signed subtraction instead.
func TimestampNewer(a, b uint32) bool {
	return int32(a-b) > 0
}
