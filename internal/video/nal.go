// Package video implements the hardware-oriented H.264 encode/decode
// pipeline of spec §4.4/§4.5, plus window capture. Grounded structurally on
// desktop/encoder.go's backend-interface pattern (encoderBackend selected
// by newBackend/registerHardwareFactory) and desktop/encoder_videotoolbox.go's
// darwin build-tagged cgo backend; the codec itself is
// github.com/y9o/go-openh264, carried over from the teacher's go.mod.
package video

import "encoding/binary"

// NAL unit types, per fpv-sender/h264/reader.go's Annex-B parsing constants.
const (
	NALTypeSlice  = 1  // Non-IDR slice
	NALTypeIDR    = 5  // IDR slice (keyframe)
	NALTypeSEI    = 6  // Supplemental enhancement info
	NALTypeSPS    = 7  // Sequence parameter set
	NALTypePPS    = 8  // Picture parameter set
	NALTypeAUD    = 9  // Access unit delimiter
	NALTypeFiller = 12 // Filler data
)

// annexBUnit is one NAL unit found inside an Annex-B byte stream, with its
// start code stripped.
type annexBUnit struct {
	Type uint8
	Data []byte // header byte + RBSP, no start code
}

// splitAnnexB splits an encoder's Annex-B output (stream of
// 00000001-or-000001-prefixed NALs) into individual units. VideoEncoder
// uses this to turn one access unit into the separate transport NALs
// §4.4 requires (parameter sets ahead of a keyframe slice, each sent on
// its own).
func splitAnnexB(stream []byte) []annexBUnit {
	var units []annexBUnit
	i := 0
	n := len(stream)
	for i < n {
		start, scLen := findStartCode(stream, i)
		if start < 0 {
			break
		}
		bodyStart := start + scLen
		if bodyStart >= n {
			break
		}
		nextStart, _ := findStartCode(stream, bodyStart+1)
		end := n
		if nextStart >= 0 {
			end = nextStart
		}
		units = append(units, annexBUnit{
			Type: stream[bodyStart] & 0x1F,
			Data: stream[bodyStart:end],
		})
		i = end
	}
	return units
}

// findStartCode finds the next 00 00 01 or 00 00 00 01 prefix at or after
// from, returning its position and length, or (-1, 0) if none remains.
func findStartCode(buf []byte, from int) (int, int) {
	for i := from; i+3 <= len(buf); i++ {
		if buf[i] == 0 && buf[i+1] == 0 {
			if buf[i+2] == 1 {
				return i, 3
			}
			if i+4 <= len(buf) && buf[i+2] == 0 && buf[i+3] == 1 {
				return i, 4
			}
		}
	}
	return -1, 0
}

// avccWrap prepends a 4-byte big-endian length prefix to a NAL unit's
// bytes (header byte + RBSP, no start code), per §4.5's AVCC framing
// requirement for the decode path.
func avccWrap(nal []byte) []byte {
	buf := make([]byte, 4+len(nal))
	binary.BigEndian.PutUint32(buf, uint32(len(nal)))
	copy(buf[4:], nal)
	return buf
}
