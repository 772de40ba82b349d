package transport

import (
	"github.com/beamteleport/beam/internal/protocol"
)

// ReassemblyGCWindow is the 90kHz-tick window (~1s of video clock) past
// which an incomplete fragment record is garbage collected (§4.3, §6.6).
const ReassemblyGCWindow = 90_000

// fragmentRecord is the reassembler state for one NAL's timestamp.
type fragmentRecord struct {
	expected  uint16
	flags     uint8 // flags byte of the fragment carrying FlagStart
	haveFlags bool
	fragments map[uint16][]byte
}

// Reassembler reassembles NAL units from fragmented UDP datagrams (§4.3).
// It is owned by a single goroutine (the UDP receive loop) and therefore
// needs no internal locking.
type Reassembler struct {
	records map[uint32]*fragmentRecord
}

// NewReassembler creates an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{records: make(map[uint32]*fragmentRecord)}
}

// Feed processes one received datagram's header+payload. It returns a
// complete NAL and true if this datagram completed one; otherwise it
// returns the zero value and false. Feed always runs GC after inserting,
// using ts as the "arrived timestamp" reference point.
func (r *Reassembler) Feed(hdr protocol.Header, payload []byte) (NAL, bool) {
	ts := hdr.Timestamp

	rec, ok := r.records[ts]
	if !ok {
		rec = &fragmentRecord{
			expected:  hdr.FragCount,
			fragments: make(map[uint16][]byte, hdr.FragCount),
		}
		r.records[ts] = rec
	}
	// Last write wins per protocol guarantee that all fragments of one NAL
	// agree on FragCount.
	rec.expected = hdr.FragCount

	if hdr.IsStart() {
		rec.flags = hdr.Flags
		rec.haveFlags = true
	}

	// Index-based insertion makes duplicate fragments idempotent.
	if _, dup := rec.fragments[hdr.FragIndex]; !dup {
		buf := make([]byte, len(payload))
		copy(buf, payload)
		rec.fragments[hdr.FragIndex] = buf
	}

	var out NAL
	var complete bool
	if rec.expected > 0 && len(rec.fragments) == int(rec.expected) {
		data := make([]byte, 0, len(rec.fragments)*protocol.MaxPayload)
		for i := uint16(0); i < rec.expected; i++ {
			data = append(data, rec.fragments[i]...)
		}
		isKeyframe := rec.haveFlags && (rec.flags&protocol.FlagKeyframe != 0)
		out = NAL{Data: data, IsKeyframe: isKeyframe, Timestamp: ts}
		complete = true
		delete(r.records, ts)
	}

	r.gc(ts)

	return out, complete
}

// gc drops any record whose timestamp is strictly older than
// arrived-ReassemblyGCWindow, per §4.3. A record newer than arrived is never
// collected, allowing reordering across the one-second window.
func (r *Reassembler) gc(arrived uint32) {
	for ts := range r.records {
		if protocol.TimestampNewer(arrived, ts) && arrived-ts > ReassemblyGCWindow {
			delete(r.records, ts)
		}
	}
}

// PendingCount reports the number of in-flight (incomplete) fragment
// records. Exposed for tests and diagnostics only.
func (r *Reassembler) PendingCount() int {
	return len(r.records)
}
