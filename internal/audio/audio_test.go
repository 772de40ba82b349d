package audio

import "testing"

func TestBitrateFor(t *testing.T) {
	if got := bitrateFor(1); got != 64000 {
		t.Fatalf("mono bitrate = %d, want 64000", got)
	}
	if got := bitrateFor(2); got != 128000 {
		t.Fatalf("stereo bitrate = %d, want 128000", got)
	}
}

func TestDeinterleave(t *testing.T) {
	interleaved := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	planes := deinterleave(interleaved, 2)
	if len(planes) != 2 {
		t.Fatalf("got %d planes, want 2", len(planes))
	}
	wantL := []float32{0.1, 0.3, 0.5}
	wantR := []float32{0.2, 0.4, 0.6}
	for i := range wantL {
		if planes[0][i] != wantL[i] || planes[1][i] != wantR[i] {
			t.Fatalf("plane mismatch at %d: got (%v,%v) want (%v,%v)", i, planes[0][i], planes[1][i], wantL[i], wantR[i])
		}
	}
}

func TestFloatInt16RoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 1, -1}
	i16 := floatToInt16(in)
	back := int16ToFloat(i16)
	for i := range in {
		diff := back[i] - in[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.001 {
			t.Fatalf("round trip mismatch at %d: %v -> %v", i, in[i], back[i])
		}
	}
}

type fakePlayback struct {
	enqueued []int
	closed   bool
}

func (f *fakePlayback) Enqueue(planes [][]float32, frames int) error {
	f.enqueued = append(f.enqueued, frames)
	return nil
}

func (f *fakePlayback) Close() error {
	f.closed = true
	return nil
}

func TestPlayerSubmitDeinterleavesAndForwards(t *testing.T) {
	fp := &fakePlayback{}
	p := NewPlayer(fp)

	if err := p.Submit(PCM{Samples: make([]float32, FrameSize*2), Frames: FrameSize, Channels: 2}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(fp.enqueued) != 1 || fp.enqueued[0] != FrameSize {
		t.Fatalf("expected one enqueue of %d frames, got %v", FrameSize, fp.enqueued)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fp.closed {
		t.Fatal("backend was not closed")
	}
}
