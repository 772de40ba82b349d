package input

import "testing"

func TestNormalizePointerFlipsYAndDivides(t *testing.T) {
	nx, ny, ok := NormalizePointer(100, 50, 200, 100)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if nx != 0.5 {
		t.Fatalf("nx = %v, want 0.5", nx)
	}
	if ny != 0.5 {
		t.Fatalf("ny = %v, want 0.5", ny)
	}
}

func TestNormalizePointerDropsOffSurface(t *testing.T) {
	cases := []struct{ x, y float64 }{
		{-30, 0}, {230, 0}, {0, -30}, {0, 130},
	}
	for _, c := range cases {
		if _, _, ok := NormalizePointer(c.x, c.y, 200, 100); ok {
			t.Fatalf("expected off-surface drop for (%v,%v)", c.x, c.y)
		}
	}
}

func TestNormalizePointerBoundaryIncluded(t *testing.T) {
	// -0.1 and 1.1 are inclusive per spec.
	if _, _, ok := NormalizePointer(-20, 0, 200, 100); !ok {
		t.Fatal("expected -0.1 boundary to be included")
	}
	if _, _, ok := NormalizePointer(220, 0, 200, 100); !ok {
		t.Fatal("expected 1.1 boundary to be included")
	}
}

func TestNormalizeScrollDelta(t *testing.T) {
	if got := NormalizeScrollDelta(500, true); got != 1 {
		t.Fatalf("high precision: got %v want 1", got)
	}
	if got := NormalizeScrollDelta(1, false); got != 0.03 {
		t.Fatalf("low precision: got %v want 0.03", got)
	}
}

func TestDenormalize(t *testing.T) {
	px, py := Denormalize(100, 50, 200, 100, 0.5, 0.5)
	if px != 200 || py != 100 {
		t.Fatalf("got (%v,%v) want (200,100)", px, py)
	}
}

type captureProbe struct {
	pointers []PointerEvent
	scrolls  []ScrollEvent
	keys     []KeyEvent
}

func (p *captureProbe) OnPointer(e PointerEvent) { p.pointers = append(p.pointers, e) }
func (p *captureProbe) OnScroll(e ScrollEvent)   { p.scrolls = append(p.scrolls, e) }
func (p *captureProbe) OnKey(e KeyEvent) bool {
	p.keys = append(p.keys, e)
	return true
}

type nopBackend struct{}

func (nopBackend) Start(*Capture) error { return nil }
func (nopBackend) Stop() error          { return nil }

func TestHandleRawKeyEscapeReleasesCaptureWithoutForwarding(t *testing.T) {
	probe := &captureProbe{}
	c := New(nopBackend{}, probe)
	c.SetCursorCaptured(true)

	consumed := c.HandleRawKey(true, escapeKeyCode, Modifiers{}, "")
	if !consumed {
		t.Fatal("escape key must be consumed")
	}
	if c.CursorCaptured() {
		t.Fatal("expected cursor capture released")
	}
	if len(probe.keys) != 0 {
		t.Fatal("escape-while-captured must not be forwarded to sink")
	}
}

func TestHandleRawKeyForwardsOtherwise(t *testing.T) {
	probe := &captureProbe{}
	c := New(nopBackend{}, probe)

	c.HandleRawKey(true, 0, Modifiers{}, "a")
	if len(probe.keys) != 1 {
		t.Fatalf("expected key forwarded, got %d", len(probe.keys))
	}
}

func TestHandleRawPointerDropsOffSurface(t *testing.T) {
	probe := &captureProbe{}
	c := New(nopBackend{}, probe)

	c.HandleRawPointer(PointerMove, "", -1000, -1000, 200, 100, 0, 0, Modifiers{})
	if len(probe.pointers) != 0 {
		t.Fatal("expected off-surface pointer dropped")
	}
}

type fakeFrame struct{ ox, oy, w, h float64 }

func (f fakeFrame) Frame() (float64, float64, float64, float64, error) {
	return f.ox, f.oy, f.w, f.h, nil
}

type fakeOS struct {
	axPressOK   bool
	mouseEvents []string
	scrollFound bool
	pageKeys    []int
}

func (f *fakeOS) AXPress(pid int, x, y float64) (bool, error) { return f.axPressOK, nil }
func (f *fakeOS) PostMouseButton(pid int, x, y float64, button string, down bool) error {
	f.mouseEvents = append(f.mouseEvents, button)
	return nil
}
func (f *fakeOS) PostMouseMove(pid int, x, y, dx, dy float64, hasDelta bool) error { return nil }
func (f *fakeOS) PostKey(pid int, keyCode int, mods Modifiers, down bool) error {
	f.pageKeys = append(f.pageKeys, keyCode)
	return nil
}
func (f *fakeOS) PostUnicodeText(pid int, text string) error { return nil }
func (f *fakeOS) ScrollAX(pid int, deltaY float64) (bool, error) { return f.scrollFound, nil }
func (f *fakeOS) WarpCursor(x, y float64) (func(), error)        { return func() {}, nil }
func (f *fakeOS) ActivateTarget(pid int) error                   { return nil }

func TestDispatchClickUsesAXPressWhenAvailable(t *testing.T) {
	os := &fakeOS{axPressOK: true}
	in := New(os, fakeFrame{0, 0, 100, 100}, 1234)

	if err := in.Dispatch(PointerEvent{Phase: PointerDown, Button: "left", NormX: 0.5, NormY: 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := in.Dispatch(PointerEvent{Phase: PointerUp, Button: "left", NormX: 0.51, NormY: 0.51}); err != nil {
		t.Fatal(err)
	}
	if len(os.mouseEvents) != 0 {
		t.Fatalf("expected AX press to avoid OS mouse events, got %v", os.mouseEvents)
	}
}

func TestDispatchClickFallsBackWhenAXFails(t *testing.T) {
	os := &fakeOS{axPressOK: false}
	in := New(os, fakeFrame{0, 0, 100, 100}, 1234)

	_ = in.Dispatch(PointerEvent{Phase: PointerDown, Button: "left", NormX: 0.5, NormY: 0.5})
	_ = in.Dispatch(PointerEvent{Phase: PointerUp, Button: "left", NormX: 0.5, NormY: 0.5})

	if len(os.mouseEvents) != 2 {
		t.Fatalf("expected buffered down + up posted as OS events, got %v", os.mouseEvents)
	}
}

func TestDispatchScrollFallsBackToPageKeys(t *testing.T) {
	os := &fakeOS{scrollFound: false}
	in := New(os, fakeFrame{0, 0, 100, 100}, 1234)

	if err := in.DispatchScroll(ScrollEvent{DeltaY: 1}); err != nil {
		t.Fatal(err)
	}
	if len(os.pageKeys) != 2 || os.pageKeys[0] != pageDownKeyCode {
		t.Fatalf("expected page-down key down+up, got %v", os.pageKeys)
	}
}

func TestDispatchScrollUsesAXWhenFound(t *testing.T) {
	os := &fakeOS{scrollFound: true}
	in := New(os, fakeFrame{0, 0, 100, 100}, 1234)

	if err := in.DispatchScroll(ScrollEvent{DeltaY: -1}); err != nil {
		t.Fatal(err)
	}
	if len(os.pageKeys) != 0 {
		t.Fatal("expected no page-key fallback when AX scroll area found")
	}
}
