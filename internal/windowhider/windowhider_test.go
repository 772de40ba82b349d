package windowhider

import "testing"

type fakeVD struct {
	x, y, w, h int
	destroyed  bool
}

func (f *fakeVD) Bounds() (int, int, int, int) { return f.x, f.y, f.w, f.h }
func (f *fakeVD) Resize(height int) error      { f.h = height; return nil }
func (f *fakeVD) Destroy() error               { f.destroyed = true; return nil }

type fakeWindow struct {
	id           int
	x, y, w, h   int
}

type fakePlatform struct {
	mainX, mainY, mainW, mainH int
	vd                         *fakeVD
	windows                    map[int]*fakeWindow
	nextID                     int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{mainX: 0, mainY: 0, mainW: 2560, mainH: 1440, windows: map[int]*fakeWindow{}}
}

func (f *fakePlatform) MainDisplayBounds() (int, int, int, int, error) {
	return f.mainX, f.mainY, f.mainW, f.mainH, nil
}

func (f *fakePlatform) CreateVirtualDisplay(x, y, width, height int) (VirtualDisplay, error) {
	f.vd = &fakeVD{x: x, y: y, w: width, h: height}
	return f.vd, nil
}

func (f *fakePlatform) addWindow(x, y, w, h int) int {
	f.nextID++
	f.windows[f.nextID] = &fakeWindow{id: f.nextID, x: x, y: y, w: w, h: h}
	return f.nextID
}

func (f *fakePlatform) FindWindow(pid int, titleFilter string) (WindowHandle, error) {
	return f.windows[pid], nil
}

func (f *fakePlatform) WindowBounds(h WindowHandle) (int, int, int, int, error) {
	w := h.(*fakeWindow)
	return w.x, w.y, w.w, w.h, nil
}

func (f *fakePlatform) MoveWindow(h WindowHandle, x, y int) error {
	w := h.(*fakeWindow)
	w.x, w.y = x, y
	return nil
}

func (f *fakePlatform) RaiseWindow(h WindowHandle) error { return nil }

func TestNewPositionsVirtualDisplayBottomLeftWithOverlap(t *testing.T) {
	p := newFakePlatform()
	hider, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	x, y, w, h := hider.vd.Bounds()
	if w != baseWidth || h != heightStep {
		t.Fatalf("unexpected initial size %dx%d", w, h)
	}
	if x != p.mainX-(baseWidth-1) {
		t.Fatalf("x = %d, want overlap of 1px with main left edge", x)
	}
	if y != p.mainY+p.mainH-heightStep {
		t.Fatalf("y = %d, want bottom-aligned", y)
	}
}

func TestHideStackingNoOverlap(t *testing.T) {
	p := newFakePlatform()
	hider, err := New(p)
	if err != nil {
		t.Fatal(err)
	}

	id1 := p.addWindow(100, 100, 800, 600)
	id2 := p.addWindow(200, 200, 800, 600)

	h1, err := hider.Hide(id1, "")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := hider.Hide(id2, "")
	if err != nil {
		t.Fatal(err)
	}

	e1 := hider.entries[0]
	e2 := hider.entries[1]
	if e1.slotY+e1.slotH > e2.slotY {
		t.Fatalf("windows overlap: e1 bottom %d, e2 top %d", e1.slotY+e1.slotH, e2.slotY)
	}
	if e2.slotY != e1.slotY+e1.slotH+stackGap {
		t.Fatalf("e2.slotY = %d, want %d", e2.slotY, e1.slotY+e1.slotH+stackGap)
	}
	_ = h1
	_ = h2
}

func TestHideGrowsDisplayWhenExceedingHeight(t *testing.T) {
	p := newFakePlatform()
	hider, _ := New(p)

	// A window tall enough that the first slot already exceeds the
	// initial 1080 height, forcing a resize to the next multiple.
	id := p.addWindow(0, 0, 500, 1200)
	if _, err := hider.Hide(id, ""); err != nil {
		t.Fatal(err)
	}
	_, _, _, h := hider.vd.Bounds()
	if h != 2160 {
		t.Fatalf("expected resize to 2160, got %d", h)
	}
}

func TestHideFailsWhenExceedingCap(t *testing.T) {
	p := newFakePlatform()
	hider, _ := New(p)

	id := p.addWindow(0, 0, 500, 20000)
	if _, err := hider.Hide(id, ""); err != ErrExceedsCap {
		t.Fatalf("expected ErrExceedsCap, got %v", err)
	}
}

func TestRestoreAllRestoresWindowsAndDestroysDisplay(t *testing.T) {
	p := newFakePlatform()
	hider, _ := New(p)

	id1 := p.addWindow(10, 20, 800, 600)
	id2 := p.addWindow(30, 40, 800, 600)
	if _, err := hider.Hide(id1, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := hider.Hide(id2, ""); err != nil {
		t.Fatal(err)
	}

	if err := hider.RestoreAll(); err != nil {
		t.Fatal(err)
	}

	w1 := p.windows[id1]
	w2 := p.windows[id2]
	if w1.x != 10 || w1.y != 20 {
		t.Fatalf("window 1 not restored: %+v", w1)
	}
	if w2.x != 30 || w2.y != 40 {
		t.Fatalf("window 2 not restored: %+v", w2)
	}
	if !p.vd.destroyed {
		t.Fatal("virtual display not destroyed")
	}
	if len(hider.entries) != 0 {
		t.Fatal("entries not cleared")
	}
}
