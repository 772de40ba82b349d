//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Carbon

#include <AppKit/AppKit.h>
#include <Carbon/Carbon.h>

extern int beamHandlePointer(void* handle, int phase, const char* button, double x, double y, double w, double h, double dx, double dy, int mods);
extern int beamHandleScroll(void* handle, double x, double y, double w, double h, double deltaY, int highPrecision, int mods);
extern int beamHandleKey(void* handle, int down, int keyCode, int mods, const char* chars);

static int beamModFlags(NSEvent* e) {
	NSEventModifierFlags f = [e modifierFlags];
	int m = 0;
	if (f & NSEventModifierFlagShift) m |= 1;
	if (f & NSEventModifierFlagControl) m |= 2;
	if (f & NSEventModifierFlagOption) m |= 4;
	if (f & NSEventModifierFlagCommand) m |= 8;
	return m;
}

static id beamMonitor = nil;

void* beamStartLocalMonitor(void* handle) {
	NSEventMask mask = NSEventMaskMouseMoved | NSEventMaskLeftMouseDown | NSEventMaskLeftMouseUp |
		NSEventMaskRightMouseDown | NSEventMaskRightMouseUp | NSEventMaskOtherMouseDown | NSEventMaskOtherMouseUp |
		NSEventMaskLeftMouseDragged | NSEventMaskRightMouseDragged | NSEventMaskOtherMouseDragged |
		NSEventMaskScrollWheel | NSEventMaskKeyDown | NSEventMaskKeyUp | NSEventMaskFlagsChanged;

	beamMonitor = [NSEvent addLocalMonitorForEventsMatchingMask:mask handler:^NSEvent *(NSEvent *e) {
		NSView* view = [[e window] contentView];
		NSRect bounds = view ? [view bounds] : NSMakeRect(0, 0, 0, 0);
		NSPoint loc = view ? [view convertPoint:[e locationInWindow] fromView:nil] : [e locationInWindow];
		int mods = beamModFlags(e);

		switch (e.type) {
		case NSEventTypeMouseMoved:
		case NSEventTypeLeftMouseDragged:
		case NSEventTypeRightMouseDragged:
		case NSEventTypeOtherMouseDragged: {
			int phase = (e.type == NSEventTypeMouseMoved) ? 0 : 3;
			beamHandlePointer(handle, phase, "", loc.x, loc.y, bounds.size.width, bounds.size.height, [e deltaX], [e deltaY], mods);
			return e; // pointer events propagate (§4.11)
		}
		case NSEventTypeLeftMouseDown:
		case NSEventTypeRightMouseDown:
		case NSEventTypeOtherMouseDown: {
			const char* btn = (e.type == NSEventTypeLeftMouseDown) ? "left" : (e.type == NSEventTypeRightMouseDown) ? "right" : "middle";
			beamHandlePointer(handle, 1, btn, loc.x, loc.y, bounds.size.width, bounds.size.height, 0, 0, mods);
			return e;
		}
		case NSEventTypeLeftMouseUp:
		case NSEventTypeRightMouseUp:
		case NSEventTypeOtherMouseUp: {
			const char* btn = (e.type == NSEventTypeLeftMouseUp) ? "left" : (e.type == NSEventTypeRightMouseUp) ? "right" : "middle";
			beamHandlePointer(handle, 2, btn, loc.x, loc.y, bounds.size.width, bounds.size.height, 0, 0, mods);
			return e;
		}
		case NSEventTypeScrollWheel: {
			int highPrecision = [e hasPreciseScrollingDeltas] ? 1 : 0;
			double deltaY = highPrecision ? [e scrollingDeltaY] : [e deltaY];
			beamHandleScroll(handle, loc.x, loc.y, bounds.size.width, bounds.size.height, deltaY, highPrecision, mods);
			return e;
		}
		case NSEventTypeKeyDown:
		case NSEventTypeKeyUp: {
			int down = (e.type == NSEventTypeKeyDown) ? 1 : 0;
			const char* chars = [[e characters] UTF8String];
			int consumed = beamHandleKey(handle, down, [e keyCode], mods, chars);
			return consumed ? nil : e; // never propagate key events (§4.11)
		}
		case NSEventTypeFlagsChanged: {
			// Synthesized key down/up for the single modifier that changed.
			static int lastMods = 0;
			int changed = mods ^ lastMods;
			int down = (mods & changed) != 0;
			lastMods = mods;
			// kVK_Shift, kVK_Control, kVK_Option, kVK_Command.
			int keyCode = (changed & 1) ? 56 : (changed & 2) ? 59 : (changed & 4) ? 58 : (changed & 8) ? 55 : -1;
			if (keyCode >= 0) {
				beamHandleKey(handle, down, keyCode, mods, "");
			}
			return e;
		}
		default:
			return e;
		}
	}];
	return (__bridge void*)beamMonitor;
}

void beamStopLocalMonitor(void* handle) {
	if (beamMonitor != nil) {
		[NSEvent removeMonitor:beamMonitor];
		beamMonitor = nil;
	}
}
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

func decodeMods(m C.int) Modifiers {
	v := int(m)
	return Modifiers{
		Shift:   v&1 != 0,
		Control: v&2 != 0,
		Option:  v&4 != 0,
		Command: v&8 != 0,
	}
}

type darwinBackend struct {
	handle cgo.Handle
	ptr    unsafe.Pointer
}

// NewBackend returns the darwin local-event-monitor backend.
func NewBackend() Backend { return &darwinBackend{} }

func (b *darwinBackend) Start(c *Capture) error {
	b.handle = cgo.NewHandle(c)
	b.ptr = C.beamStartLocalMonitor(unsafe.Pointer(b.handle))
	return nil
}

func (b *darwinBackend) Stop() error {
	C.beamStopLocalMonitor(b.ptr)
	if b.handle != 0 {
		b.handle.Delete()
		b.handle = 0
	}
	return nil
}

//export beamHandlePointer
func beamHandlePointer(handle unsafe.Pointer, phase C.int, button *C.char, x, y, w, h, dx, dy C.double, mods C.int) C.int {
	c, ok := cgo.Handle(uintptr(handle)).Value().(*Capture)
	if !ok {
		return 0
	}
	c.HandleRawPointer(PointerPhase(phase), C.GoString(button), float64(x), float64(y), float64(w), float64(h), float64(dx), float64(dy), decodeMods(mods))
	return 1
}

//export beamHandleScroll
func beamHandleScroll(handle unsafe.Pointer, x, y, w, h, deltaY C.double, highPrecision, mods C.int) C.int {
	c, ok := cgo.Handle(uintptr(handle)).Value().(*Capture)
	if !ok {
		return 0
	}
	c.HandleRawScroll(float64(x), float64(y), float64(w), float64(h), float64(deltaY), highPrecision != 0, decodeMods(mods))
	return 1
}

//export beamHandleKey
func beamHandleKey(handle unsafe.Pointer, down, keyCode C.int, mods C.int, chars *C.char) C.int {
	c, ok := cgo.Handle(uintptr(handle)).Value().(*Capture)
	if !ok {
		return 0
	}
	consumed := c.HandleRawKey(down != 0, int(keyCode), decodeMods(mods), C.GoString(chars))
	if consumed {
		return 1
	}
	return 0
}
