//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework AppKit -framework Carbon

#include <ApplicationServices/ApplicationServices.h>
#include <AppKit/AppKit.h>
#include <Carbon/Carbon.h>

static CGEventFlags beamEventFlags(int mods) {
	CGEventFlags f = 0;
	if (mods & 1) f |= kCGEventFlagMaskShift;
	if (mods & 2) f |= kCGEventFlagMaskControl;
	if (mods & 4) f |= kCGEventFlagMaskAlternate;
	if (mods & 8) f |= kCGEventFlagMaskCommand;
	return f;
}

int beamAXPress(int pid, double x, double y) {
	AXUIElementRef system = AXUIElementCreateSystemWide();
	AXUIElementRef element = NULL;
	AXError err = AXUIElementCopyElementAtPosition(system, (float)x, (float)y, &element);
	CFRelease(system);
	if (err != kAXErrorSuccess || element == NULL) {
		return 0;
	}
	AXError pressErr = AXUIElementPerformAction(element, kAXPressAction);
	CFRelease(element);
	return pressErr == kAXErrorSuccess ? 1 : 0;
}

void beamPostMouseButton(int pid, double x, double y, const char* button, int down) {
	CGMouseButton btn = kCGMouseButtonLeft;
	CGEventType downType = kCGEventLeftMouseDown, upType = kCGEventLeftMouseUp;
	if (strcmp(button, "right") == 0) {
		btn = kCGMouseButtonRight; downType = kCGEventRightMouseDown; upType = kCGEventRightMouseUp;
	} else if (strcmp(button, "middle") == 0 || strcmp(button, "drag") == 0) {
		btn = kCGMouseButtonCenter; downType = kCGEventOtherMouseDown; upType = kCGEventOtherMouseUp;
	}
	CGEventType type = down ? downType : upType;
	CGPoint pt = CGPointMake(x, y);
	CGEventRef ev = CGEventCreateMouseEvent(NULL, type, pt, btn);
	CGEventPostToPid((pid_t)pid, ev);
	CFRelease(ev);
}

void beamPostMouseDrag(int pid, double x, double y) {
	CGPoint pt = CGPointMake(x, y);
	CGEventRef ev = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseDragged, pt, kCGMouseButtonLeft);
	CGEventPostToPid((pid_t)pid, ev);
	CFRelease(ev);
}

void beamPostMouseMove(int pid, double x, double y, double dx, double dy, int hasDelta) {
	CGPoint pt = CGPointMake(x, y);
	CGEventRef ev = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved, pt, kCGMouseButtonLeft);
	if (hasDelta) {
		CGEventSetDoubleValueField(ev, kCGMouseEventDeltaX, dx);
		CGEventSetDoubleValueField(ev, kCGMouseEventDeltaY, dy);
	}
	CGEventPostToPid((pid_t)pid, ev);
	CFRelease(ev);
}

void beamPostKey(int pid, int keyCode, int mods, int down) {
	CGEventRef ev = CGEventCreateKeyboardEvent(NULL, (CGKeyCode)keyCode, down ? true : false);
	CGEventSetFlags(ev, beamEventFlags(mods));
	CGEventPostToPid((pid_t)pid, ev);
	CFRelease(ev);
}

void beamPostUnicodeText(int pid, const char* text) {
	NSString* str = [NSString stringWithUTF8String:text];
	unichar buf[256];
	NSUInteger len = [str length];
	if (len > 256) len = 256;
	[str getCharacters:buf range:NSMakeRange(0, len)];

	CGEventRef down = CGEventCreateKeyboardEvent(NULL, 0, true);
	CGEventKeyboardSetUnicodeString(down, len, buf);
	CGEventPostToPid((pid_t)pid, down);
	CFRelease(down);

	CGEventRef up = CGEventCreateKeyboardEvent(NULL, 0, false);
	CGEventKeyboardSetUnicodeString(up, len, buf);
	CGEventPostToPid((pid_t)pid, up);
	CFRelease(up);
}

// beamFindScrollArea performs a bounded DFS for the first AXScrollArea,
// then reads/writes its vertical scroll bar's normalized value.
static AXUIElementRef beamFindScrollArea(AXUIElementRef el, int depth) {
	if (depth > 5 || el == NULL) {
		return NULL;
	}
	CFStringRef role = NULL;
	AXUIElementCopyAttributeValue(el, kAXRoleAttribute, (CFTypeRef*)&role);
	if (role != NULL) {
		BOOL isScroll = CFStringCompare(role, CFSTR("AXScrollArea"), 0) == kCFCompareEqualTo;
		CFRelease(role);
		if (isScroll) {
			return el;
		}
	}

	CFArrayRef children = NULL;
	AXUIElementCopyAttributeValue(el, kAXChildrenAttribute, (CFTypeRef*)&children);
	if (children == NULL) {
		return NULL;
	}
	CFIndex n = CFArrayGetCount(children);
	for (CFIndex i = 0; i < n; i++) {
		AXUIElementRef child = (AXUIElementRef)CFArrayGetValueAtIndex(children, i);
		AXUIElementRef found = beamFindScrollArea(child, depth + 1);
		if (found != NULL) {
			CFRelease(children);
			return found;
		}
	}
	CFRelease(children);
	return NULL;
}

int beamScrollAX(int pid, double deltaY) {
	AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
	AXUIElementRef window = NULL;
	AXUIElementCopyAttributeValue(app, kAXFocusedWindowAttribute, (CFTypeRef*)&window);
	if (window == NULL) {
		CFRelease(app);
		return 0;
	}

	AXUIElementRef scrollArea = beamFindScrollArea(window, 0);
	if (scrollArea == NULL) {
		CFRelease(window);
		CFRelease(app);
		return 0;
	}

	AXUIElementRef scrollBar = NULL;
	AXUIElementCopyAttributeValue(scrollArea, kAXVerticalScrollBarAttribute, (CFTypeRef*)&scrollBar);
	if (scrollBar == NULL) {
		CFRelease(window);
		CFRelease(app);
		return 0;
	}

	CFNumberRef valueRef = NULL;
	AXUIElementCopyAttributeValue(scrollBar, kAXValueAttribute, (CFTypeRef*)&valueRef);
	double value = 0;
	if (valueRef != NULL) {
		CFNumberGetValue(valueRef, kCFNumberDoubleType, &value);
		CFRelease(valueRef);
	}
	value += deltaY;
	if (value < 0) value = 0;
	if (value > 1) value = 1;

	CFNumberRef newValue = CFNumberCreate(NULL, kCFNumberDoubleType, &value);
	AXUIElementSetAttributeValue(scrollBar, kAXValueAttribute, newValue);
	CFRelease(newValue);
	CFRelease(scrollBar);
	CFRelease(window);
	CFRelease(app);
	return 1;
}

void beamWarpCursor(double x, double y) {
	CGWarpMouseCursorPosition(CGPointMake(x, y));
}

void beamActivateTarget(int pid) {
	NSRunningApplication* app = [NSRunningApplication runningApplicationWithProcessIdentifier:(pid_t)pid];
	[app activateWithOptions:0];
}
*/
import "C"

import "unsafe"

type darwinOSInjector struct{}

// NewOSInjector returns the darwin CGEvent/Accessibility delivery backend.
func NewOSInjector() OSInjector { return darwinOSInjector{} }

func (darwinOSInjector) AXPress(pid int, x, y float64) (bool, error) {
	return C.beamAXPress(C.int(pid), C.double(x), C.double(y)) != 0, nil
}

func (darwinOSInjector) PostMouseButton(pid int, x, y float64, button string, down bool) error {
	cButton := C.CString(button)
	defer C.free(unsafe.Pointer(cButton))
	if button == "drag" && down {
		C.beamPostMouseDrag(C.int(pid), C.double(x), C.double(y))
		return nil
	}
	C.beamPostMouseButton(C.int(pid), C.double(x), C.double(y), cButton, boolToC(down))
	return nil
}

func (darwinOSInjector) PostMouseMove(pid int, x, y, dx, dy float64, hasDelta bool) error {
	C.beamPostMouseMove(C.int(pid), C.double(x), C.double(y), C.double(dx), C.double(dy), boolToC(hasDelta))
	return nil
}

func (darwinOSInjector) PostKey(pid int, keyCode int, mods Modifiers, down bool) error {
	C.beamPostKey(C.int(pid), C.int(keyCode), C.int(encodeMods(mods)), boolToC(down))
	return nil
}

func (darwinOSInjector) PostUnicodeText(pid int, text string) error {
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))
	C.beamPostUnicodeText(C.int(pid), cText)
	return nil
}

func (darwinOSInjector) ScrollAX(pid int, deltaY float64) (bool, error) {
	return C.beamScrollAX(C.int(pid), C.double(deltaY)) != 0, nil
}

func (darwinOSInjector) WarpCursor(x, y float64) (func(), error) {
	// CGEvent has no direct "get cursor position" call without creating a
	// throwaway event; reuse CGEventCreate(NULL) for that purpose.
	cur := C.CGEventCreate(nil)
	prev := C.CGEventGetLocation(cur)
	C.CFRelease(C.CFTypeRef(cur))

	C.beamWarpCursor(C.double(x), C.double(y))
	return func() {
		C.beamWarpCursor(C.double(prev.x), C.double(prev.y))
	}, nil
}

func (darwinOSInjector) ActivateTarget(pid int) error {
	C.beamActivateTarget(C.int(pid))
	return nil
}

func boolToC(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func encodeMods(m Modifiers) int {
	v := 0
	if m.Shift {
		v |= 1
	}
	if m.Control {
		v |= 2
	}
	if m.Option {
		v |= 4
	}
	if m.Command {
		v |= 8
	}
	return v
}
