//go:build darwin

package windowhider

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework Foundation

#include <CoreGraphics/CoreGraphics.h>
#include <ApplicationServices/ApplicationServices.h>
#include <Foundation/Foundation.h>
#include <stdlib.h>

// CGVirtualDisplay is a private CoreGraphics class (no public header) used
// by several open-source headless-display tools; forward-declared here the
// way those projects do, since Apple ships no SDK header for it.
@interface CGVirtualDisplayDescriptor : NSObject
@property (nonatomic) uint32_t queueDepth;
@property (nonatomic, copy) NSString *name;
@property (nonatomic) uint32_t maxPixelsWide;
@property (nonatomic) uint32_t maxPixelsHigh;
@property (nonatomic) CGSize sizeInMillimeters;
@property (nonatomic) uint32_t serialNum;
@property (nonatomic) uint32_t productID;
@property (nonatomic) uint32_t vendorID;
@end

@interface CGVirtualDisplayMode : NSObject
- (instancetype)initWithWidth:(uint32_t)width height:(uint32_t)height refreshRate:(double)refreshRate;
@end

@interface CGVirtualDisplaySettings : NSObject
@property (nonatomic, copy) NSArray<CGVirtualDisplayMode *> *modes;
@end

@interface CGVirtualDisplay : NSObject
- (instancetype)initWithDescriptor:(CGVirtualDisplayDescriptor *)descriptor;
- (BOOL)applySettings:(CGVirtualDisplaySettings *)settings;
@property (nonatomic, readonly) uint32_t displayID;
@end

static NSMutableDictionary* beamDisplays = nil;

void* beamCreateVirtualDisplay(int x, int y, int width, int height, int* outDisplayID) {
	if (beamDisplays == nil) {
		beamDisplays = [NSMutableDictionary dictionary];
	}
	CGVirtualDisplayDescriptor* desc = [[CGVirtualDisplayDescriptor alloc] init];
	desc.queueDepth = 3;
	desc.name = @"Beam Virtual Display";
	desc.maxPixelsWide = width;
	desc.maxPixelsHigh = height;
	desc.sizeInMillimeters = CGSizeMake(width / 3.0, height / 3.0);
	desc.serialNum = 1;
	desc.productID = 1;
	desc.vendorID = 0x1234;

	CGVirtualDisplay* display = [[CGVirtualDisplay alloc] initWithDescriptor:desc];
	if (display == nil) {
		return NULL;
	}

	CGVirtualDisplayMode* mode = [[CGVirtualDisplayMode alloc] initWithWidth:width height:height refreshRate:60.0];
	CGVirtualDisplaySettings* settings = [[CGVirtualDisplaySettings alloc] init];
	settings.modes = @[mode];
	if (![display applySettings:settings]) {
		return NULL;
	}

	// Move the display to the requested origin for this login session only.
	CGDisplayConfigRef config;
	if (CGBeginDisplayConfiguration(&config) == kCGErrorSuccess) {
		CGConfigureDisplayOrigin(config, display.displayID, x, y);
		CGCompleteDisplayConfiguration(config, kCGConfigureForSession);
	}

	*outDisplayID = display.displayID;
	NSValue* key = [NSValue valueWithPointer:(__bridge_retained void*)display];
	beamDisplays[@(display.displayID)] = key;
	return (__bridge void*)display;
}

int beamResizeVirtualDisplay(void* handle, int width, int height) {
	CGVirtualDisplay* display = (__bridge CGVirtualDisplay*)handle;
	CGVirtualDisplayMode* mode = [[CGVirtualDisplayMode alloc] initWithWidth:width height:height refreshRate:60.0];
	CGVirtualDisplaySettings* settings = [[CGVirtualDisplaySettings alloc] init];
	settings.modes = @[mode];
	return [display applySettings:settings] ? 0 : 1;
}

void beamDestroyVirtualDisplay(void* handle) {
	CGVirtualDisplay* display = (__bridge_transfer CGVirtualDisplay*)handle;
	(void)display; // releasing the last strong ref tears the display down
}

void beamMainDisplayBounds(int* x, int* y, int* w, int* h) {
	CGDirectDisplayID main = CGMainDisplayID();
	CGRect bounds = CGDisplayBounds(main);
	*x = (int)bounds.origin.x;
	*y = (int)bounds.origin.y;
	*w = (int)bounds.size.width;
	*h = (int)bounds.size.height;
}

// beamFindWindow returns a retained AXUIElementRef for the target window,
// matched by owning pid and an optional title substring via the app's
// Accessibility window list (kAXWindowsAttribute).
void* beamFindWindow(int pid, const char* titleFilter) {
	NSString* filter = (titleFilter != NULL && strlen(titleFilter) > 0) ? [NSString stringWithUTF8String:titleFilter] : nil;

	AXUIElementRef app = AXUIElementCreateApplication((pid_t)pid);
	CFArrayRef windows = NULL;
	AXUIElementCopyAttributeValue(app, kAXWindowsAttribute, (CFTypeRef*)&windows);
	if (windows == NULL) {
		CFRelease(app);
		return NULL;
	}

	AXUIElementRef found = NULL;
	CFIndex n = CFArrayGetCount(windows);
	for (CFIndex i = 0; i < n; i++) {
		AXUIElementRef w = (AXUIElementRef)CFArrayGetValueAtIndex(windows, i);
		if (filter == nil) {
			found = w;
			break;
		}
		CFStringRef title = NULL;
		AXUIElementCopyAttributeValue(w, kAXTitleAttribute, (CFTypeRef*)&title);
		if (title != NULL) {
			BOOL match = [(__bridge NSString*)title rangeOfString:filter].location != NSNotFound;
			CFRelease(title);
			if (match) {
				found = w;
				break;
			}
		}
	}

	void* result = NULL;
	if (found != NULL) {
		CFRetain(found);
		result = (void*)found;
	}
	CFRelease(windows);
	CFRelease(app);
	return result;
}

static int beamAXPoint(AXUIElementRef el, CFStringRef attr, int* x, int* y) {
	AXValueRef value = NULL;
	AXUIElementCopyAttributeValue(el, attr, (CFTypeRef*)&value);
	if (value == NULL) {
		return 1;
	}
	CGPoint pt;
	AXValueGetValue(value, kAXValueCGPointType, &pt);
	CFRelease(value);
	*x = (int)pt.x;
	*y = (int)pt.y;
	return 0;
}

static int beamAXSize(AXUIElementRef el, int* w, int* h) {
	AXValueRef value = NULL;
	AXUIElementCopyAttributeValue(el, kAXSizeAttribute, (CFTypeRef*)&value);
	if (value == NULL) {
		return 1;
	}
	CGSize sz;
	AXValueGetValue(value, kAXValueCGSizeType, &sz);
	CFRelease(value);
	*w = (int)sz.width;
	*h = (int)sz.height;
	return 0;
}

int beamWindowBounds(void* handle, int* x, int* y, int* w, int* h) {
	AXUIElementRef el = (AXUIElementRef)handle;
	if (beamAXPoint(el, kAXPositionAttribute, x, y) != 0) {
		return 1;
	}
	return beamAXSize(el, w, h);
}

int beamMoveWindow(void* handle, int x, int y) {
	AXUIElementRef el = (AXUIElementRef)handle;
	CGPoint pt = CGPointMake(x, y);
	AXValueRef value = AXValueCreate(kAXValueCGPointType, &pt);
	AXError err = AXUIElementSetAttributeValue(el, kAXPositionAttribute, value);
	CFRelease(value);
	return err == kAXErrorSuccess ? 0 : 1;
}

int beamRaiseWindow(void* handle) {
	AXUIElementRef el = (AXUIElementRef)handle;
	AXError err = AXUIElementPerformAction(el, kAXRaiseAction);
	return err == kAXErrorSuccess ? 0 : 1;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

type darwinVirtualDisplay struct {
	handle unsafe.Pointer
	x, y, w, h int
}

func (d *darwinVirtualDisplay) Bounds() (int, int, int, int) { return d.x, d.y, d.w, d.h }

func (d *darwinVirtualDisplay) Resize(height int) error {
	if C.beamResizeVirtualDisplay(d.handle, C.int(d.w), C.int(height)) != 0 {
		return fmt.Errorf("windowhider: resize virtual display failed")
	}
	d.h = height
	return nil
}

func (d *darwinVirtualDisplay) Destroy() error {
	C.beamDestroyVirtualDisplay(d.handle)
	return nil
}

type darwinPlatform struct{}

// NewPlatform returns the darwin CGVirtualDisplay/Accessibility backend.
func NewPlatform() Platform { return darwinPlatform{} }

func (darwinPlatform) MainDisplayBounds() (int, int, int, int, error) {
	var x, y, w, h C.int
	C.beamMainDisplayBounds(&x, &y, &w, &h)
	return int(x), int(y), int(w), int(h), nil
}

func (darwinPlatform) CreateVirtualDisplay(x, y, width, height int) (VirtualDisplay, error) {
	var displayID C.int
	handle := C.beamCreateVirtualDisplay(C.int(x), C.int(y), C.int(width), C.int(height), &displayID)
	if handle == nil {
		return nil, fmt.Errorf("windowhider: private virtual-display API refused creation")
	}
	return &darwinVirtualDisplay{handle: handle, x: x, y: y, w: width, h: height}, nil
}

func (darwinPlatform) FindWindow(pid int, titleFilter string) (WindowHandle, error) {
	cTitle := C.CString(titleFilter)
	defer C.free(unsafe.Pointer(cTitle))

	handle := C.beamFindWindow(C.int(pid), cTitle)
	if handle == nil {
		return nil, fmt.Errorf("windowhider: window not found")
	}
	return handle, nil
}

func (darwinPlatform) WindowBounds(h WindowHandle) (int, int, int, int, error) {
	var x, y, w, ht C.int
	if C.beamWindowBounds(h.(unsafe.Pointer), &x, &y, &w, &ht) != 0 {
		return 0, 0, 0, 0, fmt.Errorf("windowhider: failed to read window bounds")
	}
	return int(x), int(y), int(w), int(ht), nil
}

func (darwinPlatform) MoveWindow(h WindowHandle, x, y int) error {
	if C.beamMoveWindow(h.(unsafe.Pointer), C.int(x), C.int(y)) != 0 {
		return fmt.Errorf("windowhider: failed to move window")
	}
	return nil
}

func (darwinPlatform) RaiseWindow(h WindowHandle) error {
	if C.beamRaiseWindow(h.(unsafe.Pointer)) != 0 {
		return fmt.Errorf("windowhider: failed to raise window")
	}
	return nil
}
