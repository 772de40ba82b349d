//go:build darwin

package renderer

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework AVFoundation -framework CoreMedia -framework CoreVideo -framework QuartzCore

#include <AppKit/AppKit.h>
#include <AVFoundation/AVFoundation.h>
#include <CoreMedia/CoreMedia.h>
#include <CoreVideo/CoreVideo.h>
#include <QuartzCore/QuartzCore.h>
#include <stdlib.h>

// beamWindow bundles the NSWindow and its AVSampleBufferDisplayLayer so
// Go only ever juggles one opaque pointer.
typedef struct {
	void* window;
	void* layer;
} beamWindow;

void* beamCreateWindow(const char* title, int width, int height) {
	NSRect frame = NSMakeRect(0, 0, width, height);
	NSWindow* win = [[NSWindow alloc] initWithContentRect:frame
	                                             styleMask:(NSWindowStyleMaskTitled | NSWindowStyleMaskClosable | NSWindowStyleMaskResizable)
	                                               backing:NSBackingStoreBuffered
	                                                 defer:NO];
	[win setTitle:[NSString stringWithUTF8String:title]];

	AVSampleBufferDisplayLayer* layer = [[AVSampleBufferDisplayLayer alloc] init];
	layer.frame = frame;
	layer.videoGravity = AVLayerVideoGravityResizeAspect;

	NSView* contentView = [win contentView];
	[contentView setWantsLayer:YES];
	[[contentView layer] addSublayer:layer];

	[win makeKeyAndOrderFront:nil];

	beamWindow* bw = (beamWindow*)malloc(sizeof(beamWindow));
	bw->window = (__bridge_retained void*)win;
	bw->layer = (__bridge_retained void*)layer;
	return bw;
}

void beamResizeWindow(void* handle, int width, int height) {
	beamWindow* bw = (beamWindow*)handle;
	NSWindow* win = (__bridge NSWindow*)bw->window;
	AVSampleBufferDisplayLayer* layer = (__bridge AVSampleBufferDisplayLayer*)bw->layer;
	NSRect frame = NSMakeRect(0, 0, width, height);
	[win setContentSize:frame.size];
	layer.frame = frame;
}

// beamPushI420 wraps a planar I420 buffer in a CVPixelBuffer and enqueues
// it on the display layer as an immediate-display CMSampleBuffer.
int beamPushI420(void* handle, unsigned char* y, unsigned char* u, unsigned char* v, int width, int height) {
	beamWindow* bw = (beamWindow*)handle;
	AVSampleBufferDisplayLayer* layer = (__bridge AVSampleBufferDisplayLayer*)bw->layer;
	if (layer.status == AVQueuedSampleBufferRenderingStatusFailed) {
		[layer flush];
	}

	CVPixelBufferRef pixelBuffer = NULL;
	CVReturn cvErr = CVPixelBufferCreate(kCFAllocatorDefault, width, height, kCVPixelFormatType_420YpCbCr8PlanarFullRange, NULL, &pixelBuffer);
	if (cvErr != kCVReturnSuccess || pixelBuffer == NULL) {
		return 1;
	}
	CVPixelBufferLockBaseAddress(pixelBuffer, 0);
	memcpy(CVPixelBufferGetBaseAddressOfPlane(pixelBuffer, 0), y, width * height);
	memcpy(CVPixelBufferGetBaseAddressOfPlane(pixelBuffer, 1), u, (width / 2) * (height / 2));
	memcpy(CVPixelBufferGetBaseAddressOfPlane(pixelBuffer, 2), v, (width / 2) * (height / 2));
	CVPixelBufferUnlockBaseAddress(pixelBuffer, 0);

	CMVideoFormatDescriptionRef formatDesc = NULL;
	CMVideoFormatDescriptionCreateForImageBuffer(kCFAllocatorDefault, pixelBuffer, &formatDesc);

	CMSampleTimingInfo timing = {kCMTimeInvalid, kCMTimeInvalid, kCMTimeInvalid};
	CMSampleBufferRef sampleBuffer = NULL;
	CMSampleBufferCreateForImageBuffer(kCFAllocatorDefault, pixelBuffer, true, NULL, NULL, formatDesc, &timing, &sampleBuffer);

	CFArrayRef attachmentsArray = CMSampleBufferGetSampleAttachmentsArray(sampleBuffer, true);
	CFMutableDictionaryRef dict = (CFMutableDictionaryRef)CFArrayGetValueAtIndex(attachmentsArray, 0);
	CFDictionarySetValue(dict, kCMSampleAttachmentKey_DisplayImmediately, kCFBooleanTrue);

	[layer enqueueSampleBuffer:sampleBuffer];

	CFRelease(sampleBuffer);
	CFRelease(formatDesc);
	CVPixelBufferRelease(pixelBuffer);
	return 0;
}

void beamDestroyWindow(void* handle) {
	beamWindow* bw = (beamWindow*)handle;
	NSWindow* win = (__bridge_transfer NSWindow*)bw->window;
	AVSampleBufferDisplayLayer* layer = (__bridge_transfer AVSampleBufferDisplayLayer*)bw->layer;
	[layer flush];
	[win close];
	free(bw);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// darwinSink drives an AVSampleBufferDisplayLayer-backed NSWindow, grounded
// on capture_darwin.go's cgo-bridge shape (opaque handle + ObjC helper
// functions, no persistent Go-side ObjC object references).
type darwinSink struct {
	mu     sync.Mutex
	handle unsafe.Pointer
	w, h   int
}

func newPlatformSink(windowTitle string) (Sink, error) {
	cTitle := C.CString(windowTitle)
	defer C.free(unsafe.Pointer(cTitle))

	const defaultW, defaultH = 1280, 720
	handle := C.beamCreateWindow(cTitle, C.int(defaultW), C.int(defaultH))
	if handle == nil {
		return nil, fmt.Errorf("renderer: failed to create display window")
	}
	return &darwinSink{handle: handle, w: defaultW, h: defaultH}, nil
}

func (s *darwinSink) Push(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return fmt.Errorf("renderer: sink closed")
	}

	ySize := f.Width * f.Height
	cSize := (f.Width / 2) * (f.Height / 2)
	if len(f.I420) < ySize+2*cSize {
		return fmt.Errorf("renderer: short I420 buffer")
	}

	y := (*C.uchar)(unsafe.Pointer(&f.I420[0]))
	u := (*C.uchar)(unsafe.Pointer(&f.I420[ySize]))
	v := (*C.uchar)(unsafe.Pointer(&f.I420[ySize+cSize]))

	if rc := C.beamPushI420(s.handle, y, u, v, C.int(f.Width), C.int(f.Height)); rc != 0 {
		return fmt.Errorf("renderer: push failed (%d)", int(rc))
	}
	return nil
}

func (s *darwinSink) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return fmt.Errorf("renderer: sink closed")
	}
	C.beamResizeWindow(s.handle, C.int(width), C.int(height))
	s.w, s.h = width, height
	return nil
}

func (s *darwinSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return nil
	}
	C.beamDestroyWindow(s.handle)
	s.handle = nil
	return nil
}
