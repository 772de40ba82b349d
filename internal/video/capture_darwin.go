//go:build darwin

package video

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework AppKit -framework ScreenCaptureKit -framework CoreMedia -framework CoreVideo

#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <AppKit/AppKit.h>
#include <ScreenCaptureKit/ScreenCaptureKit.h>
#include <CoreMedia/CoreMedia.h>
#include <CoreVideo/CoreVideo.h>
#include <stdlib.h>

typedef struct {
	void* handle; // opaque Go-side capture id, passed back on every frame
} beamStreamContext;

// beamFrameCallback is implemented on the Go side (export below) and
// invoked once per captured sample buffer with a freshly malloc'd BGRA
// buffer the Go side must free via freeCapturedFrame.
extern void beamFrameCallback(void* handle, void* data, int width, int height, int bytesPerRow);

@interface BeamStreamOutput : NSObject <SCStreamOutput>
@property (nonatomic, assign) void* handle;
@end

@implementation BeamStreamOutput
- (void)stream:(SCStream *)stream didOutputSampleBuffer:(CMSampleBufferRef)sampleBuffer ofType:(SCStreamOutputType)type {
	if (type != SCStreamOutputTypeScreen) {
		return;
	}
	CVImageBufferRef imageBuffer = CMSampleBufferGetImageBuffer(sampleBuffer);
	if (imageBuffer == NULL) {
		return;
	}
	CVPixelBufferLockBaseAddress(imageBuffer, kCVPixelBufferLock_ReadOnly);
	int width = (int)CVPixelBufferGetWidth(imageBuffer);
	int height = (int)CVPixelBufferGetHeight(imageBuffer);
	size_t bytesPerRow = CVPixelBufferGetBytesPerRow(imageBuffer);
	void* src = CVPixelBufferGetBaseAddress(imageBuffer);

	size_t dataSize = bytesPerRow * height;
	void* copy = malloc(dataSize);
	if (copy != NULL) {
		memcpy(copy, src, dataSize);
	}
	CVPixelBufferUnlockBaseAddress(imageBuffer, kCVPixelBufferLock_ReadOnly);

	if (copy != NULL) {
		beamFrameCallback(self.handle, copy, width, height, (int)bytesPerRow);
	}
}
@end

// beamFindWindow locates a window by owning pid and an optional title
// substring (case-sensitive, first match wins; empty filter = first
// window for that pid), returning a retained SCWindow* or NULL.
static SCWindow* beamFindWindow(SCShareableContent* content, int pid, const char* titleFilter) {
	NSString* filter = (titleFilter != NULL && strlen(titleFilter) > 0) ? [NSString stringWithUTF8String:titleFilter] : nil;
	for (SCWindow* w in content.windows) {
		if (w.owningApplication == nil || w.owningApplication.processID != pid) {
			continue;
		}
		if (filter != nil && (w.title == nil || [w.title rangeOfString:filter].location == NSNotFound)) {
			continue;
		}
		return w;
	}
	return nil;
}

// beamStartCapture synchronously resolves the target window and starts an
// SCStream against it. Returns an opaque SCStream* (retained) on success,
// NULL with *error set otherwise. Runs the SCShareableContent lookup
// synchronously via a semaphore since Start() is expected to return only
// once capture is actually running.
void* beamStartCapture(int pid, const char* titleFilter, void* handle, int* outWidth, int* outHeight, int* error) {
	__block SCWindow* found = nil;
	__block int contentErr = 0;
	dispatch_semaphore_t sem = dispatch_semaphore_create(0);

	[SCShareableContent getShareableContentWithCompletionHandler:^(SCShareableContent * _Nullable content, NSError * _Nullable err) {
		if (err != nil || content == nil) {
			contentErr = 1;
		} else {
			found = beamFindWindow(content, pid, titleFilter);
			if (found == nil) {
				contentErr = 2;
			}
		}
		dispatch_semaphore_signal(sem);
	}];
	dispatch_semaphore_wait(sem, dispatch_time(DISPATCH_TIME_NOW, (int64_t)(5.0 * NSEC_PER_SEC)));

	if (contentErr != 0) {
		*error = contentErr;
		return NULL;
	}

	SCContentFilter* filter = [[SCContentFilter alloc] initWithWindow:found];
	SCStreamConfiguration* config = [[SCStreamConfiguration alloc] init];
	config.width = (int)found.frame.size.width;
	config.height = (int)found.frame.size.height;
	config.pixelFormat = kCVPixelFormatType_32BGRA;
	config.showsCursor = NO; // cursor is synthesized separately per cursor_state (§4.10)

	*outWidth = config.width;
	*outHeight = config.height;

	SCStream* stream = [[SCStream alloc] initWithFilter:filter configuration:config delegate:nil];
	BeamStreamOutput* output = [[BeamStreamOutput alloc] init];
	output.handle = handle;

	NSError* addErr = nil;
	[stream addStreamOutput:output type:SCStreamOutputTypeScreen sampleHandlerQueue:dispatch_get_main_queue() error:&addErr];
	if (addErr != nil) {
		*error = 3;
		return NULL;
	}

	__block int startErr = 0;
	dispatch_semaphore_t startSem = dispatch_semaphore_create(0);
	[stream startCaptureWithCompletionHandler:^(NSError * _Nullable err) {
		if (err != nil) {
			startErr = 3;
		}
		dispatch_semaphore_signal(startSem);
	}];
	dispatch_semaphore_wait(startSem, dispatch_time(DISPATCH_TIME_NOW, (int64_t)(5.0 * NSEC_PER_SEC)));
	if (startErr != 0) {
		*error = startErr;
		return NULL;
	}

	// Retain both so they outlive this call; released in beamStopCapture.
	CFBridgingRetain(output);
	return (__bridge_retained void*)stream;
}

void beamStopCapture(void* streamPtr) {
	if (streamPtr == NULL) {
		return;
	}
	SCStream* stream = (__bridge_transfer SCStream*)streamPtr;
	[stream stopCaptureWithCompletionHandler:^(NSError * _Nullable err) {}];
}

void freeCapturedFrame(void* data) {
	if (data != NULL) {
		free(data);
	}
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"sync"
	"unsafe"
)

// darwinCapture implements Capture via ScreenCaptureKit, filtered to a
// single window by owning PID and optional title substring. Grounded on
// capture_darwin.go's cgo/ObjC bridge shape (StreamOutput delegate,
// dispatch-semaphore-synchronized setup, BGRA frame copy-out), adapted
// from a whole-display SCContentFilter to a single-window one and from a
// one-shot capture call to a running stream delivering frames to a
// callback.
type darwinCapture struct {
	mu      sync.Mutex
	pid     int
	title   string
	stream  unsafe.Pointer
	handle  cgo.Handle
	onFrame func(Frame)
	width   int
	height  int
}

func newPlatformCapture(pid int, titleFilter string) (Capture, error) {
	return &darwinCapture{pid: pid, title: titleFilter}, nil
}

func (c *darwinCapture) Start(onFrame func(Frame)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = onFrame

	cTitle := C.CString(c.title)
	defer C.free(unsafe.Pointer(cTitle))

	c.handle = cgo.NewHandle(c)

	var width, height, cErr C.int
	stream := C.beamStartCapture(C.int(c.pid), cTitle, unsafe.Pointer(c.handle), &width, &height, &cErr)
	if cErr != 0 {
		c.handle.Delete()
		return translateCaptureError(int(cErr))
	}

	c.stream = stream
	c.width = int(width)
	c.height = int(height)
	return nil
}

func (c *darwinCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		C.beamStopCapture(c.stream)
		c.stream = nil
	}
	if c.handle != 0 {
		c.handle.Delete()
		c.handle = 0
	}
	return nil
}

func (c *darwinCapture) Bounds() (int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.width == 0 || c.height == 0 {
		return 0, 0, ErrWindowNotFound
	}
	return c.width, c.height, nil
}

//export beamFrameCallback
func beamFrameCallback(handle unsafe.Pointer, data unsafe.Pointer, width, height, bytesPerRow C.int) {
	defer C.freeCapturedFrame(data)

	c, ok := cgo.Handle(uintptr(handle)).Value().(*darwinCapture)
	if !ok || c.onFrame == nil {
		return
	}

	bgra := C.GoBytes(data, bytesPerRow*height)
	i420 := bgraToI420(bgra, int(width), int(height), int(bytesPerRow))
	c.onFrame(Frame{I420: i420, Width: int(width), Height: int(height)})
}

func translateCaptureError(code int) error {
	switch code {
	case 1:
		return fmt.Errorf("video: failed to enumerate shareable content")
	case 2:
		return ErrWindowNotFound
	case 3:
		return fmt.Errorf("video: failed to start capture stream")
	default:
		return fmt.Errorf("video: unknown capture error %d", code)
	}
}
