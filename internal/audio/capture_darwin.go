//go:build darwin

package audio

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreMedia -framework CoreFoundation -framework ScreenCaptureKit -framework AudioToolbox

#include <CoreMedia/CoreMedia.h>
#include <CoreFoundation/CoreFoundation.h>
#include <ScreenCaptureKit/ScreenCaptureKit.h>
#include <AudioToolbox/AudioToolbox.h>
#include <stdlib.h>

// beamAudioCallback is implemented on the Go side and invoked with a
// freshly malloc'd interleaved float32 PCM buffer per captured audio
// sample buffer; the Go side must free it via freeCapturedAudio.
extern void beamAudioCallback(void* handle, float* samples, int frames, int channels);

@interface BeamAudioOutput : NSObject <SCStreamOutput>
@property (nonatomic, assign) void* handle;
@end

@implementation BeamAudioOutput
- (void)stream:(SCStream *)stream didOutputSampleBuffer:(CMSampleBufferRef)sampleBuffer ofType:(SCStreamOutputType)type {
	if (type != SCStreamOutputTypeAudio) {
		return;
	}
	AudioBufferList bufferList;
	CMBlockBufferRef blockBuffer = NULL;
	OSStatus err = CMSampleBufferGetAudioBufferListWithRetainedBlockBuffer(
		sampleBuffer, NULL, &bufferList, sizeof(bufferList), NULL, NULL,
		kCMSampleBufferFlag_AudioBufferList_Assure16ByteAlignment, &blockBuffer);
	if (err != noErr || bufferList.mNumberBuffers == 0) {
		if (blockBuffer != NULL) CFRelease(blockBuffer);
		return;
	}

	AudioBuffer buf = bufferList.mBuffers[0];
	int channels = (int)buf.mNumberChannels;
	int frames = channels > 0 ? (int)(buf.mDataByteSize / sizeof(float) / channels) : 0;

	if (frames > 0) {
		size_t size = buf.mDataByteSize;
		float* copy = (float*)malloc(size);
		if (copy != NULL) {
			memcpy(copy, buf.mData, size);
			beamAudioCallback(self.handle, copy, frames, channels);
		}
	}
	CFRelease(blockBuffer);
}
@end

void* beamStartAudioCapture(int pid, void* handle, int* error) {
	__block SCRunningApplication* app = nil;
	__block SCDisplay* display = nil;
	__block int contentErr = 0;
	dispatch_semaphore_t sem = dispatch_semaphore_create(0);

	[SCShareableContent getShareableContentWithCompletionHandler:^(SCShareableContent * _Nullable content, NSError * _Nullable err) {
		if (err != nil || content == nil) {
			contentErr = 1;
		} else {
			for (SCRunningApplication* a in content.applications) {
				if (a.processID == pid) {
					app = a;
					break;
				}
			}
			display = content.displays.firstObject;
			if (app == nil || display == nil) {
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

	SCContentFilter* filter = [[SCContentFilter alloc] initWithDisplay:display includingApplications:@[app] exceptingWindows:@[]];
	// Scope to the target app's audio only; video capture is handled by the
	// separate video-pipeline stream, so request the smallest possible
	// video surface here and ignore it.
	SCStreamConfiguration* config = [[SCStreamConfiguration alloc] init];
	config.capturesAudio = YES;
	config.excludesCurrentProcessAudio = YES;
	config.sampleRate = 48000;
	config.channelCount = 2;
	config.width = 2;
	config.height = 2;

	SCStream* stream = [[SCStream alloc] initWithFilter:filter configuration:config delegate:nil];
	BeamAudioOutput* output = [[BeamAudioOutput alloc] init];
	output.handle = handle;

	NSError* addErr = nil;
	[stream addStreamOutput:output type:SCStreamOutputTypeAudio sampleHandlerQueue:dispatch_get_main_queue() error:&addErr];
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

	CFBridgingRetain(output);
	return (__bridge_retained void*)stream;
}

void beamStopAudioCapture(void* streamPtr) {
	if (streamPtr == NULL) {
		return;
	}
	SCStream* stream = (__bridge_transfer SCStream*)streamPtr;
	[stream stopCaptureWithCompletionHandler:^(NSError * _Nullable err) {}];
}

void freeCapturedAudio(void* data) {
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

// darwinCapture taps a target process's audio via ScreenCaptureKit's audio
// stream output, following the same StreamOutput-delegate bridge shape as
// the video pipeline's capture_darwin.go (output delegate registered once,
// frames copied out and freed by the Go side).
type darwinCapture struct {
	mu       sync.Mutex
	pid      int
	stream   unsafe.Pointer
	handle   cgo.Handle
	callback func(PCM)
}

func newPlatformCapture(pid int) (Capture, error) {
	return &darwinCapture{pid: pid}, nil
}

func (c *darwinCapture) Start(callback func(PCM)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = callback
	c.handle = cgo.NewHandle(c)

	var cErr C.int
	stream := C.beamStartAudioCapture(C.int(c.pid), unsafe.Pointer(c.handle), &cErr)
	if cErr != 0 {
		c.handle.Delete()
		return fmt.Errorf("audio: capture start failed (%d)", int(cErr))
	}
	c.stream = stream
	return nil
}

func (c *darwinCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		C.beamStopAudioCapture(c.stream)
		c.stream = nil
	}
	if c.handle != 0 {
		c.handle.Delete()
		c.handle = 0
	}
	return nil
}

//export beamAudioCallback
func beamAudioCallback(handle unsafe.Pointer, samples *C.float, frames, channels C.int) {
	defer C.freeCapturedAudio(unsafe.Pointer(samples))

	c, ok := cgo.Handle(uintptr(handle)).Value().(*darwinCapture)
	if !ok || c.callback == nil {
		return
	}

	n := int(frames) * int(channels)
	src := unsafe.Slice((*float32)(unsafe.Pointer(samples)), n)
	out := make([]float32, n)
	copy(out, src)

	c.callback(PCM{Samples: out, Frames: int(frames), Channels: int(channels)})
}
