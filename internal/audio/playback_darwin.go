//go:build darwin

package audio

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AVFoundation -framework CoreAudio

#include <AVFoundation/AVFoundation.h>
#include <stdlib.h>

typedef struct {
	void* engine;
	void* player;
} beamPlayback;

void* beamCreatePlayback(int channels, int sampleRate) {
	AVAudioEngine* engine = [[AVAudioEngine alloc] init];
	AVAudioPlayerNode* player = [[AVAudioPlayerNode alloc] init];
	[engine attachNode:player];

	AVAudioFormat* format = [[AVAudioFormat alloc] initStandardFormatWithSampleRate:sampleRate channels:channels];
	[engine connect:player to:engine.mainMixerNode format:format];

	NSError* err = nil;
	[engine startAndReturnError:&err];
	if (err != nil) {
		return NULL;
	}
	[player play];

	beamPlayback* bp = (beamPlayback*)malloc(sizeof(beamPlayback));
	bp->engine = (__bridge_retained void*)engine;
	bp->player = (__bridge_retained void*)player;
	return bp;
}

// beamEnqueuePlanes builds a non-interleaved AVAudioPCMBuffer from up to 2
// float32 plane pointers and schedules it after whatever is already queued
// (AVAudioPlayerNode's own queue is the "playback engine's own jitter
// buffer" referenced by §4.7).
int beamEnqueuePlanes(void* handle, float* plane0, float* plane1, int channels, int frames, int sampleRate) {
	beamPlayback* bp = (beamPlayback*)handle;
	AVAudioPlayerNode* player = (__bridge AVAudioPlayerNode*)bp->player;

	AVAudioFormat* format = [[AVAudioFormat alloc] initStandardFormatWithSampleRate:sampleRate channels:channels];
	AVAudioPCMBuffer* buffer = [[AVAudioPCMBuffer alloc] initWithPCMFormat:format frameCapacity:frames];
	buffer.frameLength = frames;

	float* const* channelData = buffer.floatChannelData;
	if (channelData == NULL) {
		return 1;
	}
	memcpy(channelData[0], plane0, frames * sizeof(float));
	if (channels > 1 && plane1 != NULL) {
		memcpy(channelData[1], plane1, frames * sizeof(float));
	}

	[player scheduleBuffer:buffer completionHandler:nil];
	return 0;
}

void beamDestroyPlayback(void* handle) {
	beamPlayback* bp = (beamPlayback*)handle;
	AVAudioEngine* engine = (__bridge_transfer AVAudioEngine*)bp->engine;
	AVAudioPlayerNode* player = (__bridge_transfer AVAudioPlayerNode*)bp->player;
	[player stop];
	[engine stop];
	free(bp);
}
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// darwinPlayback drives an AVAudioEngine/AVAudioPlayerNode graph, grounded
// on capture_darwin.go's opaque-handle cgo-bridge shape.
type darwinPlayback struct {
	mu       sync.Mutex
	handle   unsafe.Pointer
	channels int
}

func newPlatformPlayback(channels int) (Playback, error) {
	handle := C.beamCreatePlayback(C.int(channels), C.int(SampleRate))
	if handle == nil {
		return nil, fmt.Errorf("audio: failed to start playback engine")
	}
	return &darwinPlayback{handle: handle, channels: channels}, nil
}

func (p *darwinPlayback) Enqueue(planes [][]float32, frames int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return fmt.Errorf("audio: playback closed")
	}
	if len(planes) == 0 || frames == 0 {
		return nil
	}

	var p0, p1 *C.float
	p0 = (*C.float)(unsafe.Pointer(&planes[0][0]))
	if len(planes) > 1 && len(planes[1]) > 0 {
		p1 = (*C.float)(unsafe.Pointer(&planes[1][0]))
	}

	if rc := C.beamEnqueuePlanes(p.handle, p0, p1, C.int(p.channels), C.int(frames), C.int(SampleRate)); rc != 0 {
		return fmt.Errorf("audio: enqueue failed (%d)", int(rc))
	}
	return nil
}

func (p *darwinPlayback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return nil
	}
	C.beamDestroyPlayback(p.handle)
	p.handle = nil
	return nil
}
