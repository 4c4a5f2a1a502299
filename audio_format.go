// audio_format.go - Device format negotiation values

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"time"
)

// Sample encodings. Both are little-endian on the wire.
const (
	ENCODING_FLOAT32_LE = iota
	ENCODING_INT16_LE
)

// Frame count limits per device buffer
const (
	MIN_FRAMES_PER_BUFFER = 64
	MAX_FRAMES_PER_BUFFER = 8192
)

// Conservative fallback attempted once when the requested format is refused
const (
	FALLBACK_SAMPLE_RATE = 44100
	FALLBACK_CHANNELS    = 2
	FALLBACK_FRAMES      = 1024
)

// AudioFormat is an immutable device format. Buffers are interleaved
// frame-major: frame 0 chan 0, frame 0 chan 1, frame 1 chan 0, ...
type AudioFormat struct {
	SampleRate      int // frames per second (44100, 48000 typical)
	Channels        int // interleaved channel count, >= 1
	Encoding        int // ENCODING_FLOAT32_LE or ENCODING_INT16_LE
	FramesPerBuffer int // frames the device pulls per callback
}

func (f AudioFormat) BytesPerSample() int {
	if f.Encoding == ENCODING_INT16_LE {
		return 2
	}
	return 4
}

// FrameBytes returns the size of one frame across all channels.
func (f AudioFormat) FrameBytes() int {
	return f.Channels * f.BytesPerSample()
}

// BufferBytes returns the byte size of one device buffer:
// framesPerBuffer * channels * bytesPerSample.
func (f AudioFormat) BufferBytes() int {
	return f.FramesPerBuffer * f.FrameBytes()
}

// BufferDuration returns the wall-clock time one buffer represents.
func (f AudioFormat) BufferDuration() time.Duration {
	return time.Duration(f.FramesPerBuffer) * time.Second / time.Duration(f.SampleRate)
}

func (f AudioFormat) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrFormatRejected, f.SampleRate)
	}
	if f.Channels < 1 {
		return fmt.Errorf("%w: channel count %d", ErrFormatRejected, f.Channels)
	}
	if f.Encoding != ENCODING_FLOAT32_LE && f.Encoding != ENCODING_INT16_LE {
		return fmt.Errorf("%w: unknown encoding %d", ErrFormatRejected, f.Encoding)
	}
	if f.FramesPerBuffer < MIN_FRAMES_PER_BUFFER || f.FramesPerBuffer > MAX_FRAMES_PER_BUFFER {
		return fmt.Errorf("%w: %d frames per buffer outside [%d, %d]",
			ErrFormatRejected, f.FramesPerBuffer, MIN_FRAMES_PER_BUFFER, MAX_FRAMES_PER_BUFFER)
	}
	return nil
}

func (f AudioFormat) String() string {
	enc := "f32le"
	if f.Encoding == ENCODING_INT16_LE {
		enc = "s16le"
	}
	return fmt.Sprintf("%dHz/%dch/%s/%d", f.SampleRate, f.Channels, enc, f.FramesPerBuffer)
}

// FallbackFormat is the format retried once when a device rejects the
// requested one: Int16, 44.1kHz, stereo, 1024-frame buffers.
func FallbackFormat() AudioFormat {
	return AudioFormat{
		SampleRate:      FALLBACK_SAMPLE_RATE,
		Channels:        FALLBACK_CHANNELS,
		Encoding:        ENCODING_INT16_LE,
		FramesPerBuffer: FALLBACK_FRAMES,
	}
}
