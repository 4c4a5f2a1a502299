// audio_format_test.go

package main

import (
	"errors"
	"testing"
	"time"
)

func TestAudioFormat_Validate(t *testing.T) {
	good := AudioFormat{SampleRate: 48000, Channels: 2, Encoding: ENCODING_FLOAT32_LE, FramesPerBuffer: 512}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid format rejected: %v", err)
	}

	bad := []AudioFormat{
		{SampleRate: 0, Channels: 2, Encoding: ENCODING_FLOAT32_LE, FramesPerBuffer: 512},
		{SampleRate: 48000, Channels: 0, Encoding: ENCODING_FLOAT32_LE, FramesPerBuffer: 512},
		{SampleRate: 48000, Channels: 2, Encoding: 99, FramesPerBuffer: 512},
		{SampleRate: 48000, Channels: 2, Encoding: ENCODING_FLOAT32_LE, FramesPerBuffer: MIN_FRAMES_PER_BUFFER / 2},
		{SampleRate: 48000, Channels: 2, Encoding: ENCODING_FLOAT32_LE, FramesPerBuffer: MAX_FRAMES_PER_BUFFER * 2},
	}
	for _, f := range bad {
		err := f.Validate()
		if err == nil {
			t.Errorf("format %v validated, want rejection", f)
			continue
		}
		if !errors.Is(err, ErrFormatRejected) {
			t.Errorf("format %v: error %v is not ErrFormatRejected", f, err)
		}
	}
}

func TestAudioFormat_Sizes(t *testing.T) {
	f := AudioFormat{SampleRate: 44100, Channels: 2, Encoding: ENCODING_INT16_LE, FramesPerBuffer: 1024}
	if got := f.BytesPerSample(); got != 2 {
		t.Errorf("BytesPerSample = %d, want 2", got)
	}
	if got := f.FrameBytes(); got != 4 {
		t.Errorf("FrameBytes = %d, want 4", got)
	}
	if got := f.BufferBytes(); got != 4096 {
		t.Errorf("BufferBytes = %d, want 4096", got)
	}

	f.Encoding = ENCODING_FLOAT32_LE
	if got := f.BufferBytes(); got != 8192 {
		t.Errorf("float32 BufferBytes = %d, want 8192", got)
	}
}

func TestAudioFormat_BufferDuration(t *testing.T) {
	f := AudioFormat{SampleRate: 48000, Channels: 2, Encoding: ENCODING_FLOAT32_LE, FramesPerBuffer: 480}
	if got := f.BufferDuration(); got != 10*time.Millisecond {
		t.Errorf("BufferDuration = %v, want 10ms", got)
	}
}

func TestFallbackFormat(t *testing.T) {
	f := FallbackFormat()
	if err := f.Validate(); err != nil {
		t.Fatalf("fallback format invalid: %v", err)
	}
	want := AudioFormat{SampleRate: 44100, Channels: 2, Encoding: ENCODING_INT16_LE, FramesPerBuffer: 1024}
	if f != want {
		t.Errorf("fallback = %v, want %v", f, want)
	}
}
