// audio_driver_test.go - Driver state machine and track registry tests

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"errors"
	"testing"
	"time"
)

func testFormat() AudioFormat {
	return AudioFormat{
		SampleRate:      48000,
		Channels:        2,
		Encoding:        ENCODING_FLOAT32_LE,
		FramesPerBuffer: 256,
	}
}

// newTestDriver configures a clock-backed driver whose pacing goroutine
// never fires, so tests invoke the callback by hand and own all timing.
func newTestDriver(t *testing.T, format AudioFormat) *AudioOutputDriver {
	t.Helper()
	driver := NewAudioOutputDriver(DriverConfig{Backend: AUDIO_BACKEND_CLOCK})
	if _, err := driver.Configure(format); err != nil {
		t.Fatalf("configure: %v", err)
	}
	driver.output.(*ClockPlayer).Period = time.Hour
	t.Cleanup(func() { driver.Close() })
	return driver
}

func TestDriver_StateMachine(t *testing.T) {
	driver := NewAudioOutputDriver(DriverConfig{Backend: AUDIO_BACKEND_CLOCK})
	if got := driver.State(); got != DRIVER_CLOSED {
		t.Fatalf("initial state = %d, want closed", got)
	}

	if err := driver.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("start while closed: %v, want ErrInvalidState", err)
	}
	if err := driver.Stop(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("stop while closed: %v, want ErrInvalidState", err)
	}

	if _, err := driver.Configure(testFormat()); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := driver.State(); got != DRIVER_READY {
		t.Fatalf("state after configure = %d, want ready", got)
	}

	if _, err := driver.Configure(testFormat()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("configure while ready: %v, want ErrInvalidState", err)
	}
	if err := driver.Stop(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("stop while ready: %v, want ErrInvalidState", err)
	}

	if err := driver.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := driver.State(); got != DRIVER_RUNNING {
		t.Fatalf("state after start = %d, want running", got)
	}
	if err := driver.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("start while running: %v, want ErrInvalidState", err)
	}

	if err := driver.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := driver.State(); got != DRIVER_READY {
		t.Fatalf("state after stop = %d, want ready", got)
	}

	if err := driver.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := driver.State(); got != DRIVER_CLOSED {
		t.Fatalf("state after close = %d, want closed", got)
	}

	// Close releases everything; a fresh Configure must succeed.
	if _, err := driver.Configure(testFormat()); err != nil {
		t.Fatalf("reconfigure after close: %v", err)
	}
	driver.Close()
}

func TestDriver_FormatFallback(t *testing.T) {
	driver := NewAudioOutputDriver(DriverConfig{Backend: AUDIO_BACKEND_CLOCK})
	defer driver.Close()

	// 32 frames per buffer is below the device minimum, so the first open
	// is rejected and the conservative fallback is negotiated instead.
	requested := AudioFormat{
		SampleRate:      96000,
		Channels:        2,
		Encoding:        ENCODING_FLOAT32_LE,
		FramesPerBuffer: 32,
	}
	negotiated, err := driver.Configure(requested)
	if err != nil {
		t.Fatalf("configure: %v", err)
	}
	if negotiated != FallbackFormat() {
		t.Errorf("negotiated = %v, want fallback %v", negotiated, FallbackFormat())
	}
	if got := driver.State(); got != DRIVER_READY {
		t.Errorf("state = %d, want ready", got)
	}
}

func TestDriver_AttachValidation(t *testing.T) {
	driver := newTestDriver(t, testFormat())

	if _, err := driver.Attach(TrackDescriptor{Name: "no-producer"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("attach without producer: %v, want ErrInvalidState", err)
	}
	if _, err := driver.Attach(TrackDescriptor{
		Name:     "5.1",
		Channels: 6,
		Producer: SilentProducer{},
	}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("attach 6-channel source: %v, want ErrInvalidState", err)
	}
}

func TestDriver_AttachCapacity(t *testing.T) {
	driver := newTestDriver(t, testFormat())

	handles := make([]*TrackHandle, 0, MAX_TRACKS)
	for i := 0; i < MAX_TRACKS; i++ {
		h, err := driver.Attach(TrackDescriptor{Name: "t", Gain: 1, Producer: SilentProducer{}})
		if err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
		handles = append(handles, h)
	}

	if _, err := driver.Attach(TrackDescriptor{Name: "overflow", Gain: 1, Producer: SilentProducer{}}); !errors.Is(err, ErrCapacity) {
		t.Fatalf("attach past capacity: %v, want ErrCapacity", err)
	}

	// Detaching frees a slot for immediate reuse.
	if err := driver.Detach(handles[7]); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if _, err := driver.Attach(TrackDescriptor{Name: "reuse", Gain: 1, Producer: SilentProducer{}}); err != nil {
		t.Fatalf("attach after detach: %v", err)
	}
}

func TestDriver_DetachForeignHandle(t *testing.T) {
	driver := newTestDriver(t, testFormat())
	other := newTestDriver(t, testFormat())

	h, err := other.Attach(TrackDescriptor{Name: "elsewhere", Gain: 1, Producer: SilentProducer{}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := driver.Detach(h); !errors.Is(err, ErrInvalidState) {
		t.Errorf("detach foreign handle: %v, want ErrInvalidState", err)
	}
	if err := driver.Detach(nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("detach nil handle: %v, want ErrInvalidState", err)
	}
}

func TestDriver_HandleControls(t *testing.T) {
	driver := newTestDriver(t, testFormat())

	h, err := driver.Attach(TrackDescriptor{Name: "ctl", Gain: 1.5, Producer: SilentProducer{}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if got := h.Gain(); got != 1.5 {
		t.Errorf("initial gain = %v, want 1.5", got)
	}
	h.SetGain(99)
	if got := h.Gain(); got != MAX_TRACK_GAIN {
		t.Errorf("over-range gain = %v, want clamp to %v", got, float32(MAX_TRACK_GAIN))
	}
	h.SetGain(-1)
	if got := h.Gain(); got != 0 {
		t.Errorf("negative gain = %v, want clamp to 0", got)
	}

	h.SetMute(true)
	if !h.Muted() {
		t.Error("mute flag not set")
	}
	h.SetMute(false)
	if h.Muted() {
		t.Error("mute flag not cleared")
	}

	h.SetSolo(true)
	h.SetSolo(true) // idempotent, census must not double count
	if !h.Soloed() {
		t.Error("solo flag not set")
	}
	if got := driver.soloCount.Load(); got != 1 {
		t.Errorf("solo census = %d, want 1", got)
	}
	h.SetSolo(false)
	if got := driver.soloCount.Load(); got != 0 {
		t.Errorf("solo census after clear = %d, want 0", got)
	}

	h.SetPosition(1, 2, 3)
	if got := h.Position(); got != (Vec3{1, 2, 3}) {
		t.Errorf("position = %v, want {1 2 3}", got)
	}

	// Fresh track: no callback has run, peaks read zero.
	if snap := driver.ReadPeaks(h); snap.Instant != 0 || snap.Smoothed != 0 {
		t.Errorf("peaks before first callback = %+v, want zeros", snap)
	}
}

func TestDriver_DetachClearsSolo(t *testing.T) {
	driver := newTestDriver(t, testFormat())

	h, err := driver.Attach(TrackDescriptor{Name: "soloed", Gain: 1, Producer: SilentProducer{}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.SetSolo(true)
	if err := driver.Detach(h); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if got := driver.soloCount.Load(); got != 0 {
		t.Errorf("solo census after detach = %d, want 0", got)
	}
}

func TestDriver_DeviceFault(t *testing.T) {
	driver := newTestDriver(t, testFormat())
	if err := driver.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	driver.output.(*ClockPlayer).InjectFault(errors.New("card unplugged"))

	deadline := time.Now().Add(time.Second)
	for driver.State() != DRIVER_FAULTED && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := driver.State(); got != DRIVER_FAULTED {
		t.Fatalf("state = %d, want faulted", got)
	}
	if err := driver.FaultError(); !errors.Is(err, ErrDeviceFault) {
		t.Errorf("fault error = %v, want ErrDeviceFault", err)
	}

	// Faulted rejects everything but Close.
	if err := driver.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("start while faulted: %v, want ErrInvalidState", err)
	}
	if err := driver.Close(); err != nil {
		t.Errorf("close while faulted: %v", err)
	}
}
