// audio_output.go - Device backend interface and factory

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

// Audio backend selection
const (
	AUDIO_BACKEND_OTO = iota
	AUDIO_BACKEND_PORTAUDIO
	AUDIO_BACKEND_CLOCK
)

// How long configure waits for a device to become ready before reporting
// it busy.
const CONFIGURE_TIMEOUT = 2 * time.Second

// RenderFunc is the pull callback a backend invokes from its real-time
// thread. It must fill dst completely; dst length is always a whole
// number of frames in the negotiated format.
type RenderFunc func(dst []byte)

// AudioOutput is the host device abstraction: open negotiates a format
// at construction, then the device pulls frames through the RenderFunc
// between Start and Stop. Close releases the device handle.
type AudioOutput interface {
	Start() error
	Stop() error
	Close() error
	Format() AudioFormat
}

// FaultReporter is implemented by backends that can fail asynchronously
// after Start (lost device, underrun storm). The handler runs off the
// audio thread.
type FaultReporter interface {
	SetFaultHandler(func(error))
}

// NewAudioOutput opens the selected backend with the given format. The
// format must already be validated; backends reject what they cannot
// express with ErrFormatRejected.
func NewAudioOutput(backend int, format AudioFormat, render RenderFunc) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_OTO:
		return NewOtoPlayer(format, render)
	case AUDIO_BACKEND_PORTAUDIO:
		return NewPortAudioPlayer(format, render)
	case AUDIO_BACKEND_CLOCK:
		return NewClockPlayer(format, render)
	default:
		return nil, fmt.Errorf("%w: unknown audio backend %d", ErrDeviceMissing, backend)
	}
}

func BackendName(backend int) string {
	switch backend {
	case AUDIO_BACKEND_OTO:
		return "oto"
	case AUDIO_BACKEND_PORTAUDIO:
		return "portaudio"
	case AUDIO_BACKEND_CLOCK:
		return "clock"
	default:
		return "unknown"
	}
}
