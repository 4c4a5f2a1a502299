//go:build portaudio && !headless

// audio_backend_portaudio.go - PortAudio output implementation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"
	"unsafe"

	pa "github.com/gordonklaus/portaudio"
)

// PortAudioPlayer fronts the default host output through PortAudio's
// callback API. Unlike oto it honours a per-stream buffer size, so the
// latency harness can sweep configurations against a real device.
type PortAudioPlayer struct {
	stream  *pa.Stream
	format  AudioFormat
	render  RenderFunc
	mutex   sync.Mutex
	started bool
	closed  bool
}

func NewPortAudioPlayer(format AudioFormat, render RenderFunc) (*PortAudioPlayer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceMissing, err)
	}

	pp := &PortAudioPlayer{format: format, render: render}

	var stream *pa.Stream
	var err error
	switch format.Encoding {
	case ENCODING_FLOAT32_LE:
		stream, err = pa.OpenDefaultStream(0, format.Channels,
			float64(format.SampleRate), format.FramesPerBuffer, pp.pullFloat32)
	case ENCODING_INT16_LE:
		stream, err = pa.OpenDefaultStream(0, format.Channels,
			float64(format.SampleRate), format.FramesPerBuffer, pp.pullInt16)
	default:
		err = fmt.Errorf("encoding %d not representable", format.Encoding)
	}
	if err != nil {
		_ = pa.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrFormatRejected, err)
	}

	pp.stream = stream
	return pp, nil
}

func (pp *PortAudioPlayer) Format() AudioFormat { return pp.format }

// The PortAudio callback hands out typed slices; the render contract is
// little-endian bytes, so the slice backing store is reinterpreted in
// place. Zero copies on the audio thread.
func (pp *PortAudioPlayer) pullFloat32(out []float32) {
	pp.render(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(out)*4))
}

func (pp *PortAudioPlayer) pullInt16(out []int16) {
	pp.render(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(out)*2))
}

func (pp *PortAudioPlayer) Start() error {
	pp.mutex.Lock()
	defer pp.mutex.Unlock()

	if pp.closed {
		return ErrInvalidState
	}
	if pp.started {
		return nil
	}
	if err := pp.stream.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceFault, err)
	}
	pp.started = true
	return nil
}

// Stop blocks until pending buffers drain; no callback runs after it
// returns.
func (pp *PortAudioPlayer) Stop() error {
	pp.mutex.Lock()
	defer pp.mutex.Unlock()

	if !pp.started {
		return nil
	}
	if err := pp.stream.Stop(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceFault, err)
	}
	pp.started = false
	return nil
}

func (pp *PortAudioPlayer) Close() error {
	if err := pp.Stop(); err != nil {
		return err
	}
	pp.mutex.Lock()
	defer pp.mutex.Unlock()

	if pp.closed {
		return nil
	}
	pp.closed = true
	errClose := pp.stream.Close()
	errTerm := pa.Terminate()
	if errClose != nil {
		return fmt.Errorf("%w: %v", ErrDeviceFault, errClose)
	}
	if errTerm != nil {
		return fmt.Errorf("%w: %v", ErrDeviceFault, errTerm)
	}
	return nil
}
