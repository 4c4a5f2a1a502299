//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto permits one context per process, created once with fixed rate,
// channel count and sample format. The first open wins; later opens must
// match it or they are refused as busy. The per-context buffer size hint
// therefore only applies to the first configuration - measurement runs
// that sweep buffer sizes use the clock or portaudio backends instead.
var otoShared struct {
	sync.Mutex
	ctx      *oto.Context
	ready    chan struct{}
	rate     int
	channels int
	encoding int
}

type OtoPlayer struct {
	ctx    *oto.Context
	player *oto.Player
	render RenderFunc
	format AudioFormat
	mutex  sync.Mutex
}

func NewOtoPlayer(format AudioFormat, render RenderFunc) (*OtoPlayer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	var otoFormat oto.Format
	switch format.Encoding {
	case ENCODING_FLOAT32_LE:
		otoFormat = oto.FormatFloat32LE
	case ENCODING_INT16_LE:
		otoFormat = oto.FormatSignedInt16LE
	default:
		return nil, fmt.Errorf("%w: encoding %d not representable", ErrFormatRejected, format.Encoding)
	}

	otoShared.Lock()
	if otoShared.ctx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       otoFormat,
			BufferSize:   format.BufferDuration(),
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoShared.Unlock()
			return nil, fmt.Errorf("%w: %v", ErrDeviceMissing, err)
		}
		otoShared.ctx = ctx
		otoShared.ready = ready
		otoShared.rate = format.SampleRate
		otoShared.channels = format.Channels
		otoShared.encoding = format.Encoding
	} else if otoShared.rate != format.SampleRate ||
		otoShared.channels != format.Channels ||
		otoShared.encoding != format.Encoding {
		otoShared.Unlock()
		return nil, fmt.Errorf("%w: device already open at %dHz/%dch",
			ErrDeviceBusy, otoShared.rate, otoShared.channels)
	}
	ctx, ready := otoShared.ctx, otoShared.ready
	otoShared.Unlock()

	select {
	case <-ready:
	case <-time.After(CONFIGURE_TIMEOUT):
		return nil, fmt.Errorf("%w: device not ready after %v", ErrDeviceBusy, CONFIGURE_TIMEOUT)
	}

	return &OtoPlayer{
		ctx:    ctx,
		render: render,
		format: format,
	}, nil
}

func (op *OtoPlayer) Format() AudioFormat { return op.format }

// Read is the pull seam: oto's mixer goroutine drains the player through
// it. Whole frames are delegated to the render callback; a trailing
// partial frame, should oto ever ask for one, is zeroed.
func (op *OtoPlayer) Read(p []byte) (int, error) {
	frameBytes := op.format.FrameBytes()
	whole := len(p) / frameBytes * frameBytes
	if whole > 0 {
		op.render(p[:whole])
	}
	for i := whole; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (op *OtoPlayer) Start() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player == nil {
		op.player = op.ctx.NewPlayer(op)
	}
	op.player.Play()
	return nil
}

func (op *OtoPlayer) Stop() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		op.player.Pause()
	}
	return nil
}

func (op *OtoPlayer) Close() error {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.player != nil {
		if err := op.player.Close(); err != nil {
			op.player = nil
			return fmt.Errorf("%w: %v", ErrDeviceFault, err)
		}
		op.player = nil
	}
	return nil
}
