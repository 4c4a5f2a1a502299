// audio_track.go - Track state, control plane and built-in producers

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"math"
	"sync/atomic"
)

const (
	// MAX_TRACKS bounds the driver's track table
	MAX_TRACKS = 64

	// DEFAULT_STARVE_WINDOW consecutive empty callbacks fault a track
	DEFAULT_STARVE_WINDOW = 10

	// Gain range; the mixer allows up to +6 dB of boost
	MIN_TRACK_GAIN = 0.0
	MAX_TRACK_GAIN = 2.0
)

// Track flag bits (trackState.flags)
const (
	TRACK_FLAG_MUTE = 1 << iota
	TRACK_FLAG_SOLO
	TRACK_FLAG_FAULTED
)

// Vec3 is a track or particle position in source space.
type Vec3 struct {
	X, Y, Z float32
}

// SampleProducer is the track's source cursor. Produce writes up to
// frames frames (frames*channels interleaved samples) into out and
// returns the number of frames actually written. A short write means the
// source ran out; repeated zero writes mark the track starved. Called on
// the audio thread: it must not block beyond a few microseconds.
type SampleProducer interface {
	Produce(out []float32, frames int) int
}

// TrackDescriptor is everything Attach needs to register a track.
type TrackDescriptor struct {
	Name     string
	Gain     float32 // [0, 2]
	Channels int     // 1 (mono) or 2 (stereo source)
	Position Vec3
	Producer SampleProducer
}

// trackState is shared between the control plane (atomic setters), the
// audio thread (producer pull, peak publish, starvation) and lossy
// readers (meters, particles). The scratch buffer is allocated at attach
// so the callback never does.
type trackState struct {
	id       uint32
	name     string
	channels int
	producer SampleProducer

	gainBits atomic.Uint32 // float32 bits
	flags    atomic.Uint32
	pos      atomic.Pointer[Vec3]

	peaks peakCell

	// Audio-thread-only fields
	starveRun int     // consecutive callbacks with zero frames produced
	smoothed  float32 // released peak, mirrored into peaks each publish
	scratch   []float32
}

func (ts *trackState) gain() float32 {
	return math.Float32frombits(ts.gainBits.Load())
}

func (ts *trackState) setFlag(bit uint32, on bool) {
	for {
		old := ts.flags.Load()
		next := old &^ bit
		if on {
			next = old | bit
		}
		if ts.flags.CompareAndSwap(old, next) {
			return
		}
	}
}

func clampGain(g float32) float32 {
	if g < MIN_TRACK_GAIN {
		return MIN_TRACK_GAIN
	}
	if g > MAX_TRACK_GAIN {
		return MAX_TRACK_GAIN
	}
	return g
}

// TrackHandle is the control-plane view of an attached track. All
// methods are safe from any thread and never touch audio-thread state
// except through atomics.
type TrackHandle struct {
	driver *AudioOutputDriver
	slot   int
	ts     *trackState
}

func (h *TrackHandle) ID() uint32   { return h.ts.id }
func (h *TrackHandle) Name() string { return h.ts.name }

func (h *TrackHandle) SetGain(g float32) {
	h.ts.gainBits.Store(math.Float32bits(clampGain(g)))
}

func (h *TrackHandle) Gain() float32 { return h.ts.gain() }

func (h *TrackHandle) SetMute(mute bool) {
	h.ts.setFlag(TRACK_FLAG_MUTE, mute)
}

func (h *TrackHandle) Muted() bool {
	return h.ts.flags.Load()&TRACK_FLAG_MUTE != 0
}

// SetSolo flags the track; while any track is soloed, all non-soloed
// tracks contribute silence regardless of their mute flags.
func (h *TrackHandle) SetSolo(solo bool) {
	for {
		old := h.ts.flags.Load()
		next := old &^ TRACK_FLAG_SOLO
		if solo {
			next = old | TRACK_FLAG_SOLO
		}
		if next == old {
			return
		}
		if h.ts.flags.CompareAndSwap(old, next) {
			if solo {
				h.driver.soloCount.Add(1)
			} else {
				h.driver.soloCount.Add(-1)
			}
			return
		}
	}
}

func (h *TrackHandle) Soloed() bool {
	return h.ts.flags.Load()&TRACK_FLAG_SOLO != 0
}

// Faulted reports whether the driver muted this track for persistent
// producer starvation.
func (h *TrackHandle) Faulted() bool {
	return h.ts.flags.Load()&TRACK_FLAG_FAULTED != 0
}

// FaultError returns the starvation error that muted this track, or nil
// while the track is healthy.
func (h *TrackHandle) FaultError() error {
	if h.ts.flags.Load()&TRACK_FLAG_FAULTED == 0 {
		return nil
	}
	return fmt.Errorf("track %q: %w", h.ts.name, ErrStarvedTrack)
}

func (h *TrackHandle) SetPosition(x, y, z float32) {
	h.ts.pos.Store(&Vec3{x, y, z})
}

func (h *TrackHandle) Position() Vec3 {
	return *h.ts.pos.Load()
}

// Built-in producers

// SilentProducer supplies endless silence. It always satisfies the
// request, so it never starves; the harness uses it to measure pure
// callback timing.
type SilentProducer struct{}

func (SilentProducer) Produce(out []float32, frames int) int {
	for i := range out {
		out[i] = 0
	}
	return frames
}

// ConstProducer supplies a constant sample value on every channel.
type ConstProducer struct {
	Value float32
}

func (p ConstProducer) Produce(out []float32, frames int) int {
	for i := range out {
		out[i] = p.Value
	}
	return frames
}

// SineProducer supplies a sine tone through the shared sine LUT. One
// phase across all channels.
type SineProducer struct {
	Freq       float32
	SampleRate int
	Channels   int
	Amplitude  float32

	phase float32
}

func (p *SineProducer) Produce(out []float32, frames int) int {
	inc := p.Freq * TWO_PI / float32(p.SampleRate)
	ch := p.Channels
	if ch < 1 {
		ch = 1
	}
	amp := p.Amplitude
	if amp == 0 {
		amp = 1.0
	}
	for i := 0; i < frames; i++ {
		s := fastSin(p.phase) * amp
		for c := 0; c < ch; c++ {
			out[i*ch+c] = s
		}
		p.phase += inc
		if p.phase >= TWO_PI {
			p.phase -= TWO_PI
		}
	}
	return frames
}
