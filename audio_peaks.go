// audio_peaks.go - Single-writer peak publication between audio and GUI threads

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"math"
	"sync/atomic"
)

// PeakSnapshot is the per-track level pair published after every callback.
// Instant has an instantaneous attack; Smoothed releases exponentially
// (default ~20 dB/s) for meter ballistics.
type PeakSnapshot struct {
	Instant  float32
	Smoothed float32
}

// peakCell is a seqlock: one writer (the audio thread), any number of
// readers. The writer bumps seq to odd, stores the packed value, bumps
// back to even. Readers retry on an odd or changed sequence, so a torn
// observation is never returned. After callback K the sequence is 2K.
//
// Both halves are atomics so the cell is race-detector clean; the seq
// fence is what makes the pair consistent.
type peakCell struct {
	seq atomic.Uint32
	val atomic.Uint64 // instant bits << 32 | smoothed bits
}

func (c *peakCell) publish(instant, smoothed float32) {
	c.seq.Add(1)
	c.val.Store(uint64(math.Float32bits(instant))<<32 | uint64(math.Float32bits(smoothed)))
	c.seq.Add(1)
}

func (c *peakCell) read() PeakSnapshot {
	for {
		s := c.seq.Load()
		if s&1 != 0 {
			continue
		}
		v := c.val.Load()
		if c.seq.Load() != s {
			continue
		}
		return PeakSnapshot{
			Instant:  math.Float32frombits(uint32(v >> 32)),
			Smoothed: math.Float32frombits(uint32(v)),
		}
	}
}

func (c *peakCell) sequence() uint32 {
	return c.seq.Load()
}

// releaseFactor returns the multiplier applied to the smoothed peak per
// device buffer so that it decays by dbPerSec over one second of silence.
func releaseFactor(dbPerSec float64, sampleRate, frames int) float32 {
	return float32(math.Pow(10, -dbPerSec/20*float64(frames)/float64(sampleRate)))
}
