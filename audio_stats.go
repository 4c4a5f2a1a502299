// audio_stats.go - Callback interval ring and timing statistics

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import "sync/atomic"

// Interval ring capacity. 4096 entries holds ~12 s of callbacks at the
// smallest supported buffer (128 frames @ 44100).
const (
	STATS_RING_SIZE = 4096
	STATS_RING_MASK = STATS_RING_SIZE - 1
)

// Classification of a measured configuration
const (
	CLASS_REALTIME_CAPABLE = iota
	CLASS_BORDERLINE
	CLASS_UNSUITABLE
)

// Mean inter-callback interval thresholds in microseconds
const (
	CLASS_REALTIME_LIMIT_US   = 10_000
	CLASS_BORDERLINE_LIMIT_US = 20_000
)

// LatencyStats summarizes inter-callback timing for one configuration.
// Intervals are in microseconds; ExpectedIntervalUS = 1e6*frames/rate.
type LatencyStats struct {
	FramesPerBuffer    int
	SampleRate         int
	CallbackCount      int
	MinIntervalUS      int64
	MaxIntervalUS      int64
	MeanIntervalUS     float64
	ExpectedIntervalUS float64
	DropoutSuspected   bool
	Classification     int
}

// JitterUS is the max-min spread over the measurement window.
func (s LatencyStats) JitterUS() int64 {
	return s.MaxIntervalUS - s.MinIntervalUS
}

func ClassificationName(c int) string {
	switch c {
	case CLASS_REALTIME_CAPABLE:
		return "RealtimeCapable"
	case CLASS_BORDERLINE:
		return "Borderline"
	default:
		return "Unsuitable"
	}
}

// classifyMean applies the fitness thresholds to a mean interval.
func classifyMean(meanUS float64) int {
	switch {
	case meanUS < CLASS_REALTIME_LIMIT_US:
		return CLASS_REALTIME_CAPABLE
	case meanUS < CLASS_BORDERLINE_LIMIT_US:
		return CLASS_BORDERLINE
	default:
		return CLASS_UNSUITABLE
	}
}

// intervalRing records inter-callback intervals. Single writer (the audio
// thread), single reader (ReadStats / the harness, after or between
// pushes). Entries are atomics so concurrent reads stay race-clean; the
// ring overwrites oldest entries once full.
type intervalRing struct {
	buf   [STATS_RING_SIZE]atomic.Int64 // microseconds
	count atomic.Uint64                 // total intervals ever pushed
}

func (r *intervalRing) push(us int64) {
	n := r.count.Load()
	r.buf[n&STATS_RING_MASK].Store(us)
	r.count.Store(n + 1)
}

func (r *intervalRing) reset() {
	r.count.Store(0)
}

// snapshot returns the retained intervals oldest-first.
func (r *intervalRing) snapshot() []int64 {
	n := r.count.Load()
	retained := n
	if retained > STATS_RING_SIZE {
		retained = STATS_RING_SIZE
	}
	out := make([]int64, retained)
	start := n - retained
	for i := uint64(0); i < retained; i++ {
		out[i] = r.buf[(start+i)&STATS_RING_MASK].Load()
	}
	return out
}

// reduce computes LatencyStats over the retained intervals. discardFirst
// drops the warm-up interval (device spin-up skews it); dropout detection
// needs the wall duration and is the harness' job.
func (r *intervalRing) reduce(format AudioFormat, discardFirst bool) LatencyStats {
	stats := LatencyStats{
		FramesPerBuffer:    format.FramesPerBuffer,
		SampleRate:         format.SampleRate,
		ExpectedIntervalUS: 1e6 * float64(format.FramesPerBuffer) / float64(format.SampleRate),
		Classification:     CLASS_UNSUITABLE,
	}

	intervals := r.snapshot()
	if discardFirst && len(intervals) > 0 {
		intervals = intervals[1:]
	}
	if len(intervals) == 0 {
		return stats
	}

	var sum int64
	stats.MinIntervalUS = intervals[0]
	stats.MaxIntervalUS = intervals[0]
	for _, us := range intervals {
		sum += us
		if us < stats.MinIntervalUS {
			stats.MinIntervalUS = us
		}
		if us > stats.MaxIntervalUS {
			stats.MaxIntervalUS = us
		}
	}
	stats.CallbackCount = len(intervals)
	stats.MeanIntervalUS = float64(sum) / float64(len(intervals))
	stats.Classification = classifyMean(stats.MeanIntervalUS)
	return stats
}
