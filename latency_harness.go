// latency_harness.go - Callback timing characterization across buffer sizes

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"time"
)

// Defaults for a measurement sweep
const (
	HARNESS_DEFAULT_DURATION = 2 * time.Second

	// Below this fraction of the expected callback count the run is
	// flagged as dropping out.
	HARNESS_DROPOUT_RATIO = 0.95
)

func defaultHarnessSizes() []int {
	return []int{128, 256, 512, 1024, 2048}
}

type HarnessConfig struct {
	Backend     int
	BufferSizes []int
	SampleRate  int
	Channels    int
	Encoding    int
	Duration    time.Duration
}

func DefaultHarnessConfig() HarnessConfig {
	return HarnessConfig{
		Backend:     AUDIO_BACKEND_CLOCK,
		BufferSizes: defaultHarnessSizes(),
		SampleRate:  44100,
		Channels:    2,
		Encoding:    ENCODING_FLOAT32_LE,
		Duration:    HARNESS_DEFAULT_DURATION,
	}
}

// RunLatencyHarness measures inter-callback timing for each configured
// buffer size: a fresh driver with a silent producer is started, left
// running for the measurement duration, then reduced to LatencyStats.
// The first interval of each run is warm-up and already discarded by
// ReadStats. Results keep the order of BufferSizes; no global state.
func RunLatencyHarness(config HarnessConfig) ([]LatencyStats, error) {
	if len(config.BufferSizes) == 0 {
		config.BufferSizes = defaultHarnessSizes()
	}
	if config.Duration <= 0 {
		config.Duration = HARNESS_DEFAULT_DURATION
	}
	if config.SampleRate <= 0 {
		config.SampleRate = 44100
	}
	if config.Channels <= 0 {
		config.Channels = 2
	}

	results := make([]LatencyStats, 0, len(config.BufferSizes))
	for _, frames := range config.BufferSizes {
		stats, err := measureOne(config, frames)
		if err != nil {
			return results, fmt.Errorf("measuring %d-frame buffers: %w", frames, err)
		}
		results = append(results, stats)
	}
	return results, nil
}

func measureOne(config HarnessConfig, frames int) (LatencyStats, error) {
	driver := NewAudioOutputDriver(DriverConfig{Backend: config.Backend})
	defer driver.Close()

	negotiated, err := driver.Configure(AudioFormat{
		SampleRate:      config.SampleRate,
		Channels:        config.Channels,
		Encoding:        config.Encoding,
		FramesPerBuffer: frames,
	})
	if err != nil {
		return LatencyStats{}, err
	}

	if _, err := driver.Attach(TrackDescriptor{
		Name:     "harness-silence",
		Gain:     1.0,
		Producer: SilentProducer{},
	}); err != nil {
		return LatencyStats{}, err
	}

	if err := driver.Start(); err != nil {
		return LatencyStats{}, err
	}
	time.Sleep(config.Duration)
	if err := driver.Stop(); err != nil {
		return LatencyStats{}, err
	}

	stats := driver.ReadStats()
	expected := config.Duration.Seconds() * float64(negotiated.SampleRate) / float64(negotiated.FramesPerBuffer)
	if float64(stats.CallbackCount) < HARNESS_DROPOUT_RATIO*expected {
		stats.DropoutSuspected = true
	}
	return stats, nil
}

// WriteLatencyTable renders results as a fixed-width table, one row per
// buffer size. The column set and order are stable; nothing free-form.
func WriteLatencyTable(w io.Writer, results []LatencyStats) {
	fmt.Fprintf(w, "%8s %10s %10s %10s %10s %10s %10s %-16s %7s\n",
		"frames", "expectMs", "meanMs", "minMs", "maxMs", "jitterMs", "callbacks", "class", "dropout")
	for _, s := range results {
		fmt.Fprintf(w, "%8d %10.3f %10.3f %10.3f %10.3f %10.3f %10d %-16s %7v\n",
			s.FramesPerBuffer,
			s.ExpectedIntervalUS/1000,
			s.MeanIntervalUS/1000,
			float64(s.MinIntervalUS)/1000,
			float64(s.MaxIntervalUS)/1000,
			float64(s.JitterUS())/1000,
			s.CallbackCount,
			ClassificationName(s.Classification),
			s.DropoutSuspected)
	}
}
