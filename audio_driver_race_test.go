// audio_driver_race_test.go

package main

import (
	"sync"
	"testing"
	"time"
)

// TestDriver_ConcurrentControlAndCallback stresses the control plane
// against a live audio callback: gain/mute/solo/position churn, attach
// and detach cycles, and lossy readers, all while the clock backend
// pulls buffers in real time. The test has no assertions - the race
// detector is the oracle.
// Run with: go test -race -run TestDriver_ConcurrentControlAndCallback -count=1
func TestDriver_ConcurrentControlAndCallback(t *testing.T) {
	driver := NewAudioOutputDriver(DriverConfig{Backend: AUDIO_BACKEND_CLOCK})
	format := AudioFormat{
		SampleRate:      48000,
		Channels:        2,
		Encoding:        ENCODING_FLOAT32_LE,
		FramesPerBuffer: 128,
	}
	if _, err := driver.Configure(format); err != nil {
		t.Fatalf("configure: %v", err)
	}
	defer driver.Close()

	handles := make([]*TrackHandle, 4)
	for i := range handles {
		h, err := driver.Attach(TrackDescriptor{
			Name:     "churn",
			Gain:     1,
			Producer: &SineProducer{Freq: 220, SampleRate: format.SampleRate, Amplitude: 0.2},
		})
		if err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
		handles[i] = h
	}
	if err := driver.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Goroutine 1: parameter churn across all handles
	wg.Go(func() {
		iter := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			h := handles[iter%len(handles)]
			h.SetGain(float32(iter%200) / 100)
			h.SetMute(iter%3 == 0)
			h.SetSolo(iter%5 == 0)
			h.SetPosition(float32(iter%10), 0, 0)
			iter++
		}
	})

	// Goroutine 2: attach/detach cycles on a fifth slot
	wg.Go(func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			h, err := driver.Attach(TrackDescriptor{
				Name:     "transient",
				Gain:     0.5,
				Producer: SilentProducer{},
			})
			if err != nil {
				continue
			}
			time.Sleep(time.Millisecond)
			_ = driver.Detach(h)
		}
	})

	// Goroutine 3: lossy readers - peaks, levels, stats
	wg.Go(func() {
		var levels []TrackLevel
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, h := range handles {
				_ = driver.ReadPeaks(h)
				_ = h.Faulted()
			}
			levels = driver.TrackLevels(levels[:0])
			_ = driver.ReadStats()
		}
	})

	time.Sleep(200 * time.Millisecond)
	close(stop)
	wg.Wait()

	if err := driver.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
