// audio_peaks_test.go

package main

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestPeakCell_PublishRead(t *testing.T) {
	var c peakCell
	if snap := c.read(); snap.Instant != 0 || snap.Smoothed != 0 {
		t.Fatalf("fresh cell read %+v, want zeros", snap)
	}

	c.publish(0.75, 0.5)
	snap := c.read()
	if snap.Instant != 0.75 || snap.Smoothed != 0.5 {
		t.Errorf("read %+v, want {0.75 0.5}", snap)
	}
	if got := c.sequence(); got != 2 {
		t.Errorf("sequence after one publish = %d, want 2", got)
	}

	c.publish(0.25, 0.4)
	if got := c.sequence(); got != 4 {
		t.Errorf("sequence after two publishes = %d, want 4", got)
	}
}

// TestPeakCell_ConcurrentReaders hammers the cell with one writer and
// several readers. The writer always publishes pairs where
// smoothed == instant/2, so any torn read shows up as a broken pairing
// even without the race detector.
func TestPeakCell_ConcurrentReaders(t *testing.T) {
	var c peakCell
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Go(func() {
		v := float32(0)
		for {
			select {
			case <-stop:
				return
			default:
			}
			c.publish(v, v/2)
			v += 0.001
			if v > 1 {
				v = 0
			}
		}
	})

	for r := 0; r < 4; r++ {
		wg.Go(func() {
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := c.read()
				if snap.Smoothed != snap.Instant/2 {
					t.Errorf("torn read: %+v", snap)
					return
				}
			}
		})
	}

	time.Sleep(100 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestReleaseFactor(t *testing.T) {
	// One full second of release at 20 dB/s is a factor of 0.1.
	f := releaseFactor(20, 44100, 44100)
	if math.Abs(float64(f)-0.1) > 1e-6 {
		t.Errorf("one-second factor = %v, want 0.1", f)
	}

	// Compounded per-buffer factors must reach the same point: 1s of
	// 1024-frame buffers at 48kHz.
	perBuf := float64(releaseFactor(20, 48000, 1024))
	buffers := 48000.0 / 1024.0
	total := math.Pow(perBuf, buffers)
	if math.Abs(total-0.1) > 1e-4 {
		t.Errorf("compounded release over 1s = %v, want 0.1", total)
	}
}
