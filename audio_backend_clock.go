// audio_backend_clock.go - Synthetic paced output device

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"sync"
	"time"
)

// ClockPlayer paces the pull callback from a goroutine ticking at the
// buffer period, discarding the rendered frames. It stands in for a real
// device wherever none is available or wanted: unit tests, the latency
// harness on CI, and headless builds. Unlike a sound card it never
// underruns, so its timing reflects scheduler quality only.
type ClockPlayer struct {
	format AudioFormat
	render RenderFunc
	buf    []byte

	// Period overrides the natural buffer period when non-zero. Tests
	// use it to simulate hosts that cannot hold the deadline.
	Period time.Duration

	mutex   sync.Mutex
	quit    chan struct{}
	done    sync.WaitGroup
	started bool
	closed  bool
	onFault func(error)
	faultCh chan error
}

func NewClockPlayer(format AudioFormat, render RenderFunc) (*ClockPlayer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &ClockPlayer{
		format:  format,
		render:  render,
		buf:     make([]byte, format.BufferBytes()),
		faultCh: make(chan error, 1),
	}, nil
}

func (cp *ClockPlayer) Format() AudioFormat { return cp.format }

func (cp *ClockPlayer) SetFaultHandler(fn func(error)) {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	cp.onFault = fn
}

// InjectFault makes the pacing goroutine stop and report a device fault,
// as a lost device would. Test hook.
func (cp *ClockPlayer) InjectFault(err error) {
	select {
	case cp.faultCh <- err:
	default:
	}
}

func (cp *ClockPlayer) Start() error {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()

	if cp.closed {
		return ErrInvalidState
	}
	if cp.started {
		return nil
	}

	period := cp.Period
	if period == 0 {
		period = cp.format.BufferDuration()
	}

	cp.quit = make(chan struct{})
	cp.started = true
	cp.done.Add(1)
	go cp.run(period, cp.quit)
	return nil
}

func (cp *ClockPlayer) run(period time.Duration, quit chan struct{}) {
	defer cp.done.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case err := <-cp.faultCh:
			cp.mutex.Lock()
			fn := cp.onFault
			cp.mutex.Unlock()
			if fn != nil {
				fn(err)
			}
			return
		case <-ticker.C:
			cp.render(cp.buf)
		}
	}
}

// Stop halts pacing. No callback is in flight once it returns.
func (cp *ClockPlayer) Stop() error {
	cp.mutex.Lock()
	if !cp.started {
		cp.mutex.Unlock()
		return nil
	}
	quit := cp.quit
	cp.started = false
	cp.mutex.Unlock()

	close(quit)
	cp.done.Wait()
	return nil
}

func (cp *ClockPlayer) Close() error {
	if err := cp.Stop(); err != nil {
		return err
	}
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	cp.closed = true
	return nil
}
