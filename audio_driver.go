// audio_driver.go - Real-time audio output driver

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"
)

// Driver states
const (
	DRIVER_CLOSED = iota
	DRIVER_READY
	DRIVER_RUNNING
	DRIVER_FAULTED
)

// Meter release default: the smoothed peak falls ~20 dB over one second
// of silence.
const DEFAULT_RELEASE_DB_PER_SEC = 20.0

// Command queue depth. Producers block only with this many control
// mutations outstanding, which the control plane is allowed to do.
const COMMAND_QUEUE_DEPTH = 256

type DriverConfig struct {
	Backend         int
	ReleaseDBPerSec float64 // meter release rate, dB per second
	StarveWindow    int     // consecutive empty callbacks before a track faults
}

func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		Backend:         AUDIO_BACKEND_OTO,
		ReleaseDBPerSec: DEFAULT_RELEASE_DB_PER_SEC,
		StarveWindow:    DEFAULT_STARVE_WINDOW,
	}
}

// trackCommand installs (ts != nil) or removes (ts == nil) a track slot.
// Applied in FIFO order by the audio thread, so a remove queued before a
// reuse of the same slot lands first.
type trackCommand struct {
	slot int
	ts   *trackState
}

// TrackLevel is the lossy per-track readout meters and the particle
// engine consume.
type TrackLevel struct {
	ID       uint32
	Level    float32
	Position Vec3
}

// AudioOutputDriver owns one device handle and presents the contract:
// given tracks and a format, deliver PCM on time or report precise
// failure. The pull callback runs wait-free on the device's real-time
// thread; everything else is the control plane, serialized by ctlMu,
// which the callback never takes.
type AudioOutputDriver struct {
	config DriverConfig
	state  atomic.Int32

	// Control plane (ctlMu)
	ctlMu    sync.Mutex
	output   AudioOutput
	format   AudioFormat
	reserved [MAX_TRACKS]bool

	nextTrackID atomic.Uint32
	soloCount   atomic.Int32
	commands    chan trackCommand
	faultErr    atomic.Pointer[error]

	// Track registry: slots the audio thread stores, any thread loads
	slots [MAX_TRACKS]atomic.Pointer[trackState]

	// Audio-thread state
	mix             []float32
	lastCallback    time.Time
	ring            intervalRing
	releasePerFrame float64
	inCallback      atomic.Int32
}

func NewAudioOutputDriver(config DriverConfig) *AudioOutputDriver {
	if config.ReleaseDBPerSec <= 0 {
		config.ReleaseDBPerSec = DEFAULT_RELEASE_DB_PER_SEC
	}
	if config.StarveWindow <= 0 {
		config.StarveWindow = DEFAULT_STARVE_WINDOW
	}
	return &AudioOutputDriver{
		config:   config,
		commands: make(chan trackCommand, COMMAND_QUEUE_DEPTH),
	}
}

func (d *AudioOutputDriver) State() int { return int(d.state.Load()) }

// FaultError returns the device error that moved the driver to Faulted.
func (d *AudioOutputDriver) FaultError() error {
	if p := d.faultErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Configure opens the device with the requested format. Legal only in
// Closed. A rejection is recovered exactly once with the conservative
// fallback (Int16/44100/stereo/1024); if that fails too, the fallback's
// error is surfaced. On success the driver is Ready and the actual
// negotiated format is returned; on every failure path the device handle
// is released.
func (d *AudioOutputDriver) Configure(requested AudioFormat) (AudioFormat, error) {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()

	if d.state.Load() != DRIVER_CLOSED {
		return AudioFormat{}, fmt.Errorf("%w: configure requires a closed driver", ErrInvalidState)
	}

	output, err := d.open(requested)
	if err != nil {
		return AudioFormat{}, err
	}

	negotiated := output.Format()
	d.output = output
	d.format = negotiated
	d.mix = make([]float32, negotiated.FramesPerBuffer*negotiated.Channels)
	d.releasePerFrame = float64(releaseFactor(d.config.ReleaseDBPerSec, negotiated.SampleRate, 1))
	if fr, ok := output.(FaultReporter); ok {
		fr.SetFaultHandler(d.deviceFault)
	}
	d.state.Store(DRIVER_READY)
	return negotiated, nil
}

func (d *AudioOutputDriver) open(requested AudioFormat) (AudioOutput, error) {
	output, err := NewAudioOutput(d.config.Backend, requested, d.renderInto)
	if err == nil {
		return output, nil
	}
	if !isRejection(err) {
		return nil, err
	}
	fallback := FallbackFormat()
	if fallback == requested {
		return nil, err
	}
	output, err2 := NewAudioOutput(d.config.Backend, fallback, d.renderInto)
	if err2 != nil {
		return nil, err2
	}
	return output, nil
}

// isRejection matches the configure error kinds the fallback format may
// recover: a refused format, or a device that is busy or missing at the
// requested parameters.
func isRejection(err error) bool {
	return errors.Is(err, ErrFormatRejected) ||
		errors.Is(err, ErrDeviceBusy) ||
		errors.Is(err, ErrDeviceMissing)
}

// Start enables callback delivery. Ready -> Running.
func (d *AudioOutputDriver) Start() error {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()

	if d.state.Load() != DRIVER_READY {
		return fmt.Errorf("%w: start requires a ready driver", ErrInvalidState)
	}

	// The audio thread is quiescent here, so these writes are safe.
	d.lastCallback = time.Time{}
	d.ring.reset()

	d.state.Store(DRIVER_RUNNING)
	if err := d.output.Start(); err != nil {
		d.state.Store(DRIVER_FAULTED)
		d.faultErr.Store(&err)
		return err
	}
	return nil
}

// Stop disables callback delivery and blocks until the in-flight
// callback, if any, has returned. Running -> Ready.
func (d *AudioOutputDriver) Stop() error {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()

	if d.state.Load() != DRIVER_RUNNING {
		return fmt.Errorf("%w: stop requires a running driver", ErrInvalidState)
	}
	d.state.Store(DRIVER_READY)
	err := d.output.Stop()

	// Wait at most one buffer period for drainage.
	deadline := time.Now().Add(d.format.BufferDuration())
	for d.inCallback.Load() != 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Microsecond)
	}
	return err
}

// Close releases the device from any state. Only Configure is legal
// afterwards.
func (d *AudioOutputDriver) Close() error {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()

	if d.state.Load() == DRIVER_RUNNING {
		d.state.Store(DRIVER_READY)
		_ = d.output.Stop()
		deadline := time.Now().Add(d.format.BufferDuration())
		for d.inCallback.Load() != 0 && time.Now().Before(deadline) {
			time.Sleep(50 * time.Microsecond)
		}
	}

	var err error
	if d.output != nil {
		err = d.output.Close()
		d.output = nil
	}

	// No audio thread remains; reset the registry directly.
	for {
		select {
		case <-d.commands:
			continue
		default:
		}
		break
	}
	for i := range d.slots {
		d.slots[i].Store(nil)
		d.reserved[i] = false
	}
	d.soloCount.Store(0)
	d.state.Store(DRIVER_CLOSED)
	return err
}

// Attach registers a track. Legal in Ready or Running; while Running the
// installation is deferred to the next callback boundary. The handle is
// usable immediately (peaks read as zero until the first callback).
func (d *AudioOutputDriver) Attach(desc TrackDescriptor) (*TrackHandle, error) {
	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()

	st := d.state.Load()
	if st != DRIVER_READY && st != DRIVER_RUNNING {
		return nil, fmt.Errorf("%w: attach requires a ready or running driver", ErrInvalidState)
	}
	if desc.Producer == nil {
		return nil, fmt.Errorf("%w: track %q has no producer", ErrInvalidState, desc.Name)
	}
	channels := desc.Channels
	if channels == 0 {
		channels = 1
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: track %q wants %d source channels", ErrInvalidState, desc.Name, channels)
	}

	slot := -1
	for i := range d.reserved {
		if !d.reserved[i] {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, fmt.Errorf("%w: %d tracks attached", ErrCapacity, MAX_TRACKS)
	}
	d.reserved[slot] = true

	ts := &trackState{
		id:       d.nextTrackID.Add(1),
		name:     desc.Name,
		channels: channels,
		producer: desc.Producer,
		scratch:  make([]float32, d.format.FramesPerBuffer*channels),
	}
	ts.gainBits.Store(math.Float32bits(clampGain(desc.Gain)))
	pos := desc.Position
	ts.pos.Store(&pos)

	d.commands <- trackCommand{slot: slot, ts: ts}
	return &TrackHandle{driver: d, slot: slot, ts: ts}, nil
}

// Detach removes a track. Deferred to the next callback boundary while
// Running; the slot may be reused immediately because commands apply in
// FIFO order.
func (d *AudioOutputDriver) Detach(h *TrackHandle) error {
	if h == nil || h.driver != d {
		return fmt.Errorf("%w: foreign track handle", ErrInvalidState)
	}

	// Keep the solo census consistent before the slot disappears.
	h.SetSolo(false)

	d.ctlMu.Lock()
	defer d.ctlMu.Unlock()

	st := d.state.Load()
	if st != DRIVER_READY && st != DRIVER_RUNNING {
		return fmt.Errorf("%w: detach requires a ready or running driver", ErrInvalidState)
	}
	if !d.reserved[h.slot] {
		return fmt.Errorf("%w: track already detached", ErrInvalidState)
	}
	d.reserved[h.slot] = false
	d.commands <- trackCommand{slot: h.slot, ts: nil}
	return nil
}

// ReadPeaks returns the track's published levels. Lock-free, any thread.
func (d *AudioOutputDriver) ReadPeaks(h *TrackHandle) PeakSnapshot {
	return h.ts.peaks.read()
}

// ReadStats reduces the interval ring to timing statistics for the
// current run. The warm-up interval is discarded.
func (d *AudioOutputDriver) ReadStats() LatencyStats {
	return d.ring.reduce(d.format, true)
}

// TrackLevels appends one entry per attached track. Lossy: a level may
// lag the audio thread by a callback. Meters and the particle engine
// poll it.
func (d *AudioOutputDriver) TrackLevels(dst []TrackLevel) []TrackLevel {
	for i := range d.slots {
		ts := d.slots[i].Load()
		if ts == nil {
			continue
		}
		snap := ts.peaks.read()
		dst = append(dst, TrackLevel{ID: ts.id, Level: snap.Smoothed, Position: *ts.pos.Load()})
	}
	return dst
}

func (d *AudioOutputDriver) deviceFault(err error) {
	wrapped := fmt.Errorf("%w: %v", ErrDeviceFault, err)
	d.faultErr.Store(&wrapped)
	d.state.Store(DRIVER_FAULTED)
}

// renderInto is the pull callback. Audio thread only. It must not
// allocate, block, or take any control-plane lock.
func (d *AudioOutputDriver) renderInto(dst []byte) {
	if d.state.Load() != DRIVER_RUNNING {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	d.inCallback.Add(1)
	defer d.inCallback.Add(-1)

	now := time.Now()
	if !d.lastCallback.IsZero() {
		d.ring.push(now.Sub(d.lastCallback).Microseconds())
	}
	d.lastCallback = now

	d.drainCommands()

	frameBytes := d.format.FrameBytes()
	frames := len(dst) / frameBytes

	// Devices may pull more than one negotiated buffer per invocation;
	// the mix scratch bounds each pass.
	done := 0
	for done < frames {
		n := frames - done
		if n > d.format.FramesPerBuffer {
			n = d.format.FramesPerBuffer
		}
		d.mixChunk(dst[done*frameBytes:(done+n)*frameBytes], n)
		done += n
	}
	for i := frames * frameBytes; i < len(dst); i++ {
		dst[i] = 0
	}
}

func (d *AudioOutputDriver) drainCommands() {
	for {
		select {
		case cmd := <-d.commands:
			d.slots[cmd.slot].Store(cmd.ts)
		default:
			return
		}
	}
}

func (d *AudioOutputDriver) mixChunk(dst []byte, frames int) {
	ch := d.format.Channels
	mix := d.mix[:frames*ch]
	for i := range mix {
		mix[i] = 0
	}

	release := float32(math.Pow(d.releasePerFrame, float64(frames)))
	soloActive := d.soloCount.Load() > 0

	for slot := range d.slots {
		ts := d.slots[slot].Load()
		if ts == nil {
			continue
		}
		flags := ts.flags.Load()
		if flags&(TRACK_FLAG_MUTE|TRACK_FLAG_FAULTED) != 0 ||
			(soloActive && flags&TRACK_FLAG_SOLO == 0) {
			// Silenced tracks keep metering so the bar decays to zero
			// rather than freezing at the last audible level.
			d.publishPeaks(ts, 0, release)
			continue
		}

		src := ts.scratch[:frames*ts.channels]
		n := ts.producer.Produce(src, frames)
		if n > frames {
			n = frames
		}
		if n <= 0 {
			ts.starveRun++
			if ts.starveRun >= d.config.StarveWindow {
				ts.setFlag(TRACK_FLAG_FAULTED|TRACK_FLAG_MUTE, true)
			}
			d.publishPeaks(ts, 0, release)
			continue
		}
		ts.starveRun = 0

		gain := ts.gain()
		var peak float32

		if ts.channels == 1 {
			for i := 0; i < n; i++ {
				s := src[i] * gain
				if a := abs32f(s); a > peak {
					peak = a
				}
				base := i * ch
				for c := 0; c < ch; c++ {
					mix[base+c] += s
				}
			}
		} else {
			for i := 0; i < n; i++ {
				l := src[i*2] * gain
				r := src[i*2+1] * gain
				if a := abs32f(l); a > peak {
					peak = a
				}
				if a := abs32f(r); a > peak {
					peak = a
				}
				if ch == 1 {
					mix[i] += (l + r) * 0.5
				} else {
					mix[i*ch] += l
					mix[i*ch+1] += r
				}
			}
		}

		d.publishPeaks(ts, peak, release)
	}

	switch d.format.Encoding {
	case ENCODING_INT16_LE:
		for i, s := range mix {
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			v := int16(s * 32767)
			dst[2*i] = byte(v)
			dst[2*i+1] = byte(uint16(v) >> 8)
		}
	default:
		out := unsafe.Slice((*float32)(unsafe.Pointer(&dst[0])), len(mix))
		copy(out, mix)
	}
}

// publishPeaks applies instant attack and exponential release, then
// publishes through the track's seqlock.
func (d *AudioOutputDriver) publishPeaks(ts *trackState, current, release float32) {
	smoothed := ts.smoothed * release
	if current > smoothed {
		smoothed = current
	}
	ts.smoothed = smoothed
	ts.peaks.publish(current, smoothed)
}

func abs32f(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
