// audio_errors.go - Error taxonomy for the audio output path

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import "errors"

// Each category is a distinct sentinel; call sites wrap with fmt.Errorf("%w")
// and callers discriminate with errors.Is. No category overlaps another.
var (
	// ErrFormatRejected - the device refused the requested encoding, rate
	// or channel count. Recovered once internally by the fallback format.
	ErrFormatRejected = errors.New("audio: format rejected by device")

	// ErrDeviceBusy - the output device is held by another client, or did
	// not become ready within the configure timeout.
	ErrDeviceBusy = errors.New("audio: device busy")

	// ErrDeviceMissing - no output device is present.
	ErrDeviceMissing = errors.New("audio: no output device")

	// ErrCapacity - the driver track table is full.
	ErrCapacity = errors.New("audio: track capacity exceeded")

	// ErrInvalidState - the operation is not legal in the driver's
	// current state. The operation has no side effects.
	ErrInvalidState = errors.New("audio: operation invalid in current state")

	// ErrStarvedTrack - a track producer persistently failed to supply
	// frames. Localized: the track is muted and marked faulted, the
	// driver keeps running.
	ErrStarvedTrack = errors.New("audio: track producer starved")

	// ErrDeviceFault - the device failed after start (lost device,
	// underrun storm). Terminal for the driver instance.
	ErrDeviceFault = errors.New("audio: device fault")
)
