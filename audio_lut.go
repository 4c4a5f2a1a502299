// audio_lut.go - Lookup tables for the audio hot path and level metering

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import "math"

// Sine lookup table
const (
	sinLUTSize = 8192           // ~0.00077 radian resolution
	sinLUTMask = sinLUTSize - 1 // Mask for fast modulo
	TWO_PI     = float32(2 * math.Pi)
)

const sinLUTScale = float32(sinLUTSize) / (2 * math.Pi) // phase to index

// sinLUT contains precomputed sine values for phase [0, 2π)
var sinLUT [sinLUTSize]float32

// Level colour table
const (
	levelLUTSize = 256
	// Index 255 maps to linear level 2.0 (+6 dB over full scale), so the
	// table covers the whole clipping headroom the mixer allows.
	LEVEL_LUT_MAX = 2.0
	// Linear levels below this are treated as silence when converting to dB
	LEVEL_DB_FLOOR = 1e-4
)

// RGB is a display colour. Meters draw with it directly; the particle
// palette uses the same type.
type RGB struct {
	R, G, B uint8
}

// levelLUT maps linear level (0..2 across 256 steps) to meter colour.
// Frozen after init: silence is black, rising through green, yellow and
// orange to full red at and above 0 dB.
var levelLUT [levelLUTSize]RGB

func init() {
	for i := 0; i < sinLUTSize; i++ {
		phase := float64(i) * 2 * math.Pi / float64(sinLUTSize)
		sinLUT[i] = float32(math.Sin(phase))
	}

	for i := 0; i < levelLUTSize; i++ {
		level := LEVEL_LUT_MAX * float64(i) / float64(levelLUTSize-1)
		levelLUT[i] = colorForDB(20 * math.Log10(math.Max(level, LEVEL_DB_FLOOR)))
	}
}

// colorForDB computes the piecewise ramp the table is built from:
// below -60 dB black, -60..-18 black→green, -18..-6 green→yellow,
// -6..0 yellow→orange, 0 dB and above red.
func colorForDB(db float64) RGB {
	switch {
	case db < -60:
		return RGB{0, 0, 0}
	case db < -18:
		return lerpRGB(RGB{0, 0, 0}, RGB{0, 255, 0}, (db+60)/42)
	case db < -6:
		return lerpRGB(RGB{0, 255, 0}, RGB{255, 255, 0}, (db+18)/12)
	case db <= 0:
		// 0 dB is the orange endpoint; anything above is clipping red
		return lerpRGB(RGB{255, 255, 0}, RGB{255, 127, 0}, (db+6)/6)
	default:
		return RGB{255, 0, 0}
	}
}

func lerpRGB(a, b RGB, t float64) RGB {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return RGB{
		R: uint8(float64(a.R) + t*(float64(b.R)-float64(a.R)) + 0.5),
		G: uint8(float64(a.G) + t*(float64(b.G)-float64(a.G)) + 0.5),
		B: uint8(float64(a.B) + t*(float64(b.B)-float64(a.B)) + 0.5),
	}
}

// LevelColor maps a linear level to a meter colour. Levels are clamped to
// [0, 2]. Safe from any thread; the table never mutates after init.
func LevelColor(level float32) RGB {
	if level < 0 {
		level = 0
	} else if level > LEVEL_LUT_MAX {
		level = LEVEL_LUT_MAX
	}
	return levelLUT[int(level/LEVEL_LUT_MAX*float32(levelLUTSize-1))]
}

// LevelColorDB maps a dB level to a meter colour. It evaluates the ramp
// directly rather than through the 256-entry table, so band boundaries
// (-18 dB green, 0 dB orange) come out exact instead of quantized to the
// table's 2/255 level step.
func LevelColorDB(db float64) RGB {
	return colorForDB(db)
}

// fastSin returns sin(phase) using the lookup table with linear
// interpolation. Phase outside [0, 2π) is wrapped.
func fastSin(phase float32) float32 {
	if phase < 0 {
		phase += TWO_PI
		if phase < 0 {
			phase = phase - TWO_PI*float32(int(phase/TWO_PI)-1)
		}
	} else if phase >= TWO_PI {
		phase = phase - TWO_PI*float32(int(phase/TWO_PI))
	}

	indexF := phase * sinLUTScale
	index := int(indexF)
	frac := indexF - float32(index)

	index &= sinLUTMask
	nextIndex := (index + 1) & sinLUTMask

	return sinLUT[index] + frac*(sinLUT[nextIndex]-sinLUT[index])
}
