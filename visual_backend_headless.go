//go:build headless

// visual_backend_headless.go - Windowless MeterView stand-in

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

// MeterView under the headless tag ticks nothing and returns
// immediately; headless builds drive the engine from their own loops.
type MeterView struct{}

func NewMeterView(driver *AudioOutputDriver, engine *ParticleEngine, config VisualConfig) (*MeterView, error) {
	return &MeterView{}, nil
}

func (v *MeterView) Run() error { return nil }
