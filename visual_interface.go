// visual_interface.go - Render-layer abstraction over the engine snapshots

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

// Visual backend selection
const (
	VISUAL_BACKEND_EBITEN = iota
	VISUAL_BACKEND_HEADLESS
)

// VisualOutput runs the window loop. It is the external render layer:
// it consumes TrackLevels and particle snapshots and owns all drawing;
// the engine and driver never render.
type VisualOutput interface {
	Run() error
}

type VisualConfig struct {
	Title  string
	Width  int
	Height int

	// StatsText supplies the text copied to the clipboard on demand.
	StatsText func() string
}

func NewVisualOutput(backend int, driver *AudioOutputDriver, engine *ParticleEngine, config VisualConfig) (VisualOutput, error) {
	if config.Width <= 0 {
		config.Width = 960
	}
	if config.Height <= 0 {
		config.Height = 540
	}
	if config.Title == "" {
		config.Title = "Intuition Studio"
	}
	switch backend {
	case VISUAL_BACKEND_HEADLESS:
		return nullView{}, nil
	default:
		return NewMeterView(driver, engine, config)
	}
}

// nullView satisfies VisualOutput where no window loop is wanted.
type nullView struct{}

func (nullView) Run() error { return nil }
