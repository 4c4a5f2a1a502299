//go:build !headless

// visual_backend_ebiten.go - Ebiten meter and particle view

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

const (
	meterBarWidth  = 24
	meterBarGap    = 10
	meterMaxHeight = 160

	// Simple perspective projection for the particle cloud
	particleViewDepth = 4.0
	particleViewScale = 220.0
)

// MeterView draws per-track level bars through the level colour table
// and the particle snapshot above them. It ticks the particle engine at
// the display rate; the driver keeps running on its own threads.
type MeterView struct {
	driver *AudioOutputDriver
	engine *ParticleEngine
	config VisualConfig

	fb     []byte
	levels []TrackLevel

	clipboardOnce sync.Once
	clipboardOK   bool
}

func NewMeterView(driver *AudioOutputDriver, engine *ParticleEngine, config VisualConfig) (*MeterView, error) {
	return &MeterView{
		driver: driver,
		engine: engine,
		config: config,
		fb:     make([]byte, config.Width*config.Height*4),
		levels: make([]TrackLevel, 0, MAX_TRACKS),
	}, nil
}

func (v *MeterView) Run() error {
	ebiten.SetWindowSize(v.config.Width, v.config.Height)
	ebiten.SetWindowTitle(v.config.Title)
	ebiten.SetVsyncEnabled(true)
	return ebiten.RunGame(v)
}

func (v *MeterView) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) && v.config.StatsText != nil {
		v.clipboardOnce.Do(func() {
			v.clipboardOK = clipboard.Init() == nil
		})
		if v.clipboardOK {
			clipboard.Write(clipboard.FmtText, []byte(v.config.StatsText()))
		}
	}

	v.engine.AdvanceFrom(v.driver, 1.0/60.0)
	return nil
}

func (v *MeterView) Draw(screen *ebiten.Image) {
	for i := range v.fb {
		v.fb[i] = 0
	}
	for i := 3; i < len(v.fb); i += 4 {
		v.fb[i] = 255 // opaque background
	}

	v.drawParticles()
	v.levels = v.driver.TrackLevels(v.levels[:0])
	v.drawMeters()

	screen.WritePixels(v.fb)
	v.drawLabels(screen)
}

func (v *MeterView) drawMeters() {
	baseY := v.config.Height - 20
	x := meterBarGap
	for _, lv := range v.levels {
		if x+meterBarWidth > v.config.Width {
			break
		}
		h := int(lv.Level / LEVEL_LUT_MAX * meterMaxHeight)
		if h > meterMaxHeight {
			h = meterMaxHeight
		}
		// Colour each horizontal slice by the level it represents, so
		// the bar reads like a classic segment meter.
		for row := 0; row < h; row++ {
			c := LevelColor(float32(row) / meterMaxHeight * LEVEL_LUT_MAX)
			v.fillRect(x, baseY-row, meterBarWidth, 1, c)
		}
		x += meterBarWidth + meterBarGap
	}
}

func (v *MeterView) drawParticles() {
	cx := v.config.Width / 2
	cy := v.config.Height/2 - 40
	for _, p := range v.engine.Snapshot() {
		depth := p.Position.Z + particleViewDepth
		if depth <= 0.1 {
			continue
		}
		sx := cx + int(p.Position.X/depth*particleViewScale)
		sy := cy - int(p.Position.Y/depth*particleViewScale)
		size := int(p.Size * 2 / depth * particleViewDepth)
		if size < 1 {
			size = 1
		}
		// Fade with remaining life
		c := p.Color
		c.R = uint8(float32(c.R) * p.Life)
		c.G = uint8(float32(c.G) * p.Life)
		c.B = uint8(float32(c.B) * p.Life)
		v.fillRect(sx, sy, size, size, c)
	}
}

func (v *MeterView) drawLabels(screen *ebiten.Image) {
	x := meterBarGap
	baseY := v.config.Height - 6
	for _, lv := range v.levels {
		if x+meterBarWidth > v.config.Width {
			break
		}
		text.Draw(screen, fmt.Sprintf("T%d", lv.ID), basicfont.Face7x13, x, baseY, color.White)
		x += meterBarWidth + meterBarGap
	}
}

func (v *MeterView) fillRect(x, y, w, h int, c RGB) {
	for row := y; row < y+h; row++ {
		if row < 0 || row >= v.config.Height {
			continue
		}
		for col := x; col < x+w; col++ {
			if col < 0 || col >= v.config.Width {
				continue
			}
			i := (row*v.config.Width + col) * 4
			v.fb[i] = c.R
			v.fb[i+1] = c.G
			v.fb[i+2] = c.B
			v.fb[i+3] = 255
		}
	}
}

func (v *MeterView) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.config.Width, v.config.Height
}
