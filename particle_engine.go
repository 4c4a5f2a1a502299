// particle_engine.go - Level-driven particle cloud

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import "math"

// Particle defaults
const (
	DEFAULT_MAX_PARTICLES     = 2048
	DEFAULT_PARTICLE_LIFETIME = 2.0  // seconds
	DEFAULT_EMISSION_RATE     = 30.0 // particles per second per unit level
	DEFAULT_PARTICLE_GRAVITY  = -0.5 // units per second squared, on y
	DEFAULT_PARTICLE_DRAG     = 0.98 // velocity retained per 1/60 s

	// Tracks quieter than this emit nothing
	PARTICLE_EMISSION_THRESHOLD = 0.05

	// Emitted speed is PARTICLE_SPEED_BASE + PARTICLE_SPEED_SCALE*level
	PARTICLE_SPEED_BASE  = 0.5
	PARTICLE_SPEED_SCALE = 2.0

	// Unconditional upward velocity bias after spherical scattering
	PARTICLE_UPWARD_BIAS = 1.0
)

// particlePalette colours particles by track: trackID mod 8.
var particlePalette = [8]RGB{
	{255, 64, 64},
	{255, 160, 32},
	{255, 240, 64},
	{96, 224, 96},
	{64, 224, 208},
	{80, 144, 255},
	{176, 96, 255},
	{255, 96, 208},
}

// Particle is one render-ready element of the cloud.
type Particle struct {
	Position Vec3
	Velocity Vec3
	Color    RGB
	Size     float32
	Life     float32 // 1 at emission, dead at <= 0
}

// LevelSource supplies per-track levels and positions; the driver
// implements it. Readings may be stale, the engine is a lossy consumer.
type LevelSource interface {
	TrackLevels(dst []TrackLevel) []TrackLevel
}

type ParticleConfig struct {
	MaxParticles    int
	LifetimeSeconds float64
	EmissionRate    float64 // per second per unit level
	Gravity         float32
	Drag            float32 // per 1/60 s, normalized for frame rate
	Seed            uint64
}

func DefaultParticleConfig() ParticleConfig {
	return ParticleConfig{
		MaxParticles:    DEFAULT_MAX_PARTICLES,
		LifetimeSeconds: DEFAULT_PARTICLE_LIFETIME,
		EmissionRate:    DEFAULT_EMISSION_RATE,
		Gravity:         DEFAULT_PARTICLE_GRAVITY,
		Drag:            DEFAULT_PARTICLE_DRAG,
		Seed:            1,
	}
}

// xorshift64 is the engine's private PRNG: seedable, fast, and identical
// across runs, which the determinism contract needs. Same family as the
// mixer's LFSR noise source.
type xorshift64 struct {
	s uint64
}

func (r *xorshift64) next() uint64 {
	r.s ^= r.s << 13
	r.s ^= r.s >> 7
	r.s ^= r.s << 17
	return r.s
}

// unitFloat returns a value in [0, 1) with 24 bits of resolution.
func (r *xorshift64) unitFloat() float32 {
	return float32(r.next()>>40) / (1 << 24)
}

// ParticleEngine owns a bounded cloud advanced on a fixed tick. Single
// threaded relative to itself: the renderer ticks it and snapshots
// between ticks. Storage is allocated once; emission beyond the cap is
// silently dropped.
type ParticleEngine struct {
	config    ParticleConfig
	rng       xorshift64
	particles []Particle
	live      int
	emitAcc   map[uint32]float64 // fractional emission debt per track
	levels    []TrackLevel       // scratch for AdvanceFrom
}

func NewParticleEngine(config ParticleConfig) *ParticleEngine {
	if config.MaxParticles <= 0 {
		config.MaxParticles = DEFAULT_MAX_PARTICLES
	}
	if config.LifetimeSeconds <= 0 {
		config.LifetimeSeconds = DEFAULT_PARTICLE_LIFETIME
	}
	if config.Drag <= 0 || config.Drag > 1 {
		config.Drag = DEFAULT_PARTICLE_DRAG
	}
	if config.Seed == 0 {
		config.Seed = 1
	}
	return &ParticleEngine{
		config:    config,
		rng:       xorshift64{s: config.Seed},
		particles: make([]Particle, config.MaxParticles),
		emitAcc:   make(map[uint32]float64, MAX_TRACKS),
		levels:    make([]TrackLevel, 0, MAX_TRACKS),
	}
}

func (e *ParticleEngine) ActiveCount() int { return e.live }

// Snapshot returns the live prefix, valid until the next Advance. The
// renderer reads it; nothing in it is retained by the engine's next
// tick except in place.
func (e *ParticleEngine) Snapshot() []Particle {
	return e.particles[:e.live]
}

// AdvanceFrom polls the source and ticks the cloud.
func (e *ParticleEngine) AdvanceFrom(src LevelSource, dt float64) {
	e.levels = src.TrackLevels(e.levels[:0])
	e.Advance(dt, e.levels)
}

// Advance runs one tick: emit from each audible track, integrate, then
// compact the dead. Deterministic for a fixed seed and input history;
// emission consumes randomness in track order, so callers must present
// tracks in a stable order (the driver's TrackLevels does).
func (e *ParticleEngine) Advance(dt float64, tracks []TrackLevel) {
	for _, tr := range tracks {
		if tr.Level < PARTICLE_EMISSION_THRESHOLD {
			continue
		}
		acc := e.emitAcc[tr.ID] + e.config.EmissionRate*float64(tr.Level)*dt
		emit := int(acc)
		e.emitAcc[tr.ID] = acc - float64(emit)
		for i := 0; i < emit; i++ {
			e.emit(tr)
		}
	}

	// Drag is specified per 1/60 s; raise it to dt*60 so the decay per
	// wall second does not depend on tick rate.
	drag := float32(math.Pow(float64(e.config.Drag), dt*60))
	fdt := float32(dt)
	lifeStep := float32(dt / e.config.LifetimeSeconds)

	for i := 0; i < e.live; i++ {
		p := &e.particles[i]
		p.Position.X += p.Velocity.X * fdt
		p.Position.Y += p.Velocity.Y * fdt
		p.Position.Z += p.Velocity.Z * fdt
		p.Velocity.Y += e.config.Gravity * fdt
		p.Velocity.X *= drag
		p.Velocity.Y *= drag
		p.Velocity.Z *= drag
		p.Life -= lifeStep
	}

	// Swap-remove the dead; live order is not observable.
	for i := 0; i < e.live; {
		if e.particles[i].Life <= 0 {
			e.live--
			e.particles[i] = e.particles[e.live]
		} else {
			i++
		}
	}
}

func (e *ParticleEngine) emit(tr TrackLevel) {
	if e.live == e.config.MaxParticles {
		return
	}

	// Uniform direction over the sphere: y from [-1,1], azimuth in the
	// xz plane. Randomness order is part of the determinism contract:
	// y, azimuth, size.
	y := 2*e.rng.unitFloat() - 1
	theta := TWO_PI * e.rng.unitFloat()
	size := 1.0 + e.rng.unitFloat()

	r := float32(math.Sqrt(float64(1 - y*y)))
	speed := float32(PARTICLE_SPEED_BASE + PARTICLE_SPEED_SCALE*tr.Level)

	p := &e.particles[e.live]
	e.live++

	p.Position = tr.Position
	p.Velocity = Vec3{
		X: r * fastSin(theta+TWO_PI/4) * speed, // cos via quarter-turn
		Y: y*speed + PARTICLE_UPWARD_BIAS,
		Z: r * fastSin(theta) * speed,
	}
	p.Color = particlePalette[tr.ID%8]
	p.Size = size
	p.Life = 1
}
