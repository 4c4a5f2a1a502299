// main.go - Main entry point for the Intuition Studio audio core

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func boilerPlate() {
	title := "INTUITION STUDIO"
	if stdoutIsTTY() {
		fmt.Printf("\n\033[38;2;255;20;147m%s\033[0m\n", title)
	} else {
		fmt.Printf("\n%s\n", title)
	}
	fmt.Println("\nReal-time audio core: mixing, metering and audio-reactive visuals.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionStudio")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func parseBackend(name string) (int, error) {
	switch name {
	case "oto":
		return AUDIO_BACKEND_OTO, nil
	case "portaudio":
		return AUDIO_BACKEND_PORTAUDIO, nil
	case "clock":
		return AUDIO_BACKEND_CLOCK, nil
	}
	return 0, fmt.Errorf("unknown backend %q (want oto, portaudio or clock)", name)
}

// attachDemoTracks wires a small A major chord across the stereo field so
// -play and -visual have something audible to meter.
func attachDemoTracks(driver *AudioOutputDriver, sampleRate int) ([]*TrackHandle, error) {
	voices := []struct {
		name string
		freq float64
		amp  float32
		gain float32
		pos  Vec3
	}{
		{"bass", 110.0, 0.50, 1.0, Vec3{X: 0.0, Y: -0.5, Z: 0.0}},
		{"root", 220.0, 0.40, 0.9, Vec3{X: -0.6, Y: 0.0, Z: 0.0}},
		{"third", 277.18, 0.35, 0.8, Vec3{X: 0.6, Y: 0.0, Z: 0.0}},
		{"fifth", 329.63, 0.30, 0.7, Vec3{X: 0.0, Y: 0.5, Z: 0.2}},
	}

	handles := make([]*TrackHandle, 0, len(voices))
	for _, v := range voices {
		h, err := driver.Attach(TrackDescriptor{
			Name:     v.name,
			Gain:     v.gain,
			Channels: 1,
			Position: v.pos,
			Producer: &SineProducer{
				Freq:       float32(v.freq),
				SampleRate: sampleRate,
				Channels:   1,
				Amplitude:  v.amp,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", v.name, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func meterBar(level float32, width int) string {
	lit := int(level / 2.0 * float32(width))
	if lit > width {
		lit = width
	}
	bar := make([]byte, 0, width*24)
	for i := 0; i < width; i++ {
		if i < lit {
			c := LevelColor(float32(i) / float32(width) * 2.0)
			bar = append(bar, fmt.Sprintf("\033[38;2;%d;%d;%dm█", c.R, c.G, c.B)...)
		} else {
			bar = append(bar, "\033[38;2;60;60;60m·"...)
		}
	}
	bar = append(bar, "\033[0m"...)
	return string(bar)
}

func runPlay(driver *AudioOutputDriver, format AudioFormat, seconds float64) error {
	handles, err := attachDemoTracks(driver, format.SampleRate)
	if err != nil {
		return err
	}
	if err := driver.Start(); err != nil {
		return err
	}

	tty := stdoutIsTTY()
	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if !tty {
			continue
		}
		fmt.Print("\033[2K\r")
		for _, h := range handles {
			snap := driver.ReadPeaks(h)
			fmt.Printf("%-6s %s  ", h.Name(), meterBar(snap.Smoothed, 16))
		}
	}
	if tty {
		fmt.Println()
	}

	if err := driver.Stop(); err != nil {
		return err
	}
	fmt.Println(statsSummary(driver.ReadStats()))
	return nil
}

// statsSummary renders one driver stats line for the play loop and the
// visualizer overlay.
func statsSummary(stats LatencyStats) string {
	return fmt.Sprintf("callbacks=%d mean=%.0fus jitter=%dus class=%s",
		stats.CallbackCount, stats.MeanIntervalUS, stats.JitterUS(),
		ClassificationName(stats.Classification))
}

func runBench(backend int, sampleRate int, seconds float64) error {
	config := DefaultHarnessConfig()
	config.Backend = backend
	config.SampleRate = sampleRate
	if seconds > 0 {
		config.Duration = time.Duration(seconds * float64(time.Second))
	}

	fmt.Printf("Measuring callback latency on %s backend, %d Hz, %v per buffer size...\n\n",
		BackendName(backend), config.SampleRate, config.Duration)

	results, err := RunLatencyHarness(config)
	if err != nil {
		return err
	}
	WriteLatencyTable(os.Stdout, results)
	return nil
}

func runVisual(driver *AudioOutputDriver, format AudioFormat) error {
	if _, err := attachDemoTracks(driver, format.SampleRate); err != nil {
		return err
	}
	if err := driver.Start(); err != nil {
		return err
	}

	engine := NewParticleEngine(DefaultParticleConfig())
	view, err := NewVisualOutput(VISUAL_BACKEND_EBITEN, driver, engine, VisualConfig{
		Title: "Intuition Studio",
		StatsText: func() string {
			return statsSummary(driver.ReadStats())
		},
	})
	if err != nil {
		return err
	}
	if err := view.Run(); err != nil {
		return err
	}
	return driver.Stop()
}

func main() {
	boilerPlate()

	var (
		modePlay    bool
		modeBench   bool
		modeVisual  bool
		backendName string
		sampleRate  int
		frames      int
		seconds     float64
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&modePlay, "play", false, "Play demo tracks with terminal meters")
	flagSet.BoolVar(&modeBench, "bench", false, "Run the callback latency harness")
	flagSet.BoolVar(&modeVisual, "visual", false, "Play demo tracks with the particle visualiser")
	flagSet.StringVar(&backendName, "backend", "oto", "Audio backend: oto, portaudio or clock")
	flagSet.IntVar(&sampleRate, "rate", 48000, "Sample rate in Hz")
	flagSet.IntVar(&frames, "frames", 512, "Frames per buffer")
	flagSet.Float64Var(&seconds, "duration", 5.0, "Play/bench duration in seconds")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./intuition_studio -play|-bench|-visual [-backend oto] [-rate 48000] [-frames 512] [-duration 5]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	modeCount := 0
	if modePlay {
		modeCount++
	}
	if modeBench {
		modeCount++
	}
	if modeVisual {
		modeCount++
	}
	if modeCount == 0 {
		modePlay = true
		modeCount = 1
	}
	if modeCount != 1 {
		fmt.Println("Error: select exactly one mode flag: -play, -bench or -visual")
		os.Exit(1)
	}

	backend, err := parseBackend(backendName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if modeBench {
		if err := runBench(backend, sampleRate, seconds); err != nil {
			fmt.Printf("Bench failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	config := DefaultDriverConfig()
	config.Backend = backend
	driver := NewAudioOutputDriver(config)

	requested := AudioFormat{
		SampleRate:      sampleRate,
		Channels:        2,
		Encoding:        ENCODING_FLOAT32_LE,
		FramesPerBuffer: frames,
	}
	negotiated, err := driver.Configure(requested)
	if err != nil {
		fmt.Printf("Failed to configure audio: %v\n", err)
		os.Exit(1)
	}
	if negotiated != requested {
		fmt.Printf("Device declined %v, using fallback %v\n", requested, negotiated)
	}
	defer driver.Close()

	if modeVisual {
		err = runVisual(driver, negotiated)
	} else {
		err = runPlay(driver, negotiated, seconds)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
