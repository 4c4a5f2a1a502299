//go:build !portaudio || headless

// audio_backend_portaudio_stub.go - Placeholder when built without portaudio

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

import "fmt"

type PortAudioPlayer struct{}

func NewPortAudioPlayer(format AudioFormat, render RenderFunc) (*PortAudioPlayer, error) {
	return nil, fmt.Errorf("%w: built without portaudio support", ErrDeviceMissing)
}

func (pp *PortAudioPlayer) Format() AudioFormat { return AudioFormat{} }

func (pp *PortAudioPlayer) Start() error { return ErrInvalidState }

func (pp *PortAudioPlayer) Stop() error { return ErrInvalidState }

func (pp *PortAudioPlayer) Close() error { return nil }
