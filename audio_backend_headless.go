//go:build headless

// audio_backend_headless.go - Inert OtoPlayer stand-in for headless builds

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionStudio
License: GPLv3 or later
*/

package main

// OtoPlayer under the headless tag accepts any format and produces no
// callbacks. Builds that need a driving device use AUDIO_BACKEND_CLOCK.
type OtoPlayer struct {
	format AudioFormat
}

func NewOtoPlayer(format AudioFormat, render RenderFunc) (*OtoPlayer, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &OtoPlayer{format: format}, nil
}

func (op *OtoPlayer) Format() AudioFormat { return op.format }

func (op *OtoPlayer) Start() error { return nil }

func (op *OtoPlayer) Stop() error { return nil }

func (op *OtoPlayer) Close() error { return nil }
