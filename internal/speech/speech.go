// Package speech defines the speech-input and speech-output capabilities the
// practice flows depend on, plus text-stream implementations used by the CLI.
package speech

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by a capability the host cannot provide.
var ErrUnsupported = errors.New("speech capability not supported")

// Default utterance settings.
const (
	DefaultLang   = "en-US"
	DefaultRate   = 0.9
	DefaultPitch  = 1.0
	DefaultVolume = 1.0
)

// ListenConfig configures one capture.
type ListenConfig struct {
	Lang string

	// OnInterim, when set, receives partial transcripts as they arrive
	// along with the final text gathered so far.
	OnInterim func(interim, final string)
}

// SpeakConfig configures one utterance. Zero fields take the defaults.
type SpeakConfig struct {
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// WithDefaults fills zero fields of c.
func (c SpeakConfig) WithDefaults() SpeakConfig {
	if c.Lang == "" {
		c.Lang = DefaultLang
	}
	if c.Rate == 0 {
		c.Rate = DefaultRate
	}
	if c.Pitch == 0 {
		c.Pitch = DefaultPitch
	}
	if c.Volume == 0 {
		c.Volume = DefaultVolume
	}
	return c
}

// WithDefaults fills zero fields of c.
func (c ListenConfig) WithDefaults() ListenConfig {
	if c.Lang == "" {
		c.Lang = DefaultLang
	}
	return c
}

// Listener captures one spoken transcript. A capture that hears nothing
// returns "" and no error.
type Listener interface {
	Listen(ctx context.Context, cfg ListenConfig) (string, error)
}

// Speaker renders text as speech and returns when it finishes.
type Speaker interface {
	Speak(ctx context.Context, text string, cfg SpeakConfig) error
}

// Unsupported is a Listener and Speaker for hosts without speech support.
type Unsupported struct{}

func (Unsupported) Listen(context.Context, ListenConfig) (string, error) {
	return "", ErrUnsupported
}

func (Unsupported) Speak(context.Context, string, SpeakConfig) error {
	return ErrUnsupported
}
