package synth

import (
	"context"
	"fmt"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
)

// Synthesizer turns target-language text into encoded WAV bytes at the
// configured voice and sample rate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// FromConfig builds a synthesizer for the configured mode.
func FromConfig(cfg config.SpeechConfig) (Synthesizer, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockSynthesizer(cfg.SampleRate, cfg.Channels), nil
	case "http":
		return NewHTTPSynthesizer(cfg), nil
	case "exec":
		return NewExecSynthesizer(cfg)
	default:
		return nil, fmt.Errorf("unknown speech mode %q", cfg.Mode)
	}
}
