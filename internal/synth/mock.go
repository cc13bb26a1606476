package synth

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/audio"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

type mockSynthesizer struct {
	sampleRate int
	channels   int
}

// NewMockSynthesizer produces a deterministic tone per input text so
// assembly output is reproducible without a model.
func NewMockSynthesizer(sampleRate, channels int) Synthesizer {
	return &mockSynthesizer{sampleRate: sampleRate, channels: channels}
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "synthesis cancelled")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fault.New(fault.Validation, "input text for synthesis is empty")
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(trimmed))
	seed := h.Sum32()

	// Pitch and length derive from the text so distinct phrases yield
	// distinct, stable waveforms.
	freq := 120.0 + float64(seed%400)
	durationMS := 150 + 20*len([]rune(trimmed))
	frames := m.sampleRate * durationMS / 1000

	data := make([]int, frames*m.channels)
	for frame := 0; frame < frames; frame++ {
		sample := int(8000 * math.Sin(2*math.Pi*freq*float64(frame)/float64(m.sampleRate)))
		for ch := 0; ch < m.channels; ch++ {
			data[frame*m.channels+ch] = sample
		}
	}

	encoded, err := audio.EncodeWAV(&audio.Buffer{Data: data, SampleRate: m.sampleRate, Channels: m.channels})
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "encode mock waveform")
	}
	return encoded, nil
}
