// Package assemble resolves planned segments to PCM buffers and merges
// them into one call recording.
package assemble

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/audio"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/script"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/synth"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/templatestore"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/translate"
)

// Resolver turns one phrase into a decoded buffer at the configured
// sample rate. Static phrases go through the template store; variable
// phrases are synthesized fresh every time, since caching per-record
// text would grow the shared store without ever hitting.
type Resolver struct {
	speech     config.SpeechConfig
	language   string
	translator translate.Translator
	synth      synth.Synthesizer
	store      *templatestore.Store
	log        *slog.Logger

	synthLatency metric.Float64Histogram
}

func NewResolver(speech config.SpeechConfig, language string, tr translate.Translator, sy synth.Synthesizer, store *templatestore.Store, log *slog.Logger) *Resolver {
	r := &Resolver{
		speech:     speech,
		language:   language,
		translator: tr,
		synth:      sy,
		store:      store,
		log:        log.With(slog.String("component", "resolver")),
	}
	meter := otel.Meter("github.com/zenitsu0509/bharatwork-tts-backend/assemble")
	if h, err := meter.Float64Histogram("bharatwork.synthesis.duration_ms", metric.WithDescription("Wall time per synthesis call")); err == nil {
		r.synthLatency = h
	}
	return r
}

// Resolve produces the buffer for a phrase.
func (r *Resolver) Resolve(ctx context.Context, phrase script.Phrase) (*audio.Buffer, error) {
	if phrase.Kind == script.Static {
		id := templatestore.Identity{
			Kind:       string(phrase.Kind),
			Slot:       phrase.Slot,
			Text:       phrase.Text,
			Language:   r.language,
			Model:      r.speech.Model,
			Voice:      r.speech.Voice,
			SampleRate: r.speech.SampleRate,
			Channels:   r.speech.Channels,
		}
		return r.store.GetOrCreate(ctx, id, func(ctx context.Context) (*audio.Buffer, error) {
			return r.render(ctx, phrase.Text)
		})
	}
	return r.render(ctx, phrase.Text)
}

// TranslateAndSynthesize runs the single-phrase pipeline and returns
// both the translated text and the encoded audio.
func (r *Resolver) TranslateAndSynthesize(ctx context.Context, text string) (string, []byte, error) {
	translated, err := r.translator.Translate(ctx, text)
	if err != nil {
		return "", nil, err
	}
	start := time.Now()
	encoded, err := r.synth.Synthesize(ctx, translated)
	if r.synthLatency != nil {
		r.synthLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	if err != nil {
		return "", nil, err
	}
	return translated, encoded, nil
}

// render translates, synthesizes and decodes one phrase, normalizing
// the result to the configured sample rate.
func (r *Resolver) render(ctx context.Context, text string) (*audio.Buffer, error) {
	translated, err := r.translator.Translate(ctx, text)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	encoded, err := r.synth.Synthesize(ctx, translated)
	if r.synthLatency != nil {
		r.synthLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	if err != nil {
		return nil, err
	}
	buf, err := audio.DecodeWAV(encoded)
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "decode synthesized audio")
	}
	if buf.Channels != r.speech.Channels {
		return nil, fault.New(fault.Assembly, "synthesized audio has %d channels, expected %d", buf.Channels, r.speech.Channels)
	}
	if buf.SampleRate != r.speech.SampleRate {
		resampled, err := audio.Resample(buf, r.speech.SampleRate)
		if err != nil {
			return nil, fault.Wrap(fault.Assembly, err, "resample synthesized audio")
		}
		buf = resampled
	}
	return buf, nil
}
