package assemble

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/audio"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/script"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/templatestore"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubTranslator struct {
	calls atomic.Int64
}

func (s *stubTranslator) Translate(_ context.Context, text string) (string, error) {
	s.calls.Add(1)
	return "hi:" + text, nil
}

// stubSynth returns silence of a per-text duration so concatenation
// lengths are exact.
type stubSynth struct {
	calls      atomic.Int64
	sampleRate int
	durations  map[string]time.Duration
	failOn     string
}

func (s *stubSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	s.calls.Add(1)
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, fault.New(fault.Synthesis, "model rejected %q", text)
	}
	d := 400 * time.Millisecond
	if v, ok := s.durations[strings.TrimPrefix(text, "hi:")]; ok {
		d = v
	}
	return audio.EncodeWAV(audio.Silence(d, s.sampleRate, 1))
}

func speechConfig() config.SpeechConfig {
	return config.SpeechConfig{
		Mode:       "mock",
		Model:      "facebook/mms-tts-hin",
		Voice:      "hi-IN",
		SampleRate: 16000,
		Channels:   1,
	}
}

func newPipeline(t *testing.T, sy *stubSynth) (*stubTranslator, *Assembler, *Resolver) {
	t.Helper()
	tr := &stubTranslator{}
	store, err := templatestore.Open(context.Background(), config.TemplateStoreConfig{RetentionMode: "memory"}, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	resolver := NewResolver(speechConfig(), "hi", tr, sy, store, newLogger())
	assembler := NewAssembler(resolver, 16000, 1, newLogger())
	return tr, assembler, resolver
}

func TestStaticPhraseSynthesizedOnce(t *testing.T) {
	sy := &stubSynth{sampleRate: 16000}
	_, _, resolver := newPipeline(t, sy)

	phrase := script.Phrase{Kind: script.Static, Slot: "greeting", Text: "Hello"}
	for i := 0; i < 3; i++ {
		if _, err := resolver.Resolve(context.Background(), phrase); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	if sy.calls.Load() != 1 {
		t.Fatalf("expected 1 synthesis call for static phrase, got %d", sy.calls.Load())
	}
}

func TestVariablePhraseAlwaysSynthesized(t *testing.T) {
	sy := &stubSynth{sampleRate: 16000}
	_, _, resolver := newPipeline(t, sy)

	for _, name := range []string{"Asha", "Ravi", "Asha"} {
		phrase := script.Phrase{Kind: script.Variable, Slot: "name", Text: name}
		if _, err := resolver.Resolve(context.Background(), phrase); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	if sy.calls.Load() != 3 {
		t.Fatalf("expected 3 synthesis calls for variable phrases, got %d", sy.calls.Load())
	}
}

func TestAssembleDurationAndOrder(t *testing.T) {
	sy := &stubSynth{
		sampleRate: 16000,
		durations: map[string]time.Duration{
			"Hello": 500 * time.Millisecond,
			"Asha":  700 * time.Millisecond,
		},
	}
	_, assembler, _ := newPipeline(t, sy)

	plan := []script.Segment{
		{Phrase: script.Phrase{Kind: script.Static, Slot: "greeting", Text: "Hello"}, TrailingSilence: 300 * time.Millisecond},
		{Phrase: script.Phrase{Kind: script.Variable, Slot: "name", Text: "Asha"}},
	}
	merged, err := assembler.Assemble(context.Background(), plan)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if merged.Duration() != 1500*time.Millisecond {
		t.Fatalf("expected 1500ms output, got %v", merged.Duration())
	}
}

func TestAssembleIdempotent(t *testing.T) {
	sy := &stubSynth{sampleRate: 16000}
	_, assembler, _ := newPipeline(t, sy)

	plan := []script.Segment{
		{Phrase: script.Phrase{Kind: script.Static, Slot: "greeting", Text: "Hello"}, TrailingSilence: 300 * time.Millisecond},
		{Phrase: script.Phrase{Kind: script.Variable, Slot: "name", Text: "Asha"}},
	}
	a, err := assembler.Assemble(context.Background(), plan)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	b, err := assembler.Assemble(context.Background(), plan)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(a.Data) != len(b.Data) {
		t.Fatalf("sample counts differ: %d != %d", len(a.Data), len(b.Data))
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("sample %d differs", i)
		}
	}
}

func TestAssembleFailureNamesSegment(t *testing.T) {
	sy := &stubSynth{sampleRate: 16000, failOn: "Asha"}
	_, assembler, _ := newPipeline(t, sy)

	plan := []script.Segment{
		{Phrase: script.Phrase{Kind: script.Static, Slot: "greeting", Text: "Hello"}, TrailingSilence: 300 * time.Millisecond},
		{Phrase: script.Phrase{Kind: script.Variable, Slot: "name", Text: "Asha"}},
	}
	_, err := assembler.Assemble(context.Background(), plan)
	if err == nil {
		t.Fatal("expected assembly to fail")
	}
	if !strings.Contains(err.Error(), "segment 1") || !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected segment index and slot in error, got %q", err.Error())
	}
	if !fault.Is(err, fault.Synthesis) {
		t.Fatalf("expected synthesis fault in chain, got %v", err)
	}
}

func TestAssembleEmptyPlanFails(t *testing.T) {
	sy := &stubSynth{sampleRate: 16000}
	_, assembler, _ := newPipeline(t, sy)
	_, err := assembler.Assemble(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for empty plan")
	}
	if fault.KindOf(err) != fault.Assembly {
		t.Fatalf("expected assembly fault, got %v", fault.KindOf(err))
	}
}

func TestResolverResamplesMismatchedRate(t *testing.T) {
	// Synthesizer emits 8kHz audio while the pipeline runs at 16kHz.
	sy := &stubSynth{sampleRate: 8000, durations: map[string]time.Duration{"Hello": 500 * time.Millisecond}}
	_, _, resolver := newPipeline(t, sy)

	buf, err := resolver.Resolve(context.Background(), script.Phrase{Kind: script.Variable, Slot: "greeting", Text: "Hello"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if buf.SampleRate != 16000 {
		t.Fatalf("expected resampled rate 16000, got %d", buf.SampleRate)
	}
	if buf.Duration() != 500*time.Millisecond {
		t.Fatalf("expected 500ms after resample, got %v", buf.Duration())
	}
}
