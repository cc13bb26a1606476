package templatestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/audio"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func memStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), config.TemplateStoreConfig{RetentionMode: "memory"}, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func identity(text string) Identity {
	return Identity{
		Kind:       "static",
		Slot:       "greeting",
		Text:       text,
		Language:   "hi",
		Model:      "facebook/mms-tts-hin",
		Voice:      "hi-IN",
		SampleRate: 16000,
		Channels:   1,
	}
}

func fakeSynth(calls *atomic.Int64) func(context.Context) (*audio.Buffer, error) {
	return func(context.Context) (*audio.Buffer, error) {
		calls.Add(1)
		return audio.Silence(100*time.Millisecond, 16000, 1), nil
	}
}

func TestGetOrCreateSynthesizesOnce(t *testing.T) {
	s := memStore(t)
	var calls atomic.Int64

	for i := 0; i < 3; i++ {
		if _, err := s.GetOrCreate(context.Background(), identity("Hello"), fakeSynth(&calls)); err != nil {
			t.Fatalf("get or create: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", calls.Load())
	}
}

func TestConfigChangeProducesCacheMiss(t *testing.T) {
	s := memStore(t)
	var calls atomic.Int64

	id := identity("Hello")
	if _, err := s.GetOrCreate(context.Background(), id, fakeSynth(&calls)); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	id.SampleRate = 22050
	if _, err := s.GetOrCreate(context.Background(), id, fakeSynth(&calls)); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected sample rate change to miss, got %d calls", calls.Load())
	}
}

func TestTextNormalizationSharesKey(t *testing.T) {
	a := identity("Hello  World").Key()
	b := identity("hello world").Key()
	if a != b {
		t.Fatal("expected normalized texts to share a cache key")
	}
}

func TestKindIsPartOfIdentity(t *testing.T) {
	a := identity("Hello")
	b := identity("Hello")
	b.Kind = "variable"
	if a.Key() == b.Key() {
		t.Fatal("expected phrase kind to affect the cache key")
	}
}

func TestSynthesisErrorIsNotCached(t *testing.T) {
	s := memStore(t)
	var calls atomic.Int64

	boom := errors.New("model unavailable")
	_, err := s.GetOrCreate(context.Background(), identity("Hello"), func(context.Context) (*audio.Buffer, error) {
		calls.Add(1)
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected synthesis error to propagate, got %v", err)
	}

	if _, err := s.GetOrCreate(context.Background(), identity("Hello"), fakeSynth(&calls)); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected failed key to retry synthesis, got %d calls", calls.Load())
	}
}

func TestConcurrentCallersSameKeySynthesizeOnce(t *testing.T) {
	s := memStore(t)
	var calls atomic.Int64
	slowSynth := func(context.Context) (*audio.Buffer, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return audio.Silence(50*time.Millisecond, 16000, 1), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.GetOrCreate(context.Background(), identity("Hello"), slowSynth); err != nil {
				t.Errorf("get or create: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected a single synthesis under contention, got %d", calls.Load())
	}
}

func TestPersistFailureIsNonFatal(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.TemplateStoreConfig{Path: filepath.Join(tmp, "templates.db"), RetentionMode: "persistent"}

	s, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	// Break the persistent backend so load and persist both fail.
	if err := s.db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	var calls atomic.Int64
	buf, err := s.GetOrCreate(context.Background(), identity("Hello"), fakeSynth(&calls))
	if err != nil {
		t.Fatalf("expected cache write failure to be non-fatal, got %v", err)
	}
	if buf == nil || buf.Frames() == 0 {
		t.Fatal("expected synthesized buffer despite broken backend")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", calls.Load())
	}

	// The in-memory copy still serves later lookups.
	if _, err := s.GetOrCreate(context.Background(), identity("Hello"), fakeSynth(&calls)); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected memory hit after failed persist, got %d calls", calls.Load())
	}
}

func TestPersistentStoreSurvivesReopen(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.TemplateStoreConfig{Path: filepath.Join(tmp, "templates.db"), RetentionMode: "persistent"}
	var calls atomic.Int64

	s1, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := s1.GetOrCreate(context.Background(), identity("Hello"), fakeSynth(&calls)); err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = s2.Close() })

	buf, err := s2.GetOrCreate(context.Background(), identity("Hello"), fakeSynth(&calls))
	if err != nil {
		t.Fatalf("get or create after reopen: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected reopen to load from disk without synthesis, got %d calls", calls.Load())
	}
	if buf.SampleRate != 16000 || buf.Frames() == 0 {
		t.Fatalf("unexpected loaded buffer: rate=%d frames=%d", buf.SampleRate, buf.Frames())
	}
}
