// Package templatestore caches synthesized static-phrase audio keyed
// by phrase identity so a batch synthesizes each script phrase once.
package templatestore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	_ "modernc.org/sqlite"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/audio"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

// Identity is the cache key for one synthesized template. It embeds
// the phrase kind and the full voice configuration so a config change
// produces misses instead of stale hits.
type Identity struct {
	Kind       string
	Slot       string
	Text       string
	Language   string
	Model      string
	Voice      string
	SampleRate int
	Channels   int
}

// Key returns a stable digest of the identity.
func (id Identity) Key() string {
	normalized := strings.Join(strings.Fields(strings.ToLower(id.Text)), " ")
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d|%d", id.Kind, normalized, id.Language, id.Model, id.Voice, id.SampleRate, id.Channels)
	return hex.EncodeToString(h.Sum(nil))
}

type inflight struct {
	done chan struct{}
	buf  *audio.Buffer
	err  error
}

// Store holds templates in memory for the process lifetime, optionally
// backed by SQLite so templates survive restarts.
type Store struct {
	db    *sql.DB
	cfg   config.TemplateStoreConfig
	log   *slog.Logger
	clock func() time.Time

	mu      sync.Mutex
	mem     map[string]*audio.Buffer
	pending map[string]*inflight

	hitCtr  metric.Int64Counter
	missCtr metric.Int64Counter
}

// Open initializes the template store according to config.
func Open(ctx context.Context, cfg config.TemplateStoreConfig, log *slog.Logger) (*Store, error) {
	s := &Store{
		cfg:     cfg,
		log:     log.With(slog.String("component", "template-store")),
		clock:   time.Now,
		mem:     make(map[string]*audio.Buffer),
		pending: make(map[string]*inflight),
	}
	meter := otel.Meter("github.com/zenitsu0509/bharatwork-tts-backend/templatestore")
	if ctr, err := meter.Int64Counter("bharatwork.templates.cache.hits", metric.WithDescription("Template cache hits")); err == nil {
		s.hitCtr = ctr
	}
	if ctr, err := meter.Int64Counter("bharatwork.templates.cache.misses", metric.WithDescription("Template cache misses")); err == nil {
		s.missCtr = ctr
	}
	if cfg.RetentionMode != "persistent" {
		return s, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s.db = db

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS templates (
    key TEXT PRIMARY KEY,
    slot TEXT,
    text TEXT,
    sample_rate INTEGER NOT NULL,
    channels INTEGER NOT NULL,
    wav BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetOrCreate returns the cached buffer for the identity, loading it
// from the persistent backend or invoking synthesize on a miss. At
// most one synthesis runs per key at a time: concurrent callers for
// the same key wait for the first result. A synthesis error is never
// cached. A persistence write failure is logged and the freshly
// synthesized buffer is still returned.
func (s *Store) GetOrCreate(ctx context.Context, id Identity, synthesize func(context.Context) (*audio.Buffer, error)) (*audio.Buffer, error) {
	key := id.Key()

	s.mu.Lock()
	if buf, ok := s.mem[key]; ok {
		s.mu.Unlock()
		if s.hitCtr != nil {
			s.hitCtr.Add(ctx, 1)
		}
		return buf, nil
	}
	if call, ok := s.pending[key]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.buf, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflight{done: make(chan struct{})}
	s.pending[key] = call
	s.mu.Unlock()

	if s.missCtr != nil {
		s.missCtr.Add(ctx, 1)
	}

	buf, err := s.resolve(ctx, key, id, synthesize)
	call.buf, call.err = buf, err

	s.mu.Lock()
	if err == nil {
		s.mem[key] = buf
	}
	delete(s.pending, key)
	s.mu.Unlock()
	close(call.done)

	return buf, err
}

func (s *Store) resolve(ctx context.Context, key string, id Identity, synthesize func(context.Context) (*audio.Buffer, error)) (*audio.Buffer, error) {
	if buf, ok := s.load(ctx, key); ok {
		return buf, nil
	}

	buf, err := synthesize(ctx)
	if err != nil {
		return nil, err
	}

	if s.db != nil {
		if err := s.persist(ctx, key, id, buf); err != nil {
			s.log.Warn("template cache write failed",
				slog.String("slot", id.Slot),
				slog.String("error", fault.Wrap(fault.Storage, err, "persist template").Error()))
		}
	}
	return buf, nil
}

func (s *Store) load(ctx context.Context, key string) (*audio.Buffer, bool) {
	if s.db == nil {
		return nil, false
	}
	var wavBytes []byte
	err := s.db.QueryRowContext(ctx, `SELECT wav FROM templates WHERE key = ?`, key).Scan(&wavBytes)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.log.Warn("template cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	buf, err := audio.DecodeWAV(wavBytes)
	if err != nil {
		s.log.Warn("cached template undecodable, regenerating", slog.String("error", err.Error()))
		return nil, false
	}
	return buf, true
}

func (s *Store) persist(ctx context.Context, key string, id Identity, buf *audio.Buffer) error {
	wavBytes, err := audio.EncodeWAV(buf)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates(key, slot, text, sample_rate, channels, wav, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET wav=excluded.wav, created_at=excluded.created_at`,
		key, id.Slot, id.Text, buf.SampleRate, buf.Channels, wavBytes, s.clock().UTC())
	return err
}

// Len reports the number of templates held in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mem)
}
