package assemble

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/audio"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/script"
)

// Assembler executes a segment plan into a single merged buffer.
type Assembler struct {
	resolver   *Resolver
	sampleRate int
	channels   int
	log        *slog.Logger
}

func NewAssembler(resolver *Resolver, sampleRate, channels int, log *slog.Logger) *Assembler {
	return &Assembler{
		resolver:   resolver,
		sampleRate: sampleRate,
		channels:   channels,
		log:        log.With(slog.String("component", "assembler")),
	}
}

// Assemble resolves every segment in order and concatenates phrase
// audio with trailing silence. Any segment failure aborts the whole
// record; partial audio is never returned.
func (a *Assembler) Assemble(ctx context.Context, plan []script.Segment) (*audio.Buffer, error) {
	if len(plan) == 0 {
		return nil, fault.New(fault.Assembly, "empty segment plan")
	}

	parts := make([]*audio.Buffer, 0, len(plan)*2)
	for i, seg := range plan {
		buf, err := a.resolver.Resolve(ctx, seg.Phrase)
		if err != nil {
			return nil, fmt.Errorf("segment %d (%s %q): %w", i, seg.Phrase.Slot, seg.Phrase.Text, err)
		}
		parts = append(parts, buf)
		if seg.TrailingSilence > 0 && i < len(plan)-1 {
			parts = append(parts, audio.Silence(seg.TrailingSilence, a.sampleRate, a.channels))
		}
	}

	merged, err := audio.Concat(parts...)
	if err != nil {
		return nil, fault.Wrap(fault.Assembly, err, "concatenate segments")
	}
	a.log.Debug("assembled plan",
		slog.Int("segments", len(plan)),
		slog.Duration("duration", merged.Duration()))
	return merged, nil
}
