package audio

import (
	"bytes"
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// DecodeWAV parses WAV bytes into a PCM buffer.
func DecodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav payload")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if pcm.Format == nil {
		return nil, fmt.Errorf("wav payload missing format")
	}
	samples := make([]int, len(pcm.Data))
	copy(samples, pcm.Data)
	return &Buffer{
		Data:       samples,
		SampleRate: pcm.Format.SampleRate,
		Channels:   pcm.Format.NumChannels,
	}, nil
}

// EncodeWAV renders the buffer as a 16-bit PCM WAV file in memory.
func EncodeWAV(b *Buffer) ([]byte, error) {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return nil, fmt.Errorf("buffer missing sample rate or channels")
	}
	ws := &writeSeekBuffer{}
	enc := wav.NewEncoder(ws, b.SampleRate, bitDepth, b.Channels, 1)
	pcm := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: b.Channels, SampleRate: b.SampleRate},
		Data:           b.Data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return nil, fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav encoder: %w", err)
	}
	return ws.buf, nil
}

// writeSeekBuffer satisfies the encoder's io.WriteSeeker without
// touching the filesystem; merged audio never hits disk until a sink
// decides to persist it.
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = w.pos + int(offset)
	case io.SeekEnd:
		next = len(w.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	w.pos = next
	return int64(next), nil
}
