package audio

import (
	"errors"
	"fmt"
	"time"
)

// Buffer holds decoded PCM audio as interleaved 16-bit samples.
type Buffer struct {
	Data       []int
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]int, len(b.Data))
	copy(data, b.Data)
	return &Buffer{Data: data, SampleRate: b.SampleRate, Channels: b.Channels}
}

// Silence produces a zero-valued buffer of the given duration.
func Silence(d time.Duration, sampleRate, channels int) *Buffer {
	frames := int(d * time.Duration(sampleRate) / time.Second)
	return &Buffer{
		Data:       make([]int, frames*channels),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Concat joins buffers in order. All inputs must share the same sample
// rate and channel count; resampling happens before concatenation, not
// here.
func Concat(buffers ...*Buffer) (*Buffer, error) {
	if len(buffers) == 0 {
		return nil, errors.New("no buffers to concatenate")
	}
	rate := buffers[0].SampleRate
	channels := buffers[0].Channels
	total := 0
	for i, b := range buffers {
		if b.SampleRate != rate {
			return nil, fmt.Errorf("buffer %d sample rate %d does not match %d", i, b.SampleRate, rate)
		}
		if b.Channels != channels {
			return nil, fmt.Errorf("buffer %d channel count %d does not match %d", i, b.Channels, channels)
		}
		total += len(b.Data)
	}
	out := make([]int, 0, total)
	for _, b := range buffers {
		out = append(out, b.Data...)
	}
	return &Buffer{Data: out, SampleRate: rate, Channels: channels}, nil
}

// Resample converts the buffer to the target sample rate using linear
// interpolation per channel. Returns the input unchanged when rates
// already match.
func Resample(b *Buffer, targetRate int) (*Buffer, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("invalid target sample rate %d", targetRate)
	}
	if b.SampleRate == targetRate {
		return b, nil
	}
	srcFrames := b.Frames()
	if srcFrames == 0 {
		return &Buffer{SampleRate: targetRate, Channels: b.Channels}, nil
	}
	dstFrames := int(int64(srcFrames) * int64(targetRate) / int64(b.SampleRate))
	if dstFrames == 0 {
		dstFrames = 1
	}
	out := make([]int, dstFrames*b.Channels)
	denom := dstFrames - 1
	if denom < 1 {
		denom = 1
	}
	ratio := float64(srcFrames-1) / float64(denom)
	for frame := 0; frame < dstFrames; frame++ {
		pos := float64(frame) * ratio
		i0 := int(pos)
		i1 := i0 + 1
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		frac := pos - float64(i0)
		for ch := 0; ch < b.Channels; ch++ {
			s0 := float64(b.Data[i0*b.Channels+ch])
			s1 := float64(b.Data[i1*b.Channels+ch])
			out[frame*b.Channels+ch] = int(s0 + (s1-s0)*frac)
		}
	}
	return &Buffer{Data: out, SampleRate: targetRate, Channels: b.Channels}, nil
}
