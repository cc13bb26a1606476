package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

type execSynthesizer struct {
	cmd        []string
	voice      string
	sampleRate int
	channels   int
	mu         sync.Mutex
}

type execSynthRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type execSynthResponse struct {
	AudioBase64 string `json:"audio_base64"`
}

// NewExecSynthesizer pipes JSON through an external TTS command that
// returns a complete base64 WAV payload.
func NewExecSynthesizer(cfg config.SpeechConfig) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse speech command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("speech command empty")
	}
	return &execSynthesizer{
		cmd:        args,
		voice:      cfg.Voice,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
	}, nil
}

func (s *execSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fault.New(fault.Validation, "input text for synthesis is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	input, err := json.Marshal(execSynthRequest{
		Text:       trimmed,
		Voice:      s.voice,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	})
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "encode synthesis request")
	}

	base := s.cmd[0]
	args := append([]string{}, s.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "speech command failed")
	}

	var resp execSynthResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "decode speech command response")
	}
	if resp.AudioBase64 == "" {
		return nil, fault.New(fault.Synthesis, "speech command returned empty audio")
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.AudioBase64)
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "decode base64 audio")
	}
	return decoded, nil
}
