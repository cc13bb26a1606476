package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

type httpSynthesizer struct {
	endpoint   string
	model      string
	voice      string
	sampleRate int
	channels   int
	client     *http.Client
}

type httpSynthRequest struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type httpSynthResponse struct {
	AudioContent string `json:"audio_content"`
	Format       string `json:"format"`
}

// NewHTTPSynthesizer posts to an MMS-style serving endpoint that
// returns base64 WAV audio.
func NewHTTPSynthesizer(cfg config.SpeechConfig) Synthesizer {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpSynthesizer{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		voice:      cfg.Voice,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *httpSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fault.New(fault.Validation, "input text for synthesis is empty")
	}

	body, err := json.Marshal(httpSynthRequest{
		Text:       trimmed,
		Model:      s.model,
		Voice:      s.voice,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	})
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "encode synthesis request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "build synthesis request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "synthesis request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fault.New(fault.Synthesis, "speech endpoint returned status %s", resp.Status)
	}

	var payload httpSynthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "decode synthesis response")
	}
	if payload.AudioContent == "" {
		return nil, fault.New(fault.Synthesis, "speech endpoint returned empty audio content")
	}

	decoded, err := base64.StdEncoding.DecodeString(payload.AudioContent)
	if err != nil {
		return nil, fault.Wrap(fault.Synthesis, err, "decode base64 audio content")
	}
	return decoded, nil
}
