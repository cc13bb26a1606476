package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

type execTranslator struct {
	cmd    []string
	source string
	target string
	mu     sync.Mutex
}

type execTranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type execTranslateResponse struct {
	Translated string `json:"translated"`
}

// NewExecTranslator pipes JSON through an external translator command.
func NewExecTranslator(cfg config.TranslatorConfig) (Translator, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse translator command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("translator command empty")
	}
	return &execTranslator{cmd: args, source: cfg.SourceLanguage, target: cfg.TargetLanguage}, nil
}

func (t *execTranslator) Translate(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fault.New(fault.Validation, "input text is empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	input, err := json.Marshal(execTranslateRequest{Text: trimmed, Source: t.source, Target: t.target})
	if err != nil {
		return "", fault.Wrap(fault.Translation, err, "encode translator request")
	}

	base := t.cmd[0]
	args := append([]string{}, t.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	cmd.Stdin = bytes.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		return "", fault.Wrap(fault.Translation, err, "translator command failed")
	}

	var resp execTranslateResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", fault.Wrap(fault.Translation, err, "decode translator response")
	}
	if strings.TrimSpace(resp.Translated) == "" {
		return "", fault.New(fault.Translation, "translator command returned empty result")
	}
	return strings.TrimSpace(resp.Translated), nil
}
