package translate

import (
	"context"
	"strings"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

type mockTranslator struct {
	target string
}

// NewMockTranslator returns a deterministic offline translator used in
// development and tests.
func NewMockTranslator(target string) Translator {
	return &mockTranslator{target: target}
}

func (m *mockTranslator) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fault.Wrap(fault.Translation, err, "translation cancelled")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fault.New(fault.Validation, "input text is empty")
	}
	return "[" + m.target + "] " + trimmed, nil
}
