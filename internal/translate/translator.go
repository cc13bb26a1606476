package translate

import (
	"context"
	"fmt"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
)

// Translator converts source-language text into the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// FromConfig builds a translator for the configured mode.
func FromConfig(cfg config.TranslatorConfig) (Translator, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockTranslator(cfg.TargetLanguage), nil
	case "http":
		return NewHTTPTranslator(cfg), nil
	case "exec":
		return NewExecTranslator(cfg)
	default:
		return nil, fmt.Errorf("unknown translator mode %q", cfg.Mode)
	}
}
