package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zenitsu0509/bharatwork-tts-backend/internal/config"
	"github.com/zenitsu0509/bharatwork-tts-backend/internal/fault"
)

type httpTranslator struct {
	endpoint string
	source   string
	target   string
	client   *http.Client
}

// NewHTTPTranslator talks to a gtx-style translate endpoint that
// returns the nested-array payload Google's unofficial API emits.
func NewHTTPTranslator(cfg config.TranslatorConfig) Translator {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpTranslator{
		endpoint: cfg.Endpoint,
		source:   cfg.SourceLanguage,
		target:   cfg.TargetLanguage,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *httpTranslator) Translate(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fault.New(fault.Validation, "input text is empty")
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", t.source)
	params.Set("tl", t.target)
	params.Set("dt", "t")
	params.Set("q", trimmed)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fault.Wrap(fault.Translation, err, "build translate request")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.Translation, err, "translate request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fault.New(fault.Translation, "translate endpoint returned status %s", resp.Status)
	}

	var payload []any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fault.Wrap(fault.Translation, err, "decode translate response")
	}

	translated, err := extractTranslation(payload)
	if err != nil {
		return "", fault.Wrap(fault.Translation, err, "parse translate response")
	}
	if strings.TrimSpace(translated) == "" {
		return "", fault.New(fault.Translation, "translate endpoint returned empty result")
	}
	return strings.TrimSpace(translated), nil
}

// extractTranslation walks [[["<translated>", "<source>", ...], ...], ...]
// and joins the sentence fragments in order.
func extractTranslation(payload []any) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("empty payload")
	}
	sentences, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected payload shape")
	}
	var sb strings.Builder
	for _, s := range sentences {
		fragment, ok := s.([]any)
		if !ok || len(fragment) == 0 {
			continue
		}
		if text, ok := fragment[0].(string); ok {
			sb.WriteString(text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no translated fragments in payload")
	}
	return sb.String(), nil
}
