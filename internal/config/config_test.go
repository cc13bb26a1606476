package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Speech.SampleRate != 16000 {
		t.Fatalf("expected default sample rate 16000, got %d", cfg.Speech.SampleRate)
	}
	if cfg.Translator.TargetLanguage != "hi" {
		t.Fatalf("expected default target language hi, got %q", cfg.Translator.TargetLanguage)
	}
	if cfg.TemplateStore.RetentionMode != "memory" {
		t.Fatalf("expected memory retention mode, got %q", cfg.TemplateStore.RetentionMode)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BHARATWORK_HTTP_PORT", "9000")
	t.Setenv("BHARATWORK_SPEECH_SAMPLE_RATE", "22050")
	t.Setenv("BHARATWORK_SPEECH_VOICE", "hi-IN-warm")
	t.Setenv("BHARATWORK_TRANSLATOR_TARGET_LANGUAGE", "mr")
	t.Setenv("BHARATWORK_TEMPLATE_STORE_RETENTION_MODE", "persistent")
	t.Setenv("BHARATWORK_TEMPLATE_STORE_PATH", "./tmp.db")
	t.Setenv("BHARATWORK_BATCH_MAX_CONCURRENCY", "4")
	t.Setenv("BHARATWORK_BATCH_PAUSE_MS", "250")
	t.Setenv("BHARATWORK_BUS_ENABLED", "true")
	t.Setenv("BHARATWORK_BUS_SERVERS", "nats://one:4222, nats://two:4222")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Speech.SampleRate != 22050 {
		t.Fatalf("expected sample rate override, got %d", cfg.Speech.SampleRate)
	}
	if cfg.Speech.Voice != "hi-IN-warm" {
		t.Fatalf("expected voice override, got %q", cfg.Speech.Voice)
	}
	if cfg.Translator.TargetLanguage != "mr" {
		t.Fatalf("expected target language override, got %q", cfg.Translator.TargetLanguage)
	}
	if cfg.TemplateStore.RetentionMode != "persistent" || cfg.TemplateStore.Path != "./tmp.db" {
		t.Fatalf("expected template store overrides, got %+v", cfg.TemplateStore)
	}
	if cfg.Batch.MaxConcurrency != 4 {
		t.Fatalf("expected concurrency 4, got %d", cfg.Batch.MaxConcurrency)
	}
	if cfg.Batch.PauseMS != 250 {
		t.Fatalf("expected pause 250, got %d", cfg.Batch.PauseMS)
	}
	if !cfg.Bus.Enabled {
		t.Fatal("expected bus enabled override")
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
}

func TestValidateRejectsBadModes(t *testing.T) {
	t.Setenv("BHARATWORK_TRANSLATOR_MODE", "carrier-pigeon")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid translator mode")
	}
}

func TestValidateRequiresEndpointForHTTPMode(t *testing.T) {
	t.Setenv("BHARATWORK_SPEECH_MODE", "http")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when speech endpoint missing in http mode")
	}
}
