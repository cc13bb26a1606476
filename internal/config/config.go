package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type TranslatorConfig struct {
	Mode           string `yaml:"mode"` // mock, http, exec
	Endpoint       string `yaml:"endpoint"`
	Command        string `yaml:"command"`
	SourceLanguage string `yaml:"source_language"`
	TargetLanguage string `yaml:"target_language"`
	TimeoutMS      int    `yaml:"timeout_ms"`
}

type SpeechConfig struct {
	Mode       string `yaml:"mode"` // mock, http, exec
	Endpoint   string `yaml:"endpoint"`
	Command    string `yaml:"command"`
	Model      string `yaml:"model"`
	Voice      string `yaml:"voice"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

type TemplateStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"` // memory, persistent
}

type BatchConfig struct {
	MaxConcurrency int    `yaml:"max_concurrency"`
	PauseMS        int    `yaml:"pause_ms"`
	OutputDir      string `yaml:"output_dir"`
}

type Config struct {
	ServiceName   string              `yaml:"service_name"`
	Environment   string              `yaml:"environment"`
	HTTP          HTTPConfig          `yaml:"http"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Bus           BusConfig           `yaml:"bus"`
	Translator    TranslatorConfig    `yaml:"translator"`
	Speech        SpeechConfig        `yaml:"speech"`
	TemplateStore TemplateStoreConfig `yaml:"template_store"`
	Batch         BatchConfig         `yaml:"batch"`
}

func Default() Config {
	return Config{
		ServiceName: "bharatwork-tts",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Translator: TranslatorConfig{
			Mode:           "mock",
			SourceLanguage: "en",
			TargetLanguage: "hi",
			TimeoutMS:      15000,
		},
		Speech: SpeechConfig{
			Mode:       "mock",
			Model:      "facebook/mms-tts-hin",
			Voice:      "hi-IN",
			SampleRate: 16000,
			Channels:   1,
			TimeoutMS:  60000,
		},
		TemplateStore: TemplateStoreConfig{
			Path:          "./data/templates.db",
			RetentionMode: "memory",
		},
		Batch: BatchConfig{
			MaxConcurrency: 1,
			PauseMS:        300,
			OutputDir:      "./generated_audio",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "BHARATWORK_SERVICE_NAME")
	overrideString(&cfg.Environment, "BHARATWORK_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "BHARATWORK_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "BHARATWORK_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "BHARATWORK_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "BHARATWORK_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "BHARATWORK_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Enabled, "BHARATWORK_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "BHARATWORK_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "BHARATWORK_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "BHARATWORK_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "BHARATWORK_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "BHARATWORK_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "BHARATWORK_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "BHARATWORK_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "BHARATWORK_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Translator.Mode, "BHARATWORK_TRANSLATOR_MODE")
	overrideString(&cfg.Translator.Endpoint, "BHARATWORK_TRANSLATOR_ENDPOINT")
	overrideString(&cfg.Translator.Command, "BHARATWORK_TRANSLATOR_COMMAND")
	overrideString(&cfg.Translator.SourceLanguage, "BHARATWORK_TRANSLATOR_SOURCE_LANGUAGE")
	overrideString(&cfg.Translator.TargetLanguage, "BHARATWORK_TRANSLATOR_TARGET_LANGUAGE")
	overrideInt(&cfg.Translator.TimeoutMS, "BHARATWORK_TRANSLATOR_TIMEOUT_MS")
	overrideString(&cfg.Speech.Mode, "BHARATWORK_SPEECH_MODE")
	overrideString(&cfg.Speech.Endpoint, "BHARATWORK_SPEECH_ENDPOINT")
	overrideString(&cfg.Speech.Command, "BHARATWORK_SPEECH_COMMAND")
	overrideString(&cfg.Speech.Model, "BHARATWORK_SPEECH_MODEL")
	overrideString(&cfg.Speech.Voice, "BHARATWORK_SPEECH_VOICE")
	overrideInt(&cfg.Speech.SampleRate, "BHARATWORK_SPEECH_SAMPLE_RATE")
	overrideInt(&cfg.Speech.Channels, "BHARATWORK_SPEECH_CHANNELS")
	overrideInt(&cfg.Speech.TimeoutMS, "BHARATWORK_SPEECH_TIMEOUT_MS")
	overrideString(&cfg.TemplateStore.Path, "BHARATWORK_TEMPLATE_STORE_PATH")
	overrideString(&cfg.TemplateStore.RetentionMode, "BHARATWORK_TEMPLATE_STORE_RETENTION_MODE")
	overrideInt(&cfg.Batch.MaxConcurrency, "BHARATWORK_BATCH_MAX_CONCURRENCY")
	overrideInt(&cfg.Batch.PauseMS, "BHARATWORK_BATCH_PAUSE_MS")
	overrideString(&cfg.Batch.OutputDir, "BHARATWORK_BATCH_OUTPUT_DIR")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.Translator.Mode {
	case "mock", "http", "exec":
	default:
		return errors.New("translator.mode must be one of mock|http|exec")
	}
	if cfg.Translator.Mode == "http" && cfg.Translator.Endpoint == "" {
		return errors.New("translator.endpoint must be set when mode=http")
	}
	if cfg.Translator.Mode == "exec" && cfg.Translator.Command == "" {
		return errors.New("translator.command must be set when mode=exec")
	}
	if cfg.Translator.TargetLanguage == "" {
		return errors.New("translator.target_language must not be empty")
	}
	switch cfg.Speech.Mode {
	case "mock", "http", "exec":
	default:
		return errors.New("speech.mode must be one of mock|http|exec")
	}
	if cfg.Speech.Mode == "http" && cfg.Speech.Endpoint == "" {
		return errors.New("speech.endpoint must be set when mode=http")
	}
	if cfg.Speech.Mode == "exec" && cfg.Speech.Command == "" {
		return errors.New("speech.command must be set when mode=exec")
	}
	if cfg.Speech.SampleRate <= 0 {
		return errors.New("speech.sample_rate must be positive")
	}
	if cfg.Speech.Channels <= 0 {
		return errors.New("speech.channels must be positive")
	}
	switch cfg.TemplateStore.RetentionMode {
	case "memory", "persistent":
	default:
		return errors.New("template_store.retention_mode must be one of memory|persistent")
	}
	if cfg.TemplateStore.RetentionMode == "persistent" && cfg.TemplateStore.Path == "" {
		return errors.New("template_store.path must not be empty when retention_mode=persistent")
	}
	if cfg.Batch.MaxConcurrency <= 0 {
		return errors.New("batch.max_concurrency must be >= 1")
	}
	if cfg.Batch.PauseMS < 0 {
		return errors.New("batch.pause_ms must be >= 0")
	}
	return nil
}
