package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewServiceEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ServiceEndpoint
		wantErr bool
	}{
		{"http", "http://stt-api:8000", "http://stt-api:8000", false},
		{"https", "https://llm.example.com", "https://llm.example.com", false},
		{"trailing slash", "http://stt-api:8000/", "http://stt-api:8000", false},
		{"many trailing slashes", "http://x:1///", "http://x:1", false},
		{"path kept", "https://gw.example.com/stt/", "https://gw.example.com/stt", false},
		{"ftp", "ftp://bad", "", true},
		{"no scheme", "stt-api:8000", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewServiceEndpoint("STT_BASE_URL", tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				if !IsConfigurationError(err) {
					t.Errorf("expected ConfigurationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServiceEndpoint_Join(t *testing.T) {
	ep, err := NewServiceEndpoint("LLM_BASE_URL", "http://llm-api:8000/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ep.Join("/generate"); got != "http://llm-api:8000/generate" {
		t.Errorf("got %q", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.STTBaseURL != "http://stt-api:8000" {
		t.Errorf("STTBaseURL: got %q", cfg.STTBaseURL)
	}
	if cfg.LLMBaseURL != "http://llm-api:8000" {
		t.Errorf("LLMBaseURL: got %q", cfg.LLMBaseURL)
	}
	if cfg.STTTimeout != 600*time.Second || cfg.LLMTimeout != 600*time.Second {
		t.Errorf("timeouts: got %v / %v, want 10m", cfg.STTTimeout, cfg.LLMTimeout)
	}
	if cfg.LLMTemperature != nil || cfg.LLMMaxTokens != nil {
		t.Error("generation parameters should be unset by default")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
	if cfg.MaxUploadBytes != 512<<20 {
		t.Errorf("MaxUploadBytes: got %d", cfg.MaxUploadBytes)
	}
	if cfg.LogFormat != "json" || cfg.LogLevel != "info" {
		t.Errorf("log settings: got %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STT_BASE_URL", "https://stt.internal/")
	t.Setenv("LLM_BASE_URL", "http://llm.internal:9000")
	t.Setenv("STT_TIMEOUT", "90s")
	t.Setenv("LLM_TIMEOUT", "120")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("LLM_MAX_TOKENS", "256")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.STTBaseURL != "https://stt.internal" {
		t.Errorf("STTBaseURL: got %q", cfg.STTBaseURL)
	}
	if cfg.LLMBaseURL != "http://llm.internal:9000" {
		t.Errorf("LLMBaseURL: got %q", cfg.LLMBaseURL)
	}
	if cfg.STTTimeout != 90*time.Second {
		t.Errorf("STTTimeout: got %v", cfg.STTTimeout)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Errorf("LLMTimeout: got %v", cfg.LLMTimeout)
	}
	if cfg.LLMTemperature == nil || *cfg.LLMTemperature != 0.2 {
		t.Errorf("LLMTemperature: got %v", cfg.LLMTemperature)
	}
	if cfg.LLMMaxTokens == nil || *cfg.LLMMaxTokens != 256 {
		t.Errorf("LLMMaxTokens: got %v", cfg.LLMMaxTokens)
	}
	if cfg.MaxUploadBytes != 1<<20 {
		t.Errorf("MaxUploadBytes: got %d", cfg.MaxUploadBytes)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: got %q", cfg.LogFormat)
	}
}

func TestLoad_RejectsBadScheme(t *testing.T) {
	t.Setenv("STT_BASE_URL", "ftp://bad")

	_, err := Load()
	if err == nil {
		t.Fatal("expected startup to fail")
	}
	if !IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "STT_BASE_URL") || !strings.Contains(err.Error(), "ftp://bad") {
		t.Errorf("error should name the variable and value, got %q", err.Error())
	}
}

func TestLoad_RejectsBadLLMScheme(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "llm-api:8000")

	if _, err := Load(); !IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timeout", "STT_TIMEOUT", "soon"},
		{"zero timeout", "LLM_TIMEOUT", "0"},
		{"bad temperature", "LLM_TEMPERATURE", "warm"},
		{"negative temperature", "LLM_TEMPERATURE", "-1"},
		{"bad max tokens", "LLM_MAX_TOKENS", "many"},
		{"zero max tokens", "LLM_MAX_TOKENS", "0"},
		{"bad upload limit", "MAX_UPLOAD_BYTES", "big"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"bad otlp insecure flag", "OTEL_EXPORTER_OTLP_INSECURE", "maybe"},
		{"bad sample rate", "OTEL_TRACES_SAMPLE_RATE", "often"},
		{"sample rate above one", "OTEL_TRACES_SAMPLE_RATE", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_Tracing(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "speech-orchestrator" || cfg.Environment != "development" {
		t.Errorf("service identity: got %s/%s", cfg.ServiceName, cfg.Environment)
	}
	if cfg.OTLPEndpoint != "" || !cfg.OTLPInsecure || cfg.TraceSampleRate != 1.0 {
		t.Errorf("tracing defaults: endpoint=%q insecure=%v rate=%v", cfg.OTLPEndpoint, cfg.OTLPInsecure, cfg.TraceSampleRate)
	}

	t.Setenv("OTEL_SERVICE_NAME", "orchestrator-eu")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("OTEL_TRACES_SAMPLE_RATE", "0.1")

	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "orchestrator-eu" || cfg.Environment != "prod" {
		t.Errorf("service identity: got %s/%s", cfg.ServiceName, cfg.Environment)
	}
	if cfg.OTLPEndpoint != "otel-collector:4318" || cfg.OTLPInsecure || cfg.TraceSampleRate != 0.1 {
		t.Errorf("tracing overrides: endpoint=%q insecure=%v rate=%v", cfg.OTLPEndpoint, cfg.OTLPInsecure, cfg.TraceSampleRate)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DOTENV_PROBE_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("DOTENV_PROBE_VALUE") })

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("DOTENV_PROBE_VALUE"); got != "from-file" {
		t.Errorf("got %q, want from-file", got)
	}

	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestInitLogger(t *testing.T) {
	log, err := InitLogger("debug", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.GetLevel().String() != "debug" {
		t.Errorf("level: got %s", log.GetLevel())
	}

	if _, err := InitLogger("loud", "json"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := InitLogger("info", "xml"); !IsConfigurationError(err) {
		t.Errorf("expected ConfigurationError for unknown format, got %v", err)
	}
}
