package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultSTTBaseURL      = "http://stt-api:8000"
	defaultLLMBaseURL      = "http://llm-api:8000"
	defaultUpstreamTimeout = 600 * time.Second
	defaultHTTPAddr        = ":8080"
	defaultMaxUploadBytes  = 512 << 20
	defaultShutdownTimeout = 30 * time.Second
	defaultServiceName     = "speech-orchestrator"
)

// ConfigurationError reports an environment value that prevents the service from starting.
type ConfigurationError struct {
	Name   string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s: got %q", e.Name, e.Reason, e.Value)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// ServiceEndpoint is the validated base URL of an upstream dependency.
// It always carries an http:// or https:// scheme and never ends with a slash.
type ServiceEndpoint string

// NewServiceEndpoint validates raw and strips any trailing slashes.
func NewServiceEndpoint(name, raw string) (ServiceEndpoint, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", &ConfigurationError{Name: name, Value: raw, Reason: "must include http:// or https://"}
	}
	return ServiceEndpoint(strings.TrimRight(raw, "/")), nil
}

// Join appends an operation path such as "/generate" to the endpoint.
func (e ServiceEndpoint) Join(path string) string {
	return string(e) + path
}

func (e ServiceEndpoint) String() string { return string(e) }

// Config is built once at startup and shared read-only afterwards.
type Config struct {
	STTBaseURL ServiceEndpoint `validate:"required"`
	LLMBaseURL ServiceEndpoint `validate:"required"`

	STTTimeout time.Duration `validate:"gt=0"`
	LLMTimeout time.Duration `validate:"gt=0"`

	// Nil means the field is sent as null and the upstream default applies.
	LLMTemperature *float64 `validate:"omitempty,gte=0"`
	LLMMaxTokens   *int     `validate:"omitempty,gt=0"`

	HTTPAddr         string        `validate:"required"`
	MaxUploadBytes   int           `validate:"gt=0"`
	ShutdownTimeout  time.Duration `validate:"gt=0"`
	CORSAllowOrigins string        `validate:"required"`

	LogLevel  string `validate:"required"`
	LogFormat string `validate:"oneof=json text"`

	// Tracing. An empty OTLPEndpoint keeps spans in-process only.
	ServiceName     string `validate:"required"`
	Environment     string `validate:"required"`
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceSampleRate float64 `validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Load reads an optional .env file, then the process environment, and
// returns a validated Config.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

// loadDotEnv loads path if it exists. Variables already present in the
// environment win over the file.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STT_BASE_URL", defaultSTTBaseURL)
	v.SetDefault("LLM_BASE_URL", defaultLLMBaseURL)
	v.SetDefault("STT_TIMEOUT", defaultUpstreamTimeout)
	v.SetDefault("LLM_TIMEOUT", defaultUpstreamTimeout)
	v.SetDefault("HTTP_ADDR", defaultHTTPAddr)
	v.SetDefault("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	v.SetDefault("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OTEL_SERVICE_NAME", defaultServiceName)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_TRACES_SAMPLE_RATE", 1.0)
}

func fromViper(v *viper.Viper) (*Config, error) {
	stt, err := NewServiceEndpoint("STT_BASE_URL", v.GetString("STT_BASE_URL"))
	if err != nil {
		return nil, err
	}
	llm, err := NewServiceEndpoint("LLM_BASE_URL", v.GetString("LLM_BASE_URL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		STTBaseURL:       stt,
		LLMBaseURL:       llm,
		HTTPAddr:         v.GetString("HTTP_ADDR"),
		CORSAllowOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:        strings.ToLower(v.GetString("LOG_FORMAT")),
		ServiceName:      v.GetString("OTEL_SERVICE_NAME"),
		Environment:      v.GetString("APP_ENV"),
		OTLPEndpoint:     v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	insecure := strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_INSECURE"))
	if cfg.OTLPInsecure, err = strconv.ParseBool(insecure); err != nil {
		return nil, &ConfigurationError{Name: "OTEL_EXPORTER_OTLP_INSECURE", Value: insecure, Reason: "must be a boolean"}
	}
	rate := strings.TrimSpace(v.GetString("OTEL_TRACES_SAMPLE_RATE"))
	if cfg.TraceSampleRate, err = strconv.ParseFloat(rate, 64); err != nil {
		return nil, &ConfigurationError{Name: "OTEL_TRACES_SAMPLE_RATE", Value: rate, Reason: "must be a number"}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"STT_TIMEOUT", &cfg.STTTimeout},
		{"LLM_TIMEOUT", &cfg.LLMTimeout},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(v, d.name); err != nil {
			return nil, err
		}
	}

	if cfg.MaxUploadBytes, err = parseInt(v, "MAX_UPLOAD_BYTES"); err != nil {
		return nil, err
	}

	if raw := v.GetString("LLM_TEMPERATURE"); raw != "" {
		temp, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &ConfigurationError{Name: "LLM_TEMPERATURE", Value: raw, Reason: "must be a number"}
		}
		cfg.LLMTemperature = &temp
	}
	if raw := v.GetString("LLM_MAX_TOKENS"); raw != "" {
		maxTokens, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &ConfigurationError{Name: "LLM_MAX_TOKENS", Value: raw, Reason: "must be an integer"}
		}
		cfg.LLMMaxTokens = &maxTokens
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseDuration accepts Go duration syntax ("90s", "10m") or a bare number of seconds.
func parseDuration(v *viper.Viper, name string) (time.Duration, error) {
	raw := v.Get(name)
	if d, ok := raw.(time.Duration); ok {
		return d, nil
	}
	s := strings.TrimSpace(v.GetString(name))
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &ConfigurationError{Name: name, Value: s, Reason: "must be a duration"}
	}
	return d, nil
}

func parseInt(v *viper.Viper, name string) (int, error) {
	raw := v.Get(name)
	if n, ok := raw.(int); ok {
		return n, nil
	}
	s := strings.TrimSpace(v.GetString(name))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ConfigurationError{Name: name, Value: s, Reason: "must be an integer"}
	}
	return n, nil
}
