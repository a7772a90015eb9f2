package llmclient

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/daleyadrichem/SpeechLLMOrchestrator/config"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/upstream"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/models"
)

const generatePath = "/generate"

// Defaults are the generation parameters applied when a request leaves them unset.
type Defaults struct {
	Temperature *float64
	MaxTokens   *int
}

// LLMClient talks to the text-generation service.
type LLMClient struct {
	endpoint config.ServiceEndpoint
	caller   upstream.Caller
	defaults Defaults
	logger   logrus.FieldLogger
}

// NewLLMClient creates an LLMClient for the service at endpoint.
func NewLLMClient(endpoint config.ServiceEndpoint, caller upstream.Caller, defaults Defaults, logger logrus.FieldLogger) *LLMClient {
	return &LLMClient{
		endpoint: endpoint,
		caller:   caller,
		defaults: defaults,
		logger:   logger.WithField("upstream", upstream.CategoryGeneration),
	}
}

// GenerateOption overrides a generation parameter for a single call.
type GenerateOption func(*models.GenerationRequest)

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float64) GenerateOption {
	return func(r *models.GenerationRequest) { r.Temperature = &t }
}

// WithMaxTokens caps the generated length for one call.
func WithMaxTokens(n int) GenerateOption {
	return func(r *models.GenerationRequest) { r.MaxTokens = &n }
}

// Generate sends one completion request and returns the generated text.
// Parameters not set by opts fall back to the client defaults, and to null
// when those are unset too.
func (c *LLMClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	req := models.GenerationRequest{
		Prompt:      prompt,
		Temperature: c.defaults.Temperature,
		MaxTokens:   c.defaults.MaxTokens,
	}
	for _, opt := range opts {
		opt(&req)
	}

	log := c.logger.WithField("prompt_length", len(req.Prompt))
	log.Debug("Sending prompt to LLM service")

	body, err := c.caller.PostJSON(ctx, c.endpoint.Join(generatePath), req)
	if err != nil {
		log.WithError(err).Warn("LLM service call failed")
		return "", fmt.Errorf("generating completion: %w", err)
	}

	text, err := upstream.StringField(upstream.CategoryGeneration, body, "response")
	if err != nil {
		log.WithError(err).Warn("LLM service returned an unexpected payload")
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return text, nil
}
