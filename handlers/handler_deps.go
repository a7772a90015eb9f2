package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/llmclient"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/models"
)

// Transcriber defines the speech-to-text operation handlers expect.
// The concrete implementation is provided by the speechclient package.
type Transcriber interface {
	Transcribe(ctx context.Context, audio models.AudioUpload) (string, error)
}

// Generator defines the text-generation operation handlers expect.
// The concrete implementation is provided by the llmclient package.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...llmclient.GenerateOption) (string, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Speech Transcriber
	LLM    Generator
	Logger *logrus.Logger
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(speech Transcriber, llm Generator, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Speech: speech,
		LLM:    llm,
		Logger: logger,
	}
}
