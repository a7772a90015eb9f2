package speechclient

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/daleyadrichem/SpeechLLMOrchestrator/config"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/upstream"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/models"
)

const transcribePath = "/use-cases/transcribe"

// SpeechClient talks to the speech-to-text service.
type SpeechClient struct {
	endpoint config.ServiceEndpoint
	caller   upstream.Caller
	logger   logrus.FieldLogger
}

// NewSpeechClient creates a SpeechClient for the service at endpoint.
// caller is normally an *upstream.Client tagged with CategoryTranscription.
func NewSpeechClient(endpoint config.ServiceEndpoint, caller upstream.Caller, logger logrus.FieldLogger) *SpeechClient {
	return &SpeechClient{
		endpoint: endpoint,
		caller:   caller,
		logger:   logger.WithField("upstream", upstream.CategoryTranscription),
	}
}

// Transcribe uploads the audio once and returns the transcript exactly as
// the service reported it.
func (c *SpeechClient) Transcribe(ctx context.Context, audio models.AudioUpload) (string, error) {
	log := c.logger.WithFields(logrus.Fields{
		"filename":     audio.Filename,
		"content_type": audio.ContentType,
		"size_bytes":   len(audio.Data),
	})
	log.Debug("Sending audio to speech service")

	body, err := c.caller.PostMultipart(ctx, c.endpoint.Join(transcribePath), upstream.FileField{
		FieldName:   "file",
		FileName:    audio.Filename,
		ContentType: audio.ContentType,
		Data:        audio.Data,
	})
	if err != nil {
		log.WithError(err).Warn("Speech service call failed")
		return "", fmt.Errorf("transcribing %s: %w", audio.Filename, err)
	}

	transcript, err := upstream.StringField(upstream.CategoryTranscription, body, "transcript")
	if err != nil {
		log.WithError(err).Warn("Speech service returned an unexpected payload")
		return "", fmt.Errorf("transcribing %s: %w", audio.Filename, err)
	}

	log.WithField("transcript_length", len(transcript)).Debug("Received transcript from speech service")
	return transcript, nil
}
