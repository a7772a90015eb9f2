package models

import "mime/multipart"

// AudioUpload is an audio file received from a client, held only for the
// duration of one request.
type AudioUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// GenerationRequest is the JSON body sent to the generation upstream.
// Nil Temperature or MaxTokens are encoded as null so the upstream applies
// its own defaults.
type GenerationRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// AudioForm is the multipart form accepted by /transcribe and /summarize.
type AudioForm struct {
	File *multipart.FileHeader `form:"file" validate:"required"`
}

// AskRequest is the multipart form accepted by /ask.
type AskRequest struct {
	File     *multipart.FileHeader `form:"file" validate:"required"`
	Question string                `form:"question" validate:"required"`
}

// TranscriptResponse is returned by POST /transcribe.
type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

// SummaryResponse is returned by POST /summarize.
type SummaryResponse struct {
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

// AskResponse is returned by POST /ask.
type AskResponse struct {
	Transcript string `json:"transcript"`
	Answer     string `json:"answer"`
}

// ErrorResponse is the body of every failed request. Detail is a string for
// upstream failures and a list of messages for validation failures.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}
