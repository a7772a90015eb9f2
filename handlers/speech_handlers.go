package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/daleyadrichem/SpeechLLMOrchestrator/models"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/utils"
)

var validate = newValidator()

// newValidator reports fields by their form name so 422 messages match what
// the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Transcribe godoc
// @Summary Transcribe an uploaded audio file
// @Description Forwards the file to the speech service and returns the transcript unchanged.
// @Tags speech
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Audio file"
// @Success 200 {object} models.TranscriptResponse
// @Failure 422 {object} models.ErrorResponse "Missing file"
// @Failure 502 {object} models.ErrorResponse "Speech service failed or returned an invalid payload"
// @Router /transcribe [post]
func (h *ApplicationHandler) Transcribe(c *fiber.Ctx) error {
	form := models.AudioForm{File: formFile(c, "file")}
	if err := validate.Struct(form); err != nil {
		h.Logger.Warnf("Rejected transcribe request: %v", err)
		return utils.RespondWithValidationErrors(c, err)
	}

	audio, err := readAudio(form.File)
	if err != nil {
		return err
	}
	log := h.requestLogger(c, audio)
	log.Info("Received transcribe request")

	transcript, err := h.Speech.Transcribe(c.UserContext(), audio)
	if err != nil {
		return err
	}

	log.WithField("transcript_length", len(transcript)).Info("Transcription completed")
	return c.Status(fiber.StatusOK).JSON(models.TranscriptResponse{Transcript: transcript})
}

// Summarize godoc
// @Summary Transcribe an audio file and summarize it
// @Description Transcribes the file, then asks the LLM service for a summary of the transcript.
// @Tags speech
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Audio file"
// @Success 200 {object} models.SummaryResponse
// @Failure 422 {object} models.ErrorResponse "Missing file"
// @Failure 502 {object} models.ErrorResponse "An upstream service failed or returned an invalid payload"
// @Router /summarize [post]
func (h *ApplicationHandler) Summarize(c *fiber.Ctx) error {
	form := models.AudioForm{File: formFile(c, "file")}
	if err := validate.Struct(form); err != nil {
		h.Logger.Warnf("Rejected summarize request: %v", err)
		return utils.RespondWithValidationErrors(c, err)
	}

	audio, err := readAudio(form.File)
	if err != nil {
		return err
	}
	log := h.requestLogger(c, audio)
	log.Info("Received summarize request")

	transcript, err := h.Speech.Transcribe(c.UserContext(), audio)
	if err != nil {
		return err
	}

	summary, err := h.LLM.Generate(c.UserContext(), BuildSummaryPrompt(transcript))
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"transcript_length": len(transcript),
		"summary_length":    len(summary),
	}).Info("Summary completed")
	return c.Status(fiber.StatusOK).JSON(models.SummaryResponse{
		Transcript: transcript,
		Summary:    summary,
	})
}

// Ask godoc
// @Summary Ask a question about an audio file
// @Description Transcribes the file, then asks the LLM service to answer the question strictly from the transcript.
// @Description If the transcript does not contain the answer, the model is instructed to say so.
// @Tags speech
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Audio file"
// @Param   question formData string true "Question about the transcript"
// @Success 200 {object} models.AskResponse
// @Failure 422 {object} models.ErrorResponse "Missing file or question"
// @Failure 502 {object} models.ErrorResponse "An upstream service failed or returned an invalid payload"
// @Router /ask [post]
func (h *ApplicationHandler) Ask(c *fiber.Ctx) error {
	form := models.AskRequest{
		File:     formFile(c, "file"),
		Question: c.FormValue("question"),
	}
	if err := validate.Struct(form); err != nil {
		h.Logger.Warnf("Rejected ask request: %v", err)
		return utils.RespondWithValidationErrors(c, err)
	}

	audio, err := readAudio(form.File)
	if err != nil {
		return err
	}
	log := h.requestLogger(c, audio).WithField("question_length", len(form.Question))
	log.Info("Received ask request")

	// 1. Transcribe audio
	transcript, err := h.Speech.Transcribe(c.UserContext(), audio)
	if err != nil {
		return err
	}

	// 2. Query the LLM using transcript context
	answer, err := h.LLM.Generate(c.UserContext(), BuildAskPrompt(transcript, form.Question))
	if err != nil {
		return err
	}

	log.WithField("answer_length", len(answer)).Info("Answer completed")
	return c.Status(fiber.StatusOK).JSON(models.AskResponse{
		Transcript: transcript,
		Answer:     answer,
	})
}

// formFile returns nil when the part is absent or the body is not multipart.
func formFile(c *fiber.Ctx, name string) *multipart.FileHeader {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil
	}
	return fh
}

func readAudio(fh *multipart.FileHeader) (models.AudioUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return models.AudioUpload{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Error opening file: %v", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.AudioUpload{}, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Error reading file: %v", err))
	}

	return models.AudioUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *ApplicationHandler) requestLogger(c *fiber.Ctx, audio models.AudioUpload) *logrus.Entry {
	return h.Logger.WithFields(logrus.Fields{
		"request_id": c.Locals("requestid"),
		"filename":   audio.Filename,
		"size_bytes": len(audio.Data),
	})
}
