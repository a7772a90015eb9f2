package handlers

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/daleyadrichem/SpeechLLMOrchestrator/internal/upstream"
	"github.com/daleyadrichem/SpeechLLMOrchestrator/utils"
)

var serviceNames = map[upstream.Category]string{
	upstream.CategoryTranscription: "speech",
	upstream.CategoryGeneration:    "LLM",
}

// ErrorHandler is the application-wide Fiber error handler. Both kinds of
// upstream failure become 502 Bad Gateway with a diagnostic detail.
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		entry := logger.WithFields(logrus.Fields{
			"request_id": c.Locals("requestid"),
			"uri":        c.OriginalURL(),
		})

		if category, ok := upstream.CategoryOf(err); ok {
			entry = entry.WithField("upstream", category)

			var svcErr *upstream.ServiceError
			if errors.As(err, &svcErr) {
				entry.WithFields(logrus.Fields{
					"upstream_url":    svcErr.URL,
					"upstream_status": svcErr.StatusCode,
					"upstream_body":   string(svcErr.Body),
				}).WithError(err).Error("Upstream service error")
				return utils.RespondWithError(c, fiber.StatusBadGateway, serviceErrorDetail(svcErr))
			}

			entry.WithError(err).Error("Upstream contract violation")
			return utils.RespondWithError(c, fiber.StatusBadGateway,
				"Invalid response format from "+serviceNames[category]+" service")
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return utils.RespondWithError(c, fiberErr.Code, fiberErr.Message)
		}

		entry.WithError(err).Error("Unhandled error")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Internal Server Error")
	}
}

// serviceErrorDetail mirrors the upstream body when there is one, otherwise
// the transport cause.
func serviceErrorDetail(e *upstream.ServiceError) string {
	prefix := "Speech service error: "
	if e.Category == upstream.CategoryGeneration {
		prefix = "LLM service error: "
	}
	if e.StatusCode > 0 || e.Err == nil {
		return prefix + string(e.Body)
	}
	return prefix + transportCause(e.Err)
}

// transportCause drops request URLs and dialed addresses from err.
func transportCause(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err.Error()
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "lookup failed: " + dnsErr.Err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return opErr.Op + ": " + opErr.Err.Error()
	}
	return err.Error()
}
