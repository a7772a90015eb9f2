// Package upstream is the shared HTTP plumbing behind the transcription and
// generation gateways. It bounds every call with a timeout, turns non-success
// statuses and transport failures into ServiceError, and records one trace
// span per round trip.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/daleyadrichem/SpeechLLMOrchestrator/internal/upstream"

// Caller is the capability the gateways need from the transport. A call
// returns the response body only when the upstream answered 200 OK.
type Caller interface {
	PostMultipart(ctx context.Context, url string, file FileField) ([]byte, error)
	PostJSON(ctx context.Context, url string, payload any) ([]byte, error)
}

// Client is the net/http implementation of Caller for a single upstream.
type Client struct {
	category   Category
	timeout    time.Duration
	httpClient *http.Client
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// Option configures a Client.
type Option func(*Client)

// WithTracerProvider sets the provider spans are recorded with.
// The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// WithPropagator sets how trace context is written into outbound headers.
// The global propagator is used otherwise.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Client) { c.propagator = p }
}

// NewClient creates a Client whose errors are tagged with category and whose
// calls are bounded by timeout.
func NewClient(category Category, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		category:   category,
		timeout:    timeout,
		httpClient: &http.Client{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostMultipart uploads file as multipart/form-data.
func (c *Client) PostMultipart(ctx context.Context, url string, file FileField) ([]byte, error) {
	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return nil, fmt.Errorf("encoding multipart body: %w", err)
	}
	return c.post(ctx, url, contentType, body)
}

// PostJSON sends payload encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON body: %w", err)
	}
	return c.post(ctx, url, "application/json", bytes.NewReader(data))
}

func (c *Client) post(ctx context.Context, url, contentType string, body io.Reader) (_ []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "upstream."+string(c.category),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", url),
			attribute.String("upstream.category", string(c.category)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	c.textMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{
			Category:   c.category,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}
	return respBody, nil
}

func (c *Client) textMapPropagator() propagation.TextMapPropagator {
	if c.propagator != nil {
		return c.propagator
	}
	return otel.GetTextMapPropagator()
}

// transportError keeps the upstream URL on the ServiceError only, so the
// cause can be shown to clients without exposing internal addresses.
func (c *Client) transportError(url string, err error) *ServiceError {
	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// The dial or read error may name the upstream address.
		err = fmt.Errorf("request timed out after %s: %w", c.timeout, context.DeadlineExceeded)
	}
	return &ServiceError{Category: c.category, URL: url, Err: err}
}
