package messaging

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

const defaultDialpadBaseURL = "https://api.dialpad.com/v2"

var dialpadSendTracer = otel.Tracer("broadcaster.internal.messaging.dialpad_send")

// DialpadSender posts SMS messages using Dialpad's v2 SMS API.
type DialpadSender struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewDialpadSender builds a sender for the Dialpad v2 API.
func NewDialpadSender(apiKey string, logger *logging.Logger) *DialpadSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &DialpadSender{
		apiKey:     apiKey,
		baseURL:    defaultDialpadBaseURL,
		httpClient: newHTTPClient(defaultTimeout),
		logger:     logger,
	}
}

// WithBaseURL points the sender at another API root.
func (s *DialpadSender) WithBaseURL(baseURL string) *DialpadSender {
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		s.baseURL = baseURL
	}
	return s
}

// WithTimeout sets the per-request timeout.
func (s *DialpadSender) WithTimeout(timeout time.Duration) *DialpadSender {
	if timeout > 0 {
		s.httpClient = newHTTPClient(timeout)
	}
	return s
}

var _ Sender = (*DialpadSender)(nil)

// Send dispatches a single SMS via Dialpad.
func (s *DialpadSender) Send(ctx context.Context, from, to, text string) (Response, error) {
	if s.apiKey == "" {
		return Response{}, errors.New("messaging: dialpad api key missing")
	}
	if err := validateSend(from, to, text); err != nil {
		return Response{}, err
	}

	ctx, span := dialpadSendTracer.Start(ctx, "messaging.dialpad.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("broadcaster.to", to),
		attribute.String("broadcaster.from", from),
	)

	req, err := jsonRequest(ctx, s.baseURL+"/sms", map[string]string{
		"to":   to,
		"from": from,
		"text": text,
	})
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := do(s.httpClient, req)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("dialpad sms failed", "error", err, "to", to)
		return resp, err
	}
	if !resp.OK() {
		s.logger.Warn("dialpad sms rejected", "status", resp.StatusCode, "to", to)
		return resp, nil
	}
	s.logger.Info("dialpad sms sent", "to", to, "from", from)
	return resp, nil
}
