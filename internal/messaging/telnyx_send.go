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

const defaultTelnyxBaseURL = "https://api.telnyx.com/v2"

var telnyxSendTracer = otel.Tracer("broadcaster.internal.messaging.telnyx_send")

// TelnyxSender posts SMS messages using Telnyx's V2 API.
type TelnyxSender struct {
	apiKey             string
	messagingProfileID string
	baseURL            string
	httpClient         *http.Client
	logger             *logging.Logger
}

// NewTelnyxSender builds a sender for Telnyx V2 API.
func NewTelnyxSender(apiKey, messagingProfileID string, logger *logging.Logger) *TelnyxSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TelnyxSender{
		apiKey:             apiKey,
		messagingProfileID: messagingProfileID,
		baseURL:            defaultTelnyxBaseURL,
		httpClient:         newHTTPClient(defaultTimeout),
		logger:             logger,
	}
}

// WithBaseURL points the sender at another API root.
func (s *TelnyxSender) WithBaseURL(baseURL string) *TelnyxSender {
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		s.baseURL = baseURL
	}
	return s
}

// WithTimeout sets the per-request timeout.
func (s *TelnyxSender) WithTimeout(timeout time.Duration) *TelnyxSender {
	if timeout > 0 {
		s.httpClient = newHTTPClient(timeout)
	}
	return s
}

var _ Sender = (*TelnyxSender)(nil)

// Send dispatches a single SMS via Telnyx V2 API.
func (s *TelnyxSender) Send(ctx context.Context, from, to, text string) (Response, error) {
	if s.apiKey == "" {
		return Response{}, errors.New("messaging: telnyx api key missing")
	}
	if err := validateSend(from, to, text); err != nil {
		return Response{}, err
	}

	ctx, span := telnyxSendTracer.Start(ctx, "messaging.telnyx.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("broadcaster.to", to),
		attribute.String("broadcaster.from", from),
	)

	payload := map[string]string{
		"from": from,
		"to":   to,
		"text": text,
	}
	if s.messagingProfileID != "" {
		payload["messaging_profile_id"] = s.messagingProfileID
	}
	req, err := jsonRequest(ctx, s.baseURL+"/messages", payload)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := do(s.httpClient, req)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("failed to send telnyx sms", "error", err, "to", to)
		return resp, err
	}
	if !resp.OK() {
		s.logger.Warn("telnyx sms rejected", "status", resp.StatusCode, "to", to)
		return resp, nil
	}
	s.logger.Info("telnyx sms sent", "to", to, "from", from)
	return resp, nil
}
