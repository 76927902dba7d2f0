package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

var twilioSendTracer = otel.Tracer("broadcaster.internal.messaging.twilio_send")

// TwilioSender posts SMS messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSender builds a sender with sane defaults.
func NewTwilioSender(accountSID, authToken string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    defaultTwilioBaseURL,
		httpClient: newHTTPClient(defaultTimeout),
		logger:     logger,
	}
}

// WithBaseURL points the sender at another API root.
func (s *TwilioSender) WithBaseURL(baseURL string) *TwilioSender {
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		s.baseURL = baseURL
	}
	return s
}

// WithTimeout sets the per-request timeout.
func (s *TwilioSender) WithTimeout(timeout time.Duration) *TwilioSender {
	if timeout > 0 {
		s.httpClient = newHTTPClient(timeout)
	}
	return s
}

var _ Sender = (*TwilioSender)(nil)

// Send dispatches a single SMS via Twilio.
func (s *TwilioSender) Send(ctx context.Context, from, to, text string) (Response, error) {
	if s.accountSID == "" || s.authToken == "" {
		return Response{}, errors.New("messaging: twilio credentials missing")
	}
	if err := validateSend(from, to, text); err != nil {
		return Response{}, err
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("broadcaster.to", to))

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", from)
	payload.Set("Body", text)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return Response{}, fmt.Errorf("messaging: build request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := do(s.httpClient, req)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("twilio sms failed", "error", err, "to", to)
		return resp, err
	}
	if !resp.OK() {
		s.logger.Warn("twilio sms rejected", "status", resp.StatusCode, "detail", formatTwilioError(resp), "to", to)
		return resp, nil
	}
	s.logger.Info("twilio sms sent", "to", to)
	return resp, nil
}

func formatTwilioError(resp Response) string {
	message, _ := resp.Body["message"].(string)
	if message == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	if code, ok := resp.Body["code"].(float64); ok && code != 0 {
		return fmt.Sprintf("status %d code %d: %s", resp.StatusCode, int(code), message)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, message)
}
