package messaging

import (
	"context"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

// LoggingSender logs each message instead of sending it. It backs dry runs.
type LoggingSender struct {
	logger *logging.Logger
}

// NewLoggingSender creates a sender that only logs.
func NewLoggingSender(logger *logging.Logger) *LoggingSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LoggingSender{logger: logger}
}

var _ Sender = (*LoggingSender)(nil)

// Send logs the message and reports status 0 with a dry_run marker.
func (s *LoggingSender) Send(ctx context.Context, from, to, text string) (Response, error) {
	if err := validateSend(from, to, text); err != nil {
		return Response{}, err
	}
	s.logger.Info("dry run: would send sms", "from", from, "to", to, "chars", len(text))
	return Response{Body: map[string]any{"dry_run": true}}, nil
}
