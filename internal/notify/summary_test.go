package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/event-sms-broadcaster/internal/dispatch"
)

type recordingEmail struct {
	messages []EmailMessage
}

func (r *recordingEmail) Send(ctx context.Context, msg EmailMessage) error {
	r.messages = append(r.messages, msg)
	return nil
}

func TestNewSummaryNotifierNeedsSenderAndRecipients(t *testing.T) {
	assert.Nil(t, NewSummaryNotifier(nil, []string{"ops@example.com"}))
	assert.Nil(t, NewSummaryNotifier(&recordingEmail{}, []string{" ", ""}))
	assert.NotNil(t, NewSummaryNotifier(&recordingEmail{}, []string{"ops@example.com"}))

	var n *SummaryNotifier
	assert.NoError(t, n.NotifyReport(context.Background(), &dispatch.Report{}))
}

func TestNotifyReport(t *testing.T) {
	email := &recordingEmail{}
	n := NewSummaryNotifier(email, []string{" ops@example.com "})

	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	report := &dispatch.Report{
		BatchID:        "batch-1",
		Sender:         "+15550001111",
		Records:        3,
		SkippedRecords: 1,
		InvalidNumbers: 2,
		Attempted:      3,
		Failed:         1,
		StartedAt:      start,
		FinishedAt:     start.Add(3 * time.Second),
		Results: []dispatch.Result{
			{Number: "+15551110000", StatusCode: 200},
			{Number: "+15552220000", StatusCode: 500},
			{Number: "+15553330000", StatusCode: 200},
		},
	}
	require.NoError(t, n.NotifyReport(context.Background(), report))

	require.Len(t, email.messages, 1)
	msg := email.messages[0]
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Equal(t, "SMS broadcast finished: 2 sent, 1 failed", msg.Subject)
	assert.Contains(t, msg.Body, "Batch: batch-1\n")
	assert.Contains(t, msg.Body, "Duration: 3s\n")
	assert.Contains(t, msg.Body, "Invalid numbers dropped: 2\n")
	assert.Contains(t, msg.Body, "Failed numbers:\n  +15552220000\n")
	assert.NotContains(t, msg.Body, "+15551110000")
}

func TestSummaryBodyCapsFailedList(t *testing.T) {
	report := &dispatch.Report{BatchID: "b", Stopped: true}
	for i := 0; i < maxListedFailures+5; i++ {
		report.Results = append(report.Results, dispatch.Result{Number: fmt.Sprintf("+1555000%04d", i), Error: "x"})
	}
	report.Attempted = len(report.Results)
	report.Failed = len(report.Results)

	body := SummaryBody(report)
	assert.Contains(t, body, "...and 5 more\n")
	assert.Equal(t, maxListedFailures, strings.Count(body, "  +1555"))
	assert.Contains(t, body, "stopped before every record")
	assert.Equal(t, "SMS broadcast stopped: 0 sent, 55 failed", SummarySubject(report))
}
