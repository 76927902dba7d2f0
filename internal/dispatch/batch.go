package dispatch

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/event-sms-broadcaster/internal/attendees"
)

var (
	// ErrSenderRequired is returned when no sender identifier was supplied.
	ErrSenderRequired = errors.New("dispatch: sender identifier required")

	// ErrTableRequired is returned when no attendee table was supplied.
	ErrTableRequired = errors.New("dispatch: attendee table required")

	// ErrNoTransport is returned when the sequencer was built without a sender.
	ErrNoTransport = errors.New("dispatch: sms transport not configured")

	// ErrBatchStopped is returned when a checkpoint hook ends a batch early.
	ErrBatchStopped = errors.New("dispatch: batch stopped")
)

// Batch is one broadcast over an uploaded attendee table.
type Batch struct {
	ID       string
	Sender   string
	Template string
	Records  []attendees.Record
}

// LoadBatch validates the request inputs and reads the attendee table. The
// sender is checked before the table is read so a bad request never touches
// the upload.
func LoadBatch(table io.Reader, sender, template string) (Batch, error) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return Batch{}, ErrSenderRequired
	}
	if table == nil {
		return Batch{}, ErrTableRequired
	}
	records, err := attendees.ReadRecords(table)
	if err != nil {
		return Batch{}, fmt.Errorf("dispatch: load table: %w", err)
	}
	return Batch{
		ID:       uuid.NewString(),
		Sender:   sender,
		Template: template,
		Records:  records,
	}, nil
}

// Result is the outcome of one (record, number) send. It is never modified
// after it is appended to a report.
type Result struct {
	RecordIndex int            `json:"record_index"`
	Name        string         `json:"name"`
	Number      string         `json:"number"`
	StatusCode  int            `json:"status_code"`
	Body        map[string]any `json:"response,omitempty"`
	Error       string         `json:"error,omitempty"`
	SentAt      time.Time      `json:"sent_at"`
}

// Failed reports whether the call errored or the provider rejected it.
func (r Result) Failed() bool {
	return r.Error != "" || r.StatusCode >= 400
}

// Report summarizes a finished (or stopped) batch.
type Report struct {
	BatchID        string    `json:"batch_id"`
	Sender         string    `json:"sender"`
	Records        int       `json:"records"`
	SkippedRecords int       `json:"skipped_records"`
	InvalidNumbers int       `json:"invalid_numbers"`
	Attempted      int       `json:"attempted"`
	Failed         int       `json:"failed"`
	Stopped        bool      `json:"stopped"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Results        []Result  `json:"results"`
}

// FailedNumbers lists the numbers whose send failed, in result order.
func (r *Report) FailedNumbers() []string {
	var out []string
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res.Number)
		}
	}
	return out
}
