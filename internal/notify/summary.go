package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/event-sms-broadcaster/internal/dispatch"
)

// maxListedFailures caps how many failed numbers the summary spells out.
const maxListedFailures = 50

// SummaryNotifier emails a plain-text summary of each finished broadcast.
type SummaryNotifier struct {
	email      EmailSender
	recipients []string
}

// NewSummaryNotifier returns nil when there is no sender or no recipient, so
// callers can skip notification with a nil check.
func NewSummaryNotifier(email EmailSender, recipients []string) *SummaryNotifier {
	var to []string
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	if email == nil || len(to) == 0 {
		return nil
	}
	return &SummaryNotifier{email: email, recipients: to}
}

// NotifyReport sends the summary for report.
func (n *SummaryNotifier) NotifyReport(ctx context.Context, report *dispatch.Report) error {
	if n == nil || report == nil {
		return nil
	}
	return n.email.Send(ctx, EmailMessage{
		To:      n.recipients,
		Subject: SummarySubject(report),
		Body:    SummaryBody(report),
	})
}

func SummarySubject(report *dispatch.Report) string {
	status := "finished"
	if report.Stopped {
		status = "stopped"
	}
	return fmt.Sprintf("SMS broadcast %s: %d sent, %d failed", status, report.Attempted-report.Failed, report.Failed)
}

func SummaryBody(report *dispatch.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch: %s\n", report.BatchID)
	fmt.Fprintf(&b, "Sender: %s\n", report.Sender)
	if !report.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", report.StartedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Records: %d\n", report.Records)
	fmt.Fprintf(&b, "Records without a dialable number: %d\n", report.SkippedRecords)
	fmt.Fprintf(&b, "Invalid numbers dropped: %d\n", report.InvalidNumbers)
	fmt.Fprintf(&b, "Messages attempted: %d\n", report.Attempted)
	fmt.Fprintf(&b, "Messages failed: %d\n", report.Failed)
	if report.Stopped {
		b.WriteString("The batch was stopped before every record was processed.\n")
	}

	failed := report.FailedNumbers()
	if len(failed) == 0 {
		return b.String()
	}
	b.WriteString("\nFailed numbers:\n")
	for i, number := range failed {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "...and %d more\n", len(failed)-maxListedFailures)
			break
		}
		fmt.Fprintf(&b, "  %s\n", number)
	}
	return b.String()
}
