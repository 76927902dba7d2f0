package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/event-sms-broadcaster/internal/attendees"
	"github.com/wolfman30/event-sms-broadcaster/internal/catalog"
	"github.com/wolfman30/event-sms-broadcaster/internal/messaging"
	"github.com/wolfman30/event-sms-broadcaster/internal/messaging/templates"
	observemetrics "github.com/wolfman30/event-sms-broadcaster/internal/observability/metrics"
	"github.com/wolfman30/event-sms-broadcaster/internal/phone"
	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

// DefaultDelay is the pause between consecutive sends.
const DefaultDelay = time.Second

// CheckpointFunc runs before each record. Returning an error stops the batch
// at that record boundary.
type CheckpointFunc func(ctx context.Context, index int, record attendees.Record) error

// Config controls batch pacing.
type Config struct {
	// Delay separates consecutive provider calls. Zero means DefaultDelay;
	// a negative value disables pacing.
	Delay      time.Duration
	Checkpoint CheckpointFunc
}

// Sequencer sends one message per (record, number) pair, strictly one at a
// time. It keeps no per-batch state, so a single Sequencer may serve
// concurrent batches; each Run owns its own results.
type Sequencer struct {
	delay      time.Duration
	checkpoint CheckpointFunc
	sender     messaging.Sender
	mapper     *catalog.Mapper
	resolver   *phone.Resolver
	renderer   templates.Renderer
	pacer      Pacer
	logger     *logging.Logger
	metrics    *observemetrics.DispatchMetrics
	now        func() time.Time
}

// NewSequencer wires the pipeline stages around sender.
func NewSequencer(cfg Config, sender messaging.Sender, mapper *catalog.Mapper, resolver *phone.Resolver, logger *logging.Logger) *Sequencer {
	if logger == nil {
		logger = logging.Default()
	}
	if mapper == nil {
		mapper = catalog.NewMapper(nil, "")
	}
	if resolver == nil {
		resolver = phone.NewResolver(phone.DefaultRegion, logger)
	}
	delay := cfg.Delay
	if delay == 0 {
		delay = DefaultDelay
	}
	if delay < 0 {
		delay = 0
	}
	return &Sequencer{
		delay:      delay,
		checkpoint: cfg.Checkpoint,
		sender:     sender,
		mapper:     mapper,
		resolver:   resolver,
		renderer:   templates.Renderer{},
		pacer:      SleepPacer{},
		logger:     logger,
		now:        time.Now,
	}
}

// WithMetrics records sends and batches on m.
func (s *Sequencer) WithMetrics(m *observemetrics.DispatchMetrics) *Sequencer {
	s.metrics = m
	return s
}

// WithPacer replaces the sleep between sends. Nil keeps the current pacer.
func (s *Sequencer) WithPacer(p Pacer) *Sequencer {
	if p != nil {
		s.pacer = p
	}
	return s
}

// WithClock sets the time source for report and result timestamps.
func (s *Sequencer) WithClock(now func() time.Time) *Sequencer {
	if now != nil {
		s.now = now
	}
	return s
}

// Delay reports the pause applied between sends.
func (s *Sequencer) Delay() time.Duration {
	return s.delay
}

// Run executes the batch. Per-number parse failures and per-send failures
// are recorded in the report and never returned. The only errors are the
// up-front precondition failures (nothing is sent) and ErrBatchStopped from a
// checkpoint, which comes back with the partial report.
func (s *Sequencer) Run(ctx context.Context, batch Batch) (*Report, error) {
	sender := strings.TrimSpace(batch.Sender)
	if sender == "" {
		return nil, ErrSenderRequired
	}
	if s.sender == nil {
		return nil, ErrNoTransport
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}

	logger := s.logger.With("batch_id", batch.ID)
	report := &Report{
		BatchID:   batch.ID,
		Sender:    sender,
		Records:   len(batch.Records),
		StartedAt: s.now(),
		Results:   []Result{},
	}
	logger.Info("broadcast started", "records", len(batch.Records), "delay_ms", s.delay.Milliseconds())

	// Only the checkpoint sees cancellation. Once a record has started, its
	// sends and pauses run to the end.
	sendCtx := context.WithoutCancel(ctx)

	var stopErr error
	for i, record := range batch.Records {
		if s.checkpoint != nil {
			if err := s.checkpoint(ctx, i, record); err != nil {
				stopErr = fmt.Errorf("%w at record %d: %w", ErrBatchStopped, i, err)
				report.Stopped = true
				break
			}
		}

		numbers, rejected := s.resolver.Resolve(record.Name, record.CandidateNumbers)
		report.InvalidNumbers += len(rejected)
		s.metrics.ObserveInvalidNumbers(len(rejected))
		if len(numbers) == 0 {
			report.SkippedRecords++
			logger.Info("no dialable numbers for record", "record_index", i, "record_name", record.Name)
			continue
		}

		text := s.renderer.Render(batch.Template, templates.RecordFields(
			record.Name,
			record.Username,
			record.Password,
			s.mapper.URL(record.EventAcronym),
			record.EventLabel,
		))

		for _, number := range numbers {
			if report.Attempted > 0 {
				s.pacer.Pause(sendCtx, s.delay)
			}
			result := s.send(sendCtx, sender, number, text)
			result.RecordIndex = i
			result.Name = record.Name
			report.Results = append(report.Results, result)
			report.Attempted++
			if result.Failed() {
				report.Failed++
			}
		}
	}

	report.FinishedAt = s.now()
	outcome := "completed"
	if report.Stopped {
		outcome = "stopped"
	}
	s.metrics.ObserveBatch(outcome, report.FinishedAt.Sub(report.StartedAt).Seconds())
	logger.Info("broadcast finished",
		"outcome", outcome,
		"attempted", report.Attempted,
		"failed", report.Failed,
		"invalid_numbers", report.InvalidNumbers,
		"skipped_records", report.SkippedRecords,
	)
	return report, stopErr
}

// send performs one provider call. A panicking transport is converted into
// a failed result so the rest of the batch still goes out.
func (s *Sequencer) send(ctx context.Context, from, to, text string) (result Result) {
	start := s.now()
	result = Result{Number: to, SentAt: start}
	defer func() {
		if rec := recover(); rec != nil {
			result.Error = fmt.Sprintf("dispatch: transport panic: %v", rec)
			s.logger.Error("sms transport panicked", "to", to, "panic", rec)
		}
		s.metrics.ObserveSend(result.StatusCode, result.Error != "", s.now().Sub(start).Seconds())
	}()

	resp, err := s.sender.Send(ctx, from, to, text)
	result.StatusCode = resp.StatusCode
	result.Body = resp.Body
	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("sms send failed", "to", to, "error", err)
	}
	return result
}
