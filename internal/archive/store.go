package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/event-sms-broadcaster/internal/dispatch"
	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives finished broadcast reports to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ReportKey is the object key a report started at t is stored under.
func ReportKey(batchID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("broadcasts/v1/by-date/%d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), batchID)
}

// SaveReport writes the report as JSON and appends it to the monthly
// manifest. It returns the report's object key, or "" when disabled.
func (s *Store) SaveReport(ctx context.Context, report *dispatch.Report) (string, error) {
	if !s.Enabled() || report == nil {
		return "", nil
	}

	stored := *report
	stored.Results = make([]dispatch.Result, len(report.Results))
	for i, res := range report.Results {
		res.Body = RedactResponse(res.Body)
		stored.Results[i] = res
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("archive: marshal report: %w", err)
	}

	started := report.StartedAt
	if started.IsZero() {
		started = s.now()
	}
	key := ReportKey(report.BatchID, started)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}
	s.logger.Info("archived broadcast report", "batch_id", report.BatchID, "s3_key", key)

	entry := ManifestEntry{
		BatchID:        report.BatchID,
		S3Key:          key,
		Sender:         report.Sender,
		Records:        report.Records,
		Attempted:      report.Attempted,
		Failed:         report.Failed,
		InvalidNumbers: report.InvalidNumbers,
		Stopped:        report.Stopped,
		ArchivedAt:     s.now().UTC().Format(time.RFC3339),
	}
	if err := s.AppendManifest(ctx, entry); err != nil {
		s.logger.Warn("failed to append manifest", "error", err, "batch_id", report.BatchID)
	}
	return key, nil
}

// AppendManifest appends a JSONL line to the monthly manifest file.
// S3 has no append, so this is a read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := s.now().UTC()
	manifestKey := fmt.Sprintf("broadcasts/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	return errors.As(err, &nf)
}
