package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/wolfman30/event-sms-broadcaster/internal/dispatch"
	"github.com/wolfman30/event-sms-broadcaster/internal/http/middleware"
	"github.com/wolfman30/event-sms-broadcaster/internal/messaging/templates"
	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

const defaultMaxUploadBytes = 10 << 20

type batchRunner interface {
	Run(ctx context.Context, batch dispatch.Batch) (*dispatch.Report, error)
}

type reportArchiver interface {
	SaveReport(ctx context.Context, report *dispatch.Report) (string, error)
}

type reportNotifier interface {
	NotifyReport(ctx context.Context, report *dispatch.Report) error
}

// BroadcastHandler accepts an attendee table upload and runs the broadcast
// synchronously.
type BroadcastHandler struct {
	runner         batchRunner
	archive        reportArchiver
	notifier       reportNotifier
	renderer       templates.Renderer
	logger         *logging.Logger
	maxUploadBytes int64
}

type BroadcastConfig struct {
	Runner         batchRunner
	Archive        reportArchiver
	Notifier       reportNotifier
	Logger         *logging.Logger
	MaxUploadBytes int64
}

func NewBroadcastHandler(cfg BroadcastConfig) *BroadcastHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &BroadcastHandler{
		runner:         cfg.Runner,
		archive:        cfg.Archive,
		notifier:       cfg.Notifier,
		logger:         cfg.Logger,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

type broadcastResult struct {
	Number     string         `json:"number"`
	StatusCode int            `json:"status_code"`
	Response   map[string]any `json:"response"`
	Error      string         `json:"error,omitempty"`
}

type broadcastResponse struct {
	BatchID        string            `json:"batch_id"`
	Records        int               `json:"records"`
	Attempted      int               `json:"attempted"`
	Sent           int               `json:"sent"`
	Failed         int               `json:"failed"`
	InvalidNumbers int               `json:"invalid_numbers"`
	SkippedRecords int               `json:"skipped_records"`
	Stopped        bool              `json:"stopped,omitempty"`
	ReportKey      string            `json:"report_key,omitempty"`
	Results        []broadcastResult `json:"results"`
	Warnings       []string          `json:"warnings"`
}

// Create handles POST /broadcasts. Every input is validated before the
// first provider call; once sending starts the batch runs to completion
// even if the client disconnects.
func (h *BroadcastHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "broadcasts are not configured")
		return
	}
	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	sender := strings.TrimSpace(r.FormValue("sender_number"))
	if sender == "" {
		writeError(w, http.StatusBadRequest, "sender_number is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if !allowedTableFile(header.Filename) {
		writeError(w, http.StatusBadRequest, "file must be a .csv export")
		return
	}
	message := r.FormValue("message")
	if strings.TrimSpace(message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if h.renderer.Blank(message) {
		writeError(w, http.StatusBadRequest, "message has no text outside unknown placeholders")
		return
	}

	batch, err := dispatch.LoadBatch(file, sender, message)
	if err != nil {
		h.logger.Warn("rejecting unreadable attendee table", "filename", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "could not read attendee table: "+err.Error())
		return
	}

	logger := h.logger.With("batch_id", batch.ID, "request_id", middleware.RequestIDFromContext(r.Context()))
	if claims, ok := middleware.OperatorFromContext(r.Context()); ok {
		logger = logger.With("operator", claims.Subject)
	}
	warnings := h.renderer.Unknown(message)
	if len(warnings) > 0 {
		logger.Warn("message references unknown placeholders", "placeholders", warnings)
	}

	ctx := context.WithoutCancel(r.Context())
	report, err := h.runner.Run(ctx, batch)
	if report == nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dispatch.ErrSenderRequired) {
			status = http.StatusBadRequest
		}
		logger.Error("broadcast failed to start", "error", err)
		writeError(w, status, "broadcast failed to start")
		return
	}
	if err != nil {
		logger.Warn("broadcast stopped early", "error", err)
	}

	resp := newBroadcastResponse(report, warnings)
	resp.ReportKey = h.publish(ctx, logger, report)
	writeJSON(w, http.StatusOK, resp)
}

// publish archives and announces a finished report. Failures are logged and
// never change the response.
func (h *BroadcastHandler) publish(ctx context.Context, logger *logging.Logger, report *dispatch.Report) string {
	var key string
	if h.archive != nil {
		k, err := h.archive.SaveReport(ctx, report)
		if err != nil {
			logger.Error("failed to archive broadcast report", "error", err)
		} else {
			key = k
		}
	}
	if h.notifier != nil {
		if err := h.notifier.NotifyReport(ctx, report); err != nil {
			logger.Error("failed to send broadcast summary", "error", err)
		}
	}
	return key
}

func newBroadcastResponse(report *dispatch.Report, warnings []string) broadcastResponse {
	if warnings == nil {
		warnings = []string{}
	}
	results := make([]broadcastResult, 0, len(report.Results))
	for _, res := range report.Results {
		results = append(results, broadcastResult{
			Number:     res.Number,
			StatusCode: res.StatusCode,
			Response:   res.Body,
			Error:      res.Error,
		})
	}
	return broadcastResponse{
		BatchID:        report.BatchID,
		Records:        report.Records,
		Attempted:      report.Attempted,
		Sent:           report.Attempted - report.Failed,
		Failed:         report.Failed,
		InvalidNumbers: report.InvalidNumbers,
		SkippedRecords: report.SkippedRecords,
		Stopped:        report.Stopped,
		Results:        results,
		Warnings:       warnings,
	}
}

func allowedTableFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
