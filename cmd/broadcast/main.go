// Command broadcast sends one templated SMS per attendee number from a CSV
// export, then prints each result as a JSON line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wolfman30/event-sms-broadcaster/cmd/mainconfig"
	"github.com/wolfman30/event-sms-broadcaster/internal/attendees"
	"github.com/wolfman30/event-sms-broadcaster/internal/catalog"
	appconfig "github.com/wolfman30/event-sms-broadcaster/internal/config"
	"github.com/wolfman30/event-sms-broadcaster/internal/dispatch"
	"github.com/wolfman30/event-sms-broadcaster/internal/messaging"
	"github.com/wolfman30/event-sms-broadcaster/internal/messaging/templates"
	"github.com/wolfman30/event-sms-broadcaster/internal/phone"
	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

func main() {
	mainconfig.LoadDotEnv()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], appconfig.Load(), os.Stdout, os.Stderr, nil))
}

type options struct {
	file        string
	from        string
	message     string
	messageFile string
	dryRun      bool
	region      string
}

func parseFlags(args []string, cfg *appconfig.Config, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("broadcast", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.file, "file", "", "attendee export (.csv)")
	fs.StringVar(&opts.from, "from", "", "sender phone number")
	fs.StringVar(&opts.message, "message", "", "message template, e.g. \"Hi {name}, log in at {catalog}\"")
	fs.StringVar(&opts.messageFile, "message-file", "", "read the message template from a file")
	fs.DurationVar(&cfg.SendDelay, "delay", cfg.SendDelay, "pause between sends")
	fs.BoolVar(&opts.dryRun, "dry-run", cfg.DryRun, "log messages instead of sending them")
	fs.StringVar(&opts.region, "region", cfg.PhoneRegion, "default region for numbers without a country code")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.file == "" {
		return opts, errors.New("-file is required")
	}
	if strings.TrimSpace(opts.from) == "" {
		return opts, errors.New("-from is required")
	}
	if opts.messageFile != "" {
		if opts.message != "" {
			return opts, errors.New("use either -message or -message-file, not both")
		}
		data, err := os.ReadFile(opts.messageFile)
		if err != nil {
			return opts, fmt.Errorf("read message file: %w", err)
		}
		opts.message = strings.TrimRight(string(data), "\r\n")
	}
	if strings.TrimSpace(opts.message) == "" {
		return opts, errors.New("-message or -message-file is required")
	}
	if (templates.Renderer{}).Blank(opts.message) {
		return opts, errors.New("message has no text outside unknown placeholders")
	}
	cfg.DryRun = opts.dryRun
	return opts, nil
}

// run returns the process exit code: 0 when every send succeeded, 1 on
// setup errors or failed sends, 2 on bad usage. A nil sender is built from cfg.
func run(ctx context.Context, args []string, cfg *appconfig.Config, stdout, stderr io.Writer, sender messaging.Sender) int {
	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "broadcast:", err)
		}
		return 2
	}

	logger := logging.NewWithWriter(stderr, cfg.LogLevel)
	if sender == nil {
		var provider string
		sender, provider, err = mainconfig.BuildSMSSender(cfg, logger)
		if err != nil {
			fmt.Fprintln(stderr, "broadcast:", err)
			return 1
		}
		logger.Info("sms transport selected", "provider", provider)
	}

	f, err := os.Open(opts.file)
	if err != nil {
		fmt.Fprintln(stderr, "broadcast:", err)
		return 1
	}
	defer f.Close()

	batch, err := dispatch.LoadBatch(f, opts.from, opts.message)
	if err != nil {
		fmt.Fprintln(stderr, "broadcast:", err)
		return 1
	}
	if unknown := (templates.Renderer{}).Unknown(opts.message); len(unknown) > 0 {
		logger.Warn("message references unknown placeholders", "placeholders", unknown)
	}

	seq := dispatch.NewSequencer(
		dispatch.Config{
			Delay: cfg.SendDelay,
			Checkpoint: func(ctx context.Context, _ int, _ attendees.Record) error {
				return ctx.Err()
			},
		},
		sender,
		catalog.NewMapper(nil, cfg.CatalogDefaultSlug),
		phone.NewResolver(opts.region, logger),
		logger,
	)
	report, err := seq.Run(ctx, batch)
	if report == nil {
		fmt.Fprintln(stderr, "broadcast:", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	for _, res := range report.Results {
		_ = enc.Encode(res)
	}
	_ = enc.Encode(summaryLine{
		BatchID:        report.BatchID,
		Records:        report.Records,
		Attempted:      report.Attempted,
		Failed:         report.Failed,
		InvalidNumbers: report.InvalidNumbers,
		SkippedRecords: report.SkippedRecords,
		Stopped:        report.Stopped,
	})

	if err != nil {
		fmt.Fprintln(stderr, "broadcast:", err)
		return 1
	}
	if report.Failed > 0 {
		return 1
	}
	return 0
}

type summaryLine struct {
	BatchID        string `json:"batch_id"`
	Records        int    `json:"records"`
	Attempted      int    `json:"attempted"`
	Failed         int    `json:"failed"`
	InvalidNumbers int    `json:"invalid_numbers"`
	SkippedRecords int    `json:"skipped_records"`
	Stopped        bool   `json:"stopped,omitempty"`
}
