package mainconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	appconfig "github.com/wolfman30/event-sms-broadcaster/internal/config"
	"github.com/wolfman30/event-sms-broadcaster/internal/messaging"
	"github.com/wolfman30/event-sms-broadcaster/internal/notify"
	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

// LoadDotEnv reads .env files into the environment when present. Missing
// files are fine; real deployments set variables directly.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share the
// same LocalStack/production wiring.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

// NewS3Client builds the report archive client. An endpoint override (for
// LocalStack or MinIO) switches to path-style addressing.
func NewS3Client(awsCfg aws.Config, cfg *appconfig.Config) *s3.Client {
	endpoint := strings.TrimSpace(cfg.AWSEndpointOverride)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// ErrNoSMSProvider means no provider credentials were configured.
var ErrNoSMSProvider = errors.New("mainconfig: no sms provider configured")

// BuildSMSSender picks the outbound transport. Dry-run mode never touches a
// provider.
func BuildSMSSender(cfg *appconfig.Config, logger *logging.Logger) (messaging.Sender, string, error) {
	if cfg.DryRun {
		return messaging.NewLoggingSender(logger), "dry-run", nil
	}
	sender, provider, reason := messaging.BuildSender(messaging.ProviderSelectionConfig{
		Preference:       cfg.SMSProvider,
		DialpadAPIKey:    cfg.DialpadAPIKey,
		DialpadBaseURL:   cfg.DialpadBaseURL,
		TelnyxAPIKey:     cfg.TelnyxAPIKey,
		TelnyxProfileID:  cfg.TelnyxMessagingProfileID,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		Timeout:          cfg.SMSTimeout,
	}, logger)
	if sender == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrNoSMSProvider, reason)
	}
	return sender, provider, nil
}

// BuildEmailSender returns the SendGrid sender, or a stub when no API key is
// set.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		return sg
	}
	return notify.NewStubEmailSender(logger)
}
