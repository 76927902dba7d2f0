package messaging

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

const (
	// SMSProviderAuto picks the first configured provider: Dialpad, Telnyx, then Twilio.
	SMSProviderAuto = "auto"
	// SMSProviderDialpad forces the Dialpad sender when credentials exist.
	SMSProviderDialpad = "dialpad"
	// SMSProviderTelnyx forces the Telnyx sender when credentials exist.
	SMSProviderTelnyx = "telnyx"
	// SMSProviderTwilio forces the Twilio sender when credentials exist.
	SMSProviderTwilio = "twilio"
)

// ProviderSelectionConfig captures the credentials required to build outbound senders.
type ProviderSelectionConfig struct {
	Preference       string
	DialpadAPIKey    string
	DialpadBaseURL   string
	TelnyxAPIKey     string
	TelnyxProfileID  string
	TwilioAccountSID string
	TwilioAuthToken  string
	Timeout          time.Duration
}

// BuildSender instantiates a Sender based on the preferred provider.
// It returns the sender, the provider that was selected, and a reason when no provider could be initialized.
// Only one provider is ever used for a batch; there is no failover between them.
func BuildSender(cfg ProviderSelectionConfig, logger *logging.Logger) (Sender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.Preference))
	if preference == "" {
		preference = SMSProviderAuto
	}

	senders := map[string]Sender{}
	missing := map[string]string{}

	if cfg.DialpadAPIKey != "" {
		senders[SMSProviderDialpad] = NewDialpadSender(cfg.DialpadAPIKey, logger).
			WithBaseURL(cfg.DialpadBaseURL).
			WithTimeout(cfg.Timeout)
	} else {
		missing[SMSProviderDialpad] = "DIALPAD_API_KEY missing"
	}

	if cfg.TelnyxAPIKey != "" {
		senders[SMSProviderTelnyx] = NewTelnyxSender(cfg.TelnyxAPIKey, cfg.TelnyxProfileID, logger).
			WithTimeout(cfg.Timeout)
	} else {
		missing[SMSProviderTelnyx] = "TELNYX_API_KEY missing"
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		senders[SMSProviderTwilio] = NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, logger).
			WithTimeout(cfg.Timeout)
	} else {
		var reasons []string
		if cfg.TwilioAccountSID == "" {
			reasons = append(reasons, "TWILIO_ACCOUNT_SID missing")
		}
		if cfg.TwilioAuthToken == "" {
			reasons = append(reasons, "TWILIO_AUTH_TOKEN missing")
		}
		missing[SMSProviderTwilio] = strings.Join(reasons, ", ")
	}

	if preference != SMSProviderAuto {
		if sender, ok := senders[preference]; ok {
			return sender, preference, ""
		}
		reason := missing[preference]
		if reason == "" {
			reason = fmt.Sprintf("%s sender not supported", preference)
		}
		return nil, "", reason
	}

	var reasons []string
	for _, provider := range []string{SMSProviderDialpad, SMSProviderTelnyx, SMSProviderTwilio} {
		if sender, ok := senders[provider]; ok {
			return sender, provider, ""
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", provider, missing[provider]))
	}
	return nil, "", strings.Join(reasons, "; ")
}
