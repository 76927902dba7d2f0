package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

// DefaultRegion is the region hint used when a number carries no country code.
const DefaultRegion = "US"

// ErrNotPossible is returned for input that parses but cannot be a dialable number.
var ErrNotPossible = errors.New("phone: not a possible number")

// Normalize parses raw with the given region hint and formats it as E.164.
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("phone: empty number")
	}
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("phone: parse %q: %w", raw, err)
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", fmt.Errorf("phone: %q: %w", raw, ErrNotPossible)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Resolver turns an attendee's candidate phone fields into unique
// dispatch-ready E.164 numbers. It holds no mutable state and is safe to
// share between batches.
type Resolver struct {
	region string
	logger *logging.Logger
}

// NewResolver builds a resolver for the given region hint.
func NewResolver(region string, logger *logging.Logger) *Resolver {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{region: region, logger: logger}
}

// Region reports the region hint used for numbers without a country code.
func (r *Resolver) Region() string {
	return r.region
}

// Resolve returns the unique canonical numbers among candidates, in the order
// they were first seen, along with the raw values that could not be parsed.
// Each rejected value is logged at warn level with the attendee name.
func (r *Resolver) Resolve(name string, candidates []string) (numbers []string, rejected []string) {
	seenRaw := make(map[string]struct{}, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, ok := seenRaw[raw]; ok {
			continue
		}
		seenRaw[raw] = struct{}{}

		e164, err := Normalize(raw, r.region)
		if err != nil {
			r.logger.Warn("skipping invalid phone number",
				"record_name", name,
				"raw_number", raw,
				"error", err,
			)
			rejected = append(rejected, raw)
			continue
		}
		if _, ok := seen[e164]; ok {
			continue
		}
		seen[e164] = struct{}{}
		numbers = append(numbers, e164)
	}
	return numbers, rejected
}
