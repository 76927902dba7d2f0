package phone

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/event-sms-broadcaster/pkg/logging"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   string
	}{
		{"us parens", "(555) 123-4567", "US", "+15551234567"},
		{"us dashes", "555-123-4567", "US", "+15551234567"},
		{"us digits", "5551234567", "", "+15551234567"},
		{"us with trunk", "1 555 123 4567", "US", "+15551234567"},
		{"explicit country", "+44 20 7946 0958", "US", "+442079460958"},
		{"gb national", "020 7946 0958", "GB", "+442079460958"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, raw := range []string{"", "notaphone", "12"} {
		_, err := Normalize(raw, "US")
		assert.Error(t, err, raw)
	}
}

func TestResolveCollapsesFormats(t *testing.T) {
	r := NewResolver("us", logging.NewWithWriter(&bytes.Buffer{}, "info"))
	numbers, rejected := r.Resolve("Jane", []string{"555-123-4567", "5551234567", "", "555-123-4567"})
	assert.Equal(t, []string{"+15551234567"}, numbers)
	assert.Empty(t, rejected)
	assert.Equal(t, "US", r.Region())
}

func TestResolveKeepsFirstSeenOrder(t *testing.T) {
	r := NewResolver("", logging.NewWithWriter(&bytes.Buffer{}, "info"))
	numbers, _ := r.Resolve("Jane", []string{"(555) 987-6543", "", "555-123-4567", "+1 555 987 6543"})
	assert.Equal(t, []string{"+15559876543", "+15551234567"}, numbers)
}

func TestResolveLogsInvalid(t *testing.T) {
	var buf bytes.Buffer
	r := NewResolver("US", logging.NewWithWriter(&buf, "info"))
	numbers, rejected := r.Resolve("Bo Park", []string{"notaphone", "", "", ""})
	assert.Empty(t, numbers)
	assert.Equal(t, []string{"notaphone"}, rejected)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"level":"WARN"`)
	assert.Contains(t, lines[0], `"raw_number":"notaphone"`)
	assert.Contains(t, lines[0], `"record_name":"Bo Park"`)
}

func TestResolveNothing(t *testing.T) {
	r := NewResolver("US", nil)
	numbers, rejected := r.Resolve("x", nil)
	assert.Empty(t, numbers)
	assert.Empty(t, rejected)
}
