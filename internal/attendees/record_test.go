package attendees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanEventName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Auto Summit", "Auto Summit"},
		{"Auto Summit-2025", "Auto Summit"},
		{"American Automotive Summit-2025", "American Automotive Summit"},
		{"Summit-2024 East-2025", "Summit-2024 East"},
		{"  Food Summit-7  ", "Food Summit"},
		{"Summit-", "Summit-"},
		{"Summit-abc", "Summit-abc"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanEventName(tt.in))
		})
	}
}

func TestCleanEventNameIdempotent(t *testing.T) {
	once := CleanEventName("Auto Summit-2025")
	assert.Equal(t, once, CleanEventName(once))
}

func TestExtract(t *testing.T) {
	row := map[string]string{
		ColumnEventName:       " US Auto Summit-2025 ",
		ColumnEventAcronym:    " AAS",
		ColumnAttendeeName:    "Jane Doe ",
		ColumnPhone:           " (555) 123-4567 ",
		ColumnMobile:          "",
		ColumnZoomPhone:       "555-123-4567",
		ColumnZoomMobilePhone: "+1 555 987 6543",
		ColumnUsername:        "jdoe",
		ColumnPassword:        " s3cret ",
	}
	rec := Extract(row)
	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, "US Auto Summit", rec.EventLabel)
	assert.Equal(t, "AAS", rec.EventAcronym)
	assert.Equal(t, "jdoe", rec.Username)
	assert.Equal(t, "s3cret", rec.Password)
	assert.Equal(t, []string{"(555) 123-4567", "", "555-123-4567", "+1 555 987 6543"}, rec.CandidateNumbers)
}

func TestExtractMissingColumns(t *testing.T) {
	rec := Extract(map[string]string{"Unrelated": "x"})
	assert.Equal(t, Record{CandidateNumbers: []string{"", "", "", ""}}, rec)

	rec = Extract(nil)
	assert.Empty(t, rec.Name)
	assert.Len(t, rec.CandidateNumbers, len(PhoneColumns))
}
