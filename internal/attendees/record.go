package attendees

import (
	"regexp"
	"strings"
)

// Column headers of the attendee export.
const (
	ColumnEventName       = "Event: Event Name"
	ColumnEventAcronym    = "Event Acronym"
	ColumnAttendeeName    = "Event Attendee: Event Attendee Name"
	ColumnPhone           = "Phone"
	ColumnMobile          = "Mobile"
	ColumnZoomPhone       = "Zoom Phone"
	ColumnZoomMobilePhone = "Zoom Mobile Phone"
	ColumnUsername        = "Username"
	ColumnPassword        = "Password"
)

// PhoneColumns lists the columns that may carry a dialable number, in the
// order their values populate Record.CandidateNumbers.
var PhoneColumns = []string{ColumnPhone, ColumnMobile, ColumnZoomPhone, ColumnZoomMobilePhone}

var trailingYearSuffix = regexp.MustCompile(`-\d+$`)

// Record is one attendee extracted from a single export row.
type Record struct {
	Name             string   `json:"name"`
	EventLabel       string   `json:"event_label"`
	EventAcronym     string   `json:"event_acronym"`
	Username         string   `json:"username"`
	Password         string   `json:"-"`
	CandidateNumbers []string `json:"candidate_numbers"`
}

// Extract builds a Record from a header-keyed row. Absent columns become
// empty strings; it never fails.
func Extract(row map[string]string) Record {
	get := func(column string) string {
		return strings.TrimSpace(row[column])
	}
	numbers := make([]string, 0, len(PhoneColumns))
	for _, column := range PhoneColumns {
		numbers = append(numbers, get(column))
	}
	return Record{
		Name:             get(ColumnAttendeeName),
		EventLabel:       CleanEventName(get(ColumnEventName)),
		EventAcronym:     get(ColumnEventAcronym),
		Username:         get(ColumnUsername),
		Password:         get(ColumnPassword),
		CandidateNumbers: numbers,
	}
}

// CleanEventName strips one trailing "-<digits>" edition suffix, e.g.
// "American Automotive Summit-2025" -> "American Automotive Summit".
func CleanEventName(name string) string {
	name = strings.TrimSpace(name)
	return strings.TrimSpace(trailingYearSuffix.ReplaceAllString(name, ""))
}
