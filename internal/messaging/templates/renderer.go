package templates

import (
	"strings"
)

// Placeholder names understood in attendee message templates.
const (
	FieldName     = "name"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldCatalog  = "catalog"
	FieldEvent    = "event"
)

// RecordPlaceholders lists every recognized placeholder, in display order.
var RecordPlaceholders = []string{FieldName, FieldUsername, FieldPassword, FieldCatalog, FieldEvent}

// RecordFields builds the substitution map for one attendee.
func RecordFields(name, username, password, catalogURL, event string) map[string]string {
	return map[string]string{
		FieldName:     name,
		FieldUsername: username,
		FieldPassword: password,
		FieldCatalog:  catalogURL,
		FieldEvent:    event,
	}
}

// Renderer expands "{placeholder}" templates for outbound messaging.
//
// "{{" and "}}" produce literal braces. A placeholder may carry a format
// suffix after ':' or '!' which is ignored. Placeholders missing from the
// field map render as the empty string, and an unterminated "{" is copied
// through, so Render never fails.
type Renderer struct{}

// Render substitutes fields into tmpl.
func (Renderer) Render(tmpl string, fields map[string]string) string {
	var b strings.Builder
	b.Grow(len(tmpl))
	scan(tmpl, func(literal string) {
		b.WriteString(literal)
	}, func(key string) {
		b.WriteString(fields[key])
	})
	return b.String()
}

// Placeholders returns the distinct placeholder names used by tmpl in order
// of first appearance.
func (Renderer) Placeholders(tmpl string) []string {
	var out []string
	seen := map[string]struct{}{}
	scan(tmpl, func(string) {}, func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	})
	return out
}

// Blank reports whether tmpl renders to whitespace even when every attendee
// field is filled, e.g. a template made only of unknown placeholders.
func (r Renderer) Blank(tmpl string) bool {
	filled := make(map[string]string, len(RecordPlaceholders))
	for _, key := range RecordPlaceholders {
		filled[key] = key
	}
	return strings.TrimSpace(r.Render(tmpl, filled)) == ""
}

// Unknown returns the placeholders in tmpl that are not attendee fields.
// They still render, as empty strings.
func (r Renderer) Unknown(tmpl string) []string {
	known := make(map[string]struct{}, len(RecordPlaceholders))
	for _, key := range RecordPlaceholders {
		known[key] = struct{}{}
	}
	var out []string
	for _, key := range r.Placeholders(tmpl) {
		if _, ok := known[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}

func scan(tmpl string, literal func(string), placeholder func(string)) {
	for len(tmpl) > 0 {
		i := strings.IndexAny(tmpl, "{}")
		if i < 0 {
			literal(tmpl)
			return
		}
		literal(tmpl[:i])
		rest := tmpl[i:]
		switch {
		case strings.HasPrefix(rest, "{{"):
			literal("{")
			tmpl = rest[2:]
		case strings.HasPrefix(rest, "}}"):
			literal("}")
			tmpl = rest[2:]
		case rest[0] == '}':
			literal("}")
			tmpl = rest[1:]
		default:
			end := strings.IndexAny(rest[1:], "{}")
			if end < 0 || rest[1+end] != '}' {
				literal("{")
				tmpl = rest[1:]
				continue
			}
			placeholder(placeholderKey(rest[1 : 1+end]))
			tmpl = rest[end+2:]
		}
	}
}

func placeholderKey(body string) string {
	if i := strings.IndexAny(body, ":!"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}
