package archive

import "strings"

// messageKeys are provider response fields that echo the rendered message,
// which may contain a portal password.
var messageKeys = map[string]struct{}{
	"text":    {},
	"body":    {},
	"message": {},
}

const redacted = "[REDACTED]"

// RedactResponse returns a copy of a provider response body with any echoed
// message text replaced, at any depth. The input is not modified.
func RedactResponse(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		if _, ok := messageKeys[strings.ToLower(k)]; ok {
			if _, isString := v.(string); isString {
				out[k] = redacted
				continue
			}
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return RedactResponse(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = redactValue(item)
		}
		return items
	default:
		return v
	}
}
