package audit

import (
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Redaction and truncation markers.
const (
	// RedactedValue replaces sensitive values in audit records.
	RedactedValue = "[REDACTED]"

	// TruncationMarker terminates any truncated text field.
	TruncationMarker = "...[TRUNCATED]"
)

// Sanitizer redacts configured sensitive fields and truncates oversized text.
// All operations are idempotent: sanitizing already-sanitized input is a no-op.
type Sanitizer struct {
	fieldPatterns    []*regexp.Regexp
	sensitiveFields  map[string]struct{}
	sensitiveHeaders map[string]struct{}
}

// NewSanitizer creates a Sanitizer for the given sensitive field and header
// names. Matching is case-insensitive.
func NewSanitizer(fields, headers []string) *Sanitizer {
	s := &Sanitizer{
		fieldPatterns:    make([]*regexp.Regexp, 0, len(fields)),
		sensitiveFields:  make(map[string]struct{}, len(fields)),
		sensitiveHeaders: make(map[string]struct{}, len(headers)),
	}

	for _, field := range fields {
		s.sensitiveFields[strings.ToLower(field)] = struct{}{}
		// Matches `"field": <string-or-scalar>` preserving the key and
		// surrounding structure.
		pattern := `(?i)("` + regexp.QuoteMeta(field) + `"\s*:\s*)("(?:[^"\\]|\\.)*"|[^,}\]\s]+)`
		s.fieldPatterns = append(s.fieldPatterns, regexp.MustCompile(pattern))
	}

	for _, header := range headers {
		s.sensitiveHeaders[strings.ToLower(header)] = struct{}{}
	}

	return s
}

// SanitizeBody replaces the value of each sensitive JSON key with the
// redaction marker, leaving unrelated content untouched.
func (s *Sanitizer) SanitizeBody(body string) string {
	for _, pattern := range s.fieldPatterns {
		body = pattern.ReplaceAllString(body, `${1}"`+RedactedValue+`"`)
	}
	return body
}

// SanitizeForm redacts sensitive keys in a form-urlencoded body, preserving
// key order deterministically. Bodies that fail to parse fall back to JSON
// field redaction.
func (s *Sanitizer) SanitizeForm(body string) string {
	values, err := url.ParseQuery(body)
	if err != nil {
		return s.SanitizeBody(body)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, key := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(key)
		sb.WriteByte('=')
		if _, sensitive := s.sensitiveFields[strings.ToLower(key)]; sensitive {
			sb.WriteString(RedactedValue)
		} else {
			sb.WriteString(values.Get(key))
		}
	}
	return sb.String()
}

// SanitizeHeaders flattens headers to a single value each, replacing
// sensitive header values wholesale with the redaction marker.
func (s *Sanitizer) SanitizeHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		if _, sensitive := s.sensitiveHeaders[strings.ToLower(name)]; sensitive {
			result[name] = RedactedValue
			continue
		}
		result[name] = values[0]
	}
	return result
}

// SanitizeQuery flattens query parameters to a single value each, replacing
// sensitive parameter values with the redaction marker.
func (s *Sanitizer) SanitizeQuery(query url.Values) map[string]string {
	result := make(map[string]string, len(query))
	for name, values := range query {
		if len(values) == 0 {
			continue
		}
		if _, sensitive := s.sensitiveFields[strings.ToLower(name)]; sensitive {
			result[name] = RedactedValue
			continue
		}
		result[name] = values[0]
	}
	return result
}

// Truncate bounds text to max bytes. When the input exceeds the limit the
// result has length exactly max and ends with the truncation marker.
// Truncation is idempotent: output at or under the limit passes through.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}
	if max <= len(TruncationMarker) {
		return TruncationMarker[:max]
	}
	return text[:max-len(TruncationMarker)] + TruncationMarker
}

// TruncatePtr truncates a nullable text field in place.
func TruncatePtr(text *string, max int) *string {
	if text == nil {
		return nil
	}
	truncated := Truncate(*text, max)
	return &truncated
}
