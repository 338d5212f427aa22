package audit

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/openvms/gatekit/internal/config"
)

// Per-field caps inside the metadata payload.
const (
	metadataBodyCap    = 1000
	metadataHeaderCap  = 200
	metadataPreviewCap = 100
)

// SummaryNote is recorded when the full metadata payload exceeded the hard
// cap and was replaced by a summary.
const SummaryNote = "metadata summarized: full payload exceeded size limit"

// importantHeaders is the subset of request headers worth auditing.
var importantHeaders = []string{
	"Accept",
	"Content-Type",
	"User-Agent",
	"Origin",
	"Host",
	"Content-Length",
}

// MetadataBuilder renders the bounded metadata JSON for an audit entry,
// degrading to a summary when the full payload would exceed the hard cap.
type MetadataBuilder struct {
	cfg       *config.AuditConfig
	sanitizer *Sanitizer
}

// NewMetadataBuilder creates a MetadataBuilder.
func NewMetadataBuilder(cfg *config.AuditConfig, sanitizer *Sanitizer) *MetadataBuilder {
	return &MetadataBuilder{cfg: cfg, sanitizer: sanitizer}
}

// CaptureEligible reports whether the request body may be captured: the
// feature flag is on, the content type is JSON or form-urlencoded, the
// declared length is within the cap, and the path is not sensitive.
func (m *MetadataBuilder) CaptureEligible(r *http.Request) bool {
	if !m.cfg.IncludeRequestBody {
		return false
	}

	contentType := r.Header.Get("Content-Type")
	if !isJSONContent(contentType) && !isFormContent(contentType) {
		return false
	}

	if r.ContentLength > m.cfg.GetEffectiveMaxBodyCaptureBytes() {
		return false
	}

	return !m.isSensitivePath(r.URL.Path)
}

// isSensitivePath reports whether the path matches a configured
// sensitive-path pattern.
func (m *MetadataBuilder) isSensitivePath(path string) bool {
	lower := strings.ToLower(path)
	for _, sensitive := range m.cfg.SensitivePaths {
		if strings.Contains(lower, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}

func isJSONContent(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

func isFormContent(contentType string) bool {
	return strings.Contains(contentType, "application/x-www-form-urlencoded")
}

// detailPayload is the full metadata payload.
type detailPayload struct {
	Body    string            `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
}

// summaryPayload replaces detailPayload when the serialized detail exceeds
// the hard cap.
type summaryPayload struct {
	BodySize        int    `json:"bodySize"`
	BodyPreview     string `json:"bodyPreview,omitempty"`
	HeaderCount     int    `json:"headerCount"`
	QueryParamCount int    `json:"queryParamCount"`
	ContentType     string `json:"contentType,omitempty"`
	UserAgent       string `json:"userAgent,omitempty"`
	Note            string `json:"note"`
}

// Build assembles the compact metadata JSON for the request. body is the raw
// captured request body, empty when capture was ineligible. The returned
// string never exceeds the configured hard cap.
func (m *MetadataBuilder) Build(r *http.Request, body string) string {
	hardCap := m.cfg.GetEffectiveMaxMetadataBytes()
	sanitizedBody := m.sanitizeBody(r, body)

	detail := detailPayload{
		Body:    Truncate(sanitizedBody, metadataBodyCap),
		Headers: m.importantHeaders(r),
		Query:   m.sanitizer.SanitizeQuery(r.URL.Query()),
	}

	serialized, err := json.Marshal(detail)
	if err == nil && len(serialized) <= hardCap {
		return string(serialized)
	}

	summary := summaryPayload{
		BodySize:        len(body),
		BodyPreview:     Truncate(sanitizedBody, metadataPreviewCap),
		HeaderCount:     len(r.Header),
		QueryParamCount: len(r.URL.Query()),
		ContentType:     r.Header.Get("Content-Type"),
		UserAgent:       Truncate(r.UserAgent(), metadataHeaderCap),
		Note:            SummaryNote,
	}

	serialized, err = json.Marshal(summary)
	if err != nil {
		return `{"note":"` + SummaryNote + `"}`
	}

	// Final safety net: the summary itself never exceeds the hard cap.
	return Truncate(string(serialized), hardCap)
}

// sanitizeBody applies the redaction appropriate for the body content type.
func (m *MetadataBuilder) sanitizeBody(r *http.Request, body string) string {
	if body == "" {
		return ""
	}
	if isFormContent(r.Header.Get("Content-Type")) {
		return m.sanitizer.SanitizeForm(body)
	}
	return m.sanitizer.SanitizeBody(body)
}

// importantHeaders extracts the audited header subset, sanitized and bounded.
func (m *MetadataBuilder) importantHeaders(r *http.Request) map[string]string {
	sanitized := m.sanitizer.SanitizeHeaders(r.Header)
	result := make(map[string]string, len(importantHeaders))
	for _, name := range importantHeaders {
		if value, ok := sanitized[http.CanonicalHeaderKey(name)]; ok {
			result[name] = Truncate(value, metadataHeaderCap)
		}
	}
	if host := r.Host; host != "" {
		result["Host"] = Truncate(host, metadataHeaderCap)
	}
	return result
}
