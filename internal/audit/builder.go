package audit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/openvms/gatekit/internal/identity"
	"github.com/openvms/gatekit/internal/observability"
)

// categoryRule maps a path substring to an event category. Rules are checked
// in priority order; the first match wins.
type categoryRule struct {
	substr   string
	category EventCategory
}

var categoryRules = []categoryRule{
	{"auth", CategoryAuthentication},
	{"login", CategoryAuthentication},
	{"logout", CategoryAuthentication},
	{"user", CategoryUserManagement},
	{"invitation", CategoryInvitation},
	{"invite", CategoryInvitation},
	{"visitor", CategoryVisitor},
	{"check-in", CategoryCheckInOut},
	{"checkin", CategoryCheckInOut},
	{"check-out", CategoryCheckInOut},
	{"checkout", CategoryCheckInOut},
	{"system", CategorySystemConfiguration},
	{"config", CategorySystemConfiguration},
	{"setting", CategorySystemConfiguration},
}

// CategoryForPath classifies a request path into an event category.
func CategoryForPath(path string) EventCategory {
	lower := strings.ToLower(path)
	for _, rule := range categoryRules {
		if strings.Contains(lower, rule.substr) {
			return rule.category
		}
	}
	return CategoryGeneral
}

// ActionFor derives the action verb from the HTTP method and path.
func ActionFor(method, path string) Action {
	lower := strings.ToLower(path)

	switch {
	case method == http.MethodPost && strings.Contains(lower, "logout"):
		return ActionLogout
	case method == http.MethodPost && strings.Contains(lower, "login"):
		return ActionLogin
	case method == http.MethodGet && strings.Contains(lower, "search"):
		return ActionSearch
	case strings.Contains(lower, "deactivate"):
		return ActionDeactivate
	case strings.Contains(lower, "activate"):
		return ActionActivate
	case strings.Contains(lower, "approve"):
		return ActionApprove
	case strings.Contains(lower, "deny"):
		return ActionDeny
	}

	switch method {
	case http.MethodGet:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut:
		return ActionUpdate
	case http.MethodPatch:
		return ActionPartialUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// highRiskSubstrings mark paths whose requests start at High risk.
var highRiskSubstrings = []string{"delete", "reset", "admin", "system"}

// mediumRiskSubstrings mark paths whose requests start at Medium risk.
var mediumRiskSubstrings = []string{"create", "update", "approve", "activate"}

// BaseRisk derives the initial risk level from the request shape alone.
func BaseRisk(method, path string) RiskLevel {
	lower := strings.ToLower(path)

	if method == http.MethodDelete {
		return RiskHigh
	}
	for _, s := range highRiskSubstrings {
		if strings.Contains(lower, s) {
			return RiskHigh
		}
	}

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		return RiskMedium
	}
	for _, s := range mediumRiskSubstrings {
		if strings.Contains(lower, s) {
			return RiskMedium
		}
	}

	return RiskLow
}

// EntityIDFromPath extracts the first purely numeric path segment, if any.
func EntityIDFromPath(path string) *int64 {
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		id, err := strconv.ParseInt(segment, 10, 64)
		if err == nil {
			return &id
		}
	}
	return nil
}

// EntityNameFromPath derives the entity name from the first meaningful path
// segment, skipping the API prefix and version segments.
func EntityNameFromPath(path string) string {
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || segment == "api" {
			continue
		}
		if len(segment) >= 2 && segment[0] == 'v' && isDigits(segment[1:]) {
			continue
		}
		if isDigits(segment) {
			continue
		}
		return segment
	}
	return "unknown"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Builder assembles audit entries from requests and responses. All derivation
// is deterministic given the request and the response status.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Begin populates an entry shell with request identity: classification,
// caller address, correlation ids, and the request-shape risk level.
func (b *Builder) Begin(r *http.Request) *Entry {
	entry := NewEntry()
	path := r.URL.Path

	entry.Category = CategoryForPath(path)
	entry.Action = ActionFor(r.Method, path)
	entry.EntityName = EntityNameFromPath(path)
	entry.EntityID = EntityIDFromPath(path)
	entry.RiskLevel = BaseRisk(r.Method, path)
	entry.Description = fmt.Sprintf("%s %s", entry.Action, entry.EntityName)

	entry.HTTPMethod = r.Method
	entry.RequestPath = r.URL.RequestURI()
	entry.IPAddress = identity.ClientIP(r)
	entry.UserAgent = r.UserAgent()
	entry.RequestSize = r.ContentLength

	ctx := r.Context()
	entry.RequestID = observability.RequestIDFromContext(ctx)
	entry.SessionID = observability.SessionIDFromContext(ctx)
	entry.CorrelationID = correlationID(ctx, entry.RequestID)

	if id := identity.FromContext(ctx); id != nil {
		entry.UserID = &id.UserID
	}

	return entry
}

// Complete mutates the entry with response outcome: status, duration, sizes,
// and post-response risk escalation. A 5xx forces High risk and flags the
// entry for attention; a 4xx raises risk to at least Medium.
func (b *Builder) Complete(entry *Entry, status int, duration time.Duration, responseSize int64) {
	entry.StatusCode = status
	entry.Success = status < http.StatusBadRequest
	entry.DurationMs = duration.Milliseconds()
	entry.ResponseSize = responseSize

	switch {
	case status >= http.StatusInternalServerError:
		entry.Escalate(RiskHigh)
		entry.RequiresAttention = true
	case status >= http.StatusBadRequest:
		entry.Escalate(RiskMedium)
	}
}

// Fail records a downstream failure on the entry. The error message and
// detail are truncated by the persister's column-aware pass.
func (b *Builder) Fail(entry *Entry, message, detail string, includeDetail bool) {
	entry.Success = false
	entry.Escalate(RiskHigh)
	entry.RequiresAttention = true
	entry.ErrorMessage = StrPtr(message)
	if includeDetail && detail != "" {
		entry.ExceptionDetail = StrPtr(detail)
	}
}

// correlationID prefers the OpenTelemetry trace ID when a span is recording,
// falling back to the request ID.
func correlationID(ctx context.Context, requestID string) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return requestID
}
