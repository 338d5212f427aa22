// Package audit builds, sanitizes, and persists the audit trail for each
// HTTP request/response cycle.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies the business area an audited request touches.
type EventCategory string

// Event categories.
const (
	CategoryAuthentication      EventCategory = "Authentication"
	CategoryUserManagement      EventCategory = "UserManagement"
	CategoryInvitation          EventCategory = "Invitation"
	CategoryVisitor             EventCategory = "Visitor"
	CategoryCheckInOut          EventCategory = "CheckInOut"
	CategorySystemConfiguration EventCategory = "SystemConfiguration"
	CategoryGeneral             EventCategory = "General"
)

// Action is the verb describing what the request did.
type Action string

// Actions.
const (
	ActionRead          Action = "Read"
	ActionSearch        Action = "Search"
	ActionCreate        Action = "Create"
	ActionLogin         Action = "Login"
	ActionLogout        Action = "Logout"
	ActionActivate      Action = "Activate"
	ActionDeactivate    Action = "Deactivate"
	ActionApprove       Action = "Approve"
	ActionDeny          Action = "Deny"
	ActionUpdate        Action = "Update"
	ActionPartialUpdate Action = "PartialUpdate"
	ActionDelete        Action = "Delete"
)

// RiskLevel grades how much attention an audit entry deserves.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// riskRank orders risk levels for monotonic escalation.
func riskRank(level RiskLevel) int {
	switch level {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	default:
		return 1
	}
}

// Escalate raises the risk level, never lowering it.
func (e *Entry) Escalate(level RiskLevel) {
	if riskRank(level) > riskRank(e.RiskLevel) {
		e.RiskLevel = level
	}
}

// Entry is one audit record describing a single request/response cycle.
// It is created as a shell at request start, mutated in place as the response
// completes, and persisted exactly once.
type Entry struct {
	ID            string        `json:"id"`
	Category      EventCategory `json:"category"`
	EntityName    string        `json:"entityName"`
	EntityID      *int64        `json:"entityId,omitempty"`
	Action        Action        `json:"action"`
	Description   string        `json:"description"`
	OldValues     *string       `json:"oldValues,omitempty"`
	NewValues     *string       `json:"newValues,omitempty"`
	Metadata      *string       `json:"metadata,omitempty"`
	UserID        *int64        `json:"userId,omitempty"`
	IPAddress     string        `json:"ipAddress"`
	UserAgent     string        `json:"userAgent"`
	CorrelationID string        `json:"correlationId"`
	SessionID     string        `json:"sessionId,omitempty"`
	RequestID     string        `json:"requestId"`
	HTTPMethod    string        `json:"httpMethod"`
	RequestPath   string        `json:"requestPath"`
	StatusCode    int           `json:"statusCode"`
	Success       bool          `json:"success"`
	DurationMs    int64         `json:"durationMs"`
	RequestSize   int64         `json:"requestSize"`
	ResponseSize  int64         `json:"responseSize"`
	ErrorMessage  *string       `json:"errorMessage,omitempty"`
	ExceptionDetail *string     `json:"exceptionDetail,omitempty"`
	RiskLevel     RiskLevel     `json:"riskLevel"`

	// RequiresAttention flags entries an operator should review promptly.
	RequiresAttention bool `json:"requiresAttention"`

	// Review state, updated only by an out-of-band manual review process.
	Reviewed       bool       `json:"reviewed"`
	ReviewedBy     *string    `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
	ReviewComments *string    `json:"reviewComments,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewEntry creates an entry shell with a fresh ID and creation timestamp.
func NewEntry() *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Category:  CategoryGeneral,
		RiskLevel: RiskLow,
		CreatedAt: time.Now().UTC(),
	}
}

// StrPtr returns a pointer to s, for the entry's nullable text fields.
func StrPtr(s string) *string {
	return &s
}
