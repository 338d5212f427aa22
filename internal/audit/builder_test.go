package audit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvms/gatekit/internal/identity"
	"github.com/openvms/gatekit/internal/observability"
)

// ============================================================================
// Test Cases for Request Classification
// ============================================================================

func TestCategoryForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected EventCategory
	}{
		{"/api/auth/login", CategoryAuthentication},
		{"/api/logout", CategoryAuthentication},
		{"/api/users/5", CategoryUserManagement},
		{"/api/invitations", CategoryInvitation},
		{"/api/invites/pending", CategoryInvitation},
		{"/api/visitors/search", CategoryVisitor},
		{"/api/check-in", CategoryCheckInOut},
		{"/api/checkout/3", CategoryCheckInOut},
		{"/api/system/settings", CategorySystemConfiguration},
		{"/api/config", CategorySystemConfiguration},
		{"/api/reports", CategoryGeneral},
		{"/API/USERS", CategoryUserManagement},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryForPath(tt.path))
		})
	}
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected Action
	}{
		{"post login", http.MethodPost, "/api/auth/login", ActionLogin},
		{"post logout", http.MethodPost, "/api/auth/logout", ActionLogout},
		{"get search", http.MethodGet, "/api/visitors/search", ActionSearch},
		{"deactivate wins over activate substring", http.MethodPost, "/api/users/5/deactivate", ActionDeactivate},
		{"activate", http.MethodPost, "/api/users/5/activate", ActionActivate},
		{"approve", http.MethodPost, "/api/invitations/9/approve", ActionApprove},
		{"deny", http.MethodPost, "/api/invitations/9/deny", ActionDeny},
		{"plain get", http.MethodGet, "/api/visitors", ActionRead},
		{"plain post", http.MethodPost, "/api/visitors", ActionCreate},
		{"put", http.MethodPut, "/api/visitors/2", ActionUpdate},
		{"patch", http.MethodPatch, "/api/visitors/2", ActionPartialUpdate},
		{"delete", http.MethodDelete, "/api/visitors/2", ActionDelete},
		{"unknown method defaults to read", "OPTIONS", "/api/visitors", ActionRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ActionFor(tt.method, tt.path))
		})
	}
}

func TestBaseRisk(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		expected RiskLevel
	}{
		{"delete method", http.MethodDelete, "/api/visitors/1", RiskHigh},
		{"admin path", http.MethodGet, "/api/admin/users", RiskHigh},
		{"reset path", http.MethodPost, "/api/auth/reset", RiskHigh},
		{"system path", http.MethodGet, "/api/system/info", RiskHigh},
		{"post", http.MethodPost, "/api/visitors", RiskMedium},
		{"put", http.MethodPut, "/api/visitors/1", RiskMedium},
		{"patch", http.MethodPatch, "/api/visitors/1", RiskMedium},
		{"get approve path", http.MethodGet, "/api/approvers", RiskMedium},
		{"plain get", http.MethodGet, "/api/visitors", RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BaseRisk(tt.method, tt.path))
		})
	}
}

func TestEntityIDFromPath(t *testing.T) {
	id := EntityIDFromPath("/api/v1/visitors/42/badge")
	require.NotNil(t, id)
	assert.Equal(t, int64(42), *id)

	assert.Nil(t, EntityIDFromPath("/api/visitors"))
	assert.Nil(t, EntityIDFromPath("/"))
}

func TestEntityNameFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/v1/visitors/42", "visitors"},
		{"/api/users", "users"},
		{"/visitors", "visitors"},
		{"/api/v2/7/details", "details"},
		{"/", "unknown"},
		{"/api/v1", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, EntityNameFromPath(tt.path))
		})
	}
}

// ============================================================================
// Test Cases for Builder
// ============================================================================

func TestBuilder_Begin(t *testing.T) {
	b := NewBuilder()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/visitors/42/check-in?badge=7", nil)
	r.RemoteAddr = "203.0.113.9:51234"
	r.Header.Set("User-Agent", "test-agent")
	r.ContentLength = 128

	ctx := observability.ContextWithRequestID(r.Context(), "req-1")
	ctx = observability.ContextWithSessionID(ctx, "sess-1")
	ctx = identity.ContextWithIdentity(ctx, &identity.Identity{UserID: 99})
	r = r.WithContext(ctx)

	entry := b.Begin(r)

	assert.Equal(t, CategoryVisitor, entry.Category)
	assert.Equal(t, ActionCreate, entry.Action)
	assert.Equal(t, "visitors", entry.EntityName)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, int64(42), *entry.EntityID)
	assert.Equal(t, RiskMedium, entry.RiskLevel)
	assert.Equal(t, http.MethodPost, entry.HTTPMethod)
	assert.Equal(t, "/api/v1/visitors/42/check-in?badge=7", entry.RequestPath)
	assert.Equal(t, "203.0.113.9", entry.IPAddress)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.Equal(t, int64(128), entry.RequestSize)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.Equal(t, "req-1", entry.CorrelationID, "falls back to request id without a trace")
	require.NotNil(t, entry.UserID)
	assert.Equal(t, int64(99), *entry.UserID)
}

func TestBuilder_Complete(t *testing.T) {
	tests := []struct {
		name              string
		status            int
		expectedSuccess   bool
		expectedRisk      RiskLevel
		expectedAttention bool
	}{
		{"2xx success", http.StatusOK, true, RiskLow, false},
		{"3xx success", http.StatusFound, true, RiskLow, false},
		{"4xx escalates to medium", http.StatusNotFound, false, RiskMedium, false},
		{"429 escalates to medium", http.StatusTooManyRequests, false, RiskMedium, false},
		{"5xx escalates to high with attention", http.StatusBadGateway, false, RiskHigh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			entry := NewEntry()

			b.Complete(entry, tt.status, 125*time.Millisecond, 2048)

			assert.Equal(t, tt.status, entry.StatusCode)
			assert.Equal(t, tt.expectedSuccess, entry.Success)
			assert.Equal(t, tt.expectedRisk, entry.RiskLevel)
			assert.Equal(t, tt.expectedAttention, entry.RequiresAttention)
			assert.Equal(t, int64(125), entry.DurationMs)
			assert.Equal(t, int64(2048), entry.ResponseSize)
		})
	}
}

func TestBuilder_Complete_NeverLowersRisk(t *testing.T) {
	b := NewBuilder()
	entry := NewEntry()
	entry.RiskLevel = RiskHigh

	b.Complete(entry, http.StatusOK, time.Millisecond, 0)

	assert.Equal(t, RiskHigh, entry.RiskLevel)
}

func TestBuilder_Fail(t *testing.T) {
	b := NewBuilder()

	t.Run("with detail", func(t *testing.T) {
		entry := NewEntry()
		b.Fail(entry, "panic: boom", "goroutine 1 [running]", true)

		assert.False(t, entry.Success)
		assert.Equal(t, RiskHigh, entry.RiskLevel)
		assert.True(t, entry.RequiresAttention)
		require.NotNil(t, entry.ErrorMessage)
		assert.Equal(t, "panic: boom", *entry.ErrorMessage)
		require.NotNil(t, entry.ExceptionDetail)
		assert.Equal(t, "goroutine 1 [running]", *entry.ExceptionDetail)
	})

	t.Run("detail suppressed", func(t *testing.T) {
		entry := NewEntry()
		b.Fail(entry, "panic: boom", "goroutine 1 [running]", false)

		require.NotNil(t, entry.ErrorMessage)
		assert.Nil(t, entry.ExceptionDetail)
	})
}
