package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Cases for Logger
// ============================================================================

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"json format", LogConfig{Level: "info", Format: "json"}, false},
		{"console format", LogConfig{Level: "debug", Format: "console"}, false},
		{"stderr output", LogConfig{Level: "warn", Format: "json", Output: "stderr"}, false},
		{"invalid level", LogConfig{Level: "verbose", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Info("test message", String("key", "value"))
		})
	}
}

func TestLogger_With(t *testing.T) {
	logger := NopLogger()
	child := logger.With(String("component", "test"))
	require.NotNil(t, child)
	child.Info("msg")
}

func TestLogger_WithContext(t *testing.T) {
	logger := NopLogger()

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")

	enriched := logger.WithContext(ctx)
	require.NotNil(t, enriched)
	enriched.Info("msg")

	// No context values: same logger comes back.
	assert.Equal(t, logger, logger.WithContext(context.Background()))
}

// ============================================================================
// Test Cases for Context Helpers
// ============================================================================

func TestRequestIDContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))

	ctx := ContextWithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestIDFromContext(ctx))
}

func TestSessionIDContext(t *testing.T) {
	assert.Empty(t, SessionIDFromContext(context.Background()))

	ctx := ContextWithSessionID(context.Background(), "sess-42")
	assert.Equal(t, "sess-42", SessionIDFromContext(ctx))
}

// ============================================================================
// Test Cases for Global Logger
// ============================================================================

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	nop := NopLogger()
	SetGlobalLogger(nop)
	assert.Equal(t, nop, GetGlobalLogger())
}

func TestGetGlobalLogger_DefaultWhenUnset(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	SetGlobalLogger(nil)
	assert.NotNil(t, GetGlobalLogger())
}
