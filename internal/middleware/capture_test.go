package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Test Cases for captureWriter
// ============================================================================

func TestCaptureWriter_BuffersUntilFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := newCaptureWriter(rec)

	cw.WriteHeader(http.StatusCreated)
	n, err := cw.Write([]byte(`{"id":1}`))
	assert.NoError(t, err)
	assert.Equal(t, 8, n)

	// Nothing reaches the underlying writer before Flush.
	assert.Empty(t, rec.Body.String())

	cw.Flush()

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"id":1}`, rec.Body.String())
	assert.Equal(t, http.StatusCreated, cw.Status())
	assert.Equal(t, 8, cw.Size())
	assert.Equal(t, `{"id":1}`, string(cw.Body()))
}

func TestCaptureWriter_ImplicitOK(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := newCaptureWriter(rec)

	_, _ = cw.Write([]byte("hello"))
	cw.Flush()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, cw.Status())
}

func TestCaptureWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := newCaptureWriter(rec)

	cw.WriteHeader(http.StatusNotFound)
	cw.WriteHeader(http.StatusOK)
	cw.Flush()

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCaptureWriter_FlushIdempotent(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := newCaptureWriter(rec)

	_, _ = cw.Write([]byte("once"))
	cw.Flush()
	cw.Flush()

	assert.Equal(t, "once", rec.Body.String())
}

func TestCaptureWriter_HeadersPassThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := newCaptureWriter(rec)

	cw.Header().Set("X-Custom", "v")
	cw.Flush()

	assert.Equal(t, "v", rec.Header().Get("X-Custom"))
}

func TestCaptureWriter_EmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := newCaptureWriter(rec)

	cw.WriteHeader(http.StatusNoContent)
	cw.Flush()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, cw.Size())
}
