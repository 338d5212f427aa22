package middleware

import (
	"bytes"
	"net/http"
)

// captureWriter replaces the live response writer for the duration of
// downstream processing, buffering the body so it can be measured before
// delivery. Flush copies the buffered bytes through to the original writer
// unchanged; callers guarantee it runs on every exit path.
type captureWriter struct {
	rw          http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
	flushed     bool
}

// newCaptureWriter wraps the original response writer.
func newCaptureWriter(rw http.ResponseWriter) *captureWriter {
	return &captureWriter{
		rw:     rw,
		status: http.StatusOK,
	}
}

// Header returns the header map of the original writer so downstream
// handlers set response headers normally.
func (w *captureWriter) Header() http.Header {
	return w.rw.Header()
}

// WriteHeader records the status code without forwarding it; the header is
// written to the original writer on Flush.
func (w *captureWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
}

// Write buffers the response body.
func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.buf.Write(b)
}

// Status returns the recorded status code.
func (w *captureWriter) Status() int {
	return w.status
}

// Size returns the buffered body length in bytes.
func (w *captureWriter) Size() int {
	return w.buf.Len()
}

// Body returns the raw buffered content.
func (w *captureWriter) Body() []byte {
	return w.buf.Bytes()
}

// Flush restores the original writer: it writes the recorded status and
// copies the buffered bytes through, byte for byte. Idempotent.
func (w *captureWriter) Flush() {
	if w.flushed {
		return
	}
	w.flushed = true

	w.rw.WriteHeader(w.status)
	if w.buf.Len() > 0 {
		_, _ = w.rw.Write(w.buf.Bytes())
	}
}
