package middleware

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/openvms/gatekit/internal/audit"
	"github.com/openvms/gatekit/internal/config"
	"github.com/openvms/gatekit/internal/observability"
)

// AuditRecorder persists completed audit entries. Satisfied by
// *audit.Persister.
type AuditRecorder interface {
	Persist(ctx context.Context, entry *audit.Entry)
}

// auditMiddleware observes every request end to end and emits one audit
// entry per request, including requests that panic downstream.
type auditMiddleware struct {
	cfg      *config.AuditConfig
	builder  *audit.Builder
	metadata *audit.MetadataBuilder
	recorder AuditRecorder
	logger   observability.Logger
}

// AuditOption is a functional option for configuring the audit middleware.
type AuditOption func(*auditMiddleware)

// WithAuditLogger sets the logger.
func WithAuditLogger(logger observability.Logger) AuditOption {
	return func(m *auditMiddleware) {
		m.logger = logger
	}
}

// Audit returns the audit trail middleware. Requests to excluded path
// prefixes pass through untouched; everything else produces exactly one
// audit entry, persisted after the response has been delivered.
func Audit(cfg *config.AuditConfig, recorder AuditRecorder, opts ...AuditOption) func(http.Handler) http.Handler {
	m := &auditMiddleware{
		cfg:      cfg,
		builder:  audit.NewBuilder(),
		metadata: audit.NewMetadataBuilder(cfg, audit.NewSanitizer(cfg.SensitiveFields, cfg.SensitiveHeaders)),
		recorder: recorder,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || m.excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			m.serve(w, r, next)
		})
	}
}

// excluded reports whether the path matches an excluded prefix.
func (m *auditMiddleware) excluded(path string) bool {
	for _, prefix := range m.cfg.ExcludedPrefixes() {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// serve runs the audited request. The response is buffered so its size and
// status are known before delivery; the entry is persisted after the buffer
// flushes so auditing never delays the caller's response.
func (m *auditMiddleware) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	start := time.Now()

	body := m.captureBody(r)
	entry := m.builder.Begin(r)
	cw := newCaptureWriter(w)

	defer func() {
		if rec := recover(); rec != nil {
			m.builder.Fail(entry,
				fmt.Sprintf("panic: %v", rec),
				string(debug.Stack()),
				m.cfg.IncludeExceptionDetails,
			)
			m.builder.Complete(entry, http.StatusInternalServerError, time.Since(start), 0)
			entry.Metadata = audit.StrPtr(m.metadata.Build(r, body))
			m.persist(r, entry)
			panic(rec)
		}

		cw.Flush()
		m.builder.Complete(entry, cw.Status(), time.Since(start), int64(cw.Size()))
		entry.Metadata = audit.StrPtr(m.metadata.Build(r, body))
		m.persist(r, entry)
	}()

	next.ServeHTTP(cw, r)
}

// persist hands the entry to the recorder on a context detached from the
// request's cancellation, so a client abort cannot cancel the audit write.
func (m *auditMiddleware) persist(r *http.Request, entry *audit.Entry) {
	m.recorder.Persist(context.WithoutCancel(r.Context()), entry)
}

// captureBody reads and restores the request body when the request is
// eligible for capture, returning the raw bytes as a string. Read errors
// degrade to an empty capture; the request itself is unaffected.
func (m *auditMiddleware) captureBody(r *http.Request) string {
	if r.Body == nil || !m.metadata.CaptureEligible(r) {
		return ""
	}

	limit := m.cfg.GetEffectiveMaxBodyCaptureBytes()
	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	_ = r.Body.Close()
	if err != nil {
		m.logger.Warn("failed to capture request body",
			observability.String("path", r.URL.Path),
			observability.Error(err),
		)
		r.Body = io.NopCloser(bytes.NewReader(nil))
		return ""
	}

	r.Body = io.NopCloser(bytes.NewReader(raw))
	if int64(len(raw)) > limit {
		// Declared length lied; treat as ineligible.
		return ""
	}
	return string(raw)
}
