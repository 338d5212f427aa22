package audit

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/openvms/gatekit/internal/observability"
)

// Column width limits enforced immediately before persistence. This pass is
// independent of any earlier truncation: it is the last line of defense.
const (
	maxEntityName      = 100
	maxAction          = 50
	maxDescription     = 500
	maxValueBlob       = 4000
	maxMetadataColumn  = 2000
	maxIPAddress       = 45
	maxUserAgent       = 500
	maxCorrelationID   = 100
	maxSessionID       = 100
	maxRequestID       = 100
	maxHTTPMethod      = 10
	maxRequestPath     = 2000
	maxErrorMessage    = 1000
	maxExceptionDetail = 4000
)

// fallbackDescription is the fixed description on minimal fallback records.
const fallbackDescription = "large request, minimal audit"

// fallbackMetadata is the fixed placeholder metadata on fallback records.
const fallbackMetadata = `{"note":"minimal audit record"}`

// Breaker settings for the durable store.
const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Persister writes audit entries to the durable store. Persistence failures
// never propagate: a store-side size violation triggers a minimal fallback
// record, and everything else is logged and swallowed so the originating
// request is never failed or delayed by auditing.
type Persister struct {
	store   Store
	logger  observability.Logger
	metrics *Metrics
	breaker *gobreaker.CircuitBreaker
}

// PersisterOption is a functional option for configuring the persister.
type PersisterOption func(*Persister)

// WithPersisterLogger sets the logger.
func WithPersisterLogger(logger observability.Logger) PersisterOption {
	return func(p *Persister) {
		p.logger = logger
	}
}

// WithPersisterMetrics sets the metrics.
func WithPersisterMetrics(metrics *Metrics) PersisterOption {
	return func(p *Persister) {
		p.metrics = metrics
	}
}

// NewPersister creates a Persister backed by the given store.
func NewPersister(store Store, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:  store,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "audit-store",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("audit store breaker state change",
				observability.String("breaker", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})

	return p
}

// Persist writes the entry to the durable store exactly once, degrading
// silently on failure. It never returns an error.
func (p *Persister) Persist(ctx context.Context, entry *Entry) {
	start := time.Now()
	truncateForStorage(entry)

	err := p.append(ctx, entry)
	if err == nil {
		p.metrics.RecordPersist(outcomePrimary, time.Since(start).Seconds())
		return
	}

	if IsValueTooLarge(err) {
		p.logger.Warn("audit entry exceeded column limits, writing minimal record",
			observability.String("entry_id", entry.ID),
			observability.Error(err),
		)
		fbErr := p.append(ctx, minimalEntry(entry))
		if fbErr == nil {
			p.metrics.RecordPersist(outcomeFallback, time.Since(start).Seconds())
			return
		}
		err = fbErr
	}

	p.logger.Error("failed to persist audit entry",
		observability.String("entry_id", entry.ID),
		observability.String("path", entry.RequestPath),
		observability.Error(err),
	)
	p.metrics.RecordPersist(outcomeDropped, time.Since(start).Seconds())
}

// append writes through the circuit breaker. Size violations are reported to
// the caller but do not count as breaker failures: the store is reachable.
func (p *Persister) append(ctx context.Context, entry *Entry) error {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		if appendErr := p.store.Append(ctx, entry); appendErr != nil {
			if IsValueTooLarge(appendErr) {
				return appendErr, nil
			}
			return nil, appendErr
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	if storeErr, ok := result.(error); ok {
		return storeErr
	}
	return nil
}

// truncateForStorage bounds every text field to its column width. Applied
// immediately before persistence regardless of earlier truncation passes.
func truncateForStorage(entry *Entry) {
	entry.EntityName = Truncate(entry.EntityName, maxEntityName)
	entry.Action = Action(Truncate(string(entry.Action), maxAction))
	entry.Description = Truncate(entry.Description, maxDescription)
	entry.OldValues = TruncatePtr(entry.OldValues, maxValueBlob)
	entry.NewValues = TruncatePtr(entry.NewValues, maxValueBlob)
	entry.Metadata = TruncatePtr(entry.Metadata, maxMetadataColumn)
	entry.IPAddress = Truncate(entry.IPAddress, maxIPAddress)
	entry.UserAgent = Truncate(entry.UserAgent, maxUserAgent)
	entry.CorrelationID = Truncate(entry.CorrelationID, maxCorrelationID)
	entry.SessionID = Truncate(entry.SessionID, maxSessionID)
	entry.RequestID = Truncate(entry.RequestID, maxRequestID)
	entry.HTTPMethod = Truncate(entry.HTTPMethod, maxHTTPMethod)
	entry.RequestPath = Truncate(entry.RequestPath, maxRequestPath)
	entry.ErrorMessage = TruncatePtr(entry.ErrorMessage, maxErrorMessage)
	entry.ExceptionDetail = TruncatePtr(entry.ExceptionDetail, maxExceptionDetail)
}

// minimalEntry builds the reduced-fidelity fallback record written when the
// full entry cannot be persisted.
func minimalEntry(original *Entry) *Entry {
	entry := NewEntry()
	entry.Category = original.Category
	entry.EntityName = Truncate(original.EntityName, maxEntityName)
	entry.Action = Action(Truncate(string(original.Action), maxAction))
	entry.Description = fallbackDescription
	entry.UserID = original.UserID
	entry.IPAddress = Truncate(original.IPAddress, maxIPAddress)
	entry.UserAgent = Truncate(original.UserAgent, maxUserAgent)
	entry.HTTPMethod = Truncate(original.HTTPMethod, maxHTTPMethod)
	entry.RequestPath = Truncate(original.RequestPath, maxRequestPath)
	entry.StatusCode = original.StatusCode
	entry.Success = original.Success
	entry.DurationMs = original.DurationMs
	entry.RiskLevel = RiskMedium
	entry.RequiresAttention = true
	entry.Metadata = StrPtr(fallbackMetadata)
	return entry
}
