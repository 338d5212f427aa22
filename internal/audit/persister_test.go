package audit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory Store for persister tests. The shared
// store package cannot be imported here without a cycle.
type memStore struct {
	entries  []*Entry
	failWith error
	failNext error
}

func (s *memStore) Append(_ context.Context, entry *Entry) error {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if s.failWith != nil {
		return s.failWith
	}
	stored := *entry
	s.entries = append(s.entries, &stored)
	return nil
}

func (s *memStore) Close() error { return nil }

// ============================================================================
// Test Cases for Persister
// ============================================================================

func TestPersister_Persist(t *testing.T) {
	store := &memStore{}
	p := NewPersister(store)

	entry := NewEntry()
	entry.Description = "create visitors"

	p.Persist(context.Background(), entry)

	require.Len(t, store.entries, 1)
	assert.Equal(t, entry.ID, store.entries[0].ID)
	assert.Equal(t, "create visitors", store.entries[0].Description)
}

func TestPersister_Persist_TruncatesForStorage(t *testing.T) {
	store := &memStore{}
	p := NewPersister(store)

	entry := NewEntry()
	entry.Description = strings.Repeat("d", 2000)
	entry.UserAgent = strings.Repeat("u", 2000)
	entry.Metadata = StrPtr(strings.Repeat("m", 5000))

	p.Persist(context.Background(), entry)

	require.Len(t, store.entries, 1)
	stored := store.entries[0]
	assert.Len(t, stored.Description, maxDescription)
	assert.Len(t, stored.UserAgent, maxUserAgent)
	assert.Len(t, *stored.Metadata, maxMetadataColumn)
	assert.True(t, strings.HasSuffix(stored.Description, TruncationMarker))
}

func TestPersister_Persist_ValueTooLargeWritesFallback(t *testing.T) {
	store := &memStore{}
	p := NewPersister(store)

	store.failNext = &ValueTooLargeError{Err: errors.New("value too long for type character varying(500)")}

	entry := NewEntry()
	entry.Category = CategoryVisitor
	entry.EntityName = "visitors"
	entry.Action = ActionCreate
	entry.Description = "create visitors"
	userID := int64(77)
	entry.UserID = &userID
	entry.IPAddress = "203.0.113.9"
	entry.HTTPMethod = "POST"
	entry.RequestPath = "/api/visitors"
	entry.StatusCode = 201
	entry.Success = true
	entry.DurationMs = 12

	p.Persist(context.Background(), entry)

	// Exactly one record: the minimal fallback.
	require.Len(t, store.entries, 1)
	fallback := store.entries[0]

	assert.NotEqual(t, entry.ID, fallback.ID, "fallback gets its own id")
	assert.Equal(t, CategoryVisitor, fallback.Category)
	assert.Equal(t, "visitors", fallback.EntityName)
	assert.Equal(t, ActionCreate, fallback.Action)
	assert.Equal(t, "large request, minimal audit", fallback.Description)
	require.NotNil(t, fallback.UserID)
	assert.Equal(t, int64(77), *fallback.UserID)
	assert.Equal(t, "203.0.113.9", fallback.IPAddress)
	assert.Equal(t, 201, fallback.StatusCode)
	assert.True(t, fallback.Success)
	assert.Equal(t, RiskMedium, fallback.RiskLevel)
	assert.True(t, fallback.RequiresAttention)
	require.NotNil(t, fallback.Metadata)
	assert.JSONEq(t, `{"note":"minimal audit record"}`, *fallback.Metadata)
	assert.Nil(t, fallback.OldValues)
	assert.Nil(t, fallback.NewValues)
}

func TestPersister_Persist_StoreFailureNeverPropagates(t *testing.T) {
	store := &memStore{failWith: errors.New("connection refused")}
	p := NewPersister(store)

	// Must not panic and must not write anything.
	p.Persist(context.Background(), NewEntry())

	assert.Empty(t, store.entries)
}

func TestPersister_Persist_FallbackFailureDropsEntry(t *testing.T) {
	store := &memStore{failWith: &ValueTooLargeError{Err: errors.New("too long")}}
	p := NewPersister(store)

	// Both the primary and the fallback write report size violations.
	p.Persist(context.Background(), NewEntry())

	assert.Empty(t, store.entries)
}

func TestPersister_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	store := &memStore{failWith: errors.New("connection refused")}
	p := NewPersister(store)

	for i := 0; i < breakerFailureThreshold; i++ {
		p.Persist(context.Background(), NewEntry())
	}

	// Breaker is now open; the store stops seeing traffic but Persist
	// still returns quietly.
	store.failWith = nil
	p.Persist(context.Background(), NewEntry())
	assert.Empty(t, store.entries)
}

func TestPersister_BreakerIgnoresSizeViolations(t *testing.T) {
	store := &memStore{}
	p := NewPersister(store)

	// Repeated size violations must not open the breaker: the store is
	// reachable, the payload is just too big.
	for i := 0; i < breakerFailureThreshold*2; i++ {
		store.failNext = &ValueTooLargeError{Err: errors.New("too long")}
		p.Persist(context.Background(), NewEntry())
	}

	p.Persist(context.Background(), NewEntry())
	assert.NotEmpty(t, store.entries)
}

// ============================================================================
// Test Cases for ValueTooLargeError
// ============================================================================

func TestValueTooLargeError(t *testing.T) {
	inner := errors.New("value too long")
	err := &ValueTooLargeError{Err: inner}

	assert.True(t, IsValueTooLarge(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "value too long")

	assert.False(t, IsValueTooLarge(errors.New("other")))
	assert.False(t, IsValueTooLarge(nil))
}
