package audit

import (
	"context"
	"errors"
)

// Store is the durable sink for audit entries. It is append-only from the
// pipeline's perspective.
type Store interface {
	// Append writes one entry to the store.
	Append(ctx context.Context, entry *Entry) error

	// Close closes the store and releases resources.
	Close() error
}

// ValueTooLargeError indicates the store rejected a field exceeding its
// column width. The persister reacts by writing a minimal fallback record.
type ValueTooLargeError struct {
	Err error
}

func (e *ValueTooLargeError) Error() string {
	return "value too large for column: " + e.Err.Error()
}

func (e *ValueTooLargeError) Unwrap() error {
	return e.Err
}

// IsValueTooLarge reports whether err indicates a store-side size violation.
func IsValueTooLarge(err error) bool {
	var tooLarge *ValueTooLargeError
	return errors.As(err, &tooLarge)
}
