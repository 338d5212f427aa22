// Package store provides durable storage backends for audit entries.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/openvms/gatekit/internal/audit"
	"github.com/openvms/gatekit/internal/config"
)

// pqStringDataRightTruncation is the PostgreSQL error code raised when a
// value exceeds its column width.
const pqStringDataRightTruncation = "22001"

// PostgresStore implements audit.Store on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a PostgreSQL-backed audit store.
func NewPostgresStore(cfg *config.DatabaseConfig) (*PostgresStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is nil")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing database handle.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append implements audit.Store.
func (s *PostgresStore) Append(ctx context.Context, entry *audit.Entry) error {
	query := `
		INSERT INTO audit_entries (
			id, category, entity_name, entity_id, action, description,
			old_values, new_values, metadata, user_id, ip_address,
			user_agent, correlation_id, session_id, request_id,
			http_method, request_path, status_code, success, duration_ms,
			request_size, response_size, error_message, exception_detail,
			risk_level, requires_attention, reviewed, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Category),
		entry.EntityName,
		entry.EntityID,
		string(entry.Action),
		entry.Description,
		entry.OldValues,
		entry.NewValues,
		entry.Metadata,
		entry.UserID,
		entry.IPAddress,
		entry.UserAgent,
		entry.CorrelationID,
		entry.SessionID,
		entry.RequestID,
		entry.HTTPMethod,
		entry.RequestPath,
		entry.StatusCode,
		entry.Success,
		entry.DurationMs,
		entry.RequestSize,
		entry.ResponseSize,
		entry.ErrorMessage,
		entry.ExceptionDetail,
		string(entry.RiskLevel),
		entry.RequiresAttention,
		entry.Reviewed,
		entry.CreatedAt,
	)
	if err != nil {
		if isTruncationError(err) {
			return &audit.ValueTooLargeError{Err: err}
		}
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// isTruncationError classifies a store error as a column-width violation.
func isTruncationError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqStringDataRightTruncation
	}
	return strings.Contains(err.Error(), "value too long")
}

// Close implements audit.Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ensure implementations satisfy the interface.
var _ audit.Store = (*PostgresStore)(nil)
