package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/linkguard/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the PolicyRepository interface
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens the database at dbPath and creates the policy table
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// A single writer avoids "database is locked" under concurrent admin calls.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tenant_policies (
			tenant_id TEXT PRIMARY KEY,
			mode TEXT NOT NULL,
			categories TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the policy for a tenant
func (s *SQLiteStore) Get(ctx context.Context, tenantID string) (*core.TenantPolicy, error) {
	var r record
	var categories, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, mode, categories, updated_at
		FROM tenant_policies
		WHERE tenant_id = ?
	`, tenantID).Scan(&r.TenantID, &r.Mode, &categories, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("failed to query policy: %w", err)
	}

	r.Categories = splitCategories(categories)
	r.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		s.logger.Warn("Failed to parse updated_at timestamp",
			zap.String("tenant", tenantID),
			zap.Error(err))
	}

	return r.policy()
}

// Save stores a policy snapshot
func (s *SQLiteStore) Save(ctx context.Context, policy *core.TenantPolicy) error {
	r := toRecord(policy)

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tenant_policies (tenant_id, mode, categories, updated_at)
		VALUES (?, ?, ?, ?)
	`, r.TenantID, r.Mode, joinCategories(r.Categories), r.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// Delete removes a tenant's policy
func (s *SQLiteStore) Delete(ctx context.Context, tenantID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM tenant_policies
		WHERE tenant_id = ?
	`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	return nil
}

// Stop closes the database connection
func (s *SQLiteStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
