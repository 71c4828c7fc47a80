package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/linkguard/internal/core"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const mysqlTimeLayout = "2006-01-02 15:04:05"

// MySQLStore is a MySQL implementation of the PolicyRepository interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL, retrying the initial ping with a
// Fibonacci backoff, and creates the policy table
func NewMySQLStore(ctx context.Context, dsn string, retries uint64, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	b := retry.NewFibonacci(1 * time.Second)
	err = retry.Do(ctx, retry.WithMaxRetries(retries, b), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("MySQL not reachable yet", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tenant_policies (
			tenant_id VARCHAR(255) PRIMARY KEY,
			mode VARCHAR(32) NOT NULL,
			categories VARCHAR(255) NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the policy for a tenant
func (s *MySQLStore) Get(ctx context.Context, tenantID string) (*core.TenantPolicy, error) {
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
	r.UpdatedAt, err = time.Parse(mysqlTimeLayout, updatedAt)
	if err != nil {
		s.logger.Warn("Failed to parse updated_at timestamp",
			zap.String("tenant", tenantID),
			zap.Error(err))
	}

	return r.policy()
}

// Save stores a policy snapshot
func (s *MySQLStore) Save(ctx context.Context, policy *core.TenantPolicy) error {
	r := toRecord(policy)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenant_policies (tenant_id, mode, categories, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			mode = VALUES(mode),
			categories = VALUES(categories),
			updated_at = VALUES(updated_at)
	`, r.TenantID, r.Mode, joinCategories(r.Categories), r.UpdatedAt.Format(mysqlTimeLayout))
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// Delete removes a tenant's policy
func (s *MySQLStore) Delete(ctx context.Context, tenantID string) error {
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
func (s *MySQLStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
