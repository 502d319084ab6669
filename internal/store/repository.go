/**
 * @description
 * This file implements the data access layer for the retention-service.
 * It contains all the SQL queries and logic for interacting with the database:
 * the singleton offer configuration row and the append-only attempt and save
 * logs.
 */
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/algofomo/retention-service/internal/domain"
)

// ErrConfigNotFound is returned when the offer configuration row has never
// been written.
var ErrConfigNotFound = errors.New("discount config not found")

// configKey is the fixed key of the singleton configuration row, mirroring
// the config/settings document of the original store.
const configKey = "settings"

// Repository handles database operations for the retention flow and the
// admin console.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetDiscountConfig retrieves the current offer configuration.
func (r *Repository) GetDiscountConfig(ctx context.Context) (*domain.DiscountConfig, error) {
	var cfg domain.DiscountConfig
	query := `
        SELECT discount_percent, updated_at
        FROM retention_config
        WHERE key = $1
    `
	err := r.db.QueryRow(ctx, query, configKey).Scan(
		&cfg.DiscountPercent,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// UpsertDiscountConfig creates or updates the offer configuration. Only the
// discount percentage and the updated_at stamp are touched; any other
// columns keep their values (merge semantics).
func (r *Repository) UpsertDiscountConfig(ctx context.Context, discountPercent string) (*domain.DiscountConfig, error) {
	var cfg domain.DiscountConfig
	query := `
        INSERT INTO retention_config (key, discount_percent, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET
            discount_percent = EXCLUDED.discount_percent,
            updated_at = NOW()
        RETURNING discount_percent, updated_at
    `
	err := r.db.QueryRow(ctx, query, configKey, discountPercent).Scan(
		&cfg.DiscountPercent,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateAttempt appends a cancellation attempt record. The date is stamped
// server-side; attempts are never updated or deleted.
func (r *Repository) CreateAttempt(ctx context.Context, attempt *domain.AttemptRecord) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	query := `
        INSERT INTO attempts (id, reason, membership_id, date, status)
        VALUES ($1, $2, $3, NOW(), $4)
        RETURNING date
    `
	return r.db.QueryRow(ctx, query,
		attempt.ID,
		attempt.Reason,
		attempt.MembershipID,
		attempt.Status,
	).Scan(&attempt.Date)
}

// CreateSave appends a successful-redemption record.
func (r *Repository) CreateSave(ctx context.Context, save *domain.SaveRecord) error {
	if save.ID == "" {
		save.ID = uuid.New().String()
	}
	query := `
        INSERT INTO saves (id, membership_id, discount_applied, date)
        VALUES ($1, $2, $3, NOW())
        RETURNING date
    `
	return r.db.QueryRow(ctx, query,
		save.ID,
		save.MembershipID,
		save.DiscountApplied,
	).Scan(&save.Date)
}

// GetRecentAttempts returns the most recent attempt records, newest first.
func (r *Repository) GetRecentAttempts(ctx context.Context, limit int) ([]domain.AttemptRecord, error) {
	query := `
        SELECT id, reason, membership_id, date, status
        FROM attempts
        ORDER BY date DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.AttemptRecord
	for rows.Next() {
		var a domain.AttemptRecord
		if err := rows.Scan(&a.ID, &a.Reason, &a.MembershipID, &a.Date, &a.Status); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CountAttempts returns the total number of attempt records.
func (r *Repository) CountAttempts(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountSaves returns the total number of save records.
func (r *Repository) CountSaves(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM saves`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
