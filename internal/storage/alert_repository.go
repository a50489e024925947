package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AlertRepository persists price alerts
type AlertRepository struct {
	db *PostgresDB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *PostgresDB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, user_id, token_id, alert_type, threshold, status, notification_sent,
	last_triggered_at, created_at, updated_at`

// Create inserts an active alert
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Status == "" {
		alert.Status = types.AlertStatusActive
	}
	now := time.Now().UTC()
	alert.CreatedAt = now
	alert.UpdatedAt = now

	query := `INSERT INTO alerts (` + alertColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.conn(ctx).Exec(ctx, query,
		alert.ID,
		alert.UserID,
		alert.TokenID,
		alert.AlertType,
		alert.Threshold,
		alert.Status,
		alert.NotificationSent,
		alert.LastTriggeredAt,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// GetByIDAndUser retrieves an alert owned by userID
func (r *AlertRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1 AND user_id = $2`
	a, err := scanAlert(r.db.conn(ctx).QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFound(types.CodeAlertNotFound, "alert", id)
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

// ListByUser returns a user's alerts, newest first
func (r *AlertRepository) ListByUser(ctx context.Context, userID string) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListPending returns every active alert that has not yet notified
func (r *AlertRepository) ListPending(ctx context.Context) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE status = $1 AND notification_sent = FALSE ORDER BY created_at ASC`
	return r.list(ctx, query, types.AlertStatusActive)
}

// MarkTriggered moves an alert from active to triggered. It reports false
// when another checker already did so.
func (r *AlertRepository) MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE alerts
		SET status = $1, notification_sent = TRUE, last_triggered_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4 AND notification_sent = FALSE
	`
	result, err := r.db.conn(ctx).Exec(ctx, query, types.AlertStatusTriggered, at, id, types.AlertStatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// UpdateStatus sets the status of an alert owned by userID
func (r *AlertRepository) UpdateStatus(ctx context.Context, id, userID string, status types.AlertStatus) error {
	result, err := r.db.conn(ctx).Exec(ctx,
		`UPDATE alerts SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		status, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if result.RowsAffected() == 0 {
		return types.NewNotFound(types.CodeAlertNotFound, "alert", id)
	}
	return nil
}

// DeleteByIDAndUser removes an alert owned by userID
func (r *AlertRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	result, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if result.RowsAffected() == 0 {
		return types.NewNotFound(types.CodeAlertNotFound, "alert", id)
	}
	return nil
}

func (r *AlertRepository) list(ctx context.Context, query string, args ...any) ([]*models.Alert, error) {
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return alerts, nil
}

func scanAlert(row pgx.Row) (*models.Alert, error) {
	var a models.Alert
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.TokenID,
		&a.AlertType,
		&a.Threshold,
		&a.Status,
		&a.NotificationSent,
		&a.LastTriggeredAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
