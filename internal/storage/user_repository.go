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

// UserRepository handles user data persistence
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Tier == "" {
		user.Tier = types.TierFree
	}
	if err := validateTier(user.Tier); err != nil {
		return err
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, tier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.conn(ctx).Exec(ctx, query,
		user.ID,
		user.Email,
		user.Tier,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *UserRepository) getOne(ctx context.Context, column, value string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, tier, created_at, updated_at
		FROM users
		WHERE %s = $1
	`, column)

	var user models.User
	err := r.db.conn(ctx).QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Tier,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewNotFound(types.CodeUserNotFound, "user", value)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdateTier changes a user's tier
func (r *UserRepository) UpdateTier(ctx context.Context, id string, tier types.UserTier) error {
	if err := validateTier(tier); err != nil {
		return err
	}

	result, err := r.db.conn(ctx).Exec(ctx,
		`UPDATE users SET tier = $1, updated_at = $2 WHERE id = $3`,
		tier, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user tier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return types.NewNotFound(types.CodeUserNotFound, "user", id)
	}
	return nil
}

func validateTier(tier types.UserTier) error {
	if tier != types.TierFree && tier != types.TierPaid {
		return types.NewInvalidInput("tier", fmt.Sprintf("must be %q or %q", types.TierFree, types.TierPaid))
	}
	return nil
}
