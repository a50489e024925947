package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
)

// PortfolioService manages users and their portfolios
type PortfolioService struct {
	userRepo      UserRepository
	portfolioRepo PortfolioRepository
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(userRepo UserRepository, portfolioRepo PortfolioRepository) *PortfolioService {
	return &PortfolioService{
		userRepo:      userRepo,
		portfolioRepo: portfolioRepo,
	}
}

// CreateUserInput represents input for creating a user
type CreateUserInput struct {
	Email string         `json:"email"`
	Tier  types.UserTier `json:"tier"`
}

// CreatePortfolioInput represents input for creating a portfolio
type CreatePortfolioInput struct {
	UserID      string   `json:"userId"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Wallets     []string `json:"wallets"`
}

// UpdatePortfolioInput represents input for updating a portfolio.
// Nil fields are left unchanged.
type UpdatePortfolioInput struct {
	PortfolioID string   `json:"portfolioId"`
	UserID      string   `json:"userId"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Wallets     []string `json:"wallets,omitempty"`
}

// CreateUser registers a user. Tier defaults to free.
func (s *PortfolioService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, types.NewInvalidInput("email", "must be a valid email address")
	}

	tier := input.Tier
	if tier == "" {
		tier = types.TierFree
	}
	if tier != types.TierFree && tier != types.TierPaid {
		return nil, types.NewInvalidInput("tier", "must be free or paid")
	}

	user := &models.User{Email: email, Tier: tier}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *PortfolioService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// CreatePortfolio creates a portfolio for an existing user
func (s *PortfolioService) CreatePortfolio(ctx context.Context, input *CreatePortfolioInput) (*models.Portfolio, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, types.NewInvalidInput("name", "must not be empty")
	}

	wallets, err := NormalizeAddresses(input.Wallets)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	portfolio := &models.Portfolio{
		UserID:      input.UserID,
		Name:        name,
		Description: input.Description,
		Wallets:     wallets,
	}
	if err := s.portfolioRepo.Create(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return portfolio, nil
}

// GetPortfolio returns a portfolio owned by userID
func (s *PortfolioService) GetPortfolio(ctx context.Context, portfolioID, userID string) (*models.Portfolio, error) {
	return s.portfolioRepo.GetByIDAndUser(ctx, portfolioID, userID)
}

// ListPortfolios returns all portfolios of a user
func (s *PortfolioService) ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	portfolios, err := s.portfolioRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if portfolios == nil {
		portfolios = []*models.Portfolio{}
	}
	return portfolios, nil
}

// UpdatePortfolio applies the non-nil fields of input
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, input *UpdatePortfolioInput) (*models.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetByIDAndUser(ctx, input.PortfolioID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, types.NewInvalidInput("name", "must not be empty")
		}
		portfolio.Name = name
	}
	if input.Description != nil {
		portfolio.Description = input.Description
	}
	if input.Wallets != nil {
		wallets, err := NormalizeAddresses(input.Wallets)
		if err != nil {
			return nil, err
		}
		portfolio.Wallets = wallets
	}

	if err := s.portfolioRepo.Update(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}
	return portfolio, nil
}

// DeletePortfolio deletes a portfolio and, through cascading keys, its holdings
func (s *PortfolioService) DeletePortfolio(ctx context.Context, portfolioID, userID string) error {
	return s.portfolioRepo.DeleteByIDAndUser(ctx, portfolioID, userID)
}
