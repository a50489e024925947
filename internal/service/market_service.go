package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coin-ledger/internal/models"
	"github.com/coin-ledger/internal/types"
	"github.com/shopspring/decimal"
)

// MarketService manages tokens and their market data points
type MarketService struct {
	tokenRepo  TokenRepository
	marketRepo MarketDataRepository
}

// NewMarketService creates a new market service
func NewMarketService(tokenRepo TokenRepository, marketRepo MarketDataRepository) *MarketService {
	return &MarketService{
		tokenRepo:  tokenRepo,
		marketRepo: marketRepo,
	}
}

// CreateTokenInput represents input for registering a token
type CreateTokenInput struct {
	Symbol          string  `json:"symbol"`
	Name            string  `json:"name"`
	Chain           string  `json:"chain"`
	ContractAddress *string `json:"contractAddress,omitempty"`
}

// RecordMarketDataInput represents one market data observation
type RecordMarketDataInput struct {
	TokenID        string          `json:"tokenId"`
	Price          decimal.Decimal `json:"price"`
	PriceChange24h decimal.Decimal `json:"priceChange24h"`
	Volume24h      decimal.Decimal `json:"volume24h"`
	MarketCap      decimal.Decimal `json:"marketCap"`
	RecordedAt     *time.Time      `json:"recordedAt,omitempty"`
}

// CreateToken registers a token. Symbols are upper-cased and contract
// addresses checksummed.
func (s *MarketService) CreateToken(ctx context.Context, input *CreateTokenInput) (*models.Token, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if symbol == "" {
		return nil, types.NewInvalidInput("symbol", "must not be empty")
	}
	chain := strings.ToLower(strings.TrimSpace(input.Chain))
	if chain == "" {
		return nil, types.NewInvalidInput("chain", "must not be empty")
	}

	token := &models.Token{
		Symbol: symbol,
		Name:   strings.TrimSpace(input.Name),
		Chain:  chain,
	}
	if token.Name == "" {
		token.Name = symbol
	}
	if input.ContractAddress != nil && *input.ContractAddress != "" {
		addr, err := NormalizeAddress(*input.ContractAddress)
		if err != nil {
			return nil, err
		}
		token.ContractAddress = &addr
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}
	return token, nil
}

// GetToken returns a token by ID
func (s *MarketService) GetToken(ctx context.Context, tokenID string) (*models.Token, error) {
	return s.tokenRepo.GetByID(ctx, tokenID)
}

// ListTokens returns every registered token
func (s *MarketService) ListTokens(ctx context.Context) ([]*models.Token, error) {
	tokens, err := s.tokenRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = []*models.Token{}
	}
	return tokens, nil
}

// RecordMarketData appends a market data point for an existing token
func (s *MarketService) RecordMarketData(ctx context.Context, input *RecordMarketDataInput) (*models.MarketData, error) {
	if input.Price.IsNegative() {
		return nil, types.NewInvalidInput("price", "must not be negative")
	}
	if input.Volume24h.IsNegative() {
		return nil, types.NewInvalidInput("volume24h", "must not be negative")
	}
	if input.MarketCap.IsNegative() {
		return nil, types.NewInvalidInput("marketCap", "must not be negative")
	}
	if _, err := s.tokenRepo.GetByID(ctx, input.TokenID); err != nil {
		return nil, err
	}

	md := &models.MarketData{
		TokenID:        input.TokenID,
		Price:          input.Price,
		PriceChange24h: input.PriceChange24h,
		Volume24h:      input.Volume24h,
		MarketCap:      input.MarketCap,
	}
	if input.RecordedAt != nil {
		md.RecordedAt = input.RecordedAt.UTC()
	}

	if err := s.marketRepo.Insert(ctx, md); err != nil {
		return nil, fmt.Errorf("failed to record market data: %w", err)
	}
	return md, nil
}

// Latest returns the newest market data for a token, or nil if none exists
func (s *MarketService) Latest(ctx context.Context, tokenID string) (*models.MarketData, error) {
	return s.marketRepo.Latest(ctx, tokenID)
}
