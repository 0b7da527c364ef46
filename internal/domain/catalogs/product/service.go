package product

import (
	"context"
	"fmt"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/numerator"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// Service provides business logic for the product catalog.
type Service struct {
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new product service.
func NewService(repo Repository, numerator numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		numerator: numerator,
	}
}

// Create creates a new product, generating a code when missing.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	if existing, err := s.repo.GetByCode(ctx, p.Code); err == nil && existing != nil {
		return apperror.NewConflict("product with this code already exists").
			WithDetail("code", p.Code)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "id", p.ID, "code", p.Code, "kind", p.Kind)
	return nil
}

// Update updates an existing product.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}

// RequireStockTracked loads a product and rejects kinds that carry no stock.
func (s *Service) RequireStockTracked(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.HasStock() {
		return nil, apperror.NewInvalidProductKind(p.ID.String(), string(p.Kind))
	}
	return p, nil
}
