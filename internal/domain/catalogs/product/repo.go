package product

import (
	"context"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
}

// ListFilter narrows product listings.
type ListFilter struct {
	Kind       *Kind
	ActiveOnly bool
	Search     string
	Limit      int
	Offset     int
}
