// Package product provides the product catalog: boutique goods, fuel grades,
// and service items sold at stations.
package product

import (
	"context"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/entity"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
)

// Kind defines the product category.
type Kind string

const (
	// KindBoutique is shop merchandise tracked by piece or weight.
	KindBoutique Kind = "boutique"
	// KindFuel is fuel tracked by litre in tanks.
	KindFuel Kind = "fuel"
	// KindService is a non-stock item (car wash, fees). Services never
	// appear in the stock ledger.
	KindService Kind = "service"
)

// Product represents a sellable item.
type Product struct {
	entity.Catalog

	Kind Kind `db:"kind" json:"kind"`

	// Barcode is the item barcode (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// Unit is the unit of measure ("piece", "litre", "kg")
	Unit string `db:"unit" json:"unit"`

	// SalePrice is the current retail price
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	// ToleranceThreshold overrides the category default used by variance
	// detection. Nil means the category default applies.
	ToleranceThreshold *types.Quantity `db:"tolerance_threshold" json:"toleranceThreshold,omitempty"`

	// Active products appear in sales and purchasing screens
	Active bool `db:"active" json:"active"`
}

// NewProduct creates a new product.
func NewProduct(code, name string, kind Kind) *Product {
	return &Product{
		Catalog:   entity.NewCatalog(code, name),
		Kind:      kind,
		Unit:      defaultUnit(kind),
		SalePrice: types.ZeroMoney(),
		Active:    true,
	}
}

func defaultUnit(kind Kind) string {
	if kind == KindFuel {
		return "litre"
	}
	return "piece"
}

// HasStock reports whether the product participates in stock tracking.
func (p *Product) HasStock() bool {
	return p.Kind != KindService
}

// IsFuel reports whether the product is a fuel grade.
func (p *Product) IsFuel() bool {
	return p.Kind == KindFuel
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Kind {
	case KindBoutique, KindFuel, KindService:
	default:
		return apperror.NewValidation("unknown product kind").
			WithDetail("kind", string(p.Kind))
	}

	if p.ToleranceThreshold != nil && p.ToleranceThreshold.IsNegative() {
		return apperror.NewValidation("tolerance threshold must not be negative").
			WithDetail("field", "toleranceThreshold")
	}

	return nil
}
