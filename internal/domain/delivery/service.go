package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/numerator"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/tx"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/types"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/product"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/catalogs/station"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/domain/ledger"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

// OriginModule tags ledger movements produced by delivery receipts.
const OriginModule = "fuel_delivery"

// MovementAppender records stock movements. Implemented by the ledger
// service.
type MovementAppender interface {
	Append(ctx context.Context, in ledger.AppendInput) (id.ID, error)
}

// ProductCatalog is the product lookup the reconciler needs.
type ProductCatalog interface {
	RequireStockTracked(ctx context.Context, productID id.ID) (*product.Product, error)
}

// LocationResolver identifies stock locations.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, locationID id.ID) (station.Location, error)
}

// OrderInput carries the fields of a new delivery order.
type OrderInput struct {
	StationID id.ID
	TankID    id.ID
	ProductID id.ID

	OrderedQuantity types.Quantity
	UnitCost        types.Money
	SupplierName    string
	ActorID         string
	Comment         string
}

// ReceiveInput carries the measured quantities at receipt.
type ReceiveInput struct {
	DeliveryID        id.ID
	DeliveredQuantity types.Quantity
	DeliveredAt       time.Time
	ActorID           string
}

// Service manages fuel deliveries and the ordered vs. delivered
// reconciliation.
type Service struct {
	repo      Repository
	movements MovementAppender
	products  ProductCatalog
	locations LocationResolver
	txManager tx.Manager
	numerator numerator.Generator

	// tolerance is the litre difference above which a compensation is
	// emitted.
	tolerance types.Quantity
}

// NewService creates the delivery service.
func NewService(
	repo Repository,
	movements MovementAppender,
	products ProductCatalog,
	locations LocationResolver,
	txManager tx.Manager,
	gen numerator.Generator,
	tolerance types.Quantity,
) *Service {
	return &Service{
		repo:      repo,
		movements: movements,
		products:  products,
		locations: locations,
		txManager: txManager,
		numerator: gen,
		tolerance: tolerance,
	}
}

// Order registers a pending delivery against a purchase order.
func (s *Service) Order(ctx context.Context, in OrderInput) (*FuelDelivery, error) {
	d := NewFuelDelivery(in.StationID, in.TankID, in.ProductID)
	d.OrderedQuantity = in.OrderedQuantity
	d.UnitCost = in.UnitCost
	d.SupplierName = in.SupplierName
	d.ActorID = in.ActorID
	d.Comment = in.Comment

	if err := d.Validate(ctx); err != nil {
		return nil, err
	}

	p, err := s.products.RequireStockTracked(ctx, d.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.IsFuel() {
		return nil, apperror.NewInvalidProductKind(d.ProductID.String(), string(p.Kind))
	}

	loc, err := s.locations.ResolveLocation(ctx, d.TankID)
	if err != nil {
		return nil, err
	}
	if loc.Kind != station.LocationTank {
		return nil, apperror.NewValidation("deliveries must target a tank").
			WithDetail("location_id", d.TankID.String())
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("DLV"), nil, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	d.Number = number

	if err := s.repo.CreateDelivery(ctx, d); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	logger.Info(ctx, "fuel delivery ordered",
		"delivery_id", d.ID,
		"number", d.Number,
		"tank_id", d.TankID,
		"ordered", d.OrderedQuantity.String(),
	)

	return d, nil
}

// Receive records the measured drop: the delivered quantity enters the
// tank ledger as a value-bearing entry and the delivery moves to
// received. Atomic: either both the movement and the status change
// land, or neither.
func (s *Service) Receive(ctx context.Context, in ReceiveInput) (*FuelDelivery, error) {
	d, err := s.repo.GetDeliveryByID(ctx, in.DeliveryID)
	if err != nil {
		return nil, err
	}

	if d.Status != StatusPending {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			fmt.Sprintf("Delivery is %s, only pending deliveries can be received", d.Status),
		).WithDetail("delivery_id", d.ID.String())
	}
	if !in.DeliveredQuantity.IsPositive() {
		return nil, apperror.NewInvalidQuantity("delivered quantity must be positive").
			WithDetail("deliveredQuantity", in.DeliveredQuantity.String())
	}

	deliveredAt := in.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now().UTC()
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		unitCost := d.UnitCost
		if _, err := s.movements.Append(ctx, ledger.AppendInput{
			ProductID:       d.ProductID,
			LocationID:      d.TankID,
			Kind:            ledger.KindEntry,
			Quantity:        in.DeliveredQuantity,
			UnitCost:        &unitCost,
			OccurredAt:      deliveredAt,
			OriginModule:    OriginModule,
			OriginReference: d.ID.String(),
			ActorID:         in.ActorID,
		}); err != nil {
			return err
		}

		d.DeliveredQuantity = in.DeliveredQuantity
		d.DeliveredAt = &deliveredAt
		d.Status = StatusReceived
		d.Touch()
		if err := s.repo.UpdateDelivery(ctx, d); err != nil {
			return fmt.Errorf("update delivery: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "fuel delivery received",
		"delivery_id", d.ID,
		"delivered", d.DeliveredQuantity.String(),
		"ordered", d.OrderedQuantity.String(),
	)

	return d, nil
}

// GetByID retrieves a delivery.
func (s *Service) GetByID(ctx context.Context, deliveryID id.ID) (*FuelDelivery, error) {
	return s.repo.GetDeliveryByID(ctx, deliveryID)
}

// List lists deliveries for display.
func (s *Service) List(ctx context.Context, filter Filter) ([]FuelDelivery, error) {
	return s.repo.ListDeliveries(ctx, filter)
}

// GetCompensation returns the compensation for a delivery, or
// (nil, nil) when none was warranted.
func (s *Service) GetCompensation(ctx context.Context, deliveryID id.ID) (*CompensationRecord, error) {
	return s.repo.GetCompensationByDelivery(ctx, deliveryID)
}

// ListCompensations lists compensation records for accounting review.
func (s *Service) ListCompensations(ctx context.Context, limit, offset int) ([]CompensationRecord, error) {
	return s.repo.ListCompensations(ctx, limit, offset)
}

// Check compares ordered vs. delivered quantities and, above the
// delivery tolerance, writes exactly one compensation record. Safe to
// call repeatedly for the same delivery: an existing record is returned
// unchanged, never duplicated. Returns (nil, nil) when the difference
// stays within tolerance.
func (s *Service) Check(ctx context.Context, deliveryID id.ID) (*CompensationRecord, error) {
	d, err := s.repo.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if d.Status == StatusPending {
		return nil, apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Delivery has not been received yet",
		).WithDetail("delivery_id", d.ID.String())
	}

	existing, err := s.repo.GetCompensationByDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	diff := d.OrderedQuantity - d.DeliveredQuantity
	abs := diff.Abs()

	var record *CompensationRecord
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if abs <= s.tolerance {
			if d.Status != StatusReconciled {
				d.Status = StatusReconciled
				d.Touch()
				return s.repo.UpdateDelivery(ctx, d)
			}
			return nil
		}

		compType := CreditOwed
		reason := "delivered less than ordered, supplier owes the station"
		if d.DeliveredQuantity > d.OrderedQuantity {
			compType = CreditDue
			reason = "delivered more than ordered, station owes the supplier"
		}

		record = &CompensationRecord{
			ID:                         id.New(),
			DeliveryID:                 d.ID,
			CompensationType:           compType,
			TheoreticalOrderedQuantity: d.OrderedQuantity,
			ActualDeliveredQuantity:    d.DeliveredQuantity,
			Difference:                 abs,
			CompensationAmount:         abs.Decimal().Mul(d.UnitCost),
			Reason:                     reason,
			CreatedAt:                  time.Now().UTC(),
		}

		if err := s.repo.InsertCompensation(ctx, record); err != nil {
			return err
		}

		d.Status = StatusReconciled
		d.Touch()
		return s.repo.UpdateDelivery(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	if record == nil {
		logger.Info(ctx, "delivery within tolerance",
			"delivery_id", d.ID,
			"difference", abs.String(),
			"tolerance", s.tolerance.String(),
		)
		return nil, nil
	}

	logger.Info(ctx, "delivery compensation recorded",
		"delivery_id", d.ID,
		"compensation_id", record.ID,
		"type", string(record.CompensationType),
		"difference", record.Difference.String(),
		"amount", record.CompensationAmount.String(),
	)

	return record, nil
}
