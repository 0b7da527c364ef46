package entity

import (
	"context"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

// Document is the base type for business transactions.
// Examples: InventoryCount, FuelDelivery.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// StationID is the owning station
	StationID id.ID `db:"station_id" json:"stationId"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(stationID id.ID) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		StationID:    stationID,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.StationID) {
		return apperror.NewValidation("station is required").
			WithDetail("field", "stationId")
	}

	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}
