package orders

import (
	"slices"
	"strings"

	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/validate"
	"github.com/google/uuid"
)

// Order is the store-independent shape shared by the API, CSV transfer and
// the sync engine. Timestamps are unix milliseconds; UpdatedAt is the
// last-write-wins clock.
type Order struct {
	LocalID     uint              `json:"local_id,omitempty"`
	UUID        string            `json:"uuid"`
	Customer    string            `json:"customer" validate:"required"`
	City        string            `json:"city" validate:"required"`
	Material    string            `json:"material" validate:"required"`
	Qty         int               `json:"qty" validate:"gt=0"`
	Status      enums.OrderStatus `json:"status" validate:"required"`
	Note        string            `json:"note,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	InvoiceNo   string            `json:"invoice_no,omitempty"`
	InvoiceDate string            `json:"invoice_date,omitempty"`
	VehicleNo   string            `json:"vehicle_no,omitempty"`
	Transporter string            `json:"transporter,omitempty"`
	LRNo        string            `json:"lr_no,omitempty"`
	CreatedAt   int64             `json:"created_at"`
	UpdatedAt   int64             `json:"updated_at"`
	Deleted     bool              `json:"deleted,omitempty"`
}

// Key returns the cross-store identifier.
func (o Order) Key() string { return o.UUID }

// Stamp returns the last-write-wins clock.
func (o Order) Stamp() int64 { return o.UpdatedAt }

// Normalize trims the free-text business fields.
func Normalize(o Order) Order {
	o.UUID = strings.TrimSpace(o.UUID)
	o.Customer = strings.TrimSpace(o.Customer)
	o.City = strings.TrimSpace(o.City)
	o.Material = strings.TrimSpace(o.Material)
	o.Note = strings.TrimSpace(o.Note)
	o.InvoiceNo = strings.TrimSpace(o.InvoiceNo)
	o.InvoiceDate = strings.TrimSpace(o.InvoiceDate)
	o.VehicleNo = strings.TrimSpace(o.VehicleNo)
	o.Transporter = strings.TrimSpace(o.Transporter)
	o.LRNo = strings.TrimSpace(o.LRNo)
	if o.Status == "" {
		o.Status = enums.OrderStatusPending
	}
	if parsed, err := enums.ParseOrderStatus(string(o.Status)); err == nil {
		o.Status = parsed
	}
	if o.Attachments != nil {
		o.Attachments = slices.Clone(o.Attachments)
	}
	return o
}

// Validate checks the business invariants of a normalized order.
func Validate(o Order) error {
	if err := validate.Struct(o); err != nil {
		return err
	}
	if !o.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"status": "must be one of pending, processing, shipped, delivered, cancelled"})
	}
	if o.UUID != "" {
		if _, err := uuid.Parse(o.UUID); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"uuid": "must be a valid uuid"})
		}
	}
	return nil
}

// Touch prepares a write on the caller's side: a new order receives a uuid
// and createdAt, an existing one keeps both, and updatedAt always moves to
// max(now, previous+1) so the clock never goes backwards for a uuid.
func Touch(prev *Order, next Order, now int64) Order {
	if prev != nil {
		next.UUID = prev.UUID
		next.LocalID = prev.LocalID
		next.CreatedAt = prev.CreatedAt
		next.UpdatedAt = NextStamp(prev.UpdatedAt, now)
		return next
	}
	if next.UUID == "" {
		next.UUID = uuid.NewString()
	}
	if next.CreatedAt == 0 {
		next.CreatedAt = now
	}
	next.UpdatedAt = NextStamp(next.UpdatedAt, now)
	return next
}

// NextStamp returns a clock value strictly greater than prev and not earlier
// than now.
func NextStamp(prev, now int64) int64 {
	if now > prev {
		return now
	}
	return prev + 1
}
