package shipments

import (
	"slices"
	"strings"

	"github.com/angelmondragon/shipbridge/internal/orders"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/validate"
	"github.com/google/uuid"
)

// DateLayout is the wire format of DispatchDate.
const DateLayout = "2006-01-02"

// Shipment is a bundle of orders dispatched together. OrderUUIDs is a weak
// reference: the orders are neither copied nor locked.
type Shipment struct {
	LocalID      uint     `json:"local_id,omitempty"`
	UUID         string   `json:"uuid"`
	Reference    string   `json:"reference" validate:"required"`
	OrderUUIDs   []string `json:"order_uuids" validate:"min=1"`
	Attachments  []string `json:"attachments,omitempty"`
	Note         string   `json:"note,omitempty"`
	DispatchDate string   `json:"dispatch_date" validate:"required,datetime=2006-01-02"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
	Deleted      bool     `json:"deleted,omitempty"`
}

func (s Shipment) Key() string  { return s.UUID }
func (s Shipment) Stamp() int64 { return s.UpdatedAt }

// Normalize trims text fields and turns the order selection into a sorted
// set without blanks or duplicates.
func Normalize(s Shipment) Shipment {
	s.UUID = strings.TrimSpace(s.UUID)
	s.Reference = strings.TrimSpace(s.Reference)
	s.Note = strings.TrimSpace(s.Note)
	s.DispatchDate = strings.TrimSpace(s.DispatchDate)
	s.OrderUUIDs = NormalizeSet(s.OrderUUIDs)
	if s.Attachments != nil {
		s.Attachments = slices.Clone(s.Attachments)
	}
	return s
}

// NormalizeSet trims, drops blanks and dedupes a uuid selection.
func NormalizeSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Validate rejects an empty reference, a missing dispatch date and an empty
// order selection.
func Validate(s Shipment) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.UUID != "" {
		if _, err := uuid.Parse(s.UUID); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"uuid": "must be a valid uuid"})
		}
	}
	return nil
}

// Touch stamps identity and the write clock the same way orders do.
func Touch(prev *Shipment, next Shipment, now int64) Shipment {
	if prev != nil {
		next.UUID = prev.UUID
		next.LocalID = prev.LocalID
		next.CreatedAt = prev.CreatedAt
		next.UpdatedAt = orders.NextStamp(prev.UpdatedAt, now)
		return next
	}
	if next.UUID == "" {
		next.UUID = uuid.NewString()
	}
	if next.CreatedAt == 0 {
		next.CreatedAt = now
	}
	next.UpdatedAt = orders.NextStamp(next.UpdatedAt, now)
	return next
}
