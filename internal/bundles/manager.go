package bundles

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/shipments"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Store is the routed CRUD surface the manager works through; *mode.Switch
// satisfies it.
type Store interface {
	ListOrders(ctx context.Context) ([]orders.Order, error)
	ListShipments(ctx context.Context) ([]shipments.Shipment, error)
	GetShipment(ctx context.Context, id string) (*shipments.Shipment, error)
	SaveShipment(ctx context.Context, s shipments.Shipment) (shipments.Shipment, error)
	DeleteShipment(ctx context.Context, id string) error
}

// Input carries the editable fields of a bundle.
type Input struct {
	Reference    string   `json:"reference"`
	DispatchDate string   `json:"dispatch_date"`
	OrderUUIDs   []string `json:"order_uuids"`
	Note         string   `json:"note"`
	Attachments  []string `json:"attachments,omitempty"`
}

type Manager struct {
	store Store
	logg  *logger.Logger
}

func NewManager(store Store, logg *logger.Logger) *Manager {
	return &Manager{store: store, logg: logg}
}

// ListAvailableOrders returns orders that may be added to a bundle. editing
// is the uuid of the bundle being edited, or empty when creating one.
func (m *Manager) ListAvailableOrders(ctx context.Context, editing string) ([]orders.Order, error) {
	allOrders, allShipments, err := m.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return AvailableOrders(allOrders, allShipments, strings.TrimSpace(editing)), nil
}

func (m *Manager) CreateBundle(ctx context.Context, in Input) (shipments.Shipment, error) {
	candidate := shipments.Normalize(fromInput(in))
	if err := shipments.Validate(candidate); err != nil {
		return shipments.Shipment{}, err
	}
	if err := m.checkAvailable(ctx, candidate.OrderUUIDs, ""); err != nil {
		return shipments.Shipment{}, err
	}
	saved, err := m.store.SaveShipment(ctx, candidate)
	if err != nil {
		return shipments.Shipment{}, err
	}
	m.log(ctx, saved.UUID, "bundle created")
	return saved, nil
}

// UpdateBundle replaces the editable fields of an existing bundle. Its own
// members remain selectable; orders held by other bundles are rejected.
func (m *Manager) UpdateBundle(ctx context.Context, id string, in Input) (shipments.Shipment, error) {
	id = strings.TrimSpace(id)
	current, err := m.store.GetShipment(ctx, id)
	if err != nil {
		return shipments.Shipment{}, err
	}
	if current.Deleted {
		return shipments.Shipment{}, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}

	candidate := fromInput(in)
	candidate.UUID = current.UUID
	if candidate.Attachments == nil {
		candidate.Attachments = current.Attachments
	}
	candidate = shipments.Normalize(candidate)
	if err := shipments.Validate(candidate); err != nil {
		return shipments.Shipment{}, err
	}
	if err := m.checkAvailable(ctx, candidate.OrderUUIDs, current.UUID); err != nil {
		return shipments.Shipment{}, err
	}
	saved, err := m.store.SaveShipment(ctx, candidate)
	if err != nil {
		return shipments.Shipment{}, err
	}
	m.log(ctx, saved.UUID, "bundle updated")
	return saved, nil
}

// DeleteBundle removes the shipment; its orders return to the available
// pool on the next read.
func (m *Manager) DeleteBundle(ctx context.Context, id string) error {
	if err := m.store.DeleteShipment(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	m.log(ctx, id, "bundle deleted")
	return nil
}

// Violations recomputes the exclusivity invariant over the current store.
func (m *Manager) Violations(ctx context.Context) ([]Violation, error) {
	list, err := m.store.ListShipments(ctx)
	if err != nil {
		return nil, err
	}
	return CheckExclusivity(list), nil
}

func (m *Manager) snapshot(ctx context.Context) ([]orders.Order, []shipments.Shipment, error) {
	var (
		allOrders    []orders.Order
		allShipments []shipments.Shipment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		allOrders, err = m.store.ListOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		allShipments, err = m.store.ListShipments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return allOrders, allShipments, nil
}

func (m *Manager) checkAvailable(ctx context.Context, selected []string, editing string) error {
	allOrders, allShipments, err := m.snapshot(ctx)
	if err != nil {
		return err
	}
	available := make(map[string]struct{}, len(allOrders))
	for _, o := range AvailableOrders(allOrders, allShipments, editing) {
		available[o.UUID] = struct{}{}
	}
	var missing []string
	for _, id := range selected {
		if _, ok := available[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{
		"order_uuids": fmt.Sprintf("not available for bundling: %s", strings.Join(missing, ", ")),
	})
}

func (m *Manager) log(ctx context.Context, id, msg string) {
	if m.logg == nil {
		return
	}
	m.logg.Info(m.logg.WithField(ctx, "shipment_uuid", id), msg)
}

func fromInput(in Input) shipments.Shipment {
	return shipments.Shipment{
		Reference:    in.Reference,
		DispatchDate: in.DispatchDate,
		OrderUUIDs:   in.OrderUUIDs,
		Note:         in.Note,
		Attachments:  in.Attachments,
	}
}
