package mode

import (
	"context"

	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/shipments"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	"gorm.io/gorm"
)

// Store is the read/write/delete surface every CRUD caller goes through.
// Writes store the record exactly as given; identity and clock stamping
// happen in Switch.
type Store interface {
	ListOrders(ctx context.Context) ([]orders.Order, error)
	GetOrder(ctx context.Context, id string) (*orders.Order, error)
	PutOrder(ctx context.Context, o orders.Order) (orders.Order, error)
	DeleteOrder(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error

	ListShipments(ctx context.Context) ([]shipments.Shipment, error)
	GetShipment(ctx context.Context, id string) (*shipments.Shipment, error)
	PutShipment(ctx context.Context, s shipments.Shipment) (shipments.Shipment, error)
	DeleteShipment(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error
}

// LocalStore serves Store from the embedded database.
type LocalStore struct {
	Orders    *orders.LocalRepository
	Shipments *shipments.LocalRepository
}

func NewLocalStore(conn *gorm.DB) *LocalStore {
	return &LocalStore{
		Orders:    orders.NewLocalRepository(conn),
		Shipments: shipments.NewLocalRepository(conn),
	}
}

func (s *LocalStore) ListOrders(ctx context.Context) ([]orders.Order, error) {
	return s.Orders.List(ctx, false)
}

func (s *LocalStore) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	return s.Orders.Get(ctx, id)
}

func (s *LocalStore) PutOrder(ctx context.Context, o orders.Order) (orders.Order, error) {
	return s.Orders.Put(ctx, o)
}

func (s *LocalStore) DeleteOrder(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	return s.Orders.Delete(ctx, id, policy, now)
}

func (s *LocalStore) ListShipments(ctx context.Context) ([]shipments.Shipment, error) {
	return s.Shipments.List(ctx, false)
}

func (s *LocalStore) GetShipment(ctx context.Context, id string) (*shipments.Shipment, error) {
	return s.Shipments.Get(ctx, id)
}

func (s *LocalStore) PutShipment(ctx context.Context, sh shipments.Shipment) (shipments.Shipment, error) {
	return s.Shipments.Put(ctx, sh)
}

func (s *LocalStore) DeleteShipment(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	return s.Shipments.Delete(ctx, id, policy, now)
}

// RemoteStore serves Store from the shared relational database.
type RemoteStore struct {
	Orders    *orders.RemoteRepository
	Shipments *shipments.RemoteRepository
}

func NewRemoteStore(conn *gorm.DB) *RemoteStore {
	return &RemoteStore{
		Orders:    orders.NewRemoteRepository(conn),
		Shipments: shipments.NewRemoteRepository(conn),
	}
}

func (s *RemoteStore) ListOrders(ctx context.Context) ([]orders.Order, error) {
	return s.Orders.List(ctx, false)
}

func (s *RemoteStore) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	return s.Orders.Get(ctx, id)
}

func (s *RemoteStore) PutOrder(ctx context.Context, o orders.Order) (orders.Order, error) {
	return s.Orders.Put(ctx, o)
}

func (s *RemoteStore) DeleteOrder(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	return s.Orders.Delete(ctx, id, policy, now)
}

func (s *RemoteStore) ListShipments(ctx context.Context) ([]shipments.Shipment, error) {
	return s.Shipments.List(ctx, false)
}

func (s *RemoteStore) GetShipment(ctx context.Context, id string) (*shipments.Shipment, error) {
	return s.Shipments.Get(ctx, id)
}

func (s *RemoteStore) PutShipment(ctx context.Context, sh shipments.Shipment) (shipments.Shipment, error) {
	return s.Shipments.Put(ctx, sh)
}

func (s *RemoteStore) DeleteShipment(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	return s.Shipments.Delete(ctx, id, policy, now)
}
