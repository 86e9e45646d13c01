package mode

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/shipments"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
)

// ModeStore persists the selected mode between sessions.
type ModeStore interface {
	Mode(ctx context.Context) (enums.Mode, error)
	SetMode(ctx context.Context, mode enums.Mode) error
}

// RemoteSource resolves the remote Store at call time.
type RemoteSource interface {
	Store(ctx context.Context) (Store, error)
}

// Notifier announces a remote write to other sessions. Transports that rely
// on database triggers leave it unset.
type Notifier interface {
	Notify(ctx context.Context, kind enums.Kind) error
}

// Listener is notified after the mode changed.
type Listener func(ctx context.Context, mode enums.Mode)

// Option customises a Switch.
type Option func(*Switch)

// WithClock overrides the unix-millisecond clock used to stamp writes.
func WithClock(now func() int64) Option {
	return func(s *Switch) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(logg *logger.Logger) Option {
	return func(s *Switch) { s.logg = logg }
}

// WithNotifier announces Online writes and deletes.
func WithNotifier(n Notifier) Option {
	return func(s *Switch) { s.notifier = n }
}

// Switch routes every read, write and delete to exactly one store based on
// the current mode. It never falls back: an Online call without credentials
// fails with NOT_CONFIGURED. Changing mode moves no data.
type Switch struct {
	mu        sync.RWMutex
	mode      enums.Mode
	listeners []Listener

	settings ModeStore
	local    Store
	remote   RemoteSource
	policy   enums.DeletionPolicy
	now      func() int64
	logg     *logger.Logger
	notifier Notifier
}

// NewSwitch restores the persisted mode.
func NewSwitch(ctx context.Context, settings ModeStore, local Store, remote RemoteSource, policy enums.DeletionPolicy, opts ...Option) (*Switch, error) {
	if !policy.IsValid() {
		policy = enums.DeletionSoft
	}
	s := &Switch{
		mode:     enums.ModeOffline,
		settings: settings,
		local:    local,
		remote:   remote,
		policy:   policy,
		now:      func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if settings != nil {
		persisted, err := settings.Mode(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load persisted mode")
		}
		s.mode = persisted
	}
	return s, nil
}

func (s *Switch) Mode() enums.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Policy returns the deletion policy applied by Delete calls.
func (s *Switch) Policy() enums.DeletionPolicy {
	return s.policy
}

// OnChange registers a listener called after every effective mode change.
func (s *Switch) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetMode persists and applies the new mode. Entering Online does not
// require credentials; the first routed call reports NOT_CONFIGURED instead.
func (s *Switch) SetMode(ctx context.Context, m enums.Mode) error {
	if !m.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "mode must be offline or online")
	}
	if s.settings != nil {
		if err := s.settings.SetMode(ctx, m); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist mode")
		}
	}

	s.mu.Lock()
	changed := s.mode != m
	s.mode = m
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if !changed {
		return nil
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithMode(ctx, m.String()), "mode changed")
	}
	for _, l := range listeners {
		l(ctx, m)
	}
	return nil
}

// Target returns the store the current mode routes to.
func (s *Switch) Target(ctx context.Context) (Store, error) {
	if s.Mode() == enums.ModeOnline {
		if s.remote == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotConfigured, "remote store not configured")
		}
		return s.remote.Store(ctx)
	}
	return s.local, nil
}

func (s *Switch) ListOrders(ctx context.Context) ([]orders.Order, error) {
	target, err := s.Target(ctx)
	if err != nil {
		return nil, err
	}
	return target.ListOrders(ctx)
}

func (s *Switch) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	target, err := s.Target(ctx)
	if err != nil {
		return nil, err
	}
	return target.GetOrder(ctx, id)
}

// SaveOrder creates or updates an order. Identity and createdAt are kept
// for an existing uuid and updatedAt always moves forward.
func (s *Switch) SaveOrder(ctx context.Context, in orders.Order) (orders.Order, error) {
	target, err := s.Target(ctx)
	if err != nil {
		return orders.Order{}, err
	}
	in = orders.Normalize(in)

	var prev *orders.Order
	if in.UUID != "" {
		prev, err = target.GetOrder(ctx, in.UUID)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return orders.Order{}, err
		}
	}
	next := orders.Touch(prev, in, s.now())
	next.Deleted = false
	if err := orders.Validate(next); err != nil {
		return orders.Order{}, err
	}
	saved, err := target.PutOrder(ctx, next)
	if err != nil {
		return orders.Order{}, err
	}
	s.announce(ctx, target, enums.KindOrders)
	return saved, nil
}

func (s *Switch) DeleteOrder(ctx context.Context, id string) error {
	target, err := s.Target(ctx)
	if err != nil {
		return err
	}
	if err := target.DeleteOrder(ctx, id, s.policy, s.now()); err != nil {
		return err
	}
	s.announce(ctx, target, enums.KindOrders)
	return nil
}

func (s *Switch) ListShipments(ctx context.Context) ([]shipments.Shipment, error) {
	target, err := s.Target(ctx)
	if err != nil {
		return nil, err
	}
	return target.ListShipments(ctx)
}

func (s *Switch) GetShipment(ctx context.Context, id string) (*shipments.Shipment, error) {
	target, err := s.Target(ctx)
	if err != nil {
		return nil, err
	}
	return target.GetShipment(ctx, id)
}

func (s *Switch) SaveShipment(ctx context.Context, in shipments.Shipment) (shipments.Shipment, error) {
	target, err := s.Target(ctx)
	if err != nil {
		return shipments.Shipment{}, err
	}
	in = shipments.Normalize(in)

	var prev *shipments.Shipment
	if in.UUID != "" {
		prev, err = target.GetShipment(ctx, in.UUID)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return shipments.Shipment{}, err
		}
	}
	next := shipments.Touch(prev, in, s.now())
	next.Deleted = false
	if err := shipments.Validate(next); err != nil {
		return shipments.Shipment{}, err
	}
	saved, err := target.PutShipment(ctx, next)
	if err != nil {
		return shipments.Shipment{}, err
	}
	s.announce(ctx, target, enums.KindShipments)
	return saved, nil
}

func (s *Switch) DeleteShipment(ctx context.Context, id string) error {
	target, err := s.Target(ctx)
	if err != nil {
		return err
	}
	if err := target.DeleteShipment(ctx, id, s.policy, s.now()); err != nil {
		return err
	}
	s.announce(ctx, target, enums.KindShipments)
	return nil
}

// announce is best effort: a lost notification only delays other sessions.
func (s *Switch) announce(ctx context.Context, target Store, kind enums.Kind) {
	if s.notifier == nil || target == s.local {
		return
	}
	if err := s.notifier.Notify(ctx, kind); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithKind(ctx, kind.String()), "change notification failed")
	}
}
