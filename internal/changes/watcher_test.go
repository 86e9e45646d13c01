package changes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/shipbridge/internal/mode"
	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	"github.com/angelmondragon/shipbridge/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscription struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeSubscriber struct {
	mu       sync.Mutex
	opened   int
	onChange func(enums.Kind)
	onDrop   func(error)
	current  *fakeSubscription
}

func (f *fakeSubscriber) Subscribe(_ context.Context, onChange func(enums.Kind), onDrop func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	f.onChange, f.onDrop = onChange, onDrop
	f.current = &fakeSubscription{}
	return f.current, nil
}

func (f *fakeSubscriber) emit(kind enums.Kind) {
	f.mu.Lock()
	fn := f.onChange
	f.mu.Unlock()
	fn(kind)
}

func (f *fakeSubscriber) drop(err error) {
	f.mu.Lock()
	fn := f.onDrop
	f.mu.Unlock()
	fn(err)
}

type countingRemote struct {
	store *mode.RemoteStore
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingRemote) Store(context.Context) (mode.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.store, nil
}

func (c *countingRemote) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func putRemoteOrder(t *testing.T, store *mode.RemoteStore, customer string) {
	t.Helper()
	_, err := store.PutOrder(context.Background(), orders.Order{
		UUID: uuid.NewString(), Customer: customer, City: "Pune", Material: "Steel", Qty: 1,
		Status: enums.OrderStatusPending, CreatedAt: 100, UpdatedAt: 100,
	})
	require.NoError(t, err)
}

func TestWatcherRefreshesOnDebouncedChange(t *testing.T) {
	remote := &countingRemote{store: mode.NewRemoteStore(db.NewRemoteTestDB(t))}
	sub := &fakeSubscriber{}
	snaps := make(chan Snapshot, 8)
	w := NewWatcher(sub, remote, WithDebounce(20*time.Millisecond), WithSnapshotHook(func(s Snapshot) { snaps <- s }))
	ctx := context.Background()

	require.NoError(t, w.Start(ctx))
	defer w.Close()
	initial := <-snaps
	assert.True(t, initial.Live)
	assert.Empty(t, initial.Orders)

	putRemoteOrder(t, remote.store, "Acme")
	sub.emit(enums.KindOrders)
	sub.emit(enums.KindOrders)
	sub.emit(enums.KindOrders)

	select {
	case snap := <-snaps:
		require.Len(t, snap.Orders, 1)
		assert.Equal(t, "Acme", snap.Orders[0].Customer)
	case <-time.After(time.Second):
		t.Fatal("expected a refresh")
	}
	assert.Equal(t, 2, remote.count(), "one initial read plus one debounced read")
	assert.Len(t, w.Snapshot().Orders, 1)
}

func TestWatcherFollowsMode(t *testing.T) {
	remote := &countingRemote{store: mode.NewRemoteStore(db.NewRemoteTestDB(t))}
	local := mode.NewLocalStore(db.NewLocalTestDB(t))
	sw, err := mode.NewSwitch(context.Background(), nil, local, remote, enums.DeletionSoft)
	require.NoError(t, err)

	sub := &fakeSubscriber{}
	w := NewWatcher(sub, remote, WithDebounce(10*time.Millisecond))
	ctx := context.Background()
	require.NoError(t, w.Attach(ctx, sw))
	assert.False(t, w.Active(), "offline sessions do not subscribe")

	require.NoError(t, sw.SetMode(ctx, enums.ModeOnline))
	assert.True(t, w.Active())
	assert.Equal(t, 1, sub.opened)

	require.NoError(t, sw.SetMode(ctx, enums.ModeOffline))
	assert.False(t, w.Active())
	assert.True(t, sub.current.closed)
	assert.False(t, w.Snapshot().Live)
}

func TestWatcherDropReleasesSubscription(t *testing.T) {
	remote := &countingRemote{store: mode.NewRemoteStore(db.NewRemoteTestDB(t))}
	sub := &fakeSubscriber{}
	w := NewWatcher(sub, remote)
	ctx := context.Background()

	require.NoError(t, w.Start(ctx))
	sub.drop(errors.New("connection reset"))
	assert.False(t, w.Active())
	assert.False(t, w.Snapshot().Live)

	require.NoError(t, w.Start(ctx))
	assert.Equal(t, 2, sub.opened, "re-entering online subscribes again")
	require.NoError(t, w.Close())
}

func TestWatcherRefreshFailureCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewSyncMetrics(reg)
	remote := &countingRemote{err: errors.New("boom")}
	w := NewWatcher(&fakeSubscriber{}, remote, WithWatcherMetrics(m))

	assert.Error(t, w.Refresh(context.Background()))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "shipbridge_live_refresh_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == "failure" {
					found = metric.GetCounter().GetValue() == 1
				}
			}
		}
	}
	assert.True(t, found)
}
