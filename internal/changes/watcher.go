package changes

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/angelmondragon/shipbridge/internal/mode"
	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/shipments"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	"github.com/angelmondragon/shipbridge/pkg/logger"
	"github.com/angelmondragon/shipbridge/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultDebounce = 500 * time.Millisecond

// Snapshot is the latest remote view assembled from change-triggered reads.
type Snapshot struct {
	Orders      []orders.Order       `json:"orders"`
	Shipments   []shipments.Shipment `json:"shipments"`
	RefreshedAt time.Time            `json:"refreshed_at"`
	Live        bool                 `json:"live"`
}

type WatcherOption func(*Watcher)

func WithDebounce(window time.Duration) WatcherOption {
	return func(w *Watcher) {
		if window > 0 {
			w.window = window
		}
	}
}

func WithWatcherLogger(logg *logger.Logger) WatcherOption {
	return func(w *Watcher) { w.logg = logg }
}

func WithWatcherMetrics(m *metrics.SyncMetrics) WatcherOption {
	return func(w *Watcher) { w.metrics = m }
}

// WithSnapshotHook is called after every successful refresh.
func WithSnapshotHook(fn func(Snapshot)) WatcherOption {
	return func(w *Watcher) { w.onSnapshot = fn }
}

// Watcher keeps a subscription open while the mode is Online and answers
// each debounced notification with a full re-read through the remote store.
// It never runs the sync engine and never reads the local store.
type Watcher struct {
	sub        Subscriber
	remote     mode.RemoteSource
	window     time.Duration
	logg       *logger.Logger
	metrics    *metrics.SyncMetrics
	onSnapshot func(Snapshot)

	mu        sync.Mutex
	gen       int
	current   Subscription
	cancel    context.CancelFunc
	debouncer *Debouncer

	refreshMu sync.Mutex
	snapMu    sync.RWMutex
	snapshot  Snapshot
}

func NewWatcher(sub Subscriber, remote mode.RemoteSource, opts ...WatcherOption) *Watcher {
	w := &Watcher{sub: sub, remote: remote, window: defaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Attach follows the switch: subscribe on entering Online, release on
// leaving it.
func (w *Watcher) Attach(ctx context.Context, sw *mode.Switch) error {
	sw.OnChange(w.HandleMode)
	if sw.Mode() == enums.ModeOnline {
		return w.Start(ctx)
	}
	return nil
}

func (w *Watcher) HandleMode(ctx context.Context, m enums.Mode) {
	if m != enums.ModeOnline {
		if err := w.Stop(); err != nil {
			w.logError(ctx, "closing change subscription", err)
		}
		return
	}
	if err := w.Start(ctx); err != nil {
		w.logError(ctx, "opening change subscription", err)
	}
}

// Start subscribes and performs an initial full read. It is a no-op when a
// subscription is already open.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.gen++
	gen := w.gen
	deb := NewDebouncer(w.window, func(kinds []enums.Kind) {
		_ = w.refresh(runCtx, kinds)
	})
	onChange := func(kind enums.Kind) {
		w.metrics.IncNotification(kind.String())
		deb.Trigger(kind)
	}
	onDrop := func(err error) {
		w.logError(runCtx, "change subscription dropped", err)
		w.release(gen)
	}

	sub, err := w.sub.Subscribe(runCtx, onChange, onDrop)
	if err != nil {
		cancel()
		return err
	}
	w.current, w.cancel, w.debouncer = sub, cancel, deb
	w.setLive(true)
	if w.logg != nil {
		w.logg.Info(runCtx, "change subscription opened")
	}

	go func() { _ = w.refresh(runCtx, enums.AllKinds) }()
	return nil
}

// Stop releases the subscription and aborts any in-flight refresh.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopLocked()
}

func (w *Watcher) Close() error {
	return w.Stop()
}

func (w *Watcher) release(gen int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		return
	}
	_ = w.stopLocked()
}

func (w *Watcher) stopLocked() error {
	if w.current == nil {
		return nil
	}
	w.debouncer.Stop()
	w.cancel()
	err := w.current.Close()
	w.current, w.cancel, w.debouncer = nil, nil, nil
	w.setLive(false)
	return err
}

// Active reports whether a subscription is open.
func (w *Watcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current != nil
}

// Refresh re-reads every collection now.
func (w *Watcher) Refresh(ctx context.Context) error {
	return w.refresh(ctx, enums.AllKinds)
}

func (w *Watcher) refresh(ctx context.Context, kinds []enums.Kind) error {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	store, err := w.remote.Store(ctx)
	if err != nil {
		w.metrics.IncRefresh(false)
		w.logError(ctx, "live refresh", err)
		return err
	}

	var (
		orderList    []orders.Order
		shipmentList []shipments.Shipment
	)
	g, gctx := errgroup.WithContext(ctx)
	if slices.Contains(kinds, enums.KindOrders) {
		g.Go(func() error {
			list, err := store.ListOrders(gctx)
			orderList = list
			return err
		})
	}
	if slices.Contains(kinds, enums.KindShipments) {
		g.Go(func() error {
			list, err := store.ListShipments(gctx)
			shipmentList = list
			return err
		})
	}
	if err := g.Wait(); err != nil {
		w.metrics.IncRefresh(false)
		w.logError(ctx, "live refresh", err)
		return err
	}

	w.snapMu.Lock()
	if slices.Contains(kinds, enums.KindOrders) {
		w.snapshot.Orders = orderList
	}
	if slices.Contains(kinds, enums.KindShipments) {
		w.snapshot.Shipments = shipmentList
	}
	w.snapshot.RefreshedAt = time.Now().UTC()
	snap := w.copySnapshot()
	w.snapMu.Unlock()

	w.metrics.IncRefresh(true)
	if w.onSnapshot != nil {
		w.onSnapshot(snap)
	}
	return nil
}

// Snapshot returns a copy of the latest remote view.
func (w *Watcher) Snapshot() Snapshot {
	w.snapMu.RLock()
	defer w.snapMu.RUnlock()
	return w.copySnapshot()
}

func (w *Watcher) copySnapshot() Snapshot {
	return Snapshot{
		Orders:      slices.Clone(w.snapshot.Orders),
		Shipments:   slices.Clone(w.snapshot.Shipments),
		RefreshedAt: w.snapshot.RefreshedAt,
		Live:        w.snapshot.Live,
	}
}

func (w *Watcher) setLive(live bool) {
	w.snapMu.Lock()
	w.snapshot.Live = live
	w.snapMu.Unlock()
}

func (w *Watcher) logError(ctx context.Context, msg string, err error) {
	if w.logg == nil {
		return
	}
	w.logg.Error(ctx, msg, err)
}
