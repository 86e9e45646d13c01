package syncengine

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/shipbridge/internal/mode"
	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/shipments"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/angelmondragon/shipbridge/pkg/logger"
	"github.com/angelmondragon/shipbridge/pkg/metrics"
	"github.com/google/uuid"
)

// Watermark persists lastSyncTime outside both stores.
type Watermark interface {
	LastSyncTime(ctx context.Context) (int64, error)
	SetLastSyncTime(ctx context.Context, ms int64) error
}

// RemoteResolver hands out the remote repositories for one run; it fails
// with NOT_CONFIGURED when credentials are missing.
type RemoteResolver interface {
	Remote(ctx context.Context) (*mode.RemoteStore, error)
}

// KindResult counts the work done for one collection.
type KindResult struct {
	Repaired int `json:"repaired"`
	Pushed   int `json:"pushed"`
	Pulled   int `json:"pulled"`
}

// Result summarises a sync run.
type Result struct {
	Pushed    int        `json:"pushed"`
	Pulled    int        `json:"pulled"`
	Orders    KindResult `json:"orders"`
	Shipments KindResult `json:"shipments"`
	StartedAt int64      `json:"started_at"`
}

func (r *Result) add(kind enums.Kind, fn func(*KindResult)) {
	switch kind {
	case enums.KindOrders:
		fn(&r.Orders)
	case enums.KindShipments:
		fn(&r.Shipments)
	}
}

type Option func(*Engine)

// WithClock overrides the unix-millisecond clock.
func WithClock(now func() int64) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides uuid generation for the repair pass.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithLock adds cross-process exclusion on top of the in-process guard.
func WithLock(lock Lock) Option {
	return func(e *Engine) { e.lock = lock }
}

// WithNotifier announces pushed collections to live sessions.
func WithNotifier(n mode.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithMetrics(m *metrics.SyncMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(logg *logger.Logger) Option {
	return func(e *Engine) { e.logg = logg }
}

// Engine reconciles the local and remote stores. It is the only component
// that touches both in one operation and ignores the current mode.
type Engine struct {
	local  *mode.LocalStore
	remote RemoteResolver
	mark   Watermark

	lock     Lock
	notifier mode.Notifier
	metrics  *metrics.SyncMetrics
	logg     *logger.Logger
	now      func() int64
	newID    func() string

	mu     sync.Mutex
	flight *flight
}

// flight is one in-progress run shared by every caller that asked for a sync
// while it was running. It is canceled only once all of them have left.
type flight struct {
	done     chan struct{}
	cancel   context.CancelFunc
	waiters  int
	canceled bool
	result   Result
	err      error
}

func New(local *mode.LocalStore, remote RemoteResolver, mark Watermark, opts ...Option) *Engine {
	e := &Engine{
		local:  local,
		remote: remote,
		mark:   mark,
		now:    func() int64 { return time.Now().UnixMilli() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync runs one reconciliation. Concurrent callers share the in-flight run
// and its result instead of starting an overlapping one. The run is detached
// from any single caller: one caller giving up returns "sync aborted" to that
// caller only, and the run stops only when no caller is left waiting.
func (e *Engine) Sync(ctx context.Context) (Result, error) {
	f, err := e.join(ctx)
	if err != nil {
		return Result{}, err
	}
	select {
	case <-f.done:
		e.leave(f, false)
		return f.result, f.err
	case <-ctx.Done():
		e.leave(f, true)
		return Result{}, aborted(ctx.Err())
	}
}

// join attaches the caller to the running flight or starts one. A flight
// already canceled by its last waiter is left to wind down before a fresh
// one starts, so two runs never overlap.
func (e *Engine) join(ctx context.Context) (*flight, error) {
	for {
		e.mu.Lock()
		f := e.flight
		if f == nil {
			f = e.start(ctx)
		}
		if !f.canceled {
			f.waiters++
			e.mu.Unlock()
			return f, nil
		}
		e.mu.Unlock()

		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, aborted(ctx.Err())
		}
	}
}

// start must be called with e.mu held.
func (e *Engine) start(ctx context.Context) *flight {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f := &flight{done: make(chan struct{}), cancel: cancel}
	e.flight = f
	go func() {
		defer cancel()
		result, err := e.run(runCtx)
		e.mu.Lock()
		f.result, f.err = result, err
		if e.flight == f {
			e.flight = nil
		}
		e.mu.Unlock()
		close(f.done)
	}()
	return f
}

func (e *Engine) leave(f *flight, gaveUp bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f.waiters--
	if gaveUp && f.waiters == 0 && !f.canceled {
		select {
		case <-f.done:
		default:
			f.canceled = true
			f.cancel()
		}
	}
}

// LastSyncTime reports the persisted high-water mark.
func (e *Engine) LastSyncTime(ctx context.Context) (int64, error) {
	return e.mark.LastSyncTime(ctx)
}

func (e *Engine) run(ctx context.Context) (result Result, err error) {
	begin := time.Now()
	started := e.now()
	result.StartedAt = started
	if e.logg != nil {
		ctx = e.logg.WithSyncRun(ctx, uuid.NewString())
	}
	defer func() {
		e.observe(ctx, result, err, time.Since(begin))
	}()

	remote, err := e.remote.Remote(ctx)
	if err != nil {
		return result, err
	}

	if e.lock != nil {
		ok, lockErr := e.lock.Acquire(ctx)
		if lockErr != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeInternal, lockErr, "acquire sync lock")
		}
		if !ok {
			return result, pkgerrors.New(pkgerrors.CodeConflict, "another sync is already running")
		}
		defer func() {
			if relErr := e.lock.Release(context.WithoutCancel(ctx)); relErr != nil && e.logg != nil {
				e.logg.Warn(e.logg.WithField(ctx, "error", relErr.Error()), "release sync lock failed")
			}
		}()
	}

	since, err := e.mark.LastSyncTime(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, aborted(ctxErr)
		}
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read last sync time")
	}

	cols := []collection{
		newPair[orders.Order](enums.KindOrders, e.local.Orders, remote.Orders, e.newID),
		newPair[shipments.Shipment](enums.KindShipments, e.local.Shipments, remote.Shipments, e.newID),
	}

	for _, c := range cols {
		n, err := c.Repair(ctx, started)
		if err != nil {
			return result, err
		}
		result.add(c.Kind(), func(k *KindResult) { k.Repaired = n })
	}

	// every push finishes before any pull starts
	for _, c := range cols {
		if err := ctx.Err(); err != nil {
			return result, aborted(err)
		}
		n, err := c.Push(ctx, since)
		if err != nil {
			return result, err
		}
		result.Pushed += n
		result.add(c.Kind(), func(k *KindResult) { k.Pushed = n })
		if n > 0 && e.notifier != nil {
			if nerr := e.notifier.Notify(ctx, c.Kind()); nerr != nil && e.logg != nil {
				e.logg.Warn(e.logg.WithKind(ctx, c.Kind().String()), "change notification failed")
			}
		}
	}

	for _, c := range cols {
		if err := ctx.Err(); err != nil {
			return result, aborted(err)
		}
		n, err := c.Pull(ctx, since)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, aborted(ctxErr)
			}
			return result, err
		}
		result.Pulled += n
		result.add(c.Kind(), func(k *KindResult) { k.Pulled = n })
	}

	if err := ctx.Err(); err != nil {
		return result, aborted(err)
	}
	// the mark is the start of this run, not the newest timestamp seen, so a
	// write landing mid-run with an older clock can be skipped by the next push
	if err := e.mark.SetLastSyncTime(ctx, started); err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance last sync time")
	}
	return result, nil
}

func aborted(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "sync aborted")
}

func (e *Engine) observe(ctx context.Context, result Result, err error, took time.Duration) {
	code := ""
	if err != nil {
		code = string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
	}
	e.metrics.ObserveRun(code, took)
	e.metrics.AddRecords(enums.KindOrders.String(), "push", result.Orders.Pushed)
	e.metrics.AddRecords(enums.KindOrders.String(), "pull", result.Orders.Pulled)
	e.metrics.AddRecords(enums.KindShipments.String(), "push", result.Shipments.Pushed)
	e.metrics.AddRecords(enums.KindShipments.String(), "pull", result.Shipments.Pulled)

	if e.logg == nil {
		return
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"pushed":      result.Pushed,
		"pulled":      result.Pulled,
		"duration_ms": took.Milliseconds(),
	})
	if err != nil {
		e.logg.Error(ctx, "sync failed", err)
		return
	}
	e.logg.Info(ctx, "sync completed")
}
