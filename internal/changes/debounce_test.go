package changes

import (
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/shipbridge/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireRecorder struct {
	mu    sync.Mutex
	calls [][]enums.Kind
}

func (f *fireRecorder) fire(kinds []enums.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kinds)
}

func (f *fireRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(30*time.Millisecond, rec.fire)

	for i := 0; i < 5; i++ {
		d.Trigger(enums.KindShipments)
	}
	d.Trigger(enums.KindOrders)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, []enums.Kind{enums.KindOrders, enums.KindShipments}, rec.calls[0])
}

func TestDebouncerSeparateBursts(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(10*time.Millisecond, rec.fire)

	d.Trigger(enums.KindOrders)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	d.Trigger(enums.KindOrders)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerStopDropsPending(t *testing.T) {
	rec := &fireRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.fire)

	d.Trigger(enums.KindOrders)
	d.Stop()
	d.Trigger(enums.KindShipments)
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, rec.count())
}
