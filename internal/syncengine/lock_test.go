package syncengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryOwners struct {
	data    map[string]string
	failDel bool
}

func (m *memoryOwners) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryOwners) DeleteIfEquals(_ context.Context, key, value string) (bool, error) {
	if m.failDel {
		return false, errors.New("connection reset")
	}
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func TestRedisLockExclusion(t *testing.T) {
	store := &memoryOwners{data: map[string]string{}}
	ctx := context.Background()

	first, err := NewRedisLock(store, "shipbridge:lock:sync", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "shipbridge:lock:sync", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.data, "shipbridge:lock:sync", "a non-owner must not release")

	require.NoError(t, first.Release(ctx))
	assert.Empty(t, store.data)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := &memoryOwners{data: map[string]string{}}
	lock, err := NewRedisLock(store, "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	store.data["k"] = "someone-else"
	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, "someone-else", store.data["k"])
}

func TestRedisLockReleaseError(t *testing.T) {
	store := &memoryOwners{data: map[string]string{}}
	lock, err := NewRedisLock(store, "k", time.Second)
	require.NoError(t, err)
	_, err = lock.Acquire(context.Background())
	require.NoError(t, err)

	store.failDel = true
	assert.Error(t, lock.Release(context.Background()))
	store.failDel = false
	assert.NoError(t, lock.Release(context.Background()), "token is dropped after the first release attempt")
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Second)
	assert.Error(t, err)
	_, err = NewRedisLock(&memoryOwners{}, "", time.Second)
	assert.Error(t, err)
}
