package syncengine

import (
	"context"

	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/enums"
)

// Record is anything carrying a cross-store key and a last-write-wins clock.
type Record interface {
	Key() string
	Stamp() int64
}

// LocalSide is the embedded-store half of a synchronized collection.
type LocalSide[T Record] interface {
	ChangedSince(ctx context.Context, since int64) ([]T, error)
	FindByUUIDs(ctx context.Context, ids []string) (map[string]T, error)
	Apply(ctx context.Context, rec T) error
	RepairMissingUUIDs(ctx context.Context, now int64, newID func() string) (int, error)
}

// RemoteSide is the shared-store half of a synchronized collection.
type RemoteSide[T Record] interface {
	ChangedSince(ctx context.Context, since int64) ([]T, error)
	BulkUpsert(ctx context.Context, items []T) error
}

type collection interface {
	Kind() enums.Kind
	Repair(ctx context.Context, now int64) (int, error)
	Push(ctx context.Context, since int64) (int, error)
	Pull(ctx context.Context, since int64) (int, error)
}

type pair[T Record] struct {
	kind   enums.Kind
	local  LocalSide[T]
	remote RemoteSide[T]
	newID  func() string
}

func newPair[T Record](kind enums.Kind, local LocalSide[T], remote RemoteSide[T], newID func() string) *pair[T] {
	return &pair[T]{kind: kind, local: local, remote: remote, newID: newID}
}

func (p *pair[T]) Kind() enums.Kind { return p.kind }

func (p *pair[T]) Repair(ctx context.Context, now int64) (int, error) {
	return p.local.RepairMissingUUIDs(ctx, now, p.newID)
}

// Push sends every local record changed after since as one bulk upsert.
// Remote timestamps are never consulted: the pushed version overwrites.
func (p *pair[T]) Push(ctx context.Context, since int64) (int, error) {
	changed, err := p.local.ChangedSince(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(changed) == 0 {
		return 0, nil
	}
	if err := p.remote.BulkUpsert(ctx, changed); err != nil {
		return 0, db.ClassifyRemote(err, "push "+p.kind.String())
	}
	return len(changed), nil
}

// Pull applies remote records changed after since when they are new locally
// or strictly newer than the local copy.
func (p *pair[T]) Pull(ctx context.Context, since int64) (int, error) {
	incoming, err := p.remote.ChangedSince(ctx, since)
	if err != nil {
		return 0, db.ClassifyRemote(err, "pull "+p.kind.String())
	}
	if len(incoming) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(incoming))
	for _, rec := range incoming {
		ids = append(ids, rec.Key())
	}
	existing, err := p.local.FindByUUIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, rec := range incoming {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if current, ok := existing[rec.Key()]; ok && rec.Stamp() <= current.Stamp() {
			continue
		}
		if err := p.local.Apply(ctx, rec); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
