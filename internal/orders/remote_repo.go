package orders

import (
	"context"

	"github.com/angelmondragon/shipbridge/internal/repo"
	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/db/models"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	"gorm.io/gorm"
)

const upsertBatchSize = 200

// RemoteRepository persists orders in the shared relational store.
type RemoteRepository struct {
	repo.Base
}

// NewRemoteRepository builds an orders repository bound to the remote store.
func NewRemoteRepository(conn *gorm.DB) *RemoteRepository {
	return &RemoteRepository{Base: repo.NewBase(conn)}
}

func (r *RemoteRepository) List(ctx context.Context, includeDeleted bool) ([]Order, error) {
	var rows []models.RemoteOrder
	q := r.DB(ctx).Model(&models.RemoteOrder{}).Scopes(repo.Live(includeDeleted), repo.CreationOrder)
	if err := q.Find(&rows).Error; err != nil {
		return nil, db.ClassifyRemote(err, "list remote orders")
	}
	return mapRemote(rows), nil
}

func (r *RemoteRepository) Get(ctx context.Context, id string) (*Order, error) {
	var row models.RemoteOrder
	if err := r.DB(ctx).Where("uuid = ?", id).First(&row).Error; err != nil {
		return nil, db.ClassifyRemote(err, "order not found")
	}
	o := fromRemote(row)
	return &o, nil
}

// Put writes a single order with insert-or-overwrite semantics on uuid.
func (r *RemoteRepository) Put(ctx context.Context, o Order) (Order, error) {
	if err := r.BulkUpsert(ctx, []Order{o}); err != nil {
		return Order{}, err
	}
	o.LocalID = 0
	return o, nil
}

// BulkUpsert inserts or overwrites every order keyed by uuid. It never looks
// at the remote timestamp: the pushed version always wins.
func (r *RemoteRepository) BulkUpsert(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	rows := make([]models.RemoteOrder, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, toRemote(o))
	}
	err := r.UpsertOn(ctx, "uuid", models.RemoteOrderColumns, &rows, upsertBatchSize)
	if err != nil {
		return db.ClassifyRemote(err, "upsert remote orders")
	}
	return nil
}

func (r *RemoteRepository) Delete(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if policy == enums.DeletionHard {
		if err := r.DB(ctx).Where("uuid = ?", id).Delete(&models.RemoteOrder{}).Error; err != nil {
			return db.ClassifyRemote(err, "delete remote order")
		}
		return nil
	}
	updates := map[string]any{
		"deleted":    true,
		"updated_at": millisToTime(NextStamp(current.UpdatedAt, now)),
	}
	if err := r.DB(ctx).Model(&models.RemoteOrder{}).Where("uuid = ?", id).Updates(updates).Error; err != nil {
		return db.ClassifyRemote(err, "tombstone remote order")
	}
	return nil
}

// ChangedSince returns every remote order, tombstones included, updated
// strictly after since. since == 0 fetches the whole set.
func (r *RemoteRepository) ChangedSince(ctx context.Context, since int64) ([]Order, error) {
	var rows []models.RemoteOrder
	q := r.DB(ctx).Model(&models.RemoteOrder{})
	if since > 0 {
		q = q.Where("updated_at > ?", millisToTime(since))
	}
	if err := q.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, db.ClassifyRemote(err, "select changed remote orders")
	}
	return mapRemote(rows), nil
}

func mapRemote(rows []models.RemoteOrder) []Order {
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRemote(row))
	}
	return out
}
