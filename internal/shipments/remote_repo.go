package shipments

import (
	"context"
	"time"

	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/repo"
	"github.com/angelmondragon/shipbridge/pkg/db"
	"github.com/angelmondragon/shipbridge/pkg/db/models"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	"gorm.io/gorm"
)

const upsertBatchSize = 200

// RemoteRepository persists shipments in the shared relational store.
type RemoteRepository struct {
	repo.Base
}

func NewRemoteRepository(conn *gorm.DB) *RemoteRepository {
	return &RemoteRepository{Base: repo.NewBase(conn)}
}

func (r *RemoteRepository) List(ctx context.Context, includeDeleted bool) ([]Shipment, error) {
	var rows []models.RemoteShipment
	q := r.DB(ctx).Model(&models.RemoteShipment{}).Scopes(repo.Live(includeDeleted), repo.CreationOrder)
	if err := q.Find(&rows).Error; err != nil {
		return nil, db.ClassifyRemote(err, "list remote shipments")
	}
	return mapRemote(rows), nil
}

func (r *RemoteRepository) Get(ctx context.Context, id string) (*Shipment, error) {
	var row models.RemoteShipment
	if err := r.DB(ctx).Where("uuid = ?", id).First(&row).Error; err != nil {
		return nil, db.ClassifyRemote(err, "shipment not found")
	}
	s := fromRemote(row)
	return &s, nil
}

func (r *RemoteRepository) Put(ctx context.Context, s Shipment) (Shipment, error) {
	if err := r.BulkUpsert(ctx, []Shipment{s}); err != nil {
		return Shipment{}, err
	}
	s.LocalID = 0
	return s, nil
}

// BulkUpsert overwrites every shipment keyed by uuid without comparing
// remote timestamps.
func (r *RemoteRepository) BulkUpsert(ctx context.Context, items []Shipment) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.RemoteShipment, 0, len(items))
	for _, s := range items {
		rows = append(rows, toRemote(s))
	}
	err := r.UpsertOn(ctx, "uuid", models.RemoteShipmentColumns, &rows, upsertBatchSize)
	if err != nil {
		return db.ClassifyRemote(err, "upsert remote shipments")
	}
	return nil
}

func (r *RemoteRepository) Delete(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if policy == enums.DeletionHard {
		if err := r.DB(ctx).Where("uuid = ?", id).Delete(&models.RemoteShipment{}).Error; err != nil {
			return db.ClassifyRemote(err, "delete remote shipment")
		}
		return nil
	}
	updates := map[string]any{
		"deleted":    true,
		"updated_at": time.UnixMilli(orders.NextStamp(current.UpdatedAt, now)).UTC(),
	}
	if err := r.DB(ctx).Model(&models.RemoteShipment{}).Where("uuid = ?", id).Updates(updates).Error; err != nil {
		return db.ClassifyRemote(err, "tombstone remote shipment")
	}
	return nil
}

func (r *RemoteRepository) ChangedSince(ctx context.Context, since int64) ([]Shipment, error) {
	var rows []models.RemoteShipment
	q := r.DB(ctx).Model(&models.RemoteShipment{})
	if since > 0 {
		q = q.Where("updated_at > ?", time.UnixMilli(since).UTC())
	}
	if err := q.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, db.ClassifyRemote(err, "select changed remote shipments")
	}
	return mapRemote(rows), nil
}

func mapRemote(rows []models.RemoteShipment) []Shipment {
	out := make([]Shipment, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRemote(row))
	}
	return out
}
