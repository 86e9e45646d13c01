package shipments

import (
	"context"
	"errors"

	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/internal/repo"
	"github.com/angelmondragon/shipbridge/pkg/db/models"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"gorm.io/gorm"
)

// LocalRepository persists shipments in the embedded store.
type LocalRepository struct {
	repo.Base
}

func NewLocalRepository(db *gorm.DB) *LocalRepository {
	return &LocalRepository{Base: repo.NewBase(db)}
}

func (r *LocalRepository) List(ctx context.Context, includeDeleted bool) ([]Shipment, error) {
	var rows []models.LocalShipment
	q := r.DB(ctx).Model(&models.LocalShipment{}).Scopes(repo.Live(includeDeleted), repo.CreationOrder)
	if err := q.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list local shipments")
	}
	return mapLocal(rows), nil
}

func (r *LocalRepository) Get(ctx context.Context, id string) (*Shipment, error) {
	row, err := find(r.DB(ctx), id)
	if err != nil {
		return nil, err
	}
	s := fromLocal(*row)
	return &s, nil
}

func find(db *gorm.DB, id string) (*models.LocalShipment, error) {
	var row models.LocalShipment
	err := db.Where("uuid = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load local shipment")
	}
	return &row, nil
}

// Put inserts or overwrites by uuid, keeping the existing local id.
func (r *LocalRepository) Put(ctx context.Context, s Shipment) (Shipment, error) {
	if s.UUID == "" {
		return Shipment{}, pkgerrors.New(pkgerrors.CodeValidation, "shipment uuid required")
	}
	var saved models.LocalShipment
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		row := toLocal(s)
		existing, err := find(tx, s.UUID)
		switch {
		case err == nil:
			row.ID = existing.ID
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			row.ID = 0
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		default:
			return err
		}
		saved = row
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return Shipment{}, err
		}
		return Shipment{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save local shipment")
	}
	return fromLocal(saved), nil
}

// Apply stores a version pulled from the remote store, defaulting
// attachments from the local row when the remote copy has none.
func (r *LocalRepository) Apply(ctx context.Context, s Shipment) error {
	if s.Attachments == nil {
		if existing, err := r.Get(ctx, s.UUID); err == nil {
			s.Attachments = existing.Attachments
		}
	}
	s.LocalID = 0
	_, err := r.Put(ctx, s)
	return err
}

func (r *LocalRepository) Delete(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	row, err := find(r.DB(ctx), id)
	if err != nil {
		return err
	}
	if policy == enums.DeletionHard {
		if err := r.DB(ctx).Delete(&models.LocalShipment{}, row.ID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete local shipment")
		}
		return nil
	}
	updates := map[string]any{
		"deleted":    true,
		"updated_at": orders.NextStamp(row.UpdatedMillis, now),
	}
	if err := r.DB(ctx).Model(&models.LocalShipment{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "tombstone local shipment")
	}
	return nil
}

func (r *LocalRepository) ChangedSince(ctx context.Context, since int64) ([]Shipment, error) {
	var rows []models.LocalShipment
	q := r.DB(ctx).Where("uuid IS NOT NULL")
	if since > 0 {
		q = q.Where("updated_at > ?", since)
	}
	if err := q.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select changed local shipments")
	}
	return mapLocal(rows), nil
}

func (r *LocalRepository) FindByUUIDs(ctx context.Context, ids []string) (map[string]Shipment, error) {
	out := make(map[string]Shipment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.LocalShipment
	if err := r.DB(ctx).Where("uuid IN ?", ids).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load local shipments")
	}
	for _, row := range rows {
		s := fromLocal(row)
		out[s.UUID] = s
	}
	return out, nil
}

func (r *LocalRepository) RepairMissingUUIDs(ctx context.Context, now int64, newID func() string) (int, error) {
	var rows []models.LocalShipment
	if err := r.DB(ctx).Where("uuid IS NULL OR uuid = ''").Find(&rows).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select shipments missing uuid")
	}
	for _, row := range rows {
		updates := map[string]any{
			"uuid":       newID(),
			"updated_at": orders.NextStamp(row.UpdatedMillis, now),
		}
		if row.CreatedMillis == 0 {
			updates["created_at"] = now
		}
		if err := r.DB(ctx).Model(&models.LocalShipment{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign shipment uuid")
		}
	}
	return len(rows), nil
}

func mapLocal(rows []models.LocalShipment) []Shipment {
	out := make([]Shipment, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromLocal(row))
	}
	return out
}
