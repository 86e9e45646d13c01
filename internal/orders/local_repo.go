package orders

import (
	"context"
	"errors"

	"github.com/angelmondragon/shipbridge/internal/repo"
	"github.com/angelmondragon/shipbridge/pkg/db/models"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"gorm.io/gorm"
)

// LocalRepository persists orders in the embedded store.
type LocalRepository struct {
	repo.Base
}

// NewLocalRepository builds an orders repository bound to the local store.
func NewLocalRepository(db *gorm.DB) *LocalRepository {
	return &LocalRepository{Base: repo.NewBase(db)}
}

// List returns orders in creation order. Tombstones are hidden unless
// includeDeleted is set.
func (r *LocalRepository) List(ctx context.Context, includeDeleted bool) ([]Order, error) {
	var rows []models.LocalOrder
	q := r.DB(ctx).Model(&models.LocalOrder{}).Scopes(repo.Live(includeDeleted), repo.CreationOrder)
	if err := q.Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list local orders")
	}
	return mapLocal(rows), nil
}

// Get loads an order by uuid, tombstones included.
func (r *LocalRepository) Get(ctx context.Context, id string) (*Order, error) {
	row, err := r.find(ctx, r.DB(ctx), id)
	if err != nil {
		return nil, err
	}
	o := fromLocal(*row)
	return &o, nil
}

func (r *LocalRepository) find(ctx context.Context, db *gorm.DB, id string) (*models.LocalOrder, error) {
	var row models.LocalOrder
	err := db.Where("uuid = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load local order")
	}
	return &row, nil
}

// Put writes the order exactly as given, inserting or overwriting by uuid and
// keeping the existing local id.
func (r *LocalRepository) Put(ctx context.Context, o Order) (Order, error) {
	if o.UUID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order uuid required")
	}
	var saved models.LocalOrder
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		row := toLocal(o)
		existing, err := r.find(ctx, tx, o.UUID)
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
		if typed := pkgerrors.As(err); typed != nil {
			return Order{}, err
		}
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save local order")
	}
	return fromLocal(saved), nil
}

// Apply stores a version received from the remote store. Attachments absent
// remotely (NULL) fall back to the existing local value; the local id is
// always preserved.
func (r *LocalRepository) Apply(ctx context.Context, o Order) error {
	if o.Attachments == nil {
		if existing, err := r.Get(ctx, o.UUID); err == nil {
			o.Attachments = existing.Attachments
		}
	}
	o.LocalID = 0
	_, err := r.Put(ctx, o)
	return err
}

// Delete removes an order according to the deletion policy. A soft delete
// leaves a tombstone with a bumped clock so it travels through sync.
func (r *LocalRepository) Delete(ctx context.Context, id string, policy enums.DeletionPolicy, now int64) error {
	row, err := r.find(ctx, r.DB(ctx), id)
	if err != nil {
		return err
	}
	if policy == enums.DeletionHard {
		if err := r.DB(ctx).Delete(&models.LocalOrder{}, row.ID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete local order")
		}
		return nil
	}
	updates := map[string]any{
		"deleted":    true,
		"updated_at": NextStamp(row.UpdatedMillis, now),
	}
	if err := r.DB(ctx).Model(&models.LocalOrder{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "tombstone local order")
	}
	return nil
}

// ChangedSince returns every order, tombstones included, whose clock is
// strictly greater than since. since == 0 selects everything.
func (r *LocalRepository) ChangedSince(ctx context.Context, since int64) ([]Order, error) {
	var rows []models.LocalOrder
	q := r.DB(ctx).Where("uuid IS NOT NULL")
	if since > 0 {
		q = q.Where("updated_at > ?", since)
	}
	if err := q.Order("updated_at ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select changed local orders")
	}
	return mapLocal(rows), nil
}

// FindByUUIDs returns the local versions of the given orders keyed by uuid.
func (r *LocalRepository) FindByUUIDs(ctx context.Context, ids []string) (map[string]Order, error) {
	out := make(map[string]Order, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.LocalOrder
	if err := r.DB(ctx).Where("uuid IN ?", ids).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load local orders")
	}
	for _, row := range rows {
		o := fromLocal(row)
		out[o.UUID] = o
	}
	return out, nil
}

// RepairMissingUUIDs assigns a fresh uuid to legacy rows and bumps their
// clock so the next push picks them up.
func (r *LocalRepository) RepairMissingUUIDs(ctx context.Context, now int64, newID func() string) (int, error) {
	var rows []models.LocalOrder
	if err := r.DB(ctx).Where("uuid IS NULL OR uuid = ''").Find(&rows).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select orders missing uuid")
	}
	for _, row := range rows {
		updates := map[string]any{
			"uuid":       newID(),
			"updated_at": NextStamp(row.UpdatedMillis, now),
		}
		if row.CreatedMillis == 0 {
			updates["created_at"] = now
		}
		if err := r.DB(ctx).Model(&models.LocalOrder{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign order uuid")
		}
	}
	return len(rows), nil
}

func mapLocal(rows []models.LocalOrder) []Order {
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromLocal(row))
	}
	return out
}
