package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Base is embedded by the local and remote record repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Live hides tombstoned rows unless includeDeleted is set.
func Live(includeDeleted bool) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if includeDeleted {
			return q
		}
		return q.Where("deleted = ?", false)
	}
}

// CreationOrder sorts by creation time, breaking ties on the surrogate key.
func CreationOrder(q *gorm.DB) *gorm.DB {
	return q.Order("created_at ASC").Order("id ASC")
}

// UpsertOn inserts rows in batches and overwrites columns on rows whose key
// already exists. rows must be a pointer to a slice of models.
func (b Base) UpsertOn(ctx context.Context, key string, columns []string, rows any, batchSize int) error {
	return b.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: key}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		CreateInBatches(rows, batchSize).Error
}
