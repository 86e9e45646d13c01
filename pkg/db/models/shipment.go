package models

import (
	"time"

	dbtypes "github.com/angelmondragon/shipbridge/pkg/db/types"
)

// LocalShipment is the embedded-store bundle row. OrderUUIDs is a weak
// reference: no foreign key, no uniqueness across shipments.
type LocalShipment struct {
	ID            uint                `gorm:"column:id;primaryKey;autoIncrement"`
	UUID          *string             `gorm:"column:uuid;uniqueIndex"`
	Reference     string              `gorm:"column:reference;not null"`
	OrderUUIDs    dbtypes.StringArray `gorm:"column:order_uuids;type:text"`
	Attachments   dbtypes.StringArray `gorm:"column:attachments;type:text"`
	Note          string              `gorm:"column:note"`
	DispatchDate  *time.Time          `gorm:"column:dispatch_date;type:date"`
	Deleted       bool                `gorm:"column:deleted;not null;default:false"`
	CreatedMillis int64               `gorm:"column:created_at;not null"`
	UpdatedMillis int64               `gorm:"column:updated_at;not null;index"`
}

func (LocalShipment) TableName() string { return "shipments" }

type RemoteShipment struct {
	ID           int64               `gorm:"column:id;primaryKey;autoIncrement"`
	UUID         string              `gorm:"column:uuid;type:uuid;uniqueIndex;not null"`
	Reference    string              `gorm:"column:reference;not null"`
	OrderUUIDs   dbtypes.StringArray `gorm:"column:order_uuids;type:jsonb"`
	Attachments  dbtypes.StringArray `gorm:"column:attachments;type:jsonb"`
	Note         string              `gorm:"column:note"`
	DispatchDate *time.Time          `gorm:"column:dispatch_date;type:date"`
	Deleted      bool                `gorm:"column:deleted;not null;default:false"`
	CreatedTime  time.Time           `gorm:"column:created_at;not null"`
	UpdatedTime  time.Time           `gorm:"column:updated_at;not null;index"`
}

func (RemoteShipment) TableName() string { return "shipments" }

// RemoteShipmentColumns lists the columns overwritten by an upsert.
var RemoteShipmentColumns = []string{
	"reference", "order_uuids", "attachments", "note", "dispatch_date",
	"deleted", "created_at", "updated_at",
}

// LocalModels returns the models auto-migrated into the embedded store.
func LocalModels() []any {
	return []any{&LocalOrder{}, &LocalShipment{}}
}

// RemoteModels is used by tests that stand a SQLite database in for the
// remote store; production schema comes from the goose migrations.
func RemoteModels() []any {
	return []any{&RemoteOrder{}, &RemoteShipment{}}
}
