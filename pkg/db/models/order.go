package models

import (
	"time"

	"github.com/angelmondragon/shipbridge/pkg/enums"
	dbtypes "github.com/angelmondragon/shipbridge/pkg/db/types"
)

// Timestamp fields are deliberately not named CreatedAt/UpdatedAt: updated_at
// is the last-write-wins clock and must carry the writer's value, so GORM's
// automatic time tracking has to stay off.

// LocalOrder is the embedded-store row. ID is the local sequential id and is
// never sent to the remote store. UUID is nullable so legacy rows without an
// identifier can coexist under the unique index until the repair pass runs.
type LocalOrder struct {
	ID            uint                `gorm:"column:id;primaryKey;autoIncrement"`
	UUID          *string             `gorm:"column:uuid;uniqueIndex"`
	Customer      string              `gorm:"column:customer;not null"`
	City          string              `gorm:"column:city;not null"`
	Material      string              `gorm:"column:material;not null"`
	Qty           int                 `gorm:"column:qty;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	Note          string              `gorm:"column:note"`
	Attachments   dbtypes.StringArray `gorm:"column:attachments;type:text"`
	InvoiceNo     string              `gorm:"column:invoice_no"`
	InvoiceDate   string              `gorm:"column:invoice_date"`
	VehicleNo     string              `gorm:"column:vehicle_no"`
	Transporter   string              `gorm:"column:transporter"`
	LRNo          string              `gorm:"column:lr_no"`
	Deleted       bool                `gorm:"column:deleted;not null;default:false"`
	CreatedMillis int64               `gorm:"column:created_at;not null"`
	UpdatedMillis int64               `gorm:"column:updated_at;not null;index"`
}

func (LocalOrder) TableName() string { return "orders" }

// RemoteOrder mirrors the shared orders table; uuid carries the unique
// constraint used as the upsert conflict key.
type RemoteOrder struct {
	ID          int64               `gorm:"column:id;primaryKey;autoIncrement"`
	UUID        string              `gorm:"column:uuid;type:uuid;uniqueIndex;not null"`
	Customer    string              `gorm:"column:customer;not null"`
	City        string              `gorm:"column:city;not null"`
	Material    string              `gorm:"column:material;not null"`
	Qty         int                 `gorm:"column:qty;not null"`
	Status      enums.OrderStatus   `gorm:"column:status;not null"`
	Note        string              `gorm:"column:note"`
	Attachments dbtypes.StringArray `gorm:"column:attachments;type:jsonb"`
	InvoiceNo   string              `gorm:"column:invoice_no"`
	InvoiceDate string              `gorm:"column:invoice_date"`
	VehicleNo   string              `gorm:"column:vehicle_no"`
	Transporter string              `gorm:"column:transporter"`
	LRNo        string              `gorm:"column:lr_no"`
	Deleted     bool                `gorm:"column:deleted;not null;default:false"`
	CreatedTime time.Time           `gorm:"column:created_at;not null"`
	UpdatedTime time.Time           `gorm:"column:updated_at;not null;index"`
}

func (RemoteOrder) TableName() string { return "orders" }

// RemoteOrderColumns lists the columns overwritten by an upsert.
var RemoteOrderColumns = []string{
	"customer", "city", "material", "qty", "status", "note", "attachments",
	"invoice_no", "invoice_date", "vehicle_no", "transporter", "lr_no",
	"deleted", "created_at", "updated_at",
}
