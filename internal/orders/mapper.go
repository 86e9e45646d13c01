package orders

import (
	"time"

	"github.com/angelmondragon/shipbridge/pkg/db/models"
	dbtypes "github.com/angelmondragon/shipbridge/pkg/db/types"
)

func fromLocal(row models.LocalOrder) Order {
	o := Order{
		LocalID:     row.ID,
		Customer:    row.Customer,
		City:        row.City,
		Material:    row.Material,
		Qty:         row.Qty,
		Status:      row.Status,
		Note:        row.Note,
		Attachments: []string(row.Attachments.Clone()),
		InvoiceNo:   row.InvoiceNo,
		InvoiceDate: row.InvoiceDate,
		VehicleNo:   row.VehicleNo,
		Transporter: row.Transporter,
		LRNo:        row.LRNo,
		CreatedAt:   row.CreatedMillis,
		UpdatedAt:   row.UpdatedMillis,
		Deleted:     row.Deleted,
	}
	if row.UUID != nil {
		o.UUID = *row.UUID
	}
	return o
}

func toLocal(o Order) models.LocalOrder {
	row := models.LocalOrder{
		ID:            o.LocalID,
		Customer:      o.Customer,
		City:          o.City,
		Material:      o.Material,
		Qty:           o.Qty,
		Status:        o.Status,
		Note:          o.Note,
		Attachments:   attachments(o.Attachments),
		InvoiceNo:     o.InvoiceNo,
		InvoiceDate:   o.InvoiceDate,
		VehicleNo:     o.VehicleNo,
		Transporter:   o.Transporter,
		LRNo:          o.LRNo,
		Deleted:       o.Deleted,
		CreatedMillis: o.CreatedAt,
		UpdatedMillis: o.UpdatedAt,
	}
	if o.UUID != "" {
		id := o.UUID
		row.UUID = &id
	}
	return row
}

// fromRemote never sets LocalID: the local sequential id does not exist
// remotely.
func fromRemote(row models.RemoteOrder) Order {
	return Order{
		UUID:        row.UUID,
		Customer:    row.Customer,
		City:        row.City,
		Material:    row.Material,
		Qty:         row.Qty,
		Status:      row.Status,
		Note:        row.Note,
		Attachments: []string(row.Attachments.Clone()),
		InvoiceNo:   row.InvoiceNo,
		InvoiceDate: row.InvoiceDate,
		VehicleNo:   row.VehicleNo,
		Transporter: row.Transporter,
		LRNo:        row.LRNo,
		CreatedAt:   row.CreatedTime.UnixMilli(),
		UpdatedAt:   row.UpdatedTime.UnixMilli(),
		Deleted:     row.Deleted,
	}
}

func toRemote(o Order) models.RemoteOrder {
	return models.RemoteOrder{
		UUID:        o.UUID,
		Customer:    o.Customer,
		City:        o.City,
		Material:    o.Material,
		Qty:         o.Qty,
		Status:      o.Status,
		Note:        o.Note,
		Attachments: attachments(o.Attachments),
		InvoiceNo:   o.InvoiceNo,
		InvoiceDate: o.InvoiceDate,
		VehicleNo:   o.VehicleNo,
		Transporter: o.Transporter,
		LRNo:        o.LRNo,
		Deleted:     o.Deleted,
		CreatedTime: millisToTime(o.CreatedAt),
		UpdatedTime: millisToTime(o.UpdatedAt),
	}
}

func attachments(in []string) dbtypes.StringArray {
	if in == nil {
		return dbtypes.StringArray{}
	}
	return dbtypes.StringArray(in).Clone()
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
