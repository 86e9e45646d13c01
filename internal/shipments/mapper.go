package shipments

import (
	"time"

	"github.com/angelmondragon/shipbridge/pkg/db/models"
	dbtypes "github.com/angelmondragon/shipbridge/pkg/db/types"
)

func fromLocal(row models.LocalShipment) Shipment {
	s := Shipment{
		LocalID:      row.ID,
		Reference:    row.Reference,
		OrderUUIDs:   []string(row.OrderUUIDs.Clone()),
		Attachments:  []string(row.Attachments.Clone()),
		Note:         row.Note,
		DispatchDate: formatDate(row.DispatchDate),
		CreatedAt:    row.CreatedMillis,
		UpdatedAt:    row.UpdatedMillis,
		Deleted:      row.Deleted,
	}
	if row.UUID != nil {
		s.UUID = *row.UUID
	}
	return s
}

func toLocal(s Shipment) models.LocalShipment {
	row := models.LocalShipment{
		ID:            s.LocalID,
		Reference:     s.Reference,
		OrderUUIDs:    stringArray(s.OrderUUIDs),
		Attachments:   stringArray(s.Attachments),
		Note:          s.Note,
		DispatchDate:  parseDate(s.DispatchDate),
		Deleted:       s.Deleted,
		CreatedMillis: s.CreatedAt,
		UpdatedMillis: s.UpdatedAt,
	}
	if s.UUID != "" {
		id := s.UUID
		row.UUID = &id
	}
	return row
}

func fromRemote(row models.RemoteShipment) Shipment {
	return Shipment{
		UUID:         row.UUID,
		Reference:    row.Reference,
		OrderUUIDs:   []string(row.OrderUUIDs.Clone()),
		Attachments:  []string(row.Attachments.Clone()),
		Note:         row.Note,
		DispatchDate: formatDate(row.DispatchDate),
		CreatedAt:    row.CreatedTime.UnixMilli(),
		UpdatedAt:    row.UpdatedTime.UnixMilli(),
		Deleted:      row.Deleted,
	}
}

func toRemote(s Shipment) models.RemoteShipment {
	return models.RemoteShipment{
		UUID:         s.UUID,
		Reference:    s.Reference,
		OrderUUIDs:   stringArray(s.OrderUUIDs),
		Attachments:  stringArray(s.Attachments),
		Note:         s.Note,
		DispatchDate: parseDate(s.DispatchDate),
		Deleted:      s.Deleted,
		CreatedTime:  time.UnixMilli(s.CreatedAt).UTC(),
		UpdatedTime:  time.UnixMilli(s.UpdatedAt).UTC(),
	}
}

func stringArray(in []string) dbtypes.StringArray {
	if in == nil {
		return dbtypes.StringArray{}
	}
	return dbtypes.StringArray(in).Clone()
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
