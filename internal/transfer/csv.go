package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/shipbridge/internal/orders"
	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// attachmentSep joins attachment paths inside one CSV cell.
const attachmentSep = "|"

// Columns is the header written by ExportOrders. Import accepts the columns
// in any order and ignores unknown ones.
var Columns = []string{
	"uuid", "customer", "city", "material", "qty", "status", "note", "attachments",
	"invoice_no", "invoice_date", "vehicle_no", "transporter", "lr_no",
	"created_at", "updated_at",
}

// OrderStore is the slice of mode.Store used by the transfer helpers.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]orders.Order, error)
	GetOrder(ctx context.Context, id string) (*orders.Order, error)
	PutOrder(ctx context.Context, o orders.Order) (orders.Order, error)
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowUpdated
	rowStale
)

// RowError reports a rejected CSV line.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ExportOrders writes every live order as CSV.
func ExportOrders(ctx context.Context, store OrderStore, w io.Writer) (int, error) {
	list, err := store.ListOrders(ctx)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}
	for _, o := range list {
		if err := cw.Write(encodeOrder(o)); err != nil {
			return 0, fmt.Errorf("writing order %s: %w", o.UUID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing csv: %w", err)
	}
	return len(list), nil
}

func encodeOrder(o orders.Order) []string {
	return []string{
		o.UUID, o.Customer, o.City, o.Material, strconv.Itoa(o.Qty), o.Status.String(), o.Note,
		strings.Join(o.Attachments, attachmentSep),
		o.InvoiceNo, o.InvoiceDate, o.VehicleNo, o.Transporter, o.LRNo,
		strconv.FormatInt(o.CreatedAt, 10), strconv.FormatInt(o.UpdatedAt, 10),
	}
}

// ImportOrders upserts every row by uuid. Rows keep their own field values
// and timestamps; a row without a uuid gets a fresh one. A row whose
// updated_at is not newer than the stored order is skipped, so an import
// never moves an order's clock backwards. Bad rows are reported together in
// the returned error while valid rows are still written.
func ImportOrders(ctx context.Context, store OrderStore, r io.Reader) (ImportResult, error) {
	var result ImportResult

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading csv header")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"customer", "city", "material", "qty"} {
		if _, ok := index[required]; !ok {
			return result, pkgerrors.New(pkgerrors.CodeValidation, "csv header is missing a required column").
				WithDetails(map[string]string{required: "column is required"})
		}
	}

	now := time.Now().UnixMilli()
	var errs error
	for {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return result, multierr.Append(errs, fmt.Errorf("reading csv: %w", err))
			}
			errs = multierr.Append(errs, &RowError{Line: parseErr.StartLine, Err: err})
			result.Failed++
			continue
		}
		line, _ := cr.FieldPos(0)

		outcome, err := importRow(ctx, store, decodeOrder(record, index), now)
		if err != nil {
			errs = multierr.Append(errs, &RowError{Line: line, Err: err})
			result.Failed++
			continue
		}
		switch outcome {
		case rowCreated:
			result.Created++
		case rowUpdated:
			result.Updated++
		case rowStale:
			result.Skipped++
		}
	}
	return result, errs
}

func importRow(ctx context.Context, store OrderStore, o orders.Order, now int64) (rowOutcome, error) {
	o = orders.Normalize(o)
	if o.UUID == "" {
		o.UUID = uuid.NewString()
	}
	if o.CreatedAt == 0 {
		o.CreatedAt = now
	}
	if o.UpdatedAt < o.CreatedAt {
		o.UpdatedAt = o.CreatedAt
	}
	if err := orders.Validate(o); err != nil {
		return 0, err
	}

	existing, err := store.GetOrder(ctx, o.UUID)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return 0, err
	}
	outcome := rowCreated
	if existing != nil {
		// same last-writer-wins rule as a pull
		if o.UpdatedAt <= existing.UpdatedAt {
			return rowStale, nil
		}
		o.LocalID = existing.LocalID
		outcome = rowUpdated
	}
	if _, err := store.PutOrder(ctx, o); err != nil {
		return 0, err
	}
	return outcome, nil
}

func decodeOrder(record []string, index map[string]int) orders.Order {
	get := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	o := orders.Order{
		UUID:        get("uuid"),
		Customer:    get("customer"),
		City:        get("city"),
		Material:    get("material"),
		Status:      enums.OrderStatus(get("status")),
		Note:        get("note"),
		InvoiceNo:   get("invoice_no"),
		InvoiceDate: get("invoice_date"),
		VehicleNo:   get("vehicle_no"),
		Transporter: get("transporter"),
		LRNo:        get("lr_no"),
	}
	o.Qty, _ = strconv.Atoi(strings.TrimSpace(get("qty")))
	o.CreatedAt, _ = strconv.ParseInt(strings.TrimSpace(get("created_at")), 10, 64)
	o.UpdatedAt, _ = strconv.ParseInt(strings.TrimSpace(get("updated_at")), 10, 64)
	if raw := strings.TrimSpace(get("attachments")); raw != "" {
		for _, part := range strings.Split(raw, attachmentSep) {
			if part = strings.TrimSpace(part); part != "" {
				o.Attachments = append(o.Attachments, part)
			}
		}
	}
	return o
}
