package orders

import (
	"testing"

	"github.com/angelmondragon/shipbridge/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTrimsAndDefaultsStatus(t *testing.T) {
	o := Normalize(Order{Customer: "  Acme ", City: " Pune", Material: "Steel  ", Status: "Shipped"})
	assert.Equal(t, "Acme", o.Customer)
	assert.Equal(t, "Pune", o.City)
	assert.Equal(t, "Steel", o.Material)
	assert.Equal(t, enums.OrderStatusShipped, o.Status)

	o = Normalize(Order{Customer: "a"})
	assert.Equal(t, enums.OrderStatusPending, o.Status)
}

func TestValidate(t *testing.T) {
	valid := Normalize(Order{Customer: "Acme", City: "Pune", Material: "Steel", Qty: 3})
	require.NoError(t, Validate(valid))

	tests := []struct {
		name  string
		order Order
		field string
	}{
		{name: "blank customer", order: Order{Customer: "   ", City: "c", Material: "m", Qty: 1}, field: "customer"},
		{name: "zero qty", order: Order{Customer: "a", City: "c", Material: "m"}, field: "qty"},
		{name: "unknown status", order: Order{Customer: "a", City: "c", Material: "m", Qty: 1, Status: "lost"}, field: "status"},
		{name: "bad uuid", order: Order{UUID: "nope", Customer: "a", City: "c", Material: "m", Qty: 1}, field: "uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Normalize(tt.order))
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			details, ok := typed.Details().(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.field)
		})
	}
}

func TestTouchNewOrder(t *testing.T) {
	o := Touch(nil, Order{Customer: "a"}, 100)
	assert.NotEmpty(t, o.UUID)
	assert.Equal(t, int64(100), o.CreatedAt)
	assert.Equal(t, int64(100), o.UpdatedAt)

	kept := Touch(nil, Order{UUID: "fixed", CreatedAt: 50}, 100)
	assert.Equal(t, "fixed", kept.UUID)
	assert.Equal(t, int64(50), kept.CreatedAt)
}

func TestTouchExistingKeepsIdentityAndMovesClockForward(t *testing.T) {
	prev := &Order{UUID: "u1", LocalID: 7, CreatedAt: 10, UpdatedAt: 500}

	next := Touch(prev, Order{UUID: "other", Customer: "b", CreatedAt: 999}, 100)
	assert.Equal(t, "u1", next.UUID)
	assert.Equal(t, uint(7), next.LocalID)
	assert.Equal(t, int64(10), next.CreatedAt)
	assert.Equal(t, int64(501), next.UpdatedAt, "clock must never go backwards")

	next = Touch(prev, Order{}, 900)
	assert.Equal(t, int64(900), next.UpdatedAt)
}
