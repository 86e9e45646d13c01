package shipments

import (
	"testing"

	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSet(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeSet([]string{" b", "a", "", "b ", "  "}))
	assert.Empty(t, NormalizeSet(nil))
}

func TestValidateRejectsIncompleteBundles(t *testing.T) {
	valid := Normalize(Shipment{Reference: "TRK-1", DispatchDate: "2026-10-16", OrderUUIDs: []string{"o1"}})
	require.NoError(t, Validate(valid))

	tests := []struct {
		name  string
		input Shipment
		field string
	}{
		{name: "empty reference", input: Shipment{Reference: "  ", DispatchDate: "2026-10-16", OrderUUIDs: []string{"o1"}}, field: "reference"},
		{name: "missing date", input: Shipment{Reference: "r", OrderUUIDs: []string{"o1"}}, field: "dispatch_date"},
		{name: "malformed date", input: Shipment{Reference: "r", DispatchDate: "16/10/2026", OrderUUIDs: []string{"o1"}}, field: "dispatch_date"},
		{name: "empty selection", input: Shipment{Reference: "r", DispatchDate: "2026-10-16", OrderUUIDs: []string{" "}}, field: "order_uuids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Normalize(tt.input))
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Contains(t, typed.Details(), tt.field)
		})
	}
}

func TestTouchKeepsIdentity(t *testing.T) {
	created := Touch(nil, Shipment{Reference: "r"}, 10)
	assert.NotEmpty(t, created.UUID)
	assert.Equal(t, int64(10), created.CreatedAt)

	updated := Touch(&created, Shipment{Reference: "r2"}, 5)
	assert.Equal(t, created.UUID, updated.UUID)
	assert.Equal(t, int64(10), updated.CreatedAt)
	assert.Equal(t, int64(11), updated.UpdatedAt)
}
