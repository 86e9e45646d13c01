package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
)

type modeBody struct {
	Mode string `json:"mode" validate:"required"`
}

func TestDecodeJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"mode":"online"}`},
		{name: "missing field", body: `{}`, wantErr: true},
		{name: "unknown field", body: `{"mode":"online","extra":1}`, wantErr: true},
		{name: "malformed", body: `{"mode":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			var dest modeBody
			err := DecodeJSONBody(req, &dest)
			if tt.wantErr {
				if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dest.Mode != "online" {
				t.Fatalf("unexpected mode %q", dest.Mode)
			}
		})
	}
}
