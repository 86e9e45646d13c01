package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotConfigured, status: http.StatusPreconditionFailed, publicMsg: "remote store not configured"},
		{code: CodeNetwork, status: http.StatusServiceUnavailable, publicMsg: "remote store unreachable", retryable: true},
		{code: CodeUpstream, status: http.StatusBadGateway, publicMsg: "remote store rejected the request", retryable: true, detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotConfigured, "no remote"))
	if got := As(err); got == nil || got.Code() != CodeNotConfigured {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("sync: %w", Wrap(CodeNetwork, stdErrors.New("dial tcp"), "push orders"))
	if !IsCode(err, CodeNetwork) {
		t.Fatal("expected network code to be detected through wrapping")
	}
	if IsCode(err, CodeUpstream) {
		t.Fatal("unexpected upstream match")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
}

func TestDumpCapturesDriverDetails(t *testing.T) {
	pgErr := Wrap(CodeUpstream, &pgconn.PgError{Code: "23505", ConstraintName: "orders_uuid_key", TableName: "orders"}, "upsert remote orders")
	d := Dump(pgErr)
	if d.Code != CodeUpstream || d.PGCode != "23505" || d.PGConstraint != "orders_uuid_key" {
		t.Fatalf("unexpected postgres dump %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two links in the chain, got %v", d.Chain)
	}
	fields := d.Fields()
	if fields["pg_table"] != "orders" || fields["pg_column"] != nil {
		t.Fatalf("expected only populated fields, got %v", fields)
	}

	liteErr := fmt.Errorf("save local order: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	d = Dump(liteErr)
	if d.SQLiteCode == "" || d.SQLiteExtended == "" {
		t.Fatalf("expected sqlite details, got %+v", d)
	}

	if Dump(nil).TopMessage != "" {
		t.Fatal("expected empty dump for nil")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(CodeNetwork, "down")) {
		t.Fatal("network errors should be retryable")
	}
	if IsRetryable(New(CodeValidation, "bad")) {
		t.Fatal("validation errors should not be retryable")
	}
	if !IsRetryable(stdErrors.New("boom")) {
		t.Fatal("untyped errors count as internal")
	}
	if IsRetryable(nil) {
		t.Fatal("nil is not retryable")
	}
}
