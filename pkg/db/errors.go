package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"

	pkgerrors "github.com/angelmondragon/shipbridge/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

var transportHints = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"broken pipe",
	"failed to connect",
	"server closed the connection",
}

// ClassifyRemote maps a failure talking to the remote store onto the error
// taxonomy: transport failures become NETWORK_ERROR, anything the server
// answered becomes UPSTREAM_ERROR. Typed errors pass through unchanged.
func ClassifyRemote(err error, message string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, message)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, message).WithDetails(map[string]any{
			"pg_code":       pgErr.Code,
			"pg_constraint": pgErr.ConstraintName,
		})
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, message).WithDetails(map[string]any{
			"pg_code":       string(pqErr.Code),
			"pg_constraint": pqErr.Constraint,
		})
	}

	if isTransport(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, message)
}

func isTransport(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range transportHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
