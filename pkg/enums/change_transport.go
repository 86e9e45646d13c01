package enums

import (
	"fmt"
	"strings"
)

// ChangeTransport names the push channel used for remote change notifications.
type ChangeTransport string

const (
	ChangeTransportPostgres ChangeTransport = "postgres"
	ChangeTransportRedis    ChangeTransport = "redis"
	ChangeTransportNone     ChangeTransport = "none"
)

func ParseChangeTransport(value string) (ChangeTransport, error) {
	switch t := ChangeTransport(strings.ToLower(strings.TrimSpace(value))); t {
	case ChangeTransportPostgres, ChangeTransportRedis, ChangeTransportNone:
		return t, nil
	case "":
		return ChangeTransportNone, nil
	}
	return "", fmt.Errorf("invalid change transport %q", value)
}
