package instance

import (
	"os"

	"github.com/angelmondragon/shipbridge/pkg/env"
)

// GetID returns the identifier of this process for log fields:
// SHIPBRIDGE_INSTANCE_ID, then DYNO, then the hostname.
func GetID() string {
	if id := env.First("SHIPBRIDGE_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
