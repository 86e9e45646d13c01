package enums

import (
	"fmt"
	"strings"
)

// Mode selects which store serves reads and writes for the session.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

func (m Mode) String() string {
	return string(m)
}

func (m Mode) IsValid() bool {
	return m == ModeOffline || m == ModeOnline
}

func ParseMode(value string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(value)))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid mode %q", value)
	}
	return m, nil
}
