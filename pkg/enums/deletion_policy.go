package enums

import (
	"fmt"
	"strings"
)

// DeletionPolicy decides how both stores remove records. Soft deletes leave a
// tombstone that travels through sync like any other write; hard deletes
// remove the row and are not propagated.
type DeletionPolicy string

const (
	DeletionSoft DeletionPolicy = "soft"
	DeletionHard DeletionPolicy = "hard"
)

func (p DeletionPolicy) String() string {
	return string(p)
}

func (p DeletionPolicy) IsValid() bool {
	return p == DeletionSoft || p == DeletionHard
}

func ParseDeletionPolicy(value string) (DeletionPolicy, error) {
	p := DeletionPolicy(strings.ToLower(strings.TrimSpace(value)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid deletion policy %q", value)
	}
	return p, nil
}
