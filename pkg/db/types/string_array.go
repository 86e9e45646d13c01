package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringArray persists a list of strings as a JSON array (jsonb remotely,
// TEXT locally). A NULL column scans to a nil slice so callers can tell an
// absent value from an empty one.
type StringArray []string

func (a *StringArray) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StringArray: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*a = StringArray{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringArray: decode %q: %w", truncate(raw), err)
	}
	if out == nil {
		out = []string{}
	}
	*a = StringArray(out)
	return nil
}

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, fmt.Errorf("StringArray: encode: %w", err)
	}
	return string(b), nil
}

// Clone returns a copy that shares no backing storage with a.
func (a StringArray) Clone() StringArray {
	if a == nil {
		return nil
	}
	out := make(StringArray, len(a))
	copy(out, a)
	return out
}

func truncate(b []byte) string {
	const max = 64
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
