package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Fields is the free-form detail map attached to an event, stored as JSONB.
type Fields map[string]interface{}

// Value stores empty maps as NULL.
func (f Fields) Value() (driver.Value, error) {
	if len(f) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	return b, nil
}

// Scan reads a JSONB column. NULL leaves f nil so it is omitted from API
// responses.
func (f *Fields) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Fields", value)
	}

	var out Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal fields: %w", err)
	}
	*f = out
	return nil
}
