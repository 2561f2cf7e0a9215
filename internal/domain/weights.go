package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// WeightMap maps profession codes to positive integer score contributions.
// It is stored as a JSONB column.
type WeightMap map[string]int

// Value implements driver.Valuer for JSONB storage.
func (w WeightMap) Value() (driver.Value, error) {
	if w == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (w *WeightMap) Scan(src interface{}) error {
	if src == nil {
		*w = WeightMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("weights: unsupported scan type %T", src)
	}
	if len(data) == 0 {
		*w = WeightMap{}
		return nil
	}
	return json.Unmarshal(data, w)
}
