package afl

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// JSONValue persists an arbitrary JSON-serializable Go value (string,
// float64, bool, []any, map[string]any, or nil) in a single jsonb column.
// Used where a field's shape is not itself a mapping — e.g. a foreach
// element, which may be a scalar.
//
// Value/Scan delegate the driver-value normalization to datatypes.JSON
// (it already knows how to read a jsonb column back across pgx, the
// database/sql string path, and a raw []byte) and only add the
// unmarshal into the dynamic V.
type JSONValue struct {
	V any
}

func (j JSONValue) Value() (driver.Value, error) {
	if j.V == nil {
		return datatypes.JSON([]byte("null")).Value()
	}
	raw, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw).Value()
}

func (j *JSONValue) Scan(src any) error {
	if src == nil {
		j.V = nil
		return nil
	}
	var dj datatypes.JSON
	if err := dj.Scan(src); err != nil {
		return fmt.Errorf("afl: cannot scan %T into JSONValue: %w", src, err)
	}
	if len(dj) == 0 {
		j.V = nil
		return nil
	}
	return json.Unmarshal(dj, &j.V)
}

// JSONMap persists a name-keyed mapping of arbitrary JSON values — the
// shape of a Task's data/result payloads and a Runner's initial inputs.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return datatypes.JSON([]byte("{}")).Value()
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw).Value()
}

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	var dj datatypes.JSON
	if err := dj.Scan(src); err != nil {
		return fmt.Errorf("afl: cannot scan %T into JSONMap: %w", src, err)
	}
	if len(dj) == 0 {
		*m = JSONMap{}
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(dj, &out); err != nil {
		return fmt.Errorf("afl: decoding json map: %w", err)
	}
	*m = out
	return nil
}
