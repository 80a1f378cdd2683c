package afl

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Attribute is one named value on a Step: its evaluated value plus the
// declared type hint it came from (a Param's or Field's `type`).
type Attribute struct {
	Value    any    `json:"value"`
	TypeHint string `json:"type_hint,omitempty"`
}

// Attributes is a name-keyed mapping of Attribute, used for both a step's
// parameter attributes and its return attributes. It implements
// sql.Scanner/driver.Valuer so gorm can persist it as a jsonb column.
type Attributes map[string]Attribute

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return datatypes.JSON([]byte("{}")).Value()
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw).Value()
}

func (a *Attributes) Scan(src any) error {
	if src == nil {
		*a = Attributes{}
		return nil
	}
	var dj datatypes.JSON
	if err := dj.Scan(src); err != nil {
		return fmt.Errorf("afl: cannot scan %T into Attributes: %w", src, err)
	}
	if len(dj) == 0 {
		*a = Attributes{}
		return nil
	}
	var m Attributes
	if err := json.Unmarshal(dj, &m); err != nil {
		return fmt.Errorf("afl: decoding attributes: %w", err)
	}
	*a = m
	return nil
}

// Values projects the mapping down to plain values, discarding type
// hints — the shape the expression evaluator and handler contract want.
func (a Attributes) Values() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v.Value
	}
	return out
}

// Set assigns or overwrites one attribute.
func (a Attributes) Set(name string, value any, typeHint string) {
	a[name] = Attribute{Value: value, TypeHint: typeHint}
}
