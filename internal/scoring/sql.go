package scoring

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func scanJSON(src interface{}, dst interface{}, name string) (bool, error) {
	var data []byte
	switch v := src.(type) {
	case nil:
		return false, nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return false, fmt.Errorf("unsupported type %T for %s", src, name)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return true, nil
}

// Value marshals measurements for a JSONB column.
func (m Measurements) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Value(m))
}

// Scan reads measurements from a JSONB column.
func (m *Measurements) Scan(src interface{}) error {
	out := Measurements{}
	if _, err := scanJSON(src, (*map[string]Value)(&out), "measurements"); err != nil {
		return err
	}
	*m = out
	return nil
}

// Value marshals scores for a JSONB column. Unscoreable items are stored as null.
func (s Scores) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]*float64(s))
}

// Scan reads scores from a JSONB column.
func (s *Scores) Scan(src interface{}) error {
	out := Scores{}
	if _, err := scanJSON(src, (*map[string]*float64)(&out), "scores"); err != nil {
		return err
	}
	*s = out
	return nil
}

// Value marshals the rule for a nullable JSONB column.
func (r *ValidationRule) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(*r)
}

// Scan reads the rule from a nullable JSONB column.
func (r *ValidationRule) Scan(src interface{}) error {
	var out ValidationRule
	ok, err := scanJSON(src, &out, "validation rule")
	if err != nil || !ok {
		*r = ValidationRule{}
		return err
	}
	*r = out
	return nil
}
