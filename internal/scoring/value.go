package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrParse marks a measurement or range bound that cannot be read as a number or time.
	ErrParse = errors.New("scoring: parse error")
	// ErrInvalidBMIInput is returned when height or weight is not strictly positive.
	ErrInvalidBMIInput = errors.New("scoring: height and weight must be greater than zero")
)

// Value is a raw measurement: a plain number or a "M:SS" duration text.
// The zero Value is absent.
type Value struct {
	num    float64
	text   string
	isText bool
	set    bool
}

// Number wraps a numeric measurement.
func Number(f float64) Value {
	return Value{num: f, set: true}
}

// Text wraps a textual measurement such as "3:24".
func Text(s string) Value {
	return Value{text: s, isText: true, set: true}
}

// IsSet reports whether the value was provided.
func (v Value) IsSet() bool { return v.set }

// IsText reports whether the value was provided as text.
func (v Value) IsText() bool { return v.set && v.isText }

// String renders the value the way it was entered.
func (v Value) String() string {
	switch {
	case !v.set:
		return ""
	case v.isText:
		return v.text
	default:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
}

// Float coerces the value to a plain number.
func (v Value) Float() (float64, error) {
	if !v.set {
		return 0, fmt.Errorf("%w: value not provided", ErrParse)
	}
	if !v.isText {
		return v.num, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrParse, v.text)
	}
	return f, nil
}

// Normalize converts the value into the comparison unit for the given type.
// Time values given as text become seconds; everything else is a plain number.
func (v Value) Normalize(t ValueType) (float64, error) {
	if t == TypeTime && v.IsText() {
		return ParseTime(v.text)
	}
	return v.Float()
}

// ParseTime converts "M:SS" or "M:SS.ss" into seconds.
func ParseTime(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: invalid time %q", ErrParse, s)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid minutes in %q", ErrParse, s)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid seconds in %q", ErrParse, s)
	}
	return float64(minutes)*60 + seconds, nil
}

// MarshalJSON keeps numbers as numbers and text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte("null"), nil
	case v.isText:
		return json.Marshal(v.text)
	default:
		return json.Marshal(v.num)
	}
}

// UnmarshalJSON accepts a number, a string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %s", ErrParse, data)
	}
	*v = Number(f)
	return nil
}

// UnmarshalYAML accepts a scalar number, string or null.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %w: expected scalar measurement", node.Line, ErrParse)
	}
	switch node.ShortTag() {
	case "!!null":
		*v = Value{}
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w: %q", node.Line, ErrParse, node.Value)
		}
		*v = Number(f)
	default:
		*v = Text(node.Value)
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (interface{}, error) {
	switch {
	case !v.set:
		return nil, nil
	case v.isText:
		return v.text, nil
	default:
		return v.num, nil
	}
}

// Measurements maps item codes to raw values.
type Measurements map[string]Value

// Clone returns a shallow copy so derived values never leak into the caller's map.
func (m Measurements) Clone() Measurements {
	out := make(Measurements, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
