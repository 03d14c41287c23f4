package scoresheet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the variants of Value.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindText
	KindBoolean
)

// Value is a typed field value: exactly one of the three variants is
// meaningful, selected by Kind. On the wire it is a bare JSON scalar.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Bool   bool
}

func NumberValue(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func TextValue(s string) Value    { return Value{Kind: KindText, Text: s} }
func BoolValue(b bool) Value      { return Value{Kind: KindBoolean, Bool: b} }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindBoolean:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Number)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case float64:
		*v = NumberValue(x)
	case string:
		*v = TextValue(x)
	case bool:
		*v = BoolValue(x)
	default:
		return fmt.Errorf("field value must be a JSON scalar, got %T", raw)
	}
	return nil
}

// numeric coerces the value for use in an expression: numbers pass
// through, booleans map to 1/0, and text must itself parse as a number.
func (v Value) numeric() (float64, error) {
	switch v.Kind {
	case KindNumber:
		return v.Number, nil
	case KindBoolean:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	default:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q: %w", v.Text, ErrNonNumericText)
		}
		return n, nil
	}
}

// FieldValues maps player id to field id to the entered value.
type FieldValues map[string]map[string]Value

// clone deep-copies the outer and inner maps. Value itself is a plain
// struct, so copying the entries is enough.
func (fv FieldValues) clone() FieldValues {
	out := make(FieldValues, len(fv))
	for playerID, fields := range fv {
		m := make(map[string]Value, len(fields))
		for fieldID, v := range fields {
			m[fieldID] = v
		}
		out[playerID] = m
	}
	return out
}
