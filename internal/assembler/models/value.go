package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Typed values
// ============================================================

type ValueType int

const (
	ValueLabel ValueType = iota + 1
	ValueText
	ValueBoolean
	ValueReal
	ValueReference
)

var valueTypeNames = map[ValueType]string{
	ValueLabel:     "label",
	ValueText:      "text",
	ValueBoolean:   "boolean",
	ValueReal:      "real",
	ValueReference: "reference",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return "ValueType(" + strconv.Itoa(int(t)) + ")"
}

func parseValueType(s string) (ValueType, error) {
	for t, name := range valueTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown value type %q", ErrInvalidSpec, s)
}

// Value is an attribute or property value. Exactly one payload field is
// meaningful, selected by Type. References hold the target identifier in Str.
type Value struct {
	Type ValueType
	Str  string
	Bool bool
	Real float64
}

func Label(s string) Value      { return Value{Type: ValueLabel, Str: s} }
func Text(s string) Value       { return Value{Type: ValueText, Str: s} }
func Boolean(b bool) Value      { return Value{Type: ValueBoolean, Bool: b} }
func Real(f float64) Value      { return Value{Type: ValueReal, Real: f} }
func Reference(id string) Value { return Value{Type: ValueReference, Str: id} }

func (v Value) payload() any {
	switch v.Type {
	case ValueBoolean:
		return v.Bool
	case ValueReal:
		return v.Real
	default:
		return v.Str
	}
}

// Validate rejects untyped values, non-finite reals and references without
// a target.
func (v Value) Validate() error {
	if _, ok := valueTypeNames[v.Type]; !ok {
		return fmt.Errorf("%w: value has no type", ErrInvalidSpec)
	}
	if v.Type == ValueReference && v.Str == "" {
		return fmt.Errorf("%w: empty reference", ErrInvalidSpec)
	}
	if v.Type == ValueReal && !isFinite(v.Real) {
		return fmt.Errorf("%w: real value %g is not finite", ErrInvalidSpec, v.Real)
	}
	return nil
}

// ============================================================
// Encoding
// ============================================================

type valueWire struct {
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(valueWire{Type: v.Type.String(), Value: v.payload()})
}

// UnmarshalJSON accepts {"type": "...", "value": ...} or a bare scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return v.fromAny(raw)
}

func (v Value) MarshalYAML() (any, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return valueWire{Type: v.Type.String(), Value: v.payload()}, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return v.fromAny(raw)
}

func (v *Value) fromAny(raw any) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		return v.fromScalar(raw)
	}

	typeName, _ := obj["type"].(string)
	t, err := parseValueType(typeName)
	if err != nil {
		return err
	}
	payload := obj["value"]

	switch t {
	case ValueBoolean:
		b, ok := payload.(bool)
		if !ok {
			return fmt.Errorf("%w: boolean value expected, got %T", ErrInvalidSpec, payload)
		}
		*v = Boolean(b)
	case ValueReal:
		f, ok := toFloat(payload)
		if !ok {
			return fmt.Errorf("%w: real value expected, got %T", ErrInvalidSpec, payload)
		}
		*v = Real(f)
	default:
		s, ok := payload.(string)
		if !ok {
			return fmt.Errorf("%w: %s value expected string, got %T", ErrInvalidSpec, t, payload)
		}
		*v = Value{Type: t, Str: s}
	}
	return v.Validate()
}

func (v *Value) fromScalar(raw any) error {
	switch s := raw.(type) {
	case bool:
		*v = Boolean(s)
	case string:
		*v = Label(s)
	default:
		f, ok := toFloat(raw)
		if !ok {
			return fmt.Errorf("%w: unsupported value %T", ErrInvalidSpec, raw)
		}
		*v = Real(f)
	}
	return v.Validate()
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
