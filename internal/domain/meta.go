package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMeta is returned when a payload cannot be represented as Meta.
var ErrInvalidMeta = errors.New("invalid meta")

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a closed variant over string, number, bool and nested Meta.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	m    Meta
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func MapValue(m Meta) Value { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Map() (Meta, bool) { return v.m, v.kind == KindMap }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	default:
		return nil, fmt.Errorf("%w: empty value", ErrInvalidMeta)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMeta, err)
	}
	parsed, err := valueFromAny(raw, "")
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Meta is a free-form key/value map restricted to Value variants.
type Meta map[string]Value

// UnmarshalJSON accepts a JSON object; a top-level null leaves m untouched.
func (m *Meta) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMeta, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: expected an object", ErrInvalidMeta)
	}
	parsed, err := metaFromMap(obj, "")
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMeta decodes a JSON object string. Blank input yields a nil Meta.
func ParseMeta(s string) (Meta, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var m Meta
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		if errors.Is(err, ErrInvalidMeta) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidMeta, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidMeta)
	}
	return m, nil
}

func metaFromMap(obj map[string]any, path string) (Meta, error) {
	out := make(Meta, len(obj))
	for k, raw := range obj {
		v, err := valueFromAny(raw, joinPath(path, k))
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func valueFromAny(raw any, path string) (Value, error) {
	switch t := raw.(type) {
	case string:
		return StringValue(t), nil
	case float64:
		return NumberValue(t), nil
	case bool:
		return BoolValue(t), nil
	case map[string]any:
		m, err := metaFromMap(t, path)
		if err != nil {
			return Value{}, err
		}
		return MapValue(m), nil
	case nil:
		return Value{}, fmt.Errorf("%w: null at %q", ErrInvalidMeta, path)
	case []any:
		return Value{}, fmt.Errorf("%w: array at %q", ErrInvalidMeta, path)
	default:
		return Value{}, fmt.Errorf("%w: unsupported %T at %q", ErrInvalidMeta, raw, path)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
