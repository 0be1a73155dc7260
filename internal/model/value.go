package model

import "math"

// Kind identifies the payload type carried by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNumber
	KindString
	KindBool
	KindObject
	KindArray
)

// Value is one sensor reading: a tagged variant over the payload types a
// Signal K delta can carry. The zero Value is invalid, which stands for
// "unknown" — an absent path is never treated as zero.
type Value struct {
	kind Kind
	num  float64
	str  string
	flag bool
	obj  map[string]Value
	arr  []Value
}

// Num returns a numeric Value. NaN and infinities map to the invalid
// Value so that "NaN means absent" is resolved at this boundary and never
// propagates as a sentinel.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: f}
}

// Str returns a string Value.
func Str(s string) Value {
	return Value{kind: KindString, str: s}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

// Obj returns an object Value wrapping the given fields.
func Obj(fields map[string]Value) Value {
	return Value{kind: KindObject, obj: fields}
}

// Arr returns an array Value.
func Arr(items []Value) Value {
	return Value{kind: KindArray, arr: items}
}

// FromJSON converts a value decoded from JSON (float64, string, bool,
// map[string]any, []any or nil) into a Value.
func FromJSON(raw any) Value {
	switch v := raw.(type) {
	case float64:
		return Num(v)
	case int:
		return Num(float64(v))
	case string:
		return Str(v)
	case bool:
		return Bool(v)
	case map[string]any:
		fields := make(map[string]Value, len(v))
		for k, f := range v {
			fields[k] = FromJSON(f)
		}
		return Obj(fields)
	case []any:
		items := make([]Value, 0, len(v))
		for _, it := range v {
			items = append(items, FromJSON(it))
		}
		return Arr(items)
	default:
		return Value{}
	}
}

// Kind reports the payload type.
func (v Value) Kind() Kind {
	return v.kind
}

// Valid reports whether the Value carries a payload at all.
func (v Value) Valid() bool {
	return v.kind != KindInvalid
}

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the string payload.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Flag returns the boolean payload.
func (v Value) Flag() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Field returns a named member of an object payload.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[name]
	return f, ok
}

// Items returns the array payload.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// StringList returns an array payload whose items are all strings.
func (v Value) StringList() ([]string, bool) {
	items, ok := v.Items()
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.Text()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
