// Package document is a small tagged-variant model for JSON telemetry.
//
// A Value is one of object, array, string, number, bool or null. Accessors never
// panic: lookups on the wrong kind, or on a missing key, report ok=false so callers
// can treat each field independently.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Kind is the variant tag of a Value.
type Kind uint8

const (
	Invalid Kind = iota // zero Value, "absent"
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "invalid"
	}
}

// ErrNotObject is returned by Parse when the payload root is not a JSON object.
var ErrNotObject = errors.New("document root is not an object")

// Value is an immutable node of a parsed document.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	obj  map[string]Value
}

// Parse decodes a raw payload. The root must be an object; trailing data is rejected.
func Parse(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return Value{}, fmt.Errorf("decode document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("decode document: trailing data after root value")
	}

	v := FromAny(root)
	if v.kind != Object {
		return Value{}, ErrNotObject
	}
	return v, nil
}

// FromAny converts the output of encoding/json (with or without UseNumber) into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Value{kind: Null}
	case bool:
		return Value{kind: Bool, b: t}
	case json.Number:
		f, err := t.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			// Out of range literals keep their text so they stay distinguishable.
			return Value{kind: String, str: t.String()}
		}
		return Value{kind: Number, num: f}
	case float64:
		return Value{kind: Number, num: t}
	case int:
		return Value{kind: Number, num: float64(t)}
	case string:
		return Value{kind: String, str: t}
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = FromAny(e)
		}
		return Value{kind: Array, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = FromAny(e)
		}
		return Value{kind: Object, obj: obj}
	default:
		return Value{}
	}
}

// Kind reports the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Exists reports whether the value is present (any kind other than Invalid).
func (v Value) Exists() bool { return v.kind != Invalid }

// Has reports whether an object carries key, regardless of its value's kind.
func (v Value) Has(key string) bool {
	if v.kind != Object {
		return false
	}
	_, ok := v.obj[key]
	return ok
}

// Get returns the member value for key. Missing keys and non-objects yield an
// Invalid value and false.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	m, ok := v.obj[key]
	return m, ok
}

// Path walks nested objects, e.g. Path("lookups", "airline", "name").
func (v Value) Path(keys ...string) (Value, bool) {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric payload when the value is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.num, true
}

// AsInt truncates a numeric payload toward zero. Values outside the int range report false.
func (v Value) AsInt() (int, bool) {
	f, ok := v.AsNumber()
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// AsBool returns the boolean payload when the value is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// Len returns the number of elements of an array or members of an object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	}
	return 0
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// String looks up key and returns its string payload.
func (v Value) String(key string) (string, bool) {
	m, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return m.AsString()
}

// Number looks up key and returns its numeric payload.
func (v Value) Number(key string) (float64, bool) {
	m, ok := v.Get(key)
	if !ok {
		return 0, false
	}
	return m.AsNumber()
}

// Int looks up key and returns its numeric payload truncated toward zero.
func (v Value) Int(key string) (int, bool) {
	m, ok := v.Get(key)
	if !ok {
		return 0, false
	}
	return m.AsInt()
}

// Object looks up key and returns it only when it is an object.
func (v Value) Object(key string) (Value, bool) {
	m, ok := v.Get(key)
	if !ok || m.kind != Object {
		return Value{}, false
	}
	return m, true
}

// Array looks up key and returns it only when it is an array.
func (v Value) Array(key string) (Value, bool) {
	m, ok := v.Get(key)
	if !ok || m.kind != Array {
		return Value{}, false
	}
	return m, true
}
