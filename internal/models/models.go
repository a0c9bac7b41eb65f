package models

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Kind is the tag of a JSON value. It is fixed when the value is built.
type Kind int

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindBoolean
	KindInteger
	KindFloat
	// KindNumber holds a numeric literal that fits neither int64 nor a finite float64.
	KindNumber
)

var kindNames = map[Kind]string{
	KindNull:    "null",
	KindObject:  "object",
	KindArray:   "array",
	KindString:  "string",
	KindBoolean: "boolean",
	KindInteger: "integer",
	KindFloat:   "float",
	KindNumber:  "number",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a JSON value. The zero Value is a JSON null.
type Value struct {
	kind    Kind
	object  map[string]Value
	array   []Value
	str     string // string contents, or the raw literal for KindNumber
	boolean bool
	integer int64
	float   float64
}

// Null returns a JSON null
func Null() Value {
	return Value{kind: KindNull}
}

// NewObject returns an object holding a copy of members
func NewObject(members map[string]Value) Value {
	obj := make(map[string]Value, len(members))
	for k, v := range members {
		obj[k] = v
	}
	return Value{kind: KindObject, object: obj}
}

// NewArray returns an array holding a copy of elements
func NewArray(elements ...Value) Value {
	arr := make([]Value, len(elements))
	copy(arr, elements)
	return Value{kind: KindArray, array: arr}
}

// NewString returns a string value
func NewString(s string) Value {
	return Value{kind: KindString, str: s}
}

// NewBool returns a boolean value
func NewBool(b bool) Value {
	return Value{kind: KindBoolean, boolean: b}
}

// NewInt returns an integer value
func NewInt(i int64) Value {
	return Value{kind: KindInteger, integer: i}
}

// NewFloat returns a floating-point value
func NewFloat(f float64) Value {
	return Value{kind: KindFloat, float: f}
}

// NewNumber returns a numeric literal that could not be represented as int64 or float64
func NewNumber(raw string) Value {
	return Value{kind: KindNumber, str: raw}
}

// Kind returns the tag of the value
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is a JSON null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Keys returns the object keys in sorted order, or nil for non-objects
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.object))
	for k := range v.object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the member stored under key
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	member, ok := v.object[key]
	return member, ok
}

// Len returns the number of members or elements, 0 for scalars
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.object)
	case KindArray:
		return len(v.array)
	default:
		return 0
	}
}

// Index returns the i-th array element
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.array) {
		return Value{}, false
	}
	return v.array[i], true
}

// Str returns the string contents, or the raw literal of a KindNumber
func (v Value) Str() string {
	return v.str
}

// Bool returns the boolean contents
func (v Value) Bool() bool {
	return v.boolean
}

// Int returns the integer contents
func (v Value) Int() int64 {
	return v.integer
}

// Float returns the floating-point contents
func (v Value) Float() float64 {
	return v.float
}

// Interface converts v into plain Go values: map[string]any, []any, string,
// bool, int64, float64, json.Number (KindNumber) or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindObject:
		out := make(map[string]any, len(v.object))
		for k, member := range v.object {
			out[k] = member.Interface()
		}
		return out
	case KindArray:
		out := make([]any, len(v.array))
		for i, elem := range v.array {
			out[i] = elem.Interface()
		}
		return out
	case KindString:
		return v.str
	case KindBoolean:
		return v.boolean
	case KindInteger:
		return v.integer
	case KindFloat:
		return v.float
	case KindNumber:
		return json.Number(v.str)
	default:
		return nil
	}
}

// String renders scalars bare and containers as compact JSON, for diagnostics
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString, KindNumber:
		return v.str
	case KindBoolean:
		return strconv.FormatBool(v.boolean)
	case KindInteger:
		return strconv.FormatInt(v.integer, 10)
	case KindFloat:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	default:
		b, err := json.Marshal(v.Interface())
		if err != nil {
			return "<" + v.kind.String() + ">"
		}
		return string(b)
	}
}
