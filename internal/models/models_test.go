package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_ZeroIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, KindNull, v.Kind())
	assert.Nil(t, v.Interface())
	assert.Equal(t, "null", v.String())
}

func TestNewObject_CopiesMembers(t *testing.T) {
	members := map[string]Value{"a": NewInt(1)}
	obj := NewObject(members)
	members["b"] = NewInt(2)

	assert.Equal(t, 1, obj.Len())
	_, ok := obj.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, obj.Keys())
}

func TestValue_Keys_Sorted(t *testing.T) {
	obj := NewObject(map[string]Value{"b": Null(), "c": Null(), "a": Null()})
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys())
	assert.Nil(t, NewString("x").Keys())
}

func TestValue_Index(t *testing.T) {
	arr := NewArray(NewString("x"), NewBool(true))

	elem, ok := arr.Index(1)
	assert.True(t, ok)
	assert.True(t, elem.Bool())

	_, ok = arr.Index(2)
	assert.False(t, ok)
	_, ok = arr.Index(-1)
	assert.False(t, ok)
	_, ok = NewString("x").Index(0)
	assert.False(t, ok)
}

func TestValue_Interface(t *testing.T) {
	v := NewObject(map[string]Value{
		"list":  NewArray(NewInt(1), NewFloat(1.5), NewNumber("1e999")),
		"name":  NewString("x"),
		"ok":    NewBool(false),
		"empty": Null(),
	})

	want := map[string]any{
		"list":  []any{int64(1), 1.5, json.Number("1e999")},
		"name":  "x",
		"ok":    false,
		"empty": nil,
	}
	assert.Equal(t, want, v.Interface())
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"string is bare", NewString("bar"), "bar"},
		{"integer", NewInt(-7), "-7"},
		{"float", NewFloat(2.5), "2.5"},
		{"boolean", NewBool(true), "true"},
		{"number keeps raw literal", NewNumber("123456789012345678901234567890"), "123456789012345678901234567890"},
		{"object is compact JSON", NewObject(map[string]Value{"b": NewInt(2), "a": NewString("x")}), `{"a":"x","b":2}`},
		{"array is compact JSON", NewArray(NewInt(1), Null()), `[1,null]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "object", KindObject.String())
	assert.Equal(t, "number", KindNumber.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
