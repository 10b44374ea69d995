package jsonvalue

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestObject_SetGet(t *testing.T) {
	o := NewObject(0)
	o.Set("b", String("1"))
	o.Set("a", String("2"))
	o.Set("b", String("3"))

	var keys []string
	for k := range o.All() {
		keys = append(keys, k)
	}
	if !reflect.DeepEqual(keys, []string{"b", "a"}) {
		t.Errorf("All() keys = %v, want [b a]", keys)
	}

	v, ok := o.Get("b")
	if !ok || v != String("3") {
		t.Errorf("Get(b) = %v, %t, want 3, true", v, ok)
	}

	if _, ok := o.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
}

func TestObject_AllStopsEarly(t *testing.T) {
	o := obj("a", Null{}, "b", Null{}, "c", Null{})

	var seen int
	for range o.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("iteration visited %d members, want 2", seen)
	}
}

func TestValue_Interface(t *testing.T) {
	v := obj(
		"s", String("x"),
		"n", Number("2"),
		"big", Number("1e400"),
		"b", Bool(true),
		"z", Null{},
		"a", Array{String("y")},
	)

	want := map[string]any{
		"s":   "x",
		"n":   float64(2),
		"big": json.Number("1e400"),
		"b":   true,
		"z":   nil,
		"a":   []any{"y"},
	}

	if got := v.Interface(); !reflect.DeepEqual(got, want) {
		t.Errorf("Interface() = %#v, want %#v", got, want)
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Value]string{
		Null{}:       "null",
		Bool(true):   "bool",
		Number("1"):  "number",
		String("s"):  "string",
		NewObject(0): "object",
	}
	for v, want := range tests {
		if got := v.Kind().String(); got != want {
			t.Errorf("%T Kind() = %q, want %q", v, got, want)
		}
	}

	if got := (Array{}).Kind().String(); got != "array" {
		t.Errorf("Array Kind() = %q, want array", got)
	}
}
