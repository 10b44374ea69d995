package jsonvalue

import (
	"encoding/json"
	"iter"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one parsed JSON node. The concrete type is one of Null, Bool,
// Number, String, Array or *Object.
type Value interface {
	Kind() Kind

	// Interface converts the node into the representation produced by
	// encoding/json when decoding into any. Object order is lost.
	Interface() any
}

type Null struct{}

type Bool bool

// Number keeps the literal text of a JSON number.
type Number json.Number

type String string

type Array []Value

// Member is a single key/value entry of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a JSON object that preserves member insertion order.
// Keys are unique; setting an existing key replaces its value in place.
type Object struct {
	members []Member
	index   map[string]int
}

var (
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Number("0")
	_ Value = String("")
	_ Value = Array(nil)
	_ Value = (*Object)(nil)
)

func (Null) Kind() Kind { return KindNull }
func (Bool) Kind() Kind { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind { return KindArray }
func (*Object) Kind() Kind { return KindObject }

func (Null) Interface() any { return nil }

func (b Bool) Interface() any { return bool(b) }

// Interface returns a float64 when the literal fits one, otherwise the
// json.Number text.
func (n Number) Interface() any {
	if f, err := json.Number(n).Float64(); err == nil {
		return f
	}
	return json.Number(n)
}

func (s String) Interface() any { return string(s) }

func (a Array) Interface() any {
	out := make([]any, len(a))
	for i, v := range a {
		out[i] = v.Interface()
	}
	return out
}

// NewObject returns an empty object with room for size members.
func NewObject(size int) *Object {
	return &Object{
		members: make([]Member, 0, size),
		index:   make(map[string]int, size),
	}
}

// Set adds key at the end of the object, or replaces the value of an
// existing key while keeping its original position.
func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// All iterates over the entries in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, m := range o.members {
			if !yield(m.Key, m.Value) {
				return
			}
		}
	}
}

func (o *Object) Interface() any {
	out := make(map[string]any, len(o.members))
	for _, m := range o.members {
		out[m.Key] = m.Value.Interface()
	}
	return out
}
