// Package walker visits a parsed JSON document and yields the string values
// that pass the size and field-name predicates.
//
// The field context of a value is the key of its nearest enclosing object.
// Arrays pass the context of their parent through unchanged, while every
// object member resets it to the member key:
//
//	{"a": ["x", {"b": "y"}]}
//
// yields "x" under field a and "y" under field b.
package walker

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/jacoelho/json2bytes/internal/jsonvalue"
)

// Field is the enclosing object key of a value. The zero value means the
// value has no enclosing object.
type Field struct {
	Name  string
	Valid bool
}

// NoField is the context of a document root.
var NoField = Field{}

func Named(name string) Field {
	return Field{Name: name, Valid: true}
}

func (f Field) String() string {
	if !f.Valid {
		return "<none>"
	}
	return f.Name
}

// FieldFilter is an allow-list of object keys. A nil filter allows every field,
// including values without an enclosing object.
type FieldFilter map[string]struct{}

// NewFieldFilter returns nil when no names are given.
func NewFieldFilter(names ...string) FieldFilter {
	if len(names) == 0 {
		return nil
	}

	f := make(FieldFilter, len(names))
	for _, name := range names {
		f[name] = struct{}{}
	}
	return f
}

// Allows reports whether strings found under field qualify for emission.
func (f FieldFilter) Allows(field Field) bool {
	if f == nil {
		return true
	}
	if !field.Valid {
		return false
	}
	_, ok := f[field.Name]
	return ok
}

func (f FieldFilter) String() string {
	return strings.Join(slices.Sorted(maps.Keys(f)), ",")
}

// Options are the predicates applied to every string value.
type Options struct {
	MinSize uint // inclusive, in bytes of the UTF-8 encoding
	Fields  FieldFilter
}

// Qualifies applies both predicates to a string found under field.
func (o Options) Qualifies(s string, field Field) bool {
	return o.Fields.Allows(field) && uint(len(s)) >= o.MinSize
}

// Match is a string value that passed the predicates.
type Match struct {
	Text  string
	Field Field
}

// Walk returns the qualifying strings of v in document order: object members
// in insertion order, array elements by index, depth first. field is the
// context v was found under; use NoField for a document root.
func Walk(v jsonvalue.Value, opts Options, field Field) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		walk(v, opts, field, yield)
	}
}

// walk returns false once the consumer stops the iteration.
func walk(v jsonvalue.Value, opts Options, field Field, yield func(Match) bool) bool {
	switch node := v.(type) {
	case jsonvalue.String:
		if opts.Qualifies(string(node), field) {
			return yield(Match{Text: string(node), Field: field})
		}
	case jsonvalue.Array:
		for _, elem := range node {
			if !walk(elem, opts, field, yield) {
				return false
			}
		}
	case *jsonvalue.Object:
		for key, value := range node.All() {
			if !walk(value, opts, Named(key), yield) {
				return false
			}
		}
	}

	return true
}
