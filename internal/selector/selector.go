// Package selector narrows a document to the nodes matched by a JSONPath
// expression before it is walked.
package selector

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/theory/jsonpath"
	"github.com/theory/jsonpath/spec"

	"github.com/jacoelho/json2bytes/internal/jsonvalue"
	"github.com/jacoelho/json2bytes/internal/walker"
)

var (
	ErrInvalidPath = errors.New("invalid JSONPath")
	ErrUnresolved  = errors.New("selected node not found in document")
)

// Root is a selected node and the field context it is walked with.
type Root struct {
	Value jsonvalue.Value
	Field walker.Field
}

// Selector evaluates a compiled JSONPath against documents.
type Selector struct {
	expr string
	path *jsonpath.Path
}

// Compile parses expr, for example "$.items[*].body" or "$..message".
func Compile(expr string) (*Selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: expression is empty", ErrInvalidPath)
	}

	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidPath, expr, err)
	}

	return &Selector{expr: expr, path: path}, nil
}

func (s *Selector) String() string {
	return s.expr
}

// Roots yields the nodes of doc selected by the expression, in selection
// order. Each node keeps the ordered representation from doc; its field is
// the nearest object member name on its normalized path, so elements of an
// array selected by index inherit the key of that array.
func (s *Selector) Roots(doc jsonvalue.Value) iter.Seq2[Root, error] {
	return func(yield func(Root, error) bool) {
		for _, node := range s.path.SelectLocated(doc.Interface()) {
			root, err := resolve(doc, node.Path)
			if !yield(root, err) || err != nil {
				return
			}
		}
	}
}

// resolve walks a normalized path through the ordered document.
func resolve(doc jsonvalue.Value, path spec.NormalizedPath) (Root, error) {
	cur := doc
	field := walker.NoField

	for _, seg := range path {
		switch sel := seg.(type) {
		case spec.Name:
			obj, ok := cur.(*jsonvalue.Object)
			if !ok {
				return Root{}, fmt.Errorf("%w: %s: member %q of %s", ErrUnresolved, path, string(sel), cur.Kind())
			}
			next, ok := obj.Get(string(sel))
			if !ok {
				return Root{}, fmt.Errorf("%w: %s", ErrUnresolved, path)
			}
			cur = next
			field = walker.Named(string(sel))
		case spec.Index:
			arr, ok := cur.(jsonvalue.Array)
			if !ok {
				return Root{}, fmt.Errorf("%w: %s: index %d of %s", ErrUnresolved, path, int(sel), cur.Kind())
			}
			if int(sel) < 0 || int(sel) >= len(arr) {
				return Root{}, fmt.Errorf("%w: %s: index %d out of range", ErrUnresolved, path, int(sel))
			}
			cur = arr[int(sel)]
		default:
			return Root{}, fmt.Errorf("%w: unsupported path segment %T", ErrUnresolved, seg)
		}
	}

	return Root{Value: cur, Field: field}, nil
}
