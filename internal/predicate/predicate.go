// Package predicate compiles the --where expression that every candidate
// match must satisfy.
//
// Expressions use the expr language and see these variables:
//
//	text       the string value
//	field      the enclosing object key, "" when there is none
//	has_field  whether the value has an enclosing object key
//	length     byte length of text
//	document   1-based index of the document in its input
//	input      input name, "-" for standard input
//
// Examples:
//
//	field == "message" && text contains "error"
//	length < 4096 && !(text startsWith "http")
package predicate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	ErrInvalidExpression = errors.New("invalid expression")
	ErrEvaluation        = errors.New("expression evaluation failed")
)

// Env is the data an expression is evaluated against.
type Env struct {
	Text     string `expr:"text"`
	Field    string `expr:"field"`
	HasField bool   `expr:"has_field"`
	Length   int    `expr:"length"`
	Document int    `expr:"document"`
	Input    string `expr:"input"`
}

type Predicate struct {
	source  string
	program *vm.Program
}

// Compile type-checks source against Env; the expression must yield a bool.
func Compile(source string) (*Predicate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: expression is empty", ErrInvalidExpression)
	}

	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	return &Predicate{source: source, program: program}, nil
}

func (p *Predicate) String() string {
	return p.source
}

// Match evaluates the expression for env.
func (p *Predicate) Match(env Env) (bool, error) {
	out, err := expr.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrEvaluation, p.source, err)
	}

	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("%w: %s: result %T is not a bool", ErrEvaluation, p.source, out)
	}
	return ok, nil
}
