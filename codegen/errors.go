package codegen

import (
	"errors"
	"fmt"

	"github.com/rheehot/dsp/parser"
)

// Error kinds. Every lowering failure wraps exactly one of these.
var (
	ErrName                    = errors.New("name error")
	ErrUndefinedFunction       = errors.New("undefined function")
	ErrUnsupportedLiteral      = errors.New("unsupported literal")
	ErrUnsupportedContext      = errors.New("unsupported context")
	ErrUnsupportedUnaryOperand = errors.New("unsupported unary operand")
	ErrUnsupportedCallee       = errors.New("unsupported callee")
	ErrUnsupportedArgumentType = errors.New("unsupported argument type")
	ErrUnsupportedExpression   = errors.New("unsupported expression")

	ErrUnsupportedOperator  = errors.New("unsupported operator")
	ErrUnsupportedReturn    = errors.New("unsupported return type")
	ErrArityMismatch        = errors.New("arity mismatch")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrUnsupportedStatement = errors.New("unsupported statement")
	ErrRedeclared           = errors.New("redeclared")
)

// Error is a lowering failure at a source position.
type Error struct {
	Pos parser.Pos
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

// Message is the error text without the position.
func (e *Error) Message() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(pos parser.Pos, kind error, format string, args ...any) *Error {
	return &Error{Pos: pos, Err: fmt.Errorf("%w: "+format, append([]any{kind}, args...)...)}
}

// at attaches pos to err unless it already carries a position.
func at(pos parser.Pos, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Pos: pos, Err: err}
}
