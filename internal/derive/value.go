// Package derive implements a parsing-with-derivatives engine: grammars are
// represented as a small algebraic term graph that may be cyclic, and
// parsing is the repeated derivative of that graph with respect to each
// input token, finished off by reading the parse trees out of whatever
// grammar is left once the input is exhausted.
//
// The package has no notion of a lexer; callers supply already-tokenized
// input. Grammar terms are built exclusively through the smart constructors
// (Nil, Eps, Tok, Rep, Alt, Seq, Red) plus the Placeholder/Become pair for
// self-referential grammars, never by touching Term's fields directly from
// outside the package.
package derive

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrIncomparableToken is wrapped into the panic raised by NewValue when
// given a token whose dynamic type cannot be compared with ==.
var ErrIncomparableToken = errors.New("derive: token value is not comparable")

// Value wraps a caller-supplied token so it can be used as a map key inside
// the engine's memoization tables while still carrying an arbitrary
// user-domain payload (string, rune, a lexer's own token struct, etc).
//
// Two Values are Equal iff their underlying dynamic values compare equal
// with ==, which is the only operation the engine performs on tokens besides
// passing them through into Leaf trees.
type Value struct {
	v any
}

// NewValue wraps v as a token Value. It panics, wrapping ErrIncomparableToken,
// if v's dynamic type is a slice, map, or func - the three built-in kinds
// that are never comparable and therefore cannot back a Tok node used as a
// memoization key.
func NewValue(v any) Value {
	if v != nil {
		switch reflect.TypeOf(v).Kind() {
		case reflect.Slice, reflect.Map, reflect.Func:
			panic(fmt.Errorf("%w: %T", ErrIncomparableToken, v))
		}
	}
	return Value{v: v}
}

// Interface returns the wrapped token as its original dynamic type.
func (val Value) Interface() any {
	return val.v
}

// Equal reports whether val and other wrap equal underlying values.
func (val Value) Equal(other Value) bool {
	return val.v == other.v
}

// String renders the wrapped value for debugging and tree pretty-printing.
func (val Value) String() string {
	return fmt.Sprintf("%v", val.v)
}
