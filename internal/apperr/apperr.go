// Package apperr defines the typed errors shared by the services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindUnauthenticated   Kind = "unauthenticated"
	KindPermissionDenied  Kind = "permission_denied"
	KindNotFound          Kind = "not_found"
	KindAlreadyExists     Kind = "already_exists"
	KindInsufficientStock Kind = "insufficient_stock"
	KindProductsNotFound  Kind = "products_not_found"
	KindIllegalState      Kind = "illegal_state"
	KindIllegalTransition Kind = "illegal_transition"
	KindProductNotInOrder Kind = "product_not_in_order"
	KindConflict          Kind = "conflict"
	KindStore             Kind = "store_error"
)

// Error is a classified failure. Fields names offending input fields and
// ProductIDs the offending products, when relevant.
type Error struct {
	Kind       Kind
	Message    string
	Fields     []string
	ProductIDs []int64
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (fields: %s)", strings.Join(e.Fields, ", "))
	}
	if len(e.ProductIDs) > 0 {
		fmt.Fprintf(&b, " (products: %v)", e.ProductIDs)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated}
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrProductsNotFound  = &Error{Kind: KindProductsNotFound}
	ErrIllegalState      = &Error{Kind: KindIllegalState}
	ErrIllegalTransition = &Error{Kind: KindIllegalTransition}
	ErrProductNotInOrder = &Error{Kind: KindProductNotInOrder}
	ErrConflict          = &Error{Kind: KindConflict}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func PermissionDenied(format string, args ...any) *Error {
	return New(KindPermissionDenied, format, args...)
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func AlreadyExists(format string, args ...any) *Error {
	return New(KindAlreadyExists, format, args...)
}

func InsufficientStock(ids []int64) *Error {
	return &Error{Kind: KindInsufficientStock, Message: "insufficient stock", ProductIDs: ids}
}

func ProductsNotFound(ids []int64) *Error {
	return &Error{Kind: KindProductsNotFound, Message: "products not found", ProductIDs: ids}
}

func IllegalState(format string, args ...any) *Error {
	return New(KindIllegalState, format, args...)
}

func IllegalTransition(from, to string) *Error {
	return New(KindIllegalTransition, "cannot move order from %s to %s", from, to)
}

func ProductNotInOrder(id int64) *Error {
	return &Error{Kind: KindProductNotInOrder, Message: "product is not part of this order", ProductIDs: []int64{id}}
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// Store wraps an infrastructure failure.
func Store(op string, err error) *Error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}

// KindOf reports the kind of err. Unclassified errors count as store errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
