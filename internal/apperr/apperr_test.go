package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("create order: %w", InsufficientStock([]int64{3, 9}))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrProductsNotFound))
	assert.Equal(t, KindInsufficientStock, KindOf(err))

	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, []int64{3, 9}, e.ProductIDs)
}

func TestKindOf_UnclassifiedIsStore(t *testing.T) {
	assert.Equal(t, KindStore, KindOf(errors.New("socket closed")))
}

func TestError_Message(t *testing.T) {
	err := Validation("invalid order", "contact.full_name", "products")
	assert.Equal(t, "invalid order (fields: contact.full_name, products)", err.Error())

	wrapped := Store("get order", errors.New("timeout"))
	assert.Equal(t, "get order: timeout", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "timeout")
}
