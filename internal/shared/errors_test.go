package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchKinds(t *testing.T) {
	wrapped := fmt.Errorf("transfer: %w", &InsufficientStockError{Available: 40, Requested: 50})
	require.ErrorIs(t, wrapped, ErrInsufficientStock)

	var insufficient *InsufficientStockError
	require.True(t, errors.As(wrapped, &insufficient))
	assert.Equal(t, 40, insufficient.Available)

	assert.ErrorIs(t, Validation("quantity", "quantity must be positive"), ErrValidation)
	assert.ErrorIs(t, NotFound("assignment", "no stock at source"), ErrNotFound)
	assert.ErrorIs(t, &CapacityError{Total: 10, Requested: 11}, ErrCapacityExceeded)
}

func TestUserSafeMessage(t *testing.T) {
	assert.Equal(t, "quantity must be positive", UserSafeMessage(Validation("quantity", "quantity must be positive")))
	assert.Equal(t, "no stock at source", UserSafeMessage(NotFound("assignment", "no stock at source")))
	assert.Contains(t, UserSafeMessage(&InsufficientStockError{Available: 40, Requested: 50}), "40 available")
	assert.Contains(t, UserSafeMessage(fmt.Errorf("x: %w", ErrConflict)), "another operation")
	assert.Equal(t, "Unexpected error. Please try again later.", UserSafeMessage(errors.New("dial tcp: refused")))
	assert.Empty(t, UserSafeMessage(nil))
}

func TestIsBusiness(t *testing.T) {
	assert.True(t, IsBusiness(ErrConflict))
	assert.True(t, IsBusiness(&CapacityError{}))
	assert.False(t, IsBusiness(errors.New("io")))
}
