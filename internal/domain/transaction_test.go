package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestInsufficientPaymentError(t *testing.T) {
	var err error = &InsufficientPaymentError{Due: 176000, Paid: 100000}
	assert.True(t, errors.Is(err, ErrInsufficientPayment))
	var ipe *InsufficientPaymentError
	assert.True(t, errors.As(err, &ipe))
	assert.Equal(t, int64(76000), ipe.Outstanding())
}

func TestTransaction_CloneIsDeep(t *testing.T) {
	tx := Transaction{
		Lines:     []LineItem{{Name: "rice", Quantity: 1}},
		Discounts: []DiscountResult{{Name: "x", Amount: 1}},
	}
	c := tx.Clone()
	c.Lines[0].Quantity = 9
	c.Discounts[0].Amount = 9
	assert.Equal(t, 1, tx.Lines[0].Quantity)
	assert.Equal(t, int64(1), tx.Discounts[0].Amount)
}
