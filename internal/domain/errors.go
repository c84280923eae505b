package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidTransition   = errors.New("illegal transition of transaction status")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrValidation          = errors.New("validation failed")
)

// InsufficientPaymentError reports how far a payment falls short of the grand total.
type InsufficientPaymentError struct {
	Due  int64
	Paid int64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("%s: paid %d, due %d, outstanding %d", ErrInsufficientPayment, e.Paid, e.Due, e.Outstanding())
}

func (e *InsufficientPaymentError) Outstanding() int64 {
	return e.Due - e.Paid
}

func (e *InsufficientPaymentError) Unwrap() error {
	return ErrInsufficientPayment
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
