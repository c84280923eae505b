package transaction

import (
	"fmt"
	"math"

	"github.com/fjod/go_cart/pos-service/internal/domain"
)

// PaymentProcessor validates tendered payments and settles them against a grand total.
type PaymentProcessor struct {
	methods []domain.PaymentMethod
}

func NewPaymentProcessor() *PaymentProcessor {
	return &PaymentProcessor{methods: []domain.PaymentMethod{
		domain.PaymentCash,
		domain.PaymentCard,
		domain.PaymentDigital,
		domain.PaymentTransfer,
	}}
}

func (p *PaymentProcessor) SupportedMethods() []domain.PaymentMethod {
	return append([]domain.PaymentMethod(nil), p.methods...)
}

func (p *PaymentProcessor) Validate(amount int64, method domain.PaymentMethod) error {
	if !p.supports(method) {
		return fmt.Errorf("%w: unsupported payment method %q", domain.ErrValidation, method)
	}
	if amount < 0 {
		return fmt.Errorf("%w: payment must not be negative, got %d", domain.ErrValidation, amount)
	}
	return nil
}

// SumInstallments totals a non-empty list of positive installments.
func (p *PaymentProcessor) SumInstallments(installments []int64) (int64, error) {
	if len(installments) == 0 {
		return 0, fmt.Errorf("%w: at least one installment is required", domain.ErrValidation)
	}
	var total int64
	for i, amt := range installments {
		if amt <= 0 {
			return 0, fmt.Errorf("%w: installment %d must be positive, got %d", domain.ErrValidation, i+1, amt)
		}
		if amt > math.MaxInt64-total {
			return 0, fmt.Errorf("%w: installments overflow the payment total", domain.ErrValidation)
		}
		total += amt
	}
	return total, nil
}

// Settle returns the payment record for paid against due, or an *domain.InsufficientPaymentError.
func (p *PaymentProcessor) Settle(due, paid int64, method domain.PaymentMethod, installments []int64) (domain.Payment, error) {
	if paid < due {
		return domain.Payment{}, &domain.InsufficientPaymentError{Due: due, Paid: paid}
	}
	return domain.Payment{
		Amount:       paid,
		Method:       method,
		Change:       paid - due,
		Installments: append([]int64(nil), installments...),
	}, nil
}

func (p *PaymentProcessor) supports(method domain.PaymentMethod) bool {
	for _, m := range p.methods {
		if m == method {
			return true
		}
	}
	return false
}
