package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether s may move to next. Only pending transactions move.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == StatusPending && (next == StatusCompleted || next == StatusCancelled)
}

func (s TransactionStatus) String() string {
	return string(s)
}

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(s); st {
	case StatusPending, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", validationf("unknown transaction status %q", s)
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentDigital  PaymentMethod = "digital"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigital, PaymentTransfer:
		return true
	}
	return false
}

// DiscountResult is one applied discount line. Amount never exceeds the cart subtotal.
type DiscountResult struct {
	Name        string          `json:"name"`
	Amount      int64           `json:"amount"`
	Rate        decimal.Decimal `json:"rate"`
	Description string          `json:"description"`
}

// TaxResult is one tax line computed on the post-discount amount.
type TaxResult struct {
	Name          string          `json:"name"`
	Amount        int64           `json:"amount"`
	Rate          decimal.Decimal `json:"rate"`
	TaxableAmount int64           `json:"taxable_amount"`
	Description   string          `json:"description"`
}

type LineItem struct {
	Name      string   `json:"name"`
	Unit      string   `json:"unit"`
	Category  Category `json:"category"`
	UnitPrice int64    `json:"unit_price"`
	Quantity  int      `json:"quantity"`
	Total     int64    `json:"total"`
}

// SnapshotLines copies cart lines into transaction line items.
func SnapshotLines(lines []CartLine) []LineItem {
	out := make([]LineItem, len(lines))
	for i, l := range lines {
		out[i] = LineItem{
			Name:      l.Product.Name,
			Unit:      l.Product.Unit,
			Category:  l.Product.Category,
			UnitPrice: l.Product.Price,
			Quantity:  l.Quantity,
			Total:     l.Total(),
		}
	}
	return out
}

type CustomerSnapshot struct {
	Name   string       `json:"name"`
	Age    int          `json:"age"`
	Kind   CustomerKind `json:"kind"`
	Label  string       `json:"label"`
	Points int64        `json:"points,omitempty"`
}

func SnapshotCustomer(c Customer) CustomerSnapshot {
	s := CustomerSnapshot{
		Name:  c.Name(),
		Age:   c.Age(),
		Kind:  c.Kind(),
		Label: c.Label(),
	}
	if ph, ok := c.(PointsHolder); ok {
		s.Points = ph.Points()
	}
	return s
}

type Payment struct {
	Amount       int64         `json:"amount"`
	Method       PaymentMethod `json:"method"`
	Change       int64         `json:"change"`
	Installments []int64       `json:"installments,omitempty"`
}

// Transaction is the record of a checked-out cart. Values handed out by the registry are copies;
// the status moves only through complete and cancel.
type Transaction struct {
	ID            string            `json:"id"`
	Customer      CustomerSnapshot  `json:"customer"`
	Lines         []LineItem        `json:"lines"`
	Subtotal      int64             `json:"subtotal"`
	Discounts     []DiscountResult  `json:"discounts"`
	TotalDiscount int64             `json:"total_discount"`
	Taxes         []TaxResult       `json:"taxes"`
	TotalTax      int64             `json:"total_tax"`
	GrandTotal    int64             `json:"grand_total"`
	Payment       Payment           `json:"payment"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot reach the registry's slices.
func (t Transaction) Clone() Transaction {
	c := t
	c.Lines = append([]LineItem(nil), t.Lines...)
	c.Discounts = append([]DiscountResult(nil), t.Discounts...)
	c.Taxes = append([]TaxResult(nil), t.Taxes...)
	c.Payment.Installments = append([]int64(nil), t.Payment.Installments...)
	return c
}

func (t Transaction) TotalQuantity() int {
	n := 0
	for _, l := range t.Lines {
		n += l.Quantity
	}
	return n
}

type EventType string

const (
	EventTransactionCreated   EventType = "transaction.created"
	EventTransactionCompleted EventType = "transaction.completed"
	EventTransactionCancelled EventType = "transaction.cancelled"
)

// TransactionEvent is published when a transaction is created or changes status.
type TransactionEvent struct {
	Type        EventType   `json:"type"`
	Transaction Transaction `json:"transaction"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
