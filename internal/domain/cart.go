package domain

import (
	"fmt"
	"math"
)

// MaxSubtotal bounds a cart's subtotal. The headroom keeps summed discounts and taxes, whose
// rates never exceed 100%, inside int64.
const MaxSubtotal int64 = math.MaxInt64 / 8

type CartLine struct {
	Product  Product
	Quantity int
}

// Total is quantity × unit price.
func (l CartLine) Total() int64 {
	return int64(l.Quantity) * l.Product.Price
}

// CategoryTotal aggregates the lines of one category.
type CategoryTotal struct {
	Category Category
	Quantity int
	Amount   int64
}

// Cart is a customer's basket. It is not safe for concurrent use; callers that share a cart
// between goroutines must serialize access themselves.
type Cart struct {
	customer  Customer
	lines     []CartLine
	finalized bool
}

func NewCart(customer Customer) (*Cart, error) {
	if customer == nil {
		return nil, validationf("cart needs a customer")
	}
	return &Cart{customer: customer}, nil
}

func (c *Cart) Customer() Customer { return c.customer }
func (c *Cart) IsFinalized() bool  { return c.finalized }
func (c *Cart) IsEmpty() bool      { return len(c.lines) == 0 }

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// AddLine appends a product. Adding a product already in the cart merges the quantities and
// reprices the whole line at p, so the latest catalog price is the one billed.
func (c *Cart) AddLine(p Product, quantity int) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if quantity <= 0 {
		return validationf("quantity must be positive, got %d", quantity)
	}
	if p.Name == "" {
		return validationf("product name must not be empty")
	}
	if err := ValidatePrice(p.Name, p.Price); err != nil {
		return err
	}
	if !p.Category.Valid() {
		return validationf("unknown category %q", p.Category)
	}
	i := c.indexOf(p.Name)
	if i >= 0 {
		if quantity > math.MaxInt-c.lines[i].Quantity {
			return validationf("quantity of %q is too large", p.Name)
		}
		quantity += c.lines[i].Quantity
	}
	if err := c.checkCapacity(i, p, quantity); err != nil {
		return err
	}
	if i >= 0 {
		c.lines[i] = CartLine{Product: p, Quantity: quantity}
		return nil
	}
	c.lines = append(c.lines, CartLine{Product: p, Quantity: quantity})
	return nil
}

func (c *Cart) RemoveLine(name string) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	i := c.indexOf(NormalizeName(name))
	if i < 0 {
		return fmt.Errorf("%w: product %q is not in the cart", ErrNotFound, name)
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

func (c *Cart) UpdateQuantity(name string, quantity int) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if quantity <= 0 {
		return validationf("quantity must be positive, got %d", quantity)
	}
	i := c.indexOf(NormalizeName(name))
	if i < 0 {
		return fmt.Errorf("%w: product %q is not in the cart", ErrNotFound, name)
	}
	if err := c.checkCapacity(i, c.lines[i].Product, quantity); err != nil {
		return err
	}
	c.lines[i].Quantity = quantity
	return nil
}

func (c *Cart) Clear() error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	c.lines = nil
	return nil
}

// Finalize locks the cart against further changes.
func (c *Cart) Finalize() error {
	if c.finalized {
		return fmt.Errorf("%w: cart is already finalized", ErrInvalidState)
	}
	c.finalized = true
	return nil
}

// Reopen undoes Finalize when the sale could not be recorded.
func (c *Cart) Reopen() {
	c.finalized = false
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.Total()
	}
	return total
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// CategoryTotals returns one entry per category present in the cart, in Categories() order.
func (c *Cart) CategoryTotals() []CategoryTotal {
	byCategory := make(map[Category]*CategoryTotal)
	for _, l := range c.lines {
		ct, ok := byCategory[l.Product.Category]
		if !ok {
			ct = &CategoryTotal{Category: l.Product.Category}
			byCategory[l.Product.Category] = ct
		}
		ct.Quantity += l.Quantity
		ct.Amount += l.Total()
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for _, cat := range Categories() {
		if ct, ok := byCategory[cat]; ok {
			out = append(out, *ct)
		}
	}
	return out
}

func (c *Cart) checkMutable() error {
	if c.finalized {
		return fmt.Errorf("%w: cart is finalized", ErrInvalidState)
	}
	return nil
}

// checkCapacity rejects setting line i (a new line when i < 0) to quantity units of p when the
// line total or the subtotal would pass MaxSubtotal, or the item count would overflow.
func (c *Cart) checkCapacity(i int, p Product, quantity int) error {
	if p.Price > 0 && int64(quantity) > MaxSubtotal/p.Price {
		return validationf("%d × %d exceeds the maximum total of %q", quantity, p.Price, p.Name)
	}
	var rest int64
	restQty := 0
	for j, l := range c.lines {
		if j != i {
			rest += l.Total()
			restQty += l.Quantity
		}
	}
	if int64(quantity)*p.Price > MaxSubtotal-rest {
		return validationf("%q takes the cart subtotal past %d", p.Name, MaxSubtotal)
	}
	if quantity > math.MaxInt-restQty {
		return validationf("adding %q overflows the cart item count", p.Name)
	}
	return nil
}

func (c *Cart) indexOf(name string) int {
	for i, l := range c.lines {
		if l.Product.Name == name {
			return i
		}
	}
	return -1
}
