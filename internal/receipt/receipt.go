// Package receipt renders transactions, carts and sales reports as fixed-width text.
package receipt

import (
	"fmt"
	"strings"

	"github.com/fjod/go_cart/pos-service/internal/cart"
	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/money"
	"github.com/fjod/go_cart/pos-service/internal/transaction"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const width = 48

type Renderer struct {
	p        *message.Printer
	store    string
	currency string
}

func NewRenderer(store, currency string) *Renderer {
	if currency == "" {
		currency = "Rp"
	}
	return &Renderer{p: message.NewPrinter(language.English), store: store, currency: currency}
}

// Money formats minor units with thousands separators, e.g. "Rp176,000".
func (r *Renderer) Money(amount int64) string {
	if amount < 0 {
		return "-" + r.currency + r.p.Sprintf("%d", -amount)
	}
	return r.currency + r.p.Sprintf("%d", amount)
}

func (r *Renderer) Receipt(tx domain.Transaction) string {
	var b strings.Builder
	rule(&b, '=')
	center(&b, r.store)
	center(&b, "RECEIPT")
	rule(&b, '=')
	fmt.Fprintf(&b, "Transaction: %s\n", tx.ID)
	fmt.Fprintf(&b, "Date:        %s\n", tx.CreatedAt.Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "Customer:    %s (%s)\n", tx.Customer.Name, tx.Customer.Label)
	rule(&b, '-')

	r.lines(&b, tx.Lines)
	rule(&b, '-')

	r.amountRow(&b, "Subtotal", tx.Subtotal)
	for _, d := range tx.Discounts {
		r.amountRow(&b, d.Name, -d.Amount)
	}
	if tx.TotalDiscount > 0 {
		r.amountRow(&b, "After discount", tx.Subtotal-tx.TotalDiscount)
	}
	for _, t := range tx.Taxes {
		r.amountRow(&b, fmt.Sprintf("%s (%s)", t.Name, money.FormatRate(t.Rate)), t.Amount)
	}
	rule(&b, '=')
	r.amountRow(&b, "TOTAL", tx.GrandTotal)
	r.amountRow(&b, "Paid ("+string(tx.Payment.Method)+")", tx.Payment.Amount)
	for i, amt := range tx.Payment.Installments {
		r.amountRow(&b, fmt.Sprintf("  Installment %d", i+1), amt)
	}
	r.amountRow(&b, "Change", tx.Payment.Change)
	rule(&b, '=')
	center(&b, "Thank you for shopping!")
	center(&b, "Status: "+tx.Status.String())
	rule(&b, '=')
	return b.String()
}

// CartSummary shows a cart's lines and the quote it would check out at.
func (r *Renderer) CartSummary(v cart.View, totals transaction.Totals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cart %s for %s (%s)\n", v.ID, v.Customer.Name, v.Customer.Label)
	rule(&b, '-')
	if len(v.Lines) == 0 {
		b.WriteString("Cart is empty\n")
		return b.String()
	}
	r.lines(&b, v.Lines)
	rule(&b, '-')
	fmt.Fprintf(&b, "Items: %d lines, %d units\n", len(v.Lines), v.TotalQuantity)
	r.amountRow(&b, "Subtotal", totals.Subtotal)
	r.amountRow(&b, "Discounts", -totals.TotalDiscount)
	r.amountRow(&b, "Taxes", totals.TotalTax)
	r.amountRow(&b, "Total", totals.GrandTotal)
	return b.String()
}

func (r *Renderer) SalesReport(rep transaction.SalesReport) string {
	var b strings.Builder
	rule(&b, '=')
	center(&b, "SALES REPORT")
	rule(&b, '=')
	r.amountRow(&b, "Revenue", rep.Revenue)
	fmt.Fprintf(&b, "%-30s%18d\n", "Completed transactions", rep.Transactions)
	fmt.Fprintf(&b, "%-30s%18d\n", "Items sold", rep.ItemsSold)
	r.amountRow(&b, "Average transaction", rep.AverageTransaction)
	r.amountRow(&b, "Discounts given", rep.TotalDiscount)
	r.amountRow(&b, "Taxes collected", rep.TotalTax)

	if len(rep.TopCustomers) > 0 {
		b.WriteString("\nTop customers\n")
		rule(&b, '-')
		for i, c := range rep.TopCustomers {
			fmt.Fprintf(&b, "%d. %-20s%14s (%d)\n", i+1, c.Name, r.Money(c.Spent), c.Transactions)
		}
	}
	if len(rep.Categories) > 0 {
		b.WriteString("\nCategories\n")
		rule(&b, '-')
		for _, c := range rep.Categories {
			fmt.Fprintf(&b, "%-12s%6d units %20s\n", c.Category, c.Quantity, r.Money(c.Revenue))
		}
	}
	b.WriteString("\nStatus\n")
	rule(&b, '-')
	for _, s := range []domain.TransactionStatus{domain.StatusPending, domain.StatusCompleted, domain.StatusCancelled} {
		fmt.Fprintf(&b, "%-30s%18d\n", s, rep.StatusBreakdown[s])
	}
	return b.String()
}

// lines groups line items by category in display order.
func (r *Renderer) lines(b *strings.Builder, items []domain.LineItem) {
	for _, cat := range domain.Categories() {
		header := false
		for _, l := range items {
			if l.Category != cat {
				continue
			}
			if !header {
				fmt.Fprintf(b, "%s\n", strings.ToUpper(cat.String()))
				header = true
			}
			name := domain.Product{Name: l.Name}.DisplayName()
			fmt.Fprintf(b, "  %s: %d %s x %s = %s\n", name, l.Quantity, l.Unit, r.Money(l.UnitPrice), r.Money(l.Total))
		}
	}
}

func (r *Renderer) amountRow(b *strings.Builder, label string, amount int64) {
	fmt.Fprintf(b, "%-30s%18s\n", label, r.Money(amount))
}

func rule(b *strings.Builder, c byte) {
	b.WriteString(strings.Repeat(string(c), width))
	b.WriteByte('\n')
}

func center(b *strings.Builder, s string) {
	pad := max(0, (width-len(s))/2)
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(s)
	b.WriteByte('\n')
}
