package transaction

import (
	"context"
	"sort"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
)

type CustomerSpend struct {
	Name         string `json:"name"`
	Transactions int    `json:"transactions"`
	Spent        int64  `json:"spent"`
}

type CategoryPerformance struct {
	Category domain.Category `json:"category"`
	Quantity int             `json:"quantity"`
	Revenue  int64           `json:"revenue"`
}

// SalesReport summarizes a period. Money figures count completed transactions only; the status
// breakdown counts every transaction created in the period.
type SalesReport struct {
	From               time.Time                        `json:"from"`
	To                 time.Time                        `json:"to"`
	Transactions       int                              `json:"transactions"`
	Revenue            int64                            `json:"revenue"`
	ItemsSold          int                              `json:"items_sold"`
	AverageTransaction int64                            `json:"average_transaction"`
	TotalDiscount      int64                            `json:"total_discount"`
	TotalTax           int64                            `json:"total_tax"`
	StatusBreakdown    map[domain.TransactionStatus]int `json:"status_breakdown"`
	TopCustomers       []CustomerSpend                  `json:"top_customers"`
	Categories         []CategoryPerformance            `json:"categories"`
}

// SalesReport builds the report for [from, to); zero bounds are open.
func (s *Service) SalesReport(ctx context.Context, from, to time.Time, topN int) (SalesReport, error) {
	txs, err := s.store.List(ctx, Filter{From: from, To: to})
	if err != nil {
		return SalesReport{}, err
	}
	r := BuildSalesReport(txs, topN)
	r.From, r.To = from, to
	return r, nil
}

func BuildSalesReport(txs []domain.Transaction, topN int) SalesReport {
	r := SalesReport{StatusBreakdown: make(map[domain.TransactionStatus]int)}
	spend := make(map[string]*CustomerSpend)
	cats := make(map[domain.Category]*CategoryPerformance)

	for _, tx := range txs {
		r.StatusBreakdown[tx.Status]++
		if tx.Status != domain.StatusCompleted {
			continue
		}
		r.Transactions++
		r.Revenue += tx.GrandTotal
		r.ItemsSold += tx.TotalQuantity()
		r.TotalDiscount += tx.TotalDiscount
		r.TotalTax += tx.TotalTax

		cs, ok := spend[tx.Customer.Name]
		if !ok {
			cs = &CustomerSpend{Name: tx.Customer.Name}
			spend[tx.Customer.Name] = cs
		}
		cs.Transactions++
		cs.Spent += tx.GrandTotal

		for _, l := range tx.Lines {
			cp, ok := cats[l.Category]
			if !ok {
				cp = &CategoryPerformance{Category: l.Category}
				cats[l.Category] = cp
			}
			cp.Quantity += l.Quantity
			cp.Revenue += l.Total
		}
	}

	if r.Transactions > 0 {
		r.AverageTransaction = r.Revenue / int64(r.Transactions)
	}

	r.TopCustomers = make([]CustomerSpend, 0, len(spend))
	for _, cs := range spend {
		r.TopCustomers = append(r.TopCustomers, *cs)
	}
	sort.Slice(r.TopCustomers, func(i, j int) bool {
		if r.TopCustomers[i].Spent == r.TopCustomers[j].Spent {
			return r.TopCustomers[i].Name < r.TopCustomers[j].Name
		}
		return r.TopCustomers[i].Spent > r.TopCustomers[j].Spent
	})
	if topN > 0 && len(r.TopCustomers) > topN {
		r.TopCustomers = r.TopCustomers[:topN]
	}

	r.Categories = make([]CategoryPerformance, 0, len(cats))
	for _, c := range domain.Categories() {
		if cp, ok := cats[c]; ok {
			r.Categories = append(r.Categories, *cp)
		}
	}
	return r
}
