package discount

import (
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/pos-service/internal/domain"
	"github.com/fjod/go_cart/pos-service/internal/money"
	"github.com/shopspring/decimal"
)

const (
	SeniorName    = "senior"
	MemberName    = "member"
	CategoryName  = "category"
	DayOfWeekName = "day_of_week"
)

type Senior struct {
	MinAge int
	Rate   decimal.Decimal
}

func (s Senior) Name() string { return SeniorName }

func (s Senior) IsApplicable(_ *domain.Cart, c domain.Customer) bool {
	return c != nil && c.Age() >= s.MinAge
}

func (s Senior) Compute(cart *domain.Cart, c domain.Customer) domain.DiscountResult {
	if !s.IsApplicable(cart, c) {
		return domain.DiscountResult{Name: "Senior Discount"}
	}
	return domain.DiscountResult{
		Name:        "Senior Discount",
		Amount:      money.Apply(cart.Subtotal(), s.Rate),
		Rate:        s.Rate,
		Description: fmt.Sprintf("%s off for customers aged %d+", money.FormatRate(s.Rate), s.MinAge),
	}
}

// Member applies the customer's own multiplier, so the rate follows the customer variant.
type Member struct{}

func (Member) Name() string { return MemberName }

func (Member) IsApplicable(_ *domain.Cart, c domain.Customer) bool {
	return c != nil && c.DiscountMultiplier().IsPositive()
}

func (m Member) Compute(cart *domain.Cart, c domain.Customer) domain.DiscountResult {
	if !m.IsApplicable(cart, c) {
		return domain.DiscountResult{Name: "Member Discount"}
	}
	rate := c.DiscountMultiplier()
	return domain.DiscountResult{
		Name:        "Member Discount",
		Amount:      money.Apply(cart.Subtotal(), rate),
		Rate:        rate,
		Description: fmt.Sprintf("%s off for %s customers", money.FormatRate(rate), c.Label()),
	}
}

// Category discounts the amount of every category bought in bulk. All qualifying categories are
// reported as one result.
type Category struct {
	Rate       decimal.Decimal
	MinItems   int
	ByCategory map[domain.Category]int
}

func (s Category) Name() string { return CategoryName }

func (s Category) minItems(cat domain.Category) int {
	if n, ok := s.ByCategory[cat]; ok {
		return n
	}
	return s.MinItems
}

func (s Category) qualifying(cart *domain.Cart) []domain.CategoryTotal {
	var out []domain.CategoryTotal
	for _, ct := range cart.CategoryTotals() {
		if ct.Quantity >= s.minItems(ct.Category) {
			out = append(out, ct)
		}
	}
	return out
}

func (s Category) IsApplicable(cart *domain.Cart, _ domain.Customer) bool {
	return len(s.qualifying(cart)) > 0
}

func (s Category) Compute(cart *domain.Cart, _ domain.Customer) domain.DiscountResult {
	res := domain.DiscountResult{Name: "Category Discount", Rate: s.Rate}
	var names []string
	for _, ct := range s.qualifying(cart) {
		res.Amount += money.Apply(ct.Amount, s.Rate)
		names = append(names, fmt.Sprintf("%s (%d items)", ct.Category, ct.Quantity))
	}
	if len(names) == 0 {
		res.Rate = decimal.Zero
		return res
	}
	res.Description = fmt.Sprintf("%s off bulk purchase of %s", money.FormatRate(s.Rate), strings.Join(names, ", "))
	return res
}

// DayOfWeek discounts the whole subtotal on configured weekdays, read from the injected clock.
type DayOfWeek struct {
	Rates map[time.Weekday]decimal.Decimal
	Now   func() time.Time
}

func (s DayOfWeek) Name() string { return DayOfWeekName }

func (s DayOfWeek) today() time.Weekday {
	if s.Now == nil {
		return time.Now().Weekday()
	}
	return s.Now().Weekday()
}

func (s DayOfWeek) IsApplicable(_ *domain.Cart, _ domain.Customer) bool {
	r, ok := s.Rates[s.today()]
	return ok && r.IsPositive()
}

func (s DayOfWeek) Compute(cart *domain.Cart, c domain.Customer) domain.DiscountResult {
	day := s.today()
	res := domain.DiscountResult{Name: day.String() + " Discount"}
	if !s.IsApplicable(cart, c) {
		return res
	}
	rate := s.Rates[day]
	res.Amount = money.Apply(cart.Subtotal(), rate)
	res.Rate = rate
	res.Description = fmt.Sprintf("%s special %s", day, money.FormatRate(rate))
	return res
}
