package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	SeniorAge = 60
	maxAge    = 150
)

type CustomerKind string

const (
	KindRegular CustomerKind = "regular"
	KindPremium CustomerKind = "premium"
	KindVIP     CustomerKind = "vip"
)

type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

var (
	regularMemberRate = decimal.New(5, -2)
	vipRate           = decimal.New(25, -2)
	tierRates         = map[Tier]decimal.Decimal{
		TierBronze:   decimal.New(5, -2),
		TierSilver:   decimal.New(10, -2),
		TierGold:     decimal.New(15, -2),
		TierPlatinum: decimal.New(20, -2),
	}
)

// TierFor maps accumulated points to a membership tier.
func TierFor(points int64) Tier {
	switch {
	case points >= 10000:
		return TierPlatinum
	case points >= 5000:
		return TierGold
	case points >= 1000:
		return TierSilver
	default:
		return TierBronze
	}
}

// Customer is the closed set of shopper variants: *Regular, *Premium and *VIP.
type Customer interface {
	Name() string
	Age() int
	Kind() CustomerKind
	// Label is the human-readable customer type, e.g. "Premium Gold".
	Label() string
	// DiscountMultiplier is the member discount rate in [0,1]; zero means no member discount.
	DiscountMultiplier() decimal.Decimal

	customer()
}

// PointsHolder is implemented by customers that collect loyalty points.
type PointsHolder interface {
	Customer
	Points() int64
	Tier() Tier
	AddPoints(points int64)
}

type person struct {
	name string
	age  int
}

func newPerson(name string, age int) (person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return person{}, validationf("customer name must not be empty")
	}
	if age < 0 || age > maxAge {
		return person{}, validationf("customer age must be between 0 and %d, got %d", maxAge, age)
	}
	return person{name: cases.Title(language.English).String(name), age: age}, nil
}

func (p person) Name() string { return p.name }
func (p person) Age() int      { return p.age }
func (p person) customer()     {}

// IsSenior reports whether the customer qualifies for the senior discount.
func IsSenior(c Customer) bool {
	return c.Age() >= SeniorAge
}

type Regular struct {
	person
	member bool
}

func NewRegular(name string, age int, member bool) (*Regular, error) {
	p, err := newPerson(name, age)
	if err != nil {
		return nil, err
	}
	return &Regular{person: p, member: member}, nil
}

func (r *Regular) Kind() CustomerKind { return KindRegular }
func (r *Regular) IsMember() bool     { return r.member }

func (r *Regular) Label() string {
	if r.member {
		return "Member"
	}
	return "Regular"
}

func (r *Regular) DiscountMultiplier() decimal.Decimal {
	if !r.member {
		return decimal.Zero
	}
	return regularMemberRate
}

// UpgradeToMember reports whether the customer was not a member before.
func (r *Regular) UpgradeToMember() bool {
	if r.member {
		return false
	}
	r.member = true
	return true
}

type Premium struct {
	person
	points int64
}

func NewPremium(name string, age int, points int64) (*Premium, error) {
	p, err := newPerson(name, age)
	if err != nil {
		return nil, err
	}
	return &Premium{person: p, points: max(0, points)}, nil
}

func (p *Premium) Kind() CustomerKind { return KindPremium }
func (p *Premium) Points() int64      { return p.points }
func (p *Premium) Tier() Tier         { return TierFor(p.points) }
func (p *Premium) Label() string      { return "Premium " + string(p.Tier()) }

func (p *Premium) DiscountMultiplier() decimal.Decimal {
	return tierRates[p.Tier()]
}

// AddPoints ignores non-positive values.
func (p *Premium) AddPoints(points int64) {
	if points > 0 {
		p.points += points
	}
}

// VIP keeps the Premium points ledger but always gets the top rate, above Platinum.
type VIP struct {
	person
	points    int64
	assistant string
}

func NewVIP(name string, age int, points int64, assistant string) (*VIP, error) {
	p, err := newPerson(name, age)
	if err != nil {
		return nil, err
	}
	return &VIP{person: p, points: max(0, points), assistant: strings.TrimSpace(assistant)}, nil
}

func (v *VIP) Kind() CustomerKind                  { return KindVIP }
func (v *VIP) Label() string                       { return "VIP" }
func (v *VIP) Points() int64                       { return v.points }
func (v *VIP) Tier() Tier                          { return TierFor(v.points) }
func (v *VIP) PersonalAssistant() string           { return v.assistant }
func (v *VIP) DiscountMultiplier() decimal.Decimal { return vipRate }

func (v *VIP) AddPoints(points int64) {
	if points > 0 {
		v.points += points
	}
}

// Benefits lists the perks shown on VIP receipts.
func (v *VIP) Benefits() []string {
	return []string{"Free delivery", "Priority service", "Exclusive discounts", "Personal assistant"}
}
