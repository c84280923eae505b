package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRegular_Multiplier(t *testing.T) {
	member, err := NewRegular("budi", 30, true)
	require.NoError(t, err)
	assert.True(t, rate("0.05").Equal(member.DiscountMultiplier()))
	assert.Equal(t, "Budi", member.Name())
	assert.Equal(t, "Member", member.Label())

	walkIn, err := NewRegular("ani", 30, false)
	require.NoError(t, err)
	assert.True(t, walkIn.DiscountMultiplier().IsZero())
	assert.Equal(t, "Regular", walkIn.Label())

	assert.True(t, walkIn.UpgradeToMember())
	assert.False(t, walkIn.UpgradeToMember())
	assert.True(t, rate("0.05").Equal(walkIn.DiscountMultiplier()))
}

func TestPremium_Tiers(t *testing.T) {
	tests := []struct {
		points int64
		tier   Tier
		rate   string
	}{
		{0, TierBronze, "0.05"},
		{999, TierBronze, "0.05"},
		{1000, TierSilver, "0.10"},
		{5000, TierGold, "0.15"},
		{10000, TierPlatinum, "0.20"},
	}
	for _, tt := range tests {
		p, err := NewPremium("sari", 40, tt.points)
		require.NoError(t, err)
		assert.Equal(t, tt.tier, p.Tier(), "points %d", tt.points)
		assert.True(t, rate(tt.rate).Equal(p.DiscountMultiplier()), "points %d", tt.points)
	}
}

func TestPremium_AddPointsPromotes(t *testing.T) {
	p, err := NewPremium("sari", 40, 900)
	require.NoError(t, err)
	p.AddPoints(-50)
	assert.Equal(t, int64(900), p.Points())

	p.AddPoints(150)
	assert.Equal(t, TierSilver, p.Tier())
	assert.Equal(t, "Premium Silver", p.Label())
}

func TestPremium_NegativePointsClamped(t *testing.T) {
	p, err := NewPremium("sari", 40, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Points())
}

func TestVIP_FixedRateAboveEveryTier(t *testing.T) {
	v, err := NewVIP("dewi", 50, 20000, " Rina ")
	require.NoError(t, err)
	assert.True(t, rate("0.25").Equal(v.DiscountMultiplier()))
	assert.Equal(t, TierPlatinum, v.Tier())
	assert.Equal(t, "Rina", v.PersonalAssistant())
	assert.Equal(t, "VIP", v.Label())

	for _, tr := range tierRates {
		assert.True(t, v.DiscountMultiplier().GreaterThan(tr))
	}
}

func TestCustomer_Validation(t *testing.T) {
	_, err := NewRegular("", 30, false)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = NewPremium("x", -1, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = NewVIP("x", 151, 0, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIsSenior(t *testing.T) {
	young, _ := NewVIP("a", 59, 0, "")
	old, _ := NewRegular("b", 60, false)
	assert.False(t, IsSenior(young))
	assert.True(t, IsSenior(old))
}
