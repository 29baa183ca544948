package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/backoffice/internal/shared"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func amt(v int64) *int64 { return &v }

func percentageType(rate string) CommissionType {
	return CommissionType{ID: 1, Name: "Sales", Mode: ModePercentage, Rate: dec(rate), IsActive: true}
}

func TestComputePercentageBase(t *testing.T) {
	c, err := Compute(percentageType("0.10"), nil, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(100_000), c.BaseAmount)
	require.Equal(t, int64(0), c.AdjustmentAmount)
	require.Equal(t, int64(100_000), c.Amount)
	require.True(t, c.Rate.Equal(decimal.RequireFromString("0.10")))
}

func TestComputeClampsToMax(t *testing.T) {
	ct := percentageType("0.05")
	ct.MinAmount = amt(50_000)
	ct.MaxAmount = amt(500_000)

	c, err := Compute(ct, nil, 20_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), c.BaseAmount)
	require.Equal(t, int64(500_000), c.Amount)
}

func TestComputeClampsToMin(t *testing.T) {
	ct := percentageType("0.05")
	ct.MinAmount = amt(50_000)
	ct.MaxAmount = amt(500_000)

	c, err := Compute(ct, nil, 100_000)
	require.NoError(t, err)
	require.Equal(t, int64(5_000), c.BaseAmount)
	require.Equal(t, int64(50_000), c.Amount)
}

func TestComputeResultAlwaysWithinBounds(t *testing.T) {
	ct := percentageType("0.07")
	ct.MinAmount = amt(10_000)
	ct.MaxAmount = amt(90_000)
	a := &Assignment{CommissionTypeID: 1, IsActive: true, AdditionalRate: decimal.RequireFromString("0.015")}
	for _, invoiceAmount := range []int64{1, 999, 150_000, 1_234_567, 50_000_000, 1 << 40} {
		c, err := Compute(ct, a, invoiceAmount)
		require.NoError(t, err)
		require.GreaterOrEqual(t, c.Amount, int64(10_000))
		require.LessOrEqual(t, c.Amount, int64(90_000))
	}
}

func TestComputeAssignmentOverrides(t *testing.T) {
	a := &Assignment{
		CommissionTypeID: 1,
		IsActive:         true,
		FactorValue:      dec("0.08"),
		AdditionalRate:   decimal.RequireFromString("0.02"),
	}
	c, err := Compute(percentageType("0.05"), a, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(80_000), c.BaseAmount)
	require.Equal(t, int64(20_000), c.AdjustmentAmount)
	require.Equal(t, int64(100_000), c.Amount)
	require.True(t, c.Rate.Equal(decimal.RequireFromString("0.10")))
}

func TestComputeIgnoresInactiveAssignment(t *testing.T) {
	a := &Assignment{CommissionTypeID: 1, FactorValue: dec("0.5"), AdditionalRate: decimal.RequireFromString("0.1")}
	c, err := Compute(percentageType("0.05"), a, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(50_000), c.Amount)
}

func TestComputeFixedMode(t *testing.T) {
	ct := CommissionType{ID: 2, Name: "Referral", Mode: ModeFixed, FixedAmount: amt(250_000), IsActive: true}

	c, err := Compute(ct, nil, 3_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(250_000), c.Amount)
	require.True(t, c.Rate.IsZero())

	a := &Assignment{CommissionTypeID: 2, IsActive: true, FactorValue: dec("300000"), AdditionalRate: decimal.RequireFromString("0.01")}
	c, err = Compute(ct, a, 3_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(300_000), c.BaseAmount)
	require.Equal(t, int64(30_000), c.AdjustmentAmount)
	require.Equal(t, int64(330_000), c.Amount)
	require.True(t, c.Rate.Equal(decimal.RequireFromString("0.01")))
}

func TestComputeRoundsHalfUp(t *testing.T) {
	c, err := Compute(percentageType("0.015"), nil, 333)
	require.NoError(t, err)
	require.Equal(t, int64(5), c.Amount)

	c, err = Compute(percentageType("0.5"), nil, 5)
	require.NoError(t, err)
	require.Equal(t, int64(3), c.Amount)
}

func TestComputeRejects(t *testing.T) {
	_, err := Compute(percentageType("0.1"), nil, 0)
	require.ErrorIs(t, err, shared.ErrValidation)

	inactive := percentageType("0.1")
	inactive.IsActive = false
	_, err = Compute(inactive, nil, 1_000)
	require.ErrorIs(t, err, shared.ErrNotFound)

	noRate := percentageType("0.1")
	noRate.Rate = nil
	_, err = Compute(noRate, nil, 1_000)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestComputeRejectsAdjustmentOverflow(t *testing.T) {
	a := &Assignment{CommissionTypeID: 1, IsActive: true, AdditionalRate: decimal.NewFromInt(10)}
	_, err := Compute(percentageType("1"), a, 1_000_000_000_000_000_000)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = Compute(percentageType("1"), &Assignment{IsActive: true, FactorValue: dec("10")}, 1_000_000_000_000_000_000)
	require.ErrorIs(t, err, shared.ErrValidation)
}
