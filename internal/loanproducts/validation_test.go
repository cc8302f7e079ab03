package loanproducts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func validProduct() LoanProduct {
	return LoanProduct{
		Code:         "AGRO-01",
		Name:         "Crédito Agrícola",
		CurrencyCode: "HNL",
		MinAmount:    dec("1000"),
		MaxAmount:    dec("50000"),
		MinTerm:      6,
		MaxTerm:      36,
		InterestRate: dec("18.5"),
		Fees: []Fee{{
			FeeTypeID:      ptr(int64(1)),
			ChargeBaseID:   ptr(int64(2)),
			ValueTypeID:    ptr(int64(1)),
			Value:          ptr(dec("150")),
			ChargeTimingID: ptr(int64(1)),
			IsActive:       ptr(true),
		}},
		IsActive: true,
	}
}

func TestValidateAmountBoundsInclusive(t *testing.T) {
	p := validProduct()
	p.MinAmount, p.MaxAmount = dec("1000"), dec("500")
	errs := Validate(&p)
	require.Contains(t, errs, "maxAmount")

	p.MaxAmount = dec("1000")
	require.Nil(t, Validate(&p))
}

func TestValidateTermBounds(t *testing.T) {
	p := validProduct()
	p.MinTerm, p.MaxTerm = 12, 6
	require.Contains(t, Validate(&p), "maxTerm")
}

func TestValidateCollateralRatioDependsOnFlag(t *testing.T) {
	p := validProduct()
	p.RequiresCollateral = false
	p.MinCollateralRatio = nil
	require.Nil(t, Validate(&p))

	p.RequiresCollateral = true
	require.Equal(t, "is required when requiresCollateral is set", Validate(&p)["minCollateralRatio"])

	p.MinCollateralRatio = ptr(dec("0"))
	require.Equal(t, "must be greater than 0", Validate(&p)["minCollateralRatio"])

	p.MinCollateralRatio = ptr(dec("0.5"))
	require.Nil(t, Validate(&p))
}

func TestValidateFeeRowsAreComplete(t *testing.T) {
	p := validProduct()
	p.Fees = append(p.Fees, Fee{FeeTypeID: ptr(int64(3)), Value: ptr(dec("-1"))})
	errs := Validate(&p)
	require.Equal(t, "must be greater than or equal to 0", errs["fees[1].value"])
	require.Equal(t, "is required", errs["fees[1].chargeBaseId"])
	require.Equal(t, "is required", errs["fees[1].isActive"])
	require.NotContains(t, errs, "fees[0].value")
}

func TestValidateCollateralRules(t *testing.T) {
	p := validProduct()
	p.CollateralRules = []CollateralRule{
		{CollateralTypeID: ptr(int64(1)), MinCoverageRatio: ptr(dec("0")), IsActive: ptr(true)},
		{CollateralTypeID: ptr(int64(2)), MinCoverageRatio: ptr(dec("1.2")), MaxItems: ptr(-1), IsActive: ptr(false)},
		{CollateralTypeID: ptr(int64(3)), MinCoverageRatio: ptr(dec("1.5")), IsActive: ptr(true)},
	}
	errs := Validate(&p)
	require.Equal(t, "must be greater than 0", errs["collateralRules[0].minCoverageRatio"])
	require.Contains(t, errs, "collateralRules[1].maxItems")
	require.Len(t, errs, 2)
}

func TestValidateCurrencyAllowList(t *testing.T) {
	p := validProduct()
	p.CurrencyCode = "USD"
	require.Equal(t, "must be one of HNL", Validate(&p)["currencyCode"])
}

func TestValidateInsurancesOptionalWhenFlagged(t *testing.T) {
	p := validProduct()
	p.HasInsurance = true
	require.Nil(t, Validate(&p))

	p.Insurances = []Insurance{{
		InsuranceTypeID:   ptr(int64(1)),
		CalculationBaseID: ptr(int64(1)),
		CoveragePeriodID:  ptr(int64(12)),
		Rate:              ptr(dec("0.35")),
		ChargeTimingID:    ptr(int64(1)),
		IsActive:          ptr(true),
	}}
	require.Nil(t, Validate(&p))
}

func TestNormalizeClearsInsurancesWithoutFlag(t *testing.T) {
	p := validProduct()
	p.Code = " agro-01 "
	p.CurrencyCode = "hnl"
	p.Insurances = []Insurance{{}}
	p.MinCollateralRatio = ptr(dec("0.5"))
	Normalize(&p)
	require.Equal(t, "AGRO-01", p.Code)
	require.Equal(t, "HNL", p.CurrencyCode)
	require.Nil(t, p.Insurances)
	require.Nil(t, p.MinCollateralRatio)
	require.Nil(t, Validate(&p))
}

func TestValidateUnknownGLRole(t *testing.T) {
	p := validProduct()
	p.GLAccounts = map[string]int64{GLPortfolio: 10, "misc": 11}
	errs := Validate(&p)
	require.Contains(t, errs, "glAccounts.misc")
	require.Len(t, errs, 1)
}
