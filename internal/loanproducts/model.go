package loanproducts

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanProduct is a configurable credit product.
type LoanProduct struct {
	ID                 int64            `json:"id"`
	Code               string           `json:"code" validate:"required,max=20"`
	Name               string           `json:"name" validate:"required,max=120"`
	CurrencyCode       string           `json:"currencyCode" validate:"required,len=3"`
	MinAmount          decimal.Decimal  `json:"minAmount" validate:"gt=0"`
	MaxAmount          decimal.Decimal  `json:"maxAmount" validate:"gt=0"`
	MinTerm            int              `json:"minTerm" validate:"gte=1"`
	MaxTerm            int              `json:"maxTerm" validate:"gte=1"`
	InterestRate       decimal.Decimal  `json:"interestRate" validate:"gte=0"`
	RequiresCollateral bool             `json:"requiresCollateral"`
	MinCollateralRatio *decimal.Decimal `json:"minCollateralRatio"`
	HasInsurance       bool             `json:"hasInsurance"`
	Fees               []Fee            `json:"fees" validate:"dive"`
	Insurances         []Insurance      `json:"insurances" validate:"dive"`
	CollateralRules    []CollateralRule `json:"collateralRules" validate:"dive"`
	GLAccounts         map[string]int64 `json:"glAccounts,omitempty"`
	IsActive           bool             `json:"isActive"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// Fee is a charge applied to loans of the product. Every field is mandatory
// once the row exists.
type Fee struct {
	FeeTypeID      *int64           `json:"feeTypeId" validate:"required"`
	ChargeBaseID   *int64           `json:"chargeBaseId" validate:"required"`
	ValueTypeID    *int64           `json:"valueTypeId" validate:"required"`
	Value          *decimal.Decimal `json:"value" validate:"required,gte=0"`
	ChargeTimingID *int64           `json:"chargeTimingId" validate:"required"`
	IsActive       *bool            `json:"isActive" validate:"required"`
}

// Insurance is a policy bundled with the product.
type Insurance struct {
	InsuranceTypeID   *int64           `json:"insuranceTypeId" validate:"required"`
	CalculationBaseID *int64           `json:"calculationBaseId" validate:"required"`
	CoveragePeriodID  *int64           `json:"coveragePeriodId" validate:"required"`
	Rate              *decimal.Decimal `json:"rate" validate:"required,gte=0"`
	ChargeTimingID    *int64           `json:"chargeTimingId" validate:"required"`
	IsActive          *bool            `json:"isActive" validate:"required"`
}

// CollateralRule constrains the guarantees accepted for the product.
type CollateralRule struct {
	CollateralTypeID *int64           `json:"collateralTypeId" validate:"required"`
	MinCoverageRatio *decimal.Decimal `json:"minCoverageRatio" validate:"required,gt=0"`
	MaxItems         *int             `json:"maxItems" validate:"omitempty,gte=0"`
	IsActive         *bool            `json:"isActive" validate:"required"`
}

// GL account roles a product can map.
const (
	GLPortfolio        = "portfolio"
	GLInterestIncome   = "interest_income"
	GLFeeIncome        = "fee_income"
	GLInsurancePayable = "insurance_payable"
)

// GLRoles lists the accepted glAccounts keys.
var GLRoles = []string{GLPortfolio, GLInterestIncome, GLFeeIncome, GLInsurancePayable}

// ListFilter narrows product listings.
type ListFilter struct {
	Page     int
	PageSize int
	Search   string
	Active   *bool
}
