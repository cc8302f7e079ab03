package loanproducts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
)

// AllowedCurrencies is the currency allow-list for products.
var AllowedCurrencies = []string{"HNL"}

// conditionalRule ties the required-ness and constraint of Target to a
// predicate over Sibling.
type conditionalRule struct {
	Sibling  string
	When     func(p *LoanProduct) bool
	Target   string
	Required bool
	Present  func(p *LoanProduct) bool
	Check    func(p *LoanProduct) string
}

func always(*LoanProduct) bool { return true }

var conditionalRules = []conditionalRule{
	{
		Sibling: "minAmount",
		When:    always,
		Target:  "maxAmount",
		Check: func(p *LoanProduct) string {
			if p.MaxAmount.LessThan(p.MinAmount) {
				return "must be greater than or equal to minAmount"
			}
			return ""
		},
	},
	{
		Sibling: "minTerm",
		When:    always,
		Target:  "maxTerm",
		Check: func(p *LoanProduct) string {
			if p.MaxTerm < p.MinTerm {
				return "must be greater than or equal to minTerm"
			}
			return ""
		},
	},
	{
		Sibling:  "requiresCollateral",
		When:     func(p *LoanProduct) bool { return p.RequiresCollateral },
		Target:   "minCollateralRatio",
		Required: true,
		Present:  func(p *LoanProduct) bool { return p.MinCollateralRatio != nil },
		Check: func(p *LoanProduct) string {
			if !p.MinCollateralRatio.GreaterThan(decimal.Zero) {
				return "must be greater than 0"
			}
			return ""
		},
	},
	{
		Sibling: "currencyCode",
		When:    func(p *LoanProduct) bool { return p.CurrencyCode != "" },
		Target:  "currencyCode",
		Check: func(p *LoanProduct) string {
			if !slices.Contains(AllowedCurrencies, p.CurrencyCode) {
				return "must be one of " + strings.Join(AllowedCurrencies, " ")
			}
			return ""
		},
	},
}

// Normalize trims text fields and drops sub-records the flags make meaningless.
func Normalize(p *LoanProduct) {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.Name = strings.TrimSpace(p.Name)
	p.CurrencyCode = strings.ToUpper(strings.TrimSpace(p.CurrencyCode))
	if !p.HasInsurance {
		p.Insurances = nil
	}
	if !p.RequiresCollateral {
		p.MinCollateralRatio = nil
	}
}

// Validate applies struct tags then the conditional rule table. Errors are
// keyed by JSON path, for example fees[0].value.
func Validate(p *LoanProduct) httpx.FieldErrors {
	errs := httpx.FieldErrors{}
	if err := httpx.ValidateStruct(p); err != nil {
		fe, ok := err.(httpx.FieldErrors)
		if !ok {
			errs["_"] = err.Error()
			return errs
		}
		errs = fe
	}
	for _, rule := range conditionalRules {
		if _, taken := errs[rule.Target]; taken {
			continue
		}
		if !rule.When(p) {
			continue
		}
		if rule.Present != nil && !rule.Present(p) {
			if rule.Required {
				errs[rule.Target] = fmt.Sprintf("is required when %s is set", rule.Sibling)
			}
			continue
		}
		if rule.Check == nil {
			continue
		}
		if msg := rule.Check(p); msg != "" {
			errs[rule.Target] = msg
		}
	}
	for role := range p.GLAccounts {
		if !slices.Contains(GLRoles, role) {
			errs["glAccounts."+role] = "is not a known account role"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
