package client

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/odyssey-erp/lending-backoffice/internal/loanproducts"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// ValidateLoanProduct applies the product rules before submission. It
// normalizes p in place; field errors are keyed by JSON path.
func ValidateLoanProduct(p *loanproducts.LoanProduct, action Action) error {
	loanproducts.Normalize(p)
	if errs := loanproducts.Validate(p); len(errs) > 0 {
		return &APIError{
			Action:  action,
			Message: "please correct the highlighted fields",
			Fields:  map[string]string(errs),
		}
	}
	return nil
}

// LoanProductFilter narrows ListLoanProducts.
type LoanProductFilter struct {
	Page     int
	PageSize int
	Search   string
	Active   *bool
}

func (c *Client) ListLoanProducts(ctx context.Context, f LoanProductFilter) (shared.PagedResult[loanproducts.LoanProduct], error) {
	q := pageQuery(f.Page, f.PageSize)
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	if f.Active != nil {
		q.Set("isActive", strconv.FormatBool(*f.Active))
	}
	var out shared.PagedResult[loanproducts.LoanProduct]
	err := c.do(ctx, request{method: http.MethodGet, path: "/loan_products", action: ActionListLoanProducts, query: q}, &out)
	return out, err
}

func (c *Client) GetLoanProduct(ctx context.Context, id int64) (loanproducts.LoanProduct, error) {
	var out loanproducts.LoanProduct
	err := c.do(ctx, request{method: http.MethodGet, path: loanProductPath(id), action: ActionGetLoanProduct}, &out)
	return out, err
}

func (c *Client) CreateLoanProduct(ctx context.Context, p loanproducts.LoanProduct) (loanproducts.LoanProduct, error) {
	if err := ValidateLoanProduct(&p, ActionCreateLoanProduct); err != nil {
		return loanproducts.LoanProduct{}, err
	}
	var out loanproducts.LoanProduct
	err := c.do(ctx, request{method: http.MethodPost, path: "/loan_products", action: ActionCreateLoanProduct, body: p}, &out)
	return out, err
}

func (c *Client) UpdateLoanProduct(ctx context.Context, id int64, p loanproducts.LoanProduct) (loanproducts.LoanProduct, error) {
	if err := ValidateLoanProduct(&p, ActionUpdateLoanProduct); err != nil {
		return loanproducts.LoanProduct{}, err
	}
	var out loanproducts.LoanProduct
	err := c.do(ctx, request{method: http.MethodPut, path: loanProductPath(id), action: ActionUpdateLoanProduct, body: p}, &out)
	return out, err
}

func loanProductPath(id int64) string {
	return "/loan_products/" + strconv.FormatInt(id, 10)
}
