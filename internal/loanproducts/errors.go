package loanproducts

import (
	"errors"

	"github.com/odyssey-erp/lending-backoffice/internal/platform/httpx"
)

var (
	// ErrNotFound indicates an unknown loan product.
	ErrNotFound = errors.New("loanproducts: product not found")
	// ErrDuplicateCode indicates the product code is taken.
	ErrDuplicateCode = errors.New("loanproducts: code already in use")
)

// Classify maps product errors onto HTTP sentinel categories.
func Classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrDuplicateCode):
		return httpx.ErrConflict
	}
	return nil
}
