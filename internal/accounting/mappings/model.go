package mappings

import "time"

// AccountMapping links an integration key to a ledger account.
type AccountMapping struct {
	Module    string    `json:"module"`
	Key       string    `json:"key"`
	AccountID int64     `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ModuleLoanProduct namespaces loan product GL accounts.
const ModuleLoanProduct = "LOAN_PRODUCT"
