package shared

// Lending and platform permissions.
const (
	PermLoanProductsView = "lending.products.view"
	PermLoanProductsEdit = "lending.products.edit"

	PermJobsView = "jobs.view"
)

// CoreScopes lists permissions outside the finance module.
func CoreScopes() []string {
	return []string{
		PermLoanProductsView,
		PermLoanProductsEdit,
		PermJobsView,
	}
}
