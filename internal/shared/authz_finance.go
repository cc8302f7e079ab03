package shared

// Finance permissions declared for RBAC.
const (
	PermFinanceGLView      = "finance.gl.view"
	PermFinanceGLEdit      = "finance.gl.edit"
	PermFinanceGLPost      = "finance.gl.post"
	PermFinancePeriodClose = "finance.period.close"
	PermFinanceOverride    = "finance.override.lock"
	PermFinanceChartEdit   = "finance.chart.edit"
	PermFinanceAuditView   = "finance.audit.view"
)

// FinanceScopes lists all permissions related to the finance module.
func FinanceScopes() []string {
	return []string{
		PermFinanceGLView,
		PermFinanceGLEdit,
		PermFinanceGLPost,
		PermFinancePeriodClose,
		PermFinanceOverride,
		PermFinanceChartEdit,
		PermFinanceAuditView,
	}
}
