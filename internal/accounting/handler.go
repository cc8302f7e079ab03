package accounting

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/lending-backoffice/internal/accounting/accounts"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/costcenters"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/journals"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/ledger"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/mappings"
	"github.com/odyssey-erp/lending-backoffice/internal/accounting/periods"
	"github.com/odyssey-erp/lending-backoffice/internal/platform/cache"
	"github.com/odyssey-erp/lending-backoffice/internal/rbac"
	internalShared "github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// LedgerCacheNamespace prefixes every cached ledger projection.
const LedgerCacheNamespace = "ledger"

// Dependencies groups what the accounting module needs from the runtime.
type Dependencies struct {
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	RBAC        rbac.Middleware
	CacheTTL    time.Duration
	CompanyName string
}

// Module bundles the accounting services and mounts their handlers.
type Module struct {
	Accounts    *accounts.Service
	CostCenters *costcenters.Service
	Periods     *periods.Service
	Journals    *journals.Service
	Ledger      *ledger.Service
	Mappings    mappings.Repository
	LedgerCache *cache.Versioned

	logger      *slog.Logger
	rbac        rbac.Middleware
	idempotency journals.IdempotencyPort
}

// NewModule wires repositories, services and the ledger cache.
func NewModule(deps Dependencies) *Module {
	audit := internalShared.NewAuditLogger(deps.Pool)
	ledgerCache := cache.NewVersioned(deps.Redis, LedgerCacheNamespace, deps.CacheTTL)

	accountSvc := accounts.NewService(accounts.NewRepository(deps.Pool), audit)
	accountSvc.WithLogger(deps.Logger)
	accountSvc.WithLedgerInvalidator(ledgerCache)
	costCenterSvc := costcenters.NewService(costcenters.NewRepository(deps.Pool), audit)
	periodSvc := periods.NewService(periods.NewRepository(deps.Pool), audit)
	journalSvc := journals.NewService(journals.NewRepository(deps.Pool), accountSvc, costCenterSvc, audit)
	journalSvc.WithLedgerInvalidator(ledgerCache)
	journalSvc.WithLogger(deps.Logger)
	ledgerSvc := ledger.NewService(ledger.NewRepository(deps.Pool), accountSvc, ledgerCache)
	if deps.CompanyName != "" {
		ledgerSvc.WithCompanyName(deps.CompanyName)
	}

	return &Module{
		Accounts:    accountSvc,
		CostCenters: costCenterSvc,
		Periods:     periodSvc,
		Journals:    journalSvc,
		Ledger:      ledgerSvc,
		Mappings:    mappings.NewRepository(deps.Pool),
		LedgerCache: ledgerCache,
		logger:      deps.Logger,
		rbac:        deps.RBAC,
		idempotency: internalShared.NewIdempotencyStore(deps.Pool),
	}
}

// MountRoutes registers /chart, /cost_centers, /periods, /journal and /ledger.
func (m *Module) MountRoutes(r chi.Router) {
	r.Route("/chart", accounts.NewHandler(m.logger, m.Accounts, m.rbac).MountRoutes)
	r.Route("/cost_centers", costcenters.NewHandler(m.logger, m.CostCenters, m.rbac).MountRoutes)
	r.Route("/periods", periods.NewHandler(m.logger, m.Periods, m.rbac).MountRoutes)
	r.Route("/journal", journals.NewHandler(m.logger, m.Journals, m.rbac).WithIdempotency(m.idempotency).MountRoutes)
	r.Route("/ledger", ledger.NewHandler(m.logger, m.Ledger, m.rbac).MountRoutes)
}
