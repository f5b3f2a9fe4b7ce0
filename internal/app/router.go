package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mitracetak/mitra-erp/internal/carts"
	"github.com/mitracetak/mitra-erp/internal/catalog"
	"github.com/mitracetak/mitra-erp/internal/customers"
	"github.com/mitracetak/mitra-erp/internal/ledger"
	"github.com/mitracetak/mitra-erp/internal/orders"
	"github.com/mitracetak/mitra-erp/internal/platform/httpx"
	"github.com/mitracetak/mitra-erp/internal/pricing"
	"github.com/mitracetak/mitra-erp/internal/purchasing"
	"github.com/mitracetak/mitra-erp/internal/salespoints"
	"github.com/mitracetak/mitra-erp/internal/shared"
)

// NewRouter wires every module behind the shared middleware stack.
func NewRouter(cfg *Config, logger *slog.Logger, pool *pgxpool.Pool, cache *redis.Client) http.Handler {
	pricingCfg := pricing.Config{
		TaxPercent:             cfg.TaxPercent,
		DefaultDiscountPercent: cfg.DefaultDiscountPercent,
	}

	audit := shared.NewActivityLogger(pool)

	customerSvc := customers.NewService(logger, customers.NewRepository(pool))
	pointsSvc := salespoints.NewService(logger, salespoints.NewRepository(pool), customerSvc, cache)

	catalogSvc := catalog.NewService(catalog.NewRepository(pool))
	ledgerSvc := ledger.NewService(logger, ledger.NewRepository(pool))
	orderSvc := orders.NewService(logger, orders.NewRepository(pool), pricingCfg, customerSvc, pointsSvc, audit)
	purchaseSvc := purchasing.NewService(logger, purchasing.NewRepository(pool))

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: logger, Config: cfg}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(api chi.Router) {
		catalog.NewHandler(logger, catalogSvc).MountRoutes(api)
		ledger.NewHandler(logger, ledgerSvc).MountRoutes(api)
		orders.NewHandler(logger, orderSvc).MountRoutes(api)
		carts.NewHandler(logger, carts.NewRepository(pool)).MountRoutes(api)
		purchasing.NewHandler(logger, purchaseSvc).MountRoutes(api)
		salespoints.NewHandler(logger, pointsSvc).MountRoutes(api)
	})

	return r
}
