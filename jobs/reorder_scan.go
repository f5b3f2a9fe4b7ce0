package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/mitracetak/mitra-erp/internal/catalog"
	"github.com/mitracetak/mitra-erp/internal/shared"
)

// LowStockLister returns every product at or below its reorder level.
type LowStockLister interface {
	ListBelowReorderLevel(ctx context.Context) ([]catalog.Product, error)
}

// ReorderScanJob walks the catalog and flags products that need a new
// purchase order. The output is the structured log stream; procurement
// watches it through the ops dashboard.
type ReorderScanJob struct {
	catalog LowStockLister
	logger  *slog.Logger
}

// NewReorderScanJob initialises the reorder scan handler.
func NewReorderScanJob(catalog LowStockLister, logger *slog.Logger) *ReorderScanJob {
	return &ReorderScanJob{catalog: catalog, logger: logger}
}

// Handle executes one reorder scan.
func (j *ReorderScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.catalog == nil {
		return errors.New("reorder scan: handler not configured")
	}
	low, err := j.catalog.ListBelowReorderLevel(ctx)
	if err != nil {
		j.logger.Error("reorder scan failed", slog.Any("error", err))
		return err
	}
	for _, p := range low {
		j.logger.Warn("product below reorder level",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.String("on_hand", shared.FormatQty(p.Quantity)),
			slog.String("reorder_level", shared.FormatQty(p.ReorderLevel)),
			slog.String("restock_value", shared.FormatIDR((p.ReorderLevel-p.Quantity)*p.BuyingPrice)),
		)
	}
	j.logger.Info("reorder scan finished", slog.Int("flagged", len(low)))
	return nil
}
