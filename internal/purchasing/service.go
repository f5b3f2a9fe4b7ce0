package purchasing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mitracetak/mitra-erp/internal/ledger"
	"github.com/mitracetak/mitra-erp/internal/pricing"
	"github.com/mitracetak/mitra-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the purchasing service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (PurchaseOrder, error)
	List(ctx context.Context, status PurchaseStatus, p shared.Pagination) ([]PurchaseOrder, error)
}

// CreateItemRequest is one requested purchase line. Cost, when set,
// overrides the product's buying price.
type CreateItemRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  float64  `json:"quantity" validate:"required,gt=0"`
	Cost      *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
}

// CreateRequest is the payload for a new purchase order.
type CreateRequest struct {
	SupplierID int64               `json:"supplier_id" validate:"required,gt=0"`
	Items      []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes      string              `json:"notes,omitempty"`
}

// Service implements purchase order creation and receiving.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	now    func() time.Time
}

// NewService constructs Service.
func NewService(logger *slog.Logger, repo RepositoryPort) *Service {
	return &Service{logger: logger, repo: repo, now: time.Now}
}

// Get returns a purchase order with its items.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns purchase orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, status PurchaseStatus, p shared.Pagination) ([]PurchaseOrder, error) {
	return s.repo.List(ctx, status, p)
}

// Create registers a pending purchase order. Stock is untouched until the
// goods are received.
func (s *Service) Create(ctx context.Context, req CreateRequest, actorID int64) (PurchaseOrder, error) {
	if len(req.Items) == 0 {
		return PurchaseOrder{}, ErrEmptyItems
	}
	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var (
			items []PurchaseItem
			total float64
		)
		for _, it := range req.Items {
			p, err := tx.GetProductForUpdate(ctx, it.ProductID)
			if err != nil {
				return err
			}
			cost := p.BuyingPrice
			if it.Cost != nil {
				cost = *it.Cost
			}
			sub := pricing.LineSubtotal(cost, it.Quantity)
			total += sub
			items = append(items, PurchaseItem{ProductID: p.ID, Quantity: it.Quantity, UnitCost: cost, Subtotal: sub})
		}

		seq, err := tx.NextSequence(ctx)
		if err != nil {
			return err
		}
		orderID, err = tx.InsertPurchaseOrder(ctx, PurchaseOrder{
			SupplierID:  req.SupplierID,
			OrderNumber: shared.PurchaseOrderNumber(s.now(), seq),
			Status:      PurchaseStatusPending,
			Total:       total,
			Notes:       req.Notes,
			CreatedBy:   actorID,
		})
		if err != nil {
			return err
		}
		return tx.InsertItems(ctx, orderID, items)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.logger.Info("purchase order created", "purchase_order_id", orderID, "supplier_id", req.SupplierID)
	return s.repo.Get(ctx, orderID)
}

// Receive books the goods in: every item quantity is added to its product
// under a row lock and an IN movement appended, all in one transaction.
// Only pending orders can be received, and only once.
func (s *Service) Receive(ctx context.Context, id int64, actorID int64) (PurchaseOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po.Status != PurchaseStatusPending {
			return fmt.Errorf("%w: status %s", ErrInvalidState, po.Status)
		}
		for _, it := range po.Items {
			balance, err := tx.IncrementProductStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			_, err = tx.InsertMovement(ctx, ledger.StockMovement{
				ProductID:     it.ProductID,
				MovementType:  ledger.MovementTypeIn,
				Quantity:      it.Quantity,
				BalanceAfter:  balance,
				ReferenceType: ledger.ReferencePurchaseOrder,
				ReferenceID:   &po.ID,
				CreatedBy:     &actorID,
				Notes:         "received " + po.OrderNumber,
			})
			if err != nil {
				return err
			}
		}
		return tx.SetStatus(ctx, id, PurchaseStatusReceived, true)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.logger.Info("purchase order received", "purchase_order_id", id)
	return s.repo.Get(ctx, id)
}

// Cancel voids a pending purchase order. No stock ever moved, so there is
// nothing to compensate.
func (s *Service) Cancel(ctx context.Context, id int64, actorID int64) (PurchaseOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if po.Status != PurchaseStatusPending {
			return fmt.Errorf("%w: status %s", ErrInvalidState, po.Status)
		}
		return tx.SetStatus(ctx, id, PurchaseStatusCancelled, false)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	return s.repo.Get(ctx, id)
}
