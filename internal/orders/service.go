package orders

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/mitracetak/mitra-erp/internal/carts"
	"github.com/mitracetak/mitra-erp/internal/ledger"
	"github.com/mitracetak/mitra-erp/internal/pricing"
	"github.com/mitracetak/mitra-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the order engine.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	GetPayments(ctx context.Context, orderID int64) ([]PaymentTransaction, error)
}

// CustomerObserver is notified after an order commits so customer status
// (new → repeat) can be derived from order history.
type CustomerObserver interface {
	ObserveOrder(ctx context.Context, customerID, orderID int64) error
}

// CommissionAccruer grants sales points once an order completes.
type CommissionAccruer interface {
	AccrueForOrder(ctx context.Context, o Order) error
}

// AuditRecorder persists activity trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service implements the order engine: creation, editing, payment,
// settlement, and cancellation, each atomic with its stock side effects.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	pricing   pricing.Config
	customers CustomerObserver
	points    CommissionAccruer
	audit     AuditRecorder
}

// NewService constructs Service. customers, points, and audit may be nil;
// the corresponding side effects are then skipped.
func NewService(logger *slog.Logger, repo RepositoryPort, cfg pricing.Config, customers CustomerObserver, points CommissionAccruer, audit AuditRecorder) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		pricing:   cfg,
		customers: customers,
		points:    points,
		audit:     audit,
	}
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching the filter plus the total count.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return s.repo.List(ctx, f)
}

// GetPayments returns the payment history of an order, oldest first.
func (s *Service) GetPayments(ctx context.Context, orderID int64) ([]PaymentTransaction, error) {
	if _, err := s.repo.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.GetPayments(ctx, orderID)
}

// CreateDirect creates a back-office order: the caller supplies the lines
// explicitly, with optional per-line price overrides.
func (s *Service) CreateDirect(ctx context.Context, req CreateOrderRequest, actorID int64) (Order, error) {
	if len(req.Items) == 0 {
		return Order{}, ErrEmptyItems
	}
	paidThrough, err := normalizePayment(req.Paid, req.PaidThrough)
	if err != nil {
		return Order{}, err
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		items, err := s.buildItems(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		order, err := s.priceOrder(items, req.CustomDiscount, req.Paid)
		if err != nil {
			return err
		}
		order.CustomerID = req.CustomerID
		order.SalesID = req.SalesID
		order.PODate = req.PODate
		order.DeliveryDate = req.DeliveryDate
		order.Notes = req.Notes
		order.CreatedBy = actorID

		orderID, err = s.writeOrder(ctx, tx, order, items, actorID)
		if err != nil {
			return err
		}
		if req.Paid > 0 {
			if _, err := tx.InsertPayment(ctx, PaymentTransaction{OrderID: orderID, Amount: req.Paid, PaidThrough: paidThrough}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return s.finishCreate(ctx, orderID, actorID, "order.create")
}

// CreateFromCart converts the user's cart into an order, clearing the
// cart in the same transaction. Prices always come from the catalog.
func (s *Service) CreateFromCart(ctx context.Context, userID int64, req CheckoutRequest) (Order, error) {
	paidThrough, err := normalizePayment(req.Paid, req.PaidThrough)
	if err != nil {
		return Order{}, err
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cartRows, err := tx.ListCartsByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(cartRows) == 0 {
			return ErrEmptyItems
		}
		items, err := s.buildItems(ctx, tx, cartToRequests(cartRows))
		if err != nil {
			return err
		}
		order, err := s.priceOrder(items, req.CustomDiscount, req.Paid)
		if err != nil {
			return err
		}
		order.CustomerID = req.CustomerID
		order.SalesID = req.SalesID
		order.Notes = req.Notes
		order.CreatedBy = userID

		orderID, err = s.writeOrder(ctx, tx, order, items, userID)
		if err != nil {
			return err
		}
		if req.Paid > 0 {
			if _, err := tx.InsertPayment(ctx, PaymentTransaction{OrderID: orderID, Amount: req.Paid, PaidThrough: paidThrough}); err != nil {
				return err
			}
		}
		return tx.ClearCartsByUser(ctx, userID)
	})
	if err != nil {
		return Order{}, err
	}
	return s.finishCreate(ctx, orderID, userID, "order.checkout")
}

// Update replaces the order's lines and reprices it. Old lines are
// restocked with compensating IN movements, new lines reserved with OUT
// movements, and the recorded payment reconciled with the new paid value,
// all in one transaction.
func (s *Service) Update(ctx context.Context, id int64, req CreateOrderRequest, actorID int64) (Order, error) {
	if len(req.Items) == 0 {
		return Order{}, ErrEmptyItems
	}
	paidThrough, err := normalizePayment(req.Paid, req.PaidThrough)
	if err != nil {
		return Order{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing.Status == OrderStatusCancelled {
			return ErrOrderCancelled
		}

		if err := s.restock(ctx, tx, existing, actorID, "stock restored on order edit"); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}

		items, err := s.buildItems(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		order, err := s.priceOrder(items, req.CustomDiscount, req.Paid)
		if err != nil {
			return err
		}
		order.ID = id
		order.OrderNumber = existing.OrderNumber
		order.CustomerID = req.CustomerID
		order.SalesID = req.SalesID
		order.PODate = req.PODate
		order.DeliveryDate = req.DeliveryDate
		order.Notes = req.Notes
		order.CreatedBy = existing.CreatedBy

		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.InsertItems(ctx, id, items); err != nil {
			return err
		}
		if err := s.reserveStock(ctx, tx, id, order.OrderNumber, items, actorID); err != nil {
			return err
		}
		return s.reconcilePayment(ctx, tx, id, req.Paid, paidThrough)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordActivity(ctx, actorID, "order.update", id, nil)
	s.notifyAfterCommit(ctx, id)
	return s.repo.Get(ctx, id)
}

// Pay records an incremental payment. The amount is applied in full even
// when it exceeds the due; overpayment simply completes the order.
func (s *Service) Pay(ctx context.Context, id int64, req PayRequest, actorID int64) (Order, error) {
	if req.Amount <= 0 {
		return Order{}, ErrInvalidAmount
	}
	if !req.PaidThrough.Valid() {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidPaidThrough, req.PaidThrough)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == OrderStatusCancelled {
			return ErrOrderCancelled
		}
		if order.Due <= 0 {
			return ErrNoDueAmount
		}
		order.Paid += req.Amount
		order.Due = math.Max(order.Total-order.Paid, 0)
		order.Status = DecideStatus(order.Paid, order.Total)
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		_, err = tx.InsertPayment(ctx, PaymentTransaction{OrderID: id, Amount: req.Amount, PaidThrough: req.PaidThrough})
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.recordActivity(ctx, actorID, "order.pay", id, map[string]any{"amount": req.Amount, "paid_through": string(req.PaidThrough)})
	s.notifyAfterCommit(ctx, id)
	return s.repo.Get(ctx, id)
}

// Settle forgives the outstanding due: the remainder is folded into the
// discount so that total equals paid, and the order completes. Paid money
// is never touched.
func (s *Service) Settle(ctx context.Context, id int64, actorID int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == OrderStatusCancelled {
			return ErrOrderCancelled
		}
		if order.Due <= 0 {
			return ErrNoDueAmount
		}
		order.DiscountTotal += order.Due
		order.Total = order.SubTotal - order.DiscountTotal + order.TaxTotal
		order.Due = 0
		order.Status = DecideStatus(order.Paid, order.Total)
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordActivity(ctx, actorID, "order.settle", id, nil)
	s.notifyAfterCommit(ctx, id)
	return s.repo.Get(ctx, id)
}

// Cancel marks a pending order cancelled and restores its reserved stock
// with compensating IN movements. Completed orders cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id int64, actorID int64) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch order.Status {
		case OrderStatusCancelled:
			return ErrOrderCancelled
		case OrderStatusCompleted:
			return ErrOrderCompleted
		}
		if err := s.restock(ctx, tx, order, actorID, "stock restored on cancellation"); err != nil {
			return err
		}
		order.Status = OrderStatusCancelled
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordActivity(ctx, actorID, "order.cancel", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete removes the order together with its items and payments. Stock is
// NOT restored: deletion is an administrative purge, cancellation is the
// flow that returns goods.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetOrderForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordActivity(ctx, actorID, "order.delete", id, nil)
	return nil
}

// buildItems locks each product, checks saleability and availability, and
// snapshots the unit price. No stock is written here; reservation happens
// after the order row exists so movements can reference it.
func (s *Service) buildItems(ctx context.Context, tx TxRepository, reqs []OrderItemRequest) ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(reqs))
	for _, req := range reqs {
		p, err := tx.GetProductForUpdate(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.Active() {
			return nil, fmt.Errorf("%w: %s", ErrProductInactive, p.Name)
		}
		if req.Quantity > p.Quantity {
			return nil, fmt.Errorf("%w: %s has %s, requested %s",
				ErrInsufficientStock, p.Name, shared.FormatQty(p.Quantity), shared.FormatQty(req.Quantity))
		}
		price := p.SellingPrice
		if req.Price != nil {
			price = *req.Price
		}
		items = append(items, OrderItem{
			ProductID: p.ID,
			Quantity:  req.Quantity,
			UnitPrice: price,
			Subtotal:  pricing.LineSubtotal(price, req.Quantity),
		})
	}
	return items, nil
}

// priceOrder runs the pricing calculation and derives status and due.
func (s *Service) priceOrder(items []OrderItem, custom *CustomDiscountRequest, paid float64) (Order, error) {
	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	quote, err := pricing.Calculate(lines, s.pricing, customDiscount(custom))
	if err != nil {
		return Order{}, err
	}
	if quote.Total < 0 {
		return Order{}, fmt.Errorf("%w: discount exceeds order value", ErrNegativeTotal)
	}
	return Order{
		SubTotal:      quote.Subtotal,
		TaxTotal:      quote.TaxTotal,
		DiscountTotal: quote.DiscountTotal,
		Total:         quote.Total,
		Paid:          paid,
		Due:           math.Max(quote.Total-paid, 0),
		Status:        DecideStatus(paid, quote.Total),
	}, nil
}

// writeOrder inserts the order row plus items and reserves stock.
func (s *Service) writeOrder(ctx context.Context, tx TxRepository, order Order, items []OrderItem, actorID int64) (int64, error) {
	order.OrderNumber = shared.OrderNumber()
	id, err := tx.InsertOrder(ctx, order)
	if err != nil {
		return 0, err
	}
	if err := tx.InsertItems(ctx, id, items); err != nil {
		return 0, err
	}
	if err := s.reserveStock(ctx, tx, id, order.OrderNumber, items, actorID); err != nil {
		return 0, err
	}
	return id, nil
}

// reserveStock decrements each product and appends the OUT movement.
func (s *Service) reserveStock(ctx context.Context, tx TxRepository, orderID int64, orderNumber string, items []OrderItem, actorID int64) error {
	for _, it := range items {
		balance, err := tx.DecrementProductStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		_, err = tx.InsertMovement(ctx, ledger.StockMovement{
			ProductID:     it.ProductID,
			MovementType:  ledger.MovementTypeOut,
			Quantity:      it.Quantity,
			BalanceAfter:  balance,
			ReferenceType: ledger.ReferenceSalesOrder,
			ReferenceID:   &orderID,
			CreatedBy:     &actorID,
			Notes:         "order " + orderNumber,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// restock returns the order's quantities to the products and appends the
// compensating IN movements.
func (s *Service) restock(ctx context.Context, tx TxRepository, order Order, actorID int64, notes string) error {
	for _, it := range order.Items {
		balance, err := tx.IncrementProductStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		_, err = tx.InsertMovement(ctx, ledger.StockMovement{
			ProductID:     it.ProductID,
			MovementType:  ledger.MovementTypeIn,
			Quantity:      it.Quantity,
			BalanceAfter:  balance,
			ReferenceType: ledger.ReferenceSalesOrder,
			ReferenceID:   &order.ID,
			CreatedBy:     &actorID,
			Notes:         notes,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// reconcilePayment lines the stored payment row up with the new paid
// value on edit: update in place, insert when missing, delete when paid
// drops to zero.
func (s *Service) reconcilePayment(ctx context.Context, tx TxRepository, orderID int64, paid float64, paidThrough PaidThrough) error {
	existing, err := tx.GetPaymentForOrder(ctx, orderID)
	if err != nil {
		return err
	}
	switch {
	case paid > 0 && existing != nil:
		return tx.UpdatePayment(ctx, existing.ID, paid, paidThrough)
	case paid > 0:
		_, err := tx.InsertPayment(ctx, PaymentTransaction{OrderID: orderID, Amount: paid, PaidThrough: paidThrough})
		return err
	case existing != nil:
		return tx.DeletePayment(ctx, existing.ID)
	}
	return nil
}

func (s *Service) finishCreate(ctx context.Context, orderID, actorID int64, action string) (Order, error) {
	s.recordActivity(ctx, actorID, action, orderID, nil)
	s.notifyAfterCommit(ctx, orderID)
	return s.repo.Get(ctx, orderID)
}

// notifyAfterCommit runs the post-commit side effects: customer repeat
// detection and sales commission accrual. Failures are logged, never
// surfaced; the order itself already committed.
func (s *Service) notifyAfterCommit(ctx context.Context, orderID int64) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		s.logger.Error("post-commit reload failed", "order_id", orderID, "error", err)
		return
	}
	if s.customers != nil && order.CustomerID != nil {
		if err := s.customers.ObserveOrder(ctx, *order.CustomerID, order.ID); err != nil {
			s.logger.Error("customer observe failed", "order_id", order.ID, "error", err)
		}
	}
	if s.points != nil && order.SalesID != nil && order.Status == OrderStatusCompleted {
		if err := s.points.AccrueForOrder(ctx, order); err != nil {
			s.logger.Error("sales point accrual failed", "order_id", order.ID, "error", err)
		}
	}
}

func (s *Service) recordActivity(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.ActivityLog{ActorID: actorID, Action: action, Entity: "order", EntityID: strconv.FormatInt(orderID, 10), Meta: meta}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("activity log failed", "action", action, "order_id", orderID, "error", err)
	}
}

func normalizePayment(paid float64, through PaidThrough) (PaidThrough, error) {
	if paid < 0 {
		return "", ErrInvalidAmount
	}
	if paid == 0 {
		return "", nil
	}
	if through == "" {
		return PaidThroughCash, nil
	}
	if !through.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaidThrough, through)
	}
	return through, nil
}

func customDiscount(req *CustomDiscountRequest) *pricing.CustomDiscount {
	if req == nil {
		return nil
	}
	return &pricing.CustomDiscount{Amount: req.Amount, Type: pricing.DiscountType(req.Type)}
}

func cartToRequests(rows []carts.Cart) []OrderItemRequest {
	out := make([]OrderItemRequest, len(rows))
	for i, c := range rows {
		out[i] = OrderItemRequest{ProductID: c.ProductID, Quantity: c.Quantity}
	}
	return out
}
