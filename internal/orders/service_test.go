package orders

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mitracetak/mitra-erp/internal/carts"
	"github.com/mitracetak/mitra-erp/internal/catalog"
	"github.com/mitracetak/mitra-erp/internal/ledger"
	"github.com/mitracetak/mitra-erp/internal/pricing"
)

type memoryOrderRepo struct {
	products  map[int64]catalog.Product
	orders    map[int64]Order
	items     map[int64][]OrderItem
	movements []ledger.StockMovement
	payments  []PaymentTransaction
	carts     map[int64][]carts.Cart
	nextID    int64

	failPaymentInsert bool
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{
		products: make(map[int64]catalog.Product),
		orders:   make(map[int64]Order),
		items:    make(map[int64][]OrderItem),
		carts:    make(map[int64][]carts.Cart),
	}
}

type memoryOrderTx struct {
	repo *memoryOrderRepo
}

func (r *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	productsBefore := make(map[int64]catalog.Product, len(r.products))
	for k, v := range r.products {
		productsBefore[k] = v
	}
	ordersBefore := make(map[int64]Order, len(r.orders))
	for k, v := range r.orders {
		ordersBefore[k] = v
	}
	itemsBefore := make(map[int64][]OrderItem, len(r.items))
	for k, v := range r.items {
		itemsBefore[k] = append([]OrderItem(nil), v...)
	}
	cartsBefore := make(map[int64][]carts.Cart, len(r.carts))
	for k, v := range r.carts {
		cartsBefore[k] = append([]carts.Cart(nil), v...)
	}
	movementsBefore := append([]ledger.StockMovement(nil), r.movements...)
	paymentsBefore := append([]PaymentTransaction(nil), r.payments...)

	if err := fn(ctx, &memoryOrderTx{repo: r}); err != nil {
		r.products = productsBefore
		r.orders = ordersBefore
		r.items = itemsBefore
		r.carts = cartsBefore
		r.movements = movementsBefore
		r.payments = paymentsBefore
		return err
	}
	return nil
}

func (r *memoryOrderRepo) Get(ctx context.Context, id int64) (Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Items = append([]OrderItem(nil), r.items[id]...)
	return o, nil
}

func (r *memoryOrderRepo) List(ctx context.Context, f ListFilter) ([]Order, int, error) {
	var out []Order
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *memoryOrderRepo) GetPayments(ctx context.Context, orderID int64) ([]PaymentTransaction, error) {
	var out []PaymentTransaction
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (tx *memoryOrderTx) GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error) {
	p, ok := tx.repo.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (tx *memoryOrderTx) DecrementProductStock(ctx context.Context, productID int64, qty float64) (float64, error) {
	p, ok := tx.repo.products[productID]
	if !ok || p.Quantity < qty {
		return 0, ErrInsufficientStock
	}
	p.Quantity -= qty
	tx.repo.products[productID] = p
	return p.Quantity, nil
}

func (tx *memoryOrderTx) IncrementProductStock(ctx context.Context, productID int64, qty float64) (float64, error) {
	p, ok := tx.repo.products[productID]
	if !ok {
		return 0, catalog.ErrProductNotFound
	}
	p.Quantity += qty
	tx.repo.products[productID] = p
	return p.Quantity, nil
}

func (tx *memoryOrderTx) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryOrderTx) InsertOrder(ctx context.Context, o Order) (int64, error) {
	tx.repo.nextID++
	o.ID = tx.repo.nextID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	tx.repo.orders[o.ID] = o
	return o.ID, nil
}

func (tx *memoryOrderTx) UpdateOrder(ctx context.Context, o Order) error {
	if _, ok := tx.repo.orders[o.ID]; !ok {
		return ErrOrderNotFound
	}
	o.Items = nil
	o.UpdatedAt = time.Now()
	tx.repo.orders[o.ID] = o
	return nil
}

func (tx *memoryOrderTx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := tx.repo.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(tx.repo.orders, id)
	return nil
}

func (tx *memoryOrderTx) InsertItems(ctx context.Context, orderID int64, items []OrderItem) error {
	for _, it := range items {
		it.OrderID = orderID
		tx.repo.items[orderID] = append(tx.repo.items[orderID], it)
	}
	return nil
}

func (tx *memoryOrderTx) DeleteItems(ctx context.Context, orderID int64) error {
	delete(tx.repo.items, orderID)
	return nil
}

func (tx *memoryOrderTx) InsertMovement(ctx context.Context, m ledger.StockMovement) (int64, error) {
	m.ID = int64(len(tx.repo.movements) + 1)
	m.CreatedAt = time.Now()
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func (tx *memoryOrderTx) GetPaymentForOrder(ctx context.Context, orderID int64) (*PaymentTransaction, error) {
	for i := range tx.repo.payments {
		if tx.repo.payments[i].OrderID == orderID {
			p := tx.repo.payments[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (tx *memoryOrderTx) InsertPayment(ctx context.Context, p PaymentTransaction) (int64, error) {
	if tx.repo.failPaymentInsert {
		return 0, errors.New("payment insert failed")
	}
	p.ID = int64(len(tx.repo.payments) + 1)
	p.CreatedAt = time.Now()
	tx.repo.payments = append(tx.repo.payments, p)
	return p.ID, nil
}

func (tx *memoryOrderTx) UpdatePayment(ctx context.Context, id int64, amount float64, paidThrough PaidThrough) error {
	for i := range tx.repo.payments {
		if tx.repo.payments[i].ID == id {
			tx.repo.payments[i].Amount = amount
			tx.repo.payments[i].PaidThrough = paidThrough
			return nil
		}
	}
	return errors.New("payment not found")
}

func (tx *memoryOrderTx) DeletePayment(ctx context.Context, id int64) error {
	for i := range tx.repo.payments {
		if tx.repo.payments[i].ID == id {
			tx.repo.payments = append(tx.repo.payments[:i], tx.repo.payments[i+1:]...)
			return nil
		}
	}
	return nil
}

func (tx *memoryOrderTx) ListCartsByUser(ctx context.Context, userID int64) ([]carts.Cart, error) {
	return append([]carts.Cart(nil), tx.repo.carts[userID]...), nil
}

func (tx *memoryOrderTx) ClearCartsByUser(ctx context.Context, userID int64) error {
	delete(tx.repo.carts, userID)
	return nil
}

type fakeAccruer struct {
	orders []Order
}

func (f *fakeAccruer) AccrueForOrder(ctx context.Context, o Order) error {
	f.orders = append(f.orders, o)
	return nil
}

type fakeObserver struct {
	calls [][2]int64
}

func (f *fakeObserver) ObserveOrder(ctx context.Context, customerID, orderID int64) error {
	f.calls = append(f.calls, [2]int64{customerID, orderID})
	return nil
}

func newTestService(repo *memoryOrderRepo, cfg pricing.Config) *Service {
	return NewService(slog.Default(), repo, cfg, nil, nil, nil)
}

func seedProduct(repo *memoryOrderRepo, id int64, price, qty float64) {
	repo.products[id] = catalog.Product{ID: id, Name: "P", SellingPrice: price, Quantity: qty, Status: catalog.ProductStatusActive}
}

func TestCreateDirectPaidInFull(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 12500, 10)
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})

	order, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  27750, PaidThrough: PaidThroughCash,
	}, 9)
	require.NoError(t, err)

	require.Equal(t, 25000.0, order.SubTotal)
	require.Equal(t, 2750.0, order.TaxTotal)
	require.Equal(t, 0.0, order.DiscountTotal)
	require.Equal(t, 27750.0, order.Total)
	require.Equal(t, 0.0, order.Due)
	require.Equal(t, OrderStatusCompleted, order.Status)
	require.NotEmpty(t, order.OrderNumber)

	require.Equal(t, 8.0, repo.products[1].Quantity)
	require.Len(t, repo.movements, 1)
	require.Equal(t, ledger.MovementTypeOut, repo.movements[0].MovementType)
	require.Equal(t, 8.0, repo.movements[0].BalanceAfter)
	require.Equal(t, ledger.ReferenceSalesOrder, repo.movements[0].ReferenceType)

	require.Len(t, repo.payments, 1)
	require.Equal(t, 27750.0, repo.payments[0].Amount)
	require.Equal(t, PaidThroughCash, repo.payments[0].PaidThrough)
}

func TestCreateDirectPartialPaymentStaysPending(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 12500, 10)
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})

	order, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  10000, PaidThrough: PaidThroughBankTransfer,
	}, 9)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, order.Status)
	require.Equal(t, 17750.0, order.Due)
}

func TestCreateDirectZeroPaidRecordsNoPayment(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 5)
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})

	order, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, order.Status)
	require.Empty(t, repo.payments)
}

// Default and custom discounts stack; the custom one never replaces the
// configured default.
func TestCreateDirectDiscountsAreAdditive(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 2500, 100)
	svc := newTestService(repo, pricing.Config{TaxPercent: 11, DefaultDiscountPercent: 10})

	order, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items:          []OrderItemRequest{{ProductID: 1, Quantity: 4}},
		CustomDiscount: &CustomDiscountRequest{Amount: 500, Type: "fixed"},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 10000.0, order.SubTotal)
	require.Equal(t, 1500.0, order.DiscountTotal) // 10% default + 500 fixed
	require.Equal(t, 1100.0, order.TaxTotal)
	require.Equal(t, 9600.0, order.Total)
}

func TestCreateDirectPriceOverrideSnapshot(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 5000, 10)
	svc := newTestService(repo, pricing.Config{})

	price := 4000.0
	order, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2, Price: &price}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 4000.0, order.Items[0].UnitPrice)
	require.Equal(t, 8000.0, order.SubTotal)

	// Later catalog price changes must not touch the stored snapshot.
	p := repo.products[1]
	p.SellingPrice = 9999
	repo.products[1] = p
	reloaded, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, 4000.0, reloaded.Items[0].UnitPrice)
}

func TestCreateDirectRejectsEmptyItems(t *testing.T) {
	svc := newTestService(newMemoryOrderRepo(), pricing.Config{})
	_, err := svc.CreateDirect(context.Background(), CreateOrderRequest{}, 1)
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreateDirectRejectsInactiveProduct(t *testing.T) {
	repo := newMemoryOrderRepo()
	repo.products[1] = catalog.Product{ID: 1, Name: "Old", SellingPrice: 100, Quantity: 10, Status: catalog.ProductStatusInactive}
	svc := newTestService(repo, pricing.Config{})

	_, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.ErrorIs(t, err, ErrProductInactive)
	require.Empty(t, repo.orders)
}

func TestCreateDirectExactStockBoundary(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 100, 3)
	svc := newTestService(repo, pricing.Config{})

	_, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 3}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 0.0, repo.products[1].Quantity)
}

func TestCreateDirectRejectsOverStock(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 100, 3)
	svc := newTestService(repo, pricing.Config{})

	_, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 4}},
	}, 1)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 3.0, repo.products[1].Quantity)
	require.Empty(t, repo.orders)
	require.Empty(t, repo.movements)
}

func TestCreateDirectRejectsNegativeTotal(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 100, 10)
	svc := newTestService(repo, pricing.Config{})

	_, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items:          []OrderItemRequest{{ProductID: 1, Quantity: 1}},
		CustomDiscount: &CustomDiscountRequest{Amount: 500, Type: "fixed"},
	}, 1)
	require.ErrorIs(t, err, ErrNegativeTotal)
	require.Equal(t, 10.0, repo.products[1].Quantity)
	require.Empty(t, repo.orders)
}

// A failure anywhere in the transaction must leave stock, orders, and
// movements exactly as they were.
func TestCreateDirectRollsBackOnPaymentFailure(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	repo.failPaymentInsert = true
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})

	_, err := svc.CreateDirect(context.Background(), CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  1000, PaidThrough: PaidThroughCash,
	}, 1)
	require.Error(t, err)
	require.Equal(t, 10.0, repo.products[1].Quantity)
	require.Empty(t, repo.orders)
	require.Empty(t, repo.movements)
	require.Empty(t, repo.payments)
}

func TestCheckoutFromCartClearsCart(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	seedProduct(repo, 2, 2000, 5)
	repo.carts[42] = []carts.Cart{
		{ID: 1, UserID: 42, ProductID: 1, Quantity: 2},
		{ID: 2, UserID: 42, ProductID: 2, Quantity: 1},
	}
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})

	order, err := svc.CreateFromCart(context.Background(), 42, CheckoutRequest{
		Paid: 4440, PaidThrough: PaidThroughQRIS,
	})
	require.NoError(t, err)
	require.Equal(t, 4000.0, order.SubTotal)
	require.Equal(t, 4440.0, order.Total)
	require.Equal(t, OrderStatusCompleted, order.Status)
	require.Empty(t, repo.carts[42])
	require.Equal(t, 8.0, repo.products[1].Quantity)
	require.Equal(t, 4.0, repo.products[2].Quantity)
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	svc := newTestService(newMemoryOrderRepo(), pricing.Config{})
	_, err := svc.CreateFromCart(context.Background(), 42, CheckoutRequest{})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestPayAccumulatesAndCompletes(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 12500, 10)
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  10000, PaidThrough: PaidThroughCash,
	}, 1)
	require.NoError(t, err)

	order, err = svc.Pay(ctx, order.ID, PayRequest{Amount: 7750, PaidThrough: PaidThroughCash}, 1)
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, order.Status)
	require.Equal(t, 17750.0, order.Paid)
	require.Equal(t, 10000.0, order.Due)

	order, err = svc.Pay(ctx, order.ID, PayRequest{Amount: 12000, PaidThrough: PaidThroughEWallet}, 1)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCompleted, order.Status)
	require.Equal(t, 29750.0, order.Paid) // overpayment applied in full
	require.Equal(t, 0.0, order.Due)      // clamped, never negative

	payments, err := svc.GetPayments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 3)
}

func TestPayRejectsWhenNothingDue(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	svc := newTestService(repo, pricing.Config{})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
		Paid:  1000, PaidThrough: PaidThroughCash,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCompleted, order.Status)

	_, err = svc.Pay(ctx, order.ID, PayRequest{Amount: 100, PaidThrough: PaidThroughCash}, 1)
	require.ErrorIs(t, err, ErrNoDueAmount)
}

func TestPayValidatesInput(t *testing.T) {
	svc := newTestService(newMemoryOrderRepo(), pricing.Config{})
	ctx := context.Background()

	_, err := svc.Pay(ctx, 1, PayRequest{Amount: 0, PaidThrough: PaidThroughCash}, 1)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Pay(ctx, 1, PayRequest{Amount: 100, PaidThrough: "barter"}, 1)
	require.ErrorIs(t, err, ErrInvalidPaidThrough)
}

func TestSettleFoldsDueIntoDiscount(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 12500, 10)
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  10000, PaidThrough: PaidThroughCash,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 17750.0, order.Due)

	settled, err := svc.Settle(ctx, order.ID, 1)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCompleted, settled.Status)
	require.Equal(t, 0.0, settled.Due)
	require.Equal(t, 17750.0, settled.DiscountTotal)
	require.Equal(t, 10000.0, settled.Total) // total now equals paid
	require.Equal(t, 10000.0, settled.Paid)  // paid money untouched

	// Money identity still holds after settle.
	require.Equal(t, settled.SubTotal-settled.DiscountTotal+settled.TaxTotal, settled.Total)

	// Settle is not repeatable: nothing is due the second time.
	_, err = svc.Settle(ctx, order.ID, 1)
	require.ErrorIs(t, err, ErrNoDueAmount)
}

func TestCancelRestoresStock(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	svc := newTestService(repo, pricing.Config{})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 4}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 6.0, repo.products[1].Quantity)

	cancelled, err := svc.Cancel(ctx, order.ID, 1)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 10.0, repo.products[1].Quantity)

	// Compensating IN movement appended, original OUT untouched.
	require.Len(t, repo.movements, 2)
	require.Equal(t, ledger.MovementTypeIn, repo.movements[1].MovementType)
	require.Equal(t, 10.0, repo.movements[1].BalanceAfter)

	_, err = svc.Cancel(ctx, order.ID, 1)
	require.ErrorIs(t, err, ErrOrderCancelled)
}

func TestCancelRejectsCompletedOrder(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	svc := newTestService(repo, pricing.Config{})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
		Paid:  1000, PaidThrough: PaidThroughCash,
	}, 1)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, order.ID, 1)
	require.ErrorIs(t, err, ErrOrderCompleted)
	require.Equal(t, 9.0, repo.products[1].Quantity)
}

func TestCancelledOrderRejectsMutations(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	svc := newTestService(repo, pricing.Config{})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, order.ID, 1)
	require.NoError(t, err)

	_, err = svc.Pay(ctx, order.ID, PayRequest{Amount: 100, PaidThrough: PaidThroughCash}, 1)
	require.ErrorIs(t, err, ErrOrderCancelled)

	_, err = svc.Settle(ctx, order.ID, 1)
	require.ErrorIs(t, err, ErrOrderCancelled)

	_, err = svc.Update(ctx, order.ID, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.ErrorIs(t, err, ErrOrderCancelled)
}

func TestDeleteDoesNotRestock(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	svc := newTestService(repo, pricing.Config{})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 4}},
	}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, order.ID, 1))
	_, err = svc.Get(ctx, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	require.Equal(t, 6.0, repo.products[1].Quantity)
}

func TestDeleteCompletedCommissionedOrder(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	accruer := &fakeAccruer{}
	observer := &fakeObserver{}
	svc := NewService(slog.Default(), repo, pricing.Config{}, observer, accruer, nil)
	ctx := context.Background()

	salesID := int64(3)
	customerID := int64(8)
	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		CustomerID: &customerID, SalesID: &salesID,
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  2000, PaidThrough: PaidThroughCash,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, OrderStatusCompleted, order.Status)
	require.Len(t, accruer.orders, 1)

	// Delete must succeed even after sales points accrued against the order;
	// the accrual rows go away with it.
	require.NoError(t, svc.Delete(ctx, order.ID, 1))
	_, err = svc.Get(ctx, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateRestocksAndReprices(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	seedProduct(repo, 2, 2000, 5)
	svc := newTestService(repo, pricing.Config{TaxPercent: 11})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 8.0, repo.products[1].Quantity)

	updated, err := svc.Update(ctx, order.ID, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 2, Quantity: 1}},
		Paid:  2220, PaidThrough: PaidThroughCash,
	}, 1)
	require.NoError(t, err)

	require.Equal(t, order.OrderNumber, updated.OrderNumber)
	require.Equal(t, 2000.0, updated.SubTotal)
	require.Equal(t, 2220.0, updated.Total)
	require.Equal(t, OrderStatusCompleted, updated.Status)
	require.Len(t, updated.Items, 1)
	require.Equal(t, int64(2), updated.Items[0].ProductID)

	// Old product restocked, new one reserved.
	require.Equal(t, 10.0, repo.products[1].Quantity)
	require.Equal(t, 4.0, repo.products[2].Quantity)

	// OUT(1), IN(1) on restock, OUT(2) on reserve.
	require.Len(t, repo.movements, 3)
	require.Equal(t, ledger.MovementTypeIn, repo.movements[1].MovementType)
	require.Equal(t, ledger.MovementTypeOut, repo.movements[2].MovementType)

	// Payment row created by the edit.
	payments, err := svc.GetPayments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, 2220.0, payments[0].Amount)
}

func TestUpdateReconcilesExistingPayment(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	svc := newTestService(repo, pricing.Config{})
	ctx := context.Background()

	order, err := svc.CreateDirect(ctx, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  500, PaidThrough: PaidThroughCash,
	}, 1)
	require.NoError(t, err)

	// Raising paid updates the stored row in place.
	_, err = svc.Update(ctx, order.ID, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Paid:  1500, PaidThrough: PaidThroughBankTransfer,
	}, 1)
	require.NoError(t, err)
	require.Len(t, repo.payments, 1)
	require.Equal(t, 1500.0, repo.payments[0].Amount)
	require.Equal(t, PaidThroughBankTransfer, repo.payments[0].PaidThrough)

	// Dropping paid to zero removes it.
	_, err = svc.Update(ctx, order.ID, CreateOrderRequest{
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 2}},
	}, 1)
	require.NoError(t, err)
	require.Empty(t, repo.payments)
}

func TestCompletedOrderAccruesSalesPoints(t *testing.T) {
	repo := newMemoryOrderRepo()
	seedProduct(repo, 1, 1000, 10)
	accruer := &fakeAccruer{}
	observer := &fakeObserver{}
	svc := NewService(slog.Default(), repo, pricing.Config{}, observer, accruer, nil)
	ctx := context.Background()

	salesID := int64(3)
	customerID := int64(8)

	// Pending order: observed but no accrual yet.
	pending, err := svc.CreateDirect(ctx, CreateOrderRequest{
		CustomerID: &customerID, SalesID: &salesID,
		Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)
	require.Len(t, observer.calls, 1)
	require.Equal(t, [2]int64{8, pending.ID}, observer.calls[0])
	require.Empty(t, accruer.orders)

	// Paying it off completes the order and triggers accrual.
	_, err = svc.Pay(ctx, pending.ID, PayRequest{Amount: 1000, PaidThrough: PaidThroughCash}, 1)
	require.NoError(t, err)
	require.Len(t, accruer.orders, 1)
	require.Equal(t, pending.ID, accruer.orders[0].ID)
}

func TestDecideStatus(t *testing.T) {
	require.Equal(t, OrderStatusCompleted, DecideStatus(100, 100))
	require.Equal(t, OrderStatusCompleted, DecideStatus(150, 100))
	require.Equal(t, OrderStatusPending, DecideStatus(99.99, 100))
	require.Equal(t, OrderStatusCompleted, DecideStatus(0, 0))
}
