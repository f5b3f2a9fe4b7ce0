package ledger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mitracetak/mitra-erp/internal/catalog"
)

type memoryLedgerRepo struct {
	products  map[int64]catalog.Product
	movements []StockMovement
	nextID    int64
}

type memoryLedgerTx struct {
	repo *memoryLedgerRepo
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{products: make(map[int64]catalog.Product)}
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	productsBefore := make(map[int64]catalog.Product, len(r.products))
	for k, v := range r.products {
		productsBefore[k] = v
	}
	movementsBefore := append([]StockMovement(nil), r.movements...)
	if err := fn(ctx, &memoryLedgerTx{repo: r}); err != nil {
		r.products = productsBefore
		r.movements = movementsBefore
		return err
	}
	return nil
}

func (r *memoryLedgerRepo) GetByProduct(ctx context.Context, productID int64) ([]StockMovement, error) {
	var out []StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (tx *memoryLedgerTx) GetProductForUpdate(ctx context.Context, productID int64) (catalog.Product, error) {
	p, ok := tx.repo.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (tx *memoryLedgerTx) SetProductQuantity(ctx context.Context, productID int64, quantity float64) error {
	p := tx.repo.products[productID]
	p.Quantity = quantity
	tx.repo.products[productID] = p
	return nil
}

func (tx *memoryLedgerTx) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	m.CreatedAt = time.Now()
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestAdjustPositiveAndNegative(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.products[1] = catalog.Product{ID: 1, Name: "Box", Quantity: 10, Status: catalog.ProductStatusActive}
	svc := NewService(testLogger(), repo)
	ctx := context.Background()

	in, err := svc.Adjust(ctx, AdjustInput{ProductID: 1, Delta: 5, ActorID: 9, Notes: "found in warehouse"})
	require.NoError(t, err)
	require.Equal(t, MovementTypeIn, in.MovementType)
	require.Equal(t, 5.0, in.Quantity)
	require.Equal(t, 15.0, in.BalanceAfter)

	out, err := svc.Adjust(ctx, AdjustInput{ProductID: 1, Delta: -3, ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, MovementTypeOut, out.MovementType)
	require.Equal(t, 3.0, out.Quantity)
	require.Equal(t, 12.0, out.BalanceAfter)
	require.Equal(t, 12.0, repo.products[1].Quantity)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.products[1] = catalog.Product{ID: 1, Quantity: 2, Status: catalog.ProductStatusActive}
	svc := NewService(testLogger(), repo)

	_, err := svc.Adjust(context.Background(), AdjustInput{ProductID: 1, Delta: -5, ActorID: 1})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 2.0, repo.products[1].Quantity)
	require.Empty(t, repo.movements)
}

func TestAdjustZeroDelta(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(testLogger(), repo)
	_, err := svc.Adjust(context.Background(), AdjustInput{ProductID: 1, Delta: 0, ActorID: 1})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.Empty(t, repo.movements)
}

func TestMovementsReconstructBalance(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.products[7] = catalog.Product{ID: 7, Quantity: 0, Status: catalog.ProductStatusActive}
	svc := NewService(testLogger(), repo)
	ctx := context.Background()

	deltas := []float64{10, -4, 6, -2}
	for _, d := range deltas {
		_, err := svc.Adjust(ctx, AdjustInput{ProductID: 7, Delta: d, ActorID: 1})
		require.NoError(t, err)
	}

	movements, err := svc.GetByProduct(ctx, 7)
	require.NoError(t, err)
	require.Len(t, movements, 4)

	// Newest first for audit display.
	require.Equal(t, 10.0, movements[0].BalanceAfter)

	// Cumulative application of +in/-out from zero matches the product row.
	var balance float64
	for i := len(movements) - 1; i >= 0; i-- {
		if movements[i].MovementType == MovementTypeIn {
			balance += movements[i].Quantity
		} else {
			balance -= movements[i].Quantity
		}
		require.Equal(t, movements[i].BalanceAfter, balance)
	}
	require.Equal(t, repo.products[7].Quantity, balance)
}
