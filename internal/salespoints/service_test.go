package salespoints

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/mitracetak/mitra-erp/internal/customers"
	"github.com/mitracetak/mitra-erp/internal/orders"
)

type memoryPointsRepo struct {
	points     []SalesPoint
	recapCalls int
}

func (r *memoryPointsRepo) Create(ctx context.Context, sp SalesPoint) (int64, error) {
	for _, existing := range r.points {
		if existing.SalesID == sp.SalesID && existing.OrderID == sp.OrderID {
			return 0, ErrAlreadyAccrued
		}
	}
	sp.ID = int64(len(r.points) + 1)
	r.points = append(r.points, sp)
	return sp.ID, nil
}

func (r *memoryPointsRepo) GetBySales(ctx context.Context, salesID int64) ([]SalesPoint, error) {
	var out []SalesPoint
	for _, sp := range r.points {
		if sp.SalesID == salesID {
			out = append(out, sp)
		}
	}
	return out, nil
}

func (r *memoryPointsRepo) Recap(ctx context.Context) ([]Recap, error) {
	r.recapCalls++
	byID := map[int64]*Recap{}
	var ids []int64
	for _, sp := range r.points {
		rc, ok := byID[sp.SalesID]
		if !ok {
			rc = &Recap{SalesID: sp.SalesID}
			byID[sp.SalesID] = rc
			ids = append(ids, sp.SalesID)
		}
		rc.OrderCount++
		rc.TotalPoints += sp.Points
	}
	var out []Recap
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out, nil
}

type staticCustomers struct {
	customer customers.Customer
}

func (s staticCustomers) Get(ctx context.Context, id int64) (customers.Customer, error) {
	return s.customer, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func completedOrder(salesID, customerID int64, total float64) orders.Order {
	return orders.Order{
		ID:         77,
		SalesID:    &salesID,
		CustomerID: &customerID,
		Total:      total,
		Status:     orders.OrderStatusCompleted,
		Items:      []orders.OrderItem{{ProductID: 1, Quantity: 250}},
	}
}

func TestAccrueForOrder(t *testing.T) {
	repo := &memoryPointsRepo{}
	svc := NewService(slog.Default(), repo, staticCustomers{customers.Customer{
		ID: 8, Status: customers.StatusNew, StandardCommission: 2.5,
	}}, nil)

	err := svc.AccrueForOrder(context.Background(), completedOrder(3, 8, 100000))
	require.NoError(t, err)
	require.Len(t, repo.points, 1)
	require.Equal(t, int64(3), repo.points[0].SalesID)
	require.Equal(t, int64(77), repo.points[0].OrderID)
	require.Equal(t, 2500.0, repo.points[0].Points) // 2.5% of 100000
	require.Equal(t, 250.0, repo.points[0].PrintCount)
}

func TestAccrueUsesExtraCommissionForRepeatCustomer(t *testing.T) {
	repo := &memoryPointsRepo{}
	svc := NewService(slog.Default(), repo, staticCustomers{customers.Customer{
		ID: 8, Status: customers.StatusRepeat, StandardCommission: 2.5, ExtraCommission: 4,
	}}, nil)

	err := svc.AccrueForOrder(context.Background(), completedOrder(3, 8, 100000))
	require.NoError(t, err)
	require.Equal(t, 4000.0, repo.points[0].Points)
}

func TestAccrueIsIdempotentPerOrder(t *testing.T) {
	repo := &memoryPointsRepo{}
	svc := NewService(slog.Default(), repo, staticCustomers{customers.Customer{
		ID: 8, Status: customers.StatusNew, StandardCommission: 2,
	}}, nil)
	ctx := context.Background()

	order := completedOrder(3, 8, 50000)
	require.NoError(t, svc.AccrueForOrder(ctx, order))
	require.NoError(t, svc.AccrueForOrder(ctx, order))
	require.Len(t, repo.points, 1)
}

func TestAccrueSkipsWithoutSalesOrCustomer(t *testing.T) {
	repo := &memoryPointsRepo{}
	svc := NewService(slog.Default(), repo, staticCustomers{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.AccrueForOrder(ctx, orders.Order{ID: 1, Total: 1000}))
	require.Empty(t, repo.points)
}

func TestRecapCached(t *testing.T) {
	repo := &memoryPointsRepo{}
	svc := NewService(slog.Default(), repo, staticCustomers{customers.Customer{
		ID: 8, Status: customers.StatusNew, StandardCommission: 2,
	}}, testRedis(t))
	ctx := context.Background()

	require.NoError(t, svc.AccrueForOrder(ctx, completedOrder(3, 8, 100000)))

	first, err := svc.GetRecap(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 2000.0, first[0].TotalPoints)
	require.Equal(t, 1, repo.recapCalls)

	// Second read is served from cache.
	second, err := svc.GetRecap(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.recapCalls)
}

func TestRecapCacheInvalidatedOnAccrual(t *testing.T) {
	repo := &memoryPointsRepo{}
	svc := NewService(slog.Default(), repo, staticCustomers{customers.Customer{
		ID: 8, Status: customers.StatusNew, StandardCommission: 2,
	}}, testRedis(t))
	ctx := context.Background()

	require.NoError(t, svc.AccrueForOrder(ctx, completedOrder(3, 8, 100000)))
	_, err := svc.GetRecap(ctx)
	require.NoError(t, err)

	next := completedOrder(3, 8, 50000)
	next.ID = 78
	require.NoError(t, svc.AccrueForOrder(ctx, next))

	recap, err := svc.GetRecap(ctx)
	require.NoError(t, err)
	require.Equal(t, 3000.0, recap[0].TotalPoints)
	require.Equal(t, 2, repo.recapCalls)
}
