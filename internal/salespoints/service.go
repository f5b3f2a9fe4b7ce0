package salespoints

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mitracetak/mitra-erp/internal/customers"
	"github.com/mitracetak/mitra-erp/internal/orders"
)

const (
	recapCacheKey = "salespoints:recap"
	recapCacheTTL = 5 * time.Minute
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Create(ctx context.Context, sp SalesPoint) (int64, error)
	GetBySales(ctx context.Context, salesID int64) ([]SalesPoint, error)
	Recap(ctx context.Context) ([]Recap, error)
}

// CustomerGetter resolves the commission percent of the ordering customer.
type CustomerGetter interface {
	Get(ctx context.Context, id int64) (customers.Customer, error)
}

// Service accrues commission points and serves cached recaps.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	customers CustomerGetter
	cache     *redis.Client
}

// NewService constructs Service. cache may be nil; recaps then always hit
// the database.
func NewService(logger *slog.Logger, repo RepositoryPort, customers CustomerGetter, cache *redis.Client) *Service {
	return &Service{logger: logger, repo: repo, customers: customers, cache: cache}
}

// AccrueForOrder grants points for a completed order: order total times
// the customer's commission percent, rounded to 2 decimal places. Orders
// without a customer accrue nothing; a repeated accrual for the same
// order is a silent no-op.
func (s *Service) AccrueForOrder(ctx context.Context, o orders.Order) error {
	if o.SalesID == nil || o.CustomerID == nil {
		return nil
	}
	customer, err := s.customers.Get(ctx, *o.CustomerID)
	if err != nil {
		return err
	}
	percent := customer.CommissionPercent()
	if percent <= 0 {
		return nil
	}
	points := decimal.NewFromFloat(o.Total).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Round(2).InexactFloat64()

	var printCount float64
	for _, it := range o.Items {
		printCount += it.Quantity
	}

	_, err = s.repo.Create(ctx, SalesPoint{
		SalesID:    *o.SalesID,
		OrderID:    o.ID,
		PrintCount: printCount,
		Points:     points,
	})
	if errors.Is(err, ErrAlreadyAccrued) {
		return nil
	}
	if err != nil {
		return err
	}
	s.invalidateRecap(ctx)
	s.logger.Info("sales points accrued",
		slog.Int64("sales_id", *o.SalesID), slog.Int64("order_id", o.ID), slog.Float64("points", points))
	return nil
}

// GetBySales returns all accruals for one sales person.
func (s *Service) GetBySales(ctx context.Context, salesID int64) ([]SalesPoint, error) {
	return s.repo.GetBySales(ctx, salesID)
}

// GetRecap returns the per-sales aggregation, served from cache when warm.
func (s *Service) GetRecap(ctx context.Context) ([]Recap, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, recapCacheKey).Bytes()
		if err == nil {
			var cached []Recap
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("recap cache read failed", slog.Any("error", err))
		}
	}

	recap, err := s.repo.Recap(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(recap); err == nil {
			if err := s.cache.Set(ctx, recapCacheKey, raw, recapCacheTTL).Err(); err != nil {
				s.logger.Warn("recap cache write failed", slog.Any("error", err))
			}
		}
	}
	return recap, nil
}

func (s *Service) invalidateRecap(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, recapCacheKey).Err(); err != nil {
		s.logger.Warn("recap cache invalidate failed", slog.Any("error", err))
	}
}
