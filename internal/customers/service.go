package customers

import (
	"context"
	"log/slog"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Customer, error)
	CountOrders(ctx context.Context, customerID, excludeOrderID int64) (int, error)
	MarkRepeat(ctx context.Context, id int64) error
}

// Service owns customer acquisition-state transitions.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort) *Service {
	return &Service{logger: logger, repo: repo}
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// ObserveOrder records that orderID was created for the customer and flips
// new -> repeat once a second order exists. The transition is one-way; a
// repeat customer stays repeat.
func (s *Service) ObserveOrder(ctx context.Context, customerID, orderID int64) error {
	customer, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return err
	}
	if customer.Status != StatusNew {
		return nil
	}
	previous, err := s.repo.CountOrders(ctx, customerID, orderID)
	if err != nil {
		return err
	}
	if previous == 0 {
		return nil
	}
	if err := s.repo.MarkRepeat(ctx, customerID); err != nil {
		return err
	}
	s.logger.Info("customer became repeat", slog.Int64("customer_id", customerID))
	return nil
}
