package catalog

import (
	"context"
	"fmt"

	"github.com/mitracetak/mitra-erp/internal/shared"
)

// Service exposes catalog reads and lifecycle flips. Stock quantities are
// deliberately absent here; they belong to the ledger pathways.
type Service struct {
	repo *Repository
}

// NewService builds Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns products filtered by status.
func (s *Service) List(ctx context.Context, status *ProductStatus, page shared.Pagination) ([]Product, error) {
	return s.repo.List(ctx, status, page.PerPage, page.Offset())
}

// Create registers a new catalog item.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if p.Name == "" {
		return Product{}, fmt.Errorf("%w: product name required", shared.ErrValidation)
	}
	if p.SellingPrice < 0 || p.BuyingPrice < 0 {
		return Product{}, fmt.Errorf("%w: prices must be >= 0", shared.ErrValidation)
	}
	if p.Status == "" {
		p.Status = ProductStatusActive
	}
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	return p, nil
}

// Deactivate soft-removes a product from sale.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.UpdateStatus(ctx, id, ProductStatusInactive)
}

// Activate returns a product to sale.
func (s *Service) Activate(ctx context.Context, id int64) error {
	return s.repo.UpdateStatus(ctx, id, ProductStatusActive)
}
