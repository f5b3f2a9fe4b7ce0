package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetByProduct(ctx context.Context, productID int64) ([]StockMovement, error)
}

// Service exposes the audit trail and manual stock corrections.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort) *Service {
	return &Service{logger: logger, repo: repo}
}

// AdjustInput describes a manual stock correction. Delta may be positive
// or negative; the resulting movement is a compensating in/out row.
type AdjustInput struct {
	ProductID int64
	Delta     float64
	ActorID   int64
	Notes     string
}

// GetByProduct lists a product's movements newest first for audit display.
func (s *Service) GetByProduct(ctx context.Context, productID int64) ([]StockMovement, error) {
	return s.repo.GetByProduct(ctx, productID)
}

// Adjust applies a manual quantity correction: the product row is locked,
// the new balance written, and a compensating movement appended, all in one
// transaction.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (StockMovement, error) {
	if input.Delta == 0 {
		return StockMovement{}, fmt.Errorf("%w: adjustment delta must be non zero", ErrInvalidQuantity)
	}
	var movement StockMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		newQty := product.Quantity + input.Delta
		if newQty < 0 {
			return ErrInsufficientStock
		}
		if err := tx.SetProductQuantity(ctx, input.ProductID, newQty); err != nil {
			return err
		}
		movementType := MovementTypeIn
		if input.Delta < 0 {
			movementType = MovementTypeOut
		}
		actor := input.ActorID
		movement = StockMovement{
			ProductID:     input.ProductID,
			MovementType:  movementType,
			Quantity:      math.Abs(input.Delta),
			BalanceAfter:  newQty,
			ReferenceType: ReferenceAdjustment,
			CreatedBy:     &actor,
			Notes:         input.Notes,
		}
		id, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = id
		return nil
	})
	if err != nil {
		return StockMovement{}, err
	}
	s.logger.Info("stock adjusted",
		slog.Int64("product_id", input.ProductID),
		slog.Float64("delta", input.Delta),
		slog.Float64("balance_after", movement.BalanceAfter),
	)
	return movement, nil
}
