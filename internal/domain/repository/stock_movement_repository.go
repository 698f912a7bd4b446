package repository

import (
	"context"

	"github.com/jhoicas/Estoque-api/internal/domain/entity"
)

// StockMovementRepository puerto del libro de movimientos (solo inserción y consulta).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByItem devuelve los movimientos de un ítem, más recientes primero.
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error)
}
