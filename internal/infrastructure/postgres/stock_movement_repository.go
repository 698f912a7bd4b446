package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento. Dentro de una transacción lo hace en un savepoint: si falla,
// se deshace solo el insert y la transacción sigue usable.
func (r *StockMovementRepo) Create(ctx context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	q := r.q
	var sp pgx.Tx
	if tx, ok := r.q.(pgx.Tx); ok {
		nested, err := tx.Begin(ctx)
		if err != nil {
			return mapError("savepoint stock movement", err, nil)
		}
		sp, q = nested, nested
	}

	query := `
		INSERT INTO stock_movements (id, type, quantity, item_id, user_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.Exec(ctx, query,
		movement.ID, movement.Type, movement.Quantity, movement.ItemID,
		movement.UserID, movement.Note, movement.CreatedAt,
	)
	if sp == nil {
		return mapError("create stock movement", err, domain.ErrNotFound)
	}
	if err != nil {
		_ = sp.Rollback(ctx)
		return mapError("create stock movement", err, domain.ErrNotFound)
	}
	return mapError("release savepoint", sp.Commit(ctx), nil)
}

// ListByItem movimientos del ítem, más recientes primero. limit <= 0 devuelve todos.
func (r *StockMovementRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT id, type, quantity, item_id, user_id, note, created_at
		FROM stock_movements
		WHERE item_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2::int, 0) OFFSET $3`
	if limit < 0 {
		limit = 0
	}
	rows, err := r.q.Query(ctx, query, itemID, limit, offset)
	if err != nil {
		return nil, mapError("list stock movements", err, nil)
	}
	defer rows.Close()

	out := []*entity.StockMovement{}
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.Type, &m.Quantity, &m.ItemID, &m.UserID, &m.Note, &m.CreatedAt); err != nil {
			return nil, mapError("scan stock movement", err, nil)
		}
		out = append(out, &m)
	}
	return out, mapError("list stock movements", rows.Err(), nil)
}
