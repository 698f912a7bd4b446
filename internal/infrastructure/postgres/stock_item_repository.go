package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

const itemColumns = `id, name, quantity, location, unit, type, origin, damaged, origin_id, created_at, updated_at`

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, extra ...any) (*entity.StockItem, error) {
	var it entity.StockItem
	var origin string
	dest := append([]any{
		&it.ID, &it.Name, &it.Quantity, &it.Location, &it.Unit, &it.Type,
		&origin, &it.Damaged, &it.OriginID, &it.CreatedAt, &it.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	it.Origin = entity.Origin(origin)
	return &it, nil
}

// Create persiste un ítem.
func (r *StockItemRepo) Create(ctx context.Context, item *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.Quantity, item.Location, item.Unit, item.Type,
		string(item.Origin), item.Damaged, item.OriginID, item.CreatedAt, item.UpdatedAt,
	)
	return mapError("create stock item", err, domain.ErrOrphanedDamagedRecord)
}

// GetByID obtiene un ítem sin bloquearlo. nil, nil si no existe.
func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item", `SELECT `+itemColumns+` FROM stock_items WHERE id = $1`, id)
}

// GetForUpdate obtiene el ítem y bloquea la fila (SELECT FOR UPDATE).
func (r *StockItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.getOne(ctx, "get stock item for update", `SELECT `+itemColumns+` FROM stock_items WHERE id = $1 FOR UPDATE`, id)
}

func (r *StockItemRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.StockItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err, nil)
	}
	return it, nil
}

// DamagedChild bloquea y devuelve el registro dañado de parentID, o nil si no tiene.
func (r *StockItemRepo) DamagedChild(ctx context.Context, parentID string) (*entity.StockItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM stock_items
		WHERE origin_id = $1 AND damaged
		ORDER BY created_at
		LIMIT 2
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, parentID)
	if err != nil {
		return nil, mapError("get damaged child", err, nil)
	}
	defer rows.Close()

	var children []*entity.StockItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, mapError("scan damaged child", err, nil)
		}
		children = append(children, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("get damaged child", err, nil)
	}
	switch len(children) {
	case 0:
		return nil, nil
	case 1:
		return children[0], nil
	default:
		return nil, fmt.Errorf("%w: padre %s", domain.ErrMultipleDamagedChildren, parentID)
	}
}

// Update guarda todos los campos editables del ítem.
func (r *StockItemRepo) Update(ctx context.Context, item *entity.StockItem) error {
	query := `
		UPDATE stock_items
		SET name = $2, quantity = $3, location = $4, unit = $5, type = $6, origin = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.Quantity, item.Location, item.Unit, item.Type,
		string(item.Origin), item.UpdatedAt,
	)
	if err != nil {
		return mapError("update stock item", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el ítem; registros dañados y movimientos caen por ON DELETE CASCADE.
func (r *StockItemRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM stock_items WHERE id = $1`, id)
	return mapError("delete stock item", err, nil)
}

// DeleteDamagedChildren elimina los registros dañados de parentID y devuelve sus IDs.
func (r *StockItemRepo) DeleteDamagedChildren(ctx context.Context, parentID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `DELETE FROM stock_items WHERE origin_id = $1 AND damaged RETURNING id`, parentID)
	if err != nil {
		return nil, mapError("delete damaged children", err, nil)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError("scan damaged child id", err, nil)
		}
		ids = append(ids, id)
	}
	return ids, mapError("delete damaged children", rows.Err(), nil)
}

// List ítems que no son registros dañados, con la cantidad dañada agregada.
func (r *StockItemRepo) List(ctx context.Context, filter repository.ItemFilter) ([]repository.ItemWithDamaged, error) {
	direction := "ASC"
	if filter.Order == repository.OrderDesc {
		direction = "DESC"
	}
	query := `
		SELECT i.id, i.name, i.quantity, i.location, i.unit, i.type, i.origin, i.damaged, i.origin_id,
		       i.created_at, i.updated_at,
		       COALESCE((SELECT SUM(d.quantity) FROM stock_items d WHERE d.origin_id = i.id AND d.damaged), 0)::int
		FROM stock_items i
		WHERE NOT i.damaged
		  AND ($1::text = '' OR i.name ILIKE '%' || $1::text || '%')
		  AND ($2::text = '' OR i.type = $2::text)
		ORDER BY i.quantity ` + direction + `, i.name`
	rows, err := r.q.Query(ctx, query, filter.Search, filter.Type)
	if err != nil {
		return nil, mapError("list stock items", err, nil)
	}
	defer rows.Close()

	out := []repository.ItemWithDamaged{}
	for rows.Next() {
		var damaged int
		it, err := scanItem(rows, &damaged)
		if err != nil {
			return nil, mapError("scan stock item", err, nil)
		}
		out = append(out, repository.ItemWithDamaged{Item: it, DamagedQuantity: damaged})
	}
	return out, mapError("list stock items", rows.Err(), nil)
}

// ListDamaged todos los registros dañados, por nombre.
func (r *StockItemRepo) ListDamaged(ctx context.Context) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE damaged ORDER BY name`)
	if err != nil {
		return nil, mapError("list damaged items", err, nil)
	}
	defer rows.Close()

	out := []*entity.StockItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, mapError("scan damaged item", err, nil)
		}
		out = append(out, it)
	}
	return out, mapError("list damaged items", rows.Err(), nil)
}
