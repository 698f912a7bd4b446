package repository

import (
	"context"

	"github.com/jhoicas/Estoque-api/internal/domain/entity"
)

// Orden de listado por cantidad.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ItemFilter filtros del listado de ítems (los registros dañados nunca se listan aquí).
type ItemFilter struct {
	Search string // coincidencia parcial sin distinguir mayúsculas sobre el nombre
	Type   string
	Order  string // asc | desc por cantidad
}

// ItemWithDamaged ítem padre junto con la cantidad de su registro dañado (0 si no tiene).
type ItemWithDamaged struct {
	Item            *entity.StockItem
	DamagedQuantity int
}

// StockItemRepository define el puerto de persistencia para StockItem (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el ítem no existe.
type StockItemRepository interface {
	Create(ctx context.Context, item *entity.StockItem) error
	GetByID(ctx context.Context, id string) (*entity.StockItem, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	// DamagedChild devuelve el único registro dañado del padre, bloqueado, o nil si no existe.
	// Si hay más de uno devuelve domain.ErrMultipleDamagedChildren.
	DamagedChild(ctx context.Context, parentID string) (*entity.StockItem, error)
	Update(ctx context.Context, item *entity.StockItem) error
	Delete(ctx context.Context, id string) error
	// DeleteDamagedChildren elimina todos los registros dañados del padre y devuelve sus IDs.
	DeleteDamagedChildren(ctx context.Context, parentID string) ([]string, error)
	List(ctx context.Context, filter ItemFilter) ([]ItemWithDamaged, error)
	ListDamaged(ctx context.Context) ([]*entity.StockItem, error)
}
