// Package memory implementa los puertos de stock en memoria. Las unidades de trabajo se
// serializan con un mutex y se aplican copy-on-write: o se confirma todo o nada.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
)

var (
	_ stock.TxRunner                     = (*Store)(nil)
	_ repository.StockItemRepository     = (*ItemRepo)(nil)
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
)

type state struct {
	items     map[string]*entity.StockItem
	movements []*entity.StockMovement
}

func (st *state) clone() *state {
	c := &state{
		items:     make(map[string]*entity.StockItem, len(st.items)),
		movements: make([]*entity.StockMovement, len(st.movements)),
	}
	for id, it := range st.items {
		c.items[id] = it.Clone()
	}
	copy(c.movements, st.movements)
	return c
}

// Store almacén en memoria. El valor cero no es usable: usar NewStore.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: &state{items: make(map[string]*entity.StockItem)}}
}

// Run ejecuta fn sobre una copia del estado y la publica solo si fn devuelve nil.
// fn no debe usar Items() ni Movements() del mismo Store: el mutex ya está tomado.
func (s *Store) Run(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&ItemRepo{st: work}, &MovementRepo{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Items repositorio de lectura/escritura fuera de transacción (cada llamada es atómica).
func (s *Store) Items() *ItemRepo {
	return &ItemRepo{store: s}
}

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo {
	return &MovementRepo{store: s}
}

// view ejecuta fn sobre el estado de la transacción o, fuera de ella, sobre el estado
// confirmado con el mutex tomado.
func view(store *Store, st *state, fn func(*state) error) error {
	if st != nil {
		return fn(st)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	return fn(store.st)
}

// ItemRepo StockItemRepository en memoria.
type ItemRepo struct {
	store *Store
	st    *state
}

func (r *ItemRepo) with(fn func(*state) error) error { return view(r.store, r.st, fn) }

// Create inserta el ítem. Replica las restricciones del esquema SQL: cantidad no negativa,
// ID único y un solo registro dañado por padre.
func (r *ItemRepo) Create(_ context.Context, item *entity.StockItem) error {
	return r.with(func(st *state) error {
		if item.Quantity < 0 {
			return domain.ErrInvalidQuantity
		}
		if _, ok := st.items[item.ID]; ok {
			return domain.ErrDuplicate
		}
		if item.IsDamagedChild() {
			if _, ok := st.items[*item.OriginID]; !ok {
				return domain.ErrOrphanedDamagedRecord
			}
			if len(damagedOf(st, *item.OriginID)) > 0 {
				return domain.ErrDuplicate
			}
		}
		st.items[item.ID] = item.Clone()
		return nil
	})
}

// GetByID devuelve una copia del ítem o nil.
func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.with(func(st *state) error {
		out = st.items[id].Clone()
		return nil
	})
	return out, err
}

// GetForUpdate igual que GetByID: la transacción ya es exclusiva.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	return r.GetByID(ctx, id)
}

// DamagedChild devuelve el único registro dañado de parentID.
func (r *ItemRepo) DamagedChild(_ context.Context, parentID string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.with(func(st *state) error {
		children := damagedOf(st, parentID)
		switch len(children) {
		case 0:
			return nil
		case 1:
			out = children[0].Clone()
			return nil
		default:
			return domain.ErrMultipleDamagedChildren
		}
	})
	return out, err
}

// Update reemplaza el ítem existente.
func (r *ItemRepo) Update(_ context.Context, item *entity.StockItem) error {
	return r.with(func(st *state) error {
		if item.Quantity < 0 {
			return domain.ErrInvalidQuantity
		}
		if _, ok := st.items[item.ID]; !ok {
			return domain.ErrNotFound
		}
		st.items[item.ID] = item.Clone()
		return nil
	})
}

// Delete elimina el ítem en cascada: registros dañados y movimientos.
func (r *ItemRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		if _, ok := st.items[id]; !ok {
			return nil
		}
		removed := map[string]bool{id: true}
		for _, child := range damagedOf(st, id) {
			removed[child.ID] = true
		}
		for rid := range removed {
			delete(st.items, rid)
		}
		kept := st.movements[:0:0]
		for _, m := range st.movements {
			if !removed[m.ItemID] {
				kept = append(kept, m)
			}
		}
		st.movements = kept
		return nil
	})
}

// DeleteDamagedChildren elimina todos los registros dañados de parentID y devuelve sus IDs.
func (r *ItemRepo) DeleteDamagedChildren(_ context.Context, parentID string) ([]string, error) {
	var ids []string
	err := r.with(func(st *state) error {
		for _, child := range damagedOf(st, parentID) {
			delete(st.items, child.ID)
			ids = append(ids, child.ID)
		}
		return nil
	})
	return ids, err
}

// List ítems que no son registros dañados, filtrados y ordenados por cantidad.
func (r *ItemRepo) List(_ context.Context, filter repository.ItemFilter) ([]repository.ItemWithDamaged, error) {
	var out []repository.ItemWithDamaged
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	err := r.with(func(st *state) error {
		for _, it := range st.items {
			if it.Damaged {
				continue
			}
			if filter.Type != "" && it.Type != filter.Type {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(it.Name), search) {
				continue
			}
			row := repository.ItemWithDamaged{Item: it.Clone()}
			for _, child := range damagedOf(st, it.ID) {
				row.DamagedQuantity += child.Quantity
			}
			out = append(out, row)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Item, out[j].Item
		if a.Quantity != b.Quantity {
			if filter.Order == repository.OrderDesc {
				return a.Quantity > b.Quantity
			}
			return a.Quantity < b.Quantity
		}
		return a.Name < b.Name
	})
	return out, err
}

// ListDamaged todos los registros dañados ordenados por nombre.
func (r *ItemRepo) ListDamaged(_ context.Context) ([]*entity.StockItem, error) {
	var out []*entity.StockItem
	err := r.with(func(st *state) error {
		for _, it := range st.items {
			if it.Damaged {
				out = append(out, it.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func damagedOf(st *state, parentID string) []*entity.StockItem {
	var out []*entity.StockItem
	for _, it := range st.items {
		if it.IsDamagedChild() && *it.OriginID == parentID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// MovementRepo StockMovementRepository en memoria (solo inserción).
type MovementRepo struct {
	store *Store
	st    *state
}

// Create agrega el movimiento al final del libro.
func (r *MovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	return view(r.store, r.st, func(st *state) error {
		if _, ok := st.items[movement.ItemID]; !ok {
			return domain.ErrNotFound
		}
		m := *movement
		st.movements = append(st.movements, &m)
		return nil
	})
}

// ListByItem movimientos del ítem, más recientes primero.
func (r *MovementRepo) ListByItem(_ context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := view(r.store, r.st, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			if st.movements[i].ItemID == itemID {
				m := *st.movements[i]
				out = append(out, &m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []*entity.StockMovement{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
