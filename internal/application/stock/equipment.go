package stock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	domainstock "github.com/jhoicas/Estoque-api/internal/domain/stock"
)

// EquipmentStrategy equipos: origen y un único registro dañado enlazado al padre.
type EquipmentStrategy struct{}

var (
	_ CreateStrategy  = EquipmentStrategy{}
	_ UpdateStrategy  = EquipmentStrategy{}
	_ CreateValidator = EquipmentStrategy{}
)

// ValidateCreate la cantidad dañada no puede superar la total.
func (EquipmentStrategy) ValidateCreate(in CreateInput) error {
	return domainstock.ValidateDamagedAgainstAvailable(in.Damaged, in.Total, 0)
}

// Create guarda en el padre solo la parte utilizable (Total - Damaged) y, si hay dañados,
// crea el registro dañado con el resto.
func (s EquipmentStrategy) Create(ctx context.Context, items repository.StockItemRepository, in CreateInput) (*entity.StockItem, error) {
	if err := s.ValidateCreate(in); err != nil {
		return nil, err
	}
	now := time.Now()
	parent := &entity.StockItem{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Quantity:  in.Total - in.Damaged,
		Location:  in.Location,
		Unit:      in.Unit,
		Type:      in.Type,
		Origin:    in.Origin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := items.Create(ctx, parent); err != nil {
		return nil, err
	}
	if in.Damaged > 0 {
		child := newDamagedChild(parent, in.Damaged, now)
		if err := items.Create(ctx, child); err != nil {
			return nil, err
		}
	}
	return parent, nil
}

// Update conserva el total (utilizable + dañado previos): la nueva cantidad dañada sale
// del padre. La validación ocurre antes de cualquier mutación. Sin campo origin se
// conserva el origen actual.
func (EquipmentStrategy) Update(ctx context.Context, items repository.StockItemRepository, item *entity.StockItem, fields Fields, prior Prior) (*entity.StockItem, error) {
	origin := domainstock.NormalizeOrigin(fields.Get(FieldOrigin))
	damaged, err := domainstock.ValidateOptionalQuantity(fields.Get(FieldDamagedQuantity))
	if err != nil {
		return nil, err
	}
	if err := domainstock.ValidateDamagedAgainstAvailable(damaged, prior.Usable, prior.Damaged); err != nil {
		return nil, err
	}

	if fields.Has(FieldOrigin) {
		item.Origin = origin
	}
	item.Quantity = prior.Usable + prior.Damaged - damaged

	if damaged == 0 {
		if _, err := items.DeleteDamagedChildren(ctx, item.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	now := time.Now()
	if prior.Child == nil {
		child := newDamagedChild(item, damaged, now)
		if err := items.Create(ctx, child); err != nil {
			return nil, err
		}
		return child, nil
	}
	child := prior.Child
	syncDamagedChild(child, item)
	child.Quantity = damaged
	child.UpdatedAt = now
	if err := items.Update(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

func newDamagedChild(parent *entity.StockItem, qty int, now time.Time) *entity.StockItem {
	parentID := parent.ID
	child := &entity.StockItem{
		ID:        uuid.New().String(),
		Quantity:  qty,
		Damaged:   true,
		OriginID:  &parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	syncDamagedChild(child, parent)
	return child
}

// syncDamagedChild copia del padre los atributos que el registro dañado refleja.
func syncDamagedChild(child, parent *entity.StockItem) {
	child.Name = entity.DamagedName(parent.Name)
	child.Unit = parent.Unit
	child.Type = parent.Type
	child.Origin = parent.Origin
	child.Location = parent.Location
}
