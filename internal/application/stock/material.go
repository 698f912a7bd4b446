package stock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	domainstock "github.com/jhoicas/Estoque-api/internal/domain/stock"
)

// MaterialStrategy materiales: sin origen y sin registro dañado.
type MaterialStrategy struct{}

var (
	_ CreateStrategy = MaterialStrategy{}
	_ UpdateStrategy = MaterialStrategy{}
)

// Create persiste un único ítem con la cantidad total solicitada.
func (MaterialStrategy) Create(ctx context.Context, items repository.StockItemRepository, in CreateInput) (*entity.StockItem, error) {
	now := time.Now()
	item := &entity.StockItem{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Quantity:  in.Total,
		Location:  in.Location,
		Unit:      in.Unit,
		Type:      in.Type,
		Origin:    entity.OriginNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update fija la cantidad desde el formulario, limpia el origen y elimina los registros
// dañados (un equipo convertido a material pierde su división).
func (MaterialStrategy) Update(ctx context.Context, items repository.StockItemRepository, item *entity.StockItem, fields Fields, _ Prior) (*entity.StockItem, error) {
	qty, err := domainstock.ValidateQuantity(fields.Get(FieldQuantity), true)
	if err != nil {
		return nil, err
	}
	item.Origin = entity.OriginNone
	item.Quantity = qty
	if _, err := items.DeleteDamagedChildren(ctx, item.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
