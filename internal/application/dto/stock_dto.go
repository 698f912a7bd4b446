package dto

import (
	"time"

	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
)

// ItemRequest cuerpo de alta/edición. Se acepta JSON o formulario; todos los valores llegan
// como texto y los valida el servicio.
type ItemRequest struct {
	Name            string `json:"name" form:"name"`
	Quantity        string `json:"quantity" form:"quantity"`
	Type            string `json:"type" form:"type"`
	Unit            string `json:"unit" form:"unit"`
	Location        string `json:"location" form:"location"`
	DamagedQuantity string `json:"damaged_quantity" form:"damaged_quantity"`
	Origin          string `json:"origin" form:"origin"`
}

// DamagedRequest cuerpo de edición de un registro dañado.
type DamagedRequest struct {
	DamagedQuantity string `json:"damaged_quantity" form:"damaged_quantity"`
	Unit            string `json:"unit" form:"unit"`
	Origin          string `json:"origin" form:"origin"`
}

// ItemResponse ítem del almacén.
type ItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Location  string    `json:"location"`
	Unit      string    `json:"unit"`
	Type      string    `json:"type"`
	Origin    string    `json:"origin,omitempty"`
	Damaged   bool      `json:"damaged"`
	OriginID  *string   `json:"origin_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemDetailResponse ítem con su registro dañado y avisos no fatales de la operación.
type ItemDetailResponse struct {
	Item     ItemResponse  `json:"item"`
	Damaged  *ItemResponse `json:"damaged,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ItemListEntry fila del listado: ítem y cantidad dañada agregada.
type ItemListEntry struct {
	ItemResponse
	DamagedQuantity int `json:"damaged_quantity"`
}

// ItemListResponse listado de ítems.
type ItemListResponse struct {
	Items []ItemListEntry `json:"items"`
}

// DamagedListResponse listado de registros dañados.
type DamagedListResponse struct {
	Items []ItemResponse `json:"items"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Quantity  int       `json:"quantity"`
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementListResponse historial paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ToItemResponse mapea la entidad a la respuesta.
func ToItemResponse(it *entity.StockItem) ItemResponse {
	return ItemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Quantity:  it.Quantity,
		Location:  it.Location,
		Unit:      it.Unit,
		Type:      it.Type,
		Origin:    string(it.Origin),
		Damaged:   it.Damaged,
		OriginID:  it.OriginID,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

// ToItemDetailResponse item y registro dañado opcional.
func ToItemDetailResponse(item, damaged *entity.StockItem) ItemDetailResponse {
	out := ItemDetailResponse{Item: ToItemResponse(item)}
	if damaged != nil {
		d := ToItemResponse(damaged)
		out.Damaged = &d
	}
	return out
}

// ToItemListResponse mapea las filas del repositorio.
func ToItemListResponse(rows []repository.ItemWithDamaged) ItemListResponse {
	out := ItemListResponse{Items: make([]ItemListEntry, 0, len(rows))}
	for _, r := range rows {
		out.Items = append(out.Items, ItemListEntry{ItemResponse: ToItemResponse(r.Item), DamagedQuantity: r.DamagedQuantity})
	}
	return out
}

// ToDamagedListResponse mapea registros dañados.
func ToDamagedListResponse(items []*entity.StockItem) DamagedListResponse {
	out := DamagedListResponse{Items: make([]ItemResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, ToItemResponse(it))
	}
	return out
}

// ToMovementListResponse mapea movimientos con la página solicitada.
func ToMovementListResponse(movs []*entity.StockMovement, page PageRequest) MovementListResponse {
	out := MovementListResponse{
		Items: make([]MovementResponse, 0, len(movs)),
		Page:  PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, m := range movs {
		out.Items = append(out.Items, MovementResponse{
			ID:        m.ID,
			Type:      m.Type,
			Quantity:  m.Quantity,
			ItemID:    m.ItemID,
			UserID:    m.UserID,
			Note:      m.Note,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}
