package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Estoque-api/internal/application/dto"
	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/pkg/logger"
)

// StockHandler maneja las peticiones HTTP del almacén.
type StockHandler struct {
	svc   *stock.Service
	query *stock.QueryService
	log   *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(svc *stock.Service, query *stock.QueryService, log *logger.Logger) *StockHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StockHandler{svc: svc, query: query, log: log.WithComponent("http")}
}

// Create godoc
// @Summary      Registrar ítem
// @Description  Los equipos con damaged_quantity > 0 generan además su registro dañado.
// @Tags         items
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        X-User-ID    header  string            false  "ID del usuario"
// @Param        X-User-Name  header  string            false  "Nombre del usuario"
// @Param        body         body    dto.ItemRequest   true   "Datos del ítem"
// @Success      201  {object}  dto.ItemDetailResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	fields, err := parseFields(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.svc.CreateItem(c.UserContext(), fields, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.detail(res))
}

// List godoc
// @Summary      Listar ítems
// @Description  No incluye registros dañados; cada fila trae su cantidad dañada.
// @Tags         items
// @Produce      json
// @Param        search  query  string  false  "Texto a buscar en el nombre"
// @Param        type    query  string  false  "Tipo (material, equipment)"
// @Param        order   query  string  false  "Orden por cantidad"  Enums(asc, desc)
// @Success      200  {object}  dto.ItemListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/items [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	rows, err := h.query.ListItems(c.UserContext(), c.Query("search"), c.Query("type"), c.Query("order"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToItemListResponse(rows))
}

// GetByID godoc
// @Summary      Obtener ítem por ID
// @Tags         items
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	d, err := h.query.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToItemDetailResponse(d.Item, d.Damaged))
}

// Update godoc
// @Summary      Editar ítem
// @Description  Para equipos, damaged_quantity se descuenta del total utilizable + dañado.
// @Tags         items
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        id    path  string           true  "ID del ítem"
// @Param        body  body  dto.ItemRequest  true  "Campos a actualizar"
// @Success      200  {object}  dto.ItemDetailResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	fields, err := parseFields(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.svc.UpdateItem(c.UserContext(), c.Params("id"), fields, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(h.detail(res))
}

// Delete godoc
// @Summary      Eliminar ítem
// @Description  Elimina el ítem, su registro dañado y su historial. Si es un registro dañado, su cantidad vuelve al padre.
// @Tags         items
// @Param        id   path  string  true  "ID del ítem"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if _, err := h.svc.DeleteItem(c.UserContext(), c.Params("id"), GetActor(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Movements godoc
// @Summary      Historial de movimientos
// @Tags         items
// @Produce      json
// @Param        id      path   string  true   "ID del ítem"
// @Param        limit   query  int     false  "Límite"  default(50)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	movs, err := h.query.ListMovements(c.UserContext(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementListResponse(movs, page))
}

// ListDamaged godoc
// @Summary      Listar registros dañados
// @Tags         damaged
// @Produce      json
// @Success      200  {object}  dto.DamagedListResponse
// @Router       /api/damaged [get]
func (h *StockHandler) ListDamaged(c *fiber.Ctx) error {
	items, err := h.query.ListDamaged(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToDamagedListResponse(items))
}

// UpdateDamaged godoc
// @Summary      Editar registro dañado
// @Description  La diferencia de cantidad se compensa en el padre.
// @Tags         damaged
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        id    path  string              true  "ID del registro dañado"
// @Param        body  body  dto.DamagedRequest  true  "Cantidad dañada, unidad y origen"
// @Success      200  {object}  dto.ItemDetailResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/damaged/{id} [put]
func (h *StockHandler) UpdateDamaged(c *fiber.Ctx) error {
	fields, err := parseFields(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.svc.UpdateDamagedChild(c.UserContext(), c.Params("id"), fields, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(h.detail(res))
}

// DeleteDamaged godoc
// @Summary      Eliminar registro dañado
// @Description  La cantidad dañada vuelve al padre.
// @Tags         damaged
// @Param        id   path  string  true  "ID del registro dañado"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/damaged/{id} [delete]
func (h *StockHandler) DeleteDamaged(c *fiber.Ctx) error {
	if _, err := h.svc.DeleteDamagedChild(c.UserContext(), c.Params("id"), GetActor(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// detail arma la respuesta e incluye como avisos los fallos no fatales (libro, auditoría).
func (h *StockHandler) detail(res *stock.Result) dto.ItemDetailResponse {
	out := dto.ToItemDetailResponse(res.Item, res.Damaged)
	if res.LedgerErr != nil {
		out.Warnings = append(out.Warnings, "movimiento no registrado: "+res.LedgerErr.Error())
	}
	if res.AuditErr != nil {
		h.log.Debug().Err(res.AuditErr).Msg("auditoría no registrada")
	}
	return out
}
