package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Estoque-api/internal/application/dto"
	"github.com/jhoicas/Estoque-api/internal/domain"
)

// errorMapping de error de dominio a estado HTTP y código. El orden importa: los errores
// envueltos en ErrFormValidation se reportan por su causa concreta.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrDamagedExceedsAvailable, fiber.StatusUnprocessableEntity, "DAMAGED_EXCEEDS_AVAILABLE"},
	{domain.ErrNotADamagedRecord, fiber.StatusUnprocessableEntity, "NOT_A_DAMAGED_RECORD"},
	{domain.ErrUnknownProductType, fiber.StatusBadRequest, "UNKNOWN_TYPE"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrZeroNotAllowed, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrFormValidation, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrOrphanedDamagedRecord, fiber.StatusConflict, "ORPHANED_DAMAGED_RECORD"},
	{domain.ErrMultipleDamagedChildren, fiber.StatusConflict, "MULTIPLE_DAMAGED_RECORDS"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
}

// writeError responde con dto.ErrorResponse según el error de dominio; 500 si no se reconoce.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
