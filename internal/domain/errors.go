package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Entrada de formulario.
	ErrFormValidation     = errors.New("formulario inválido")
	ErrInvalidQuantity    = errors.New("la cantidad debe ser un número entero no negativo")
	ErrZeroNotAllowed     = errors.New("la cantidad debe ser mayor que cero")
	ErrUnknownProductType = errors.New("tipo de producto desconocido")

	// Reglas de negocio.
	ErrDamagedExceedsAvailable = errors.New("cantidad dañada excede el total disponible")

	// Integridad padre/hijo dañado.
	ErrNotADamagedRecord       = errors.New("el registro no es un equipo dañado válido")
	ErrOrphanedDamagedRecord   = errors.New("equipo dañado sin producto padre")
	ErrMultipleDamagedChildren = errors.New("el producto tiene más de un registro dañado")
)
