// Package stock contiene las validaciones puras de cantidades y etiquetas del almacén.
// No conoce la persistencia: recibe valores crudos y devuelve valores tipados o errores de dominio.
package stock

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
)

// origins acepta las etiquetas canónicas y las grafías heredadas del sistema anterior.
var origins = map[string]entity.Origin{
	"rented":    entity.OriginRented,
	"alugado":   entity.OriginRented,
	"alugada":   entity.OriginRented,
	"purchased": entity.OriginPurchased,
	"comprado":  entity.OriginPurchased,
	"comprada":  entity.OriginPurchased,
}

// MaxQuantity mayor cantidad que admite la columna INTEGER de PostgreSQL.
const MaxQuantity = math.MaxInt32

// ValidateQuantity convierte raw a entero. Falla con ErrInvalidQuantity si no es numérico, es
// negativo o supera MaxQuantity, y con ErrZeroNotAllowed si allowZero es false y el valor es 0.
func ValidateQuantity(raw string, allowZero bool) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, raw)
	}
	if qty < 0 || qty > MaxQuantity {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, qty)
	}
	if !allowZero && qty == 0 {
		return 0, domain.ErrZeroNotAllowed
	}
	return qty, nil
}

// ValidateOptionalQuantity como ValidateQuantity, pero un valor vacío equivale a 0.
func ValidateOptionalQuantity(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return ValidateQuantity(raw, true)
}

// NormalizeOrigin mapea texto libre a rented/purchased. Cualquier otro valor, incluido el vacío,
// devuelve OriginNone sin error: el llamador decide si es aceptable.
func NormalizeOrigin(raw string) entity.Origin {
	key := NormalizeTag(raw)
	if key == "" {
		return entity.OriginNone
	}
	return origins[key]
}

// ValidateDamagedAgainstAvailable falla si requested supera el total disponible
// (utilizable + dañado previos).
func ValidateDamagedAgainstAvailable(requested, priorUsable, priorDamaged int) error {
	available := priorUsable + priorDamaged
	if requested > available {
		return fmt.Errorf("%w: solicitada %d, disponible %d", domain.ErrDamagedExceedsAvailable, requested, available)
	}
	return nil
}

// NormalizeTag recorta, elimina acentos y pliega mayúsculas para comparar etiquetas.
func NormalizeTag(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return cases.Fold().String(s)
}
