package stock

import (
	"context"
	"strings"

	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
)

// Claves del mapa de campos crudos que entrega la capa de presentación.
const (
	FieldName            = "name"
	FieldQuantity        = "quantity"
	FieldType            = "type"
	FieldUnit            = "unit"
	FieldLocation        = "location"
	FieldDamagedQuantity = "damaged_quantity"
	FieldOrigin          = "origin"
)

// Fields campos de formulario ya extraídos pero sin tipar.
type Fields map[string]string

// Get devuelve el valor recortado de key ("" si no existe).
func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// Has indica si key vino en el formulario, aunque sea vacía.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Actor usuario que ejecuta la operación. Name vacío desactiva el mensaje de auditoría.
type Actor struct {
	ID   string
	Name string
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otro caso. Los conflictos de concurrencia
// (serialización, deadlock) se reportan como domain.ErrConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		itemRepo repository.StockItemRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// AuditSink recibe mensajes de auditoría legibles. Es best-effort: el servicio nunca falla
// por un error del sink.
type AuditSink interface {
	Record(ctx context.Context, userName, message string) error
}

// ItemDetail ítem junto con su registro dañado, si existe.
type ItemDetail struct {
	Item    *entity.StockItem `json:"item"`
	Damaged *entity.StockItem `json:"damaged,omitempty"`
}

// ItemCache caché de lectura de ItemDetail por ID de ítem. Cada ID tiene una generación que
// Invalidate incrementa: Set con una generación leída antes de un Invalidate no escribe nada,
// así una lectura lenta no repone datos anteriores a un commit.
type ItemCache interface {
	Get(ctx context.Context, id string) (*ItemDetail, bool, error)
	Version(ctx context.Context, id string) (int64, error)
	Set(ctx context.Context, id string, version int64, detail *ItemDetail) error
	Invalidate(ctx context.Context, ids ...string) error
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, string, string) error { return nil }

// NoopCache caché deshabilitada.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*ItemDetail, bool, error) { return nil, false, nil }
func (NoopCache) Version(context.Context, string) (int64, error) { return 0, nil }
func (NoopCache) Set(context.Context, string, int64, *ItemDetail) error { return nil }
func (NoopCache) Invalidate(context.Context, ...string) error { return nil }
