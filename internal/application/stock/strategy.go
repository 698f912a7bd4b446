package stock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	domainstock "github.com/jhoicas/Estoque-api/internal/domain/stock"
)

// CreateInput datos ya validados para crear un ítem.
type CreateInput struct {
	Name     string
	Total    int // cantidad total solicitada (utilizable + dañada)
	Damaged  int
	Type     string // etiqueta canónica
	Unit     string
	Location string
	Origin   entity.Origin
}

// Prior estado de cantidades capturado antes de mutar el ítem.
type Prior struct {
	Usable  int
	Damaged int
	Child   *entity.StockItem // registro dañado bloqueado, nil si no existe
}

// CreateStrategy construye un ítem (y sus registros derivados) según su tipo.
// Devuelve el padre; cualquier registro derivado queda en la misma transacción.
type CreateStrategy interface {
	Create(ctx context.Context, items repository.StockItemRepository, in CreateInput) (*entity.StockItem, error)
}

// CreateValidator lo implementan las estrategias con reglas propias sobre CreateInput.
// Se invoca al parsear el formulario, antes de abrir la transacción.
type CreateValidator interface {
	ValidateCreate(in CreateInput) error
}

// UpdateStrategy reconcilia cantidad y registro dañado de un ítem existente.
// Debe validar todo antes de tocar item o el repositorio. Devuelve el registro dañado
// resultante (nil si no queda ninguno).
type UpdateStrategy interface {
	Update(ctx context.Context, items repository.StockItemRepository, item *entity.StockItem, fields Fields, prior Prior) (*entity.StockItem, error)
}

// Behavior par de comportamientos registrados para una etiqueta de tipo.
type Behavior struct {
	Create CreateStrategy
	Update UpdateStrategy
}

// StrategyFactory registro de comportamientos por etiqueta de tipo. Seguro para lecturas concurrentes.
type StrategyFactory struct {
	mu        sync.RWMutex
	behaviors map[string]Behavior
	aliases   map[string]string
}

// NewStrategyFactory crea un registro vacío.
func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{
		behaviors: make(map[string]Behavior),
		aliases:   make(map[string]string),
	}
}

// NewDefaultStrategyFactory registra material y equipment, más la grafía heredada "equipamento".
func NewDefaultStrategyFactory() *StrategyFactory {
	f := NewStrategyFactory()
	_ = f.Register(entity.ItemTypeMaterial, Behavior{Create: MaterialStrategy{}, Update: MaterialStrategy{}})
	_ = f.Register(entity.ItemTypeEquipment, Behavior{Create: EquipmentStrategy{}, Update: EquipmentStrategy{}})
	_ = f.Alias("equipamento", entity.ItemTypeEquipment)
	return f
}

// Register asocia tag a un comportamiento; reemplaza el existente si ya estaba registrado.
func (f *StrategyFactory) Register(tag string, b Behavior) error {
	key := domainstock.NormalizeTag(tag)
	if key == "" || b.Create == nil || b.Update == nil {
		return fmt.Errorf("%w: registro de estrategia incompleto para %q", domain.ErrInvalidInput, tag)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.behaviors[key] = b
	delete(f.aliases, key)
	return nil
}

// Alias hace que alias resuelva al comportamiento (y la etiqueta canónica) de tag.
func (f *StrategyFactory) Alias(alias, tag string) error {
	a, t := domainstock.NormalizeTag(alias), domainstock.NormalizeTag(tag)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.behaviors[t]; !ok || a == "" {
		return fmt.Errorf("%w: alias %q -> %q", domain.ErrUnknownProductType, alias, tag)
	}
	f.aliases[a] = t
	return nil
}

// Resolve devuelve la etiqueta canónica y el comportamiento para tag.
func (f *StrategyFactory) Resolve(tag string) (string, Behavior, error) {
	key := domainstock.NormalizeTag(tag)
	f.mu.RLock()
	defer f.mu.RUnlock()
	if canonical, ok := f.aliases[key]; ok {
		key = canonical
	}
	b, ok := f.behaviors[key]
	if !ok {
		return "", Behavior{}, fmt.Errorf("%w: %q", domain.ErrUnknownProductType, tag)
	}
	return key, b, nil
}

// CreateStrategy devuelve la estrategia de creación para tag.
func (f *StrategyFactory) CreateStrategy(tag string) (CreateStrategy, error) {
	_, b, err := f.Resolve(tag)
	if err != nil {
		return nil, err
	}
	return b.Create, nil
}

// UpdateStrategy devuelve la estrategia de actualización para tag.
func (f *StrategyFactory) UpdateStrategy(tag string) (UpdateStrategy, error) {
	_, b, err := f.Resolve(tag)
	if err != nil {
		return nil, err
	}
	return b.Update, nil
}

// Types etiquetas canónicas registradas, ordenadas.
func (f *StrategyFactory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.behaviors))
	for k := range f.behaviors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
