package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	domainstock "github.com/jhoicas/Estoque-api/internal/domain/stock"
	"github.com/jhoicas/Estoque-api/pkg/logger"
)

// Valores por defecto heredados de los datos existentes.
const (
	DefaultLocation   = "Estoque Geral"
	DefaultUnit       = "unidade"
	DefaultMaxRetries = 3
)

// Options parámetros del servicio.
type Options struct {
	DefaultLocation string
	DefaultUnit     string
	MaxRetries      int // reintentos ante domain.ErrConflict
}

// Result resultado de una operación de escritura. Un error devuelto junto a Result nil
// significa que no se confirmó nada. LedgerErr y AuditErr son informativos: la operación
// ya quedó confirmada y el llamador puede ignorarlos.
type Result struct {
	Item      *entity.StockItem
	Damaged   *entity.StockItem
	LedgerErr error
	AuditErr  error
}

// Service orquesta las escrituras de stock: validación, estrategia por tipo, persistencia,
// libro de movimientos y auditoría, una transacción por llamada.
type Service struct {
	txRunner TxRunner
	factory  *StrategyFactory
	audit    AuditSink
	cache    ItemCache
	log      *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService construye el servicio. audit, cache y log pueden ser nil.
func NewService(txRunner TxRunner, factory *StrategyFactory, audit AuditSink, cache ItemCache, log *logger.Logger, opts Options) *Service {
	if audit == nil {
		audit = noopAudit{}
	}
	if cache == nil {
		cache = NoopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.DefaultLocation == "" {
		opts.DefaultLocation = DefaultLocation
	}
	if opts.DefaultUnit == "" {
		opts.DefaultUnit = DefaultUnit
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Service{
		txRunner: txRunner,
		factory:  factory,
		audit:    audit,
		cache:    cache,
		log:      log.WithComponent("stock"),
		opts:     opts,
		now:      time.Now,
	}
}

// CreateItem valida el formulario, delega la creación a la estrategia del tipo y registra
// la entrada en el libro con la cantidad total solicitada.
func (s *Service) CreateItem(ctx context.Context, fields Fields, actor Actor) (*Result, error) {
	in, behavior, err := s.parseCreate(fields)
	if err != nil {
		return nil, err
	}

	var res Result
	err = s.runTx(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		res = Result{}
		parent, err := behavior.Create.Create(ctx, itemRepo, in)
		if err != nil {
			return err
		}
		child, err := itemRepo.DamagedChild(ctx, parent.ID)
		if err != nil {
			return err
		}
		res.Item, res.Damaged = parent, child

		ledger := NewLedger(movRepo, s.now)
		if err := ledger.RecordEntry(ctx, parent.ID, actor.ID, in.Total, "Producto registrado en el almacén."); err != nil {
			res.LedgerErr = err
			s.log.Warn().Err(err).Str("item_id", parent.ID).Msg("no se pudo registrar el movimiento de entrada")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	damaged := 0
	if res.Damaged != nil {
		damaged = res.Damaged.Quantity
	}
	s.record(ctx, actor, &res, fmt.Sprintf(
		"Agregó producto: %s (%d %s) - Ubicación: %s - Tipo: %s, Origen: %s, Dañados: %d",
		in.Name, in.Total, in.Unit, in.Location, in.Type, originLabel(res.Item.Origin), damaged,
	))
	return &res, nil
}

// UpdateItem aplica los campos básicos, delega la reconciliación de cantidades a la estrategia
// del tipo nuevo y registra un ajuste si cambió la cantidad utilizable o la dañada.
func (s *Service) UpdateItem(ctx context.Context, id string, fields Fields, actor Actor) (*Result, error) {
	name := fields.Get(FieldName)
	rawType := fields.Get(FieldType)
	unit := fields.Get(FieldUnit)
	location := fields.Get(FieldLocation)

	var res Result
	var touched []string
	err := s.runTx(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		res = Result{}
		touched = touched[:0]

		item, err := itemRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if item.IsDamagedChild() {
			return fmt.Errorf("%w: los registros dañados se editan desde su propio endpoint", domain.ErrInvalidInput)
		}
		child, err := itemRepo.DamagedChild(ctx, item.ID)
		if err != nil {
			return err
		}
		prior := Prior{Usable: item.Quantity, Child: child}
		if child != nil {
			prior.Damaged = child.Quantity
			touched = append(touched, child.ID)
		}

		typeTag := rawType
		if typeTag == "" {
			typeTag = item.Type
		}
		tag, behavior, err := s.factory.Resolve(typeTag)
		if err != nil {
			return err
		}

		if name != "" {
			item.Name = name
		}
		item.Type = tag
		item.Unit = firstNonEmpty(unit, item.Unit, s.opts.DefaultUnit)
		item.Location = firstNonEmpty(location, item.Location, s.opts.DefaultLocation)
		item.UpdatedAt = s.now()

		newChild, err := behavior.Update.Update(ctx, itemRepo, item, fields, prior)
		if err != nil {
			return err
		}
		if err := itemRepo.Update(ctx, item); err != nil {
			return err
		}
		res.Item, res.Damaged = item, newChild

		damagedAfter := 0
		if newChild != nil {
			damagedAfter = newChild.Quantity
			touched = append(touched, newChild.ID)
		}
		delta := item.Quantity - prior.Usable
		if delta != 0 || damagedAfter != prior.Damaged {
			note := fmt.Sprintf("Ajuste: utilizable %d→%d; dañados %d→%d", prior.Usable, item.Quantity, prior.Damaged, damagedAfter)
			if err := NewLedger(movRepo, s.now).RecordAdjustment(ctx, item.ID, actor.ID, delta, note); err != nil {
				res.LedgerErr = err
				s.log.Warn().Err(err).Str("item_id", item.ID).Msg("no se pudo registrar el ajuste")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, append(touched, id)...)
	s.record(ctx, actor, &res, fmt.Sprintf("Editó producto ID %s", id))
	return &res, nil
}

// UpdateDamagedChild edita directamente la cantidad de un registro dañado. El total
// padre + dañado se conserva: lo que se agrega al dañado sale del padre y viceversa.
func (s *Service) UpdateDamagedChild(ctx context.Context, childID string, fields Fields, actor Actor) (*Result, error) {
	newDamaged, err := domainstock.ValidateOptionalQuantity(fields.Get(FieldDamagedQuantity))
	if err != nil {
		return nil, err
	}
	unit := fields.Get(FieldUnit)
	origin := domainstock.NormalizeOrigin(fields.Get(FieldOrigin))

	var res Result
	err = s.runTx(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		res = Result{}
		parent, child, err := lockDamagedPair(ctx, itemRepo, childID)
		if err != nil {
			return err
		}
		if err := domainstock.ValidateDamagedAgainstAvailable(newDamaged, parent.Quantity, child.Quantity); err != nil {
			return err
		}

		priorUsable, priorDamaged := parent.Quantity, child.Quantity
		total := priorUsable + priorDamaged
		now := s.now()

		child.Quantity = newDamaged
		child.Name = entity.DamagedName(parent.Name)
		child.Unit = firstNonEmpty(unit, child.Unit)
		if origin != entity.OriginNone {
			child.Origin = origin
		}
		child.UpdatedAt = now
		parent.Quantity = total - newDamaged
		parent.UpdatedAt = now

		if err := itemRepo.Update(ctx, child); err != nil {
			return err
		}
		if err := itemRepo.Update(ctx, parent); err != nil {
			return err
		}
		res.Item, res.Damaged = child, nil

		if delta := parent.Quantity - priorUsable; delta != 0 {
			note := fmt.Sprintf("Ajuste por edición de dañados: utilizable %d→%d; dañados %d→%d", priorUsable, parent.Quantity, priorDamaged, newDamaged)
			if err := NewLedger(movRepo, s.now).RecordAdjustment(ctx, parent.ID, actor.ID, delta, note); err != nil {
				res.LedgerErr = err
				s.log.Warn().Err(err).Str("item_id", parent.ID).Msg("no se pudo registrar el ajuste")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, childID, *res.Item.OriginID)
	s.record(ctx, actor, &res, fmt.Sprintf("Editó equipo dañado ID %s", childID))
	return &res, nil
}

// DeleteDamagedChild elimina un registro dañado y devuelve su cantidad al padre.
// Result.Item es el padre actualizado.
func (s *Service) DeleteDamagedChild(ctx context.Context, childID string, actor Actor) (*Result, error) {
	var res Result
	err := s.runTx(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		res = Result{}
		parent, child, err := lockDamagedPair(ctx, itemRepo, childID)
		if err != nil {
			return err
		}
		return s.foldDamagedChild(ctx, itemRepo, movRepo, parent, child, actor, &res)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, childID, res.Item.ID)
	s.record(ctx, actor, &res, fmt.Sprintf("Eliminó equipo dañado ID %s", childID))
	return &res, nil
}

// DeleteItem elimina un ítem junto con sus registros dañados y su historial. Si el ítem es
// un registro dañado, su cantidad vuelve al padre como en DeleteDamagedChild.
func (s *Service) DeleteItem(ctx context.Context, id string, actor Actor) (*Result, error) {
	var res Result
	var message string
	var touched []string
	err := s.runTx(ctx, func(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository) error {
		res = Result{}
		touched = touched[:0]

		probe, err := itemRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if probe == nil {
			return domain.ErrNotFound
		}
		if probe.IsDamagedChild() {
			parent, child, err := lockDamagedPair(ctx, itemRepo, id)
			if err != nil {
				return err
			}
			touched = append(touched, parent.ID)
			message = fmt.Sprintf("Eliminó equipo dañado ID %s", id)
			return s.foldDamagedChild(ctx, itemRepo, movRepo, parent, child, actor, &res)
		}

		item, err := itemRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		childIDs, err := itemRepo.DeleteDamagedChildren(ctx, id)
		if err != nil {
			return err
		}
		touched = append(touched, childIDs...)
		if err := itemRepo.Delete(ctx, id); err != nil {
			return err
		}
		res.Item = item
		message = fmt.Sprintf("Eliminó producto: %s (ID %s)", item.Name, item.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, append(touched, id)...)
	s.record(ctx, actor, &res, message)
	return &res, nil
}

// foldDamagedChild suma la cantidad del dañado al padre y elimina el dañado.
func (s *Service) foldDamagedChild(
	ctx context.Context,
	itemRepo repository.StockItemRepository,
	movRepo repository.StockMovementRepository,
	parent, child *entity.StockItem,
	actor Actor,
	res *Result,
) error {
	priorUsable := parent.Quantity
	parent.Quantity += child.Quantity
	parent.UpdatedAt = s.now()

	if err := itemRepo.Delete(ctx, child.ID); err != nil {
		return err
	}
	if err := itemRepo.Update(ctx, parent); err != nil {
		return err
	}
	res.Item = parent

	if child.Quantity > 0 {
		note := fmt.Sprintf("Ajuste por baja de dañados: utilizable %d→%d; dañados %d→0", priorUsable, parent.Quantity, child.Quantity)
		if err := NewLedger(movRepo, s.now).RecordAdjustment(ctx, parent.ID, actor.ID, child.Quantity, note); err != nil {
			res.LedgerErr = err
			s.log.Warn().Err(err).Str("item_id", parent.ID).Msg("no se pudo registrar el ajuste")
		}
	}
	return nil
}

// lockDamagedPair valida que childID sea un registro dañado con padre y bloquea ambas filas,
// siempre en orden padre -> hijo.
func lockDamagedPair(ctx context.Context, itemRepo repository.StockItemRepository, childID string) (*entity.StockItem, *entity.StockItem, error) {
	probe, err := itemRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	if probe == nil {
		return nil, nil, domain.ErrNotFound
	}
	if !probe.IsDamagedChild() {
		return nil, nil, domain.ErrNotADamagedRecord
	}
	parentID := *probe.OriginID

	parent, err := itemRepo.GetForUpdate(ctx, parentID)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil {
		return nil, nil, domain.ErrOrphanedDamagedRecord
	}
	child, err := itemRepo.GetForUpdate(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	if child == nil {
		return nil, nil, domain.ErrNotFound
	}
	// Entre la lectura sin bloqueo y el bloqueo el hijo pudo cambiar de padre.
	if !child.IsDamagedChild() || *child.OriginID != parentID {
		return nil, nil, domain.ErrConflict
	}
	return parent, child, nil
}

// runTx ejecuta fn en una transacción y la reintenta ante conflictos de concurrencia.
// Cada intento vuelve a leer y validar las cantidades.
func (s *Service) runTx(ctx context.Context, fn func(repository.StockItemRepository, repository.StockMovementRepository) error) error {
	var err error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando")
		}
		err = s.txRunner.Run(ctx, fn)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Service) parseCreate(fields Fields) (CreateInput, Behavior, error) {
	var missing []string
	for _, key := range []string{FieldName, FieldQuantity, FieldType, FieldUnit} {
		if fields.Get(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return CreateInput{}, Behavior{}, fmt.Errorf("%w: campos obligatorios: %s", domain.ErrFormValidation, strings.Join(missing, ", "))
	}

	tag, behavior, err := s.factory.Resolve(fields.Get(FieldType))
	if err != nil {
		return CreateInput{}, Behavior{}, err
	}
	total, err := domainstock.ValidateQuantity(fields.Get(FieldQuantity), true)
	if err != nil {
		return CreateInput{}, Behavior{}, fmt.Errorf("%w: %w", domain.ErrFormValidation, err)
	}
	damaged, err := domainstock.ValidateOptionalQuantity(fields.Get(FieldDamagedQuantity))
	if err != nil {
		return CreateInput{}, Behavior{}, fmt.Errorf("%w: %w", domain.ErrFormValidation, err)
	}

	in := CreateInput{
		Name:     fields.Get(FieldName),
		Total:    total,
		Damaged:  damaged,
		Type:     tag,
		Unit:     fields.Get(FieldUnit),
		Location: firstNonEmpty(fields.Get(FieldLocation), s.opts.DefaultLocation),
		Origin:   domainstock.NormalizeOrigin(fields.Get(FieldOrigin)),
	}
	if v, ok := behavior.Create.(CreateValidator); ok {
		if err := v.ValidateCreate(in); err != nil {
			return CreateInput{}, Behavior{}, fmt.Errorf("%w: %w", domain.ErrFormValidation, err)
		}
	}
	return in, behavior, nil
}

// record envía el mensaje de auditoría después del commit; los errores solo se registran.
func (s *Service) record(ctx context.Context, actor Actor, res *Result, message string) {
	if actor.Name == "" {
		return
	}
	if err := s.audit.Record(ctx, actor.Name, message); err != nil {
		res.AuditErr = err
		s.log.Warn().Err(err).Str("user", actor.Name).Msg("no se pudo registrar la auditoría")
	}
}

func (s *Service) invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.log.Warn().Err(err).Strs("ids", ids).Msg("no se pudo invalidar la caché")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func originLabel(o entity.Origin) string {
	if o == entity.OriginNone {
		return "ninguno"
	}
	return string(o)
}
