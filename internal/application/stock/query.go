package stock

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	domainstock "github.com/jhoicas/Estoque-api/internal/domain/stock"
	"github.com/jhoicas/Estoque-api/pkg/logger"
)

// QueryService lecturas del almacén. GetItem usa cache-aside con singleflight para que
// lecturas concurrentes del mismo ítem hagan una sola consulta.
type QueryService struct {
	itemRepo repository.StockItemRepository
	movRepo  repository.StockMovementRepository
	factory  *StrategyFactory
	cache    ItemCache
	log      *logger.Logger
	group    singleflight.Group
}

// NewQueryService construye el servicio de lectura. cache y log pueden ser nil.
func NewQueryService(itemRepo repository.StockItemRepository, movRepo repository.StockMovementRepository, factory *StrategyFactory, cache ItemCache, log *logger.Logger) *QueryService {
	if cache == nil {
		cache = NoopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &QueryService{
		itemRepo: itemRepo,
		movRepo:  movRepo,
		factory:  factory,
		cache:    cache,
		log:      log.WithComponent("stock-query"),
	}
}

// GetItem devuelve el ítem y su registro dañado. domain.ErrNotFound si no existe.
func (q *QueryService) GetItem(ctx context.Context, id string) (*ItemDetail, error) {
	if detail, ok, err := q.cache.Get(ctx, id); err != nil {
		q.log.Warn().Err(err).Str("item_id", id).Msg("lectura de caché fallida")
	} else if ok {
		return detail, nil
	}

	// El resultado se comparte entre quienes esperan la misma clave: la consulta no debe
	// depender de la cancelación de quien la inició.
	loadCtx := context.WithoutCancel(ctx)
	ch := q.group.DoChan(id, func() (interface{}, error) {
		return q.load(loadCtx, id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ItemDetail), nil
	}
}

// load lee el ítem del repositorio y lo guarda en caché si ninguna escritura lo invalidó
// mientras tanto.
func (q *QueryService) load(ctx context.Context, id string) (*ItemDetail, error) {
	version, verErr := q.cache.Version(ctx, id)
	if verErr != nil {
		q.log.Warn().Err(verErr).Str("item_id", id).Msg("lectura de generación de caché fallida")
	}
	item, err := q.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	detail := &ItemDetail{Item: item}
	if !item.Damaged {
		child, err := q.itemRepo.DamagedChild(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Damaged = child
	}
	if verErr == nil {
		if err := q.cache.Set(ctx, id, version, detail); err != nil {
			q.log.Warn().Err(err).Str("item_id", id).Msg("escritura de caché fallida")
		}
	}
	return detail, nil
}

// ListItems lista los ítems (sin registros dañados) con su cantidad dañada.
// Un tipo no registrado devuelve domain.ErrUnknownProductType.
func (q *QueryService) ListItems(ctx context.Context, search, itemType, order string) ([]repository.ItemWithDamaged, error) {
	filter := repository.ItemFilter{Search: search, Order: repository.OrderAsc}
	if domainstock.NormalizeTag(order) == repository.OrderDesc {
		filter.Order = repository.OrderDesc
	}
	if itemType != "" {
		tag, _, err := q.factory.Resolve(itemType)
		if err != nil {
			return nil, err
		}
		filter.Type = tag
	}
	return q.itemRepo.List(ctx, filter)
}

// ListDamaged lista todos los registros dañados.
func (q *QueryService) ListDamaged(ctx context.Context) ([]*entity.StockItem, error) {
	return q.itemRepo.ListDamaged(ctx)
}

// ListMovements historial del ítem, más reciente primero.
func (q *QueryService) ListMovements(ctx context.Context, itemID string, limit, offset int) ([]*entity.StockMovement, error) {
	item, err := q.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return q.movRepo.ListByItem(ctx, itemID, limit, offset)
}
