package stock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/memory"
)

// mapCache ItemCache en memoria que cuenta accesos.
type mapCache struct {
	mu          sync.Mutex
	data        map[string]*stock.ItemDetail
	gen         map[string]int64
	hits, sets  int
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]*stock.ItemDetail{}, gen: map[string]int64{}}
}

func (c *mapCache) Get(_ context.Context, id string) (*stock.ItemDetail, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[id]
	if ok {
		c.hits++
	}
	return d, ok, nil
}

func (c *mapCache) Version(_ context.Context, id string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[id], nil
}

func (c *mapCache) Set(_ context.Context, id string, version int64, d *stock.ItemDetail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[id] != version {
		return nil
	}
	c.data[id] = d
	c.sets++
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.data, id)
		c.gen[id]++
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

type fixture struct {
	store *memory.Store
	cache *mapCache
	svc   *stock.Service
	query *stock.QueryService
}

func newFixture() *fixture {
	store := memory.NewStore()
	cache := newMapCache()
	factory := stock.NewDefaultStrategyFactory()
	return &fixture{
		store: store,
		cache: cache,
		svc:   stock.NewService(store, factory, nil, cache, nil, stock.Options{}),
		query: stock.NewQueryService(store.Items(), store.Movements(), factory, cache, nil),
	}
}

func TestGetItem_CacheAside(t *testing.T) {
	fx := newFixture()
	created := createDrill(t, fx.svc)

	d, err := fx.query.GetItem(context.Background(), created.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Item.Quantity)
	require.NotNil(t, d.Damaged)
	assert.Equal(t, 3, d.Damaged.Quantity)
	assert.Equal(t, 1, fx.cache.sets)

	_, err = fx.query.GetItem(context.Background(), created.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fx.cache.hits)

	// Una escritura invalida el padre y su registro dañado.
	_, err = fx.svc.UpdateItem(context.Background(), created.Item.ID, stock.Fields{stock.FieldDamagedQuantity: "5"}, ana)
	require.NoError(t, err)
	assert.Contains(t, fx.cache.invalidated, created.Item.ID)
	assert.Contains(t, fx.cache.invalidated, created.Damaged.ID)

	d, err = fx.query.GetItem(context.Background(), created.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, d.Item.Quantity)
	assert.Equal(t, 5, d.Damaged.Quantity)
}

// pausingRepo detiene la primera lectura por ID hasta que el test la libere.
type pausingRepo struct {
	repository.StockItemRepository
	once   sync.Once
	read   chan struct{}
	resume chan struct{}
}

func (r *pausingRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	item, err := r.StockItemRepository.GetByID(ctx, id)
	r.once.Do(func() {
		close(r.read)
		<-r.resume
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return item, err
}

func TestGetItem_LecturaLentaNoReponeDatosViejos(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	created := createDrill(t, fx.svc)

	repo := &pausingRepo{
		StockItemRepository: fx.store.Items(),
		read:                make(chan struct{}),
		resume:              make(chan struct{}),
	}
	query := stock.NewQueryService(repo, fx.store.Movements(), stock.NewDefaultStrategyFactory(), fx.cache, nil)

	done := make(chan error, 1)
	go func() {
		_, err := query.GetItem(ctx, created.Item.ID)
		done <- err
	}()

	// La lectura ya tiene el 7/3 anterior cuando la edición confirma 5/5 e invalida.
	<-repo.read
	_, err := fx.svc.UpdateItem(ctx, created.Item.ID, stock.Fields{stock.FieldDamagedQuantity: "5"}, ana)
	require.NoError(t, err)
	close(repo.resume)
	require.NoError(t, <-done)

	d, err := query.GetItem(ctx, created.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, d.Item.Quantity)
	require.NotNil(t, d.Damaged)
	assert.Equal(t, 5, d.Damaged.Quantity)
}

func TestGetItem_CancelacionNoAfectaAOtrosLectores(t *testing.T) {
	fx := newFixture()
	created := createDrill(t, fx.svc)

	repo := &pausingRepo{
		StockItemRepository: fx.store.Items(),
		read:                make(chan struct{}),
		resume:              make(chan struct{}),
	}
	query := stock.NewQueryService(repo, fx.store.Movements(), stock.NewDefaultStrategyFactory(), fx.cache, nil)

	firstCtx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := query.GetItem(firstCtx, created.Item.ID)
		first <- err
	}()
	<-repo.read

	second := make(chan *stock.ItemDetail, 1)
	go func() {
		d, err := query.GetItem(context.Background(), created.Item.ID)
		assert.NoError(t, err)
		second <- d
	}()
	// Margen para que el segundo lector se sume a la consulta en curso.
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(repo.resume)

	d := <-second
	require.NotNil(t, d)
	assert.Equal(t, 7, d.Item.Quantity)
}

func TestGetItem_RegistroDanadoSinHijo(t *testing.T) {
	fx := newFixture()
	created := createDrill(t, fx.svc)

	d, err := fx.query.GetItem(context.Background(), created.Damaged.ID)
	require.NoError(t, err)
	assert.True(t, d.Item.Damaged)
	assert.Nil(t, d.Damaged)
}

func TestGetItem_NoExiste(t *testing.T) {
	fx := newFixture()
	_, err := fx.query.GetItem(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, fx.cache.sets)
}

func TestListItems_FiltrosYOrden(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	_, err := fx.svc.CreateItem(ctx, equipmentFields("Furadeira", 10, 3), ana)
	require.NoError(t, err)
	_, err = fx.svc.CreateItem(ctx, equipmentFields("Serra", 2, 0), ana)
	require.NoError(t, err)
	_, err = fx.svc.CreateItem(ctx, stock.Fields{
		stock.FieldName: "Parafuso", stock.FieldQuantity: "100", stock.FieldType: "material", stock.FieldUnit: "caixa",
	}, ana)
	require.NoError(t, err)

	all, err := fx.query.ListItems(ctx, "", "", "")
	require.NoError(t, err)
	require.Len(t, all, 3, "los registros dañados no se listan")
	assert.Equal(t, "Serra", all[0].Item.Name)
	assert.Equal(t, "Furadeira", all[1].Item.Name)
	assert.Equal(t, 3, all[1].DamagedQuantity)

	desc, err := fx.query.ListItems(ctx, "", "", "DESC")
	require.NoError(t, err)
	assert.Equal(t, "Parafuso", desc[0].Item.Name)

	eq, err := fx.query.ListItems(ctx, "", "equipamento", "")
	require.NoError(t, err)
	assert.Len(t, eq, 2)

	search, err := fx.query.ListItems(ctx, "fura", "", "")
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Furadeira", search[0].Item.Name)

	_, err = fx.query.ListItems(ctx, "", "foo", "")
	assert.ErrorIs(t, err, domain.ErrUnknownProductType)
}

func TestListDamaged(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.CreateItem(context.Background(), equipmentFields("Serra", 5, 1), ana)
	require.NoError(t, err)
	_, err = fx.svc.CreateItem(context.Background(), equipmentFields("Broca", 5, 2), ana)
	require.NoError(t, err)

	damaged, err := fx.query.ListDamaged(context.Background())
	require.NoError(t, err)
	require.Len(t, damaged, 2)
	assert.Equal(t, "Broca (Damaged)", damaged[0].Name)
	assert.Equal(t, "Serra (Damaged)", damaged[1].Name)
}

func TestListMovements(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	created := createDrill(t, fx.svc)
	_, err := fx.svc.UpdateItem(ctx, created.Item.ID, stock.Fields{stock.FieldDamagedQuantity: "5"}, ana)
	require.NoError(t, err)
	_, err = fx.svc.DeleteDamagedChild(ctx, created.Damaged.ID, ana)
	require.NoError(t, err)

	movs, err := fx.query.ListMovements(ctx, created.Item.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, 5, movs[0].Quantity)
	assert.Equal(t, -2, movs[1].Quantity)
	assert.Equal(t, 10, movs[2].Quantity)

	page, err := fx.query.ListMovements(ctx, created.Item.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, -2, page[0].Quantity)

	_, err = fx.query.ListMovements(ctx, "nope", 0, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
