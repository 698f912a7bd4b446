package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Estoque-api/pkg/config"
)

var ana = stock.Actor{ID: "u-1", Name: "ana"}

// setupTestDB usa una base dedicada (TEST_DATABASE_URL) para no tocar la de la aplicación.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL no definido, se omite la prueba de integración")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dbURL, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE TABLE stock_movements, stock_items CASCADE`)
	require.NoError(t, err)
	return pool
}

func newPgService(pool *pgxpool.Pool) *stock.Service {
	return stock.NewService(postgres.NewTxRunner(pool), stock.NewDefaultStrategyFactory(), nil, nil, nil, stock.Options{})
}

func drillFields(damaged string) stock.Fields {
	return stock.Fields{
		stock.FieldName:            "Drill",
		stock.FieldQuantity:        "10",
		stock.FieldType:            entity.ItemTypeEquipment,
		stock.FieldUnit:            "unidade",
		stock.FieldDamagedQuantity: damaged,
		stock.FieldOrigin:          "comprado",
	}
}

func split(t *testing.T, pool *pgxpool.Pool, parentID string) (int, int) {
	t.Helper()
	ctx := context.Background()
	items := postgres.NewStockItemRepository(pool)
	parent, err := items.GetByID(ctx, parentID)
	require.NoError(t, err)
	require.NotNil(t, parent)
	child, err := items.DamagedChild(ctx, parentID)
	require.NoError(t, err)
	if child == nil {
		return parent.Quantity, 0
	}
	return parent.Quantity, child.Quantity
}

func TestService_FlujoDeDanadosSobrePostgres(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := newPgService(pool)

	created, err := svc.CreateItem(ctx, drillFields("3"), ana)
	require.NoError(t, err)
	require.NoError(t, created.LedgerErr)
	parentID := created.Item.ID
	usable, dmg := split(t, pool, parentID)
	assert.Equal(t, 7, usable)
	assert.Equal(t, 3, dmg)

	upd, err := svc.UpdateItem(ctx, parentID, stock.Fields{stock.FieldDamagedQuantity: "5"}, ana)
	require.NoError(t, err)
	require.NoError(t, upd.LedgerErr)
	usable, dmg = split(t, pool, parentID)
	assert.Equal(t, 5, usable)
	assert.Equal(t, 5, dmg)

	_, err = svc.UpdateItem(ctx, parentID, stock.Fields{stock.FieldDamagedQuantity: "11"}, ana)
	assert.ErrorIs(t, err, domain.ErrDamagedExceedsAvailable)
	usable, dmg = split(t, pool, parentID)
	assert.Equal(t, 5, usable, "un rechazo no modifica nada")
	assert.Equal(t, 5, dmg)

	_, err = svc.DeleteDamagedChild(ctx, upd.Damaged.ID, ana)
	require.NoError(t, err)
	usable, dmg = split(t, pool, parentID)
	assert.Equal(t, 10, usable)
	assert.Equal(t, 0, dmg)

	movs, err := postgres.NewStockMovementRepository(pool).ListByItem(ctx, parentID, 0, 0)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, 5, movs[0].Quantity)
	assert.Equal(t, -2, movs[1].Quantity)
	assert.Equal(t, entity.MovementTypeEntry, movs[2].Type)
	assert.Equal(t, 10, movs[2].Quantity)
}

func TestMovimientoFallidoNoRevierteLaCantidad(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	created, err := newPgService(pool).CreateItem(ctx, drillFields("0"), ana)
	require.NoError(t, err)

	var ledgerErr error
	err = postgres.NewTxRunner(pool).Run(ctx, func(items repository.StockItemRepository, movs repository.StockMovementRepository) error {
		item, err := items.GetForUpdate(ctx, created.Item.ID)
		if err != nil {
			return err
		}
		item.Quantity = 4
		if err := items.Update(ctx, item); err != nil {
			return err
		}
		// La FK hacia un ítem inexistente aborta solo el savepoint del movimiento.
		ledgerErr = movs.Create(ctx, &entity.StockMovement{
			Type:      entity.MovementTypeAdjustment,
			Quantity:  -6,
			ItemID:    "no-existe",
			CreatedAt: time.Now(),
		})
		return nil
	})
	require.NoError(t, err, "la transacción sigue confirmable")
	assert.ErrorIs(t, ledgerErr, domain.ErrNotFound)

	usable, _ := split(t, pool, created.Item.ID)
	assert.Equal(t, 4, usable)
}

func TestIndiceUnicoRechazaSegundoRegistroDanado(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	created, err := newPgService(pool).CreateItem(ctx, drillFields("3"), ana)
	require.NoError(t, err)

	parentID := created.Item.ID
	now := time.Now()
	err = postgres.NewStockItemRepository(pool).Create(ctx, &entity.StockItem{
		ID:        "segundo-danado",
		Name:      entity.DamagedName("Drill"),
		Quantity:  1,
		Unit:      "unidade",
		Type:      entity.ItemTypeEquipment,
		Damaged:   true,
		OriginID:  &parentID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestDamagedChild_BloqueaLaFila(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	created, err := newPgService(pool).CreateItem(ctx, drillFields("3"), ana)
	require.NoError(t, err)

	holder, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	child, err := postgres.NewStockItemRepository(holder).DamagedChild(ctx, created.Item.ID)
	require.NoError(t, err)
	require.NotNil(t, child)

	other, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = other.Rollback(ctx) }()
	_, err = other.Exec(ctx, `SET LOCAL lock_timeout = '100ms'`)
	require.NoError(t, err)

	_, err = postgres.NewStockItemRepository(other).GetForUpdate(ctx, child.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "la fila sigue bloqueada por la primera transacción")
}

func TestDeleteItem_CascadaEnPostgres(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := newPgService(pool)
	created, err := svc.CreateItem(ctx, drillFields("3"), ana)
	require.NoError(t, err)

	_, err = svc.DeleteItem(ctx, created.Item.ID, ana)
	require.NoError(t, err)

	var items, movs int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM stock_items`).Scan(&items))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM stock_movements`).Scan(&movs))
	assert.Zero(t, items)
	assert.Zero(t, movs)
}
