package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
)

func TestItemKey(t *testing.T) {
	assert.Equal(t, "stock:item:abc", itemKey("abc"))
}

func TestGenKey(t *testing.T) {
	assert.Equal(t, "stock:item-gen:abc", genKey("abc"))
}

func TestRedisItemCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, "localhost:6379", "", 15)
	if err != nil {
		t.Skip("Redis no disponible, se omite la prueba de integración")
	}
	defer client.Close()

	c := NewRedisItemCache(client, time.Minute)
	id := "test-" + time.Now().Format("150405.000000")
	parentID := id
	detail := &stock.ItemDetail{
		Item:    &entity.StockItem{ID: id, Name: "Taladro", Quantity: 7, Type: entity.ItemTypeEquipment},
		Damaged: &entity.StockItem{ID: id + "-d", Name: "Taladro (Damaged)", Quantity: 3, Damaged: true, OriginID: &parentID},
	}

	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	version, err := c.Version(ctx, id)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, id, version, detail))
	got, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got.Item.Quantity)
	require.NotNil(t, got.Damaged)
	assert.Equal(t, id, *got.Damaged.OriginID)

	require.NoError(t, c.Invalidate(ctx, id, ""))
	_, ok, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisItemCache_SetDescartadoTrasInvalidate(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, "localhost:6379", "", 15)
	if err != nil {
		t.Skip("Redis no disponible, se omite la prueba de integración")
	}
	defer client.Close()

	c := NewRedisItemCache(client, time.Minute)
	id := "gen-" + time.Now().Format("150405.000000")
	stale := &stock.ItemDetail{Item: &entity.StockItem{ID: id, Name: "Taladro", Quantity: 7}}

	// Una lectura toma la generación y, antes de escribir, un commit invalida el ítem.
	version, err := c.Version(ctx, id)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, id))

	require.NoError(t, c.Set(ctx, id, version, stale))
	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "una generación vieja no debe reponer el ítem")

	current, err := c.Version(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, version+1, current)
	require.NoError(t, c.Set(ctx, id, current, stale))
	_, ok, err = c.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, c.Invalidate(ctx, id))
}
