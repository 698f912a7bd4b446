package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/infrastructure/memory"
)

func TestStrategyFactory_Defaults(t *testing.T) {
	f := stock.NewDefaultStrategyFactory()
	assert.Equal(t, []string{entity.ItemTypeEquipment, entity.ItemTypeMaterial}, f.Types())

	tag, b, err := f.Resolve("  EQUIPAMENTO ")
	require.NoError(t, err)
	assert.Equal(t, entity.ItemTypeEquipment, tag)
	assert.IsType(t, stock.EquipmentStrategy{}, b.Create)

	cs, err := f.CreateStrategy("Matérial")
	require.NoError(t, err)
	assert.IsType(t, stock.MaterialStrategy{}, cs)

	us, err := f.UpdateStrategy("equipment")
	require.NoError(t, err)
	assert.IsType(t, stock.EquipmentStrategy{}, us)
}

func TestStrategyFactory_Desconocido(t *testing.T) {
	f := stock.NewDefaultStrategyFactory()
	_, _, err := f.Resolve("ferramenta")
	assert.ErrorIs(t, err, domain.ErrUnknownProductType)
	_, err = f.CreateStrategy("")
	assert.ErrorIs(t, err, domain.ErrUnknownProductType)
	_, err = f.UpdateStrategy("x")
	assert.ErrorIs(t, err, domain.ErrUnknownProductType)
}

func TestStrategyFactory_RegistroInvalido(t *testing.T) {
	f := stock.NewStrategyFactory()
	assert.ErrorIs(t, f.Register("", stock.Behavior{Create: stock.MaterialStrategy{}, Update: stock.MaterialStrategy{}}), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.Register("tool", stock.Behavior{Create: stock.MaterialStrategy{}}), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.Alias("ferramenta", "tool"), domain.ErrUnknownProductType)
}

// Un tipo nuevo se agrega registrando su comportamiento, sin tocar el servicio.
func TestStrategyFactory_TipoNuevo(t *testing.T) {
	f := stock.NewDefaultStrategyFactory()
	require.NoError(t, f.Register("tool", stock.Behavior{Create: stock.MaterialStrategy{}, Update: stock.MaterialStrategy{}}))
	require.NoError(t, f.Alias("Ferramenta", "tool"))

	svc := stock.NewService(memory.NewStore(), f, nil, nil, nil, stock.Options{})
	res, err := svc.CreateItem(context.Background(), stock.Fields{
		stock.FieldName:     "Chave",
		stock.FieldQuantity: "4",
		stock.FieldType:     "ferramenta",
		stock.FieldUnit:     "unidade",
	}, ana)
	require.NoError(t, err)
	assert.Equal(t, "tool", res.Item.Type)
	assert.Equal(t, 4, res.Item.Quantity)
}

func TestStrategyFactory_RegisterReemplazaAlias(t *testing.T) {
	f := stock.NewDefaultStrategyFactory()
	require.NoError(t, f.Register("equipamento", stock.Behavior{Create: stock.MaterialStrategy{}, Update: stock.MaterialStrategy{}}))

	tag, _, err := f.Resolve("equipamento")
	require.NoError(t, err)
	assert.Equal(t, "equipamento", tag)
}
