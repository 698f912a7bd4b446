package stock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Estoque-api/internal/domain"
	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/stock"
)

func TestValidateQuantity(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		allowZero bool
		want      int
		wantErr   error
	}{
		{"entero positivo", "10", true, 10, nil},
		{"con espacios", " 7 ", true, 7, nil},
		{"cero permitido", "0", true, 0, nil},
		{"cero no permitido", "0", false, 0, domain.ErrZeroNotAllowed},
		{"negativo", "-1", true, 0, domain.ErrInvalidQuantity},
		{"no numérico", "abc", true, 0, domain.ErrInvalidQuantity},
		{"decimal", "1.5", true, 0, domain.ErrInvalidQuantity},
		{"vacío", "", true, 0, domain.ErrInvalidQuantity},
		{"máximo de la columna", "2147483647", true, stock.MaxQuantity, nil},
		{"excede INTEGER", "3000000000", true, 0, domain.ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := stock.ValidateQuantity(tc.raw, tc.allowZero)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateOptionalQuantity_VacioEsCero(t *testing.T) {
	got, err := stock.ValidateOptionalQuantity("  ")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = stock.ValidateOptionalQuantity("-3")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestNormalizeOrigin(t *testing.T) {
	assert.Equal(t, entity.OriginRented, stock.NormalizeOrigin("  Rented "))
	assert.Equal(t, entity.OriginRented, stock.NormalizeOrigin("ALUGADA"))
	assert.Equal(t, entity.OriginPurchased, stock.NormalizeOrigin("purchased"))
	assert.Equal(t, entity.OriginPurchased, stock.NormalizeOrigin("Comprado"))
	assert.Equal(t, entity.OriginNone, stock.NormalizeOrigin(""))
	assert.Equal(t, entity.OriginNone, stock.NormalizeOrigin("donado"))
}

func TestValidateDamagedAgainstAvailable(t *testing.T) {
	// Falla si y solo si solicitado > utilizable + dañado.
	for requested := 0; requested <= 12; requested++ {
		err := stock.ValidateDamagedAgainstAvailable(requested, 7, 3)
		if requested > 10 {
			require.ErrorIs(t, err, domain.ErrDamagedExceedsAvailable)
			assert.Contains(t, err.Error(), "disponible 10")
		} else {
			assert.NoError(t, err, "solicitado=%d", requested)
		}
	}
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "equipment", stock.NormalizeTag(" Equipment "))
	assert.Equal(t, "equipamento", stock.NormalizeTag("EQUIPAMENTO"))
	assert.Equal(t, "material", stock.NormalizeTag("Matérial"))
	assert.Equal(t, "", stock.NormalizeTag("   "))
}
