package entity

import "time"

// Tipos de producto registrados por defecto.
const (
	ItemTypeMaterial  = "material"
	ItemTypeEquipment = "equipment"
)

// Origin procedencia de un equipo. Vacío = sin origen (materiales o valor no reconocido).
type Origin string

const (
	OriginNone      Origin = ""
	OriginRented    Origin = "rented"
	OriginPurchased Origin = "purchased"
)

// DamagedSuffix se agrega al nombre del padre para nombrar su registro dañado.
const DamagedSuffix = " (Damaged)"

// StockItem representa un ítem físico del almacén (material o equipo).
// Quantity es siempre la cantidad utilizable del registro. Un registro dañado apunta a su
// padre con OriginID y descuenta su cantidad de la del padre.
type StockItem struct {
	ID        string
	Name      string
	Quantity  int
	Location  string
	Unit      string
	Type      string
	Origin    Origin
	Damaged   bool
	OriginID  *string // solo en registros dañados
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDamagedChild indica si el registro es un hijo dañado enlazado a un padre.
func (i *StockItem) IsDamagedChild() bool {
	return i.Damaged && i.OriginID != nil && *i.OriginID != ""
}

// DamagedName nombre derivado para el registro dañado de un padre.
func DamagedName(parentName string) string {
	return parentName + DamagedSuffix
}

// Clone copia el ítem, incluido el puntero OriginID.
func (i *StockItem) Clone() *StockItem {
	if i == nil {
		return nil
	}
	c := *i
	if i.OriginID != nil {
		id := *i.OriginID
		c.OriginID = &id
	}
	return &c
}
