package entity

import "time"

// Tipos de movimiento del libro de stock.
const (
	MovementTypeEntry      = "entrada" // alta inicial en el almacén
	MovementTypeAdjustment = "ajuste"  // delta por edición
)

// StockMovement registro inmutable de un cambio de cantidad de un StockItem.
// Quantity es absoluta en entradas y un delta con signo en ajustes.
type StockMovement struct {
	ID        string
	Type      string
	Quantity  int
	ItemID    string
	UserID    string
	Note      string
	CreatedAt time.Time
}
