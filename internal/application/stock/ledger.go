package stock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Estoque-api/internal/domain/entity"
	"github.com/jhoicas/Estoque-api/internal/domain/repository"
)

// Ledger escribe movimientos en el libro de stock. Atado al repositorio de la transacción en curso.
type Ledger struct {
	movRepo repository.StockMovementRepository
	now     func() time.Time
}

// NewLedger construye el escritor del libro.
func NewLedger(movRepo repository.StockMovementRepository, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{movRepo: movRepo, now: now}
}

// RecordEntry registra la entrada inicial (cantidad absoluta).
func (l *Ledger) RecordEntry(ctx context.Context, itemID, userID string, quantity int, note string) error {
	return l.record(ctx, entity.MovementTypeEntry, itemID, userID, quantity, note)
}

// RecordAdjustment registra un ajuste (delta con signo).
func (l *Ledger) RecordAdjustment(ctx context.Context, itemID, userID string, delta int, note string) error {
	return l.record(ctx, entity.MovementTypeAdjustment, itemID, userID, delta, note)
}

func (l *Ledger) record(ctx context.Context, movType, itemID, userID string, quantity int, note string) error {
	return l.movRepo.Create(ctx, &entity.StockMovement{
		ID:        uuid.New().String(),
		Type:      movType,
		Quantity:  quantity,
		ItemID:    itemID,
		UserID:    userID,
		Note:      note,
		CreatedAt: l.now(),
	})
}
