// Package audit sinks de auditoría: log estructurado y composición de varios destinos.
package audit

import (
	"context"
	"errors"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
	"github.com/jhoicas/Estoque-api/pkg/logger"
)

var (
	_ stock.AuditSink = (*LogSink)(nil)
	_ stock.AuditSink = MultiSink(nil)
)

// LogSink escribe cada mensaje de auditoría como evento Info con el campo user.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink sobre log (nil descarta).
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSink{log: log.WithComponent("audit")}
}

// Record nunca falla.
func (s *LogSink) Record(_ context.Context, userName, message string) error {
	s.log.Info().Str("user", userName).Msg(message)
	return nil
}

// MultiSink reenvía a todos los sinks y une los errores.
type MultiSink []stock.AuditSink

// Record entrega a cada sink aunque alguno falle.
func (m MultiSink) Record(ctx context.Context, userName, message string) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, userName, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
