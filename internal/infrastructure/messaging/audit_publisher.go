package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/Estoque-api/internal/application/stock"
)

var _ stock.AuditSink = (*AuditPublisher)(nil)

// AuditEvent mensaje publicado por cada operación auditada.
type AuditEvent struct {
	ID         string    `json:"id"`
	User       string    `json:"user"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Channel subconjunto de *amqp.Channel que usa el publicador.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AuditPublisher AuditSink que publica en un exchange de RabbitMQ.
type AuditPublisher struct {
	ch       Channel
	exchange string
	now      func() time.Time
}

// NewAuditPublisher construye el publicador sobre un canal ya configurado.
func NewAuditPublisher(ch Channel, exchange string) *AuditPublisher {
	return &AuditPublisher{ch: ch, exchange: exchange, now: time.Now}
}

// Record publica el evento con clave audit.<usuario>.
func (p *AuditPublisher) Record(ctx context.Context, userName, message string) error {
	event := AuditEvent{
		ID:         uuid.New().String(),
		User:       userName,
		Message:    message,
		OccurredAt: p.now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("codificar evento de auditoría: %w", err)
	}
	return p.ch.PublishWithContext(ctx,
		p.exchange,
		routingKey(userName),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}

// routingKey los puntos y espacios del nombre romperían la jerarquía topic.
func routingKey(userName string) string {
	user := strings.NewReplacer(".", "_", " ", "_", "*", "_", "#", "_").Replace(strings.TrimSpace(userName))
	if user == "" {
		user = "anonimo"
	}
	return "audit." + strings.ToLower(user)
}
