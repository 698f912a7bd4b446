// Package messaging publica los eventos de auditoría del almacén en RabbitMQ.
package messaging

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/Estoque-api/pkg/logger"
)

// ExchangeType exchange topic: las claves son audit.<usuario>.
const ExchangeType = "topic"

// SetupConn conecta (con reintentos, para arranques con contenedores) y declara el exchange.
func SetupConn(url, exchange string, attempts int, log *logger.Logger) (*amqp.Connection, *amqp.Channel, error) {
	if attempts <= 0 {
		attempts = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	var conn *amqp.Connection
	var err error
	for i := 0; i < attempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("no se pudo conectar a RabbitMQ")
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,     // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declarar exchange: %w", err)
	}
	return conn, ch, nil
}
