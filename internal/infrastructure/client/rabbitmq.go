package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/St1cky1/task-manager-api/internal/entity"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditQueue - durable очередь, привязанная к exchange аудита
const AuditQueue = "task_audit_logs"

// RabbitMQClient публикует события аудита в fanout exchange
type RabbitMQClient struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

func NewRabbitMQClient(url, exchange string, logger *slog.Logger) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareAuditTopology(channel, exchange); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger.With(slog.String("component", "rabbitmq")),
	}, nil
}

// declareAuditTopology объявляет exchange и очередь, чтобы сообщения не терялись без подписчиков
func declareAuditTopology(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(
		exchange, // name
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	queue, err := ch.QueueDeclare(
		AuditQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", AuditQueue, err)
	}

	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", AuditQueue, err)
	}
	return nil
}

// NewAuditPublishing собирает сообщение AMQP из события аудита
func NewAuditPublishing(message *entity.AuditMessage) (amqp.Publishing, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal audit message: %w", err)
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         string(message.Action),
		Timestamp:    message.Timestamp,
		Body:         body,
		DeliveryMode: amqp.Persistent, // Сообщения сохраняются на диск
	}, nil
}

func (c *RabbitMQClient) PublishAuditMessage(ctx context.Context, message *entity.AuditMessage) error {
	msg, err := NewAuditPublishing(message)
	if err != nil {
		return err
	}

	err = c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("publish audit message: %w", err)
	}

	c.logger.Debug("audit message sent",
		slog.String("action", string(message.Action)),
		slog.String("task_id", message.EntityID.String()))
	return nil
}

func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
