package rabbitmq

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
)

// BindQueue объявляет durable-очередь queue и привязывает её к exchange по шаблону pattern.
func BindQueue(ch *amqp.Channel, exchange, queue, pattern string) error {
	const op = "rabbitmq.BindQueue"

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.QueueBind(queue, pattern, exchange, false, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConsumeMessages читает очередь queueName и передаёт тело каждого сообщения handler.
// Сообщения обрабатываются по одному. Успешно обработанные подтверждаются,
// при ошибке handler сообщение отклоняется без возврата в очередь.
// Возвращает nil при отмене ctx и ошибку, если брокер закрыл канал доставки.
func ConsumeMessages(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumeMessages"

	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-delivery:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", op)
			}
			if err := handler(d.Body); err != nil {
				if nackErr := d.Nack(false, false); nackErr != nil {
					return fmt.Errorf("%s: nack: %w", op, nackErr)
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				return fmt.Errorf("%s: ack: %w", op, ackErr)
			}
		}
	}
}
