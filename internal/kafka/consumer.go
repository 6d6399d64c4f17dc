package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/IBM/sarama"

	"eventhub/internal/models"
)

type Consumer struct {
	consumer sarama.ConsumerGroup
	topics   []string
}

func NewBookingConsumer(brokers []string, groupID string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	topics := []string{"booking-created", "booking-confirmed", "booking-cancelled", "booking-events"}

	return &Consumer{
		consumer: consumer,
		topics:   topics,
	}, nil
}

func (c *Consumer) ConsumeBookingEvents(ctx context.Context, handler func(*models.BookingEvent) error) error {
	consumerHandler := &BookingConsumerHandler{Handler: handler}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consumer.Consume(ctx, c.topics, consumerHandler); err != nil {
				log.Printf("Error consuming messages: %v", err)
				return err
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}

// BookingConsumerHandler is exported so tests can drive ProcessMessage
// without a live broker.
type BookingConsumerHandler struct {
	Handler func(*models.BookingEvent) error
}

func (h *BookingConsumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *BookingConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *BookingConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.ProcessMessage(message.Value); err != nil {
			log.Printf("Failed to handle booking event: %v", err)
			continue
		}
		session.MarkMessage(message, "")
	}

	return nil
}

func (h *BookingConsumerHandler) ProcessMessage(value []byte) error {
	var event models.BookingEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return h.Handler(&event)
}
